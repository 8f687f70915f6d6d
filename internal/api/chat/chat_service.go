package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-trip-planner/app/observability/metrics"
	generativeAI "github.com/FACorreiaa/go-trip-planner/internal/api/generative_ai"
	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

const (
	DefaultMaxTurns      = 8
	DefaultContextWindow = 6
	// replies shorter than this are treated as a failed model call
	minReplyRunes = 10
	// the remaining-turns notice starts at this many turns left
	noticeThreshold = 2
)

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	// Send answers one user message. Callers must not issue a second Send
	// for the same trip while one is in flight: ordering and the turn count
	// rely on it.
	Send(ctx context.Context, ownerID, tripID uuid.UUID, text string) (*types.ChatReply, error)
	History(ctx context.Context, ownerID, tripID uuid.UUID) (*types.ChatHistory, error)
}

// TripLoader returns a trip owned by the caller, or types.ErrNotFound.
type TripLoader interface {
	GetTrip(ctx context.Context, ownerID, tripID uuid.UUID) (*types.TripTree, error)
}

// Cipher seals message bodies at rest.
type Cipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

type Config struct {
	MaxTurns      int
	ContextWindow int
}

type ServiceImpl struct {
	logger *slog.Logger
	repo   Repository
	trips  TripLoader
	llm    generativeAI.Completer
	cipher Cipher
	cfg    Config
}

func NewServiceImpl(repo Repository, trips TripLoader, llm generativeAI.Completer, cipher Cipher, cfg Config, logger *slog.Logger) *ServiceImpl {
	if cfg.MaxTurns <= 0 {
		cfg.MaxTurns = DefaultMaxTurns
	}
	if cfg.ContextWindow <= 0 {
		cfg.ContextWindow = DefaultContextWindow
	}
	return &ServiceImpl{logger: logger, repo: repo, trips: trips, llm: llm, cipher: cipher, cfg: cfg}
}

func (s *ServiceImpl) Send(ctx context.Context, ownerID, tripID uuid.UUID, text string) (*types.ChatReply, error) {
	ctx, span := otel.Tracer("ChatService").Start(ctx, "Send", trace.WithAttributes(
		attribute.String("user.id", ownerID.String()),
		attribute.String("trip.id", tripID.String()),
	))
	defer span.End()
	l := s.logger.With(slog.String("method", "Send"), slog.String("tripID", tripID.String()))

	tree, err := s.trips.GetTrip(ctx, ownerID, tripID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Trip not available")
		return nil, fmt.Errorf("failed to load trip for chat: %w", err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		span.SetStatus(codes.Error, "Empty message")
		return nil, types.NewValidationError("message", "must not be empty")
	}

	used, err := s.repo.CountUserMessages(ctx, tripID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to count turns")
		return nil, fmt.Errorf("failed to count chat turns: %w", err)
	}
	if used >= s.cfg.MaxTurns {
		l.InfoContext(ctx, "Chat quota exhausted", slog.Int("turnsUsed", used))
		metrics.Get().ChatQuotaRejectionsTotal.Add(ctx, 1)
		span.SetStatus(codes.Error, "Quota exceeded")
		return nil, fmt.Errorf("trip %s has used all %d messages: %w", tripID, s.cfg.MaxTurns, types.ErrQuotaExceeded)
	}

	prior, err := s.repo.ListMessages(ctx, tripID, s.cfg.ContextWindow)
	if err != nil {
		l.WarnContext(ctx, "Failed to load chat context, continuing without it", slog.Any("error", err))
		prior = nil
	}

	if err := s.store(ctx, tripID, types.ChatRoleUser, text); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to store user message")
		return nil, err
	}
	used++
	remaining := s.cfg.MaxTurns - used

	messages := s.contextMessages(ctx, prior)
	messages = append(messages, types.PromptMessage{Role: types.ChatRoleUser, Content: text})

	reply, err := s.llm.Complete(ctx, itinerarySummary(tree), messages)
	reply = strings.TrimSpace(reply)
	fallback := false
	if err != nil || utf8.RuneCountInString(reply) < minReplyRunes {
		l.WarnContext(ctx, "Using rule-based chat reply", slog.Any("error", err), slog.Int("replyRunes", utf8.RuneCountInString(reply)))
		reply = fallbackReply(text, tree.Trip)
		fallback = true
	}
	if remaining <= noticeThreshold {
		reply += remainingNotice(remaining)
	}

	if err := s.store(ctx, tripID, types.ChatRoleAssistant, reply); err != nil {
		// the user's turn is already counted; the reply is still returned
		l.ErrorContext(ctx, "Failed to store assistant reply", slog.Any("error", err))
		span.RecordError(err)
	}

	metrics.Get().ChatMessagesTotal.Add(ctx, 1, metric.WithAttributes(attribute.Bool("fallback", fallback)))
	span.SetAttributes(attribute.Int("chat.turns_used", used), attribute.Bool("chat.fallback", fallback))
	span.SetStatus(codes.Ok, "")

	return &types.ChatReply{
		Reply:          reply,
		TurnsUsed:      used,
		TurnsRemaining: remaining,
		Locked:         remaining <= 0,
		Fallback:       fallback,
	}, nil
}

// History decrypts the whole conversation. Messages that no longer decrypt
// are returned as types.MessageUnavailable; their ciphertext is never exposed.
func (s *ServiceImpl) History(ctx context.Context, ownerID, tripID uuid.UUID) (*types.ChatHistory, error) {
	ctx, span := otel.Tracer("ChatService").Start(ctx, "History", trace.WithAttributes(
		attribute.String("user.id", ownerID.String()),
		attribute.String("trip.id", tripID.String()),
	))
	defer span.End()
	l := s.logger.With(slog.String("method", "History"), slog.String("tripID", tripID.String()))

	if _, err := s.trips.GetTrip(ctx, ownerID, tripID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Trip not available")
		return nil, fmt.Errorf("failed to load trip for chat: %w", err)
	}

	records, err := s.repo.ListMessages(ctx, tripID, 0)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to list messages")
		return nil, fmt.Errorf("failed to load chat history: %w", err)
	}

	history := &types.ChatHistory{TripID: tripID, Messages: make([]types.ChatMessage, 0, len(records))}
	for _, rec := range records {
		msg := types.ChatMessage{ID: rec.ID, Role: rec.Role, CreatedAt: rec.CreatedAt}
		plain, err := s.cipher.Decrypt(rec.Ciphertext)
		if err != nil {
			l.WarnContext(ctx, "Chat message could not be decrypted", slog.String("messageID", rec.ID.String()), slog.Any("error", err))
			msg.Content = types.MessageUnavailable
			msg.Unavailable = true
		} else {
			msg.Content = plain
		}
		if rec.Role == types.ChatRoleUser {
			history.TurnsUsed++
		}
		history.Messages = append(history.Messages, msg)
	}
	history.TurnsRemaining = max(s.cfg.MaxTurns-history.TurnsUsed, 0)
	history.Locked = history.TurnsUsed >= s.cfg.MaxTurns

	span.SetStatus(codes.Ok, "")
	return history, nil
}

func (s *ServiceImpl) store(ctx context.Context, tripID uuid.UUID, role types.ChatRole, plaintext string) error {
	sealed, err := s.cipher.Encrypt(plaintext)
	if err != nil {
		return fmt.Errorf("failed to encrypt %s message: %w", role, err)
	}
	rec := &types.ChatMessageRecord{TripID: tripID, Role: role, Ciphertext: sealed}
	if err := s.repo.InsertMessage(ctx, rec); err != nil {
		return &types.PersistenceError{Op: "store " + string(role) + " message", Fatal: true, Err: err}
	}
	return nil
}

// contextMessages decrypts the context window. Unreadable messages are left
// out rather than sent to the model as placeholders.
func (s *ServiceImpl) contextMessages(ctx context.Context, records []types.ChatMessageRecord) []types.PromptMessage {
	out := make([]types.PromptMessage, 0, len(records)+1)
	for _, rec := range records {
		plain, err := s.cipher.Decrypt(rec.Ciphertext)
		if err != nil {
			s.logger.DebugContext(ctx, "Skipping undecryptable context message", slog.String("messageID", rec.ID.String()))
			continue
		}
		out = append(out, types.PromptMessage{Role: rec.Role, Content: plain})
	}
	return out
}
