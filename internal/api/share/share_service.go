package share

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-trip-planner/app/observability/metrics"
	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	CreateShare(ctx context.Context, ownerID, tripID uuid.UUID, receiverEmail string) (*types.Share, error)
	// Accept clones the shared trip into the receiver's account. Accepting
	// the same share again returns the clone made the first time.
	Accept(ctx context.Context, shareID uuid.UUID, receiver types.Account) (*types.TripTree, error)
}

// TripStore is the part of the trip repository sharing needs.
type TripStore interface {
	GetTripTree(ctx context.Context, tripID uuid.UUID) (*types.TripTree, error)
	MarkShared(ctx context.Context, tripID uuid.UUID) error
}

type ServiceImpl struct {
	logger   *slog.Logger
	repo     Repository
	trips    TripStore
	notifier Notifier
	now      func() time.Time
}

func NewServiceImpl(repo Repository, trips TripStore, notifier Notifier, logger *slog.Logger) *ServiceImpl {
	if notifier == nil {
		notifier = NewLogNotifier(logger)
	}
	return &ServiceImpl{logger: logger, repo: repo, trips: trips, notifier: notifier, now: time.Now}
}

func (s *ServiceImpl) CreateShare(ctx context.Context, ownerID, tripID uuid.UUID, receiverEmail string) (*types.Share, error) {
	ctx, span := otel.Tracer("ShareService").Start(ctx, "CreateShare", trace.WithAttributes(
		attribute.String("user.id", ownerID.String()),
		attribute.String("trip.id", tripID.String()),
	))
	defer span.End()
	l := s.logger.With(slog.String("method", "CreateShare"), slog.String("tripID", tripID.String()))

	email, err := normalizeEmail(receiverEmail)
	if err != nil {
		span.SetStatus(codes.Error, "Invalid receiver email")
		return nil, err
	}

	tree, err := s.trips.GetTripTree(ctx, tripID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Trip lookup failed")
		return nil, fmt.Errorf("failed to load trip: %w", err)
	}
	if tree.Trip.OwnerID != ownerID {
		span.SetStatus(codes.Error, "Not the owner")
		return nil, fmt.Errorf("trip %s: %w", tripID, types.ErrNotFound)
	}

	share := &types.Share{TripID: tripID, SenderID: ownerID, ReceiverEmail: email}
	if err := s.repo.CreateShare(ctx, share); err != nil {
		l.ErrorContext(ctx, "Failed to store share", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Share insert failed")
		return nil, &types.PersistenceError{Op: "create share", Fatal: true, Err: err}
	}
	if err := s.trips.MarkShared(ctx, tripID); err != nil {
		l.WarnContext(ctx, "Failed to flag trip as shared", slog.Any("error", err))
	}

	s.publish(ctx, l, types.ShareEvent{
		Type:          types.EventTripShared,
		ShareID:       share.ID,
		TripID:        tripID,
		SenderID:      ownerID,
		ReceiverEmail: email,
	})

	l.InfoContext(ctx, "Trip shared", slog.String("shareID", share.ID.String()))
	span.SetAttributes(attribute.String("share.id", share.ID.String()))
	span.SetStatus(codes.Ok, "")
	return share, nil
}

func (s *ServiceImpl) Accept(ctx context.Context, shareID uuid.UUID, receiver types.Account) (*types.TripTree, error) {
	ctx, span := otel.Tracer("ShareService").Start(ctx, "Accept", trace.WithAttributes(
		attribute.String("user.id", receiver.ID.String()),
		attribute.String("share.id", shareID.String()),
	))
	defer span.End()
	l := s.logger.With(slog.String("method", "Accept"), slog.String("shareID", shareID.String()))

	share, err := s.repo.GetShare(ctx, shareID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Share lookup failed")
		return nil, err
	}
	if !strings.EqualFold(strings.TrimSpace(receiver.Email), share.ReceiverEmail) {
		span.SetStatus(codes.Error, "Receiver mismatch")
		return nil, fmt.Errorf("share %s was sent to another address: %w", shareID, types.ErrForbidden)
	}

	if share.Accepted {
		if share.ClonedTripID == nil {
			return nil, fmt.Errorf("shared copy of %s no longer exists: %w", shareID, types.ErrNotFound)
		}
		l.InfoContext(ctx, "Share already accepted", slog.String("clonedTripID", share.ClonedTripID.String()))
		span.SetStatus(codes.Ok, "Already accepted")
		return s.trips.GetTripTree(ctx, *share.ClonedTripID)
	}

	source, err := s.trips.GetTripTree(ctx, share.TripID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Source trip lookup failed")
		return nil, fmt.Errorf("failed to load shared trip: %w", err)
	}
	clone := cloneTree(source, receiver.ID)

	clonedID, created, err := s.repo.CommitClone(ctx, shareID, clone)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Clone failed")
		return nil, err
	}
	if !created {
		l.InfoContext(ctx, "Concurrent acceptance won, returning its copy", slog.String("clonedTripID", clonedID.String()))
		span.SetStatus(codes.Ok, "Already accepted")
		return s.trips.GetTripTree(ctx, clonedID)
	}

	metrics.Get().ShareAcceptancesTotal.Add(ctx, 1)
	s.publish(ctx, l, types.ShareEvent{
		Type:          types.EventTripShareAccepted,
		ShareID:       shareID,
		TripID:        share.TripID,
		ClonedTripID:  clonedID,
		SenderID:      share.SenderID,
		ReceiverEmail: share.ReceiverEmail,
	})

	l.InfoContext(ctx, "Share accepted", slog.String("clonedTripID", clonedID.String()))
	span.SetAttributes(attribute.String("share.cloned_trip_id", clonedID.String()))
	span.SetStatus(codes.Ok, "")
	return clone, nil
}

func (s *ServiceImpl) publish(ctx context.Context, l *slog.Logger, event types.ShareEvent) {
	event.OccurredAt = s.now().UTC()
	if err := s.notifier.Publish(ctx, event); err != nil {
		l.WarnContext(ctx, "Share notification dropped", slog.String("event", event.Type), slog.Any("error", err))
	}
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", types.NewValidationError("receiver_email", "is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", types.NewValidationError("receiver_email", "must be a plain email address")
	}
	return email, nil
}

// cloneTree copies the trip as it is now. IDs are cleared so the store
// assigns new ones; day numbers and activity positions are kept.
func cloneTree(src *types.TripTree, ownerID uuid.UUID) *types.TripTree {
	t := src.Trip
	t.ID = uuid.Nil
	t.OwnerID = ownerID
	t.Title = src.Trip.Title + types.SharedCopySuffix
	t.Shared = false
	t.Interests = append([]string(nil), src.Trip.Interests...)
	t.Weather = append([]types.DailyWeather(nil), src.Trip.Weather...)

	days := make([]types.TripDay, len(src.Days))
	for i, d := range src.Days {
		days[i] = types.TripDay{DayNumber: d.DayNumber, Date: d.Date}
		days[i].Activities = make([]types.Activity, len(d.Activities))
		for j, a := range d.Activities {
			a.ID = uuid.Nil
			a.TripDayID = uuid.Nil
			days[i].Activities[j] = a
		}
	}
	return &types.TripTree{Trip: t, Days: days}
}
