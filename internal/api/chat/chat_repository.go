package chat

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	database "github.com/FACorreiaa/go-trip-planner/app/db"
	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

var _ Repository = (*PostgresChatRepo)(nil)

type Repository interface {
	// CountUserMessages is the number of turns already used on the trip.
	CountUserMessages(ctx context.Context, tripID uuid.UUID) (int, error)
	InsertMessage(ctx context.Context, msg *types.ChatMessageRecord) error
	// ListMessages returns the most recent limit messages in chronological
	// order. A limit <= 0 returns the whole conversation.
	ListMessages(ctx context.Context, tripID uuid.UUID, limit int) ([]types.ChatMessageRecord, error)
}

type PostgresChatRepo struct {
	logger *slog.Logger
	pgpool database.Pool
}

func NewPostgresChatRepo(pgpool database.Pool, logger *slog.Logger) *PostgresChatRepo {
	return &PostgresChatRepo{logger: logger, pgpool: pgpool}
}

func (r *PostgresChatRepo) CountUserMessages(ctx context.Context, tripID uuid.UUID) (int, error) {
	ctx, span := otel.Tracer("ChatRepo").Start(ctx, "CountUserMessages", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.sql.table", "trip_chat_messages"),
	))
	defer span.End()

	var n int
	err := r.pgpool.QueryRow(ctx,
		`SELECT COUNT(*) FROM trip_chat_messages WHERE trip_id = $1 AND role = 'user'`, tripID,
	).Scan(&n)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB SELECT failed")
		return 0, fmt.Errorf("error counting chat turns: %w", err)
	}
	span.SetStatus(codes.Ok, "")
	return n, nil
}

func (r *PostgresChatRepo) InsertMessage(ctx context.Context, msg *types.ChatMessageRecord) error {
	ctx, span := otel.Tracer("ChatRepo").Start(ctx, "InsertMessage", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.sql.table", "trip_chat_messages"),
		attribute.String("chat.role", string(msg.Role)),
	))
	defer span.End()

	err := r.pgpool.QueryRow(ctx, `
		INSERT INTO trip_chat_messages (trip_id, role, ciphertext)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`,
		msg.TripID, string(msg.Role), msg.Ciphertext,
	).Scan(&msg.ID, &msg.CreatedAt)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert chat message", slog.String("tripID", msg.TripID.String()), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB INSERT failed")
		return fmt.Errorf("error inserting chat message: %w", err)
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

func (r *PostgresChatRepo) ListMessages(ctx context.Context, tripID uuid.UUID, limit int) ([]types.ChatMessageRecord, error) {
	ctx, span := otel.Tracer("ChatRepo").Start(ctx, "ListMessages", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.sql.table", "trip_chat_messages"),
		attribute.Int("chat.limit", limit),
	))
	defer span.End()

	var (
		rows pgx.Rows
		err  error
	)
	if limit > 0 {
		rows, err = r.pgpool.Query(ctx, `
			SELECT id, trip_id, role, ciphertext, created_at FROM (
				SELECT id, trip_id, role, ciphertext, created_at
				FROM trip_chat_messages
				WHERE trip_id = $1
				ORDER BY created_at DESC, id DESC
				LIMIT $2
			) recent
			ORDER BY created_at, id`, tripID, limit)
	} else {
		rows, err = r.pgpool.Query(ctx, `
			SELECT id, trip_id, role, ciphertext, created_at
			FROM trip_chat_messages
			WHERE trip_id = $1
			ORDER BY created_at, id`, tripID)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB SELECT failed")
		return nil, fmt.Errorf("error listing chat messages: %w", err)
	}
	defer rows.Close()

	messages := []types.ChatMessageRecord{}
	for rows.Next() {
		var (
			m    types.ChatMessageRecord
			role string
		)
		if err := rows.Scan(&m.ID, &m.TripID, &role, &m.Ciphertext, &m.CreatedAt); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "DB scan failed")
			return nil, fmt.Errorf("error scanning chat message: %w", err)
		}
		m.Role = types.ChatRole(role)
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB rows error")
		return nil, fmt.Errorf("error iterating chat messages: %w", err)
	}
	span.SetStatus(codes.Ok, "")
	return messages, nil
}
