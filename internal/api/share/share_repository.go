package share

import (
	"context"
	"errors"
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
	"github.com/FACorreiaa/go-trip-planner/internal/api/trip"
	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

var _ Repository = (*PostgresShareRepo)(nil)

type Repository interface {
	CreateShare(ctx context.Context, share *types.Share) error
	// GetShare returns types.ErrNotFound for unknown IDs.
	GetShare(ctx context.Context, shareID uuid.UUID) (*types.Share, error)
	// CommitClone writes clone and marks the share accepted in one
	// transaction. When another acceptance committed first, nothing is
	// written and the winner's trip ID is returned with created=false.
	CommitClone(ctx context.Context, shareID uuid.UUID, clone *types.TripTree) (clonedTripID uuid.UUID, created bool, err error)
}

type PostgresShareRepo struct {
	logger *slog.Logger
	pgpool database.Pool
}

func NewPostgresShareRepo(pgpool database.Pool, logger *slog.Logger) *PostgresShareRepo {
	return &PostgresShareRepo{logger: logger, pgpool: pgpool}
}

func (r *PostgresShareRepo) CreateShare(ctx context.Context, share *types.Share) error {
	ctx, span := otel.Tracer("ShareRepo").Start(ctx, "CreateShare", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.sql.table", "trip_shares"),
	))
	defer span.End()

	err := r.pgpool.QueryRow(ctx, `
		INSERT INTO trip_shares (trip_id, sender_id, receiver_email)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`,
		share.TripID, share.SenderID, share.ReceiverEmail,
	).Scan(&share.ID, &share.CreatedAt)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB INSERT failed")
		return fmt.Errorf("error inserting share: %w", err)
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

func (r *PostgresShareRepo) GetShare(ctx context.Context, shareID uuid.UUID) (*types.Share, error) {
	ctx, span := otel.Tracer("ShareRepo").Start(ctx, "GetShare", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.sql.table", "trip_shares"),
	))
	defer span.End()

	var s types.Share
	err := r.pgpool.QueryRow(ctx, `
		SELECT id, trip_id, sender_id, receiver_email, accepted, cloned_trip_id, created_at, accepted_at
		FROM trip_shares WHERE id = $1`, shareID,
	).Scan(&s.ID, &s.TripID, &s.SenderID, &s.ReceiverEmail, &s.Accepted, &s.ClonedTripID, &s.CreatedAt, &s.AcceptedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "Share not found")
			return nil, fmt.Errorf("share %s: %w", shareID, types.ErrNotFound)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB SELECT failed")
		return nil, fmt.Errorf("error fetching share: %w", err)
	}
	span.SetStatus(codes.Ok, "")
	return &s, nil
}

func (r *PostgresShareRepo) CommitClone(ctx context.Context, shareID uuid.UUID, clone *types.TripTree) (uuid.UUID, bool, error) {
	ctx, span := otel.Tracer("ShareRepo").Start(ctx, "CommitClone", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "TRANSACTION"),
		attribute.String("db.sql.table", "trip_shares"),
		attribute.String("share.id", shareID.String()),
	))
	defer span.End()
	l := r.logger.With(slog.String("method", "CommitClone"), slog.String("shareID", shareID.String()))

	tx, err := r.pgpool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to begin transaction")
		return uuid.Nil, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var (
		accepted bool
		existing *uuid.UUID
	)
	err = tx.QueryRow(ctx, `SELECT accepted, cloned_trip_id FROM trip_shares WHERE id = $1 FOR UPDATE`, shareID).
		Scan(&accepted, &existing)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, false, fmt.Errorf("share %s: %w", shareID, types.ErrNotFound)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to lock share")
		return uuid.Nil, false, fmt.Errorf("failed to lock share: %w", err)
	}
	if accepted {
		if existing == nil {
			return uuid.Nil, false, fmt.Errorf("shared copy of share %s was deleted: %w", shareID, types.ErrNotFound)
		}
		l.InfoContext(ctx, "Share already accepted by a concurrent request", slog.String("clonedTripID", existing.String()))
		span.SetStatus(codes.Ok, "Already accepted")
		return *existing, false, nil
	}

	trips := trip.NewPostgresTripRepo(tx, r.logger)
	if err := trips.CreateTrip(ctx, &clone.Trip); err != nil {
		return uuid.Nil, false, r.abort(ctx, span, "clone trip", err)
	}
	for i := range clone.Days {
		day := &clone.Days[i]
		day.TripID = clone.Trip.ID
		if err := trips.UpsertTripDay(ctx, day); err != nil {
			return uuid.Nil, false, r.abort(ctx, span, fmt.Sprintf("clone day %d", day.DayNumber), err)
		}
		for j := range day.Activities {
			a := &day.Activities[j]
			a.TripDayID = day.ID
			if err := trips.InsertActivity(ctx, a); err != nil {
				return uuid.Nil, false, r.abort(ctx, span, fmt.Sprintf("clone activity %d of day %d", a.Position, day.DayNumber), err)
			}
		}
	}

	if _, err := tx.Exec(ctx, `
		UPDATE trip_shares SET accepted = TRUE, cloned_trip_id = $2, accepted_at = NOW()
		WHERE id = $1`, shareID, clone.Trip.ID); err != nil {
		return uuid.Nil, false, r.abort(ctx, span, "mark share accepted", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return uuid.Nil, false, r.abort(ctx, span, "commit", err)
	}

	span.SetAttributes(attribute.String("share.cloned_trip_id", clone.Trip.ID.String()))
	span.SetStatus(codes.Ok, "Share accepted")
	return clone.Trip.ID, true, nil
}

func (r *PostgresShareRepo) abort(ctx context.Context, span trace.Span, op string, err error) error {
	r.logger.ErrorContext(ctx, "Share acceptance rolled back", slog.String("op", op), slog.Any("error", err))
	span.RecordError(err)
	span.SetStatus(codes.Error, op+" failed")
	return &types.PersistenceError{Op: op, Fatal: true, Err: err}
}
