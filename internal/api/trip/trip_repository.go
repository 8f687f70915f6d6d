package trip

import (
	"context"
	"encoding/json"
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
	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

var _ Repository = (*PostgresTripRepo)(nil)

type Repository interface {
	// CreateTrip inserts the trip row and fills in ID and timestamps.
	CreateTrip(ctx context.Context, trip *types.Trip) error
	UpdateTripStatus(ctx context.Context, tripID uuid.UUID, status types.TripStatus) error
	// UpsertTripDay is idempotent on (trip_id, day_number) and fills in day.ID.
	UpsertTripDay(ctx context.Context, day *types.TripDay) error
	// InsertActivity is idempotent on (trip_day_id, position) and fills in ID.
	InsertActivity(ctx context.Context, activity *types.Activity) error
	// GetTripTree returns types.ErrNotFound when the trip does not exist.
	GetTripTree(ctx context.Context, tripID uuid.UUID) (*types.TripTree, error)
	MarkShared(ctx context.Context, tripID uuid.UUID) error
}

// PostgresTripRepo works on a pool or, when share acceptance clones a trip,
// on a transaction.
type PostgresTripRepo struct {
	logger *slog.Logger
	db     database.Querier
}

func NewPostgresTripRepo(db database.Querier, logger *slog.Logger) *PostgresTripRepo {
	return &PostgresTripRepo{logger: logger, db: db}
}

func (r *PostgresTripRepo) CreateTrip(ctx context.Context, trip *types.Trip) error {
	ctx, span := otel.Tracer("TripRepo").Start(ctx, "CreateTrip", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.sql.table", "trips"),
	))
	defer span.End()
	l := r.logger.With(slog.String("method", "CreateTrip"), slog.String("ownerID", trip.OwnerID.String()))

	weather, err := json.Marshal(nonNilWeather(trip.Weather))
	if err != nil {
		return fmt.Errorf("failed to encode weather: %w", err)
	}
	info, err := json.Marshal(trip.PreTripInfo)
	if err != nil {
		return fmt.Errorf("failed to encode pre-trip info: %w", err)
	}
	interests := trip.Interests
	if interests == nil {
		interests = []string{}
	}

	query := `
		INSERT INTO trips (owner_id, title, status, origin, destination, start_date, end_date, days,
		                   budget, traveler_profile, dietary, interests, weather, pre_trip_info, shared)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id, created_at, updated_at`

	err = r.db.QueryRow(ctx, query,
		trip.OwnerID, trip.Title, string(trip.Status), trip.Origin, trip.Destination,
		trip.StartDate, trip.EndDate, trip.Days, trip.Budget, trip.TravelerProfile,
		trip.Dietary, interests, weather, info, trip.Shared,
	).Scan(&trip.ID, &trip.CreatedAt, &trip.UpdatedAt)
	if err != nil {
		l.ErrorContext(ctx, "Failed to insert trip", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB INSERT failed")
		return fmt.Errorf("error inserting trip: %w", err)
	}
	span.SetAttributes(attribute.String("db.trip.id", trip.ID.String()))
	span.SetStatus(codes.Ok, "Trip inserted")
	return nil
}

func (r *PostgresTripRepo) UpdateTripStatus(ctx context.Context, tripID uuid.UUID, status types.TripStatus) error {
	ctx, span := otel.Tracer("TripRepo").Start(ctx, "UpdateTripStatus", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "UPDATE"),
		attribute.String("db.sql.table", "trips"),
	))
	defer span.End()

	tag, err := r.db.Exec(ctx, `UPDATE trips SET status = $2, updated_at = NOW() WHERE id = $1`, tripID, string(status))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB UPDATE failed")
		return fmt.Errorf("error updating trip status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("trip %s: %w", tripID, types.ErrNotFound)
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

func (r *PostgresTripRepo) UpsertTripDay(ctx context.Context, day *types.TripDay) error {
	ctx, span := otel.Tracer("TripRepo").Start(ctx, "UpsertTripDay", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "UPSERT"),
		attribute.String("db.sql.table", "trip_days"),
		attribute.Int("trip.day_number", day.DayNumber),
	))
	defer span.End()

	query := `
		INSERT INTO trip_days (trip_id, day_number, date)
		VALUES ($1, $2, $3)
		ON CONFLICT (trip_id, day_number) DO UPDATE SET date = EXCLUDED.date
		RETURNING id`

	if err := r.db.QueryRow(ctx, query, day.TripID, day.DayNumber, day.Date).Scan(&day.ID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB UPSERT failed")
		return fmt.Errorf("error upserting trip day %d: %w", day.DayNumber, err)
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

func (r *PostgresTripRepo) InsertActivity(ctx context.Context, a *types.Activity) error {
	ctx, span := otel.Tracer("TripRepo").Start(ctx, "InsertActivity", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "UPSERT"),
		attribute.String("db.sql.table", "trip_activities"),
	))
	defer span.End()

	query := `
		INSERT INTO trip_activities (trip_day_id, position, time_of_day, title, description, location,
		                             cost, latitude, longitude, image_url, map_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (trip_day_id, position) DO UPDATE SET
			time_of_day = EXCLUDED.time_of_day,
			title       = EXCLUDED.title,
			description = EXCLUDED.description,
			location    = EXCLUDED.location,
			cost        = EXCLUDED.cost,
			latitude    = EXCLUDED.latitude,
			longitude   = EXCLUDED.longitude,
			image_url   = EXCLUDED.image_url,
			map_url     = EXCLUDED.map_url
		RETURNING id`

	err := r.db.QueryRow(ctx, query,
		a.TripDayID, a.Position, a.TimeOfDay, a.Title, a.Description, a.Location,
		a.Cost, a.Latitude, a.Longitude, a.ImageURL, a.MapURL,
	).Scan(&a.ID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB INSERT failed")
		return fmt.Errorf("error inserting activity %d: %w", a.Position, err)
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

func (r *PostgresTripRepo) GetTripTree(ctx context.Context, tripID uuid.UUID) (*types.TripTree, error) {
	ctx, span := otel.Tracer("TripRepo").Start(ctx, "GetTripTree", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.sql.table", "trips"),
		attribute.String("db.trip.id", tripID.String()),
	))
	defer span.End()
	l := r.logger.With(slog.String("method", "GetTripTree"), slog.String("tripID", tripID.String()))

	trip, err := scanTrip(r.db.QueryRow(ctx, `
		SELECT id, owner_id, title, status, origin, destination, start_date, end_date, days, budget,
		       traveler_profile, dietary, interests, weather, pre_trip_info, shared, created_at, updated_at
		FROM trips WHERE id = $1`, tripID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "Trip not found")
			return nil, fmt.Errorf("trip %s: %w", tripID, types.ErrNotFound)
		}
		l.ErrorContext(ctx, "Failed to query trip", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB SELECT failed")
		return nil, fmt.Errorf("database error fetching trip: %w", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT d.id, d.day_number, d.date,
		       a.id, a.position, a.time_of_day, a.title, a.description, a.location, a.cost,
		       a.latitude, a.longitude, a.image_url, a.map_url
		FROM trip_days d
		LEFT JOIN trip_activities a ON a.trip_day_id = d.id
		WHERE d.trip_id = $1
		ORDER BY d.day_number, a.position`, tripID)
	if err != nil {
		l.ErrorContext(ctx, "Failed to query trip days", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB SELECT failed")
		return nil, fmt.Errorf("database error fetching trip days: %w", err)
	}
	defer rows.Close()

	tree := &types.TripTree{Trip: *trip, Days: []types.TripDay{}}
	for rows.Next() {
		var (
			day                                     types.TripDay
			activityID                              *uuid.UUID
			position                                *int
			timeOfDay, title, description, location *string
			cost                                    *float64
			a                                       types.Activity
		)
		if err := rows.Scan(&day.ID, &day.DayNumber, &day.Date,
			&activityID, &position, &timeOfDay, &title, &description, &location, &cost,
			&a.Latitude, &a.Longitude, &a.ImageURL, &a.MapURL); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "DB scan failed")
			return nil, fmt.Errorf("error scanning trip day row: %w", err)
		}

		n := len(tree.Days)
		if n == 0 || tree.Days[n-1].ID != day.ID {
			day.TripID = tripID
			day.Activities = []types.Activity{}
			tree.Days = append(tree.Days, day)
			n++
		}
		if activityID == nil {
			continue
		}
		a.ID = *activityID
		a.TripDayID = day.ID
		a.Position = deref(position)
		a.TimeOfDay = deref(timeOfDay)
		a.Title = deref(title)
		a.Description = deref(description)
		a.Location = deref(location)
		a.Cost = deref(cost)
		tree.Days[n-1].Activities = append(tree.Days[n-1].Activities, a)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB rows error")
		return nil, fmt.Errorf("error iterating trip days: %w", err)
	}

	span.SetStatus(codes.Ok, "Trip tree fetched")
	return tree, nil
}

func (r *PostgresTripRepo) MarkShared(ctx context.Context, tripID uuid.UUID) error {
	ctx, span := otel.Tracer("TripRepo").Start(ctx, "MarkShared", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "UPDATE"),
		attribute.String("db.sql.table", "trips"),
	))
	defer span.End()

	tag, err := r.db.Exec(ctx, `UPDATE trips SET shared = TRUE, updated_at = NOW() WHERE id = $1`, tripID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB UPDATE failed")
		return fmt.Errorf("error marking trip shared: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("trip %s: %w", tripID, types.ErrNotFound)
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

func scanTrip(row pgx.Row) (*types.Trip, error) {
	var (
		t             types.Trip
		status        string
		weather, info []byte
	)
	err := row.Scan(&t.ID, &t.OwnerID, &t.Title, &status, &t.Origin, &t.Destination,
		&t.StartDate, &t.EndDate, &t.Days, &t.Budget, &t.TravelerProfile, &t.Dietary,
		&t.Interests, &weather, &info, &t.Shared, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	t.Status = types.TripStatus(status)
	if len(weather) > 0 {
		if err := json.Unmarshal(weather, &t.Weather); err != nil {
			return nil, fmt.Errorf("error decoding weather: %w", err)
		}
	}
	if len(info) > 0 {
		if err := json.Unmarshal(info, &t.PreTripInfo); err != nil {
			return nil, fmt.Errorf("error decoding pre-trip info: %w", err)
		}
	}
	return &t, nil
}

func nonNilWeather(w []types.DailyWeather) []types.DailyWeather {
	if w == nil {
		return []types.DailyWeather{}
	}
	return w
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
