package trip

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-trip-planner/app/observability/metrics"
	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

// PersistReport counts the rows that could not be written. Any non-zero
// count makes the trip partial.
type PersistReport struct {
	FailedDays       int
	FailedActivities int
}

func (r PersistReport) Partial() bool {
	return r.FailedDays > 0 || r.FailedActivities > 0
}

// Persister writes a generated trip. The trip row is all-or-nothing; days
// and activities are written independently so a single bad row does not
// lose the rest of the itinerary.
type Persister struct {
	repo   Repository
	logger *slog.Logger
}

func NewPersister(repo Repository, logger *slog.Logger) *Persister {
	return &Persister{repo: repo, logger: logger}
}

// Persist inserts trip and then its days. A failure on the trip row is
// returned as a fatal *types.PersistenceError and nothing else is written.
func (p *Persister) Persist(ctx context.Context, trip *types.Trip, days []types.TripDay) (PersistReport, error) {
	ctx, span := otel.Tracer("TripService").Start(ctx, "Persister.Persist", trace.WithAttributes(
		attribute.Int("trip.days", len(days)),
	))
	defer span.End()

	if err := p.repo.CreateTrip(ctx, trip); err != nil {
		p.logger.ErrorContext(ctx, "Failed to persist trip row", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "trip row failed")
		return PersistReport{}, &types.PersistenceError{Op: "create trip", Fatal: true, Err: err}
	}

	report := p.PersistDays(ctx, trip.ID, days)
	span.SetAttributes(
		attribute.Int("persist.failed_days", report.FailedDays),
		attribute.Int("persist.failed_activities", report.FailedActivities),
	)
	span.SetStatus(codes.Ok, "")
	return report, nil
}

// PersistDays writes days and their activities for an existing trip. The
// writes are upserts, so running it again for the same trip does not
// duplicate rows.
func (p *Persister) PersistDays(ctx context.Context, tripID uuid.UUID, days []types.TripDay) PersistReport {
	l := p.logger.With(slog.String("method", "PersistDays"), slog.String("tripID", tripID.String()))
	var report PersistReport

	for i := range days {
		day := &days[i]
		day.TripID = tripID
		if err := p.repo.UpsertTripDay(ctx, day); err != nil {
			l.WarnContext(ctx, "Failed to persist day, skipping its activities",
				slog.Int("day", day.DayNumber), slog.Any("error", err))
			report.FailedDays++
			p.countFailure(ctx, "day")
			continue
		}

		for j := range day.Activities {
			a := &day.Activities[j]
			a.TripDayID = day.ID
			if err := p.repo.InsertActivity(ctx, a); err != nil {
				l.WarnContext(ctx, "Failed to persist activity",
					slog.Int("day", day.DayNumber), slog.Int("position", a.Position), slog.Any("error", err))
				report.FailedActivities++
				p.countFailure(ctx, "activity")
			}
		}
	}

	if report.Partial() {
		l.WarnContext(ctx, "Trip persisted partially",
			slog.Int("failedDays", report.FailedDays), slog.Int("failedActivities", report.FailedActivities))
	}
	return report
}

func (p *Persister) countFailure(ctx context.Context, kind string) {
	metrics.Get().PersistenceFailuresTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}
