package trip

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-trip-planner/app/observability/metrics"
	generativeAI "github.com/FACorreiaa/go-trip-planner/internal/api/generative_ai"
	"github.com/FACorreiaa/go-trip-planner/internal/api/geo"
	"github.com/FACorreiaa/go-trip-planner/internal/api/weather"
	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	CreateTrip(ctx context.Context, ownerID uuid.UUID, raw types.CreateTripRequest) (*types.TripResult, error)
	GetTrip(ctx context.Context, ownerID, tripID uuid.UUID) (*types.TripTree, error)
}

const (
	defaultStageTimeout   = 15 * time.Second
	defaultEnrichTimeout  = 20 * time.Second
	defaultPersistTimeout = 10 * time.Second
	minStageBudget        = time.Millisecond
)

// PipelineConfig bounds each generation stage, the enrichment pass and the
// final writes. Zero values fall back to the defaults above.
type PipelineConfig struct {
	StageTimeout   time.Duration
	EnrichTimeout  time.Duration
	PersistTimeout time.Duration
	// RejectPastStartDates turns on the start_date >= today check.
	RejectPastStartDates bool
}

func (c PipelineConfig) withDefaults() PipelineConfig {
	if c.StageTimeout <= 0 {
		c.StageTimeout = defaultStageTimeout
	}
	if c.EnrichTimeout <= 0 {
		c.EnrichTimeout = defaultEnrichTimeout
	}
	if c.PersistTimeout <= 0 {
		c.PersistTimeout = defaultPersistTimeout
	}
	return c
}

type ServiceImpl struct {
	logger     *slog.Logger
	repo       Repository
	persister  *Persister
	cities     geo.Geocoder
	forecaster weather.Forecaster
	info       *InfoSynthesizer
	events     *EventAugmenter
	itinerary  *ItineraryGenerator
	enricher   *ActivityEnricher
	cfg        PipelineConfig
	now        func() time.Time
}

func NewServiceImpl(
	repo Repository,
	llm generativeAI.Completer,
	cities geo.Geocoder,
	forecaster weather.Forecaster,
	enricher *ActivityEnricher,
	cfg PipelineConfig,
	logger *slog.Logger,
) *ServiceImpl {
	return &ServiceImpl{
		logger:     logger,
		repo:       repo,
		persister:  NewPersister(repo, logger),
		cities:     cities,
		forecaster: forecaster,
		info:       NewInfoSynthesizer(llm, logger),
		events:     NewEventAugmenter(llm, logger),
		itinerary:  NewItineraryGenerator(llm, logger),
		enricher:   enricher,
		cfg:        cfg.withDefaults(),
		now:        time.Now,
	}
}

// stageBudget caps limit by the time left on ctx, keeping PersistTimeout in
// reserve for the writes. An exhausted budget still yields a tiny positive
// timeout so the stage fails fast into its fallback.
func (s *ServiceImpl) stageBudget(ctx context.Context, limit time.Duration) time.Duration {
	deadline, ok := ctx.Deadline()
	if !ok {
		return limit
	}
	left := time.Until(deadline) - s.cfg.PersistTimeout
	if left < limit {
		limit = left
	}
	if limit < minStageBudget {
		limit = minStageBudget
	}
	return limit
}

// CreateTrip validates raw and runs the generation pipeline. Only a
// *types.ValidationError or a fatal *types.PersistenceError is returned;
// every other failure is absorbed by a stage fallback and reported on the
// result.
func (s *ServiceImpl) CreateTrip(ctx context.Context, ownerID uuid.UUID, raw types.CreateTripRequest) (*types.TripResult, error) {
	ctx, span := otel.Tracer("TripService").Start(ctx, "CreateTrip", trace.WithAttributes(
		attribute.String("user.id", ownerID.String()),
		attribute.String("trip.destination", raw.Destination),
	))
	defer span.End()
	l := s.logger.With(slog.String("method", "CreateTrip"), slog.String("ownerID", ownerID.String()))

	var notBefore time.Time
	if s.cfg.RejectPastStartDates {
		notBefore = s.now()
	}
	req, err := ValidateRequest(raw, notBefore)
	if err != nil {
		l.InfoContext(ctx, "Rejected trip request", slog.Any("error", err))
		span.SetStatus(codes.Error, "validation failed")
		return nil, err
	}
	l.InfoContext(ctx, "Generating trip",
		slog.String("destination", req.Destination), slog.Int("days", req.Days), slog.Int("budget", req.Budget))

	report := &StageReport{}

	forecast := runStage(ctx, l, report, Stage[[]types.DailyWeather]{
		Name:     "weather",
		Timeout:  s.stageBudget(ctx, s.cfg.StageTimeout),
		Run:      func(ctx context.Context) ([]types.DailyWeather, error) { return s.forecast(ctx, req) },
		Fallback: func() []types.DailyWeather { return []types.DailyWeather{} },
	})

	info := runStage(ctx, l, report, Stage[types.PreTripInfo]{
		Name:     "pre_trip_info",
		Timeout:  s.stageBudget(ctx, s.cfg.StageTimeout),
		Run:      func(ctx context.Context) (types.PreTripInfo, error) { return s.info.Synthesize(ctx, req) },
		Fallback: func() types.PreTripInfo { return FallbackPreTripInfo(req) },
	})

	info.Events = runStage(ctx, l, report, Stage[[]types.LocalEvent]{
		Name:     "events",
		Timeout:  s.stageBudget(ctx, s.cfg.StageTimeout),
		Benign:   true,
		Run:      func(ctx context.Context) ([]types.LocalEvent, error) { return s.events.Events(ctx, req) },
		Fallback: NoEvents,
	})

	itinerary := runStage(ctx, l, report, Stage[types.Itinerary]{
		Name:     "itinerary",
		Timeout:  s.stageBudget(ctx, s.cfg.StageTimeout),
		Run:      func(ctx context.Context) (types.Itinerary, error) { return s.itinerary.Generate(ctx, req, forecast) },
		Fallback: func() types.Itinerary { return FallbackItinerary(req) },
	})

	enrichCtx, cancelEnrich := context.WithTimeout(ctx, s.stageBudget(ctx, s.cfg.EnrichTimeout))
	days := s.enricher.Enrich(enrichCtx, req, itinerary)
	cancelEnrich()

	status := types.TripStatusReady
	if report.Degraded() {
		status = types.TripStatusPartial
	}
	trip := &types.Trip{
		OwnerID:         ownerID,
		Title:           tripTitle(req),
		Status:          status,
		Origin:          req.Origin,
		Destination:     req.Destination,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		Days:            req.Days,
		Budget:          req.Budget,
		TravelerProfile: req.TravelerProfile,
		Dietary:         req.Dietary,
		Interests:       req.Interests,
		Weather:         forecast,
		PreTripInfo:     info,
	}

	// The writes must not inherit a request deadline the stages may have used up.
	writeCtx, cancelWrites := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.PersistTimeout)
	defer cancelWrites()

	persisted, err := s.persister.Persist(writeCtx, trip, days)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "trip row not persisted")
		return nil, err
	}
	if persisted.Partial() && trip.Status == types.TripStatusReady {
		trip.Status = types.TripStatusPartial
		if err := s.repo.UpdateTripStatus(writeCtx, trip.ID, trip.Status); err != nil {
			l.WarnContext(ctx, "Failed to mark trip partial", slog.Any("error", err))
		}
	}

	metrics.Get().TripsCreatedTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("status", string(trip.Status))))
	l.InfoContext(ctx, "Trip created",
		slog.String("tripID", trip.ID.String()),
		slog.String("status", string(trip.Status)),
		slog.Any("fallbacks", report.Fallbacks()),
	)
	span.SetAttributes(attribute.String("trip.id", trip.ID.String()), attribute.Bool("trip.degraded", report.Degraded()))
	span.SetStatus(codes.Ok, "")

	return &types.TripResult{
		TripTree:         types.TripTree{Trip: *trip, Days: days},
		Degraded:         report.Degraded() || persisted.Partial(),
		FallbackStages:   report.Fallbacks(),
		FailedDays:       persisted.FailedDays,
		FailedActivities: persisted.FailedActivities,
	}, nil
}

func (s *ServiceImpl) forecast(ctx context.Context, req types.TripRequest) ([]types.DailyWeather, error) {
	place, err := s.cities.Lookup(ctx, req.Destination)
	if err != nil {
		return nil, fmt.Errorf("failed to geocode destination: %w", err)
	}
	return s.forecaster.Forecast(ctx, place.Latitude, place.Longitude, req.StartDate, req.EndDate)
}

// GetTrip returns the persisted trip tree. Trips owned by someone else are
// reported as not found.
func (s *ServiceImpl) GetTrip(ctx context.Context, ownerID, tripID uuid.UUID) (*types.TripTree, error) {
	ctx, span := otel.Tracer("TripService").Start(ctx, "GetTrip", trace.WithAttributes(
		attribute.String("user.id", ownerID.String()),
		attribute.String("trip.id", tripID.String()),
	))
	defer span.End()

	tree, err := s.repo.GetTripTree(ctx, tripID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to load trip")
		return nil, fmt.Errorf("failed to load trip: %w", err)
	}
	if tree.Trip.OwnerID != ownerID {
		span.SetStatus(codes.Error, "Trip not owned by caller")
		return nil, fmt.Errorf("trip %s: %w", tripID, types.ErrNotFound)
	}
	span.SetStatus(codes.Ok, "")
	return tree, nil
}

func tripTitle(req types.TripRequest) string {
	if req.Days == 1 {
		return fmt.Sprintf("1 day in %s", cityName(req.Destination))
	}
	return fmt.Sprintf("%d days in %s", req.Days, cityName(req.Destination))
}
