package trip

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/FACorreiaa/go-trip-planner/internal/api/geo"
	"github.com/FACorreiaa/go-trip-planner/internal/api/images"
	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

const mapsSearchURL = "https://www.google.com/maps/search/?api=1&query="

// ActivityEnricher adds coordinates, an image and a map link to every
// activity. Call pacing is done by the rate-limited HTTP clients behind
// places and images; concurrency here only bounds in-flight lookups.
type ActivityEnricher struct {
	places      geo.Geocoder
	images      images.Searcher
	concurrency int
	logger      *slog.Logger
}

func NewActivityEnricher(places geo.Geocoder, imgs images.Searcher, concurrency int, logger *slog.Logger) *ActivityEnricher {
	if concurrency < 1 {
		concurrency = 1
	}
	return &ActivityEnricher{places: places, images: imgs, concurrency: concurrency, logger: logger}
}

// Enrich converts the itinerary into dated TripDays. A failed lookup only
// leaves that activity's optional fields empty.
func (e *ActivityEnricher) Enrich(ctx context.Context, req types.TripRequest, it types.Itinerary) []types.TripDay {
	ctx, span := otel.Tracer("TripService").Start(ctx, "ActivityEnricher.Enrich", trace.WithAttributes(
		attribute.Int("trip.days", len(it.Itinerary)),
	))
	defer span.End()

	days := make([]types.TripDay, len(it.Itinerary))
	for i, d := range it.Itinerary {
		days[i] = types.TripDay{
			DayNumber:  d.Day,
			Date:       req.DayDate(d.Day),
			Activities: make([]types.Activity, len(d.Activities)),
		}
		for j, a := range d.Activities {
			days[i].Activities[j] = types.Activity{
				Position:    j + 1,
				TimeOfDay:   a.Time,
				Title:       a.Title,
				Description: a.Description,
				Location:    a.Location,
				Cost:        a.Cost,
			}
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i := range days {
		for j := range days[i].Activities {
			activity := &days[i].Activities[j]
			g.Go(func() error {
				e.enrichOne(gctx, req.Destination, activity)
				return nil
			})
		}
	}
	_ = g.Wait()

	span.SetStatus(codes.Ok, "")
	return days
}

func (e *ActivityEnricher) enrichOne(ctx context.Context, destination string, a *types.Activity) {
	query := activityQuery(a.Title, a.Location, destination)
	mapURL := mapsSearchURL + url.QueryEscape(query)
	a.MapURL = &mapURL

	if ctx.Err() != nil {
		return
	}
	if p, err := e.places.Lookup(ctx, query); err == nil {
		a.Latitude = &p.Latitude
		a.Longitude = &p.Longitude
	} else {
		e.logger.DebugContext(ctx, "No coordinates for activity", slog.String("query", query), slog.Any("error", err))
	}

	if ctx.Err() != nil {
		return
	}
	if img, err := e.images.Search(ctx, query); err == nil {
		a.ImageURL = &img
	} else {
		e.logger.DebugContext(ctx, "No image for activity", slog.String("query", query), slog.Any("error", err))
	}
}

func activityQuery(title, location, destination string) string {
	title = strings.TrimSpace(title)
	location = strings.TrimSpace(location)
	if location == "" {
		return title + ", " + destination
	}
	return title + ", " + location
}
