package trip

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	generativeAI "github.com/FACorreiaa/go-trip-planner/internal/api/generative_ai"
	"github.com/FACorreiaa/go-trip-planner/internal/api/llmjson"
	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

// Share of the daily budget per slot, in TimeSlots order.
var slotBudgetShare = [types.ActivitiesPerDay]float64{0.25, 0.20, 0.30, 0.25}

// ItineraryGenerator asks the model for the day-by-day plan.
type ItineraryGenerator struct {
	llm    generativeAI.Completer
	logger *slog.Logger
}

func NewItineraryGenerator(llm generativeAI.Completer, logger *slog.Logger) *ItineraryGenerator {
	return &ItineraryGenerator{llm: llm, logger: logger}
}

// Generate returns a normalized itinerary with exactly req.Days days of
// exactly four activities, or an error when the model answer is unusable.
func (g *ItineraryGenerator) Generate(ctx context.Context, req types.TripRequest, forecast []types.DailyWeather) (types.Itinerary, error) {
	ctx, span := otel.Tracer("TripService").Start(ctx, "ItineraryGenerator.Generate", trace.WithAttributes(
		attribute.String("trip.destination", req.Destination),
		attribute.Int("trip.days", req.Days),
	))
	defer span.End()
	l := g.logger.With(slog.String("method", "Generate"))

	text, err := g.llm.Complete(ctx, plannerSystemPrompt, generativeAI.UserPrompt(generateItineraryPrompt(req, forecast)))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "model call failed")
		return types.Itinerary{}, err
	}

	res := llmjson.Parse(text, []string{"itinerary"}, func(it types.Itinerary) error {
		if len(it.Itinerary) == 0 {
			return errors.New("itinerary has no days")
		}
		return nil
	})
	parsed, ok := res.Get()
	if !ok {
		l.WarnContext(ctx, "Discarding itinerary response", slog.String("reason", res.Reason()))
		span.SetStatus(codes.Error, "invalid response")
		return types.Itinerary{}, &types.ParseError{Schema: "itinerary", Reason: res.Reason()}
	}

	if len(parsed.Itinerary) != req.Days {
		l.InfoContext(ctx, "Model returned a different number of days, normalizing",
			slog.Int("expected", req.Days), slog.Int("got", len(parsed.Itinerary)))
	}
	span.SetStatus(codes.Ok, "")
	return normalizeItinerary(parsed, req), nil
}

// FallbackItinerary is a deterministic plan with exactly req.Days days of
// four activities whose costs split the daily budget.
func FallbackItinerary(req types.TripRequest) types.Itinerary {
	days := make([]types.ItineraryDay, 0, req.Days)
	for d := 1; d <= req.Days; d++ {
		activities := make([]types.ItineraryActivity, 0, types.ActivitiesPerDay)
		for slot := range types.TimeSlots {
			activities = append(activities, fallbackActivity(req, d, slot))
		}
		days = append(days, types.ItineraryDay{Day: d, Activities: activities})
	}
	return types.Itinerary{Itinerary: days}
}

func fallbackActivity(req types.TripRequest, day, slot int) types.ItineraryActivity {
	city := cityName(req.Destination)
	cost := math.Round(req.DailyBudget()*slotBudgetShare[slot]*100) / 100

	var title, description string
	switch slot {
	case 0:
		title = fmt.Sprintf("Morning sightseeing in %s", city)
		description = fmt.Sprintf("Explore a landmark neighbourhood of %s on foot.", city)
	case 1:
		title = fmt.Sprintf("Lunch at a local restaurant in %s", city)
		description = "Try a regional speciality."
		if req.Dietary != "" && req.Dietary != "none" {
			description = fmt.Sprintf("Try a regional speciality with %s options.", req.Dietary)
		}
	case 2:
		title = fmt.Sprintf("Afternoon cultural visit in %s", city)
		description = "Visit a museum, gallery or historic site."
		if len(req.Interests) > 0 {
			interest := req.Interests[(day-1)%len(req.Interests)]
			description = fmt.Sprintf("Spend the afternoon on %s.", interest)
		}
	default:
		title = fmt.Sprintf("Evening dinner and stroll in %s", city)
		description = "Dinner followed by a walk through a lively district."
	}

	return types.ItineraryActivity{
		Time:        types.TimeSlots[slot],
		Title:       title,
		Description: description,
		Location:    req.Destination,
		Cost:        cost,
	}
}

// normalizeItinerary forces the model output into the count invariant:
// days renumbered 1..req.Days, missing days and slots taken from the
// fallback, extras dropped and negative costs clamped.
func normalizeItinerary(it types.Itinerary, req types.TripRequest) types.Itinerary {
	src := slices.Clone(it.Itinerary)
	slices.SortStableFunc(src, func(a, b types.ItineraryDay) int { return cmp.Compare(a.Day, b.Day) })

	out := make([]types.ItineraryDay, 0, req.Days)
	for d := 1; d <= req.Days; d++ {
		var activities []types.ItineraryActivity
		if d-1 < len(src) {
			activities = src[d-1].Activities
		}
		day := types.ItineraryDay{Day: d, Activities: make([]types.ItineraryActivity, 0, types.ActivitiesPerDay)}
		for slot := range types.TimeSlots {
			if slot >= len(activities) || strings.TrimSpace(activities[slot].Title) == "" {
				day.Activities = append(day.Activities, fallbackActivity(req, d, slot))
				continue
			}
			a := activities[slot]
			a.Title = strings.TrimSpace(a.Title)
			if strings.TrimSpace(a.Time) == "" {
				a.Time = types.TimeSlots[slot]
			}
			if a.Cost < 0 || math.IsNaN(a.Cost) {
				a.Cost = 0
			}
			day.Activities = append(day.Activities, a)
		}
		out = append(out, day)
	}
	return types.Itinerary{Itinerary: out}
}
