package trip

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	generativeAI "github.com/FACorreiaa/go-trip-planner/internal/api/generative_ai"
	"github.com/FACorreiaa/go-trip-planner/internal/api/llmjson"
	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

// EventAugmenter looks for local events during the trip window.
type EventAugmenter struct {
	llm    generativeAI.Completer
	logger *slog.Logger
}

func NewEventAugmenter(llm generativeAI.Completer, logger *slog.Logger) *EventAugmenter {
	return &EventAugmenter{llm: llm, logger: logger}
}

func (a *EventAugmenter) Events(ctx context.Context, req types.TripRequest) ([]types.LocalEvent, error) {
	ctx, span := otel.Tracer("TripService").Start(ctx, "EventAugmenter.Events", trace.WithAttributes(
		attribute.String("trip.destination", req.Destination),
	))
	defer span.End()

	text, err := a.llm.Complete(ctx, plannerSystemPrompt, generativeAI.UserPrompt(generateEventsPrompt(req)))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "model call failed")
		return nil, err
	}
	res := llmjson.Parse[types.EventsResponse](text, []string{"events"}, nil)
	parsed, ok := res.Get()
	if !ok {
		a.logger.WarnContext(ctx, "Discarding events response", slog.String("reason", res.Reason()))
		span.SetStatus(codes.Error, "invalid response")
		return nil, &types.ParseError{Schema: "events", Reason: res.Reason()}
	}
	span.SetAttributes(attribute.Int("trip.events", len(parsed.Events)))
	span.SetStatus(codes.Ok, "")
	if parsed.Events == nil {
		return []types.LocalEvent{}, nil
	}
	return parsed.Events, nil
}

// NoEvents is the fallback: no known events.
func NoEvents() []types.LocalEvent { return []types.LocalEvent{} }
