package trip

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	generativeAI "github.com/FACorreiaa/go-trip-planner/internal/api/generative_ai"
	"github.com/FACorreiaa/go-trip-planner/internal/api/llmjson"
	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

// Lodging is assumed to take this share of the daily budget.
const hotelShareOfDailyBudget = 0.35

var hotelBands = []struct {
	label string
	scale float64
}{
	{"Budget", 0.6},
	{"Mid-range", 1.0},
	{"Upscale", 1.6},
}

// InfoSynthesizer asks the model for currency, lodging and transport guidance.
type InfoSynthesizer struct {
	llm    generativeAI.Completer
	logger *slog.Logger
}

func NewInfoSynthesizer(llm generativeAI.Completer, logger *slog.Logger) *InfoSynthesizer {
	return &InfoSynthesizer{llm: llm, logger: logger}
}

// Synthesize fails when the model errors or its answer does not validate.
// Callers pair it with FallbackPreTripInfo.
func (s *InfoSynthesizer) Synthesize(ctx context.Context, req types.TripRequest) (types.PreTripInfo, error) {
	ctx, span := otel.Tracer("TripService").Start(ctx, "InfoSynthesizer.Synthesize", trace.WithAttributes(
		attribute.String("trip.destination", req.Destination),
	))
	defer span.End()

	text, err := s.llm.Complete(ctx, plannerSystemPrompt, generativeAI.UserPrompt(generatePreTripInfoPrompt(req)))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "model call failed")
		return types.PreTripInfo{}, err
	}

	res := llmjson.Parse(text, []string{"currency", "hotels", "transportation"}, validatePreTripInfo)
	info, ok := res.Get()
	if !ok {
		s.logger.WarnContext(ctx, "Discarding pre-trip info response", slog.String("reason", res.Reason()))
		span.SetStatus(codes.Error, "invalid response")
		return types.PreTripInfo{}, &types.ParseError{Schema: "pre_trip_info", Reason: res.Reason()}
	}
	span.SetStatus(codes.Ok, "")
	return info, nil
}

func validatePreTripInfo(info types.PreTripInfo) error {
	if strings.TrimSpace(info.Currency.LocalCurrency) == "" {
		return errors.New("currency.local_currency is empty")
	}
	return nil
}

// FallbackPreTripInfo builds guidance from the request alone. It never fails.
func FallbackPreTripInfo(req types.TripRequest) types.PreTripInfo {
	city := cityName(req.Destination)
	perNight := req.DailyBudget() * hotelShareOfDailyBudget

	hotels := make([]types.HotelSuggestion, 0, len(hotelBands))
	for _, band := range hotelBands {
		hotels = append(hotels, types.HotelSuggestion{
			Name:        fmt.Sprintf("%s hotel in %s", band.label, city),
			PriceRange:  fmt.Sprintf("about %.0f per night", perNight*band.scale),
			Description: fmt.Sprintf("%s accommodation sized to a %d budget over %d days.", band.label, req.Budget, req.Days),
			Address:     fmt.Sprintf("Central %s", city),
		})
	}

	return types.PreTripInfo{
		Currency: types.CurrencyInfo{
			LocalCurrency: fmt.Sprintf("Check the local currency used in %s", req.Destination),
			ExchangeRate:  "Rates change daily; check a live converter before you travel.",
			ExchangeTips: "Avoid airport exchange counters, withdraw from bank ATMs, " +
				"decline dynamic currency conversion and tell your bank about your trip.",
			ExchangeLink: "https://www.google.com/search?q=" + url.QueryEscape("currency exchange rate "+req.Destination),
		},
		Hotels: hotels,
		Transportation: types.TransportationInfo{
			Options:             []string{"Public transport (metro, bus, tram)", "Taxi", "Walking", "Bike rental"},
			RideApps:            []string{"Uber", "Bolt", "Local taxi apps"},
			PublicTransportInfo: fmt.Sprintf("Look for day or multi-day passes in %s; they usually beat single fares.", city),
			Costs:               "Single public transport fares are typically the cheapest option; taxis cost several times more.",
			Tips:                "Download offline maps and keep some cash for small vendors.",
		},
		Events: []types.LocalEvent{},
	}
}

func cityName(destination string) string {
	city := strings.TrimSpace(strings.Split(destination, ",")[0])
	if city == "" {
		return destination
	}
	return city
}
