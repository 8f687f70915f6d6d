package weather

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-trip-planner/app/cache"
	"github.com/FACorreiaa/go-trip-planner/internal/api/external"
	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

const DefaultForecastURL = "https://api.open-meteo.com/v1/forecast"

// Forecaster returns one entry per day of the inclusive range.
type Forecaster interface {
	Forecast(ctx context.Context, lat, lon float64, start, end time.Time) ([]types.DailyWeather, error)
}

var _ Forecaster = (*OpenMeteoForecaster)(nil)

type OpenMeteoForecaster struct {
	baseURL string
	client  *http.Client
	store   cache.Store
	ttl     time.Duration
	logger  *slog.Logger
}

func NewOpenMeteoForecaster(baseURL string, client *http.Client, store cache.Store, ttl time.Duration, logger *slog.Logger) *OpenMeteoForecaster {
	if baseURL == "" {
		baseURL = DefaultForecastURL
	}
	return &OpenMeteoForecaster{baseURL: baseURL, client: client, store: store, ttl: ttl, logger: logger}
}

type forecastResponse struct {
	Daily struct {
		Time              []string   `json:"time"`
		MaxTemp           []*float64 `json:"temperature_2m_max"`
		MinTemp           []*float64 `json:"temperature_2m_min"`
		PrecipProbability []*float64 `json:"precipitation_probability_max"`
		WeatherCode       []*int     `json:"weathercode"`
		MaxWindSpeed      []*float64 `json:"windspeed_10m_max"`
	} `json:"daily"`
}

func (f *OpenMeteoForecaster) Forecast(ctx context.Context, lat, lon float64, start, end time.Time) ([]types.DailyWeather, error) {
	ctx, span := otel.Tracer("WeatherService").Start(ctx, "Forecast", trace.WithAttributes(
		attribute.Float64("geo.lat", lat),
		attribute.Float64("geo.lon", lon),
		attribute.String("weather.start", start.Format(types.DateLayout)),
		attribute.String("weather.end", end.Format(types.DateLayout)),
	))
	defer span.End()
	l := f.logger.With(slog.String("method", "Forecast"))

	key := fmt.Sprintf("weather:%.4f:%.4f:%s:%s", lat, lon, start.Format(types.DateLayout), end.Format(types.DateLayout))
	var cached []types.DailyWeather
	if f.store != nil {
		if err := f.store.Get(ctx, key, &cached); err == nil {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return cached, nil
		}
	}

	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(lat, 'f', 4, 64))
	q.Set("longitude", strconv.FormatFloat(lon, 'f', 4, 64))
	q.Set("daily", "temperature_2m_max,temperature_2m_min,precipitation_probability_max,weathercode,windspeed_10m_max")
	q.Set("timezone", "auto")
	q.Set("start_date", start.Format(types.DateLayout))
	q.Set("end_date", end.Format(types.DateLayout))

	var body forecastResponse
	if err := external.GetJSON(ctx, f.client, f.baseURL+"?"+q.Encode(), nil, "open-meteo-forecast", &body); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "forecast failed")
		l.WarnContext(ctx, "Forecast request failed", slog.Any("error", err))
		return nil, err
	}

	days := toDailyWeather(body)
	if f.store != nil {
		if err := f.store.Set(ctx, key, days, f.ttl); err != nil {
			l.WarnContext(ctx, "Failed to cache forecast", slog.Any("error", err))
		}
	}
	span.SetAttributes(attribute.Int("weather.days", len(days)))
	span.SetStatus(codes.Ok, "")
	return days, nil
}

// toDailyWeather zips the parallel daily arrays. Missing values become zero.
func toDailyWeather(body forecastResponse) []types.DailyWeather {
	d := body.Daily
	out := make([]types.DailyWeather, 0, len(d.Time))
	for i, date := range d.Time {
		out = append(out, types.DailyWeather{
			Date:              date,
			MaxTemp:           floatAt(d.MaxTemp, i),
			MinTemp:           floatAt(d.MinTemp, i),
			PrecipProbability: floatAt(d.PrecipProbability, i),
			WeatherCode:       intAt(d.WeatherCode, i),
			MaxWindSpeed:      floatAt(d.MaxWindSpeed, i),
		})
	}
	return out
}

func floatAt(s []*float64, i int) float64 {
	if i < len(s) && s[i] != nil {
		return *s[i]
	}
	return 0
}

func intAt(s []*int, i int) int {
	if i < len(s) && s[i] != nil {
		return *s[i]
	}
	return 0
}
