package weather

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-trip-planner/app/cache"
	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

const forecastBody = `{
  "latitude": 48.86, "longitude": 2.34,
  "daily": {
    "time": ["2026-05-01","2026-05-02","2026-05-03"],
    "temperature_2m_max": [21.4, 19.0, null],
    "temperature_2m_min": [11.2, 10.1, 9.5],
    "precipitation_probability_max": [10, 80, 45],
    "weathercode": [1, 61, 3],
    "windspeed_10m_max": [12.5, 30.2, 18.0]
  }
}`

func TestOpenMeteoForecaster(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		q := r.URL.Query()
		assert.Equal(t, "2026-05-01", q.Get("start_date"))
		assert.Equal(t, "2026-05-03", q.Get("end_date"))
		assert.Contains(t, q.Get("daily"), "weathercode")
		_, _ = w.Write([]byte(forecastBody))
	}))
	defer srv.Close()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	f := NewOpenMeteoForecaster(srv.URL, srv.Client(), cache.NewMemoryStore(time.Hour, time.Hour), time.Hour, logger)

	start := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 2)

	days, err := f.Forecast(context.Background(), 48.8566, 2.3522, start, end)
	require.NoError(t, err)
	require.Len(t, days, 3)
	assert.Equal(t, types.DailyWeather{
		Date: "2026-05-02", MaxTemp: 19.0, MinTemp: 10.1, PrecipProbability: 80, WeatherCode: 61, MaxWindSpeed: 30.2,
	}, days[1])
	assert.Zero(t, days[2].MaxTemp)

	_, err = f.Forecast(context.Background(), 48.8566, 2.3522, start, end)
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load(), "second call should be served from cache")
}

func TestOpenMeteoForecasterError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	f := NewOpenMeteoForecaster(srv.URL, srv.Client(), nil, time.Hour, logger)

	_, err := f.Forecast(context.Background(), 0, 0, time.Now(), time.Now())
	var extErr *types.ExternalServiceError
	assert.ErrorAs(t, err, &extErr)
}
