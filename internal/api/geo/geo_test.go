package geo

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-trip-planner/app/cache"
	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestOpenMeteoGeocoder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("count"))
		switch r.URL.Query().Get("name") {
		case "Paris":
			_, _ = w.Write([]byte(`{"results":[{"name":"Paris","latitude":48.85341,"longitude":2.3488,"country":"France"}]}`))
		default:
			_, _ = w.Write([]byte(`{}`))
		}
	}))
	defer srv.Close()

	g := NewOpenMeteoGeocoder(srv.URL, srv.Client(), testLogger())

	p, err := g.Lookup(context.Background(), "Paris, France")
	require.NoError(t, err)
	assert.InDelta(t, 48.85341, p.Latitude, 1e-6)
	assert.InDelta(t, 2.3488, p.Longitude, 1e-6)
	assert.Equal(t, "Paris, France", p.DisplayName)

	_, err = g.Lookup(context.Background(), "Atlantis")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestNominatimGeocoder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		if r.URL.Query().Get("q") == "broken" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`[{"lat":"48.8606","lon":"2.3376","display_name":"Louvre Museum, Paris"}]`))
	}))
	defer srv.Close()

	g := NewNominatimGeocoder(srv.URL, "test-agent", srv.Client(), testLogger())

	p, err := g.Lookup(context.Background(), "Louvre Museum, Rue de Rivoli")
	require.NoError(t, err)
	assert.InDelta(t, 48.8606, p.Latitude, 1e-6)
	assert.Equal(t, "Louvre Museum, Paris", p.DisplayName)

	_, err = g.Lookup(context.Background(), "broken")
	var extErr *types.ExternalServiceError
	assert.ErrorAs(t, err, &extErr)
}

type countingGeocoder struct {
	calls atomic.Int32
	delay time.Duration
}

func (c *countingGeocoder) Lookup(ctx context.Context, text string) (*types.GeoPoint, error) {
	c.calls.Add(1)
	time.Sleep(c.delay)
	if text == "nowhere" {
		return nil, types.ErrNotFound
	}
	return &types.GeoPoint{Latitude: 1, Longitude: 2, DisplayName: text}, nil
}

func TestCachedGeocoder(t *testing.T) {
	next := &countingGeocoder{delay: 20 * time.Millisecond}
	g := NewCachedGeocoder(next, cache.NewMemoryStore(time.Minute, time.Minute), "city", time.Minute, testLogger())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := g.Lookup(context.Background(), "Lisbon")
			assert.NoError(t, err)
			assert.Equal(t, "Lisbon", p.DisplayName)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), next.calls.Load())

	_, err := g.Lookup(context.Background(), " LISBON ")
	require.NoError(t, err)
	assert.Equal(t, int32(1), next.calls.Load())

	_, err = g.Lookup(context.Background(), "nowhere")
	assert.ErrorIs(t, err, types.ErrNotFound)
	_, _ = g.Lookup(context.Background(), "nowhere")
	assert.Equal(t, int32(3), next.calls.Load())
}

// gatedGeocoder blocks until released or until its own context ends.
type gatedGeocoder struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
}

func (g *gatedGeocoder) Lookup(ctx context.Context, text string) (*types.GeoPoint, error) {
	if g.calls.Add(1) == 1 {
		close(g.started)
	}
	select {
	case <-g.release:
		return &types.GeoPoint{Latitude: 38.72, Longitude: -9.14, DisplayName: text}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestCachedGeocoderCancelledCallerDoesNotFailOthers(t *testing.T) {
	next := &gatedGeocoder{started: make(chan struct{}), release: make(chan struct{})}
	g := NewCachedGeocoder(next, cache.NewMemoryStore(time.Minute, time.Minute), "city", time.Minute, testLogger())

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := g.Lookup(firstCtx, "Lisbon")
		firstErr <- err
	}()
	<-next.started

	type outcome struct {
		p   *types.GeoPoint
		err error
	}
	second := make(chan outcome, 1)
	go func() {
		p, err := g.Lookup(context.Background(), "Lisbon")
		second <- outcome{p, err}
	}()
	time.Sleep(50 * time.Millisecond)

	cancelFirst()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	close(next.release)
	got := <-second
	require.NoError(t, got.err)
	assert.Equal(t, "Lisbon", got.p.DisplayName)
	assert.Equal(t, int32(1), next.calls.Load())

	p, err := g.Lookup(context.Background(), "lisbon")
	require.NoError(t, err)
	assert.Equal(t, -9.14, p.Longitude)
	assert.Equal(t, int32(1), next.calls.Load())
}
