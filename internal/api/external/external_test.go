package external

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-trip-planner/app/ratelimit"
	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

func TestGetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Client-ID k", r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/ok":
			_, _ = w.Write([]byte(`{"value":42}`))
		case "/bad":
			_, _ = w.Write([]byte(`not json`))
		default:
			w.WriteHeader(http.StatusTooManyRequests)
		}
	}))
	defer srv.Close()

	client := NewClient(time.Second, ratelimit.Quota{PerSecond: 100, Burst: 10})
	headers := map[string]string{"Authorization": "Client-ID k"}

	var out struct {
		Value int `json:"value"`
	}
	require.NoError(t, GetJSON(context.Background(), client, srv.URL+"/ok", headers, "test", &out))
	assert.Equal(t, 42, out.Value)

	var extErr *types.ExternalServiceError
	err := GetJSON(context.Background(), client, srv.URL+"/bad", headers, "test", &out)
	require.ErrorAs(t, err, &extErr)
	assert.Equal(t, "test", extErr.Service)

	err = GetJSON(context.Background(), client, srv.URL+"/limited", headers, "test", &out)
	assert.ErrorAs(t, err, &extErr)
}
