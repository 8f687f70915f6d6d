// Package external holds the HTTP plumbing shared by the third-party API
// clients (geocoding, forecasts, image search).
package external

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/FACorreiaa/go-trip-planner/app/observability/metrics"
	"github.com/FACorreiaa/go-trip-planner/app/ratelimit"
	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

// NewClient returns an http.Client with a timeout, paced by the quota.
func NewClient(timeout time.Duration, quota ratelimit.Quota) *http.Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return ratelimit.NewClient(quota, &http.Client{Timeout: timeout})
}

// GetJSON performs a GET with the given headers and decodes a 200 response
// into dst. Failures come back as *types.ExternalServiceError.
func GetJSON(ctx context.Context, client *http.Client, rawURL string, headers map[string]string, service string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("build %s request: %w", service, err)
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := client.Do(req)
	metrics.Get().ExternalCallDuration.Record(ctx, time.Since(start).Seconds(),
		metric.WithAttributes(attribute.String("service", service), attribute.Bool("error", err != nil)))
	if err != nil {
		return &types.ExternalServiceError{Service: service, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &types.ExternalServiceError{Service: service, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return &types.ExternalServiceError{Service: service, Err: fmt.Errorf("decode body: %w", err)}
	}
	return nil
}
