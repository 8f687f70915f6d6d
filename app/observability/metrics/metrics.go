package metrics

import (
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "go-trip-planner"

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	TripsCreatedTotal        metric.Int64Counter
	StageFallbacksTotal      metric.Int64Counter
	PersistenceFailuresTotal metric.Int64Counter
	ChatMessagesTotal        metric.Int64Counter
	ChatQuotaRejectionsTotal metric.Int64Counter
	ShareAcceptancesTotal    metric.Int64Counter
	ExternalCallDuration     metric.Float64Histogram
	DbQueryDurationSeconds   metric.Float64Histogram
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics initializes the global metrics instruments once, from the
// globally configured MeterProvider. Call it after the provider is installed.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter(meterName)
		m := &AppMetrics{}

		m.TripsCreatedTotal = mustCounter(meter, "trips_created_total",
			"Total number of trips created, labelled by status", "{trip}")
		m.StageFallbacksTotal = mustCounter(meter, "pipeline_stage_fallbacks_total",
			"Total number of pipeline stages that used their fallback value", "{stage}")
		m.PersistenceFailuresTotal = mustCounter(meter, "persistence_failures_total",
			"Total number of non-fatal day or activity write failures", "{failure}")
		m.ChatMessagesTotal = mustCounter(meter, "chat_messages_total",
			"Total number of chat messages answered", "{message}")
		m.ChatQuotaRejectionsTotal = mustCounter(meter, "chat_quota_rejections_total",
			"Total number of chat messages rejected by the per-trip quota", "{message}")
		m.ShareAcceptancesTotal = mustCounter(meter, "share_acceptances_total",
			"Total number of accepted trip shares", "{share}")

		var err error
		m.ExternalCallDuration, err = meter.Float64Histogram(
			"external_call_duration_seconds",
			metric.WithDescription("Duration of calls to external collaborators in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create external_call_duration_seconds: %v", err)
		}
		m.DbQueryDurationSeconds, err = meter.Float64Histogram(
			"db_query_duration_seconds",
			metric.WithDescription("Duration of database queries in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create db_query_duration_seconds: %v", err)
		}

		appMetrics = m
	})
}

func mustCounter(meter metric.Meter, name, description, unit string) metric.Int64Counter {
	c, err := meter.Int64Counter(name, metric.WithDescription(description), metric.WithUnit(unit))
	if err != nil {
		log.Fatalf("Metrics: Failed to create %s: %v", name, err)
	}
	return c
}

// Get returns the AppMetrics instance, initializing it against whatever
// provider is installed if nobody did so yet (a no-op provider in tests).
func Get() *AppMetrics {
	InitAppMetrics()
	return appMetrics
}
