package trip

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/FACorreiaa/go-trip-planner/app/observability/metrics"
)

// Stage is one step of the generation pipeline. Run may fail for any reason;
// Fallback must not.
type Stage[T any] struct {
	Name     string
	Run      func(ctx context.Context) (T, error)
	Fallback func() T
	Timeout  time.Duration
	// Benign marks a fallback that is a legitimate answer rather than a
	// degraded one (no known events).
	Benign bool
}

// StageReport collects which stages fell back during one pipeline run.
type StageReport struct {
	mu        sync.Mutex
	fallbacks []string
}

func (r *StageReport) record(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallbacks = append(r.fallbacks, name)
}

// Fallbacks lists the degraded stages in the order they ran.
func (r *StageReport) Fallbacks() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.fallbacks...)
}

func (r *StageReport) Degraded() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.fallbacks) > 0
}

// runStage runs stage under its own deadline. Errors, including cancellation
// of ctx, are absorbed and replaced by the fallback value.
func runStage[T any](ctx context.Context, logger *slog.Logger, report *StageReport, stage Stage[T]) T {
	stageCtx := ctx
	if stage.Timeout > 0 {
		var cancel context.CancelFunc
		stageCtx, cancel = context.WithTimeout(ctx, stage.Timeout)
		defer cancel()
	}

	start := time.Now()
	value, err := stage.Run(stageCtx)
	if err == nil {
		logger.DebugContext(ctx, "Stage completed", slog.String("stage", stage.Name), slog.Duration("latency", time.Since(start)))
		return value
	}

	logger.WarnContext(ctx, "Stage failed, using fallback",
		slog.String("stage", stage.Name),
		slog.Bool("benign", stage.Benign),
		slog.Any("error", err),
	)
	metrics.Get().StageFallbacksTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("stage", stage.Name)))
	if !stage.Benign {
		report.record(stage.Name)
	}
	return stage.Fallback()
}
