package providers

import (
	"context"
	"time"

	"github.com/heartnote/heartnote/pkg/metrics"
)

// MetricsWrapper decorates a Backend to record metrics.
type MetricsWrapper struct {
	Backend
}

// WrapWithMetrics wraps a backend with metrics collection.
func WrapWithMetrics(b Backend) Backend {
	return &MetricsWrapper{b}
}

func (w *MetricsWrapper) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	start := time.Now()
	text, err := w.Backend.Generate(ctx, prompt, opts)
	duration := time.Since(start)

	model := w.Model()
	name := w.Name()

	status := "success"
	if err != nil {
		status = "error"
		metrics.DefaultRecorder().RecordLLMError(model, name, string(KindOf(err)))
	}
	metrics.DefaultRecorder().RecordLLMCall(model, name, status, duration)

	return text, err
}
