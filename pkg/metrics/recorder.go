package metrics

import (
	"context"
	"time"
)

// Channel identifies the front end a request arrived through.
type Channel string

const (
	ChannelHTTP     Channel = "http"
	ChannelTelegram Channel = "telegram"
	ChannelMCP      Channel = "mcp"
	ChannelCLI      Channel = "cli"
)

type contextKey string

const channelKey contextKey = "heartnote_channel"

// WithChannel returns a new context tagged with the request's channel.
func WithChannel(ctx context.Context, ch Channel) context.Context {
	return context.WithValue(ctx, channelKey, string(ch))
}

// ChannelFromContext extracts the channel from the context, defaulting to "cli".
func ChannelFromContext(ctx context.Context) string {
	if ch, ok := ctx.Value(channelKey).(string); ok {
		return ch
	}
	return string(ChannelCLI)
}

// Recorder provides high-level methods for recording metrics.
type Recorder struct {
	startTime time.Time
}

var defaultRecorder = &Recorder{startTime: time.Now()}

// DefaultRecorder returns the singleton recorder instance.
func DefaultRecorder() *Recorder {
	return defaultRecorder
}

// RecordGeneration records the terminal state of one pipeline run.
func (r *Recorder) RecordGeneration(mode, state, reason, channel string, duration time.Duration) {
	generationRequests.WithLabelValues(mode, state, reason, channel).Inc()
	generationDuration.WithLabelValues(mode, state).Observe(duration.Seconds())
}

func (r *Recorder) RecordSafetyBlock(category string) {
	safetyBlocks.WithLabelValues(category).Inc()
}

// RecordLLMCall records duration and outcome for a backend call.
func (r *Recorder) RecordLLMCall(model, backend, status string, duration time.Duration) {
	llmRequests.WithLabelValues(model, backend).Inc()
	llmRequestDuration.WithLabelValues(model, backend, status).Observe(duration.Seconds())
}

// RecordLLMError records a backend error with classification.
func (r *Recorder) RecordLLMError(model, backend, errorType string) {
	llmErrors.WithLabelValues(model, backend, errorType).Inc()
}

// RecordFallback records a canned response. Source is "catalog", "generic"
// or "rate_limited".
func (r *Recorder) RecordFallback(mode, tone, source string) {
	fallbackServed.WithLabelValues(mode, tone, source).Inc()
}

func (r *Recorder) RecordRateLimited(route string) {
	httpRateLimited.WithLabelValues(route).Inc()
}

// UpdateUptime updates the application uptime metric.
func (r *Recorder) UpdateUptime() {
	uptimeGauge.Set(time.Since(r.startTime).Seconds())
}
