package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// --- Pipeline Outcome Metrics ---
	generationRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "heartnote_generation_requests_total",
		Help: "Total writing requests by terminal state.",
	}, []string{"mode", "state", "reason", "channel"})

	generationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "heartnote_generation_duration_seconds",
		Help:    "End-to-end duration of a writing request.",
		Buckets: []float64{0.01, 0.1, 0.5, 1, 2, 5, 10, 20, 30, 60},
	}, []string{"mode", "state"})

	safetyBlocks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "heartnote_safety_blocks_total",
		Help: "Total inputs rejected by the safety filter.",
	}, []string{"category"})

	// --- LLM Performance Metrics ---
	llmRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "heartnote_llm_request_duration_seconds",
		Help:    "Duration of backend generation calls.",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 20, 30, 60},
	}, []string{"model", "backend", "status"})

	llmErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "heartnote_llm_errors_total",
		Help: "Total backend generation errors by classification.",
	}, []string{"model", "backend", "error_type"})

	llmRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "heartnote_llm_requests_total",
		Help: "Total backend generation calls attempted.",
	}, []string{"model", "backend"})

	// --- Fallback & Reliability ---
	fallbackServed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "heartnote_fallback_served_total",
		Help: "Total canned responses served instead of generated text.",
	}, []string{"mode", "tone", "source"})

	// --- HTTP ---
	httpRateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "heartnote_http_rate_limited_total",
		Help: "Total HTTP requests rejected by admission control.",
	}, []string{"route"})

	// --- System Health ---
	uptimeGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "heartnote_uptime_seconds",
		Help: "Application uptime in seconds.",
	})
)
