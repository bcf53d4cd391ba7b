package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/heartnote/heartnote/pkg/config"
	"github.com/heartnote/heartnote/pkg/logger"
	"github.com/heartnote/heartnote/pkg/metrics"
	"github.com/heartnote/heartnote/pkg/pipeline"
)

// Generator is the pipeline entry point served over HTTP.
type Generator interface {
	Generate(ctx context.Context, req pipeline.Request) (pipeline.Result, error)
}

// Server exposes the generation API alongside health and metrics endpoints.
type Server struct {
	host     string
	port     int
	secret   string
	limiter  *rate.Limiter
	gen      Generator
	activity *ActivityBuffer
	started  time.Time
	server   *http.Server
}

// NewServer creates a server for gen. activity may be nil.
func NewServer(cfg config.ServerConfig, gen Generator, activity *ActivityBuffer) *Server {
	if activity == nil {
		activity = NewActivityBuffer(100)
	}
	var limiter *rate.Limiter
	if cfg.RateLimitRPS > 0 {
		burst := cfg.RateLimitBurst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), burst)
	}
	s := &Server{
		host:     cfg.Host,
		port:     cfg.Port,
		secret:   cfg.SigningSecret,
		limiter:  limiter,
		gen:      gen,
		activity: activity,
		started:  time.Now(),
	}
	s.server = &http.Server{
		Addr:              s.Addr(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler builds the routed handler served by Start.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ready", s.handleReady)
	mux.Handle("/metrics", promhttp.Handler())

	generate := http.Handler(http.HandlerFunc(s.handleGenerate))
	generate = s.verifySignature(generate)
	generate = s.rateLimit("/api/generate", generate)
	mux.Handle("/api/generate", generate)

	mux.HandleFunc("/api/modes", s.handleModes)
	mux.HandleFunc("/api/activity", s.handleActivity)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/config/schema", s.handleSchema)

	return withRequestID(mux)
}

func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.host, s.port)
}

// Start blocks serving until Stop is called. After Stop it returns
// http.ErrServerClosed.
func (s *Server) Start() error {
	logger.InfoCF("server", "HTTP server listening", map[string]any{"addr": s.Addr()})
	return s.server.ListenAndServe()
}

// Stop stops the server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.gen == nil {
		http.Error(w, "NOT READY", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "READY")
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	metrics.DefaultRecorder().UpdateUptime()
	writeJSON(w, http.StatusOK, map[string]any{
		"uptime":    time.Since(s.started).Round(time.Second).String(),
		"version":   Version,
		"timestamp": time.Now().UnixMilli(),
	})
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.activity.GetEvents())
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, GenerateSchema())
}

// Version is reported by /api/status; set at link time.
var Version = "dev"

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.ErrorCF("server", "Failed to encode response", map[string]any{"error": err.Error()})
	}
}
