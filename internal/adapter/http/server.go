// Package http exposes the monitor's operational endpoints: health,
// readiness, Prometheus metrics, the latest-conditions snapshot, and the
// AQHI history report.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mossburn/hk-conditions-monitor/internal/domain"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// HistoryReader is the slice of the store the read endpoints need.
type HistoryReader interface {
	Snapshot() (domain.Snapshot, error)
	History(stream domain.Stream, limit int) ([]domain.Record, error)
}

const defaultHistoryLimit = 24

// Server exposes the monitor's HTTP surface.
type Server struct {
	httpServer *http.Server
	history    HistoryReader
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics,
// /snapshot, and /history/aqhi routes.
func NewServer(addr string, ready ReadinessChecker, history HistoryReader, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		history: history,
		logger:  logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /snapshot", s.handleSnapshot)
	mux.HandleFunc("GET /history/aqhi", s.handleAQHIHistory)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func (s *Server) handleSnapshot(w http.ResponseWriter, _ *http.Request) {
	snap, err := s.history.Snapshot()
	if err != nil {
		s.logger.Error("snapshot read failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "snapshot unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleAQHIHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	rows, err := s.history.History(domain.StreamAQHI, limit)
	if err != nil {
		s.logger.Error("aqhi history read failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "history unavailable"})
		return
	}

	readings := make([]domain.AQHIRecord, 0, len(rows))
	for _, row := range rows {
		if rec, ok := row.(domain.AQHIRecord); ok {
			readings = append(readings, rec)
		}
	}
	writeJSON(w, http.StatusOK, domain.SummarizeAQHIHistory(readings))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort health response
}
