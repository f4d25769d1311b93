package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/drainage-monitor/internal/domain"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const maxClassifyBody = 64 << 10

// ReportSource exposes the most recent polling cycle report.
type ReportSource interface {
	LatestReport() (domain.CycleReport, bool)
}

// Server exposes health, readiness, metrics and the drainage report API.
type Server struct {
	httpServer *http.Server
	reports    ReportSource
	predictor  domain.Predictor
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics and
// /api/v1 routes. The predictor is the same trained model the poller uses;
// it is only read here.
func NewServer(addr string, ready sharedobs.ReadinessChecker, reports ReportSource, predictor domain.Predictor, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		reports:   reports,
		predictor: predictor,
		logger:    logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /api/v1/reports/latest", s.handleLatestReport)
	mux.HandleFunc("POST /api/v1/classify", s.handleClassify)

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

func (s *Server) handleLatestReport(w http.ResponseWriter, _ *http.Request) {
	report, ok := s.reports.LatestReport()
	if !ok {
		writeError(w, http.StatusNotFound, "no report produced yet")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// handleClassify runs both classifiers on a reading posted as JSON, e.g.
// {"gas": 620, "water_speed": 1.6, "water_level": 22, "gps_location": 4}.
func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxClassifyBody))
	dec.UseNumber()

	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	reading, err := domain.ParseReading(domain.RawReading{Fields: fields, Source: "api"})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	assessment, err := domain.Assess(reading, s.predictor)
	if err != nil {
		s.logger.Error("classify request failed", "error", err)
		if errors.Is(err, domain.ErrModelNotReady) {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "classification failed")
		return
	}
	writeJSON(w, http.StatusOK, assessment)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
