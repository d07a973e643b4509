// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/blessedfam/weeklyrank/internal/aggregator"
	"github.com/blessedfam/weeklyrank/internal/domain/model"
)

// Dependencies required by HTTP handlers. The interface bundle keeps the
// handler layer loosely coupled to the aggregator implementation.
type Dependencies interface {
	// Compute recomputes and publishes one week.
	Compute(ctx context.Context, weekStart time.Time) (aggregator.Summary, error)

	// Read operations expose published results.
	WeekResults(ctx context.Context, weekStart time.Time) ([]model.ScoreResult, error)
	TopN(ctx context.Context, weekStart time.Time, n int) ([]model.ScoreResult, error)
}

// StatsProvider exposes service statistics for the stats endpoint.
type StatsProvider interface {
	GetStats() map[string]any
}

// Server wires HTTP routes for the engine API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	computeHandler *ComputeHandler
	resultsHandler *ResultsHandler
	summaryHandler *SummaryHandler
}

// NewServer creates an API server with all handlers.
func NewServer(deps Dependencies, stats StatsProvider, maxSummaryLimit int) *Server {
	return &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(stats),
		computeHandler: NewComputeHandler(deps),
		resultsHandler: NewResultsHandler(deps),
		summaryHandler: NewSummaryHandler(deps, maxSummaryLimit),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.Handle("/metrics", s.healthHandler.MetricsHandler())
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/compute", MetricsMiddleware(s.computeHandler.HandleCompute, "compute"))
	mux.HandleFunc("/results", MetricsMiddleware(s.resultsHandler.HandleGetResults, "results"))
	mux.HandleFunc("/summary", MetricsMiddleware(s.summaryHandler.HandleGetSummary, "summary"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
