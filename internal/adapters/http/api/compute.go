package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/blessedfam/weeklyrank/internal/adapters/store"
	"github.com/blessedfam/weeklyrank/internal/aggregator"
	"github.com/blessedfam/weeklyrank/internal/domain/model"
	"github.com/blessedfam/weeklyrank/internal/domain/scoring"
	"github.com/blessedfam/weeklyrank/internal/domain/week"
	"github.com/blessedfam/weeklyrank/pkg/metrics"
)

// ComputeHandler triggers weekly computations.
type ComputeHandler struct {
	deps Dependencies
}

// NewComputeHandler creates a compute handler.
func NewComputeHandler(deps Dependencies) *ComputeHandler {
	return &ComputeHandler{deps: deps}
}

// computeResponse mirrors the response shape of POST /compute.
type computeResponse struct {
	Week      string              `json:"week"`
	Published int                 `json:"published"`
	Results   []model.ScoreResult `json:"results"`
	Warning   string              `json:"warning,omitempty"`
}

// HandleCompute handles POST /compute?week=YYYY-MM-DD requests. The week
// parameter is optional and defaults to the Monday of the current UTC week.
// Invalid parameters are rejected before any computation starts.
func (h *ComputeHandler) HandleCompute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	weekStart, err := week.Parse(r.URL.Query().Get("week"), time.Now())
	if err != nil {
		metrics.RecordComputeRun(metrics.OutcomeInvalid)
		writeError(w, http.StatusBadRequest, "invalid_input", err)
		return
	}

	summary, err := h.deps.Compute(r.Context(), weekStart)
	if err != nil {
		switch {
		case errors.Is(err, scoring.ErrMissingWeight):
			metrics.RecordComputeRun(metrics.OutcomeConfig)
			writeError(w, http.StatusInternalServerError, "configuration_error", err)
		case errors.Is(err, store.ErrUnavailable):
			metrics.RecordComputeRun(metrics.OutcomeUnavailable)
			writeError(w, http.StatusServiceUnavailable, "upstream_unavailable", err)
		default:
			metrics.RecordComputeRun(metrics.OutcomeUnavailable)
			writeError(w, http.StatusInternalServerError, "internal_error", err)
		}
		return
	}

	resp := computeResponse{
		Week:      week.Format(summary.WeekStart),
		Published: summary.Published,
		Results:   summary.Results,
	}
	if summary.Warning != nil {
		// Publish succeeded; only the read-back failed. Surfaced as a
		// warning because the authoritative result is already stored.
		metrics.RecordComputeRun(metrics.OutcomeWarning)
		if errors.Is(summary.Warning, aggregator.ErrReadBack) {
			resp.Warning = summary.Warning.Error()
		}
	} else {
		metrics.RecordComputeRun(metrics.OutcomeOK)
	}
	writeJSON(w, http.StatusOK, resp)
}
