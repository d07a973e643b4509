package api

import (
	"net/http"
	"time"

	"github.com/blessedfam/weeklyrank/internal/domain/model"
	"github.com/blessedfam/weeklyrank/internal/domain/week"
)

// ResultsHandler serves a week's full ranked result set.
type ResultsHandler struct {
	deps Dependencies
}

// NewResultsHandler creates a results handler.
func NewResultsHandler(deps Dependencies) *ResultsHandler {
	return &ResultsHandler{deps: deps}
}

// resultsResponse mirrors the response shape of GET /results.
type resultsResponse struct {
	Week    string              `json:"week"`
	Results []model.ScoreResult `json:"results"`
}

// HandleGetResults handles GET /results?week=YYYY-MM-DD requests, ordered by
// rank ascending.
func (h *ResultsHandler) HandleGetResults(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	weekStart, err := week.Parse(r.URL.Query().Get("week"), time.Now())
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", err)
		return
	}

	results, err := h.deps.WeekResults(r.Context(), weekStart)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "upstream_unavailable", err)
		return
	}
	writeJSON(w, http.StatusOK, resultsResponse{
		Week:    week.Format(weekStart),
		Results: results,
	})
}
