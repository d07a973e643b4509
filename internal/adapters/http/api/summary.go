package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/blessedfam/weeklyrank/internal/domain/model"
	"github.com/blessedfam/weeklyrank/internal/domain/week"
)

const defaultSummaryLimit = 10

// SummaryHandler serves the top-N projection of a week.
type SummaryHandler struct {
	deps     Dependencies
	maxLimit int
}

// NewSummaryHandler creates a summary handler.
func NewSummaryHandler(deps Dependencies, maxLimit int) *SummaryHandler {
	return &SummaryHandler{deps: deps, maxLimit: maxLimit}
}

// summaryResponse mirrors the response shape of GET /summary.
type summaryResponse struct {
	Week  string              `json:"week"`
	Limit int                 `json:"limit"`
	Top   []model.ScoreResult `json:"top"`
}

// HandleGetSummary handles GET /summary?week=YYYY-MM-DD&limit=N requests.
func (h *SummaryHandler) HandleGetSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	weekStart, err := week.Parse(r.URL.Query().Get("week"), time.Now())
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", err)
		return
	}

	limit := defaultSummaryLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		limit, err = strconv.Atoi(limitStr)
		if err != nil || limit < 1 {
			writeError(w, http.StatusBadRequest, "invalid_input", ErrBadRequest)
			return
		}
	}
	if limit > h.maxLimit {
		writeError(w, http.StatusBadRequest, "limit_exceeded", ErrBadRequest)
		return
	}

	top, err := h.deps.TopN(r.Context(), weekStart, limit)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "upstream_unavailable", err)
		return
	}
	writeJSON(w, http.StatusOK, summaryResponse{
		Week:  week.Format(weekStart),
		Limit: limit,
		Top:   top,
	})
}
