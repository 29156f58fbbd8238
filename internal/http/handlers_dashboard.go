package http

import (
	"net/http"

	"moneyman/internal/core"
	"moneyman/internal/services"
)

// handleDashboard serves the aggregated period view, cached per
// user+period. Mutations invalidate the cache, so entries only serve
// reads between writes.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request, userID string) {
	period, err := parsePeriod(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}

	key := userID + ":" + string(period)
	if cached, ok := s.dashCache.Get(key); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	dash, err := s.ledger.Dashboard(r.Context(), userID, period)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.dashCache.Set(key, dash)
	writeJSON(w, http.StatusOK, dash)
}

type summaryResponse struct {
	TotalBalance core.Money                    `json:"total_balance"`
	Categories   []services.CategorySummaryRow `json:"categories"`
}

// handleSummary serves the per-category expense rollup alongside the
// informational total of all account balances.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request, userID string) {
	if cached, ok := s.summaryCache.Get(userID); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	rows, err := s.ledger.CategorySummaries(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	total, err := s.ledger.TotalBalance(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := summaryResponse{TotalBalance: total, Categories: rows}
	s.summaryCache.Set(userID, resp)
	writeJSON(w, http.StatusOK, resp)
}
