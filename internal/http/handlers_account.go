package http

import (
	"fmt"
	"net/http"

	"moneyman/internal/core"
)

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request, userID string) {
	accounts, err := s.ledger.Accounts(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, accounts)
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request, userID string) {
	var req createAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	acc, err := s.ledger.CreateAccount(r.Context(), userID, req.toInput())
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.invalidateUser(userID)
	writeJSON(w, http.StatusCreated, acc)
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request, userID string) {
	if err := s.ledger.DeleteAccount(r.Context(), userID, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}

	s.invalidateUser(userID)
	w.WriteHeader(http.StatusNoContent)
}

// handleTransfer moves funds between two of the caller's accounts,
// addressed by account name.
func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request, userID string) {
	var req transferRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	from := sanitizeInput(req.From)
	to := sanitizeInput(req.To)
	if from == "" || to == "" {
		writeError(w, r, fmt.Errorf("%w: 'from' and 'to' account names are required", core.ErrValidation))
		return
	}

	result, err := s.ledger.Transfer(r.Context(), userID, from, to, req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.invalidateUser(userID)
	writeJSON(w, http.StatusCreated, result)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request, userID string) {
	categories, err := s.ledger.Categories(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}
