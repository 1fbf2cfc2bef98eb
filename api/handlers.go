package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/vitas-brc20/dicer/models"
	"github.com/vitas-brc20/dicer/service"
)

// RollRequest is the body of a roll submission
type RollRequest struct {
	Account string `json:"account"`
}

// TicketBalanceResponse reports an account's unspent tickets
type TicketBalanceResponse struct {
	Account string `json:"account"`
	Tickets int64  `json:"tickets"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handlePayment(w http.ResponseWriter, r *http.Request) {
	if !s.validWebhookSecret(r) {
		writeServiceError(w, r, service.ErrUnauthorized)
		return
	}

	var payment models.Payment
	if err := json.NewDecoder(r.Body).Decode(&payment); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid payment body")
		return
	}

	balance, err := s.services.Tickets.HandlePayment(r.Context(), payment)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if balance == nil {
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "ignored"})
		return
	}

	writeJSON(w, http.StatusOK, TicketBalanceResponse{Account: balance.Account, Tickets: balance.Tickets})
}

func (s *Server) handleGetTickets(w http.ResponseWriter, r *http.Request) {
	account := mux.Vars(r)["account"]

	tickets, err := s.services.Tickets.GetBalance(r.Context(), account)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, TicketBalanceResponse{Account: account, Tickets: tickets})
}

func (s *Server) handleSubmitRoll(w http.ResponseWriter, r *http.Request) {
	var req RollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Account == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "account is required")
		return
	}

	// Only the account's own requests count against its budget
	if err := s.services.Authorizer.AuthorizeAccount(r.Context(), bearerToken(r), req.Account); err != nil {
		writeServiceError(w, r, err)
		return
	}

	if !s.limiter.Allow(req.Account) {
		writeError(w, http.StatusTooManyRequests, "rate_limited", "too many roll submissions")
		return
	}

	roll, err := s.services.Rolls.SubmitRoll(r.Context(), bearerToken(r), req.Account)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, roll)
}

func (s *Server) handleListRolls(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}

	rolls, err := s.services.Rolls.ListByAccount(r.Context(), mux.Vars(r)["account"], limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, rolls)
}

func (s *Server) handleClosePeriod(w http.ResponseWriter, r *http.Request) {
	result, err := s.services.Draws.ClosePeriod(r.Context(), bearerToken(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleCurrentPeriod(w http.ResponseWriter, r *http.Request) {
	status, err := s.services.Draws.CurrentPeriod(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleListDraws(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}

	draws, err := s.services.Draws.ListDraws(r.Context(), limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, draws)
}

func (s *Server) handleGetDraw(w http.ResponseWriter, r *http.Request) {
	periodID, err := strconv.ParseInt(mux.Vars(r)["period"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid period id")
		return
	}

	draw, err := s.services.Draws.GetDraw(r.Context(), periodID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if draw == nil {
		writeError(w, http.StatusNotFound, "not_found", "period has not been closed")
		return
	}

	writeJSON(w, http.StatusOK, draw)
}

func (s *Server) handleListPending(w http.ResponseWriter, r *http.Request) {
	if err := s.services.Authorizer.AuthorizePrivileged(r.Context(), bearerToken(r)); err != nil {
		writeServiceError(w, r, err)
		return
	}

	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}

	payouts, err := s.services.Payouts.ListPending(r.Context(), limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, payouts)
}

func (s *Server) handleGetPayout(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid payout id")
		return
	}

	payout, err := s.services.Payouts.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, payout)
}

func (s *Server) handleFinalizePayout(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid payout id")
		return
	}

	payout, err := s.services.Payouts.Finalize(r.Context(), bearerToken(r), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, payout)
}

func (s *Server) handleListPayouts(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}

	payouts, err := s.services.Payouts.ListByWinner(r.Context(), mux.Vars(r)["account"], limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, payouts)
}

// parseLimit reads the optional limit query parameter; zero selects the default
func parseLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, true
	}

	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		writeError(w, http.StatusBadRequest, "bad_request", "limit must be a non-negative integer")
		return 0, false
	}
	return limit, true
}
