package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"token-sale-ledger/internal/addr"
	"token-sale-ledger/internal/observability"
	"token-sale-ledger/internal/reporting"
	"token-sale-ledger/internal/sale"
	"token-sale-ledger/internal/vesting"
)

// routes builds the HTTP handler for the service.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	// Infrastructure endpoints, not instrumented
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("GET /metrics", observability.Handler())
	mux.Handle("GET /ws", s.hub)

	// Read endpoints
	mux.HandleFunc("GET /status", s.instrument("/status", s.handleStatus))
	mux.HandleFunc("GET /phases", s.instrument("/phases", s.handlePhases))
	mux.HandleFunc("GET /account", s.instrument("/account", s.handleAccount))
	mux.HandleFunc("GET /report", s.instrument("/report", s.handleReport))
	mux.HandleFunc("GET /report.csv", s.instrument("/report.csv", s.handleReportCSV))

	// Buyer endpoints
	mux.HandleFunc("POST /preview", s.instrument("/preview", s.handlePreview))
	mux.HandleFunc("POST /buy", s.instrument("/buy", s.handleBuy))
	mux.HandleFunc("POST /claim", s.instrument("/claim", s.handleClaim))
	mux.HandleFunc("POST /refund", s.instrument("/refund", s.handleRefund))
	mux.HandleFunc("POST /escrow/withdraw", s.instrument("/escrow/withdraw", s.handleEscrowWithdraw))

	// Admin endpoints
	mux.HandleFunc("POST /admin/phases", s.instrument("/admin/phases", s.handleAddPhase))
	mux.HandleFunc("POST /admin/phases/update", s.instrument("/admin/phases/update", s.handleUpdatePhase))
	mux.HandleFunc("POST /admin/end", s.instrument("/admin/end", s.handleEndSale))
	mux.HandleFunc("POST /admin/pause", s.instrument("/admin/pause", s.handlePause))
	mux.HandleFunc("POST /admin/unpause", s.instrument("/admin/unpause", s.handleUnpause))
	mux.HandleFunc("POST /admin/params", s.instrument("/admin/params", s.handleSetParams))
	mux.HandleFunc("POST /admin/proceeds", s.instrument("/admin/proceeds", s.handleWithdrawProceeds))

	// Vesting endpoints
	mux.HandleFunc("POST /vesting/fund", s.instrument("/vesting/fund", s.handleVestingFund))
	mux.HandleFunc("POST /vesting/schedules", s.instrument("/vesting/schedules", s.handleCreateVesting))
	mux.HandleFunc("GET /vesting/schedules", s.instrument("/vesting/schedules", s.handleListVesting))
	mux.HandleFunc("POST /vesting/release", s.instrument("/vesting/release", s.handleVestingRelease))
	mux.HandleFunc("POST /vesting/revoke", s.instrument("/vesting/revoke", s.handleVestingRevoke))

	return mux
}

// statusWriter captures the response status for request metrics.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// instrument wraps a handler with request duration and error metrics.
func (s *Server) instrument(path string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		h(sw, r)
		s.metrics.RecordRequest(path, r.Method, sw.status, time.Since(start).Seconds())
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Printf("encode response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	s.writeJSON(w, errorStatus(err), errorResponse{Error: err.Error()})
}

// errorStatus maps ledger errors to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, sale.ErrUnauthorized) || errors.Is(err, vesting.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, sale.ErrInvalidParameter) ||
		errors.Is(err, sale.ErrBelowMinimum) ||
		errors.Is(err, sale.ErrZeroTokens) ||
		errors.Is(err, sale.ErrZeroAmount) ||
		errors.Is(err, sale.ErrZeroDestination) ||
		errors.Is(err, vesting.ErrInvalidParameter):
		return http.StatusBadRequest
	case errors.Is(err, vesting.ErrInvalidScheduleID):
		return http.StatusNotFound
	case errors.Is(err, sale.ErrSaleEnded) ||
		errors.Is(err, sale.ErrAlreadyEnded) ||
		errors.Is(err, sale.ErrSaleNotEnded) ||
		errors.Is(err, sale.ErrSoftCapReached) ||
		errors.Is(err, sale.ErrSoftCapNotReached) ||
		errors.Is(err, sale.ErrPaused) ||
		errors.Is(err, sale.ErrNoActivePhase) ||
		errors.Is(err, sale.ErrOverlappingPhase) ||
		errors.Is(err, sale.ErrPhaseStarted) ||
		errors.Is(err, sale.ErrWalletCapExceeded) ||
		errors.Is(err, sale.ErrNothingToClaim) ||
		errors.Is(err, sale.ErrNothingToRefund) ||
		errors.Is(err, sale.ErrNoPayments) ||
		errors.Is(err, sale.ErrInsufficientProceeds) ||
		errors.Is(err, vesting.ErrInsufficientBalance) ||
		errors.Is(err, vesting.ErrScheduleRevoked) ||
		errors.Is(err, vesting.ErrAlreadyRevoked) ||
		errors.Is(err, vesting.ErrNotRevocable) ||
		errors.Is(err, vesting.ErrNothingToRelease):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// decode reads a JSON request body into v.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return false
	}
	return true
}

// parseAddr parses a base58 address field, writing a 400 on failure.
func (s *Server) parseAddr(w http.ResponseWriter, field, value string) (addr.Address, bool) {
	a, err := addr.Parse(value)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: field + ": " + err.Error()})
		return "", false
	}
	return a, true
}

// GET /status

type statusResponse struct {
	Ended           bool   `json:"ended"`
	SoftCapReached  bool   `json:"soft_cap_reached"`
	Paused          bool   `json:"paused"`
	SoftCap         uint64 `json:"soft_cap"`
	MinBuy          uint64 `json:"min_buy"`
	MaxPerWallet    uint64 `json:"max_per_wallet"`
	TokenUnit       uint64 `json:"token_unit"`
	TotalRaised     uint64 `json:"total_raised"`
	TotalTokensSold uint64 `json:"total_tokens_sold"`
	TotalEscrowed   uint64 `json:"total_escrowed"`
	HeldBalance     uint64 `json:"held_balance"`
	Proceeds        uint64 `json:"withdrawable_proceeds"`
	BuyerCount      int    `json:"buyer_count"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := s.ledger.Status()
	params := s.ledger.Params()

	s.writeJSON(w, http.StatusOK, statusResponse{
		Ended:           status.Ended,
		SoftCapReached:  status.SoftCapReached,
		Paused:          status.Paused,
		SoftCap:         params.SoftCap,
		MinBuy:          params.MinBuy,
		MaxPerWallet:    params.MaxPerWallet,
		TokenUnit:       params.TokenUnit,
		TotalRaised:     s.ledger.TotalRaised(),
		TotalTokensSold: s.ledger.TotalTokensSold(),
		TotalEscrowed:   s.ledger.TotalEscrowed(),
		HeldBalance:     s.ledger.HeldBalance(),
		Proceeds:        s.ledger.WithdrawableProceeds(),
		BuyerCount:      s.ledger.BuyerCount(),
	})
}

// GET /phases

type phaseResponse struct {
	Index       int    `json:"index"`
	UnitPrice   uint64 `json:"unit_price"`
	Supply      uint64 `json:"supply"`
	Sold        uint64 `json:"sold"`
	Remaining   uint64 `json:"remaining"`
	WindowStart int64  `json:"window_start"`
	WindowEnd   int64  `json:"window_end"`
}

func (s *Server) handlePhases(w http.ResponseWriter, r *http.Request) {
	phases := s.ledger.Phases()

	resp := make([]phaseResponse, len(phases))
	for i, p := range phases {
		resp[i] = phaseResponse{
			Index:       p.Index,
			UnitPrice:   p.UnitPrice,
			Supply:      p.Supply,
			Sold:        p.Sold,
			Remaining:   p.Remaining(),
			WindowStart: p.WindowStart,
			WindowEnd:   p.WindowEnd,
		}
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// GET /account?address=...

type accountResponse struct {
	Address           string `json:"address"`
	ContributedAmount uint64 `json:"contributed_amount"`
	PendingTokens     uint64 `json:"pending_tokens"`
	EscrowBalance     uint64 `json:"escrow_balance"`
	TokenBalance      uint64 `json:"token_balance"`
}

func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	a, ok := s.parseAddr(w, "address", r.URL.Query().Get("address"))
	if !ok {
		return
	}

	acct := s.ledger.Account(a)
	balance, err := s.issuer.BalanceOf(r.Context(), a)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, accountResponse{
		Address:           a.String(),
		ContributedAmount: acct.ContributedAmount,
		PendingTokens:     acct.PendingTokens,
		EscrowBalance:     s.ledger.BalanceOf(a),
		TokenBalance:      balance,
	})
}

// GET /report and /report.csv

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	report, err := reporting.NewGenerator(s.ledger, s.events).Generate(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Write([]byte(reporting.RenderMarkdown(report)))
}

func (s *Server) handleReportCSV(w http.ResponseWriter, r *http.Request) {
	report, err := reporting.NewGenerator(s.ledger, s.events).Generate(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Write([]byte(reporting.RenderCSV(report.Buyers)))
}

// POST /preview and /buy

type buyRequest struct {
	Sender string `json:"sender"`
	Amount uint64 `json:"amount"`
}

type quoteResponse struct {
	PhaseIndex int    `json:"phase_index"`
	Tokens     uint64 `json:"tokens"`
	Cost       uint64 `json:"cost"`
	Excess     uint64 `json:"excess"`
}

func toQuoteResponse(q sale.Quote) quoteResponse {
	return quoteResponse{
		PhaseIndex: q.PhaseIndex,
		Tokens:     q.Tokens,
		Cost:       q.Cost,
		Excess:     q.Excess,
	}
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	var req buyRequest
	if !s.decode(w, r, &req) {
		return
	}
	sender, ok := s.parseAddr(w, "sender", req.Sender)
	if !ok {
		return
	}

	quote, err := s.ledger.Preview(sender, req.Amount)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toQuoteResponse(quote))
}

func (s *Server) handleBuy(w http.ResponseWriter, r *http.Request) {
	var req buyRequest
	if !s.decode(w, r, &req) {
		return
	}
	sender, ok := s.parseAddr(w, "sender", req.Sender)
	if !ok {
		return
	}

	quote, err := s.ledger.Buy(r.Context(), sender, req.Amount)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toQuoteResponse(quote))
}

// POST /claim, /refund, /escrow/withdraw

type callerRequest struct {
	Caller string `json:"caller"`
}

type amountResponse struct {
	Amount uint64 `json:"amount"`
}

func (s *Server) handleClaim(w http.ResponseWriter, r *http.Request) {
	var req callerRequest
	if !s.decode(w, r, &req) {
		return
	}
	caller, ok := s.parseAddr(w, "caller", req.Caller)
	if !ok {
		return
	}

	tokens, err := s.ledger.Claim(r.Context(), caller)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, amountResponse{Amount: tokens})
}

func (s *Server) handleRefund(w http.ResponseWriter, r *http.Request) {
	var req callerRequest
	if !s.decode(w, r, &req) {
		return
	}
	caller, ok := s.parseAddr(w, "caller", req.Caller)
	if !ok {
		return
	}

	amount, err := s.ledger.RequestRefund(r.Context(), caller)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, amountResponse{Amount: amount})
}

func (s *Server) handleEscrowWithdraw(w http.ResponseWriter, r *http.Request) {
	var req callerRequest
	if !s.decode(w, r, &req) {
		return
	}
	caller, ok := s.parseAddr(w, "caller", req.Caller)
	if !ok {
		return
	}

	amount, err := s.ledger.Withdraw(r.Context(), caller)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, amountResponse{Amount: amount})
}

// POST /admin/phases

type addPhaseRequest struct {
	Actor       string `json:"actor"`
	UnitPrice   uint64 `json:"unit_price"`
	Supply      uint64 `json:"supply"`
	WindowStart int64  `json:"window_start"`
	WindowEnd   int64  `json:"window_end"`
}

func (s *Server) handleAddPhase(w http.ResponseWriter, r *http.Request) {
	var req addPhaseRequest
	if !s.decode(w, r, &req) {
		return
	}
	actor, ok := s.parseAddr(w, "actor", req.Actor)
	if !ok {
		return
	}

	index, err := s.ledger.AddPhase(r.Context(), actor, req.UnitPrice, req.Supply, req.WindowStart, req.WindowEnd)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]int{"index": index})
}

// POST /admin/phases/update

type updatePhaseRequest struct {
	Actor       string `json:"actor"`
	Index       int    `json:"index"`
	WindowStart int64  `json:"window_start"`
	WindowEnd   int64  `json:"window_end"`
}

func (s *Server) handleUpdatePhase(w http.ResponseWriter, r *http.Request) {
	var req updatePhaseRequest
	if !s.decode(w, r, &req) {
		return
	}
	actor, ok := s.parseAddr(w, "actor", req.Actor)
	if !ok {
		return
	}

	if err := s.ledger.UpdatePhase(r.Context(), actor, req.Index, req.WindowStart, req.WindowEnd); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /admin/end, /admin/pause, /admin/unpause

type actorRequest struct {
	Actor string `json:"actor"`
}

func (s *Server) actorAction(w http.ResponseWriter, r *http.Request, fn func(a addr.Address) error) {
	var req actorRequest
	if !s.decode(w, r, &req) {
		return
	}
	actor, ok := s.parseAddr(w, "actor", req.Actor)
	if !ok {
		return
	}

	if err := fn(actor); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleEndSale(w http.ResponseWriter, r *http.Request) {
	s.actorAction(w, r, func(a addr.Address) error { return s.ledger.EndSale(r.Context(), a) })
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	s.actorAction(w, r, func(a addr.Address) error { return s.ledger.Pause(r.Context(), a) })
}

func (s *Server) handleUnpause(w http.ResponseWriter, r *http.Request) {
	s.actorAction(w, r, func(a addr.Address) error { return s.ledger.Unpause(r.Context(), a) })
}

// POST /admin/params

type setParamsRequest struct {
	Actor        string  `json:"actor"`
	SoftCap      *uint64 `json:"soft_cap,omitempty"`
	MinBuy       *uint64 `json:"min_buy,omitempty"`
	MaxPerWallet *uint64 `json:"max_per_wallet,omitempty"`
}

func (s *Server) handleSetParams(w http.ResponseWriter, r *http.Request) {
	var req setParamsRequest
	if !s.decode(w, r, &req) {
		return
	}
	actor, ok := s.parseAddr(w, "actor", req.Actor)
	if !ok {
		return
	}

	if req.SoftCap != nil {
		if err := s.ledger.SetSoftCap(r.Context(), actor, *req.SoftCap); err != nil {
			s.writeError(w, err)
			return
		}
	}
	if req.MinBuy != nil {
		if err := s.ledger.SetMinBuy(r.Context(), actor, *req.MinBuy); err != nil {
			s.writeError(w, err)
			return
		}
	}
	if req.MaxPerWallet != nil {
		if err := s.ledger.SetMaxPerWallet(r.Context(), actor, *req.MaxPerWallet); err != nil {
			s.writeError(w, err)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /admin/proceeds

type proceedsRequest struct {
	Actor  string `json:"actor"`
	Amount uint64 `json:"amount"`
}

func (s *Server) handleWithdrawProceeds(w http.ResponseWriter, r *http.Request) {
	var req proceedsRequest
	if !s.decode(w, r, &req) {
		return
	}
	actor, ok := s.parseAddr(w, "actor", req.Actor)
	if !ok {
		return
	}

	if err := s.ledger.WithdrawProceeds(r.Context(), actor, req.Amount); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, amountResponse{Amount: req.Amount})
}

// POST /vesting/fund

type vestingFundRequest struct {
	Actor  string `json:"actor"`
	Amount uint64 `json:"amount"`
}

func (s *Server) handleVestingFund(w http.ResponseWriter, r *http.Request) {
	var req vestingFundRequest
	if !s.decode(w, r, &req) {
		return
	}
	actor, ok := s.parseAddr(w, "actor", req.Actor)
	if !ok {
		return
	}

	if err := s.vesting.Fund(r.Context(), actor, req.Amount); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /vesting/schedules

type createVestingRequest struct {
	Actor       string `json:"actor"`
	Beneficiary string `json:"beneficiary"`
	TotalAmount uint64 `json:"total_amount"`
	Start       int64  `json:"start"`
	Duration    int64  `json:"duration"`
	Cliff       int64  `json:"cliff"`
	Revocable   bool   `json:"revocable"`
}

func (s *Server) handleCreateVesting(w http.ResponseWriter, r *http.Request) {
	var req createVestingRequest
	if !s.decode(w, r, &req) {
		return
	}
	actor, ok := s.parseAddr(w, "actor", req.Actor)
	if !ok {
		return
	}
	beneficiary, ok := s.parseAddr(w, "beneficiary", req.Beneficiary)
	if !ok {
		return
	}

	id, err := s.vesting.CreateVesting(r.Context(), actor, beneficiary, req.TotalAmount, req.Start, req.Duration, req.Cliff, req.Revocable)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]int{"id": id})
}

// GET /vesting/schedules?beneficiary=...

type scheduleResponse struct {
	ID            int    `json:"id"`
	Beneficiary   string `json:"beneficiary"`
	TotalAmount   uint64 `json:"total_amount"`
	Released      uint64 `json:"released"`
	Releasable    uint64 `json:"releasable"`
	StartTime     int64  `json:"start_time"`
	Duration      int64  `json:"duration"`
	CliffDuration int64  `json:"cliff_duration"`
	Revocable     bool   `json:"revocable"`
	Revoked       bool   `json:"revoked"`
}

func (s *Server) handleListVesting(w http.ResponseWriter, r *http.Request) {
	beneficiary, ok := s.parseAddr(w, "beneficiary", r.URL.Query().Get("beneficiary"))
	if !ok {
		return
	}

	nowMs := time.Now().UnixMilli()
	schedules := s.vesting.Schedules(beneficiary)

	resp := make([]scheduleResponse, len(schedules))
	for i := range schedules {
		sched := schedules[i]
		resp[i] = scheduleResponse{
			ID:            i,
			Beneficiary:   sched.Beneficiary,
			TotalAmount:   sched.TotalAmount,
			Released:      sched.Released,
			Releasable:    vesting.Releasable(&sched, nowMs),
			StartTime:     sched.StartTime,
			Duration:      sched.Duration,
			CliffDuration: sched.CliffDuration,
			Revocable:     sched.Revocable,
			Revoked:       sched.Revoked,
		}
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// POST /vesting/release

type vestingReleaseRequest struct {
	Caller string `json:"caller"`
	ID     *int   `json:"id,omitempty"`
}

func (s *Server) handleVestingRelease(w http.ResponseWriter, r *http.Request) {
	var req vestingReleaseRequest
	if !s.decode(w, r, &req) {
		return
	}
	caller, ok := s.parseAddr(w, "caller", req.Caller)
	if !ok {
		return
	}

	var released uint64
	var err error
	if req.ID != nil {
		released, err = s.vesting.ReleaseSchedule(r.Context(), caller, *req.ID)
	} else {
		released, err = s.vesting.ReleaseAll(r.Context(), caller)
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, amountResponse{Amount: released})
}

// POST /vesting/revoke

type vestingRevokeRequest struct {
	Actor       string `json:"actor"`
	Beneficiary string `json:"beneficiary"`
	ID          int    `json:"id"`
}

func (s *Server) handleVestingRevoke(w http.ResponseWriter, r *http.Request) {
	var req vestingRevokeRequest
	if !s.decode(w, r, &req) {
		return
	}
	actor, ok := s.parseAddr(w, "actor", req.Actor)
	if !ok {
		return
	}
	beneficiary, ok := s.parseAddr(w, "beneficiary", req.Beneficiary)
	if !ok {
		return
	}

	reclaimed, err := s.vesting.Revoke(r.Context(), actor, beneficiary, req.ID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, amountResponse{Amount: reclaimed})
}
