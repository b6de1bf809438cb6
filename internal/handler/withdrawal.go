package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"hdgstudio-market-api/internal/middleware"
	"hdgstudio-market-api/internal/model"
	"hdgstudio-market-api/internal/service"
	"hdgstudio-market-api/pkg/apierror"
	"hdgstudio-market-api/pkg/response"

	"github.com/go-chi/chi/v5"
)

// WithdrawalHandler handles withdrawal HTTP requests.
type WithdrawalHandler struct {
	withdrawals *service.WithdrawalService
}

// NewWithdrawalHandler creates a new withdrawal handler.
func NewWithdrawalHandler(withdrawals *service.WithdrawalService) *WithdrawalHandler {
	return &WithdrawalHandler{withdrawals: withdrawals}
}

func withdrawalID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apierror.BadRequest("invalid withdrawal id")
	}
	return id, nil
}

// WithdrawalRequest represents the request body for a withdrawal.
type WithdrawalRequest struct {
	Amount     int64  `json:"amount"`
	BankName   string `json:"bank_name"`
	BankNumber string `json:"bank_number"`
	BankOwner  string `json:"bank_owner"`
}

// Create handles POST /api/v1/withdrawals
func (h *WithdrawalHandler) Create(w http.ResponseWriter, r *http.Request) {
	token := middleware.GetTokenDataFromContext(r.Context())
	if token == nil {
		response.Error(w, apierror.Unauthorized(""))
		return
	}

	var req WithdrawalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}
	defer r.Body.Close()

	created, err := h.withdrawals.Create(r.Context(), &model.Withdrawal{
		UserID:     token.UserID,
		Amount:     req.Amount,
		BankName:   req.BankName,
		BankNumber: req.BankNumber,
		BankOwner:  req.BankOwner,
	})
	if err != nil {
		response.Error(w, err)
		return
	}
	response.Created(w, created)
}

// Mine handles GET /api/v1/withdrawals/mine
func (h *WithdrawalHandler) Mine(w http.ResponseWriter, r *http.Request) {
	token := middleware.GetTokenDataFromContext(r.Context())
	if token == nil {
		response.Error(w, apierror.Unauthorized(""))
		return
	}

	withdrawals, err := h.withdrawals.GetByUser(r.Context(), token.UserID)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, withdrawals)
}

// CashFlow handles GET /api/v1/finance/mine
func (h *WithdrawalHandler) CashFlow(w http.ResponseWriter, r *http.Request) {
	token := middleware.GetTokenDataFromContext(r.Context())
	if token == nil {
		response.Error(w, apierror.Unauthorized(""))
		return
	}

	records, err := h.withdrawals.CashFlow(r.Context(), token.UserID)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, records)
}

// List handles GET /api/v1/withdrawals - the review queue, admin only.
func (h *WithdrawalHandler) List(w http.ResponseWriter, r *http.Request) {
	withdrawals, err := h.withdrawals.GetAll(r.Context())
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, withdrawals)
}

// Approve handles POST /api/v1/withdrawals/{id}/approve - admin only.
func (h *WithdrawalHandler) Approve(w http.ResponseWriter, r *http.Request) {
	token := middleware.GetTokenDataFromContext(r.Context())
	if token == nil {
		response.Error(w, apierror.Unauthorized(""))
		return
	}

	id, err := withdrawalID(r)
	if err != nil {
		response.Error(w, err)
		return
	}

	if err := h.withdrawals.Approve(r.Context(), id, token.UserID); err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, map[string]string{"status": "approved"})
}

// Reject handles POST /api/v1/withdrawals/{id}/reject - admin only.
func (h *WithdrawalHandler) Reject(w http.ResponseWriter, r *http.Request) {
	token := middleware.GetTokenDataFromContext(r.Context())
	if token == nil {
		response.Error(w, apierror.Unauthorized(""))
		return
	}

	id, err := withdrawalID(r)
	if err != nil {
		response.Error(w, err)
		return
	}

	if err := h.withdrawals.Reject(r.Context(), id, token.UserID); err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, map[string]string{"status": "rejected"})
}
