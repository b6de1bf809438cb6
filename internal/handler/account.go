package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"hdgstudio-market-api/internal/middleware"
	"hdgstudio-market-api/internal/model"
	"hdgstudio-market-api/internal/saga"
	"hdgstudio-market-api/internal/service"
	"hdgstudio-market-api/pkg/apierror"
	"hdgstudio-market-api/pkg/response"

	"github.com/go-chi/chi/v5"
)

// AccountHandler handles listing and purchase HTTP requests.
type AccountHandler struct {
	listings  *service.ListingService
	purchases *saga.Orchestrator
}

// NewAccountHandler creates a new account handler.
func NewAccountHandler(listings *service.ListingService, purchases *saga.Orchestrator) *AccountHandler {
	return &AccountHandler{
		listings:  listings,
		purchases: purchases,
	}
}

// accountID parses the {id} URL parameter.
func accountID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apierror.BadRequest("invalid account id")
	}
	return id, nil
}

// CreateAccountRequest represents the request body for listing an account.
type CreateAccountRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	URL         string `json:"url"`
	Description string `json:"description"`
	Price       int64  `json:"price"`
}

// Create handles POST /api/v1/accounts
func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	token := middleware.GetTokenDataFromContext(r.Context())
	if token == nil {
		response.Error(w, apierror.Unauthorized(""))
		return
	}

	var req CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}
	defer r.Body.Close()

	created, err := h.listings.Create(r.Context(), &model.Account{
		Username:    req.Username,
		Password:    req.Password,
		ListingURL:  req.URL,
		Description: req.Description,
		Price:       req.Price,
		SellerID:    token.UserID,
	}, token.Username)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.Created(w, created)
}

// List handles GET /api/v1/accounts
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.listings.GetActive(r.Context())
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, accounts)
}

// Get handles GET /api/v1/accounts/{id}
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := accountID(r)
	if err != nil {
		response.Error(w, err)
		return
	}

	acc, err := h.listings.GetByID(r.Context(), id)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, acc)
}

// UpdateAccountRequest represents the editable fields of a listing.
type UpdateAccountRequest struct {
	URL         string `json:"url"`
	Description string `json:"description"`
	Price       int64  `json:"price"`
}

// Update handles PUT /api/v1/accounts/{id}
func (h *AccountHandler) Update(w http.ResponseWriter, r *http.Request) {
	token := middleware.GetTokenDataFromContext(r.Context())
	if token == nil {
		response.Error(w, apierror.Unauthorized(""))
		return
	}

	id, err := accountID(r)
	if err != nil {
		response.Error(w, err)
		return
	}

	var req UpdateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}
	defer r.Body.Close()

	updated, err := h.listings.Update(r.Context(), id, token.UserID, req.URL, req.Description, req.Price)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, updated)
}

// Delete handles DELETE /api/v1/accounts/{id}
func (h *AccountHandler) Delete(w http.ResponseWriter, r *http.Request) {
	token := middleware.GetTokenDataFromContext(r.Context())
	if token == nil {
		response.Error(w, apierror.Unauthorized(""))
		return
	}

	id, err := accountID(r)
	if err != nil {
		response.Error(w, err)
		return
	}

	if err := h.listings.Delete(r.Context(), id, token.UserID, token.Role == "admin"); err != nil {
		response.Error(w, err)
		return
	}
	response.NoContent(w)
}

// Mine handles GET /api/v1/accounts/mine
func (h *AccountHandler) Mine(w http.ResponseWriter, r *http.Request) {
	token := middleware.GetTokenDataFromContext(r.Context())
	if token == nil {
		response.Error(w, apierror.Unauthorized(""))
		return
	}

	accounts, err := h.listings.GetBySeller(r.Context(), token.UserID)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, accounts)
}

// Purchased handles GET /api/v1/accounts/purchased
func (h *AccountHandler) Purchased(w http.ResponseWriter, r *http.Request) {
	token := middleware.GetTokenDataFromContext(r.Context())
	if token == nil {
		response.Error(w, apierror.Unauthorized(""))
		return
	}

	creds, err := h.listings.Purchased(r.Context(), token.UserID)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, creds)
}

// Purchase handles POST /api/v1/accounts/{id}/purchase
func (h *AccountHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	token := middleware.GetTokenDataFromContext(r.Context())
	if token == nil {
		response.Error(w, apierror.Unauthorized(""))
		return
	}

	id, err := accountID(r)
	if err != nil {
		response.Error(w, err)
		return
	}

	creds, err := h.purchases.Purchase(r.Context(), id, token.UserID, token.Username)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, creds)
}
