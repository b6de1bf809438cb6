package client

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// HTTPIdentityClient implements IdentityClient against the identity
// service's REST surface.
type HTTPIdentityClient struct {
	httpClient
}

// NewHTTPIdentityClient creates an identity adapter for the given base URL.
func NewHTTPIdentityClient(baseURL string, timeout time.Duration) *HTTPIdentityClient {
	return &HTTPIdentityClient{newHTTPClient(baseURL, timeout)}
}

type emailResponse struct {
	Email string `json:"email"`
}

type changePasswordRequest struct {
	SessionID   string `json:"session_id"`
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

type changeEmailRequest struct {
	SessionID string `json:"session_id"`
	NewEmail  string `json:"new_email"`
}

type checkCredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// GetEmail returns the email registered for the user.
func (c *HTTPIdentityClient) GetEmail(ctx context.Context, userID int64) (string, error) {
	var resp emailResponse
	path := fmt.Sprintf("/api/v1/users/%d/email", userID)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return "", err
	}
	return resp.Email, nil
}

// ChangePassword rotates the password behind the session.
func (c *HTTPIdentityClient) ChangePassword(ctx context.Context, sessionID, oldPassword, newPassword string) error {
	req := changePasswordRequest{
		SessionID:   sessionID,
		OldPassword: oldPassword,
		NewPassword: newPassword,
	}
	return c.do(ctx, http.MethodPost, "/api/v1/credentials/password", req, nil)
}

// ChangeEmail retargets the email behind the session.
func (c *HTTPIdentityClient) ChangeEmail(ctx context.Context, sessionID, newEmail string) error {
	req := changeEmailRequest{
		SessionID: sessionID,
		NewEmail:  newEmail,
	}
	return c.do(ctx, http.MethodPost, "/api/v1/credentials/email", req, nil)
}

// CheckCredentials verifies a username/password pair.
func (c *HTTPIdentityClient) CheckCredentials(ctx context.Context, username, password string) error {
	req := checkCredentialsRequest{
		Username: username,
		Password: password,
	}
	return c.do(ctx, http.MethodPost, "/api/v1/credentials/check", req, nil)
}

// Ensure HTTPIdentityClient implements IdentityClient
var _ IdentityClient = (*HTTPIdentityClient)(nil)
