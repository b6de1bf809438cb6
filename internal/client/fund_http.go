package client

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// HTTPFundClient implements FundClient against the fund-transfer
// service's REST surface.
type HTTPFundClient struct {
	httpClient
}

// NewHTTPFundClient creates a fund-transfer adapter for the given base URL.
func NewHTTPFundClient(baseURL string, timeout time.Duration) *HTTPFundClient {
	return &HTTPFundClient{newHTTPClient(baseURL, timeout)}
}

type balanceResponse struct {
	UserID  int64 `json:"user_id"`
	Balance int64 `json:"balance"`
}

type adjustBalanceRequest struct {
	Amount int64 `json:"amount"`
}

// GetBalance returns the user's balance in currency minor units.
func (c *HTTPFundClient) GetBalance(ctx context.Context, userID int64) (int64, error) {
	var resp balanceResponse
	path := fmt.Sprintf("/api/v1/pay/%d", userID)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return 0, err
	}
	return resp.Balance, nil
}

// AdjustBalance applies a signed delta and returns the new balance.
func (c *HTTPFundClient) AdjustBalance(ctx context.Context, userID int64, delta int64) (int64, error) {
	var resp balanceResponse
	path := fmt.Sprintf("/api/v1/pay/%d/adjust", userID)
	if err := c.do(ctx, http.MethodPost, path, adjustBalanceRequest{Amount: delta}, &resp); err != nil {
		return 0, err
	}
	return resp.Balance, nil
}

// Ensure HTTPFundClient implements FundClient
var _ FundClient = (*HTTPFundClient)(nil)
