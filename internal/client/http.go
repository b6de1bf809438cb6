package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"hdgstudio-market-api/pkg/apierror"
)

// upstreamError is the error envelope the collaborators respond with on
// non-2xx statuses.
type upstreamError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	// Some collaborators use a flat shape instead.
	Code    string `json:"code"`
	Message string `json:"message"`
}

// httpClient is the shared request plumbing for both collaborator
// adapters.
type httpClient struct {
	baseURL string
	client  *http.Client
}

func newHTTPClient(baseURL string, timeout time.Duration) httpClient {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return httpClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// do issues a JSON request and decodes a successful response into out.
// Transport failures and non-2xx statuses are both classified
// UPSTREAM_UNAVAILABLE; the collaborator's own code and message ride
// along verbatim.
func (c httpClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return apierror.Upstream("TRANSPORT_ERROR", err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.normalizeFailure(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apierror.Upstream("BAD_RESPONSE", fmt.Sprintf("failed to decode response: %v", err))
	}
	return nil
}

// normalizeFailure turns a non-2xx collaborator response into the fixed
// taxonomy without losing the native code/message.
func (c httpClient) normalizeFailure(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var ue upstreamError
	code := fmt.Sprintf("HTTP_%d", resp.StatusCode)
	message := string(data)

	if err := json.Unmarshal(data, &ue); err == nil {
		switch {
		case ue.Error.Code != "" || ue.Error.Message != "":
			code, message = ue.Error.Code, ue.Error.Message
		case ue.Code != "" || ue.Message != "":
			code, message = ue.Code, ue.Message
		}
	}

	return apierror.Upstream(code, message)
}
