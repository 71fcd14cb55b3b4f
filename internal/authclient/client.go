// Package authclient talks to the authentication backend that issues the
// bearer tokens used by signed-in users. This service never issues or
// refreshes tokens, it only asks "who does this token belong to".
package authclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// DefaultTimeout bounds the validation round-trip.
const DefaultTimeout = 5 * time.Second

// Account is the identity behind a valid bearer token. Email is needed
// downstream because the billing provider keys customers by email.
type Account struct {
	ID    string `json:"accountId"`
	Email string `json:"email"`
}

// Verifier validates bearer tokens.
type Verifier interface {
	// VerifyToken returns the account a token belongs to, or an error
	// when the token is invalid, expired, or the backend is unreachable.
	VerifyToken(ctx context.Context, token string) (*Account, error)
}

// Client is an HTTP Verifier against the auth backend's validate endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

var _ Verifier = (*Client)(nil)

// New creates an auth backend client. timeout falls back to DefaultTimeout
// when zero.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// VerifyToken calls GET {baseURL}/v1/token with the bearer token and
// decodes the account it resolves to.
func (c *Client) VerifyToken(ctx context.Context, token string) (*Account, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/token", nil)
	if err != nil {
		return nil, fmt.Errorf("auth request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth backend: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to decode
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("auth backend rejected token (status %d)", resp.StatusCode)
	default:
		return nil, fmt.Errorf("auth backend returned status %d", resp.StatusCode)
	}

	var account Account
	if err := json.NewDecoder(resp.Body).Decode(&account); err != nil {
		return nil, fmt.Errorf("auth response decode: %w", err)
	}
	if account.ID == "" {
		return nil, fmt.Errorf("auth response missing account id")
	}
	return &account, nil
}
