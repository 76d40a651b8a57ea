// Package api talks to the remote platform API that owns challenge,
// account and plan records.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rustyeddy/propfirm/challenge"
	"github.com/rustyeddy/propfirm/risk"
)

const DefaultTimeout = 30 * time.Second

// Client is a challenge.Store over HTTP.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a client for baseURL. A zero timeout uses DefaultTimeout.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// APIError is a non-2xx response.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Body)
}

// GetChallenge fetches a challenge with its account and plan. The numbers
// are returned as sent; only an unknown status is an error here.
func (c *Client) GetChallenge(ctx context.Context, id string) (challenge.Challenge, error) {
	var w challengeWire
	if err := c.do(ctx, http.MethodGet, "/challenges/"+url.PathEscape(id), nil, &w); err != nil {
		return challenge.Challenge{}, err
	}
	return w.toChallenge(id)
}

// GetAccount fetches just the account snapshot. Unlike GetChallenge it
// rejects an account the rules cannot evaluate. An absent status is
// returned as "".
func (c *Client) GetAccount(ctx context.Context, id string) (risk.Account, challenge.Status, error) {
	var w accountWire
	if err := c.do(ctx, http.MethodGet, "/accounts/"+url.PathEscape(id), nil, &w); err != nil {
		return risk.Account{}, "", err
	}
	acct, err := w.toAccount()
	if err != nil {
		return risk.Account{}, "", err
	}
	if w.Status == "" {
		return acct, "", nil
	}
	st, err := challenge.ParseStatus(w.Status)
	if err != nil {
		return risk.Account{}, "", fmt.Errorf("account %s: %w", id, err)
	}
	return acct, st, nil
}

// GetPlan fetches a plan by id.
func (c *Client) GetPlan(ctx context.Context, id string) (risk.Plan, error) {
	var w planWire
	if err := c.do(ctx, http.MethodGet, "/plans/"+url.PathEscape(id), nil, &w); err != nil {
		return risk.Plan{}, err
	}
	return w.toPlan()
}

// UpdateStatus writes status and admin_note. It returns only after the API
// has confirmed the change.
func (c *Client) UpdateStatus(ctx context.Context, id string, status challenge.Status, note string) error {
	body := statusUpdate{Status: string(status), AdminNote: note}
	return c.do(ctx, http.MethodPatch, "/challenges/"+url.PathEscape(id), body, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		apiErr := &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
		if resp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("%w: %w", challenge.ErrNotFound, apiErr)
		}
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
