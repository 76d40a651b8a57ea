package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/propfirm/challenge"
	"github.com/rustyeddy/propfirm/risk"
)

const challengeJSON = `{
	"id": "ch-42",
	"user_id": "u-9",
	"status": "active",
	"admin_note": "",
	"updated_at": "2025-04-01T12:00:00Z",
	"account": {
		"initialBalance": "100000.00",
		"equity": 94000,
		"dailyStartingEquity": 99000.0,
		"status": "ACTIVE"
	},
	"plan": {
		"profitTargetPercent": 10,
		"dailyLossLimitPercent": "5",
		"maxDrawdownPercent": 10
	}
}`

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(h)
	t.Cleanup(server.Close)
	return NewClient(server.URL+"/", "test-token", 5*time.Second)
}

func TestNewClient(t *testing.T) {
	c := NewClient("https://api.example.com/v1/", "tok", 0)
	assert.Equal(t, "https://api.example.com/v1", c.baseURL)
	assert.Equal(t, "tok", c.token)
	assert.Equal(t, DefaultTimeout, c.httpClient.Timeout)
}

func TestGetChallenge_LooseNumbers(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/challenges/ch-42", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, challengeJSON)
	})

	c, err := client.GetChallenge(context.Background(), "ch-42")
	require.NoError(t, err)

	assert.Equal(t, "ch-42", c.ID)
	assert.Equal(t, "u-9", c.UserID)
	assert.Equal(t, challenge.Active, c.Status)
	assert.Equal(t, risk.Account{InitialBalance: 100000, Equity: 94000, DailyStartingEquity: 99000}, c.Account)
	assert.Equal(t, risk.DefaultPlan(), c.Plan)
	assert.True(t, time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC).Equal(c.UpdatedAt))

	res, err := risk.Evaluate(c.Account, c.Plan)
	require.NoError(t, err)
	assert.Equal(t, risk.FailedDaily, res.Verdict)
}

// GetChallenge hands back what the API holds; the rules decide later.
func TestGetChallenge_UnevaluableAccount(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"status":"FAILED","account":{"initialBalance":1000,"equity":900,"dailyStartingEquity":0},"plan":{"profitTargetPercent":10,"dailyLossLimitPercent":5,"maxDrawdownPercent":10}}`)
	})

	c, err := client.GetChallenge(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "x", c.ID)
	assert.Equal(t, challenge.Failed, c.Status)
	assert.Equal(t, risk.Account{InitialBalance: 1000, Equity: 900}, c.Account)

	svc := challenge.NewService(client, challenge.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	_, _, err = svc.Evaluate(context.Background(), "x")
	assert.ErrorIs(t, err, risk.ErrInvalidAccount)
}

func TestGetChallenge_UnknownStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"status":"ARCHIVED","account":{"initialBalance":1000,"equity":900,"dailyStartingEquity":900},"plan":{"profitTargetPercent":10,"dailyLossLimitPercent":5,"maxDrawdownPercent":10}}`)
	})

	c, err := client.GetChallenge(context.Background(), "x")
	assert.ErrorIs(t, err, challenge.ErrUnknownStatus)
	assert.Equal(t, challenge.Challenge{}, c)
}

func TestGetAccount_InvalidShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want error
	}{
		{
			name: "zero daily start",
			body: `{"initialBalance":1000,"equity":900,"dailyStartingEquity":0,"status":"ACTIVE"}`,
			want: risk.ErrInvalidAccount,
		},
		{
			name: "missing initial balance",
			body: `{"equity":900,"dailyStartingEquity":900,"status":"ACTIVE"}`,
			want: risk.ErrInvalidAccount,
		},
		{
			name: "missing equity",
			body: `{"initialBalance":1000,"dailyStartingEquity":900}`,
			want: risk.ErrInvalidAccount,
		},
		{
			name: "unknown status",
			body: `{"initialBalance":1000,"equity":900,"dailyStartingEquity":900,"status":"archived"}`,
			want: challenge.ErrUnknownStatus,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, tt.body)
			})

			acct, status, err := client.GetAccount(context.Background(), "a1")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, risk.Account{}, acct)
			assert.Empty(t, status)
		})
	}
}

func TestGetAccount_NoStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"initialBalance":1000,"equity":900,"dailyStartingEquity":950}`)
	})

	acct, status, err := client.GetAccount(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, risk.Account{InitialBalance: 1000, Equity: 900, DailyStartingEquity: 950}, acct)
	assert.Empty(t, status)
}

func TestGetPlan_NullField(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"profitTargetPercent":null,"dailyLossLimitPercent":5,"maxDrawdownPercent":10}`)
	})

	_, err := client.GetPlan(context.Background(), "p1")
	assert.ErrorIs(t, err, risk.ErrInvalidPlan)
}

func TestGetAccount_CurrentBalanceFallback(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/accounts/a1", r.URL.Path)
		io.WriteString(w, `{"initialBalance":50000,"currentBalance":"51234.5","dailyStartingEquity":51000,"status":"funded"}`)
	})

	acct, status, err := client.GetAccount(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, 51234.5, acct.Equity)
	assert.Equal(t, challenge.Funded, status)
}

func TestGetPlan(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/plans/p1", r.URL.Path)
		io.WriteString(w, `{"profitTargetPercent":8,"dailyLossLimitPercent":4,"maxDrawdownPercent":"8.5"}`)
	})

	p, err := client.GetPlan(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, risk.Plan{ProfitTargetPercent: 8, DailyLossLimitPercent: 4, MaxDrawdownPercent: 8.5}, p)
}

func TestUpdateStatus(t *testing.T) {
	var got statusUpdate
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/challenges/ch-42", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	})

	err := client.UpdateStatus(context.Background(), "ch-42", challenge.Passed, "manual pass")
	require.NoError(t, err)
	assert.Equal(t, statusUpdate{Status: "PASSED", AdminNote: "manual pass"}, got)
}

func TestErrors(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":"no such challenge"}`, http.StatusNotFound)
		})

		_, err := client.GetChallenge(context.Background(), "gone")
		assert.ErrorIs(t, err, challenge.ErrNotFound)

		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
		assert.Contains(t, apiErr.Body, "no such challenge")
	})

	t.Run("server error", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			io.WriteString(w, "boom")
		})

		err := client.UpdateStatus(context.Background(), "c", challenge.Failed, "")
		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, "API error (status 500): boom", err.Error())
	})

	t.Run("bad json", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, `{"account":`)
		})

		_, err := client.GetChallenge(context.Background(), "c")
		assert.ErrorContains(t, err, "decode response")
	})
}

// The service only updates its view after the API confirms.
func TestServiceOverAPI(t *testing.T) {
	var patched bool
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			io.WriteString(w, challengeJSON)
		case http.MethodPatch:
			patched = true
			w.WriteHeader(http.StatusConflict)
			io.WriteString(w, "locked")
		}
	})

	svc := challenge.NewService(client, challenge.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	c, err := svc.ApplyStatusTransition(context.Background(), "ch-42", challenge.Passed, "")
	require.Error(t, err)
	assert.True(t, patched)
	assert.Equal(t, challenge.Challenge{}, c)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
}

// A challenge whose numbers the rules reject can still be overridden.
func TestServiceOverAPI_OverrideUnevaluable(t *testing.T) {
	var got statusUpdate
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			io.WriteString(w, `{"id":"x","status":"FAILED","account":{"initialBalance":100000,"equity":97000,"dailyStartingEquity":0},"plan":{"profitTargetPercent":10,"dailyLossLimitPercent":5,"maxDrawdownPercent":10}}`)
		case http.MethodPatch:
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			w.WriteHeader(http.StatusNoContent)
		}
	})

	svc := challenge.NewService(client, challenge.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	c, err := svc.ApplyStatusTransition(context.Background(), "x", challenge.Pending, "fix data")
	require.NoError(t, err)
	assert.Equal(t, statusUpdate{Status: "PENDING", AdminNote: "fix data"}, got)
	assert.Equal(t, challenge.Pending, c.Status)
	assert.Equal(t, "fix data", c.AdminNote)
}
