package cmd

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/propfirm/challenge"
	"github.com/rustyeddy/propfirm/risk"
)

// resetFlags puts every flag back to its default so runs do not leak
// values into each other.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	resetFlags(rootCmd)
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

// Commands share package-level state, so these tests do not run in parallel.
func TestChallengeLifecycle(t *testing.T) {
	db := filepath.Join(t.TempDir(), "cli.db")

	out, err := run(t, "--db", db, "challenge", "create", "--user", "trader-7", "--balance", "100000")
	require.NoError(t, err)
	require.Contains(t, out, "✓ Created challenge")
	id := strings.Fields(out)[3]
	require.Len(t, id, 26)

	now := time.Now().UTC().Format(time.RFC3339)
	out, err = run(t, "--db", db, "equity", "record", id, "94000", "--at", now)
	require.NoError(t, err)
	assert.Contains(t, out, "Verdict:        FAILED_DAILY")

	out, err = run(t, "--db", db, "challenge", "reconcile", id)
	require.NoError(t, err)
	assert.Equal(t, id+"  FAILED_DAILY -> FAILED\n", out)

	out, err = run(t, "--db", db, "challenge", "status", id, "passed", "--note", "spread spike refunded", "--actor", "ops")
	require.NoError(t, err)
	assert.Equal(t, "✓ "+id+" is now PASSED\n", out)

	out, err = run(t, "--db", db, "challenge", "history", id, "--csv")
	require.NoError(t, err)
	recs, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, []string{"ACTIVE", "FAILED", "system"}, []string{recs[1][2], recs[1][3], recs[1][5]})
	assert.Equal(t, []string{"FAILED", "PASSED", "spread spike refunded", "ops"}, recs[2][2:6])

	out, err = run(t, "--db", db, "challenge", "show", id, "--org")
	require.NoError(t, err)
	assert.Contains(t, out, "(trader-7) [PASSED]")
	assert.Contains(t, out, ":VERDICT: FAILED_DAILY")
	assert.Contains(t, out, "FAILED -> PASSED by ops: spread spike refunded")

	out, err = run(t, "--db", db, "challenge", "show", id)
	require.NoError(t, err)
	assert.Contains(t, out, "  Created: ")
	assert.Contains(t, out, "  Note: spread spike refunded")

	out, err = run(t, "--db", db, "challenge", "list", "--status", "passed")
	require.NoError(t, err)
	assert.Contains(t, out, id)

	_, err = run(t, "--db", db, "challenge", "status", id, "ARCHIVED")
	assert.Error(t, err)
}

func TestEvaluateCommand(t *testing.T) {
	out, err := run(t, "evaluate", "--initial", "100000", "--equity", "110000", "--daily-start", "108000")
	require.NoError(t, err)
	assert.Contains(t, out, "Verdict:        PASSED")
	assert.Contains(t, out, "100.0% done")

	_, err = run(t, "evaluate", "--initial", "100000", "--equity", "94000", "--daily-start", "0")
	assert.ErrorIs(t, err, risk.ErrInvalidAccount)

	out, err = run(t, "evaluate", "--initial", "100000", "--equity", "89000", "--daily-start", "89500",
		"--target", "8", "--json")
	require.NoError(t, err)

	var got struct {
		risk.Result
		Budget risk.Budget `json:"budget"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, risk.FailedTotal, got.Verdict)
	assert.InDelta(t, -11.0, got.TotalDrawdownPercent, 1e-9)
	assert.InDelta(t, 8000.0, got.Budget.ProfitTarget, 1e-9)
}

func TestSimulateCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: target day
initial_balance: 100000
start: 2025-07-01T13:30:00Z
steps:
  - equity: 104000
    after: 1h
  - equity: 110500
    after: 24h
`), 0644))

	out, err := run(t, "simulate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Scenario: target day")
	assert.Contains(t, out, "CONTINUE")
	assert.Contains(t, out, "PASSED")
}

func TestEvaluateFromAPI(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/accounts/acc-17":
			io.WriteString(w, `{"initialBalance":"100000","equity":94500,"dailyStartingEquity":99000,"status":"active"}`)
		case "/plans/p1":
			io.WriteString(w, `{"profitTargetPercent":8,"dailyLossLimitPercent":4,"maxDrawdownPercent":8}`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	_, err := run(t, "evaluate", "--account", "acc-17")
	assert.ErrorContains(t, err, "need the api store")

	t.Setenv("PROPFIRM_STORE", "api")
	t.Setenv("PROPFIRM_API_URL", server.URL)

	out, err := run(t, "evaluate", "--account", "acc-17", "--plan", "p1")
	require.NoError(t, err)
	assert.Contains(t, out, "Verdict:        FAILED_DAILY")

	out, err = run(t, "evaluate", "--account", "acc-17", "--plan", "p1", "--daily-loss", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "Verdict:        FAILED_DAILY", "API plan wins over flags")

	out, err = run(t, "evaluate", "--account", "acc-17")
	require.NoError(t, err)
	assert.Contains(t, out, "Verdict:        CONTINUE")

	_, err = run(t, "evaluate", "--account", "gone")
	assert.ErrorIs(t, err, challenge.ErrNotFound)

	_, err = run(t, "evaluate", "--account", "acc-17", "--initial", "1", "--equity", "1", "--daily-start", "1")
	assert.Error(t, err)
}
