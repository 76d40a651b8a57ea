package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/propfirm/api"
	"github.com/rustyeddy/propfirm/risk"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate an account snapshot against a plan",
	Long: `Compute profit, progress toward target, daily and total drawdown and the
resulting verdict for a single account snapshot. Plan flags default to the
plan in the config.

With --account (and optionally --plan) the snapshot and plan are fetched
from the platform API instead; this needs store.type api.

Examples:
  propfirm evaluate --initial 100000 --equity 94000 --daily-start 99000
  propfirm evaluate --account acc-17 --plan two-step-100k`,
	Args: cobra.NoArgs,
	RunE: runEvaluate,
}

var (
	evalAccount risk.Account
	evalPlan    risk.Plan
	evalJSON    bool

	evalAccountID string
	evalPlanID    string
)

func init() {
	rootCmd.AddCommand(evaluateCmd)

	f := evaluateCmd.Flags()
	f.Float64Var(&evalAccount.InitialBalance, "initial", 0, "initial balance (with --equity and --daily-start, or use --account)")
	f.Float64Var(&evalAccount.Equity, "equity", 0, "current equity (required)")
	f.Float64Var(&evalAccount.DailyStartingEquity, "daily-start", 0, "equity at the start of the trading day (required)")
	f.Float64Var(&evalPlan.ProfitTargetPercent, "target", 0, "profit target percent")
	f.Float64Var(&evalPlan.DailyLossLimitPercent, "daily-loss", 0, "daily loss limit percent")
	f.Float64Var(&evalPlan.MaxDrawdownPercent, "max-dd", 0, "max drawdown percent")
	f.BoolVar(&evalJSON, "json", false, "print JSON")
	f.StringVar(&evalAccountID, "account", "", "fetch the account snapshot from the API")
	f.StringVar(&evalPlanID, "plan", "", "fetch the plan from the API")
	evaluateCmd.MarkFlagsRequiredTogether("initial", "equity", "daily-start")
	evaluateCmd.MarkFlagsOneRequired("initial", "account")
	evaluateCmd.MarkFlagsMutuallyExclusive("initial", "account")
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	acct := evalAccount
	plan := planFlags(cmd, evalPlan)

	if evalAccountID != "" || evalPlanID != "" {
		if cfg.Store.Type != "api" {
			return errors.New("--account and --plan need the api store (set store.type)")
		}
		timeout, err := cfg.API.TimeoutDuration()
		if err != nil {
			return err
		}
		client := api.NewClient(cfg.API.BaseURL, cfg.API.Token, timeout)

		if evalAccountID != "" {
			if acct, _, err = client.GetAccount(cmd.Context(), evalAccountID); err != nil {
				return fmt.Errorf("get account %s: %w", evalAccountID, err)
			}
		}
		if evalPlanID != "" {
			if plan, err = client.GetPlan(cmd.Context(), evalPlanID); err != nil {
				return fmt.Errorf("get plan %s: %w", evalPlanID, err)
			}
		}
	}

	res, err := risk.Evaluate(acct, plan)
	if err != nil {
		return err
	}
	b, err := risk.Budgets(acct, plan)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if evalJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			risk.Result
			Budget risk.Budget `json:"budget"`
		}{res, b})
	}
	printEvaluation(out, res, b)
	return nil
}

// planFlags fills any plan field whose flag was not given from the config.
func planFlags(cmd *cobra.Command, p risk.Plan) risk.Plan {
	f := cmd.Flags()
	if !f.Changed("target") {
		p.ProfitTargetPercent = cfg.Plan.ProfitTargetPercent
	}
	if !f.Changed("daily-loss") {
		p.DailyLossLimitPercent = cfg.Plan.DailyLossLimitPercent
	}
	if !f.Changed("max-dd") {
		p.MaxDrawdownPercent = cfg.Plan.MaxDrawdownPercent
	}
	return p
}

func printEvaluation(w io.Writer, r risk.Result, b risk.Budget) {
	fmt.Fprintf(w, "Verdict:        %s\n", r.Verdict)
	fmt.Fprintf(w, "  Profit:       $%.2f (target $%.2f, %.1f%% done)\n", r.ProfitAmount, b.ProfitTarget, r.ProfitProgressPercent)
	fmt.Fprintf(w, "  Daily DD:     %.2f%% (floor $%.2f, room $%.2f)\n", r.DailyDrawdownPercent, b.DailyLossFloor, b.DailyLossRemaining)
	fmt.Fprintf(w, "  Total DD:     %.2f%% (floor $%.2f, room $%.2f)\n", r.TotalDrawdownPercent, b.TotalLossFloor, b.TotalLossRemaining)
	fmt.Fprintf(w, "  Max loss now: $%.2f\n", b.MaxLoss())
}
