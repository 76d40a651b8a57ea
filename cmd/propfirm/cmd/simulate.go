package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/propfirm/risk"
	"github.com/rustyeddy/propfirm/sim"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate <scenario.yaml>",
	Short: "Play a scripted equity path through the challenge rules",
	Long: `Run each equity reading of a scenario file through the rules, applying
daily resets, and stop at the first PASSED or FAILED verdict. Nothing is
written to the journal. A scenario without a plan uses the configured plan.

Example:
  propfirm simulate scenarios/slow-bleed.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runSimulate,
}

func init() {
	rootCmd.AddCommand(simulateCmd)
}

func runSimulate(cmd *cobra.Command, args []string) error {
	s, err := sim.LoadScenario(args[0])
	if err != nil {
		return err
	}
	if s.Plan == (risk.Plan{}) {
		s.Plan = cfg.Plan
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	ticks, err := sim.Run(s, loc)

	out := cmd.OutOrStdout()
	if s.Name != "" {
		fmt.Fprintf(out, "Scenario: %s\n", s.Name)
	}
	for _, tk := range ticks {
		fmt.Fprintf(out, "%3d  %s  equity $%10.2f  daily %6.2f%%  total %6.2f%%  %s\n",
			tk.Step, tk.At.Format(time.RFC3339), tk.Account.Equity,
			tk.Result.DailyDrawdownPercent, tk.Result.TotalDrawdownPercent, tk.Result.Verdict)
	}
	return err
}
