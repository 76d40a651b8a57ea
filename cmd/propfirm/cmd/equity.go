package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/propfirm/journal"
	"github.com/rustyeddy/propfirm/risk"
)

var equityCmd = &cobra.Command{
	Use:   "equity",
	Short: "Record and export equity readings",
	Long: `Record equity readings for a challenge in the local journal. The first
reading of a new trading day resets the daily starting equity.

Examples:
  propfirm equity record 01JV... 101250.40
  propfirm equity export 01JV... --from 2025-05-01 --to 2025-06-01`,
}

var equityRecordCmd = &cobra.Command{
	Use:   "record <challenge-id> <equity>",
	Short: "Record an equity reading and print the new evaluation",
	Args:  cobra.ExactArgs(2),
	RunE:  runEquityRecord,
}

var equityExportCmd = &cobra.Command{
	Use:   "export <challenge-id>",
	Short: "Export equity readings as CSV",
	Args:  cobra.ExactArgs(1),
	RunE:  runEquityExport,
}

var (
	equityAt   string
	exportFrom string
	exportTo   string
)

func init() {
	rootCmd.AddCommand(equityCmd)
	equityCmd.AddCommand(equityRecordCmd)
	equityCmd.AddCommand(equityExportCmd)

	equityRecordCmd.Flags().StringVar(&equityAt, "at", "", "reading time, RFC3339 (default now)")
	equityExportCmd.Flags().StringVar(&exportFrom, "from", "", "first day, YYYY-MM-DD (required)")
	equityExportCmd.Flags().StringVar(&exportTo, "to", "", "day after the last, YYYY-MM-DD (required)")
	equityExportCmd.MarkFlagRequired("from")
	equityExportCmd.MarkFlagRequired("to")
}

func runEquityRecord(cmd *cobra.Command, args []string) error {
	equity, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("equity: %w", err)
	}
	at := time.Now()
	if equityAt != "" {
		if at, err = time.Parse(time.RFC3339, equityAt); err != nil {
			return fmt.Errorf("at: %w", err)
		}
	}

	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	c, err := j.RecordEquity(cmd.Context(), args[0], equity, at)
	if err != nil {
		return fmt.Errorf("record equity: %w", err)
	}

	res, err := risk.Evaluate(c.Account, c.Plan)
	if err != nil {
		return err
	}
	b, err := risk.Budgets(c.Account, c.Plan)
	if err != nil {
		return err
	}
	printEvaluation(cmd.OutOrStdout(), res, b)
	return nil
}

func runEquityExport(cmd *cobra.Command, args []string) error {
	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	start, err := time.ParseInLocation("2006-01-02", exportFrom, loc)
	if err != nil {
		return fmt.Errorf("from: %w", err)
	}
	end, err := time.ParseInLocation("2006-01-02", exportTo, loc)
	if err != nil {
		return fmt.Errorf("to: %w", err)
	}

	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	snaps, err := j.ListEquityBetween(cmd.Context(), args[0], start, end)
	if err != nil {
		return fmt.Errorf("query equity: %w", err)
	}
	return journal.WriteEquityCSV(cmd.OutOrStdout(), snaps)
}
