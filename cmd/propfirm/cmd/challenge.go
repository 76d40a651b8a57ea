package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/propfirm/challenge"
	"github.com/rustyeddy/propfirm/journal"
	"github.com/rustyeddy/propfirm/pkg/id"
	"github.com/rustyeddy/propfirm/risk"
)

var challengeCmd = &cobra.Command{
	Use:   "challenge",
	Short: "Create, inspect and manage challenges",
	Long: `Manage prop trading challenges.

Subcommands:
  create    - Start a new challenge in the local journal
  list      - List challenges, optionally by status
  show      - Evaluate a challenge and print it
  status    - Override a challenge's status with an admin note
  reconcile - Apply the rule verdict to ACTIVE challenges
  history   - Print a challenge's status history

Examples:
  propfirm challenge create --user trader-7 --balance 100000
  propfirm challenge status 01JV... FAILED --note "confirmed breach"
  propfirm challenge reconcile --all`,
}

var challengeCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Start a new challenge",
	Args:  cobra.NoArgs,
	RunE:  runChallengeCreate,
}

var challengeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List challenges",
	Args:  cobra.NoArgs,
	RunE:  runChallengeList,
}

var challengeShowCmd = &cobra.Command{
	Use:   "show <challenge-id>",
	Short: "Evaluate and print a challenge",
	Args:  cobra.ExactArgs(1),
	RunE:  runChallengeShow,
}

var challengeStatusCmd = &cobra.Command{
	Use:   "status <challenge-id> <ACTIVE|PASSED|FAILED|FUNDED|PENDING>",
	Short: "Set a challenge's status",
	Long: `Override a challenge's status. Any status may be set from any other;
the change is saved before anything is printed.`,
	Args: cobra.ExactArgs(2),
	RunE: runChallengeStatus,
}

var challengeReconcileCmd = &cobra.Command{
	Use:   "reconcile [challenge-id...]",
	Short: "Move decided ACTIVE challenges to PASSED or FAILED",
	RunE:  runChallengeReconcile,
}

var challengeHistoryCmd = &cobra.Command{
	Use:   "history <challenge-id>",
	Short: "Print status history",
	Args:  cobra.ExactArgs(1),
	RunE:  runChallengeHistory,
}

var (
	createUser    string
	createBalance float64
	createPlan    risk.Plan
	createStatus  string

	listStatus string

	showOrg bool

	statusNote  string
	statusActor string

	reconcileAll bool

	historyCSV bool
)

func init() {
	rootCmd.AddCommand(challengeCmd)
	challengeCmd.AddCommand(challengeCreateCmd)
	challengeCmd.AddCommand(challengeListCmd)
	challengeCmd.AddCommand(challengeShowCmd)
	challengeCmd.AddCommand(challengeStatusCmd)
	challengeCmd.AddCommand(challengeReconcileCmd)
	challengeCmd.AddCommand(challengeHistoryCmd)

	f := challengeCreateCmd.Flags()
	f.StringVar(&createUser, "user", "", "user id (required)")
	f.Float64Var(&createBalance, "balance", 0, "initial balance (required)")
	f.Float64Var(&createPlan.ProfitTargetPercent, "target", 0, "profit target percent")
	f.Float64Var(&createPlan.DailyLossLimitPercent, "daily-loss", 0, "daily loss limit percent")
	f.Float64Var(&createPlan.MaxDrawdownPercent, "max-dd", 0, "max drawdown percent")
	f.StringVar(&createStatus, "status", "ACTIVE", "initial status")
	challengeCreateCmd.MarkFlagRequired("user")
	challengeCreateCmd.MarkFlagRequired("balance")

	challengeListCmd.Flags().StringVar(&listStatus, "status", "", "only list challenges in this status")
	challengeShowCmd.Flags().BoolVar(&showOrg, "org", false, "print as an Org-mode entry with history")
	challengeStatusCmd.Flags().StringVarP(&statusNote, "note", "n", "", "admin note (empty clears it)")
	challengeStatusCmd.Flags().StringVar(&statusActor, "actor", "", "who is making the change")
	challengeReconcileCmd.Flags().BoolVar(&reconcileAll, "all", false, "reconcile every ACTIVE challenge in the journal")
	challengeHistoryCmd.Flags().BoolVar(&historyCSV, "csv", false, "print CSV")
}

func runChallengeCreate(cmd *cobra.Command, args []string) error {
	st, err := challenge.ParseStatus(createStatus)
	if err != nil {
		return err
	}

	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	c, err := j.CreateChallenge(cmd.Context(), challenge.Challenge{
		UserID:  createUser,
		Account: risk.Account{InitialBalance: createBalance},
		Plan:    planFlags(cmd, createPlan),
		Status:  st,
	})
	if err != nil {
		return fmt.Errorf("create challenge: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Created challenge %s for %s ($%.2f, %s)\n",
		c.ID, c.UserID, c.Account.InitialBalance, c.Status)
	return nil
}

func runChallengeList(cmd *cobra.Command, args []string) error {
	var st challenge.Status
	if listStatus != "" {
		var err error
		if st, err = challenge.ParseStatus(listStatus); err != nil {
			return err
		}
	}

	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	cs, err := j.ListChallenges(cmd.Context(), st)
	if err != nil {
		return fmt.Errorf("list challenges: %w", err)
	}

	out := cmd.OutOrStdout()
	for _, c := range cs {
		verdict := "-"
		if r, err := risk.Evaluate(c.Account, c.Plan); err == nil {
			verdict = string(r.Verdict)
		}
		fmt.Fprintf(out, "%s  %-8s  %-12s  equity $%.2f  %s\n", c.ID, c.Status, verdict, c.Account.Equity, c.UserID)
	}
	return nil
}

func runChallengeShow(cmd *cobra.Command, args []string) error {
	st, closeFn, err := openStore()
	if err != nil {
		return err
	}
	defer closeFn()

	svc := challenge.NewService(st)
	c, res, err := svc.Evaluate(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if showOrg {
		var hist []challenge.StatusChange
		if j, ok := st.(*journal.SQLite); ok {
			if hist, err = j.ListStatusChanges(cmd.Context(), c.ID); err != nil {
				return fmt.Errorf("query history: %w", err)
			}
		}
		fmt.Fprintln(out, journal.FormatChallengeOrg(c, res, hist))
		return nil
	}

	b, err := risk.Budgets(c.Account, c.Plan)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Challenge %s (%s) status %s\n", c.ID, c.UserID, c.Status)
	if t, err := id.Time(c.ID); err == nil {
		fmt.Fprintf(out, "  Created: %s\n", t.Format("2006-01-02 15:04:05 MST"))
	}
	if c.AdminNote != "" {
		fmt.Fprintf(out, "  Note: %s\n", c.AdminNote)
	}
	printEvaluation(out, res, b)
	return nil
}

func runChallengeStatus(cmd *cobra.Command, args []string) error {
	to, err := challenge.ParseStatus(args[1])
	if err != nil {
		return err
	}

	st, closeFn, err := openStore()
	if err != nil {
		return err
	}
	defer closeFn()

	ctx := cmd.Context()
	if statusActor != "" {
		ctx = challenge.WithActor(ctx, statusActor)
	}

	c, err := challenge.NewService(st).ApplyStatusTransition(ctx, args[0], to, statusNote)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ %s is now %s\n", c.ID, c.Status)
	return nil
}

func runChallengeReconcile(cmd *cobra.Command, args []string) error {
	if reconcileAll == (len(args) > 0) {
		return errors.New("give challenge ids or --all, not both")
	}

	st, closeFn, err := openStore()
	if err != nil {
		return err
	}
	defer closeFn()

	ids := args
	if reconcileAll {
		j, ok := st.(*journal.SQLite)
		if !ok {
			return errNeedsSQLite
		}
		active, err := j.ListChallenges(cmd.Context(), challenge.Active)
		if err != nil {
			return fmt.Errorf("list challenges: %w", err)
		}
		for _, c := range active {
			ids = append(ids, c.ID)
		}
	}

	svc := challenge.NewService(st)
	out := cmd.OutOrStdout()
	var errs []error
	for _, cid := range ids {
		c, res, changed, err := svc.Reconcile(cmd.Context(), cid)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if changed {
			fmt.Fprintf(out, "%s  %s -> %s\n", c.ID, res.Verdict, c.Status)
		}
	}
	return errors.Join(errs...)
}

func runChallengeHistory(cmd *cobra.Command, args []string) error {
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	hist, err := j.ListStatusChanges(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("query history: %w", err)
	}

	out := cmd.OutOrStdout()
	if historyCSV {
		return journal.WriteStatusChangesCSV(out, hist)
	}
	for _, sc := range hist {
		fmt.Fprintf(out, "%s  %-7s -> %-7s  %-10s %s\n",
			sc.At.Format("2006-01-02 15:04:05"), sc.From, sc.To, sc.Actor, sc.Note)
	}
	return nil
}
