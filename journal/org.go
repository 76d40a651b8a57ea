package journal

import (
	"fmt"
	"strings"
	"time"

	"github.com/rustyeddy/propfirm/challenge"
	"github.com/rustyeddy/propfirm/risk"
)

// FormatChallengeOrg renders a challenge, its evaluation and its status
// history as an Org-mode entry. Structured facts go in the PROPERTIES
// drawer so they stay searchable.
func FormatChallengeOrg(c challenge.Challenge, r risk.Result, history []challenge.StatusChange) string {
	var b strings.Builder
	fmt.Fprintf(&b, "** Challenge: %s (%s) [%s]\n", shortID(c.ID), c.UserID, c.Status)
	b.WriteString(":PROPERTIES:\n")
	fmt.Fprintf(&b, ":ID: %s\n", c.ID)
	fmt.Fprintf(&b, ":USER_ID: %s\n", c.UserID)
	fmt.Fprintf(&b, ":STATUS: %s\n", c.Status)
	fmt.Fprintf(&b, ":INITIAL_BALANCE: %.2f\n", c.Account.InitialBalance)
	fmt.Fprintf(&b, ":EQUITY: %.2f\n", c.Account.Equity)
	fmt.Fprintf(&b, ":DAILY_START: %.2f\n", c.Account.DailyStartingEquity)
	fmt.Fprintf(&b, ":PLAN: target %.2f%% / daily %.2f%% / max dd %.2f%%\n",
		c.Plan.ProfitTargetPercent, c.Plan.DailyLossLimitPercent, c.Plan.MaxDrawdownPercent)
	fmt.Fprintf(&b, ":PROFIT: %.2f\n", r.ProfitAmount)
	fmt.Fprintf(&b, ":PROGRESS: %.2f%%\n", r.ProfitProgressPercent)
	fmt.Fprintf(&b, ":DAILY_DD: %.2f%%\n", r.DailyDrawdownPercent)
	fmt.Fprintf(&b, ":TOTAL_DD: %.2f%%\n", r.TotalDrawdownPercent)
	fmt.Fprintf(&b, ":VERDICT: %s\n", r.Verdict)
	if !c.UpdatedAt.IsZero() {
		fmt.Fprintf(&b, ":UPDATED: %s\n", c.UpdatedAt.UTC().Format(time.RFC3339))
	}
	b.WriteString(":END:\n")

	if c.AdminNote != "" {
		fmt.Fprintf(&b, "\n*** Admin note\n%s\n", c.AdminNote)
	}

	if len(history) > 0 {
		b.WriteString("\n*** History\n")
		for _, sc := range history {
			fmt.Fprintf(&b, "- [%s] %s -> %s by %s",
				sc.At.UTC().Format("2006-01-02 15:04"), sc.From, sc.To, sc.Actor)
			if sc.Note != "" {
				fmt.Fprintf(&b, ": %s", sc.Note)
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

func shortID(full string) string {
	if len(full) <= 8 {
		return full
	}
	return full[:8]
}
