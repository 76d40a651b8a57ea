package journal

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/rustyeddy/propfirm/challenge"
)

// WriteStatusChangesCSV writes a status history with a header row.
func WriteStatusChangesCSV(w io.Writer, changes []challenge.StatusChange) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", "challenge_id", "from", "to", "note", "actor", "at"}); err != nil {
		return err
	}
	for _, sc := range changes {
		err := cw.Write([]string{
			sc.ID,
			sc.ChallengeID,
			string(sc.From),
			string(sc.To),
			sc.Note,
			sc.Actor,
			sc.At.UTC().Format(time.RFC3339),
		})
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteEquityCSV writes equity snapshots with a header row.
func WriteEquityCSV(w io.Writer, snaps []EquitySnapshot) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"challenge_id", "time", "equity", "daily_starting_equity"}); err != nil {
		return err
	}
	for _, e := range snaps {
		err := cw.Write([]string{
			e.ChallengeID,
			e.Time.UTC().Format(time.RFC3339),
			f(e.Equity),
			f(e.DailyStartingEquity),
		})
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 2, 64)
}
