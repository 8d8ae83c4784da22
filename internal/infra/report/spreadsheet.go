// internal/infra/report/spreadsheet.go
package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"time"

	"interaction_log_bot/internal/app"
)

var spreadsheetHeader = []string{
	"phone", "name", "page", "follower", "current_status", "current_reason",
	"first_contact", "last_update", "total_events", "last_note",
}

// MonthlySpreadsheet renders one month's cases as CSV bytes, one row per
// customer case.
func (r *Renderer) MonthlySpreadsheet(year int, month time.Month, cases []*app.CustomerCase) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(spreadsheetHeader); err != nil {
		return nil, fmt.Errorf("failed to write spreadsheet header: %w", err)
	}

	for _, c := range cases {
		lastNote := ""
		if n := len(c.History); n > 0 && c.History[n-1].Note.Valid {
			lastNote = c.History[n-1].Note.String
		}

		row := []string{
			c.Phone,
			emptyOr(c.CurrentName.String, c.CurrentName.Valid),
			emptyOr(c.CurrentPage.String, c.CurrentPage.Valid),
			emptyOr(c.CurrentFollower.String, c.CurrentFollower.Valid),
			emptyOr(c.CurrentStatus.String, c.CurrentStatus.Valid),
			emptyOr(c.CurrentReason.String, c.CurrentReason.Valid),
			c.FirstContactDate.Format("2006-01-02"),
			c.LastUpdateDate.Format("2006-01-02"),
			fmt.Sprintf("%d", c.TotalEvents),
			lastNote,
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write spreadsheet row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush spreadsheet: %w", err)
	}
	return buf.Bytes(), nil
}

func emptyOr(s string, valid bool) string {
	if valid {
		return s
	}
	return ""
}
