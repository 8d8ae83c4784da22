// internal/app/report_service.go
package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"interaction_log_bot/internal/domain/event"
	"interaction_log_bot/internal/domain/reason"
)

// ErrInvalidPeriod is returned for malformed report parameters so callers
// can produce a structured error payload.
var ErrInvalidPeriod = fmt.Errorf("invalid report period")

// Renderer produces the visual artifacts of the report endpoints.
type Renderer interface {
	DailySnapshot(date time.Time, cases []*CustomerCase) ([]byte, error)
	MonthlySpreadsheet(year int, month time.Month, cases []*CustomerCase) ([]byte, error)
}

// ReportService composes case aggregation with report rendering. Each
// render is synchronous per request; there is no internal queue.
type ReportService struct {
	cases    *CaseService
	renderer Renderer
	logger   *logrus.Entry
}

func NewReportService(cases *CaseService, renderer Renderer, logger *logrus.Entry) *ReportService {
	return &ReportService{cases: cases, renderer: renderer, logger: logger}
}

// DailySnapshot renders a PNG table of the cases touched on one date,
// given as YYYY-MM-DD.
func (s *ReportService) DailySnapshot(ctx context.Context, dateStr string) ([]byte, error) {
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return nil, fmt.Errorf("%w: %q is not a YYYY-MM-DD date", ErrInvalidPeriod, dateStr)
	}

	cases, err := s.cases.Query(ctx, event.Filter{DateFrom: date, DateTo: date})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{"date": dateStr, "cases": len(cases)}).Info("Rendering daily snapshot")
	return s.renderer.DailySnapshot(date, cases)
}

// MonthlySpreadsheet renders a spreadsheet of one calendar month's cases,
// given as YYYY-MM.
func (s *ReportService) MonthlySpreadsheet(ctx context.Context, period string) ([]byte, error) {
	month, err := time.Parse("2006-01", period)
	if err != nil {
		return nil, fmt.Errorf("%w: %q is not a YYYY-MM month", ErrInvalidPeriod, period)
	}

	from := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, -1)

	cases, err := s.cases.Query(ctx, event.Filter{DateFrom: from, DateTo: to})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{"period": period, "cases": len(cases)}).Info("Rendering monthly spreadsheet")
	return s.renderer.MonthlySpreadsheet(month.Year(), month.Month(), cases)
}

// RangeSummary builds the textual reply of the report-range query flow.
// The bounds apply to record creation time, so time-of-day tokens are
// honored.
func (s *ReportService) RangeSummary(ctx context.Context, from, to time.Time) (string, error) {
	cases, err := s.cases.Query(ctx, event.Filter{CreatedFrom: from, CreatedTo: to})
	if err != nil {
		return "", err
	}

	if len(cases) == 0 {
		return fmt.Sprintf("No interactions recorded between %s and %s.",
			from.Format("2006-01-02 15:04"), to.Format("2006-01-02 15:04")), nil
	}

	totalEvents := 0
	statusCounts := make(map[string]int)
	reasonCounts := make(map[reason.Code]int)
	for _, c := range cases {
		totalEvents += c.TotalEvents
		if c.CurrentStatus.Valid {
			statusCounts[c.CurrentStatus.String]++
		}
		if c.CurrentReason.Valid {
			reasonCounts[reason.Code(c.CurrentReason.String)]++
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Report %s — %s\n", from.Format("2006-01-02 15:04"), to.Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "Customers: %d, interactions: %d\n", len(cases), totalEvents)

	if len(statusCounts) > 0 {
		b.WriteString("\nBy current status:\n")
		for _, c := range cases {
			if !c.CurrentStatus.Valid {
				continue
			}
			status := c.CurrentStatus.String
			if count, pending := statusCounts[status]; pending {
				fmt.Fprintf(&b, "  %s: %d\n", status, count)
				delete(statusCounts, status)
			}
		}
	}

	if len(reasonCounts) > 0 {
		b.WriteString("\nBy follow-up reason:\n")
		for _, r := range reason.All() {
			if count := reasonCounts[r.Code]; count > 0 {
				fmt.Fprintf(&b, "  %s - %s: %d\n", r.Code, r.Label, count)
			}
		}
	}
	return strings.TrimRight(b.String(), "\n"), nil
}
