package app

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"interaction_log_bot/internal/domain/event"
)

func newTestReports(repo event.Repository) *ReportService {
	return NewReportService(NewCaseService(repo), fakeRenderer{}, testLogger())
}

func TestDailySnapshotRejectsMalformedDate(t *testing.T) {
	s := newTestReports(newFakeEventRepo())

	for _, bad := range []string{"", "today", "15/01/2025", "2025-1-5"} {
		if _, err := s.DailySnapshot(context.Background(), bad); !errors.Is(err, ErrInvalidPeriod) {
			t.Errorf("DailySnapshot(%q) err = %v, want ErrInvalidPeriod", bad, err)
		}
	}
}

func TestDailySnapshotRenders(t *testing.T) {
	repo := newFakeEventRepo()
	s := newTestReports(repo)

	png, err := s.DailySnapshot(context.Background(), "2025-01-15")
	if err != nil {
		t.Fatalf("DailySnapshot failed: %v", err)
	}
	if len(png) == 0 {
		t.Error("empty artifact")
	}
}

func TestMonthlySpreadsheetRejectsMalformedPeriod(t *testing.T) {
	s := newTestReports(newFakeEventRepo())

	for _, bad := range []string{"", "2025", "01-2025", "2025-00"} {
		if _, err := s.MonthlySpreadsheet(context.Background(), bad); !errors.Is(err, ErrInvalidPeriod) {
			t.Errorf("MonthlySpreadsheet(%q) err = %v, want ErrInvalidPeriod", bad, err)
		}
	}
}

func TestRangeSummaryBreakdowns(t *testing.T) {
	repo := newFakeEventRepo()
	ctx := context.Background()

	seed := []*event.InteractionEvent{
		{Date: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), Phone: event.NullStr("111"), StatusText: event.NullStr("interested")},
		{Date: time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC), Phone: event.NullStr("222"), StatusText: event.NullStr("interested")},
		{Date: time.Date(2025, 1, 4, 0, 0, 0, 0, time.UTC), Phone: event.NullStr("333"), ReasonCode: event.NullStr("C")},
	}
	for _, ev := range seed {
		if err := repo.Create(ctx, ev); err != nil {
			t.Fatal(err)
		}
	}

	s := newTestReports(repo)
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 1, 31, 23, 59, 59, 0, time.UTC)

	got, err := s.RangeSummary(ctx, from, to)
	if err != nil {
		t.Fatalf("RangeSummary failed: %v", err)
	}

	if !strings.Contains(got, "Customers: 3, interactions: 3") {
		t.Errorf("totals missing: %q", got)
	}
	if !strings.Contains(got, "interested: 2") {
		t.Errorf("status breakdown missing: %q", got)
	}
	if !strings.Contains(got, "C - No answer: 1") {
		t.Errorf("reason breakdown missing: %q", got)
	}
}

func TestRangeSummaryEmpty(t *testing.T) {
	s := newTestReports(newFakeEventRepo())

	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	got, err := s.RangeSummary(context.Background(), from, to)
	if err != nil {
		t.Fatalf("RangeSummary failed: %v", err)
	}
	if !strings.Contains(got, "No interactions recorded") {
		t.Errorf("reply = %q", got)
	}
}
