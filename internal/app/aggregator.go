// internal/app/aggregator.go
package app

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"interaction_log_bot/internal/domain/event"
	"interaction_log_bot/internal/domain/reason"
)

// HistoryEntry is one line of a customer's ordered history.
type HistoryEntry struct {
	Date      time.Time
	Summary   string // status text, or "CODE - label" when only a reason exists
	Note      sql.NullString
	CreatedAt time.Time
}

// CustomerCase is a derived, point-in-time view of one customer's
// cumulative history. It is recomputed fresh on every query and never
// persisted or cached.
type CustomerCase struct {
	Phone            string
	FirstContactDate time.Time
	LastUpdateDate   time.Time

	// The "current" snapshot is taken as a whole from the chronologically
	// last event in the group, never mixed field-by-field across events.
	CurrentName     sql.NullString
	CurrentPage     sql.NullString
	CurrentFollower sql.NullString
	CurrentStatus   sql.NullString
	CurrentReason   sql.NullString

	History     []HistoryEntry
	TotalEvents int

	lastCreatedAt time.Time
}

// AggregateCases collapses an event slice into per-customer cases.
// Events without a phone stay in the raw log but cannot be aggregated and
// are discarded here. The result is sorted by last update date descending.
func AggregateCases(events []*event.InteractionEvent) []*CustomerCase {
	groups := make(map[string][]*event.InteractionEvent)
	var order []string
	for _, ev := range events {
		if !ev.Phone.Valid {
			continue
		}
		phone := ev.Phone.String
		if _, seen := groups[phone]; !seen {
			order = append(order, phone)
		}
		groups[phone] = append(groups[phone], ev)
	}

	cases := make([]*CustomerCase, 0, len(order))
	for _, phone := range order {
		group := groups[phone]
		// Stable sort keeps arrival order for events tied on both keys.
		sort.SliceStable(group, func(i, j int) bool {
			return event.ChronologicalLess(group[i], group[j])
		})

		first := group[0]
		last := group[len(group)-1]

		c := &CustomerCase{
			Phone:            phone,
			FirstContactDate: first.Date,
			LastUpdateDate:   last.Date,
			CurrentName:      last.Name,
			CurrentPage:      last.Page,
			CurrentFollower:  last.Follower,
			CurrentStatus:    last.StatusText,
			CurrentReason:    last.ReasonCode,
			TotalEvents:      len(group),
			lastCreatedAt:    last.CreatedAt,
		}
		for _, ev := range group {
			c.History = append(c.History, HistoryEntry{
				Date:      ev.Date,
				Summary:   eventSummary(ev),
				Note:      ev.Note,
				CreatedAt: ev.CreatedAt,
			})
		}
		cases = append(cases, c)
	}

	sort.SliceStable(cases, func(i, j int) bool {
		a, b := cases[i], cases[j]
		if !a.LastUpdateDate.Equal(b.LastUpdateDate) {
			return a.LastUpdateDate.After(b.LastUpdateDate)
		}
		if !a.lastCreatedAt.Equal(b.lastCreatedAt) {
			return a.lastCreatedAt.After(b.lastCreatedAt)
		}
		return a.Phone < b.Phone
	})
	return cases
}

// eventSummary renders the status-or-reason column of a history line.
func eventSummary(ev *event.InteractionEvent) string {
	if ev.StatusText.Valid {
		return ev.StatusText.String
	}
	if ev.ReasonCode.Valid {
		code := reason.Code(ev.ReasonCode.String)
		if label, ok := reason.LabelFor(code); ok {
			return string(code) + " - " + label
		}
		return ev.ReasonCode.String
	}
	return ""
}

// CaseService reads the event log and derives case views. It is strictly
// read-only with respect to the log.
type CaseService struct {
	events event.Repository
}

func NewCaseService(events event.Repository) *CaseService {
	return &CaseService{events: events}
}

// Query aggregates all events matching the filter.
func (s *CaseService) Query(ctx context.Context, f event.Filter) ([]*CustomerCase, error) {
	events, err := s.events.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list events for aggregation: %w", err)
	}
	return AggregateCases(events), nil
}

// CustomersForMonth aggregates one follower's events within a calendar month.
func (s *CaseService) CustomersForMonth(ctx context.Context, follower string, year int, month time.Month) ([]*CustomerCase, error) {
	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, -1)
	return s.Query(ctx, event.Filter{Follower: follower, DateFrom: from, DateTo: to})
}
