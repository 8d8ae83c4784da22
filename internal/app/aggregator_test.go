package app

import (
	"reflect"
	"testing"
	"time"

	"interaction_log_bot/internal/domain/event"
)

func mkEvent(id int64, phone, dateStr, status string, created time.Time) *event.InteractionEvent {
	date, _ := time.Parse("2006-01-02", dateStr)
	return &event.InteractionEvent{
		ID:         id,
		Date:       date,
		Phone:      event.NullStr(phone),
		StatusText: event.NullStr(status),
		CreatedAt:  created,
	}
}

func TestAggregateTwoEventScenario(t *testing.T) {
	base := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	events := []*event.InteractionEvent{
		mkEvent(1, "011", "2025-01-01", "A", base),
		mkEvent(2, "011", "2025-01-05", "B", base.Add(time.Hour)),
	}

	cases := AggregateCases(events)
	if len(cases) != 1 {
		t.Fatalf("got %d cases, want 1", len(cases))
	}
	c := cases[0]
	if got := c.FirstContactDate.Format("2006-01-02"); got != "2025-01-01" {
		t.Errorf("first_contact_date = %s, want 2025-01-01", got)
	}
	if got := c.LastUpdateDate.Format("2006-01-02"); got != "2025-01-05" {
		t.Errorf("last_update_date = %s, want 2025-01-05", got)
	}
	if !c.CurrentStatus.Valid || c.CurrentStatus.String != "B" {
		t.Errorf("current_status = %+v, want B", c.CurrentStatus)
	}
	if c.TotalEvents != 2 {
		t.Errorf("total_events = %d, want 2", c.TotalEvents)
	}
	if len(c.History) != 2 {
		t.Errorf("history has %d entries, want 2", len(c.History))
	}
}

func TestAggregateIsIdempotent(t *testing.T) {
	base := time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)
	events := []*event.InteractionEvent{
		mkEvent(1, "100", "2025-02-01", "called", base),
		mkEvent(2, "200", "2025-02-02", "no answer", base.Add(time.Minute)),
		mkEvent(3, "100", "2025-02-03", "interested", base.Add(2*time.Minute)),
	}

	first := AggregateCases(events)
	second := AggregateCases(events)
	if !reflect.DeepEqual(first, second) {
		t.Error("aggregating the same event set twice produced different output")
	}
}

func TestAggregateAddingLaterEventChangesOnlyThatCase(t *testing.T) {
	base := time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)
	events := []*event.InteractionEvent{
		mkEvent(1, "100", "2025-02-01", "called", base),
		mkEvent(2, "200", "2025-02-02", "no answer", base.Add(time.Minute)),
	}

	before := AggregateCases(events)
	after := AggregateCases(append(events, mkEvent(3, "100", "2025-02-05", "closed", base.Add(time.Hour))))

	var before200, after200 *CustomerCase
	for _, c := range before {
		if c.Phone == "200" {
			before200 = c
		}
	}
	var after100 *CustomerCase
	for _, c := range after {
		switch c.Phone {
		case "200":
			after200 = c
		case "100":
			after100 = c
		}
	}

	if !reflect.DeepEqual(before200, after200) {
		t.Error("unrelated case changed when another phone gained an event")
	}
	if after100.TotalEvents != 2 || len(after100.History) != 2 {
		t.Errorf("updated case has total=%d history=%d, want 2/2", after100.TotalEvents, len(after100.History))
	}
	if !after100.CurrentStatus.Valid || after100.CurrentStatus.String != "closed" {
		t.Errorf("current_status = %+v, want closed", after100.CurrentStatus)
	}
	if got := after100.LastUpdateDate.Format("2006-01-02"); got != "2025-02-05" {
		t.Errorf("last_update_date = %s, want 2025-02-05", got)
	}
}

func TestAggregateDiscardsPhonelessEvents(t *testing.T) {
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	events := []*event.InteractionEvent{
		mkEvent(1, "", "2025-03-01", "called", base),
		mkEvent(2, "", "2025-03-02", "messaged", base.Add(time.Minute)),
		{ID: 3, Date: time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC), Name: event.NullStr("Dana"), CreatedAt: base.Add(2 * time.Minute)},
	}
	if cases := AggregateCases(events); len(cases) != 0 {
		t.Errorf("got %d cases from phoneless events, want 0", len(cases))
	}
}

func TestAggregateSnapshotIsWholeRecord(t *testing.T) {
	// The earlier event has a richer record; the later one supplies the
	// whole snapshot, including its null fields.
	base := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	first := &event.InteractionEvent{
		ID:         1,
		Date:       time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
		Phone:      event.NullStr("300"),
		Name:       event.NullStr("Dana Cohen"),
		Page:       event.NullStr("instagram"),
		Follower:   event.NullStr("ads"),
		StatusText: event.NullStr("interested"),
		CreatedAt:  base,
	}
	second := &event.InteractionEvent{
		ID:         2,
		Date:       time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC),
		Phone:      event.NullStr("300"),
		StatusText: event.NullStr("closed"),
		CreatedAt:  base.Add(time.Hour),
	}

	cases := AggregateCases([]*event.InteractionEvent{first, second})
	if len(cases) != 1 {
		t.Fatalf("got %d cases, want 1", len(cases))
	}
	c := cases[0]
	if c.CurrentName.Valid || c.CurrentPage.Valid || c.CurrentFollower.Valid {
		t.Errorf("snapshot mixed fields across events: %+v", c)
	}
	if !c.CurrentStatus.Valid || c.CurrentStatus.String != "closed" {
		t.Errorf("current_status = %+v, want closed", c.CurrentStatus)
	}
}

func TestAggregateSameDateOrdersByCreation(t *testing.T) {
	base := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	events := []*event.InteractionEvent{
		mkEvent(2, "400", "2025-05-01", "later", base.Add(time.Hour)),
		mkEvent(1, "400", "2025-05-01", "earlier", base),
	}
	cases := AggregateCases(events)
	if got := cases[0].CurrentStatus.String; got != "later" {
		t.Errorf("current_status = %q, want %q", got, "later")
	}
}

func TestAggregateSortsCasesByLastUpdateDescending(t *testing.T) {
	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	events := []*event.InteractionEvent{
		mkEvent(1, "old", "2025-06-01", "a", base),
		mkEvent(2, "new", "2025-06-10", "b", base.Add(time.Minute)),
		mkEvent(3, "mid", "2025-06-05", "c", base.Add(2*time.Minute)),
	}
	cases := AggregateCases(events)
	var got []string
	for _, c := range cases {
		got = append(got, c.Phone)
	}
	want := []string{"new", "mid", "old"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("case order = %v, want %v", got, want)
	}
}
