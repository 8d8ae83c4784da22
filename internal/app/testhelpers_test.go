package app

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"interaction_log_bot/internal/domain/event"
	idb "interaction_log_bot/internal/infra/database"
)

const testTimeout = 5 * time.Second

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l.WithField("component", "test")
}

// fakeEventRepo is an in-memory event.Repository. Create assigns ids and
// creation timestamps in arrival order.
type fakeEventRepo struct {
	events []*event.InteractionEvent
	nextID int64
	clock  time.Time

	failCreate error
	failList   error
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{
		nextID: 1,
		clock:  time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (r *fakeEventRepo) Create(_ context.Context, ev *event.InteractionEvent) error {
	if r.failCreate != nil {
		return r.failCreate
	}
	ev.ID = r.nextID
	r.nextID++
	ev.CreatedAt = r.clock
	r.clock = r.clock.Add(time.Second)
	stored := *ev
	r.events = append(r.events, &stored)
	return nil
}

func (r *fakeEventRepo) List(_ context.Context, f event.Filter) ([]*event.InteractionEvent, error) {
	if r.failList != nil {
		return nil, r.failList
	}
	var out []*event.InteractionEvent
	for _, ev := range r.events {
		if f.Follower != "" && (!ev.Follower.Valid || !strings.EqualFold(ev.Follower.String, f.Follower)) {
			continue
		}
		if !f.DateFrom.IsZero() && ev.Date.Before(f.DateFrom) {
			continue
		}
		if !f.DateTo.IsZero() && ev.Date.After(f.DateTo) {
			continue
		}
		if !f.CreatedFrom.IsZero() && ev.CreatedAt.Before(f.CreatedFrom) {
			continue
		}
		if !f.CreatedTo.IsZero() && ev.CreatedAt.After(f.CreatedTo) {
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}

func (r *fakeEventRepo) LatestByPhone(_ context.Context, phone string) (*event.InteractionEvent, error) {
	var latest *event.InteractionEvent
	for _, ev := range r.events {
		if !ev.Phone.Valid || ev.Phone.String != phone {
			continue
		}
		if latest == nil || event.ChronologicalLess(latest, ev) {
			latest = ev
		}
	}
	if latest == nil {
		return nil, idb.ErrEventNotFound
	}
	return latest, nil
}

// fakeAuditRepo records appended entries.
type fakeAuditRepo struct {
	entries []*event.AuditEntry
}

func (r *fakeAuditRepo) Append(_ context.Context, entry *event.AuditEntry) error {
	stored := *entry
	r.entries = append(r.entries, &stored)
	return nil
}

func (r *fakeAuditRepo) stages() []event.AuditStage {
	out := make([]event.AuditStage, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.Stage)
	}
	return out
}

// fakeAIClient replays scripted responses in order.
type fakeAIClient struct {
	responses []fakeAIResponse
	calls     []fakeAICall
}

type fakeAIResponse struct {
	text string
	err  error
}

type fakeAICall struct {
	model string
	user  string
}

func (c *fakeAIClient) Complete(_ context.Context, model, _, user string) (string, error) {
	c.calls = append(c.calls, fakeAICall{model: model, user: user})
	if len(c.responses) == 0 {
		return "", context.DeadlineExceeded
	}
	resp := c.responses[0]
	c.responses = c.responses[1:]
	return resp.text, resp.err
}

// fakeRenderer returns trivial artifacts.
type fakeRenderer struct{}

func (fakeRenderer) DailySnapshot(_ time.Time, _ []*CustomerCase) ([]byte, error) {
	return []byte("png"), nil
}

func (fakeRenderer) MonthlySpreadsheet(_ int, _ time.Month, _ []*CustomerCase) ([]byte, error) {
	return []byte("csv"), nil
}
