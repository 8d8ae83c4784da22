// internal/app/flow_engine.go
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"interaction_log_bot/internal/domain/session"
)

// Flow steps. Each flow family has its own finite step set.
const (
	stepAwaitingReason = "awaiting_reason"
	stepAwaitingNote   = "awaiting_note"

	stepAwaitingFollower = "awaiting_follower"
	stepAwaitingMonth    = "awaiting_month"

	stepAwaitingRange = "awaiting_range"
)

const helpText = `I log customer interactions from your messages.

Free text is parsed automatically and recorded. For structured entry, send a header block:

#new
date: 2025-01-15
name: Dana Cohen
phone: 0501234567
page: instagram
follower: ads

I will then ask for a follow-up reason and an optional note.

Commands:
/customers - list a follower's customers for a month
/report - summarize a date range
/cancel - abandon the current flow
/help - this message`

// FlowEngine drives the per-user conversational state machines. All
// pending state lives in the injected session store and expires on read;
// top-level commands discard pending flows before starting their own.
type FlowEngine struct {
	sessions session.Store
	headers  *HeaderValidator
	ingest   *IngestService
	cases    *CaseService
	reports  *ReportService

	customersLimiter *rateLimiter
	reportLimiter    *rateLimiter

	ttl    time.Duration
	logger *logrus.Entry
	now    func() time.Time
}

func NewFlowEngine(
	sessions session.Store,
	headers *HeaderValidator,
	ingest *IngestService,
	cases *CaseService,
	reports *ReportService,
	ttl time.Duration,
	queryCooldown time.Duration,
	logger *logrus.Entry,
) *FlowEngine {
	return &FlowEngine{
		sessions:         sessions,
		headers:          headers,
		ingest:           ingest,
		cases:            cases,
		reports:          reports,
		customersLimiter: newRateLimiter(queryCooldown),
		reportLimiter:    newRateLimiter(queryCooldown),
		ttl:              ttl,
		logger:           logger,
		now:              time.Now,
	}
}

// flowOrder fixes which pending flow consumes a reply when several are
// open at once for the same user.
var flowOrder = []session.FlowKind{session.FlowEntry, session.FlowCustomerList, session.FlowReportRange}

// HandleText processes one non-command message. The returned reply may be
// empty, meaning nothing should be sent (ignored chatter).
func (e *FlowEngine) HandleText(ctx context.Context, chatID, userID int64, messageID, text string) string {
	now := e.now()

	for _, kind := range flowOrder {
		st := e.sessions.Get(chatID, userID, kind, now)
		if st == nil {
			continue
		}
		switch kind {
		case session.FlowEntry:
			return e.advanceEntry(ctx, st, messageID, text)
		case session.FlowCustomerList:
			return e.advanceCustomerList(ctx, st, text)
		case session.FlowReportRange:
			return e.advanceReportRange(ctx, st, text)
		}
	}

	if LooksLikeHeader(text) {
		return e.startEntry(ctx, chatID, userID, text)
	}

	summary := e.ingest.ProcessMessage(ctx, text, messageID, "")
	if summary.Ignored || summary.Saved == 0 {
		return ""
	}
	if summary.Saved == 1 {
		return "Recorded 1 interaction."
	}
	return fmt.Sprintf("Recorded %d interactions.", summary.Saved)
}

// StartCustomerListFlow begins the follower/month query. Commands take
// precedence: any pending flow is discarded first.
func (e *FlowEngine) StartCustomerListFlow(chatID, userID int64) string {
	e.sessions.DeleteAll(userID)
	e.sessions.Put(&session.State{
		ChatID:    chatID,
		UserID:    userID,
		Kind:      session.FlowCustomerList,
		Step:      stepAwaitingFollower,
		Fields:    make(map[string]string),
		ExpiresAt: e.now().Add(e.ttl),
	})
	return "Which follower?"
}

// StartReportRangeFlow begins the report query.
func (e *FlowEngine) StartReportRangeFlow(chatID, userID int64) string {
	e.sessions.DeleteAll(userID)
	e.sessions.Put(&session.State{
		ChatID:    chatID,
		UserID:    userID,
		Kind:      session.FlowReportRange,
		Step:      stepAwaitingRange,
		Fields:    make(map[string]string),
		ExpiresAt: e.now().Add(e.ttl),
	})
	return "For which period? Reply with a day count (1-30) or one or two dates as YYYY-MM-DD, optionally followed by HH:MM."
}

// Cancel abandons every pending flow for the user.
func (e *FlowEngine) Cancel(userID int64) string {
	e.sessions.DeleteAll(userID)
	return "Cancelled. Nothing was saved."
}

// Help returns the static help message.
func (e *FlowEngine) Help() string {
	return helpText
}
