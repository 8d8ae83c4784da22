// internal/app/flow_entry.go
package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"interaction_log_bot/internal/domain/event"
	"interaction_log_bot/internal/domain/reason"
	"interaction_log_bot/internal/domain/session"
)

// skipTokens normalize an entry-flow note to null.
var skipTokens = map[string]struct{}{
	"-":    {},
	"skip": {},
	"none": {},
	"n/a":  {},
}

// startEntry validates a header block and, when valid, opens the entry
// flow at the reason step. An invalid header sends the help message and
// creates no state.
func (e *FlowEngine) startEntry(ctx context.Context, chatID, userID int64, text string) string {
	data, err := e.headers.Validate(ctx, text)
	if err != nil {
		e.logger.WithError(err).WithField("user_id", userID).Info("Header rejected")
		return fmt.Sprintf("That header is not valid: %v\n\n%s", err, helpText)
	}

	e.sessions.Put(&session.State{
		ChatID: chatID,
		UserID: userID,
		Kind:   session.FlowEntry,
		Step:   stepAwaitingReason,
		Fields: map[string]string{
			"date":     data.Date.Format("2006-01-02"),
			"name":     data.Name,
			"phone":    data.Phone,
			"page":     data.Page,
			"follower": data.Follower,
		},
		ExpiresAt: e.now().Add(e.ttl),
	})
	return reason.PromptText()
}

// advanceEntry handles one reply inside the entry flow.
func (e *FlowEngine) advanceEntry(ctx context.Context, st *session.State, messageID, text string) string {
	switch st.Step {
	case stepAwaitingReason:
		code, ok := reason.Parse(text)
		if !ok {
			// State unchanged; the menu is simply re-sent.
			return "Please choose exactly one reason.\n\n" + reason.PromptText()
		}
		st.Fields["reason"] = string(code)
		st.Step = stepAwaitingNote
		e.sessions.Put(st)
		return "Add a note, or reply \"-\" to skip."

	case stepAwaitingNote:
		ev := e.assembleEntryEvent(st, messageID, text)
		if err := e.ingest.SaveEntry(ctx, ev); err != nil {
			e.logger.WithError(err).WithField("user_id", st.UserID).Error("Failed to save entry-flow event")
			e.sessions.Delete(st.UserID, session.FlowEntry)
			return "Something went wrong while saving. The entry was not recorded — please start again."
		}
		e.sessions.Delete(st.UserID, session.FlowEntry)

		label, _ := reason.LabelFor(reason.Code(st.Fields["reason"]))
		return fmt.Sprintf("Saved: %s (%s) — %s.", st.Fields["name"], st.Fields["phone"], label)
	}

	// Unknown step means corrupted state; drop it and restart from idle.
	e.sessions.Delete(st.UserID, session.FlowEntry)
	return helpText
}

func (e *FlowEngine) assembleEntryEvent(st *session.State, messageID, noteText string) *event.InteractionEvent {
	date, _ := time.Parse("2006-01-02", st.Fields["date"])

	ev := &event.InteractionEvent{
		Date:            date,
		Name:            event.NullStr(st.Fields["name"]),
		Phone:           event.NullStr(st.Fields["phone"]),
		Page:            event.NullStr(st.Fields["page"]),
		Follower:        event.NullStr(st.Fields["follower"]),
		ReasonCode:      event.NullStr(st.Fields["reason"]),
		SourceMessageID: messageID,
		SourceModel:     "manual",
	}

	note := strings.TrimSpace(noteText)
	if _, skip := skipTokens[strings.ToLower(note)]; !skip {
		ev.Note = event.NullStr(note)
	}
	return ev
}
