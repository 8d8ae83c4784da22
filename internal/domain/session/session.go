// internal/domain/session/session.go
package session

import "time"

// FlowKind distinguishes the independent conversational flow families.
// Each kind keeps its own pending state per user.
type FlowKind string

const (
	FlowEntry        FlowKind = "ENTRY"
	FlowCustomerList FlowKind = "CUSTOMER_LIST"
	FlowReportRange  FlowKind = "REPORT_RANGE"
)

// State is the transient, per-(chat, user) record of one in-progress
// conversational flow. It is never persisted: a process restart drops all
// pending flows and the user restarts from idle.
type State struct {
	ChatID    int64 // chat the flow was started in; guards cross-chat leakage
	UserID    int64
	Kind      FlowKind
	Step      string
	Fields    map[string]string // partially collected fields
	ExpiresAt time.Time
}

// Expired reports whether the state's absolute expiry has passed.
func (s *State) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// Store holds pending conversation states keyed by (user, flow kind).
// Implementations must treat an expired state, or a state retrieved for a
// different chat than it was created in, as absent and drop it.
type Store interface {
	Get(chatID, userID int64, kind FlowKind, now time.Time) *State
	Put(st *State)
	Delete(userID int64, kind FlowKind)
	DeleteAll(userID int64)
}
