// internal/infra/memstore/session_store.go
package memstore

import (
	"sync"
	"time"

	"interaction_log_bot/internal/domain/session"
)

type stateKey struct {
	UserID int64
	Kind   session.FlowKind
}

// SessionStore is a process-local, mutex-guarded implementation of
// session.Store. State is not durable and not shared across processes: a
// restart drops all in-flight conversations, which is an accepted failure
// mode: the user restarts the affected flow.
type SessionStore struct {
	mu     sync.Mutex
	states map[stateKey]*session.State
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		states: make(map[stateKey]*session.State),
	}
}

// Get returns the pending state for (userID, kind). An expired state, or a
// state owned by a different chat than requested, is deleted lazily and
// reported absent.
func (s *SessionStore) Get(chatID, userID int64, kind session.FlowKind, now time.Time) *session.State {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := stateKey{UserID: userID, Kind: kind}
	st, ok := s.states[key]
	if !ok {
		return nil
	}
	if st.Expired(now) || st.ChatID != chatID {
		delete(s.states, key)
		return nil
	}
	return st
}

func (s *SessionStore) Put(st *session.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[stateKey{UserID: st.UserID, Kind: st.Kind}] = st
}

func (s *SessionStore) Delete(userID int64, kind session.FlowKind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, stateKey{UserID: userID, Kind: kind})
}

// DeleteAll discards every pending flow for the user. Top-level commands
// take precedence over in-progress flows and call this first.
func (s *SessionStore) DeleteAll(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.states {
		if key.UserID == userID {
			delete(s.states, key)
		}
	}
}
