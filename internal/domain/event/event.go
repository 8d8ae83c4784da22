// internal/domain/event/event.go
package event

import (
	"database/sql"
	"time"
)

// InteractionEvent is one immutable observation of a customer interaction.
// Rows in the 'interaction_events' table are append-only: there is no
// update or delete path anywhere in the codebase.
type InteractionEvent struct {
	ID              int64
	Date            time.Time // calendar date of the interaction
	Name            sql.NullString
	Phone           sql.NullString
	Page            sql.NullString
	Follower        sql.NullString
	StatusText      sql.NullString
	ReasonCode      sql.NullString
	Note            sql.NullString
	SourceMessageID string
	SourceModel     string
	CreatedAt       time.Time

	// IsUpdate is an extraction-time hint that this event references an
	// already known customer. It drives enrichment and is never persisted.
	IsUpdate bool
}

// NullStr builds a valid NullString from a non-empty value.
func NullStr(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// ChronologicalLess orders events by (date, created_at, id) ascending.
// The serial id reflects arrival order and breaks exact timestamp ties.
func ChronologicalLess(a, b *InteractionEvent) bool {
	if !a.Date.Equal(b.Date) {
		return a.Date.Before(b.Date)
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}
