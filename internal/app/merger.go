// internal/app/merger.go
package app

import (
	"context"
	"errors"
	"fmt"

	"interaction_log_bot/internal/domain/event"
	idb "interaction_log_bot/internal/infra/database"
)

// Merger resolves an incoming event flagged as an update against the
// prior history for the same phone number.
type Merger struct {
	events event.Repository
}

func NewMerger(events event.Repository) *Merger {
	return &Merger{events: events}
}

// Enrich applies the update semantics in place. Identity/context fields
// (name, page, follower) are filled from the latest prior event only when
// the new event leaves them null; status, reason, and note always keep the
// new event's values. A missing prior event demotes the update silently to
// a fresh lead.
func (m *Merger) Enrich(ctx context.Context, ev *event.InteractionEvent) error {
	if !ev.IsUpdate {
		return nil
	}
	if !ev.Phone.Valid {
		ev.IsUpdate = false
		return nil
	}

	prior, err := m.events.LatestByPhone(ctx, ev.Phone.String)
	if err != nil {
		if errors.Is(err, idb.ErrEventNotFound) {
			ev.IsUpdate = false
			return nil
		}
		return fmt.Errorf("failed to look up prior event for enrichment: %w", err)
	}

	if !ev.Name.Valid {
		ev.Name = prior.Name
	}
	if !ev.Page.Valid {
		ev.Page = prior.Page
	}
	if !ev.Follower.Valid {
		ev.Follower = prior.Follower
	}
	return nil
}
