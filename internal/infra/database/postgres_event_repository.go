// internal/infra/database/postgres_event_repository.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"interaction_log_bot/internal/domain/event"
)

// Custom errors specific to the event repository
var ErrEventNotFound = fmt.Errorf("interaction event not found")

const eventColumns = `id, event_date, customer_name, customer_phone, page, follower, status_text, reason_code, note, source_message_id, source_model, created_at`

type PostgresEventRepository struct {
	db *sql.DB
}

func NewPostgresEventRepository(db *sql.DB) *PostgresEventRepository {
	return &PostgresEventRepository{db: db}
}

// Create appends one event to the log. The table has no update or delete
// path: created rows are immutable.
func (r *PostgresEventRepository) Create(ctx context.Context, ev *event.InteractionEvent) error {
	query := `INSERT INTO interaction_events
               (event_date, customer_name, customer_phone, page, follower, status_text, reason_code, note, source_message_id, source_model)
               VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
               RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query,
		ev.Date, ev.Name, ev.Phone, ev.Page, ev.Follower,
		ev.StatusText, ev.ReasonCode, ev.Note, ev.SourceMessageID, ev.SourceModel,
	).Scan(&ev.ID, &ev.CreatedAt)
	if err != nil {
		return fmt.Errorf("error creating interaction event: %w", err)
	}
	return nil
}

// List returns events matching the filter in (event_date, created_at, id)
// ascending order, which is the canonical aggregation order.
func (r *PostgresEventRepository) List(ctx context.Context, f event.Filter) ([]*event.InteractionEvent, error) {
	var conds []string
	var args []interface{}

	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Follower != "" {
		conds = append(conds, fmt.Sprintf("LOWER(follower) = LOWER(%s)", arg(f.Follower)))
	}
	if !f.DateFrom.IsZero() {
		conds = append(conds, fmt.Sprintf("event_date >= %s", arg(f.DateFrom)))
	}
	if !f.DateTo.IsZero() {
		conds = append(conds, fmt.Sprintf("event_date <= %s", arg(f.DateTo)))
	}
	if !f.CreatedFrom.IsZero() {
		conds = append(conds, fmt.Sprintf("created_at >= %s", arg(f.CreatedFrom)))
	}
	if !f.CreatedTo.IsZero() {
		conds = append(conds, fmt.Sprintf("created_at <= %s", arg(f.CreatedTo)))
	}

	query := `SELECT ` + eventColumns + ` FROM interaction_events`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY event_date ASC, created_at ASC, id ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing interaction events: %w", err)
	}
	defer rows.Close()

	var events []*event.InteractionEvent
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating interaction event rows: %w", err)
	}
	return events, nil
}

// LatestByPhone returns the most recent event for a phone number, ordered
// by event date descending then creation time descending.
func (r *PostgresEventRepository) LatestByPhone(ctx context.Context, phone string) (*event.InteractionEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM interaction_events
               WHERE customer_phone = $1
               ORDER BY event_date DESC, created_at DESC, id DESC
               LIMIT 1`
	ev, err := scanEvent(r.db.QueryRowContext(ctx, query, phone))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("error getting latest event by phone: %w", err)
	}
	return ev, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEvent(row rowScanner) (*event.InteractionEvent, error) {
	ev := event.InteractionEvent{}
	err := row.Scan(
		&ev.ID, &ev.Date, &ev.Name, &ev.Phone, &ev.Page, &ev.Follower,
		&ev.StatusText, &ev.ReasonCode, &ev.Note, &ev.SourceMessageID, &ev.SourceModel, &ev.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("error scanning interaction event: %w", err)
	}
	return &ev, nil
}
