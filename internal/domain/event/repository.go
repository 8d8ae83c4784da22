// internal/domain/event/repository.go
package event

import (
	"context"
	"database/sql"
	"time"
)

// Filter narrows event listings. Zero values mean "no constraint".
type Filter struct {
	Follower string // case-insensitive exact match on the follower field

	// Bounds on the interaction calendar date (inclusive).
	DateFrom time.Time
	DateTo   time.Time

	// Bounds on the record creation timestamp (inclusive). Used by the
	// report-range query, where a time-of-day may be given.
	CreatedFrom time.Time
	CreatedTo   time.Time
}

// Repository defines the operations for the append-only event log.
type Repository interface {
	Create(ctx context.Context, ev *InteractionEvent) error
	List(ctx context.Context, f Filter) ([]*InteractionEvent, error)
	// LatestByPhone returns the most recent event for a phone, ordered by
	// date descending then creation time descending.
	LatestByPhone(ctx context.Context, phone string) (*InteractionEvent, error)
}

// AuditStage names one step of the message processing pipeline.
type AuditStage string

const (
	StageReceived AuditStage = "received"
	StageParsed   AuditStage = "parsed"
	StageSaved    AuditStage = "saved"
	StageError    AuditStage = "error"
)

// AuditEntry records one processing stage for one inbound message.
// The 'processing_audit_log' table is append-only, like the event log.
type AuditEntry struct {
	ID           int64
	MessageID    string
	Stage        AuditStage
	OriginalText string
	ParsedResult sql.NullString // JSON payload of the parse outcome
	ErrorDetail  sql.NullString
	CreatedAt    time.Time
}

// AuditRepository appends processing-stage records.
type AuditRepository interface {
	Append(ctx context.Context, entry *AuditEntry) error
}
