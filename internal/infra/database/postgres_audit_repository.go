// internal/infra/database/postgres_audit_repository.go
package database

import (
	"context"
	"database/sql"
	"fmt"

	"interaction_log_bot/internal/domain/event"
)

type PostgresAuditRepository struct {
	db *sql.DB
}

func NewPostgresAuditRepository(db *sql.DB) *PostgresAuditRepository {
	return &PostgresAuditRepository{db: db}
}

// Append records one processing stage. The audit log is append-only.
func (r *PostgresAuditRepository) Append(ctx context.Context, entry *event.AuditEntry) error {
	query := `INSERT INTO processing_audit_log (message_id, stage, original_text, parsed_result, error_detail)
               VALUES ($1, $2, $3, $4, $5)
               RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query,
		entry.MessageID, entry.Stage, entry.OriginalText, entry.ParsedResult, entry.ErrorDetail,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("error appending audit entry: %w", err)
	}
	return nil
}
