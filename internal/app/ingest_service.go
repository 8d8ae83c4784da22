// internal/app/ingest_service.go
package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"

	"interaction_log_bot/internal/domain/event"
)

// IngestService runs the ingestion pipeline for free-text messages:
// received -> parsed -> saved, with every stage written to the audit log.
// No per-message failure terminates the process or reaches the poller.
type IngestService struct {
	normalizer *Normalizer
	merger     *Merger
	events     event.Repository
	audit      event.AuditRepository
	logger     *logrus.Entry
}

func NewIngestService(
	normalizer *Normalizer,
	merger *Merger,
	events event.Repository,
	audit event.AuditRepository,
	logger *logrus.Entry,
) *IngestService {
	return &IngestService{
		normalizer: normalizer,
		merger:     merger,
		events:     events,
		audit:      audit,
		logger:     logger,
	}
}

// IngestSummary reports what one message produced.
type IngestSummary struct {
	Saved   int
	Ignored bool
}

// ProcessMessage normalizes, enriches, and persists one message. It never
// returns an error: failures are contained per message and recorded in
// the audit log.
func (s *IngestService) ProcessMessage(ctx context.Context, text, messageID, modelHint string) (summary IngestSummary) {
	defer func() {
		if r := recover(); r != nil {
			detail := fmt.Sprintf("panic while processing message: %v", r)
			s.logger.WithField("message_id", messageID).Error(detail)
			s.recordStage(ctx, messageID, event.StageError, text, "", detail)
			summary = IngestSummary{Ignored: true}
		}
	}()

	s.recordStage(ctx, messageID, event.StageReceived, text, "", "")

	res := s.normalizer.Normalize(ctx, text, messageID, modelHint)
	if res.Ignored {
		s.recordStage(ctx, messageID, event.StageParsed, text, `{"ignored":true}`, "")
		return IngestSummary{Ignored: true}
	}
	s.recordStage(ctx, messageID, event.StageParsed, text, marshalEvents(res.Events), "")

	for _, ev := range res.Events {
		if err := s.persist(ctx, ev); err != nil {
			s.logger.WithError(err).WithField("message_id", messageID).Error("Failed to persist event")
			s.recordStage(ctx, messageID, event.StageError, text, "", err.Error())
			continue
		}
		summary.Saved++
	}

	if summary.Saved > 0 {
		s.recordStage(ctx, messageID, event.StageSaved, text, marshalEvents(res.Events), "")
	}
	return summary
}

// SaveEntry persists one event assembled by the entry flow, with the same
// enrichment and audit trail as the free-text pipeline. Unlike
// ProcessMessage it reports failure, so the flow can tell the user.
func (s *IngestService) SaveEntry(ctx context.Context, ev *event.InteractionEvent) error {
	if err := s.persist(ctx, ev); err != nil {
		s.recordStage(ctx, ev.SourceMessageID, event.StageError, "", "", err.Error())
		return err
	}
	s.recordStage(ctx, ev.SourceMessageID, event.StageSaved, "", marshalEvents([]*event.InteractionEvent{ev}), "")
	return nil
}

func (s *IngestService) persist(ctx context.Context, ev *event.InteractionEvent) error {
	if err := s.merger.Enrich(ctx, ev); err != nil {
		return err
	}
	return s.events.Create(ctx, ev)
}

// recordStage appends to the audit log; audit failures are logged and
// swallowed so they cannot break message processing.
func (s *IngestService) recordStage(ctx context.Context, messageID string, stage event.AuditStage, text, parsed, errDetail string) {
	entry := &event.AuditEntry{
		MessageID:    messageID,
		Stage:        stage,
		OriginalText: text,
	}
	if parsed != "" {
		entry.ParsedResult = sql.NullString{String: parsed, Valid: true}
	}
	if errDetail != "" {
		entry.ErrorDetail = sql.NullString{String: errDetail, Valid: true}
	}
	if err := s.audit.Append(ctx, entry); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"message_id": messageID,
			"stage":      stage,
		}).Error("Failed to append audit entry")
	}
}

// marshalEvents renders events for the audit trail.
func marshalEvents(events []*event.InteractionEvent) string {
	type auditEvent struct {
		Date     string  `json:"date"`
		Name     *string `json:"name"`
		Phone    *string `json:"phone"`
		Page     *string `json:"page"`
		Follower *string `json:"follower"`
		Status   *string `json:"status"`
		Reason   *string `json:"reason"`
		Note     *string `json:"note"`
		IsUpdate bool    `json:"is_update"`
		Model    string  `json:"model"`
	}
	strPtr := func(ns sql.NullString) *string {
		if !ns.Valid {
			return nil
		}
		v := ns.String
		return &v
	}

	out := make([]auditEvent, 0, len(events))
	for _, ev := range events {
		out = append(out, auditEvent{
			Date:     ev.Date.Format("2006-01-02"),
			Name:     strPtr(ev.Name),
			Phone:    strPtr(ev.Phone),
			Page:     strPtr(ev.Page),
			Follower: strPtr(ev.Follower),
			Status:   strPtr(ev.StatusText),
			Reason:   strPtr(ev.ReasonCode),
			Note:     strPtr(ev.Note),
			IsUpdate: ev.IsUpdate,
			Model:    ev.SourceModel,
		})
	}
	b, err := json.Marshal(out)
	if err != nil {
		return "[]"
	}
	return string(b)
}
