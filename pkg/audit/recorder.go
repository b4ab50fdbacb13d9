package audit

import (
	"context"
	"encoding/json"

	"clinical-assist-be/internal/entity"
	"clinical-assist-be/internal/pkg/errs"
	"clinical-assist-be/internal/pkg/logger"
	"clinical-assist-be/internal/repository/contract"
	natspub "clinical-assist-be/pkg/nats"
)

// Recorder appends one entry per terminal request outcome. The write must be
// acknowledged before the caller releases its response; a failed write is the
// caller's problem to fail closed on.
type Recorder interface {
	Record(ctx context.Context, entry *entity.AuditEntry) error
}

// DBRecorder persists entries through the hash-chained repository, mirrors
// them to an isolated compliance log file, and fans them out to NATS when a
// publisher is wired. Only the database write participates in the durability
// guarantee.
type DBRecorder struct {
	repo      contract.AuditRepository
	auditLog  logger.ILogger
	publisher *natspub.Publisher
	subject   string
}

func NewDBRecorder(repo contract.AuditRepository, auditLog logger.ILogger, publisher *natspub.Publisher, subject string) *DBRecorder {
	return &DBRecorder{
		repo:      repo,
		auditLog:  auditLog,
		publisher: publisher,
		subject:   subject,
	}
}

func (r *DBRecorder) Record(ctx context.Context, entry *entity.AuditEntry) error {
	if err := r.repo.Append(ctx, entry); err != nil {
		return errs.Dependency("audit", errs.KindUnavailable, err)
	}

	r.auditLog.Info("audit", "audit entry recorded", map[string]interface{}{
		"query_id":     entry.QueryID.String(),
		"principal_id": entry.PrincipalID.String(),
		"patient_id":   entry.PatientID,
		"action":       string(entry.Action),
		"outcome":      string(entry.Outcome),
		"latency_ms":   entry.LatencyMs,
		"entry_hash":   entry.EntryHash,
	})

	// Best effort: the entry is already durable, a dead bus only costs the
	// downstream feed.
	if r.publisher != nil {
		if data, err := json.Marshal(entry); err == nil {
			if err := r.publisher.Publish(ctx, r.subject, data); err != nil {
				r.auditLog.Warn("audit", "audit fan-out publish failed", map[string]interface{}{
					"query_id": entry.QueryID.String(),
					"error":    err.Error(),
				})
			}
		}
	}

	return nil
}
