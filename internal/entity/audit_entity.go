package entity

import (
	"time"

	"github.com/google/uuid"
)

type AuditAction string

const (
	AuditActionQuery       AuditAction = "QUERY"
	AuditActionAccessCheck AuditAction = "ACCESS_CHECK"
)

type AuditOutcome string

const (
	AuditOutcomeSuccess AuditOutcome = "SUCCESS"
	AuditOutcomeDenied  AuditOutcome = "DENIED"
	AuditOutcomeError   AuditOutcome = "ERROR"
)

// AuditEntry is one immutable row of the compliance trail. The public
// contract exposes append and read only; once written an entry never changes.
// EntryHash/PrevHash form a tamper-evident chain.
type AuditEntry struct {
	Id          uuid.UUID
	QueryID     uuid.UUID
	PrincipalID uuid.UUID
	PatientID   string
	Action      AuditAction
	Outcome     AuditOutcome
	Timestamp   time.Time
	LatencyMs   int64
	Details     map[string]interface{}
	PrevHash    string
	EntryHash   string
}
