package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// AuditEntry is append-only: no UpdatedAt, no DeletedAt, and the repository
// contract exposes no write beyond Append.
type AuditEntry struct {
	Id          uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	QueryId     uuid.UUID      `gorm:"type:uuid;not null;index"`
	PrincipalId uuid.UUID      `gorm:"type:uuid;not null;index"`
	PatientId   string         `gorm:"type:varchar(64);not null;index"`
	Action      string         `gorm:"type:varchar(32);not null"`
	Outcome     string         `gorm:"type:varchar(16);not null"`
	Timestamp   time.Time      `gorm:"not null;index"`
	LatencyMs   int64          `gorm:"not null"`
	Details     datatypes.JSON `gorm:"type:jsonb"`
	PrevHash    string         `gorm:"type:char(64)"`
	EntryHash   string         `gorm:"type:char(64);not null"`
	CreatedAt   time.Time      `gorm:"autoCreateTime"`
}

func (AuditEntry) TableName() string {
	return "audit_entries"
}
