package dto

import (
	"time"

	"github.com/google/uuid"
)

// ListAuditRequest filters the audit read API. All filters are optional.
type ListAuditRequest struct {
	PatientID   string `query:"patient_id"`
	PrincipalID string `query:"principal_id"`
	Outcome     string `query:"outcome" validate:"omitempty,oneof=SUCCESS DENIED ERROR"`
	Page        int    `query:"page"`
	PageSize    int    `query:"page_size" validate:"omitempty,min=1,max=200"`
}

type AuditEntryResponse struct {
	Id          uuid.UUID              `json:"id"`
	QueryID     uuid.UUID              `json:"query_id"`
	PrincipalID uuid.UUID              `json:"principal_id"`
	PatientID   string                 `json:"patient_id"`
	Action      string                 `json:"action"`
	Outcome     string                 `json:"outcome"`
	Timestamp   time.Time              `json:"timestamp"`
	LatencyMs   int64                  `json:"latency_ms"`
	Details     map[string]interface{} `json:"details,omitempty"`
	PrevHash    string                 `json:"prev_hash"`
	EntryHash   string                 `json:"entry_hash"`
}

type ListAuditResponse struct {
	Entries  []AuditEntryResponse `json:"entries"`
	Total    int64                `json:"total"`
	Page     int                  `json:"page"`
	PageSize int                  `json:"page_size"`
}

// VerifyChainResponse reports an audit-chain integrity check.
type VerifyChainResponse struct {
	Intact       bool   `json:"intact"`
	Entries      int    `json:"entries"`
	BrokenAt     *int   `json:"broken_at,omitempty"`
	BrokenDetail string `json:"broken_detail,omitempty"`
}
