package entity

import (
	"time"

	"github.com/google/uuid"
)

// RecordEmbedding is one embedded chunk of a patient record as held by the
// retrieval store. SnippetCipher is never persisted in plaintext; decryption
// happens per-request after authorization.
type RecordEmbedding struct {
	Id             uuid.UUID
	PatientID      string
	SnippetCipher  []byte
	EmbeddingValue []float32
	SourceType     string // e.g. "progress_note", "lab_report", "discharge_summary"
	RecordedAt     time.Time
	ChunkIndex     int
	CreatedAt      time.Time
	UpdatedAt      *time.Time
	DeletedAt      *time.Time
}

// RetrievedRecord is a decrypted, scored search hit. Created per-request and
// discarded after the response is built; never cached across requests.
type RetrievedRecord struct {
	RecordID   uuid.UUID
	PatientID  string
	Similarity float64
	Snippet    string
	SourceType string
	RecordedAt time.Time
}
