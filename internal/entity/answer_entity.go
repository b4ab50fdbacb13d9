package entity

import (
	"time"

	"github.com/google/uuid"
)

// SourceCitation points a clinician back at the record a statement came from.
type SourceCitation struct {
	RecordID   uuid.UUID
	SourceType string
	Date       time.Time
	Snippet    string
	Similarity float64
}

// AssembledContext is the ordered, deduplicated, budget-bounded block of
// snippets handed to the synthesizer.
type AssembledContext struct {
	Text      string
	Citations []SourceCitation
	Included  int
	Dropped   int // records cut by dedupe or budget
}

// SynthesizedAnswer is the validated output of the language-model step.
type SynthesizedAnswer struct {
	QueryID        uuid.UUID
	AnswerText     string
	Sources        []SourceCitation
	Confidence     float64
	Disclaimer     string
	Degraded       bool
	DegradedReason string // e.g. "llm_timeout", "no_matching_records"
}
