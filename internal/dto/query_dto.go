package dto

import (
	"time"
	"unicode/utf8"

	"clinical-assist-be/internal/pkg/errs"

	"github.com/google/uuid"
)

// QueryRequest is the body of POST /api/query. RetrieveK and Temperature are
// pointers so an explicit zero can be told apart from an omitted field: an
// omitted retrieve_k means "use the default", retrieve_k=0 is a client error.
type QueryRequest struct {
	PatientID   string   `json:"patient_id"`
	Question    string   `json:"question"`
	RetrieveK   *int     `json:"retrieve_k,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
}

// ValidateBounds is the single validation pass for the query body; it runs
// inside the service so a failure is audited. No validator tags on the struct,
// they would only duplicate these checks outside the audited path.
func (r *QueryRequest) ValidateBounds() error {
	if r.PatientID == "" {
		return errs.Validation("patient_id", "is required")
	}
	if n := utf8.RuneCountInString(r.Question); n < 2 || n > 2000 {
		return errs.Validation("question", "must be between 2 and 2000 characters")
	}
	if r.RetrieveK != nil && (*r.RetrieveK < 1 || *r.RetrieveK > 20) {
		return errs.Validation("retrieve_k", "must be between 1 and 20")
	}
	if r.Temperature != nil && (*r.Temperature < 0.0 || *r.Temperature > 1.0) {
		return errs.Validation("temperature", "must be between 0.0 and 1.0")
	}
	return nil
}

type SourceDTO struct {
	Type       string    `json:"type"`
	Date       time.Time `json:"date"`
	Snippet    string    `json:"snippet"`
	Similarity float64   `json:"similarity"`
}

type QueryResponse struct {
	QueryID    uuid.UUID   `json:"query_id"`
	Answer     string      `json:"answer"`
	Sources    []SourceDTO `json:"sources"`
	Confidence float64     `json:"confidence"`
	Disclaimer string      `json:"disclaimer"`
}
