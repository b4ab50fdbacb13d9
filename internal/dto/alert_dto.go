package dto

// SecurityAlertMessage rides the in-process alert bus. Payloads are scrubbed
// before publishing: never include question text or record snippets.
type SecurityAlertMessage struct {
	Class     string `json:"class"` // errs.Class of the triggering error
	Summary   string `json:"summary"`
	QueryID   string `json:"query_id"`
	PatientID string `json:"patient_id"`
}
