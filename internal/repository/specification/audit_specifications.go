package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ByPatient scopes a query to one patient's rows.
type ByPatient struct {
	PatientID string
}

func (s ByPatient) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("patient_id = ?", s.PatientID)
}

// ByPrincipal scopes audit queries to one caller.
type ByPrincipal struct {
	PrincipalID uuid.UUID
}

func (s ByPrincipal) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("principal_id = ?", s.PrincipalID)
}

// ByQueryID finds the audit entries of one request.
type ByQueryID struct {
	QueryID uuid.UUID
}

func (s ByQueryID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("query_id = ?", s.QueryID)
}

// ByOutcome filters audit entries by terminal outcome.
type ByOutcome struct {
	Outcome string
}

func (s ByOutcome) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("outcome = ?", s.Outcome)
}
