// FILE: internal/pkg/errs/errs.go
package errs

import (
	"errors"
	"fmt"
)

// DependencyKind classifies how an external collaborator failed.
type DependencyKind string

const (
	KindTimeout     DependencyKind = "timeout"
	KindRateLimited DependencyKind = "rate_limited"
	KindUnavailable DependencyKind = "unavailable"
	KindMalformed   DependencyKind = "malformed"
)

// ValidationError reports a client input problem. Never retried.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func Validation(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// DeniedError is a policy decision, not a bug. Carries the machine-readable
// reason that ends up in the audit trail.
type DeniedError struct {
	Reason string
}

func (e *DeniedError) Error() string {
	return "access denied: " + e.Reason
}

func Denied(reason string) *DeniedError {
	return &DeniedError{Reason: reason}
}

// DependencyError wraps a failure of an external collaborator (embedding,
// retrieval store, LLM provider, audit store).
type DependencyError struct {
	Dep  string // "embedding" | "retrieval" | "llm" | "audit"
	Kind DependencyKind
	Err  error
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("dependency %s failed (%s): %v", e.Dep, e.Kind, e.Err)
}

func (e *DependencyError) Unwrap() error { return e.Err }

func Dependency(dep string, kind DependencyKind, err error) *DependencyError {
	return &DependencyError{Dep: dep, Kind: kind, Err: err}
}

// InternalError flags an invariant violation (cross-patient leakage, failed
// audit write on a terminal path). Always fatal, always alerted.
type InternalError struct {
	Class string // e.g. "cross_patient_record", "audit_write_failed"
	Err   error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("internal error (%s): %v", e.Class, e.Err)
}

func (e *InternalError) Unwrap() error { return e.Err }

func Internal(class string, err error) *InternalError {
	return &InternalError{Class: class, Err: err}
}

// Class returns a stable error-class string used in audit details and metrics
// labels.
func Class(err error) string {
	var ve *ValidationError
	var de *DeniedError
	var dep *DependencyError
	var ie *InternalError
	switch {
	case errors.As(err, &ve):
		return "validation"
	case errors.As(err, &de):
		return "denied"
	case errors.As(err, &dep):
		return fmt.Sprintf("dependency_%s_%s", dep.Dep, dep.Kind)
	case errors.As(err, &ie):
		return "internal_" + ie.Class
	default:
		return "unknown"
	}
}
