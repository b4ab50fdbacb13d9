// Package authz implements the patient-access policy. The decision function
// is pure and total: every (principal, patient) pair maps to exactly one
// decision, and anything unrecognized fails closed.
package authz

import (
	"github.com/google/uuid"
)

// Role is a closed set. Tokens carrying anything else parse to RoleUnknown,
// which grants nothing.
type Role int

const (
	RoleUnknown Role = iota
	RoleAdmin
	RoleAttending
	RoleResident
	RoleNurse
)

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleAttending:
		return "attending"
	case RoleResident:
		return "resident"
	case RoleNurse:
		return "nurse"
	default:
		return "unknown"
	}
}

// ParseRole maps a credential claim to a Role. Fail closed: unknown strings
// become RoleUnknown, never a guess.
func ParseRole(s string) Role {
	switch s {
	case "admin":
		return RoleAdmin
	case "attending":
		return RoleAttending
	case "resident":
		return RoleResident
	case "nurse":
		return RoleNurse
	default:
		return RoleUnknown
	}
}

// Principal is the authenticated caller. Built once by the credential
// middleware and immutable for the lifetime of the request.
type Principal struct {
	ID               uuid.UUID
	Roles            []Role
	AssignedPatients map[string]struct{}
}

// HasRole reports whether the principal carries the given role.
func (p Principal) HasRole(role Role) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// IsAssigned reports whether the patient is in the principal's scope.
func (p Principal) IsAssigned(patientID string) bool {
	_, ok := p.AssignedPatients[patientID]
	return ok
}

// Denial reasons, stable strings recorded in the audit trail.
const (
	ReasonNotAssigned      = "not_assigned"
	ReasonNoRecognizedRole = "no_recognized_role"
)

// Decision is the outcome of one policy evaluation.
type Decision struct {
	Allowed bool
	Reason  string // empty on Allow
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason string) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// Policy resolves a principal and patient id into an access decision.
type Policy struct{}

func NewPolicy() *Policy {
	return &Policy{}
}

// Authorize evaluates every role the principal carries and allows if any role
// grants access. No role ever broadens another role's deny: a deny is only
// the absence of any grant.
func (p *Policy) Authorize(principal Principal, patientID string) Decision {
	granted := false
	recognized := false

	for _, role := range principal.Roles {
		switch role {
		case RoleAdmin, RoleAttending:
			recognized = true
			granted = true
		case RoleResident, RoleNurse:
			recognized = true
			if principal.IsAssigned(patientID) {
				granted = true
			}
		case RoleUnknown:
			// unrecognized role grants nothing
		default:
			// future roles grant nothing until the policy names them
		}
	}

	if !recognized {
		return deny(ReasonNoRecognizedRole)
	}
	if granted {
		return allow()
	}
	return deny(ReasonNotAssigned)
}
