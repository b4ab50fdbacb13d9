package authz

import (
	"testing"

	"github.com/google/uuid"
)

func principalWith(roles []Role, patients ...string) Principal {
	assigned := make(map[string]struct{}, len(patients))
	for _, p := range patients {
		assigned[p] = struct{}{}
	}
	return Principal{
		ID:               uuid.New(),
		Roles:            roles,
		AssignedPatients: assigned,
	}
}

func TestAuthorize(t *testing.T) {
	policy := NewPolicy()

	tests := []struct {
		name        string
		principal   Principal
		patientID   string
		wantAllowed bool
		wantReason  string
	}{
		{
			name:        "admin always allowed",
			principal:   principalWith([]Role{RoleAdmin}),
			patientID:   "P1",
			wantAllowed: true,
		},
		{
			name:        "attending always allowed",
			principal:   principalWith([]Role{RoleAttending}),
			patientID:   "P1",
			wantAllowed: true,
		},
		{
			name:        "resident allowed for assigned patient",
			principal:   principalWith([]Role{RoleResident}, "P1", "P3"),
			patientID:   "P1",
			wantAllowed: true,
		},
		{
			name:        "resident denied for unassigned patient",
			principal:   principalWith([]Role{RoleResident}, "P2"),
			patientID:   "P1",
			wantAllowed: false,
			wantReason:  ReasonNotAssigned,
		},
		{
			name:        "nurse allowed for assigned patient",
			principal:   principalWith([]Role{RoleNurse}, "P7"),
			patientID:   "P7",
			wantAllowed: true,
		},
		{
			name:        "nurse denied for unassigned patient",
			principal:   principalWith([]Role{RoleNurse}, "P7"),
			patientID:   "P8",
			wantAllowed: false,
			wantReason:  ReasonNotAssigned,
		},
		{
			name:        "no roles fails closed",
			principal:   principalWith(nil),
			patientID:   "P1",
			wantAllowed: false,
			wantReason:  ReasonNoRecognizedRole,
		},
		{
			name:        "unknown role only fails closed",
			principal:   principalWith([]Role{RoleUnknown}),
			patientID:   "P1",
			wantAllowed: false,
			wantReason:  ReasonNoRecognizedRole,
		},
		{
			name:        "attending plus unknown role still allowed",
			principal:   principalWith([]Role{RoleUnknown, RoleAttending}),
			patientID:   "P1",
			wantAllowed: true,
		},
		{
			name:        "nurse plus resident without assignment still denied",
			principal:   principalWith([]Role{RoleNurse, RoleResident}, "P2"),
			patientID:   "P1",
			wantAllowed: false,
			wantReason:  ReasonNotAssigned,
		},
		{
			name:        "resident plus admin allowed regardless of assignment",
			principal:   principalWith([]Role{RoleResident, RoleAdmin}),
			patientID:   "P9",
			wantAllowed: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := policy.Authorize(tt.principal, tt.patientID)
			if got.Allowed != tt.wantAllowed {
				t.Errorf("Allowed = %v, want %v", got.Allowed, tt.wantAllowed)
			}
			if !tt.wantAllowed && got.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", got.Reason, tt.wantReason)
			}
			if tt.wantAllowed && got.Reason != "" {
				t.Errorf("Reason should be empty on allow, got %q", got.Reason)
			}
		})
	}
}

func TestAuthorizeDeterministic(t *testing.T) {
	policy := NewPolicy()
	p := principalWith([]Role{RoleResident}, "P2")

	first := policy.Authorize(p, "P1")
	for i := 0; i < 100; i++ {
		if got := policy.Authorize(p, "P1"); got != first {
			t.Fatalf("decision changed between evaluations: %+v vs %+v", got, first)
		}
	}
}

func TestParseRole(t *testing.T) {
	tests := []struct {
		in   string
		want Role
	}{
		{"admin", RoleAdmin},
		{"attending", RoleAttending},
		{"resident", RoleResident},
		{"nurse", RoleNurse},
		{"", RoleUnknown},
		{"superuser", RoleUnknown},
		{"Admin", RoleUnknown}, // case sensitive on purpose
	}

	for _, tt := range tests {
		if got := ParseRole(tt.in); got != tt.want {
			t.Errorf("ParseRole(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
