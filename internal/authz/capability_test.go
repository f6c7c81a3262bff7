package authz

import (
	"testing"

	"github.com/regworks/companies-register/internal/domain"
	"github.com/regworks/companies-register/internal/workflow"
)

var _ workflow.CapabilityChecker = (*Directory)(nil)

func TestDirectoryCapabilities(t *testing.T) {
	directory := NewDirectory(map[string][]string{
		"registrar-001": {"REGISTRAR"},
		"authority-001": {"authority"}, // role names are normalized
		"applicant-001": {"APPLICANT"},
	})

	cases := []struct {
		actor       string
		autoApprove bool
		approve     bool
	}{
		{"registrar-001", true, true},
		{"authority-001", false, true},
		{"applicant-001", false, false},
		{"stranger", false, false},
		{"", false, false},
	}

	for _, tc := range cases {
		if got := directory.CanAutoApprove(tc.actor, domain.ChangeKindAddress); got != tc.autoApprove {
			t.Fatalf("CanAutoApprove(%q) = %v, want %v", tc.actor, got, tc.autoApprove)
		}
		if got := directory.CanApprove(tc.actor, domain.ChangeKindAddress); got != tc.approve {
			t.Fatalf("CanApprove(%q) = %v, want %v", tc.actor, got, tc.approve)
		}
	}
}

func TestDirectoryGrant(t *testing.T) {
	directory := NewDirectory(nil)
	if directory.CanApprove("late-hire", domain.ChangeKindAddress) {
		t.Fatalf("expected no capability before grant")
	}

	directory.Grant("late-hire", RoleAuthority)
	if !directory.CanApprove("late-hire", domain.ChangeKindAddress) {
		t.Fatalf("expected approval capability after grant")
	}
	if directory.CanAutoApprove("late-hire", domain.ChangeKindAddress) {
		t.Fatalf("authority role must not auto-approve")
	}
}
