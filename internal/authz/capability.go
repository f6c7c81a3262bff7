package authz

import (
	"strings"
	"sync"

	"github.com/regworks/companies-register/internal/domain"
)

// Role is a registry-side role an actor may hold.
type Role string

const (
	// RoleRegistrar may approve changes and has auto-approve on submission.
	RoleRegistrar Role = "REGISTRAR"
	// RoleAuthority may approve pending changes but not auto-approve.
	RoleAuthority Role = "AUTHORITY"
	// RoleApplicant may submit changes only.
	RoleApplicant Role = "APPLICANT"
)

// Directory maps actor identities to roles. It implements the workflow
// engine's capability contract: queries are pure, and unknown or
// unauthenticated actors simply hold no capability. Lookups never fail.
type Directory struct {
	mu    sync.RWMutex
	roles map[string][]Role
}

// NewDirectory creates a directory from an actor-to-roles assignment, as
// loaded from configuration.
func NewDirectory(assignments map[string][]string) *Directory {
	directory := &Directory{roles: make(map[string][]Role, len(assignments))}
	for actor, names := range assignments {
		roles := make([]Role, 0, len(names))
		for _, name := range names {
			roles = append(roles, Role(strings.ToUpper(strings.TrimSpace(name))))
		}
		directory.roles[actor] = roles
	}
	return directory
}

// Grant assigns a role to an actor.
func (d *Directory) Grant(actor string, role Role) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.roles[actor] = append(d.roles[actor], role)
}

// CanAutoApprove reports whether the actor's submissions skip the approval
// gate. Only registrars auto-approve; the change kind is accepted for future
// per-kind restrictions but does not narrow the answer today.
func (d *Directory) CanAutoApprove(actor string, _ domain.ChangeKind) bool {
	return d.hasAny(actor, RoleRegistrar)
}

// CanApprove reports whether the actor may resolve a pending workflow.
func (d *Directory) CanApprove(actor string, _ domain.ChangeKind) bool {
	return d.hasAny(actor, RoleRegistrar, RoleAuthority)
}

func (d *Directory) hasAny(actor string, wanted ...Role) bool {
	if actor == "" {
		return false
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, held := range d.roles[actor] {
		for _, want := range wanted {
			if held == want {
				return true
			}
		}
	}
	return false
}
