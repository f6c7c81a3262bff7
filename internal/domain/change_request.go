package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ChangeKind identifies which part of the register a change request targets.
type ChangeKind string

const (
	ChangeKindAddress         ChangeKind = "ADDRESS"
	ChangeKindShareAllocation ChangeKind = "SHARE_ALLOCATION"
	ChangeKindCompanyName     ChangeKind = "COMPANY_NAME"
)

// KnownChangeKinds lists every change kind the register accepts.
var KnownChangeKinds = []ChangeKind{
	ChangeKindAddress,
	ChangeKindShareAllocation,
	ChangeKindCompanyName,
}

// Valid reports whether the kind is one the register accepts.
func (k ChangeKind) Valid() bool {
	switch k {
	case ChangeKindAddress, ChangeKindShareAllocation, ChangeKindCompanyName:
		return true
	}
	return false
}

// ChangeRequest is one proposed mutation to a registered company. Subtype
// qualifies the kind: an address type for ADDRESS changes, a share class for
// SHARE_ALLOCATION changes, empty for COMPANY_NAME changes. RequestedBy is
// empty for system-initiated changes.
type ChangeRequest struct {
	CompanyID     uuid.UUID      `json:"companyId"`
	Kind          ChangeKind     `json:"kind"`
	Subtype       string         `json:"subtype,omitempty"`
	ProposedValue map[string]any `json:"proposedValue"`
	EffectiveDate time.Time      `json:"effectiveDate"`
	RequestedBy   string         `json:"requestedBy,omitempty"`
}

// CheckShape verifies the request is well formed enough to enter the workflow.
// This is a structural check only; business rules run in the validation
// pipeline once a workflow exists.
func (r ChangeRequest) CheckShape() error {
	if r.CompanyID == uuid.Nil {
		return fmt.Errorf("company id is required")
	}
	if !r.Kind.Valid() {
		return fmt.Errorf("unknown change kind %q", string(r.Kind))
	}
	if r.Kind != ChangeKindCompanyName && strings.TrimSpace(r.Subtype) == "" {
		return fmt.Errorf("subtype is required for %s changes", r.Kind)
	}
	if len(r.ProposedValue) == 0 {
		return fmt.Errorf("proposed value is required")
	}
	return nil
}

// TargetKey identifies the register record the request addresses. Requests
// sharing a key contend for the same record and must be serialized.
func (r ChangeRequest) TargetKey() string {
	return r.CompanyID.String() + "/" + string(r.Kind) + "/" + r.Subtype
}
