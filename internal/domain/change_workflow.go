package domain

import (
	"time"

	"github.com/google/uuid"
)

// WorkflowStatus enumerates the states of a single change workflow.
// VALIDATION_FAILED, APPROVED and REJECTED are terminal; PENDING_APPROVAL is
// the only state that accepts a transition.
type WorkflowStatus string

const (
	WorkflowValidationFailed WorkflowStatus = "VALIDATION_FAILED"
	WorkflowPendingApproval  WorkflowStatus = "PENDING_APPROVAL"
	WorkflowApproved         WorkflowStatus = "APPROVED"
	WorkflowRejected         WorkflowStatus = "REJECTED"
)

// Terminal reports whether no further transition is possible from the status.
func (s WorkflowStatus) Terminal() bool {
	return s != WorkflowPendingApproval
}

// ChangeWorkflow wraps one proposed change through its lifecycle. Instances
// are immutable: transitions return a new value via the With* methods, so a
// workflow handed to a caller never changes underneath it. Resubmission of a
// changed proposal always starts a fresh workflow.
type ChangeWorkflow struct {
	ID              uuid.UUID        `json:"id"`
	CompanyID       uuid.UUID        `json:"companyId"`
	Kind            ChangeKind       `json:"kind"`
	Subtype         string           `json:"subtype,omitempty"`
	CurrentValue    map[string]any   `json:"currentValue,omitempty"`
	ProposedValue   map[string]any   `json:"proposedValue"`
	EffectiveDate   time.Time        `json:"effectiveDate"`
	Status          WorkflowStatus   `json:"status"`
	Validation      ValidationResult `json:"validation"`
	RequestedBy     string           `json:"requestedBy,omitempty"`
	RequestedAt     time.Time        `json:"requestedAt"`
	ApprovedBy      string           `json:"approvedBy,omitempty"`
	ApprovedAt      *time.Time       `json:"approvedAt,omitempty"`
	RejectedBy      string           `json:"rejectedBy,omitempty"`
	RejectedAt      *time.Time       `json:"rejectedAt,omitempty"`
	RejectionReason string           `json:"rejectionReason,omitempty"`
	ExecutedValue   map[string]any   `json:"executedValue,omitempty"`
}

// NewChangeWorkflow constructs a workflow from a request, the value currently
// on the register (nil for first-time creation) and the validation outcome.
// The initial status is VALIDATION_FAILED or PENDING_APPROVAL; promotion to
// APPROVED, including the auto-approve path, always goes through WithApproval.
func NewChangeWorkflow(req ChangeRequest, current map[string]any, validation ValidationResult, now time.Time) ChangeWorkflow {
	status := WorkflowPendingApproval
	if !validation.Valid {
		status = WorkflowValidationFailed
	}
	return ChangeWorkflow{
		ID:            uuid.New(),
		CompanyID:     req.CompanyID,
		Kind:          req.Kind,
		Subtype:       req.Subtype,
		CurrentValue:  copyValue(current),
		ProposedValue: copyValue(req.ProposedValue),
		EffectiveDate: req.EffectiveDate,
		Status:        status,
		Validation:    validation,
		RequestedBy:   req.RequestedBy,
		RequestedAt:   now,
	}
}

// WithApproval returns the approved successor of a pending workflow, carrying
// the executed (possibly normalized) value written to the register.
func (w ChangeWorkflow) WithApproval(approver string, at time.Time, executed map[string]any) ChangeWorkflow {
	next := w
	next.Status = WorkflowApproved
	next.ApprovedBy = approver
	next.ApprovedAt = &at
	next.ExecutedValue = copyValue(executed)
	return next
}

// WithRejection returns the rejected successor of a pending workflow. No
// execution occurs: ExecutedValue stays nil permanently.
func (w ChangeWorkflow) WithRejection(actor string, at time.Time, reason string) ChangeWorkflow {
	next := w
	next.Status = WorkflowRejected
	next.RejectedBy = actor
	next.RejectedAt = &at
	next.RejectionReason = reason
	return next
}

// IsApproved reports whether the workflow reached APPROVED.
func (w ChangeWorkflow) IsApproved() bool {
	return w.Status == WorkflowApproved
}

// IsRejected reports whether the workflow reached REJECTED.
func (w ChangeWorkflow) IsRejected() bool {
	return w.Status == WorkflowRejected
}

// IsPending reports whether the workflow still awaits an approval decision.
func (w ChangeWorkflow) IsPending() bool {
	return w.Status == WorkflowPendingApproval
}

// HasValidationErrors reports whether business-rule validation failed. This
// holds exactly when the status is VALIDATION_FAILED.
func (w ChangeWorkflow) HasValidationErrors() bool {
	return w.Validation.HasErrors()
}

// HasValidationWarnings reports whether validation produced advisory warnings.
func (w ChangeWorkflow) HasValidationWarnings() bool {
	return w.Validation.HasWarnings()
}

// copyValue creates a shallow copy of a proposed/executed value map so callers
// holding the source cannot mutate workflow state.
func copyValue(value map[string]any) map[string]any {
	if value == nil {
		return nil
	}
	out := make(map[string]any, len(value))
	for k, v := range value {
		out[k] = v
	}
	return out
}
