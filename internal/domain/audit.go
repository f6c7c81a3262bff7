package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction names a recorded workflow transition.
type AuditAction string

const (
	AuditSubmitted        AuditAction = "SUBMITTED"
	AuditValidationFailed AuditAction = "VALIDATION_FAILED"
	AuditAutoApproved     AuditAction = "AUTO_APPROVED"
	AuditApproved         AuditAction = "APPROVED"
	AuditRejected         AuditAction = "REJECTED"
)

// AuditEntry is one immutable record in the change audit trail.
type AuditEntry struct {
	ID         uuid.UUID   `json:"id"`
	WorkflowID uuid.UUID   `json:"workflowId"`
	CompanyID  uuid.UUID   `json:"companyId"`
	Action     AuditAction `json:"action"`
	Actor      string      `json:"actor,omitempty"`
	Detail     string      `json:"detail,omitempty"`
	OccurredAt time.Time   `json:"occurredAt"`
}

// NewAuditEntry records an action taken on a workflow.
func NewAuditEntry(wf ChangeWorkflow, action AuditAction, actor, detail string, at time.Time) AuditEntry {
	return AuditEntry{
		ID:         uuid.New(),
		WorkflowID: wf.ID,
		CompanyID:  wf.CompanyID,
		Action:     action,
		Actor:      actor,
		Detail:     detail,
		OccurredAt: at,
	}
}
