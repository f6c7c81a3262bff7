package domain

import (
	"github.com/google/uuid"
)

// BulkStatus is the aggregate outcome of a bulk change operation.
type BulkStatus string

const (
	BulkValidationFailed BulkStatus = "VALIDATION_FAILED"
	BulkPendingApproval  BulkStatus = "PENDING_APPROVAL"
	BulkCompleted        BulkStatus = "COMPLETED"
)

// BulkUpdateResult aggregates the outcome of running many change requests
// against one company. Workflows preserves request order. Errors holds
// top-level messages for requests that never became a workflow (malformed
// input). Counts are derived from the workflow list on demand so they cannot
// drift from it.
type BulkUpdateResult struct {
	CompanyID uuid.UUID        `json:"companyId"`
	Workflows []ChangeWorkflow `json:"workflows"`
	Errors    []string         `json:"errors"`
	Status    BulkStatus       `json:"status"`
}

// NewBulkUpdateResult folds per-item outcomes into an aggregate result. Status
// precedence: VALIDATION_FAILED when every produced workflow failed validation
// (or nothing but top-level errors was produced), then PENDING_APPROVAL while
// any item still awaits a decision, otherwise COMPLETED. A bulk result is
// pending if and only if at least one more approval action is required.
func NewBulkUpdateResult(companyID uuid.UUID, workflows []ChangeWorkflow, errors []string) BulkUpdateResult {
	result := BulkUpdateResult{
		CompanyID: companyID,
		Workflows: append([]ChangeWorkflow(nil), workflows...),
		Errors:    copyStrings(errors),
	}
	result.Status = deriveBulkStatus(result.Workflows, result.Errors)
	return result
}

func deriveBulkStatus(workflows []ChangeWorkflow, errors []string) BulkStatus {
	allFailed := len(workflows) > 0
	anyPending := false
	for _, wf := range workflows {
		if wf.Status != WorkflowValidationFailed {
			allFailed = false
		}
		if wf.IsPending() {
			anyPending = true
		}
	}
	if allFailed || (len(workflows) == 0 && len(errors) > 0) {
		return BulkValidationFailed
	}
	if anyPending {
		return BulkPendingApproval
	}
	return BulkCompleted
}

// SuccessCount is the number of workflows that reached APPROVED.
func (r BulkUpdateResult) SuccessCount() int {
	return r.countByStatus(WorkflowApproved)
}

// PendingCount is the number of workflows still awaiting approval.
func (r BulkUpdateResult) PendingCount() int {
	return r.countByStatus(WorkflowPendingApproval)
}

// FailedCount is the number of workflows that failed validation.
func (r BulkUpdateResult) FailedCount() int {
	return r.countByStatus(WorkflowValidationFailed)
}

// RejectedCount is the number of workflows an approver rejected.
func (r BulkUpdateResult) RejectedCount() int {
	return r.countByStatus(WorkflowRejected)
}

func (r BulkUpdateResult) countByStatus(status WorkflowStatus) int {
	count := 0
	for _, wf := range r.Workflows {
		if wf.Status == status {
			count++
		}
	}
	return count
}

// BulkUpdateSummary is a pure projection of a BulkUpdateResult.
type BulkUpdateSummary struct {
	TotalRequests      int     `json:"totalRequests"`
	SuccessfulUpdates  int     `json:"successfulUpdates"`
	PendingApproval    int     `json:"pendingApproval"`
	ValidationFailures int     `json:"validationFailures"`
	Rejected           int     `json:"rejected"`
	SuccessRate        float64 `json:"successRate"`
	HasErrors          bool    `json:"hasErrors"`
}

// Summary computes the numeric projection of the result. SuccessRate is 0.0
// for an empty batch rather than a division fault.
func (r BulkUpdateResult) Summary() BulkUpdateSummary {
	summary := BulkUpdateSummary{
		TotalRequests:      len(r.Workflows) + len(r.Errors),
		SuccessfulUpdates:  r.SuccessCount(),
		PendingApproval:    r.PendingCount(),
		ValidationFailures: r.FailedCount(),
		Rejected:           r.RejectedCount(),
		HasErrors:          len(r.Errors) > 0,
	}
	for _, wf := range r.Workflows {
		if wf.HasValidationErrors() {
			summary.HasErrors = true
			break
		}
	}
	if summary.TotalRequests > 0 {
		summary.SuccessRate = float64(summary.SuccessfulUpdates) / float64(summary.TotalRequests)
	}
	return summary
}
