package api

import (
	"github.com/regworks/companies-register/internal/domain"
)

// WorkflowResponse is the standard success shape for single-change
// operations: the workflow is valid and approved, auto-approved or pending.
type WorkflowResponse struct {
	Success     bool                   `json:"success"`
	Workflow    *domain.ChangeWorkflow `json:"workflow"`
	Warnings    []string               `json:"warnings"`
	Suggestions []string               `json:"suggestions"`
}

// FailureResponse is the failure shape used when no workflow was produced.
type FailureResponse struct {
	Success bool     `json:"success"`
	Errors  []string `json:"errors"`
}

// ValidationResponse is the pre-commit check shape. Workflow is null when
// validation failed.
type ValidationResponse struct {
	Success     bool                   `json:"success"`
	Workflow    *domain.ChangeWorkflow `json:"workflow"`
	Errors      []string               `json:"errors"`
	Warnings    []string               `json:"warnings"`
	Suggestions []string               `json:"suggestions"`
}

// BulkResponse is the bulk shape: the result plus its numeric summary.
type BulkResponse struct {
	Success bool                     `json:"success"`
	Result  domain.BulkUpdateResult  `json:"result"`
	Summary domain.BulkUpdateSummary `json:"summary"`
}

// BuildSuccess renders a workflow that is approved or awaiting approval.
func BuildSuccess(wf domain.ChangeWorkflow) WorkflowResponse {
	return WorkflowResponse{
		Success:     true,
		Workflow:    &wf,
		Warnings:    wf.Validation.Warnings,
		Suggestions: wf.Validation.Suggestions,
	}
}

// BuildFailure renders an operation that produced no workflow at all.
func BuildFailure(errors ...string) FailureResponse {
	return FailureResponse{Success: false, Errors: errors}
}

// BuildValidation renders the outcome of a validation pass. The workflow is
// included only when it passed.
func BuildValidation(wf domain.ChangeWorkflow) ValidationResponse {
	response := ValidationResponse{
		Success:     wf.Validation.Valid,
		Errors:      wf.Validation.Errors,
		Warnings:    wf.Validation.Warnings,
		Suggestions: wf.Validation.Suggestions,
	}
	if wf.Validation.Valid {
		response.Workflow = &wf
	}
	return response
}

// BuildExecutionFailure renders a workflow whose approval write failed. The
// workflow exists and stays pending, so callers can retry the approval; the
// failure travels alongside it.
func BuildExecutionFailure(wf domain.ChangeWorkflow, errText string) ValidationResponse {
	return ValidationResponse{
		Success:     false,
		Workflow:    &wf,
		Errors:      []string{errText},
		Warnings:    wf.Validation.Warnings,
		Suggestions: wf.Validation.Suggestions,
	}
}

// BuildBulk renders a bulk result. Success means the batch settled.
func BuildBulk(result domain.BulkUpdateResult) BulkResponse {
	return BulkResponse{
		Success: result.Status == domain.BulkCompleted,
		Result:  result,
		Summary: result.Summary(),
	}
}
