package workflow

import (
	"fmt"

	"github.com/regworks/companies-register/internal/domain"
)

// ValidationError reports a malformed request input. It is distinct from a
// failing domain.ValidationResult, which represents business-rule validation
// of an otherwise well-formed request.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid request: " + e.Reason
}

// StateError reports an operation attempted from a workflow state that
// forbids it, such as approving a workflow that is not pending.
type StateError struct {
	Op     string
	Status domain.WorkflowStatus
}

func (e *StateError) Error() string {
	return fmt.Sprintf("cannot %s workflow in state %s", e.Op, e.Status)
}

// AuthorizationError reports an actor lacking the capability an operation
// requires.
type AuthorizationError struct {
	Actor      string
	Capability string
}

func (e *AuthorizationError) Error() string {
	if e.Actor == "" {
		return "unauthenticated actor lacks capability " + e.Capability
	}
	return fmt.Sprintf("actor %s lacks capability %s", e.Actor, e.Capability)
}

// ExecutionError reports a persistence write that failed or timed out after
// an approval decision. The workflow remains PENDING_APPROVAL: the decision
// is only durable once the write confirms.
type ExecutionError struct {
	Err error
}

func (e *ExecutionError) Error() string {
	return "change execution failed: " + e.Err.Error()
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}
