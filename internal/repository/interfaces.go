package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/regworks/companies-register/internal/domain"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrNotPending is returned when a workflow transition is attempted
	// against a row no longer in PENDING_APPROVAL.
	ErrNotPending = errors.New("workflow is not pending approval")
	// ErrVersionConflict is returned when the optimistic version check fails.
	ErrVersionConflict = errors.New("company version conflict")
)

// CompanyRepository defines the interface for register entity operations. Its
// CurrentValue and ApplyChange methods are the workflow engine's persistence
// collaborator.
type CompanyRepository interface {
	Create(ctx context.Context, company domain.Company) (domain.Company, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Company, error)
	GetByNumber(ctx context.Context, companyNumber string) (domain.Company, error)
	List(ctx context.Context, limit, offset int) ([]domain.Company, int, error)

	CurrentValue(ctx context.Context, req domain.ChangeRequest) (map[string]any, bool, error)
	ApplyChange(ctx context.Context, wf domain.ChangeWorkflow) (map[string]any, error)
}

// WorkflowRepository persists change workflows. MarkApproved and MarkRejected
// guard the transition with a pending-status predicate so a resolved workflow
// can never be resolved twice.
type WorkflowRepository interface {
	Create(ctx context.Context, wf domain.ChangeWorkflow) error
	GetByID(ctx context.Context, id uuid.UUID) (domain.ChangeWorkflow, error)
	Status(ctx context.Context, id uuid.UUID) (domain.WorkflowStatus, bool, error)
	ListByCompany(ctx context.Context, companyID uuid.UUID, status domain.WorkflowStatus, limit, offset int) ([]domain.ChangeWorkflow, error)
	MarkApproved(ctx context.Context, wf domain.ChangeWorkflow) error
	MarkRejected(ctx context.Context, wf domain.ChangeWorkflow) error
}

// AuditLogRepository stores the immutable change audit trail.
type AuditLogRepository interface {
	Record(ctx context.Context, entry domain.AuditEntry) error
	ListByCompany(ctx context.Context, companyID uuid.UUID, limit, offset int) ([]domain.AuditEntry, error)
}
