package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/regworks/companies-register/internal/domain"
)

// nullableString maps an empty string onto SQL NULL.
func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// nullableTime maps the zero time onto SQL NULL.
func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// workflowRepository implements WorkflowRepository over Postgres.
type workflowRepository struct {
	pool *pgxpool.Pool
}

// NewWorkflowRepository creates a new workflow repository.
func NewWorkflowRepository(pool *pgxpool.Pool) WorkflowRepository {
	return &workflowRepository{pool: pool}
}

const workflowColumns = `id, company_id, kind, subtype, current_value, proposed_value, effective_date,
	status, validation, requested_by, requested_at, approved_by, approved_at,
	rejected_by, rejected_at, rejection_reason, executed_value`

// Create persists a freshly submitted workflow, whatever its initial status.
func (r *workflowRepository) Create(ctx context.Context, wf domain.ChangeWorkflow) error {
	currentJSON, proposedJSON, executedJSON, validationJSON, err := marshalWorkflowJSON(wf)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO change_workflows (id, company_id, kind, subtype, current_value, proposed_value,
			effective_date, status, validation, requested_by, requested_at, approved_by, approved_at,
			rejected_by, rejected_at, rejection_reason, executed_value)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		wf.ID, wf.CompanyID, wf.Kind, wf.Subtype, currentJSON, proposedJSON,
		nullableTime(wf.EffectiveDate), wf.Status, validationJSON, wf.RequestedBy, wf.RequestedAt,
		nullableString(wf.ApprovedBy), wf.ApprovedAt,
		nullableString(wf.RejectedBy), wf.RejectedAt, nullableString(wf.RejectionReason), executedJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to create workflow: %w", err)
	}
	return nil
}

// GetByID retrieves a workflow by ID.
func (r *workflowRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.ChangeWorkflow, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+workflowColumns+` FROM change_workflows WHERE id = $1`, id)
	wf, err := scanWorkflow(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ChangeWorkflow{}, ErrNotFound
	}
	if err != nil {
		return domain.ChangeWorkflow{}, fmt.Errorf("failed to get workflow: %w", err)
	}
	return wf, nil
}

// Status reads just the persisted status of a workflow. The boolean is false
// when no row exists. The workflow engine consults this under its record lock
// before resolving a pending workflow.
func (r *workflowRepository) Status(ctx context.Context, id uuid.UUID) (domain.WorkflowStatus, bool, error) {
	var status domain.WorkflowStatus
	err := r.pool.QueryRow(ctx, `SELECT status FROM change_workflows WHERE id = $1`, id).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read workflow status: %w", err)
	}
	return status, true, nil
}

// ListByCompany retrieves workflows for a company, optionally filtered by
// status, newest first.
func (r *workflowRepository) ListByCompany(ctx context.Context, companyID uuid.UUID, status domain.WorkflowStatus, limit, offset int) ([]domain.ChangeWorkflow, error) {
	query := `SELECT ` + workflowColumns + ` FROM change_workflows WHERE company_id = $1`
	args := []any{companyID}
	if status != "" {
		query += ` AND status = $2`
		args = append(args, status)
	}
	query += fmt.Sprintf(` ORDER BY requested_at DESC LIMIT %d OFFSET %d`, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}
	defer rows.Close()

	workflows := make([]domain.ChangeWorkflow, 0)
	for rows.Next() {
		wf, err := scanWorkflow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workflow: %w", err)
		}
		workflows = append(workflows, wf)
	}
	return workflows, rows.Err()
}

// MarkApproved persists the APPROVED transition. The pending-status predicate
// makes the write at-most-once: a second approval of the same workflow
// affects zero rows and reports ErrNotPending.
func (r *workflowRepository) MarkApproved(ctx context.Context, wf domain.ChangeWorkflow) error {
	executedJSON, err := json.Marshal(wf.ExecutedValue)
	if err != nil {
		return fmt.Errorf("failed to marshal executed value: %w", err)
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE change_workflows
		SET status = $1, approved_by = $2, approved_at = $3, executed_value = $4
		WHERE id = $5 AND status = $6`,
		domain.WorkflowApproved, wf.ApprovedBy, wf.ApprovedAt, executedJSON,
		wf.ID, domain.WorkflowPendingApproval,
	)
	if err != nil {
		return fmt.Errorf("failed to mark workflow approved: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotPending
	}
	return nil
}

// MarkRejected persists the REJECTED transition under the same pending guard.
func (r *workflowRepository) MarkRejected(ctx context.Context, wf domain.ChangeWorkflow) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE change_workflows
		SET status = $1, rejected_by = $2, rejected_at = $3, rejection_reason = $4
		WHERE id = $5 AND status = $6`,
		domain.WorkflowRejected, wf.RejectedBy, wf.RejectedAt, wf.RejectionReason,
		wf.ID, domain.WorkflowPendingApproval,
	)
	if err != nil {
		return fmt.Errorf("failed to mark workflow rejected: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotPending
	}
	return nil
}

func marshalWorkflowJSON(wf domain.ChangeWorkflow) (current, proposed, executed, validation []byte, err error) {
	if wf.CurrentValue != nil {
		if current, err = json.Marshal(wf.CurrentValue); err != nil {
			return nil, nil, nil, nil, fmt.Errorf("failed to marshal current value: %w", err)
		}
	}
	if proposed, err = json.Marshal(wf.ProposedValue); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to marshal proposed value: %w", err)
	}
	if wf.ExecutedValue != nil {
		if executed, err = json.Marshal(wf.ExecutedValue); err != nil {
			return nil, nil, nil, nil, fmt.Errorf("failed to marshal executed value: %w", err)
		}
	}
	if validation, err = json.Marshal(wf.Validation); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to marshal validation result: %w", err)
	}
	return current, proposed, executed, validation, nil
}

func scanWorkflow(row pgx.Row) (domain.ChangeWorkflow, error) {
	var (
		wf                                      domain.ChangeWorkflow
		currentJSON, proposedJSON, executedJSON []byte
		validationJSON                          []byte
		effective                               *time.Time
		approvedBy, rejectedBy, rejectionReason *string
	)

	err := row.Scan(&wf.ID, &wf.CompanyID, &wf.Kind, &wf.Subtype, &currentJSON, &proposedJSON,
		&effective, &wf.Status, &validationJSON, &wf.RequestedBy, &wf.RequestedAt,
		&approvedBy, &wf.ApprovedAt, &rejectedBy, &wf.RejectedAt, &rejectionReason, &executedJSON)
	if err != nil {
		return domain.ChangeWorkflow{}, err
	}

	if effective != nil {
		wf.EffectiveDate = *effective
	}
	if approvedBy != nil {
		wf.ApprovedBy = *approvedBy
	}
	if rejectedBy != nil {
		wf.RejectedBy = *rejectedBy
	}
	if rejectionReason != nil {
		wf.RejectionReason = *rejectionReason
	}
	if len(currentJSON) > 0 {
		if err := json.Unmarshal(currentJSON, &wf.CurrentValue); err != nil {
			return domain.ChangeWorkflow{}, fmt.Errorf("failed to unmarshal current value: %w", err)
		}
	}
	if err := json.Unmarshal(proposedJSON, &wf.ProposedValue); err != nil {
		return domain.ChangeWorkflow{}, fmt.Errorf("failed to unmarshal proposed value: %w", err)
	}
	if len(executedJSON) > 0 {
		if err := json.Unmarshal(executedJSON, &wf.ExecutedValue); err != nil {
			return domain.ChangeWorkflow{}, fmt.Errorf("failed to unmarshal executed value: %w", err)
		}
	}
	if err := json.Unmarshal(validationJSON, &wf.Validation); err != nil {
		return domain.ChangeWorkflow{}, fmt.Errorf("failed to unmarshal validation result: %w", err)
	}
	return wf, nil
}
