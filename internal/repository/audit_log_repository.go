package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/regworks/companies-register/internal/domain"
)

// auditLogRepository stores workflow transitions for observability and the
// statutory audit trail.
type auditLogRepository struct {
	pool *pgxpool.Pool
}

// NewAuditLogRepository creates a new audit log repository.
func NewAuditLogRepository(pool *pgxpool.Pool) AuditLogRepository {
	return &auditLogRepository{pool: pool}
}

// Record appends one audit entry. Entries are never updated or deleted.
func (r *auditLogRepository) Record(ctx context.Context, entry domain.AuditEntry) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO change_audit_log (id, workflow_id, company_id, action, actor, detail, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.ID, entry.WorkflowID, entry.CompanyID, entry.Action,
		nullableString(entry.Actor), nullableString(entry.Detail), entry.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record audit entry: %w", err)
	}
	return nil
}

// ListByCompany retrieves the audit trail for a company, newest first.
func (r *auditLogRepository) ListByCompany(ctx context.Context, companyID uuid.UUID, limit, offset int) ([]domain.AuditEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, workflow_id, company_id, action, actor, detail, occurred_at
		FROM change_audit_log
		WHERE company_id = $1
		ORDER BY occurred_at DESC
		LIMIT $2 OFFSET $3`, companyID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.AuditEntry, 0)
	for rows.Next() {
		var (
			entry         domain.AuditEntry
			actor, detail *string
		)
		if err := rows.Scan(&entry.ID, &entry.WorkflowID, &entry.CompanyID, &entry.Action,
			&actor, &detail, &entry.OccurredAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		if actor != nil {
			entry.Actor = *actor
		}
		if detail != nil {
			entry.Detail = *detail
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
