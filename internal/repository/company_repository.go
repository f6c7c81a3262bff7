package repository

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/regworks/companies-register/internal/domain"
)

// companyRepository implements CompanyRepository over Postgres.
type companyRepository struct {
	pool *pgxpool.Pool
}

// NewCompanyRepository creates a new company repository.
func NewCompanyRepository(pool *pgxpool.Pool) CompanyRepository {
	return &companyRepository{pool: pool}
}

const companyColumns = "id, company_number, nzbn, name, status, addresses, share_allocations, version, created_at, updated_at"

// Create registers a new company.
func (r *companyRepository) Create(ctx context.Context, company domain.Company) (domain.Company, error) {
	addresses, err := json.Marshal(company.Addresses)
	if err != nil {
		return domain.Company{}, fmt.Errorf("failed to marshal addresses: %w", err)
	}
	allocations, err := json.Marshal(company.ShareAllocations)
	if err != nil {
		return domain.Company{}, fmt.Errorf("failed to marshal share allocations: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO companies (id, company_number, nzbn, name, status, addresses, share_allocations, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+companyColumns,
		company.ID, company.CompanyNumber, company.NZBN, company.Name, company.Status,
		addresses, allocations, company.Version, company.CreatedAt, company.UpdatedAt,
	)
	created, err := scanCompany(row)
	if err != nil {
		return domain.Company{}, fmt.Errorf("failed to create company: %w", err)
	}
	return created, nil
}

// GetByID retrieves a company by ID.
func (r *companyRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Company, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+companyColumns+` FROM companies WHERE id = $1`, id)
	company, err := scanCompany(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Company{}, ErrNotFound
	}
	if err != nil {
		return domain.Company{}, fmt.Errorf("failed to get company: %w", err)
	}
	return company, nil
}

// GetByNumber retrieves a company by its register number.
func (r *companyRepository) GetByNumber(ctx context.Context, companyNumber string) (domain.Company, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+companyColumns+` FROM companies WHERE company_number = $1`, companyNumber)
	company, err := scanCompany(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Company{}, ErrNotFound
	}
	if err != nil {
		return domain.Company{}, fmt.Errorf("failed to get company by number: %w", err)
	}
	return company, nil
}

// List retrieves a page of companies plus the total count.
func (r *companyRepository) List(ctx context.Context, limit, offset int) ([]domain.Company, int, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+companyColumns+`, COUNT(*) OVER() AS total_count
		FROM companies
		ORDER BY company_number
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list companies: %w", err)
	}
	defer rows.Close()

	companies := make([]domain.Company, 0)
	total := 0
	for rows.Next() {
		var (
			company                domain.Company
			addresses, allocations []byte
			totalCount             int64
		)
		if err := rows.Scan(&company.ID, &company.CompanyNumber, &company.NZBN, &company.Name,
			&company.Status, &addresses, &allocations, &company.Version,
			&company.CreatedAt, &company.UpdatedAt, &totalCount); err != nil {
			return nil, 0, fmt.Errorf("failed to scan company: %w", err)
		}
		if err := unmarshalCompanyJSON(&company, addresses, allocations); err != nil {
			return nil, 0, err
		}
		companies = append(companies, company)
		total = int(totalCount)
	}
	return companies, total, rows.Err()
}

// CurrentValue resolves the register value a change request addresses.
func (r *companyRepository) CurrentValue(ctx context.Context, req domain.ChangeRequest) (map[string]any, bool, error) {
	company, err := r.GetByID(ctx, req.CompanyID)
	if errors.Is(err, ErrNotFound) {
		return nil, false, fmt.Errorf("company %s is not on the register", req.CompanyID)
	}
	if err != nil {
		return nil, false, err
	}
	value, ok := company.ValueFor(req.Kind, req.Subtype)
	return value, ok, nil
}

// ApplyChange writes an approved change through to the register inside a
// transaction. A per-company advisory lock plus an optimistic version check
// keep concurrent writers from interleaving. The normalized value actually
// written is returned as the executed value.
func (r *companyRepository) ApplyChange(ctx context.Context, wf domain.ChangeWorkflow) (map[string]any, error) {
	executed := normalizeValue(wf.Kind, wf.ProposedValue)

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, advisoryKey(wf.CompanyID)); err != nil {
		return nil, fmt.Errorf("failed to acquire company lock: %w", err)
	}

	row := tx.QueryRow(ctx, `SELECT `+companyColumns+` FROM companies WHERE id = $1 FOR UPDATE`, wf.CompanyID)
	company, err := scanCompany(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("company %s is not on the register", wf.CompanyID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load company for update: %w", err)
	}

	updated := company.ApplyExecutedChange(wf.Kind, wf.Subtype, executed)
	addresses, err := json.Marshal(updated.Addresses)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal addresses: %w", err)
	}
	allocations, err := json.Marshal(updated.ShareAllocations)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal share allocations: %w", err)
	}

	tag, err := tx.Exec(ctx, `
		UPDATE companies
		SET name = $1, addresses = $2, share_allocations = $3, version = version + 1, updated_at = NOW()
		WHERE id = $4 AND version = $5`,
		updated.Name, addresses, allocations, wf.CompanyID, company.Version,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update company: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrVersionConflict
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit change: %w", err)
	}
	return executed, nil
}

// normalizeValue trims string fields and canonicalizes casing before the
// value hits the register. The result is what callers see as ExecutedValue.
func normalizeValue(kind domain.ChangeKind, value map[string]any) map[string]any {
	normalized := make(map[string]any, len(value))
	for k, v := range value {
		if s, ok := v.(string); ok {
			normalized[k] = strings.TrimSpace(s)
		} else {
			normalized[k] = v
		}
	}
	switch kind {
	case domain.ChangeKindAddress:
		if code, ok := normalized["countryCode"].(string); ok {
			normalized["countryCode"] = strings.ToUpper(code)
		} else {
			normalized["countryCode"] = "NZ"
		}
	case domain.ChangeKindCompanyName:
		if name, ok := normalized["name"].(string); ok {
			normalized["name"] = strings.Join(strings.Fields(name), " ")
		}
	}
	return normalized
}

// advisoryKey folds a company id into the bigint keyspace of
// pg_advisory_xact_lock.
func advisoryKey(id uuid.UUID) int64 {
	return int64(binary.BigEndian.Uint64(id[:8]))
}

func scanCompany(row pgx.Row) (domain.Company, error) {
	var (
		company                domain.Company
		addresses, allocations []byte
	)
	err := row.Scan(&company.ID, &company.CompanyNumber, &company.NZBN, &company.Name,
		&company.Status, &addresses, &allocations, &company.Version,
		&company.CreatedAt, &company.UpdatedAt)
	if err != nil {
		return domain.Company{}, err
	}
	if err := unmarshalCompanyJSON(&company, addresses, allocations); err != nil {
		return domain.Company{}, err
	}
	return company, nil
}

func unmarshalCompanyJSON(company *domain.Company, addresses, allocations []byte) error {
	if len(addresses) > 0 {
		if err := json.Unmarshal(addresses, &company.Addresses); err != nil {
			return fmt.Errorf("failed to unmarshal addresses: %w", err)
		}
	}
	if company.Addresses == nil {
		company.Addresses = map[string]map[string]any{}
	}
	if len(allocations) > 0 {
		if err := json.Unmarshal(allocations, &company.ShareAllocations); err != nil {
			return fmt.Errorf("failed to unmarshal share allocations: %w", err)
		}
	}
	if company.ShareAllocations == nil {
		company.ShareAllocations = map[string]map[string]any{}
	}
	return nil
}
