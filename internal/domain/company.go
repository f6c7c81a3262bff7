package domain

import (
	"time"

	"github.com/google/uuid"
)

// CompanyStatus is the registration status of a company on the register.
type CompanyStatus string

const (
	CompanyStatusRegistered    CompanyStatus = "REGISTERED"
	CompanyStatusInLiquidation CompanyStatus = "IN_LIQUIDATION"
	CompanyStatusRemoved       CompanyStatus = "REMOVED"
)

// Company is a registered entity. Addresses are keyed by address type
// (REGISTERED, SERVICE, COMMUNICATION) and share allocations by share class;
// both hold free-form property maps the same way change requests propose
// them. Version is the optimistic concurrency token owned by persistence.
type Company struct {
	ID               uuid.UUID                 `json:"id"`
	CompanyNumber    string                    `json:"companyNumber"`
	NZBN             string                    `json:"nzbn,omitempty"`
	Name             string                    `json:"name"`
	Status           CompanyStatus             `json:"status"`
	Addresses        map[string]map[string]any `json:"addresses"`
	ShareAllocations map[string]map[string]any `json:"shareAllocations"`
	Version          int64                     `json:"version"`
	CreatedAt        time.Time                 `json:"created_at"`
	UpdatedAt        time.Time                 `json:"updated_at"`
}

// NewCompany creates a freshly registered company with immutable pattern.
func NewCompany(companyNumber, nzbn, name string) Company {
	now := time.Now()
	return Company{
		ID:               uuid.New(),
		CompanyNumber:    companyNumber,
		NZBN:             nzbn,
		Name:             name,
		Status:           CompanyStatusRegistered,
		Addresses:        map[string]map[string]any{},
		ShareAllocations: map[string]map[string]any{},
		Version:          1,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// WithName returns a new company with an updated legal name.
func (c Company) WithName(name string) Company {
	next := c.clone()
	next.Name = name
	next.UpdatedAt = time.Now()
	return next
}

// WithAddress returns a new company with the given address type replaced.
func (c Company) WithAddress(addressType string, value map[string]any) Company {
	next := c.clone()
	next.Addresses[addressType] = copyValue(value)
	next.UpdatedAt = time.Now()
	return next
}

// WithShareAllocation returns a new company with the given share class replaced.
func (c Company) WithShareAllocation(shareClass string, value map[string]any) Company {
	next := c.clone()
	next.ShareAllocations[shareClass] = copyValue(value)
	next.UpdatedAt = time.Now()
	return next
}

// ValueFor resolves the current register value addressed by a change kind and
// subtype. The second return is false when no value exists yet, as for a
// first-time address or share class creation.
func (c Company) ValueFor(kind ChangeKind, subtype string) (map[string]any, bool) {
	switch kind {
	case ChangeKindAddress:
		value, ok := c.Addresses[subtype]
		return copyValue(value), ok
	case ChangeKindShareAllocation:
		value, ok := c.ShareAllocations[subtype]
		return copyValue(value), ok
	case ChangeKindCompanyName:
		return map[string]any{"name": c.Name}, true
	}
	return nil, false
}

// ApplyExecutedChange returns a new company with the executed value written
// into the slot the workflow addressed.
func (c Company) ApplyExecutedChange(kind ChangeKind, subtype string, executed map[string]any) Company {
	switch kind {
	case ChangeKindAddress:
		return c.WithAddress(subtype, executed)
	case ChangeKindShareAllocation:
		return c.WithShareAllocation(subtype, executed)
	case ChangeKindCompanyName:
		if name, ok := executed["name"].(string); ok {
			return c.WithName(name)
		}
	}
	return c
}

func (c Company) clone() Company {
	next := c
	next.Addresses = make(map[string]map[string]any, len(c.Addresses))
	for k, v := range c.Addresses {
		next.Addresses[k] = copyValue(v)
	}
	next.ShareAllocations = make(map[string]map[string]any, len(c.ShareAllocations))
	for k, v := range c.ShareAllocations {
		next.ShareAllocations[k] = copyValue(v)
	}
	return next
}
