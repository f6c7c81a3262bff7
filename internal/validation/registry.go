package validation

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/regworks/companies-register/internal/domain"
)

// Rule validates one change kind. Implementations must fold the failure of
// any external lookup into the result as a validation error rather than
// returning it; the engine never sees rule errors.
type Rule interface {
	Validate(ctx context.Context, req domain.ChangeRequest, current map[string]any) domain.ValidationResult
}

// Registry dispatches validation to the rule registered for a change kind.
// It implements the workflow engine's Validator contract.
type Registry struct {
	rules  map[domain.ChangeKind]Rule
	logger *zap.Logger
}

// NewRegistry creates a registry preloaded with the register's standard rules.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	registry := &Registry{
		rules:  make(map[domain.ChangeKind]Rule),
		logger: logger,
	}
	registry.Register(domain.ChangeKindAddress, AddressRule{})
	registry.Register(domain.ChangeKindShareAllocation, ShareAllocationRule{})
	registry.Register(domain.ChangeKindCompanyName, CompanyNameRule{})
	return registry
}

// Register installs or replaces the rule for a change kind.
func (r *Registry) Register(kind domain.ChangeKind, rule Rule) {
	r.rules[kind] = rule
}

// Validate runs the rule for the request's kind. An unregistered kind fails
// validation; a cancelled context fails validation rather than erroring, so
// an interrupted submission simply discards its in-progress workflow.
func (r *Registry) Validate(ctx context.Context, req domain.ChangeRequest, current map[string]any) domain.ValidationResult {
	if err := ctx.Err(); err != nil {
		return domain.ValidationFailure(fmt.Sprintf("validation aborted: %v", err))
	}

	rule, ok := r.rules[req.Kind]
	if !ok {
		r.logger.Warn("no validation rule registered", zap.String("kind", string(req.Kind)))
		return domain.ValidationFailure(fmt.Sprintf("no validation rule for change kind %s", req.Kind))
	}

	return rule.Validate(ctx, req, current)
}
