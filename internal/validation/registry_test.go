package validation

import (
	"context"
	"testing"

	"github.com/regworks/companies-register/internal/domain"
	"github.com/regworks/companies-register/internal/workflow"
)

var _ workflow.Validator = (*Registry)(nil)

func TestRegistryDispatchesByKind(t *testing.T) {
	registry := NewRegistry(nil)

	result := registry.Validate(context.Background(), addressRequest("REGISTERED", map[string]any{
		"line1":       "12 Victoria Street",
		"city":        "Wellington",
		"region":      "Wellington",
		"postCode":    "6011",
		"countryCode": "NZ",
	}), nil)
	if !result.Valid {
		t.Fatalf("expected address rule to run, got %v", result.Errors)
	}

	result = registry.Validate(context.Background(), shareRequest(map[string]any{"totalShares": float64(-1)}), nil)
	if result.Valid {
		t.Fatalf("expected share rule to run and fail")
	}
}

func TestRegistryUnknownKindFails(t *testing.T) {
	registry := NewRegistry(nil)

	req := addressRequest("REGISTERED", map[string]any{"line1": "x"})
	req.Kind = "DIRECTOR"

	result := registry.Validate(context.Background(), req, nil)
	if result.Valid {
		t.Fatalf("expected unknown kind to fail validation")
	}
}

func TestRegistryCancelledContextFails(t *testing.T) {
	registry := NewRegistry(nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := registry.Validate(ctx, nameRequest("Harbour Freight Limited"), nil)
	if result.Valid {
		t.Fatalf("expected cancelled context to fail validation rather than pass")
	}
}

type alwaysFailRule struct{}

func (alwaysFailRule) Validate(_ context.Context, _ domain.ChangeRequest, _ map[string]any) domain.ValidationResult {
	return domain.ValidationFailure("nope")
}

func TestRegistryRegisterReplacesRule(t *testing.T) {
	registry := NewRegistry(nil)
	registry.Register(domain.ChangeKindCompanyName, alwaysFailRule{})

	result := registry.Validate(context.Background(), nameRequest("Harbour Freight Limited"), nil)
	if result.Valid {
		t.Fatalf("expected replacement rule to run")
	}
}
