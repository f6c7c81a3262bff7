package validation

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/regworks/companies-register/internal/domain"
)

func shareRequest(value map[string]any) domain.ChangeRequest {
	return domain.ChangeRequest{
		CompanyID:     uuid.New(),
		Kind:          domain.ChangeKindShareAllocation,
		Subtype:       "ORDINARY",
		ProposedValue: value,
	}
}

func TestShareAllocationRuleValid(t *testing.T) {
	result := ShareAllocationRule{}.Validate(context.Background(), shareRequest(map[string]any{
		"totalShares": float64(1000),
		"parValue":    1.0,
		"amountPaid":  500.0,
	}), nil)

	if !result.Valid {
		t.Fatalf("expected valid allocation, got %v", result.Errors)
	}
}

func TestShareAllocationRuleErrors(t *testing.T) {
	cases := []struct {
		name  string
		value map[string]any
	}{
		{"missing totalShares", map[string]any{"parValue": 1.0}},
		{"zero totalShares", map[string]any{"totalShares": float64(0)}},
		{"negative totalShares", map[string]any{"totalShares": float64(-10)}},
		{"fractional totalShares", map[string]any{"totalShares": 10.5}},
		{"negative parValue", map[string]any{"totalShares": float64(100), "parValue": -1.0}},
		{"negative amountPaid", map[string]any{"totalShares": float64(100), "parValue": 1.0, "amountPaid": -5.0}},
		{"overpaid", map[string]any{"totalShares": float64(100), "parValue": 1.0, "amountPaid": 150.0}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := ShareAllocationRule{}.Validate(context.Background(), shareRequest(tc.value), nil)
			if result.Valid {
				t.Fatalf("expected invalid allocation")
			}
		})
	}
}

func TestShareAllocationRuleWarnsOnNothingPaid(t *testing.T) {
	result := ShareAllocationRule{}.Validate(context.Background(), shareRequest(map[string]any{
		"totalShares": float64(100),
		"parValue":    1.0,
		"amountPaid":  0.0,
	}), nil)

	if !result.Valid {
		t.Fatalf("zero paid is a warning, not an error: %v", result.Errors)
	}
	if !result.HasWarnings() {
		t.Fatalf("expected a warning about unpaid shares")
	}
}

func TestShareAllocationRuleWarnsOnReduction(t *testing.T) {
	result := ShareAllocationRule{}.Validate(context.Background(), shareRequest(map[string]any{
		"totalShares": float64(100),
	}), map[string]any{
		"totalShares": float64(1000),
	})

	if !result.Valid {
		t.Fatalf("share reduction is a warning, not an error: %v", result.Errors)
	}
	if !result.HasWarnings() || len(result.Suggestions) == 0 {
		t.Fatalf("expected warning and suggestion for a share reduction, got %+v", result)
	}
}

func TestShareAllocationRuleAcceptsIntegerInput(t *testing.T) {
	result := ShareAllocationRule{}.Validate(context.Background(), shareRequest(map[string]any{
		"totalShares": 1000,
	}), nil)

	if !result.Valid {
		t.Fatalf("integer-typed share counts must be accepted: %v", result.Errors)
	}
}
