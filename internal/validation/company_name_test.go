package validation

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/regworks/companies-register/internal/domain"
)

func nameRequest(name string) domain.ChangeRequest {
	return domain.ChangeRequest{
		CompanyID:     uuid.New(),
		Kind:          domain.ChangeKindCompanyName,
		ProposedValue: map[string]any{"name": name},
	}
}

func TestCompanyNameRuleValid(t *testing.T) {
	result := CompanyNameRule{}.Validate(context.Background(), nameRequest("Harbour Freight Limited"), nil)
	if !result.Valid {
		t.Fatalf("expected valid name, got %v", result.Errors)
	}
}

func TestCompanyNameRuleRequired(t *testing.T) {
	result := CompanyNameRule{}.Validate(context.Background(), nameRequest("   "), nil)
	if result.Valid {
		t.Fatalf("expected missing name to fail")
	}
}

func TestCompanyNameRuleLength(t *testing.T) {
	result := CompanyNameRule{}.Validate(context.Background(), nameRequest(strings.Repeat("A", 201)), nil)
	if result.Valid {
		t.Fatalf("expected over-length name to fail")
	}
}

func TestCompanyNameRuleRestrictedWords(t *testing.T) {
	for _, name := range []string{
		"Royal Shipping Limited",
		"Government Services Ltd",
		"Ministry of Cargo Limited",
	} {
		result := CompanyNameRule{}.Validate(context.Background(), nameRequest(name), nil)
		if result.Valid {
			t.Fatalf("expected restricted word in %q to fail", name)
		}
	}

	// Restricted words match whole words only.
	result := CompanyNameRule{}.Validate(context.Background(), nameRequest("Royalty Collections Limited"), nil)
	if !result.Valid {
		t.Fatalf("substring must not trigger the restricted list: %v", result.Errors)
	}
}

func TestCompanyNameRuleSuffixSuggestion(t *testing.T) {
	result := CompanyNameRule{}.Validate(context.Background(), nameRequest("Harbour Freight"), nil)
	if !result.Valid {
		t.Fatalf("missing suffix is advisory only: %v", result.Errors)
	}
	if len(result.Suggestions) == 0 {
		t.Fatalf("expected a suffix suggestion")
	}
}

func TestCompanyNameRuleWarnsOnUnchangedName(t *testing.T) {
	result := CompanyNameRule{}.Validate(context.Background(), nameRequest("Harbour Freight Limited"),
		map[string]any{"name": "HARBOUR FREIGHT LIMITED"})
	if !result.Valid {
		t.Fatalf("unchanged name is a warning, not an error: %v", result.Errors)
	}
	if !result.HasWarnings() {
		t.Fatalf("expected a warning about the unchanged name")
	}
}
