package validation

import (
	"context"
	"fmt"
	"strings"

	"github.com/regworks/companies-register/internal/domain"
)

const maxCompanyNameLength = 200

// restrictedNameWords require ministerial consent before they may appear in a
// company name.
var restrictedNameWords = []string{"ROYAL", "GOVERNMENT", "MINISTRY", "PARLIAMENT"}

// CompanyNameRule validates proposed company name changes.
type CompanyNameRule struct{}

func (CompanyNameRule) Validate(_ context.Context, req domain.ChangeRequest, current map[string]any) domain.ValidationResult {
	var errs, warnings, suggestions []string

	name := stringField(req.ProposedValue, "name")
	if name == "" {
		errs = append(errs, "name is required")
	}
	if len(name) > maxCompanyNameLength {
		errs = append(errs, fmt.Sprintf("name exceeds %d characters", maxCompanyNameLength))
	}

	upper := strings.ToUpper(name)
	for _, word := range restrictedNameWords {
		if containsWord(upper, word) {
			errs = append(errs, fmt.Sprintf("name contains restricted word %q", word))
		}
	}

	if name != "" && !strings.HasSuffix(upper, "LIMITED") && !strings.HasSuffix(upper, "LTD") {
		suggestions = append(suggestions, "limited companies usually carry a LIMITED or LTD suffix")
	}

	if current != nil {
		if existing, ok := current["name"].(string); ok && strings.EqualFold(existing, name) {
			warnings = append(warnings, "proposed name is identical to the current name")
		}
	}

	return domain.NewValidationResult(errs, warnings, suggestions)
}

func containsWord(haystack, word string) bool {
	for _, field := range strings.Fields(haystack) {
		if strings.Trim(field, ".,()") == word {
			return true
		}
	}
	return false
}
