package validation

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/regworks/companies-register/internal/domain"
)

// nzPostCodePattern matches the four-digit New Zealand postcode format.
var nzPostCodePattern = regexp.MustCompile(`^\d{4}$`)

// knownAddressTypes are the address slots a company carries on the register.
var knownAddressTypes = map[string]struct{}{
	"REGISTERED":    {},
	"SERVICE":       {},
	"COMMUNICATION": {},
}

// AddressRule validates proposed company addresses.
type AddressRule struct{}

// Validate checks the structural address fields. The postcode format is only
// enforced for New Zealand addresses; foreign addresses carry a warning so
// registry staff review them.
func (AddressRule) Validate(_ context.Context, req domain.ChangeRequest, current map[string]any) domain.ValidationResult {
	var errs, warnings, suggestions []string

	if _, ok := knownAddressTypes[req.Subtype]; !ok {
		errs = append(errs, fmt.Sprintf("unknown address type %q", req.Subtype))
	}

	line1 := stringField(req.ProposedValue, "line1")
	if line1 == "" {
		errs = append(errs, "address line1 is required")
	}
	city := stringField(req.ProposedValue, "city")
	if city == "" {
		errs = append(errs, "city is required")
	}

	country := strings.ToUpper(stringField(req.ProposedValue, "countryCode"))
	if country == "" {
		country = "NZ"
		suggestions = append(suggestions, "countryCode missing, assuming NZ")
	} else if len(country) != 2 {
		errs = append(errs, fmt.Sprintf("countryCode %q is not a two-letter ISO code", country))
	}

	postCode := stringField(req.ProposedValue, "postCode")
	if country == "NZ" {
		if postCode == "" {
			errs = append(errs, "postCode is required for NZ addresses")
		} else if !nzPostCodePattern.MatchString(postCode) {
			errs = append(errs, fmt.Sprintf("invalid postcode %q", postCode))
		}
	} else if postCode == "" {
		warnings = append(warnings, "no postcode supplied for foreign address")
	}

	if stringField(req.ProposedValue, "region") == "" && country == "NZ" {
		warnings = append(warnings, "region not supplied")
	}

	if current != nil && valuesEqual(current, req.ProposedValue) {
		warnings = append(warnings, "proposed address is identical to the current address")
	}

	return domain.NewValidationResult(errs, warnings, suggestions)
}

func stringField(value map[string]any, key string) string {
	raw, ok := value[key]
	if !ok {
		return ""
	}
	s, ok := raw.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

func valuesEqual(a, b map[string]any) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if fmt.Sprint(b[k]) != fmt.Sprint(v) {
			return false
		}
	}
	return true
}
