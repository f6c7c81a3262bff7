package validation

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/regworks/companies-register/internal/domain"
)

func addressRequest(subtype string, value map[string]any) domain.ChangeRequest {
	return domain.ChangeRequest{
		CompanyID:     uuid.New(),
		Kind:          domain.ChangeKindAddress,
		Subtype:       subtype,
		ProposedValue: value,
	}
}

func TestAddressRuleAcceptsValidNZAddress(t *testing.T) {
	result := AddressRule{}.Validate(context.Background(), addressRequest("REGISTERED", map[string]any{
		"line1":       "12 Victoria Street",
		"city":        "Wellington",
		"region":      "Wellington",
		"postCode":    "6011",
		"countryCode": "NZ",
	}), nil)

	if !result.Valid {
		t.Fatalf("expected valid address, got errors: %v", result.Errors)
	}
}

func TestAddressRuleRejectsBadPostcode(t *testing.T) {
	result := AddressRule{}.Validate(context.Background(), addressRequest("REGISTERED", map[string]any{
		"line1":       "12 Victoria Street",
		"city":        "Wellington",
		"postCode":    "invalid",
		"countryCode": "NZ",
	}), nil)

	if result.Valid {
		t.Fatalf("expected invalid result")
	}
	found := false
	for _, err := range result.Errors {
		if strings.Contains(err, `invalid postcode "invalid"`) {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected postcode error, got %v", result.Errors)
	}
}

func TestAddressRuleRequiredFields(t *testing.T) {
	result := AddressRule{}.Validate(context.Background(), addressRequest("REGISTERED", map[string]any{
		"postCode": "6011",
	}), nil)

	if result.Valid {
		t.Fatalf("expected invalid result")
	}
	if len(result.Errors) < 2 {
		t.Fatalf("expected errors for line1 and city, got %v", result.Errors)
	}
}

func TestAddressRuleUnknownAddressType(t *testing.T) {
	result := AddressRule{}.Validate(context.Background(), addressRequest("BILLING", map[string]any{
		"line1":    "12 Victoria Street",
		"city":     "Wellington",
		"postCode": "6011",
	}), nil)

	if result.Valid {
		t.Fatalf("expected invalid result for unknown address type")
	}
}

func TestAddressRuleDefaultsCountryWithSuggestion(t *testing.T) {
	result := AddressRule{}.Validate(context.Background(), addressRequest("REGISTERED", map[string]any{
		"line1":    "12 Victoria Street",
		"city":     "Wellington",
		"region":   "Wellington",
		"postCode": "6011",
	}), nil)

	if !result.Valid {
		t.Fatalf("missing countryCode must not fail validation: %v", result.Errors)
	}
	if len(result.Suggestions) == 0 {
		t.Fatalf("expected a suggestion about the assumed country")
	}
}

func TestAddressRuleForeignAddressSkipsPostcodeFormat(t *testing.T) {
	result := AddressRule{}.Validate(context.Background(), addressRequest("SERVICE", map[string]any{
		"line1":       "1 Collins Street",
		"city":        "Melbourne",
		"postCode":    "VIC 3000",
		"countryCode": "AU",
	}), nil)

	if !result.Valid {
		t.Fatalf("foreign postcode format must not fail validation: %v", result.Errors)
	}
}

func TestAddressRuleWarnsOnIdenticalAddress(t *testing.T) {
	value := map[string]any{
		"line1":       "12 Victoria Street",
		"city":        "Wellington",
		"region":      "Wellington",
		"postCode":    "6011",
		"countryCode": "NZ",
	}
	result := AddressRule{}.Validate(context.Background(), addressRequest("REGISTERED", value), value)

	if !result.Valid {
		t.Fatalf("identical address is a warning, not an error: %v", result.Errors)
	}
	if !result.HasWarnings() {
		t.Fatalf("expected a warning about the unchanged address")
	}
}
