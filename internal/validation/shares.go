package validation

import (
	"context"
	"fmt"
	"math"

	"github.com/regworks/companies-register/internal/domain"
)

// ShareAllocationRule validates proposed share allocations for a share class.
type ShareAllocationRule struct{}

// Validate enforces share-count and par-value arithmetic: totalShares must be
// a positive whole number, parValue non-negative, and amountPaid can never
// exceed totalShares * parValue.
func (ShareAllocationRule) Validate(_ context.Context, req domain.ChangeRequest, current map[string]any) domain.ValidationResult {
	var errs, warnings, suggestions []string

	totalShares, ok := numberField(req.ProposedValue, "totalShares")
	switch {
	case !ok:
		errs = append(errs, "totalShares is required")
	case totalShares <= 0:
		errs = append(errs, "totalShares must be positive")
	case totalShares != math.Trunc(totalShares):
		errs = append(errs, "totalShares must be a whole number")
	}

	parValue, hasPar := numberField(req.ProposedValue, "parValue")
	if hasPar && parValue < 0 {
		errs = append(errs, "parValue cannot be negative")
	}

	amountPaid, hasPaid := numberField(req.ProposedValue, "amountPaid")
	if hasPaid {
		if amountPaid < 0 {
			errs = append(errs, "amountPaid cannot be negative")
		} else if ok && hasPar && amountPaid > totalShares*parValue {
			errs = append(errs, fmt.Sprintf("amountPaid %.2f exceeds total par value %.2f", amountPaid, totalShares*parValue))
		} else if amountPaid == 0 {
			warnings = append(warnings, "shares allocated with nothing paid up")
		}
	}

	if current != nil {
		if previous, ok := numberField(current, "totalShares"); ok && totalShares < previous {
			warnings = append(warnings, fmt.Sprintf("allocation reduces %s shares from %.0f to %.0f", req.Subtype, previous, totalShares))
			suggestions = append(suggestions, "share reductions may require a solvency certificate")
		}
	}

	return domain.NewValidationResult(errs, warnings, suggestions)
}

func numberField(value map[string]any, key string) (float64, bool) {
	raw, ok := value[key]
	if !ok {
		return 0, false
	}
	switch n := raw.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
