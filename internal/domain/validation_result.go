package domain

// ValidationResult captures the outcome of validating one proposed change.
// Valid is derived from Errors at construction time and the two never drift:
// warnings and suggestions carry advisory feedback only.
type ValidationResult struct {
	Valid       bool     `json:"valid"`
	Errors      []string `json:"errors"`
	Warnings    []string `json:"warnings"`
	Suggestions []string `json:"suggestions"`
}

// NewValidationResult builds a result from collected feedback. Validity is
// computed from the error list so the invariant Valid == len(Errors)==0 holds
// by construction.
func NewValidationResult(errors, warnings, suggestions []string) ValidationResult {
	return ValidationResult{
		Valid:       len(errors) == 0,
		Errors:      copyStrings(errors),
		Warnings:    copyStrings(warnings),
		Suggestions: copyStrings(suggestions),
	}
}

// ValidationSuccess returns a passing result with no feedback.
func ValidationSuccess() ValidationResult {
	return NewValidationResult(nil, nil, nil)
}

// ValidationFailure returns a failing result carrying the given errors.
func ValidationFailure(errors ...string) ValidationResult {
	return NewValidationResult(errors, nil, nil)
}

// HasErrors reports whether any validation error was recorded.
func (r ValidationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// HasWarnings reports whether any validation warning was recorded.
func (r ValidationResult) HasWarnings() bool {
	return len(r.Warnings) > 0
}

func copyStrings(values []string) []string {
	out := make([]string, len(values))
	copy(out, values)
	return out
}
