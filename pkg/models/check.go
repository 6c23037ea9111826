package models

// CheckStatus is the outcome of one named validation check.
// WARN surfaces to the caller but never blocks a transition by itself.
type CheckStatus string

const (
	CheckPass CheckStatus = "PASS"
	CheckWarn CheckStatus = "WARN"
	CheckFail CheckStatus = "FAIL"
)

// ValidationCheck is one named, read-only check run against an order
// snapshot before a transition commits.
type ValidationCheck struct {
	Name    string      `json:"name"`
	Status  CheckStatus `json:"status"`
	Message string      `json:"message,omitempty"`
}

// ValidationResult is the itemized outcome of a validator run.
// Passed is true exactly when no check failed.
type ValidationResult struct {
	Passed bool              `json:"passed"`
	Checks []ValidationCheck `json:"checks"`
}

// Warnings returns the non-passing checks, used when a forced transition
// retains failures as warnings.
func (r ValidationResult) Warnings() []ValidationCheck {
	var warnings []ValidationCheck

	for _, check := range r.Checks {
		if check.Status != CheckPass {
			warnings = append(warnings, check)
		}
	}

	return warnings
}
