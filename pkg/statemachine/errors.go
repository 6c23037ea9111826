package statemachine

import (
	"errors"
	"fmt"

	"github.com/loomline/loomline/pkg/models"
)

// Error codes surfaced to callers. INVALID_TRANSITION and
// INSUFFICIENT_PERMISSIONS are non-retriable; VALIDATION_FAILED is
// recoverable by resolving the failed checks or forcing.
const (
	CodeInvalidTransition       = "INVALID_TRANSITION"
	CodeInsufficientPermissions = "INSUFFICIENT_PERMISSIONS"
	CodeValidationFailed        = "VALIDATION_FAILED"
)

// TransitionError is a rejected transition. Checks is populated only for
// VALIDATION_FAILED so the caller can explain the block item by item.
type TransitionError struct {
	Code    string
	OrderID string
	From    models.OrderStatus
	To      models.OrderStatus
	Message string
	Checks  []models.ValidationCheck
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: order %s %s -> %s: %s", e.Code, e.OrderID, e.From, e.To, e.Message)
}

func hasCode(err error, code string) bool {
	var transitionErr *TransitionError

	return errors.As(err, &transitionErr) && transitionErr.Code == code
}

func IsInvalidTransition(err error) bool { return hasCode(err, CodeInvalidTransition) }

func IsInsufficientPermissions(err error) bool { return hasCode(err, CodeInsufficientPermissions) }

func IsValidationFailed(err error) bool { return hasCode(err, CodeValidationFailed) }
