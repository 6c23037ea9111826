package persistence

import (
	"errors"
	"fmt"
)

var (
	// ErrOrderNotFound indicates an order was not found by the given identifier.
	ErrOrderNotFound = errors.New("order not found")

	// ErrWorkflowNotFound indicates a workflow was not found by the given identifier.
	ErrWorkflowNotFound = errors.New("workflow not found")

	// ErrExecutionNotFound indicates an execution record was not found.
	ErrExecutionNotFound = errors.New("execution not found")

	// ErrStepNotFound indicates a routing step was not found within an order.
	ErrStepNotFound = errors.New("routing step not found")

	// ErrInspectionNotFound indicates no quality inspection exists for an order.
	ErrInspectionNotFound = errors.New("inspection not found")

	// ErrShipmentNotFound indicates no shipment record exists for an order.
	ErrShipmentNotFound = errors.New("shipment not found")

	// ErrVersionConflict indicates a concurrent write was committed first and
	// the caller must re-read before retrying.
	ErrVersionConflict = errors.New("version conflict")
)

// StorageError wraps a storage failure with the operation and entity it
// happened on. Storage failures are fatal to the calling operation and
// never leave a partial mutation behind.
type StorageError struct {
	Op       string // Operation being performed (e.g. "CommitTransition")
	EntityID string // Entity identifier if applicable
	Err      error  // Underlying error
}

func (e *StorageError) Error() string {
	if e.EntityID != "" {
		return fmt.Sprintf("%s failed for %s: %v", e.Op, e.EntityID, e.Err)
	}

	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// NewStorageError creates a storage error with operation context.
func NewStorageError(op, entityID string, err error) *StorageError {
	return &StorageError{Op: op, EntityID: entityID, Err: err}
}

// IsNotFound reports whether the error is any of the not-found sentinels.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrOrderNotFound) ||
		errors.Is(err, ErrWorkflowNotFound) ||
		errors.Is(err, ErrExecutionNotFound) ||
		errors.Is(err, ErrStepNotFound) ||
		errors.Is(err, ErrInspectionNotFound) ||
		errors.Is(err, ErrShipmentNotFound)
}

// IsOrderNotFound checks if an error indicates an order was not found.
func IsOrderNotFound(err error) bool {
	return errors.Is(err, ErrOrderNotFound)
}

// IsWorkflowNotFound checks if an error indicates a workflow was not found.
func IsWorkflowNotFound(err error) bool {
	return errors.Is(err, ErrWorkflowNotFound)
}

// IsExecutionNotFound checks if an error indicates an execution was not found.
func IsExecutionNotFound(err error) bool {
	return errors.Is(err, ErrExecutionNotFound)
}

// IsVersionConflict checks if an error indicates a lost optimistic write.
func IsVersionConflict(err error) bool {
	return errors.Is(err, ErrVersionConflict)
}
