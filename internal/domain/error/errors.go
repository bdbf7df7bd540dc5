package error

import (
	"errors"
	"fmt"
)

// Error codes for standardized API responses
const (
	// 4xxx - Client errors
	CodeInsufficientCredits = 4001
	CodeInvalidSeconds      = 4002
	CodeInvalidUserID       = 4003
	CodeDuplicateTask       = 4004
	CodeConstraintViolation = 4005
	CodeInvalidTaskID       = 4006
	CodeInvalidEventID      = 4007
	CodeUserNotFound        = 4040
	CodeUserLocked          = 4230

	// 5xxx - Server errors
	CodeInternalServer = 5000
)

// Base error types
var (
	// ErrInsufficientCredits is returned when a user has too few credits for a reservation
	ErrInsufficientCredits = errors.New("insufficient credits")

	// ErrDuplicateTask is returned when a reservation already exists for the task id
	ErrDuplicateTask = errors.New("reservation already exists for this task")

	// ErrInvalidUserID is returned when the user identifier is empty
	ErrInvalidUserID = errors.New("user ID cannot be empty")

	// ErrInvalidTaskID is returned when the task identifier is empty
	ErrInvalidTaskID = errors.New("task ID cannot be empty")

	// ErrInvalidSeconds is returned when the requested duration is not a finite number
	ErrInvalidSeconds = errors.New("seconds must be a finite number")

	// ErrInvalidEventID is returned when the billing event identifier is empty
	ErrInvalidEventID = errors.New("event ID cannot be empty")

	// ErrInvalidDelta is returned when a ledger entry would carry a zero delta
	ErrInvalidDelta = errors.New("ledger delta cannot be zero")

	// ErrInvalidEntryKind is returned when the ledger entry kind is not one of the allowed values
	ErrInvalidEntryKind = errors.New("invalid ledger entry kind")

	// ErrUserNotFound is returned when the requested user doesn't exist
	ErrUserNotFound = errors.New("user not found")

	// ErrReservationNotFound is returned when no reservation exists for a task id
	ErrReservationNotFound = errors.New("reservation not found")

	// ErrEventNotFound is returned when no processed-event record exists for an event id
	ErrEventNotFound = errors.New("billing event not found")

	// ErrEventInProgress is returned when another handler is processing the same billing event
	ErrEventInProgress = errors.New("billing event is being processed by another handler")

	// ErrInvalidRequest is returned when the request format is invalid
	ErrInvalidRequest = errors.New("invalid request")

	// ErrInternalServer is returned for unexpected server-side errors
	ErrInternalServer = errors.New("internal server error")

	// ErrUserLocked is returned when a user row is locked by another operation
	ErrUserLocked = errors.New("user is locked by another operation")

	// ErrDatabaseConnection is returned when there's a problem talking to the database
	ErrDatabaseConnection = errors.New("database connection error")

	// ErrConstraintViolation is returned when a database constraint is violated
	ErrConstraintViolation = errors.New("database constraint violation")

	// ErrNotFound is returned when a generic resource is not found
	ErrNotFound = errors.New("resource not found")
)

// ErrorCode returns standardized error codes for known errors
func ErrorCode(err error) int {
	switch {
	case errors.Is(err, ErrInsufficientCredits):
		return CodeInsufficientCredits
	case errors.Is(err, ErrInvalidSeconds):
		return CodeInvalidSeconds
	case errors.Is(err, ErrInvalidUserID):
		return CodeInvalidUserID
	case errors.Is(err, ErrDuplicateTask):
		return CodeDuplicateTask
	case errors.Is(err, ErrInvalidTaskID):
		return CodeInvalidTaskID
	case errors.Is(err, ErrInvalidEventID):
		return CodeInvalidEventID
	case errors.Is(err, ErrUserNotFound):
		return CodeUserNotFound
	case errors.Is(err, ErrUserLocked), errors.Is(err, ErrEventInProgress):
		return CodeUserLocked
	case errors.Is(err, ErrConstraintViolation):
		return CodeConstraintViolation
	default:
		return CodeInternalServer
	}
}

// InsufficientCreditsError carries the needed/balance context the caller
// must surface to the user (top-up or upgrade prompt).
type InsufficientCreditsError struct {
	UserID  string
	Needed  int64
	Balance int64
}

// Error implements the error interface
func (e *InsufficientCreditsError) Error() string {
	return fmt.Sprintf("insufficient credits for user %s: required %d, available %d",
		e.UserID, e.Needed, e.Balance)
}

// Is checks if the target error is an ErrInsufficientCredits
func (e *InsufficientCreditsError) Is(target error) bool {
	return target == ErrInsufficientCredits
}

// LogFields returns a map of fields for structured logging
func (e *InsufficientCreditsError) LogFields() map[string]any {
	return map[string]any{
		"error_type": "insufficient_credits",
		"user_id":    e.UserID,
		"needed":     e.Needed,
		"balance":    e.Balance,
		"error_code": CodeInsufficientCredits,
	}
}

// NewInsufficientCreditsError creates a new detailed insufficient credits error
func NewInsufficientCreditsError(userID string, needed, balance int64) error {
	return &InsufficientCreditsError{
		UserID:  userID,
		Needed:  needed,
		Balance: balance,
	}
}

// DuplicateTaskError provides detailed information about a duplicate reserve attempt
type DuplicateTaskError struct {
	TaskID string
	UserID string
}

// Error implements the error interface
func (e *DuplicateTaskError) Error() string {
	return fmt.Sprintf("duplicate reservation detected: taskID=%s for user %s", e.TaskID, e.UserID)
}

// Is checks if the target error is an ErrDuplicateTask
func (e *DuplicateTaskError) Is(target error) bool {
	return target == ErrDuplicateTask
}

// LogFields returns a map of fields for structured logging
func (e *DuplicateTaskError) LogFields() map[string]any {
	return map[string]any{
		"error_type": "duplicate_task",
		"task_id":    e.TaskID,
		"user_id":    e.UserID,
		"error_code": CodeDuplicateTask,
	}
}

// NewDuplicateTaskError creates a new detailed duplicate task error
func NewDuplicateTaskError(taskID, userID string) error {
	return &DuplicateTaskError{TaskID: taskID, UserID: userID}
}

// BillingEventError wraps failures during billing event processing with
// the context needed to correlate webhook redeliveries.
type BillingEventError struct {
	EventID string
	Kind    string
	UserID  string
	Reason  string
	Err     error
}

// Error implements the error interface
func (e *BillingEventError) Error() string {
	return fmt.Sprintf("billing event %s (%s) failed for user %s: %s - %v",
		e.EventID, e.Kind, e.UserID, e.Reason, e.Err)
}

// Unwrap returns the underlying error
func (e *BillingEventError) Unwrap() error {
	return e.Err
}

// LogFields returns a map of fields for structured logging
func (e *BillingEventError) LogFields() map[string]any {
	return map[string]any{
		"error_type": "billing_event_error",
		"event_id":   e.EventID,
		"event_kind": e.Kind,
		"user_id":    e.UserID,
		"reason":     e.Reason,
		"error":      e.Err.Error(),
		"error_code": ErrorCode(e.Err),
	}
}

// NewBillingEventError creates a detailed billing event error
func NewBillingEventError(eventID, kind, userID, reason string, err error) error {
	return &BillingEventError{
		EventID: eventID,
		Kind:    kind,
		UserID:  userID,
		Reason:  reason,
		Err:     err,
	}
}

// IsInsufficientCreditsError checks if the error is related to insufficient credits
func IsInsufficientCreditsError(err error) bool {
	return errors.Is(err, ErrInsufficientCredits)
}

// IsDuplicateTaskError checks if the error is a duplicate task error
func IsDuplicateTaskError(err error) bool {
	return errors.Is(err, ErrDuplicateTask)
}

// IsUserNotFoundError checks if the error is a user not found error
func IsUserNotFoundError(err error) bool {
	return errors.Is(err, ErrUserNotFound)
}

// IsNotFoundError checks if the error is any "not found" type of error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrReservationNotFound) ||
		errors.Is(err, ErrEventNotFound)
}

// IsUserLockedError checks if the error is related to a locked user
func IsUserLockedError(err error) bool {
	return errors.Is(err, ErrUserLocked)
}

// IsRetryable reports whether the caller (HTTP transport, webhook queue)
// should retry the operation after a backoff.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrDatabaseConnection) ||
		errors.Is(err, ErrUserLocked) ||
		errors.Is(err, ErrEventInProgress)
}
