package error

import (
	"errors"
	"fmt"
	"testing"
)

func TestBaseErrorTypes(t *testing.T) {
	// Test to ensure all base error types are defined properly
	if ErrInsufficientCredits.Error() != "insufficient credits" {
		t.Errorf("ErrInsufficientCredits has unexpected message: %s", ErrInsufficientCredits.Error())
	}
	if ErrInvalidSeconds.Error() != "seconds must be a finite number" {
		t.Errorf("ErrInvalidSeconds has unexpected message: %s", ErrInvalidSeconds.Error())
	}
	// Add more assertions for other base error types as needed
}

func TestErrorCode(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		expected int
	}{
		{"InsufficientCredits", ErrInsufficientCredits, 4001},
		{"InvalidSeconds", ErrInvalidSeconds, 4002},
		{"InvalidUserID", ErrInvalidUserID, 4003},
		{"DuplicateTask", ErrDuplicateTask, 4004},
		{"InvalidTaskID", ErrInvalidTaskID, 4006},
		{"InvalidEventID", ErrInvalidEventID, 4007},
		{"UserNotFound", ErrUserNotFound, 4040},
		{"UserLocked", ErrUserLocked, 4230},
		{"EventInProgress", ErrEventInProgress, 4230},
		{"ConstraintViolation", ErrConstraintViolation, 4005},
		{"UnknownError", errors.New("unknown error"), 5000},
		{"WrappedError", fmt.Errorf("wrapped: %w", ErrInvalidUserID), 4003},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			code := ErrorCode(tc.err)
			if code != tc.expected {
				t.Errorf("ErrorCode(%v) = %d, want %d", tc.err, code, tc.expected)
			}
		})
	}
}

func TestInsufficientCreditsError(t *testing.T) {
	err := NewInsufficientCreditsError("user-789", 300, 150)
	if err == nil {
		t.Fatal("NewInsufficientCreditsError returned nil")
	}

	// Test Error method
	expectedErrMsg := "insufficient credits for user user-789: required 300, available 150"
	if err.Error() != expectedErrMsg {
		t.Errorf("Error() = %s, want %s", err.Error(), expectedErrMsg)
	}

	// Test Is method via errors.Is
	if !errors.Is(err, ErrInsufficientCredits) {
		t.Errorf("errors.Is(err, ErrInsufficientCredits) = false, want true")
	}

	var detailed *InsufficientCreditsError
	if !errors.As(err, &detailed) {
		t.Fatal("errors.As failed to extract InsufficientCreditsError")
	}
	if detailed.Needed != 300 || detailed.Balance != 150 {
		t.Errorf("detailed error carries needed=%d balance=%d, want 300/150", detailed.Needed, detailed.Balance)
	}
}

func TestDuplicateTaskError(t *testing.T) {
	err := NewDuplicateTaskError("task-1", "user-1")

	if !errors.Is(err, ErrDuplicateTask) {
		t.Errorf("errors.Is(err, ErrDuplicateTask) = false, want true")
	}
	if ErrorCode(err) != CodeDuplicateTask {
		t.Errorf("ErrorCode(err) = %d, want %d", ErrorCode(err), CodeDuplicateTask)
	}
}

func TestBillingEventError(t *testing.T) {
	baseErr := ErrDatabaseConnection
	err := NewBillingEventError("evt-1", "renewal", "user-1", "event processing failed", baseErr)

	// Test Unwrap method
	if !errors.Is(err, baseErr) {
		t.Errorf("errors.Is(err, baseErr) = false, want true")
	}

	var billingErr *BillingEventError
	if !errors.As(err, &billingErr) {
		t.Fatal("errors.As failed to extract BillingEventError")
	}
	if billingErr.EventID != "evt-1" || billingErr.Kind != "renewal" {
		t.Errorf("billing error carries event=%s kind=%s, want evt-1/renewal", billingErr.EventID, billingErr.Kind)
	}
}

func TestIsNotFoundError(t *testing.T) {
	for _, err := range []error{ErrNotFound, ErrUserNotFound, ErrReservationNotFound, ErrEventNotFound} {
		if !IsNotFoundError(err) {
			t.Errorf("IsNotFoundError(%v) = false, want true", err)
		}
	}
	if IsNotFoundError(ErrUserLocked) {
		t.Errorf("IsNotFoundError(ErrUserLocked) = true, want false")
	}
}

func TestIsRetryable(t *testing.T) {
	retryable := []error{
		ErrDatabaseConnection,
		ErrUserLocked,
		ErrEventInProgress,
		fmt.Errorf("commit failed: %w", ErrDatabaseConnection),
	}
	for _, err := range retryable {
		if !IsRetryable(err) {
			t.Errorf("IsRetryable(%v) = false, want true", err)
		}
	}

	if IsRetryable(ErrInsufficientCredits) {
		t.Errorf("IsRetryable(ErrInsufficientCredits) = true, want false")
	}
	if IsRetryable(ErrDuplicateTask) {
		t.Errorf("IsRetryable(ErrDuplicateTask) = true, want false")
	}
}
