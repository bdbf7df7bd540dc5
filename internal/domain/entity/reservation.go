package entity

import (
	"time"

	errs "github.com/clipcraft/credit-ledger/internal/domain/error"
	coreport "github.com/clipcraft/credit-ledger/internal/domain/port/core"
)

// ReservationStatus represents the state of a credit reservation
type ReservationStatus string

// Reservation states: open -> closed, closed is terminal
const (
	ReservationOpen   ReservationStatus = "open"
	ReservationClosed ReservationStatus = "closed"
)

// Reservation is an open credit hold for one in-flight generation job.
// Exactly one reservation may exist per task identifier.
type Reservation struct {
	ID              uint64
	UserID          string
	TaskID          string
	ReservedCredits int64
	Status          ReservationStatus
	CreatedAt       time.Time
	ClosedAt        *time.Time
}

// NewReservation creates an open reservation for the given task.
func NewReservation(
	userID string,
	taskID string,
	reservedCredits int64,
	timeProvider coreport.TimeProvider,
) (*Reservation, error) {
	if userID == "" {
		return nil, errs.ErrInvalidUserID
	}
	if taskID == "" {
		return nil, errs.ErrInvalidTaskID
	}

	return &Reservation{
		UserID:          userID,
		TaskID:          taskID,
		ReservedCredits: reservedCredits,
		Status:          ReservationOpen,
		CreatedAt:       timeProvider.Now(),
	}, nil
}

// IsOpen reports whether the reservation still holds credits.
func (r *Reservation) IsOpen() bool {
	return r.Status == ReservationOpen
}

// Close transitions the reservation to closed. Closing an already-closed
// reservation is a no-op and returns false, so duplicate completion
// callbacks cannot double-refund.
func (r *Reservation) Close(timeProvider coreport.TimeProvider) bool {
	if !r.IsOpen() {
		return false
	}
	now := timeProvider.Now()
	r.Status = ReservationClosed
	r.ClosedAt = &now
	return true
}

// UnusedCredits returns the refundable portion after actual usage. The
// result is never negative: settlement only refunds, it never charges more
// than the original reservation.
func (r *Reservation) UnusedCredits(usedCredits int64) int64 {
	refund := r.ReservedCredits - usedCredits
	if refund < 0 {
		return 0
	}
	return refund
}
