package persistence

import (
	"context"
	"time"

	"github.com/clipcraft/credit-ledger/internal/domain/entity"
)

// ReservationRepository manages credit holds for in-flight generation jobs.
// Operations on the same task id serialize through the reservation row's
// own lock, independent of the user lock.
type ReservationRepository interface {
	// Create stores a new open reservation. The task id carries a unique
	// constraint, so a duplicate reserve attempt surfaces here.
	//
	// Possible errors:
	// - ErrDuplicateTask: If a reservation for this task id already exists
	// - ErrDatabaseConnection: If the store is unreachable
	Create(ctx context.Context, reservation *entity.Reservation) error

	// GetByTaskIDForUpdate retrieves a reservation while holding an
	// exclusive lock on its row, serializing settle/refund/duplicate-reserve
	// races for the same task.
	//
	// Possible errors:
	// - ErrReservationNotFound: If no reservation exists for the task id
	// - ErrDatabaseConnection: If the store is unreachable
	GetByTaskIDForUpdate(ctx context.Context, taskID string) (*entity.Reservation, error)

	// Close marks a reservation closed. Reservations are never deleted.
	Close(ctx context.Context, taskID string, closedAt time.Time) error

	// ListOpenBefore returns open reservations created before the cutoff,
	// oldest first, for the stale-reservation sweep.
	ListOpenBefore(ctx context.Context, cutoff time.Time, limit int) ([]*entity.Reservation, error)
}
