package persistence

import (
	"context"
	"time"

	"github.com/clipcraft/credit-ledger/internal/domain/entity"
)

// UserRepository defines the methods to interact with user accounts. Users
// are created on first billing event referencing a new identifier and are
// never hard-deleted.
type UserRepository interface {
	// GetByID retrieves a user by its opaque identifier.
	//
	// Possible errors:
	// - ErrUserNotFound: If no user with this identifier exists
	// - ErrDatabaseConnection: If the store is unreachable
	GetByID(ctx context.Context, id string) (*entity.User, error)

	// GetOrCreate retrieves a user, creating a zero-balance account when the
	// identifier is new. Safe to race: concurrent callers converge on the
	// same row.
	GetOrCreate(ctx context.Context, id string) (*entity.User, error)

	// UpsertPlan sets the user's plan identifier and billing-cycle window,
	// creating the user first when needed. Used by renewal processing.
	UpsertPlan(ctx context.Context, id string, planID string, cycleStart, cycleEnd time.Time) error

	// SetPlan updates only the stored plan identifier, leaving the cycle
	// window untouched. Used by upgrade processing, which always records the
	// new plan even when the prorated bonus is zero.
	SetPlan(ctx context.Context, id string, planID string) error
}
