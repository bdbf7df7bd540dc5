package persistence

import (
	"context"

	"github.com/clipcraft/credit-ledger/internal/domain/entity"
)

// LedgerStore is the single choke point for balance mutation: every credit
// or debit appends an immutable ledger entry and adjusts the cached balance
// in one atomic transaction. The cached balance is never written any other
// way, which keeps balance == sum(deltas) at all times.
type LedgerStore interface {
	// AppendAndAdjust inserts a ledger entry and applies its delta to the
	// user's cached balance under a per-user exclusive row lock, returning
	// the new balance. Both writes commit together or not at all.
	//
	// Possible errors:
	// - ErrUserNotFound: If the user row does not exist yet
	// - ErrInsufficientCredits: If a debit would drive the balance negative
	// - ErrDatabaseConnection: If the store is unreachable
	AppendAndAdjust(ctx context.Context, userID string, delta int64, kind entity.EntryKind, reason string, ref entity.ExternalRef) (int64, error)

	// GetBalance reads the cached balance. A user with no row yet reads as 0.
	GetBalance(ctx context.Context, userID string) (int64, error)

	// GetBalanceForUpdate reads the cached balance while acquiring the same
	// exclusive lock AppendAndAdjust uses. For use inside a caller-managed
	// transaction that will conditionally debit (the reserve path's
	// check-then-debit). A missing user reads as 0 without creating a row.
	GetBalanceForUpdate(ctx context.Context, userID string) (int64, error)

	// SumDeltas recomputes the balance from the ledger itself. Used by tests
	// and the deep health check to verify the cached-balance invariant.
	SumDeltas(ctx context.Context, userID string) (int64, error)

	// ListEntries returns the most recent entries for a user, newest first.
	ListEntries(ctx context.Context, userID string, limit int) ([]*entity.LedgerEntry, error)
}
