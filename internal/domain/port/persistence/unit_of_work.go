package persistence

import (
	"context"
)

// UnitOfWork coordinates writes across repositories inside one database
// transaction so the check-then-debit sequences stay atomic.
type UnitOfWork interface {
	// Begin starts a new transaction and returns a transactional context
	Begin(ctx context.Context) (context.Context, error)

	// Commit commits the transaction in the given context
	Commit(ctx context.Context) error

	// Rollback rolls back the transaction in the given context
	Rollback(ctx context.Context) error

	// GetLedgerStore returns a ledger store bound to the current transaction
	GetLedgerStore(ctx context.Context) LedgerStore

	// GetUserRepository returns a user repository bound to the current transaction
	GetUserRepository(ctx context.Context) UserRepository

	// GetReservationRepository returns a reservation repository bound to the current transaction
	GetReservationRepository(ctx context.Context) ReservationRepository

	// GetProcessedEventRepository returns a processed-event repository bound to the current transaction
	GetProcessedEventRepository(ctx context.Context) ProcessedEventRepository
}
