// Package user handles account reads: balance plus billing-cycle info for
// the editor UI, and the ledger audit trail.
package user

import (
	"context"

	"github.com/clipcraft/credit-ledger/internal/domain/entity"
	errs "github.com/clipcraft/credit-ledger/internal/domain/error"
	coreport "github.com/clipcraft/credit-ledger/internal/domain/port/core"
	"github.com/clipcraft/credit-ledger/internal/domain/port/persistence"
)

// UseCase handles user-facing account queries.
type UseCase struct {
	userRepo persistence.UserRepository
	ledger   persistence.LedgerStore
	logger   coreport.Logger
}

// NewUseCase creates a user query use case.
func NewUseCase(
	userRepo persistence.UserRepository,
	ledger persistence.LedgerStore,
	logger coreport.Logger,
) *UseCase {
	return &UseCase{
		userRepo: userRepo,
		ledger:   ledger,
		logger:   logger,
	}
}

// GetBalance returns the balance and cycle window for a user. A user the
// ledger has never seen reads as a zero balance with no plan, not an error.
func (u *UseCase) GetBalance(ctx context.Context, userID string) (*entity.BalanceInfo, error) {
	if userID == "" {
		return nil, errs.ErrInvalidUserID
	}

	usr, err := u.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errs.IsUserNotFoundError(err) {
			return &entity.BalanceInfo{UserID: userID}, nil
		}
		u.logger.Error("Failed to get user", map[string]any{
			"user_id": userID,
			"error":   err.Error(),
		})
		return nil, err
	}

	info := entity.UserToBalanceInfo(usr)
	u.logger.Debug("User balance retrieved", map[string]any{
		"user_id": userID,
		"balance": info.Balance,
	})
	return &info, nil
}

// ListLedger returns a user's most recent ledger entries, newest first.
func (u *UseCase) ListLedger(ctx context.Context, userID string, limit int) ([]*entity.LedgerEntry, error) {
	if userID == "" {
		return nil, errs.ErrInvalidUserID
	}
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	return u.ledger.ListEntries(ctx, userID, limit)
}

// VerifyBalance recomputes the sum of ledger deltas for a user and checks
// it against the cached balance. Used by the deep health check; a mismatch
// means a bug or manual tampering, never normal operation.
func (u *UseCase) VerifyBalance(ctx context.Context, userID string) (bool, error) {
	if userID == "" {
		return false, errs.ErrInvalidUserID
	}

	cached, err := u.ledger.GetBalance(ctx, userID)
	if err != nil {
		return false, err
	}
	sum, err := u.ledger.SumDeltas(ctx, userID)
	if err != nil {
		return false, err
	}

	if cached != sum {
		u.logger.Error("Cached balance diverged from ledger sum", map[string]any{
			"user_id": userID,
			"cached":  cached,
			"sum":     sum,
		})
		return false, nil
	}
	return true, nil
}
