package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/clipcraft/credit-ledger/internal/domain/entity"
	errs "github.com/clipcraft/credit-ledger/internal/domain/error"
	coreport "github.com/clipcraft/credit-ledger/internal/domain/port/core"
	"github.com/clipcraft/credit-ledger/internal/infrastructure/adapter/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LedgerRepository implements the LedgerStore port using GORM. It is the
// only code path that writes the cached balance column.
type LedgerRepository struct {
	db              *gorm.DB
	timeProvider    coreport.TimeProvider
	logger          coreport.Logger
	errorClassifier *ErrorClassifier
}

// NewLedgerRepository creates a new LedgerRepository instance
func NewLedgerRepository(db *gorm.DB, timeProvider coreport.TimeProvider, logger coreport.Logger) *LedgerRepository {
	return &LedgerRepository{
		db:              db,
		timeProvider:    timeProvider,
		logger:          logger,
		errorClassifier: NewErrorClassifier(),
	}
}

// entryToModel converts a ledger entry entity to its database model
func entryToModel(entry *entity.LedgerEntry) model.LedgerEntry {
	return model.LedgerEntry{
		UserID:      entry.UserID,
		Delta:       entry.Delta,
		Kind:        string(entry.Kind),
		Reason:      entry.Reason,
		ExternalRef: entry.Ref.Encode(),
		CreatedAt:   entry.CreatedAt,
	}
}

// entryToEntity converts a ledger entry model back to the domain entity
func entryToEntity(m *model.LedgerEntry) (*entity.LedgerEntry, error) {
	ref, err := entity.DecodeExternalRef(m.ExternalRef)
	if err != nil {
		return nil, fmt.Errorf("%w: ledger entry %d: %s", errs.ErrInternalServer, m.ID, err.Error())
	}
	return &entity.LedgerEntry{
		ID:        m.ID,
		UserID:    m.UserID,
		Delta:     m.Delta,
		Kind:      entity.EntryKind(m.Kind),
		Reason:    m.Reason,
		Ref:       ref,
		CreatedAt: m.CreatedAt,
	}, nil
}

// AppendAndAdjust inserts a ledger entry and applies its delta to the
// user's cached balance in one transaction, locking the user row FOR UPDATE
// for the whole read-adjust-write sequence. When the context already
// carries a transaction (via the UnitOfWork) GORM nests with a savepoint.
func (r *LedgerRepository) AppendAndAdjust(
	ctx context.Context,
	userID string,
	delta int64,
	kind entity.EntryKind,
	reason string,
	ref entity.ExternalRef,
) (int64, error) {
	entry, err := entity.NewLedgerEntry(userID, delta, kind, reason, ref, r.timeProvider)
	if err != nil {
		return 0, err
	}

	var newBalance int64

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var userModel model.User
		result := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&userModel, "id = ?", userID)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return errs.ErrUserNotFound
			}
			return result.Error
		}

		newBalance = userModel.Balance + delta
		if newBalance < 0 {
			// Refunds and credits can never trip this; only a debit issued
			// without the reserve path's balance check would.
			return errs.NewInsufficientCreditsError(userID, -delta, userModel.Balance)
		}

		entryModel := entryToModel(entry)
		if err := tx.Create(&entryModel).Error; err != nil {
			return err
		}

		return tx.Model(&model.User{}).
			Where("id = ?", userID).
			Updates(map[string]interface{}{
				"balance":    newBalance,
				"updated_at": r.timeProvider.Now(),
			}).Error
	})

	if err != nil {
		if errors.Is(err, errs.ErrUserNotFound) || errors.Is(err, errs.ErrInsufficientCredits) {
			return 0, err
		}
		if r.errorClassifier.IsLockError(err) {
			r.logger.Warn("User row locked by another operation", map[string]any{
				"user_id": userID,
				"error":   err.Error(),
			})
			return 0, errs.ErrUserLocked
		}
		r.logger.Error("Failed to append ledger entry", map[string]any{
			"user_id": userID,
			"delta":   delta,
			"kind":    string(kind),
			"error":   err.Error(),
		})
		return 0, fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, err.Error())
	}

	r.logger.Debug("Ledger entry appended", map[string]any{
		"user_id":     userID,
		"delta":       delta,
		"kind":        string(kind),
		"new_balance": newBalance,
	})
	return newBalance, nil
}

// GetBalance reads the cached balance; a user with no row reads as 0.
func (r *LedgerRepository) GetBalance(ctx context.Context, userID string) (int64, error) {
	var userModel model.User
	result := r.db.WithContext(ctx).First(&userModel, "id = ?", userID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}
	return userModel.Balance, nil
}

// GetBalanceForUpdate reads the cached balance holding the user's exclusive
// row lock. Callers must already be inside a UnitOfWork transaction.
func (r *LedgerRepository) GetBalanceForUpdate(ctx context.Context, userID string) (int64, error) {
	var userModel model.User
	result := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&userModel, "id = ?", userID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		if r.errorClassifier.IsLockError(result.Error) {
			return 0, errs.ErrUserLocked
		}
		return 0, fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}
	return userModel.Balance, nil
}

// SumDeltas recomputes the balance from the ledger entries themselves.
func (r *LedgerRepository) SumDeltas(ctx context.Context, userID string) (int64, error) {
	var sum int64
	result := r.db.WithContext(ctx).Model(&model.LedgerEntry{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(delta), 0)").
		Scan(&sum)
	if result.Error != nil {
		return 0, fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}
	return sum, nil
}

// ListEntries returns the most recent entries for a user, newest first.
func (r *LedgerRepository) ListEntries(ctx context.Context, userID string, limit int) ([]*entity.LedgerEntry, error) {
	var models []model.LedgerEntry
	result := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc, id desc").
		Limit(limit).
		Find(&models)
	if result.Error != nil {
		return nil, fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}

	entries := make([]*entity.LedgerEntry, 0, len(models))
	for i := range models {
		entry, err := entryToEntity(&models[i])
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
