package migration

import (
	"context"
	"errors"
	"fmt"

	coreport "github.com/clipcraft/credit-ledger/internal/domain/port/core"
	"github.com/clipcraft/credit-ledger/internal/infrastructure/adapter/model"
	"gorm.io/gorm"
)

// Demo accounts with starting credits for local development
var devUsers = map[string]int64{
	"demo-user-1": 1000,
	"demo-user-2": 2500,
	"demo-user-3": 10000,
}

// SeedDevUsers creates demo accounts so a local instance has credits to
// reserve against. Each seed writes the user row together with a matching
// ledger entry, keeping the cached balance equal to the entry sum. Existing
// users are left untouched, so reseeding is safe.
func SeedDevUsers(ctx context.Context, db *gorm.DB, timeProvider coreport.TimeProvider, logger coreport.Logger) error {
	for userID, credits := range devUsers {
		var existing model.User
		err := db.WithContext(ctx).First(&existing, "id = ?", userID).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to check dev user %s: %w", userID, err)
		}

		now := timeProvider.Now()
		err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			user := model.User{
				ID:        userID,
				Balance:   credits,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := tx.Create(&user).Error; err != nil {
				return err
			}

			entry := model.LedgerEntry{
				UserID:    userID,
				Delta:     credits,
				Kind:      "BASE_RESET",
				Reason:    "development seed allotment",
				CreatedAt: now,
			}
			return tx.Create(&entry).Error
		})
		if err != nil {
			return fmt.Errorf("failed to seed dev user %s: %w", userID, err)
		}

		logger.Info("Seeded development user", map[string]any{
			"user_id": userID,
			"credits": credits,
		})
	}

	return nil
}
