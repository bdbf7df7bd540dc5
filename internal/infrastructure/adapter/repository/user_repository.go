package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/clipcraft/credit-ledger/internal/domain/entity"
	errs "github.com/clipcraft/credit-ledger/internal/domain/error"
	coreport "github.com/clipcraft/credit-ledger/internal/domain/port/core"
	"github.com/clipcraft/credit-ledger/internal/infrastructure/adapter/model"
	"gorm.io/gorm"
)

// UserRepository implements the user persistence port using GORM
type UserRepository struct {
	db              *gorm.DB
	timeProvider    coreport.TimeProvider
	logger          coreport.Logger
	errorClassifier *ErrorClassifier
}

// NewUserRepository creates a new UserRepository instance
func NewUserRepository(db *gorm.DB, timeProvider coreport.TimeProvider, logger coreport.Logger) *UserRepository {
	return &UserRepository{
		db:              db,
		timeProvider:    timeProvider,
		logger:          logger,
		errorClassifier: NewErrorClassifier(),
	}
}

// userToEntity converts a user model to the domain entity
func userToEntity(m *model.User) *entity.User {
	user := &entity.User{
		ID:                 m.ID,
		PlanID:             m.PlanID,
		CycleStart:         m.CycleStart,
		CycleEnd:           m.CycleEnd,
		BillingCustomerRef: m.BillingCustomerRef,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
	user.SetBalance(m.Balance)
	return user
}

// GetByID retrieves a user by their identifier
func (r *UserRepository) GetByID(ctx context.Context, userID string) (*entity.User, error) {
	if userID == "" {
		return nil, errs.ErrInvalidUserID
	}

	var userModel model.User
	result := r.db.WithContext(ctx).First(&userModel, "id = ?", userID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, errs.ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}

	return userToEntity(&userModel), nil
}

// GetOrCreate returns the user, creating a zero-balance row when none
// exists. A concurrent insert of the same user resolves by re-reading.
func (r *UserRepository) GetOrCreate(ctx context.Context, userID string) (*entity.User, error) {
	user, err := r.GetByID(ctx, userID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, errs.ErrUserNotFound) {
		return nil, err
	}

	now := r.timeProvider.Now()
	userModel := model.User{
		ID:        userID,
		Balance:   0,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if createErr := r.db.WithContext(ctx).Create(&userModel).Error; createErr != nil {
		if r.errorClassifier.IsDuplicateKeyError(createErr) {
			return r.GetByID(ctx, userID)
		}
		return nil, fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, createErr.Error())
	}

	r.logger.Info("User provisioned", map[string]any{
		"user_id": userID,
	})
	return userToEntity(&userModel), nil
}

// UpsertPlan sets the user's plan and billing cycle window, creating the
// user row when it does not exist yet.
func (r *UserRepository) UpsertPlan(ctx context.Context, userID, planID string, cycleStart, cycleEnd time.Time) error {
	if userID == "" {
		return errs.ErrInvalidUserID
	}

	now := r.timeProvider.Now()
	result := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"plan_id":     planID,
			"cycle_start": cycleStart,
			"cycle_end":   cycleEnd,
			"updated_at":  now,
		})
	if result.Error != nil {
		return fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}
	if result.RowsAffected > 0 {
		return nil
	}

	userModel := model.User{
		ID:         userID,
		Balance:    0,
		PlanID:     planID,
		CycleStart: &cycleStart,
		CycleEnd:   &cycleEnd,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := r.db.WithContext(ctx).Create(&userModel).Error; err != nil {
		if r.errorClassifier.IsDuplicateKeyError(err) {
			// Lost the insert race; retry as an update.
			return r.UpsertPlan(ctx, userID, planID, cycleStart, cycleEnd)
		}
		return fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, err.Error())
	}
	return nil
}

// SetPlan updates only the plan identifier, leaving the cycle window as is.
func (r *UserRepository) SetPlan(ctx context.Context, userID, planID string) error {
	if userID == "" {
		return errs.ErrInvalidUserID
	}

	result := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"plan_id":    planID,
			"updated_at": r.timeProvider.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}
	if result.RowsAffected == 0 {
		return errs.ErrUserNotFound
	}
	return nil
}
