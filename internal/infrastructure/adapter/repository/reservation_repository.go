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
	"gorm.io/gorm/clause"
)

// ReservationRepository implements the reservation persistence port using GORM
type ReservationRepository struct {
	db              *gorm.DB
	timeProvider    coreport.TimeProvider
	logger          coreport.Logger
	errorClassifier *ErrorClassifier
}

// NewReservationRepository creates a new ReservationRepository instance
func NewReservationRepository(db *gorm.DB, timeProvider coreport.TimeProvider, logger coreport.Logger) *ReservationRepository {
	return &ReservationRepository{
		db:              db,
		timeProvider:    timeProvider,
		logger:          logger,
		errorClassifier: NewErrorClassifier(),
	}
}

func reservationToEntity(m *model.Reservation) *entity.Reservation {
	return &entity.Reservation{
		ID:              m.ID,
		UserID:          m.UserID,
		TaskID:          m.TaskID,
		ReservedCredits: m.ReservedCredits,
		Status:          entity.ReservationStatus(m.Status),
		CreatedAt:       m.CreatedAt,
		ClosedAt:        m.ClosedAt,
	}
}

// Create inserts a new open reservation. The unique index on task_id turns
// concurrent inserts for the same task into ErrDuplicateTask.
func (r *ReservationRepository) Create(ctx context.Context, reservation *entity.Reservation) error {
	reservationModel := model.Reservation{
		UserID:          reservation.UserID,
		TaskID:          reservation.TaskID,
		ReservedCredits: reservation.ReservedCredits,
		Status:          string(reservation.Status),
		CreatedAt:       reservation.CreatedAt,
		ClosedAt:        reservation.ClosedAt,
	}

	if err := r.db.WithContext(ctx).Create(&reservationModel).Error; err != nil {
		if r.errorClassifier.IsDuplicateKeyError(err) {
			return errs.ErrDuplicateTask
		}
		return fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, err.Error())
	}

	reservation.ID = reservationModel.ID
	return nil
}

// GetByTaskIDForUpdate loads a reservation holding its exclusive row lock.
// Callers must already be inside a UnitOfWork transaction.
func (r *ReservationRepository) GetByTaskIDForUpdate(ctx context.Context, taskID string) (*entity.Reservation, error) {
	if taskID == "" {
		return nil, errs.ErrInvalidTaskID
	}

	var reservationModel model.Reservation
	result := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&reservationModel, "task_id = ?", taskID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, errs.ErrReservationNotFound
		}
		if r.errorClassifier.IsLockError(result.Error) {
			return nil, errs.ErrUserLocked
		}
		return nil, fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}

	return reservationToEntity(&reservationModel), nil
}

// Close marks the reservation closed. Only open reservations match, so a
// concurrent close leaves RowsAffected at zero rather than rewriting the row.
func (r *ReservationRepository) Close(ctx context.Context, taskID string, closedAt time.Time) error {
	result := r.db.WithContext(ctx).Model(&model.Reservation{}).
		Where("task_id = ? AND status = ?", taskID, string(entity.ReservationOpen)).
		Updates(map[string]interface{}{
			"status":    string(entity.ReservationClosed),
			"closed_at": closedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}
	if result.RowsAffected == 0 {
		return errs.ErrReservationNotFound
	}
	return nil
}

// ListOpenBefore returns open reservations created before the cutoff,
// oldest first. The sweeper uses this to find holds whose jobs never
// reported completion.
func (r *ReservationRepository) ListOpenBefore(ctx context.Context, cutoff time.Time, limit int) ([]*entity.Reservation, error) {
	var models []model.Reservation
	result := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", string(entity.ReservationOpen), cutoff).
		Order("created_at asc").
		Limit(limit).
		Find(&models)
	if result.Error != nil {
		return nil, fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}

	reservations := make([]*entity.Reservation, 0, len(models))
	for i := range models {
		reservations = append(reservations, reservationToEntity(&models[i]))
	}
	return reservations, nil
}
