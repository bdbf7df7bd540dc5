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

// ProcessedEventRepository implements the webhook deduplication port using GORM
type ProcessedEventRepository struct {
	db              *gorm.DB
	timeProvider    coreport.TimeProvider
	logger          coreport.Logger
	errorClassifier *ErrorClassifier
}

// NewProcessedEventRepository creates a new ProcessedEventRepository instance
func NewProcessedEventRepository(db *gorm.DB, timeProvider coreport.TimeProvider, logger coreport.Logger) *ProcessedEventRepository {
	return &ProcessedEventRepository{
		db:              db,
		timeProvider:    timeProvider,
		logger:          logger,
		errorClassifier: NewErrorClassifier(),
	}
}

func eventToEntity(m *model.ProcessedEvent) *entity.ProcessedEvent {
	return &entity.ProcessedEvent{
		EventID:      m.EventID,
		Kind:         m.Kind,
		Status:       entity.EventStatus(m.Status),
		ErrorMessage: m.ErrorMessage,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// Get retrieves the deduplication record for an event id
func (r *ProcessedEventRepository) Get(ctx context.Context, eventID string) (*entity.ProcessedEvent, error) {
	if eventID == "" {
		return nil, errs.ErrInvalidEventID
	}

	var eventModel model.ProcessedEvent
	result := r.db.WithContext(ctx).First(&eventModel, "event_id = ?", eventID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, errs.ErrEventNotFound
		}
		return nil, fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}

	return eventToEntity(&eventModel), nil
}

// GetForUpdate retrieves the deduplication record holding its exclusive row
// lock. Callers must already be inside a UnitOfWork transaction.
func (r *ProcessedEventRepository) GetForUpdate(ctx context.Context, eventID string) (*entity.ProcessedEvent, error) {
	if eventID == "" {
		return nil, errs.ErrInvalidEventID
	}

	var eventModel model.ProcessedEvent
	result := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&eventModel, "event_id = ?", eventID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, errs.ErrEventNotFound
		}
		if r.errorClassifier.IsLockError(result.Error) {
			return nil, errs.ErrEventInProgress
		}
		return nil, fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}

	return eventToEntity(&eventModel), nil
}

// CreateProcessing claims a new event. The event id is the primary key, so
// the losing side of a concurrent claim gets ErrEventInProgress.
func (r *ProcessedEventRepository) CreateProcessing(ctx context.Context, event *entity.ProcessedEvent) error {
	eventModel := model.ProcessedEvent{
		EventID:      event.EventID,
		Kind:         event.Kind,
		Status:       string(event.Status),
		ErrorMessage: event.ErrorMessage,
		CreatedAt:    event.CreatedAt,
		UpdatedAt:    event.UpdatedAt,
	}

	if err := r.db.WithContext(ctx).Create(&eventModel).Error; err != nil {
		if r.errorClassifier.IsDuplicateKeyError(err) {
			return errs.ErrEventInProgress
		}
		return fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, err.Error())
	}
	return nil
}

func (r *ProcessedEventRepository) setStatus(ctx context.Context, eventID string, status entity.EventStatus, message string) error {
	if eventID == "" {
		return errs.ErrInvalidEventID
	}

	result := r.db.WithContext(ctx).Model(&model.ProcessedEvent{}).
		Where("event_id = ?", eventID).
		Updates(map[string]interface{}{
			"status":        string(status),
			"error_message": message,
			"updated_at":    r.timeProvider.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}
	if result.RowsAffected == 0 {
		return errs.ErrEventNotFound
	}
	return nil
}

// MarkProcessing resets a failed or stale record for a re-attempt
func (r *ProcessedEventRepository) MarkProcessing(ctx context.Context, eventID string) error {
	return r.setStatus(ctx, eventID, entity.EventProcessing, "")
}

// MarkProcessed records success so redeliveries short-circuit
func (r *ProcessedEventRepository) MarkProcessed(ctx context.Context, eventID string) error {
	return r.setStatus(ctx, eventID, entity.EventProcessed, "")
}

// MarkFailed records the failure message; the event stays reprocessable
func (r *ProcessedEventRepository) MarkFailed(ctx context.Context, eventID string, message string) error {
	return r.setStatus(ctx, eventID, entity.EventFailed, message)
}
