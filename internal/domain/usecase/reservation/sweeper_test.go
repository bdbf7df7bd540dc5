package reservation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/clipcraft/credit-ledger/internal/domain/entity"
	mocksPersistence "github.com/clipcraft/credit-ledger/mocks/port/persistence"
)

func TestSweeperSweep(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	newSweeper := func(t *testing.T) (*Sweeper, *serviceMocks, *mocksPersistence.MockReservationRepository) {
		service, m := newTestService(t)
		stale := new(mocksPersistence.MockReservationRepository)
		sweeper := NewSweeper(service, stale, m.timeProvider, m.logger, SweeperConfig{
			Interval:  time.Minute,
			MaxAge:    time.Hour,
			BatchSize: 10,
		})
		return sweeper, m, stale
	}

	t.Run("should refund every over-age open reservation", func(t *testing.T) {
		// Arrange
		sweeper, m, stale := newSweeper(t)
		cutoff := now.Add(-time.Hour)
		stale.On("ListOpenBefore", ctx, cutoff, 10).Return([]*entity.Reservation{
			openReservation("user-1", "task-1", 75),
			openReservation("user-2", "task-2", 30),
		}, nil)

		m.expectTransaction(ctx)
		m.reservations.On("GetByTaskIDForUpdate", ctx, "task-1").
			Return(openReservation("user-1", "task-1", 75), nil)
		m.reservations.On("GetByTaskIDForUpdate", ctx, "task-2").
			Return(openReservation("user-2", "task-2", 30), nil)
		m.ledger.On("AppendAndAdjust", ctx, "user-1", int64(75), entity.KindJobFailRefund,
			mock.Anything, mock.Anything).Return(int64(100), nil)
		m.ledger.On("AppendAndAdjust", ctx, "user-2", int64(30), entity.KindJobFailRefund,
			mock.Anything, mock.Anything).Return(int64(30), nil)
		m.reservations.On("Close", ctx, mock.Anything, mock.Anything).Return(nil).Times(2)
		m.uow.On("Commit", ctx).Return(nil).Times(2)

		// Act
		sweeper.Sweep()

		// Assert
		m.ledger.AssertExpectations(t)
		m.reservations.AssertExpectations(t)
		stale.AssertExpectations(t)
	})

	t.Run("should do nothing when no reservation is stale", func(t *testing.T) {
		// Arrange
		sweeper, m, stale := newSweeper(t)
		stale.On("ListOpenBefore", ctx, mock.Anything, 10).Return([]*entity.Reservation{}, nil)

		// Act
		sweeper.Sweep()

		// Assert
		m.uow.AssertNotCalled(t, "Begin", mock.Anything)
	})

	t.Run("should keep sweeping after a single refund failure", func(t *testing.T) {
		// Arrange
		sweeper, m, stale := newSweeper(t)
		stale.On("ListOpenBefore", ctx, mock.Anything, 10).Return([]*entity.Reservation{
			openReservation("user-1", "task-1", 75),
			openReservation("user-2", "task-2", 30),
		}, nil)

		m.expectTransaction(ctx)
		m.reservations.On("GetByTaskIDForUpdate", ctx, "task-1").
			Return(nil, errors.New("connection reset by peer"))
		m.reservations.On("GetByTaskIDForUpdate", ctx, "task-2").
			Return(openReservation("user-2", "task-2", 30), nil)
		m.ledger.On("AppendAndAdjust", ctx, "user-2", int64(30), entity.KindJobFailRefund,
			mock.Anything, mock.Anything).Return(int64(30), nil)
		m.reservations.On("Close", ctx, "task-2", mock.Anything).Return(nil)
		m.uow.On("Rollback", ctx).Return(nil)
		m.uow.On("Commit", ctx).Return(nil)

		// Act
		sweeper.Sweep()

		// Assert
		m.ledger.AssertExpectations(t)
	})
}
