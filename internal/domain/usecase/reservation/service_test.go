package reservation

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/clipcraft/credit-ledger/internal/domain/entity"
	errs "github.com/clipcraft/credit-ledger/internal/domain/error"
	"github.com/clipcraft/credit-ledger/internal/domain/policy"
	mocksCore "github.com/clipcraft/credit-ledger/mocks/port/core"
	mocksPersistence "github.com/clipcraft/credit-ledger/mocks/port/persistence"
)

type serviceMocks struct {
	uow          *mocksPersistence.MockUnitOfWork
	ledger       *mocksPersistence.MockLedgerStore
	reservations *mocksPersistence.MockReservationRepository
	timeProvider *mocksCore.MockTimeProvider
	logger       *mocksCore.MockLogger
}

func newTestService(t *testing.T) (*Service, *serviceMocks) {
	t.Helper()

	m := &serviceMocks{
		uow:          new(mocksPersistence.MockUnitOfWork),
		ledger:       new(mocksPersistence.MockLedgerStore),
		reservations: new(mocksPersistence.MockReservationRepository),
		timeProvider: new(mocksCore.MockTimeProvider),
		logger:       new(mocksCore.MockLogger),
	}

	m.timeProvider.On("Now").Return(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)).Maybe()
	m.logger.On("Debug", mock.Anything, mock.Anything).Maybe()
	m.logger.On("Info", mock.Anything, mock.Anything).Maybe()
	m.logger.On("Warn", mock.Anything, mock.Anything).Maybe()
	m.logger.On("Error", mock.Anything, mock.Anything).Maybe()

	creditPolicy := policy.New(policy.Config{CreditsPerSecond: 15})
	service := NewService(m.uow, creditPolicy, m.timeProvider, m.logger)
	return service, m
}

func (m *serviceMocks) expectTransaction(ctx context.Context) {
	m.uow.On("Begin", mock.Anything).Return(ctx, nil)
	m.uow.On("GetLedgerStore", ctx).Return(m.ledger).Maybe()
	m.uow.On("GetReservationRepository", ctx).Return(m.reservations).Maybe()
}

func openReservation(userID, taskID string, reserved int64) *entity.Reservation {
	return &entity.Reservation{
		UserID:          userID,
		TaskID:          taskID,
		ReservedCredits: reserved,
		Status:          entity.ReservationOpen,
	}
}

func TestServiceReserve(t *testing.T) {
	ctx := context.Background()

	t.Run("should debit and hold credits when balance covers the request", func(t *testing.T) {
		// Arrange
		service, m := newTestService(t)
		m.expectTransaction(ctx)
		m.ledger.On("GetBalanceForUpdate", ctx, "user-1").Return(int64(100), nil)
		m.reservations.On("Create", ctx, mock.MatchedBy(func(r *entity.Reservation) bool {
			return r.UserID == "user-1" && r.TaskID == "task-1" && r.ReservedCredits == 75 && r.IsOpen()
		})).Return(nil)
		m.ledger.On("AppendAndAdjust", ctx, "user-1", int64(-75), entity.KindJobReserve,
			mock.Anything, entity.ExternalRef{TaskID: "task-1"}).Return(int64(25), nil)
		m.uow.On("Commit", ctx).Return(nil)

		// Act
		result, err := service.Reserve(ctx, "user-1", 5.0, "task-1")

		// Assert
		assert.NoError(t, err)
		assert.Equal(t, "task-1", result.TaskID)
		assert.Equal(t, int64(75), result.ReservedCredits)
		assert.Equal(t, int64(25), result.NewBalance)
		m.uow.AssertExpectations(t)
		m.ledger.AssertExpectations(t)
		m.reservations.AssertExpectations(t)
	})

	t.Run("should write nothing when balance is insufficient", func(t *testing.T) {
		// Arrange
		service, m := newTestService(t)
		m.expectTransaction(ctx)
		m.ledger.On("GetBalanceForUpdate", ctx, "user-1").Return(int64(0), nil)
		m.uow.On("Rollback", ctx).Return(nil)

		// Act
		result, err := service.Reserve(ctx, "user-1", 5.0, "task-1")

		// Assert
		assert.Nil(t, result)
		assert.ErrorIs(t, err, errs.ErrInsufficientCredits)
		var insufficientErr *errs.InsufficientCreditsError
		assert.ErrorAs(t, err, &insufficientErr)
		assert.Equal(t, int64(75), insufficientErr.Needed)
		assert.Equal(t, int64(0), insufficientErr.Balance)
		m.reservations.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		m.ledger.AssertNotCalled(t, "AppendAndAdjust",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		m.uow.AssertCalled(t, "Rollback", ctx)
	})

	t.Run("should report duplicate task when a reservation already exists", func(t *testing.T) {
		// Arrange
		service, m := newTestService(t)
		m.expectTransaction(ctx)
		m.ledger.On("GetBalanceForUpdate", ctx, "user-1").Return(int64(100), nil)
		m.reservations.On("Create", ctx, mock.Anything).Return(errs.ErrDuplicateTask)
		m.uow.On("Rollback", ctx).Return(nil)

		// Act
		result, err := service.Reserve(ctx, "user-1", 5.0, "task-1")

		// Assert
		assert.Nil(t, result)
		assert.ErrorIs(t, err, errs.ErrDuplicateTask)
		m.ledger.AssertNotCalled(t, "AppendAndAdjust",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("should roll back when the debit fails", func(t *testing.T) {
		// Arrange
		service, m := newTestService(t)
		m.expectTransaction(ctx)
		m.ledger.On("GetBalanceForUpdate", ctx, "user-1").Return(int64(100), nil)
		m.reservations.On("Create", ctx, mock.Anything).Return(nil)
		m.ledger.On("AppendAndAdjust", ctx, "user-1", int64(-75), entity.KindJobReserve,
			mock.Anything, mock.Anything).Return(int64(0), errs.ErrDatabaseConnection)
		m.uow.On("Rollback", ctx).Return(nil)

		// Act
		result, err := service.Reserve(ctx, "user-1", 5.0, "task-1")

		// Assert
		assert.Nil(t, result)
		assert.ErrorIs(t, err, errs.ErrDatabaseConnection)
		m.uow.AssertNotCalled(t, "Commit", mock.Anything)
	})

	t.Run("should bill at least one second for very short requests", func(t *testing.T) {
		// Arrange
		service, m := newTestService(t)
		m.expectTransaction(ctx)
		m.ledger.On("GetBalanceForUpdate", ctx, "user-1").Return(int64(100), nil)
		m.reservations.On("Create", ctx, mock.Anything).Return(nil)
		m.ledger.On("AppendAndAdjust", ctx, "user-1", int64(-15), entity.KindJobReserve,
			mock.Anything, mock.Anything).Return(int64(85), nil)
		m.uow.On("Commit", ctx).Return(nil)

		// Act
		result, err := service.Reserve(ctx, "user-1", 0.2, "task-1")

		// Assert
		assert.NoError(t, err)
		assert.Equal(t, int64(15), result.ReservedCredits)
	})

	t.Run("should reject invalid input before touching storage", func(t *testing.T) {
		service, m := newTestService(t)

		_, err := service.Reserve(ctx, "", 5.0, "task-1")
		assert.ErrorIs(t, err, errs.ErrInvalidUserID)

		_, err = service.Reserve(ctx, "user-1", 5.0, "")
		assert.ErrorIs(t, err, errs.ErrInvalidTaskID)

		_, err = service.Reserve(ctx, "user-1", math.NaN(), "task-1")
		assert.ErrorIs(t, err, errs.ErrInvalidSeconds)

		m.uow.AssertNotCalled(t, "Begin", mock.Anything)
	})
}

func TestServiceSettle(t *testing.T) {
	ctx := context.Background()

	t.Run("should refund the unused portion", func(t *testing.T) {
		// Arrange
		service, m := newTestService(t)
		m.expectTransaction(ctx)
		m.reservations.On("GetByTaskIDForUpdate", ctx, "task-1").
			Return(openReservation("user-1", "task-1", 75), nil)
		m.ledger.On("AppendAndAdjust", ctx, "user-1", int64(30), entity.KindJobRefund,
			mock.Anything, entity.ExternalRef{TaskID: "task-1"}).Return(int64(55), nil)
		m.reservations.On("Close", ctx, "task-1", mock.Anything).Return(nil)
		m.uow.On("Commit", ctx).Return(nil)

		// Act
		result, err := service.Settle(ctx, "task-1", 3.0)

		// Assert
		assert.NoError(t, err)
		assert.Equal(t, int64(45), result.UsedCredits)
		assert.Equal(t, int64(30), result.RefundCredits)
		m.ledger.AssertExpectations(t)
		m.reservations.AssertExpectations(t)
	})

	t.Run("should not refund when usage meets or exceeds the hold", func(t *testing.T) {
		// Arrange
		service, m := newTestService(t)
		m.expectTransaction(ctx)
		m.reservations.On("GetByTaskIDForUpdate", ctx, "task-1").
			Return(openReservation("user-1", "task-1", 75), nil)
		m.reservations.On("Close", ctx, "task-1", mock.Anything).Return(nil)
		m.uow.On("Commit", ctx).Return(nil)

		// Act
		result, err := service.Settle(ctx, "task-1", 6.0)

		// Assert
		assert.NoError(t, err)
		assert.Equal(t, int64(90), result.UsedCredits)
		assert.Equal(t, int64(0), result.RefundCredits)
		m.ledger.AssertNotCalled(t, "AppendAndAdjust",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("should ignore unknown reservations", func(t *testing.T) {
		// Arrange
		service, m := newTestService(t)
		m.expectTransaction(ctx)
		m.reservations.On("GetByTaskIDForUpdate", ctx, "task-missing").
			Return(nil, errs.ErrReservationNotFound)
		m.uow.On("Rollback", ctx).Return(nil)

		// Act
		result, err := service.Settle(ctx, "task-missing", 3.0)

		// Assert
		assert.NoError(t, err)
		assert.Equal(t, int64(0), result.UsedCredits)
		assert.Equal(t, int64(0), result.RefundCredits)
	})

	t.Run("should ignore already-closed reservations", func(t *testing.T) {
		// Arrange
		service, m := newTestService(t)
		closed := openReservation("user-1", "task-1", 75)
		closed.Status = entity.ReservationClosed
		m.expectTransaction(ctx)
		m.reservations.On("GetByTaskIDForUpdate", ctx, "task-1").Return(closed, nil)
		m.uow.On("Rollback", ctx).Return(nil)

		// Act
		result, err := service.Settle(ctx, "task-1", 3.0)

		// Assert
		assert.NoError(t, err)
		assert.Equal(t, int64(0), result.RefundCredits)
		m.ledger.AssertNotCalled(t, "AppendAndAdjust",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		m.reservations.AssertNotCalled(t, "Close", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("should propagate storage failures", func(t *testing.T) {
		// Arrange
		service, m := newTestService(t)
		m.expectTransaction(ctx)
		m.reservations.On("GetByTaskIDForUpdate", ctx, "task-1").
			Return(nil, errors.New("connection reset by peer"))
		m.uow.On("Rollback", ctx).Return(nil)

		// Act
		result, err := service.Settle(ctx, "task-1", 3.0)

		// Assert
		assert.Nil(t, result)
		assert.Error(t, err)
	})
}

func TestServiceRefundAll(t *testing.T) {
	ctx := context.Background()

	t.Run("should return the full hold after a failed job", func(t *testing.T) {
		// Arrange
		service, m := newTestService(t)
		m.expectTransaction(ctx)
		m.reservations.On("GetByTaskIDForUpdate", ctx, "task-1").
			Return(openReservation("user-1", "task-1", 75), nil)
		m.ledger.On("AppendAndAdjust", ctx, "user-1", int64(75), entity.KindJobFailRefund,
			mock.Anything, entity.ExternalRef{TaskID: "task-1"}).Return(int64(100), nil)
		m.reservations.On("Close", ctx, "task-1", mock.Anything).Return(nil)
		m.uow.On("Commit", ctx).Return(nil)

		// Act
		result, err := service.RefundAll(ctx, "task-1")

		// Assert
		assert.NoError(t, err)
		assert.Equal(t, int64(75), result.RefundCredits)
		m.ledger.AssertExpectations(t)
	})

	t.Run("should be a no-op on replay", func(t *testing.T) {
		// Arrange
		service, m := newTestService(t)
		closed := openReservation("user-1", "task-1", 75)
		closed.Status = entity.ReservationClosed
		m.expectTransaction(ctx)
		m.reservations.On("GetByTaskIDForUpdate", ctx, "task-1").Return(closed, nil)
		m.uow.On("Rollback", ctx).Return(nil)

		// Act
		result, err := service.RefundAll(ctx, "task-1")

		// Assert
		assert.NoError(t, err)
		assert.Equal(t, int64(0), result.RefundCredits)
		m.ledger.AssertNotCalled(t, "AppendAndAdjust",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("should reject an empty task id", func(t *testing.T) {
		service, _ := newTestService(t)

		_, err := service.RefundAll(ctx, "")

		assert.ErrorIs(t, err, errs.ErrInvalidTaskID)
	})
}
