package user

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/clipcraft/credit-ledger/internal/domain/entity"
	errs "github.com/clipcraft/credit-ledger/internal/domain/error"
	mocksCore "github.com/clipcraft/credit-ledger/mocks/port/core"
	mocksPersistence "github.com/clipcraft/credit-ledger/mocks/port/persistence"
)

func newTestUseCase(t *testing.T) (*UseCase, *mocksPersistence.MockUserRepository, *mocksPersistence.MockLedgerStore) {
	t.Helper()

	mockUsers := new(mocksPersistence.MockUserRepository)
	mockLedger := new(mocksPersistence.MockLedgerStore)
	mockLogger := new(mocksCore.MockLogger)
	mockLogger.On("Debug", mock.Anything, mock.Anything).Maybe()
	mockLogger.On("Info", mock.Anything, mock.Anything).Maybe()
	mockLogger.On("Error", mock.Anything, mock.Anything).Maybe()

	return NewUseCase(mockUsers, mockLedger, mockLogger), mockUsers, mockLedger
}

func TestGetBalance(t *testing.T) {
	ctx := context.Background()

	t.Run("should return balance with cycle window", func(t *testing.T) {
		// Arrange
		useCase, mockUsers, _ := newTestUseCase(t)
		cycleStart := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
		cycleEnd := cycleStart.AddDate(0, 1, 0)
		usr := &entity.User{ID: "user-1", PlanID: "pro", CycleStart: &cycleStart, CycleEnd: &cycleEnd}
		usr.SetBalance(9500)
		mockUsers.On("GetByID", ctx, "user-1").Return(usr, nil)

		// Act
		info, err := useCase.GetBalance(ctx, "user-1")

		// Assert
		assert.NoError(t, err)
		assert.Equal(t, int64(9500), info.Balance)
		assert.Equal(t, "pro", info.PlanID)
		assert.Equal(t, &cycleStart, info.CycleStart)
	})

	t.Run("should report zero balance for an unknown user", func(t *testing.T) {
		// Arrange
		useCase, mockUsers, _ := newTestUseCase(t)
		mockUsers.On("GetByID", ctx, "ghost").Return(nil, errs.ErrUserNotFound)

		// Act
		info, err := useCase.GetBalance(ctx, "ghost")

		// Assert
		assert.NoError(t, err)
		assert.Equal(t, "ghost", info.UserID)
		assert.Equal(t, int64(0), info.Balance)
		assert.Empty(t, info.PlanID)
	})

	t.Run("should propagate storage failures", func(t *testing.T) {
		// Arrange
		useCase, mockUsers, _ := newTestUseCase(t)
		mockUsers.On("GetByID", ctx, "user-1").Return(nil, errs.ErrDatabaseConnection)

		// Act
		info, err := useCase.GetBalance(ctx, "user-1")

		// Assert
		assert.Nil(t, info)
		assert.ErrorIs(t, err, errs.ErrDatabaseConnection)
	})

	t.Run("should reject an empty user id", func(t *testing.T) {
		useCase, _, _ := newTestUseCase(t)

		_, err := useCase.GetBalance(ctx, "")

		assert.ErrorIs(t, err, errs.ErrInvalidUserID)
	})
}

func TestListLedger(t *testing.T) {
	ctx := context.Background()

	t.Run("should pass a valid limit through", func(t *testing.T) {
		// Arrange
		useCase, _, mockLedger := newTestUseCase(t)
		entries := []*entity.LedgerEntry{{UserID: "user-1", Delta: -75}}
		mockLedger.On("ListEntries", ctx, "user-1", 10).Return(entries, nil)

		// Act
		result, err := useCase.ListLedger(ctx, "user-1", 10)

		// Assert
		assert.NoError(t, err)
		assert.Len(t, result, 1)
	})

	t.Run("should clamp out-of-range limits to the default", func(t *testing.T) {
		// Arrange
		useCase, _, mockLedger := newTestUseCase(t)
		mockLedger.On("ListEntries", ctx, "user-1", 50).Return([]*entity.LedgerEntry{}, nil).Twice()

		// Act
		_, err := useCase.ListLedger(ctx, "user-1", 0)
		assert.NoError(t, err)
		_, err = useCase.ListLedger(ctx, "user-1", 10000)
		assert.NoError(t, err)

		// Assert
		mockLedger.AssertExpectations(t)
	})
}

func TestVerifyBalance(t *testing.T) {
	ctx := context.Background()

	t.Run("should pass when cached balance matches the ledger sum", func(t *testing.T) {
		// Arrange
		useCase, _, mockLedger := newTestUseCase(t)
		mockLedger.On("GetBalance", ctx, "user-1").Return(int64(55), nil)
		mockLedger.On("SumDeltas", ctx, "user-1").Return(int64(55), nil)

		// Act
		ok, err := useCase.VerifyBalance(ctx, "user-1")

		// Assert
		assert.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("should report divergence without erroring", func(t *testing.T) {
		// Arrange
		useCase, _, mockLedger := newTestUseCase(t)
		mockLedger.On("GetBalance", ctx, "user-1").Return(int64(55), nil)
		mockLedger.On("SumDeltas", ctx, "user-1").Return(int64(40), nil)

		// Act
		ok, err := useCase.VerifyBalance(ctx, "user-1")

		// Assert
		assert.NoError(t, err)
		assert.False(t, ok)
	})
}
