package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	errs "github.com/clipcraft/credit-ledger/internal/domain/error"
	"github.com/clipcraft/credit-ledger/mocks/port/core"
)

func TestNewUser(t *testing.T) {
	fixedTime := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("should create user with zero balance", func(t *testing.T) {
		mockTimeProvider := new(core.MockTimeProvider)
		mockTimeProvider.On("Now").Return(fixedTime)

		user, err := NewUser("user-1", mockTimeProvider)

		assert.NoError(t, err)
		assert.Equal(t, "user-1", user.ID)
		assert.Equal(t, int64(0), user.Balance())
		assert.Empty(t, user.PlanID)
		assert.Nil(t, user.CycleStart)
	})

	t.Run("should reject empty id", func(t *testing.T) {
		mockTimeProvider := new(core.MockTimeProvider)

		_, err := NewUser("", mockTimeProvider)

		assert.ErrorIs(t, err, errs.ErrInvalidUserID)
	})
}

func TestUserCanReserve(t *testing.T) {
	mockTimeProvider := new(core.MockTimeProvider)
	mockTimeProvider.On("Now").Return(time.Now())

	user, err := NewUser("user-1", mockTimeProvider)
	assert.NoError(t, err)
	user.SetBalance(100)

	assert.True(t, user.CanReserve(100))
	assert.True(t, user.CanReserve(1))
	assert.False(t, user.CanReserve(101))
}

func TestUserHasActiveCycle(t *testing.T) {
	fixedTime := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	mockTimeProvider := new(core.MockTimeProvider)
	mockTimeProvider.On("Now").Return(fixedTime)

	user, err := NewUser("user-1", mockTimeProvider)
	assert.NoError(t, err)

	t.Run("no plan means no active cycle", func(t *testing.T) {
		assert.False(t, user.HasActiveCycle(fixedTime))
	})

	t.Run("inside cycle window", func(t *testing.T) {
		start := fixedTime
		end := fixedTime.AddDate(0, 1, 0)
		user.SetPlan("pro", start, end, mockTimeProvider)

		assert.Equal(t, "pro", user.PlanID)
		assert.True(t, user.HasActiveCycle(start))
		assert.True(t, user.HasActiveCycle(start.AddDate(0, 0, 15)))
		assert.False(t, user.HasActiveCycle(end))
		assert.False(t, user.HasActiveCycle(start.Add(-time.Hour)))
	})
}
