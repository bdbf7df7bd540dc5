package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	errs "github.com/clipcraft/credit-ledger/internal/domain/error"
	"github.com/clipcraft/credit-ledger/mocks/port/core"
)

func TestNewLedgerEntry(t *testing.T) {
	fixedTime := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("should create entry with valid inputs", func(t *testing.T) {
		// Arrange
		mockTimeProvider := new(core.MockTimeProvider)
		mockTimeProvider.On("Now").Return(fixedTime)

		// Act
		entry, err := NewLedgerEntry("user-1", -75, KindJobReserve, "reserve for job", ExternalRef{TaskID: "task-1"}, mockTimeProvider)

		// Assert
		assert.NoError(t, err)
		assert.Equal(t, "user-1", entry.UserID)
		assert.Equal(t, int64(-75), entry.Delta)
		assert.Equal(t, KindJobReserve, entry.Kind)
		assert.Equal(t, "task-1", entry.Ref.TaskID)
		assert.Equal(t, fixedTime, entry.CreatedAt)
		assert.False(t, entry.IsCredit())
	})

	t.Run("should reject empty user id", func(t *testing.T) {
		mockTimeProvider := new(core.MockTimeProvider)

		entry, err := NewLedgerEntry("", 100, KindTopup, "", ExternalRef{}, mockTimeProvider)

		assert.Nil(t, entry)
		assert.ErrorIs(t, err, errs.ErrInvalidUserID)
	})

	t.Run("should reject zero delta", func(t *testing.T) {
		mockTimeProvider := new(core.MockTimeProvider)

		entry, err := NewLedgerEntry("user-1", 0, KindTopup, "", ExternalRef{}, mockTimeProvider)

		assert.Nil(t, entry)
		assert.ErrorIs(t, err, errs.ErrInvalidDelta)
	})

	t.Run("should reject unknown kind", func(t *testing.T) {
		mockTimeProvider := new(core.MockTimeProvider)

		entry, err := NewLedgerEntry("user-1", 100, EntryKind("BONUS"), "", ExternalRef{}, mockTimeProvider)

		assert.Nil(t, entry)
		assert.ErrorIs(t, err, errs.ErrInvalidEntryKind)
	})
}

func TestExternalRef(t *testing.T) {
	t.Run("empty reference encodes to empty string", func(t *testing.T) {
		assert.Equal(t, "", ExternalRef{}.Encode())
	})

	t.Run("round trip preserves fields", func(t *testing.T) {
		ref := ExternalRef{TaskID: "task-9", EventID: "evt-1", PlanID: "pro"}

		decoded, err := DecodeExternalRef(ref.Encode())

		assert.NoError(t, err)
		assert.Equal(t, ref, decoded)
	})

	t.Run("empty string decodes to zero value", func(t *testing.T) {
		decoded, err := DecodeExternalRef("")

		assert.NoError(t, err)
		assert.Equal(t, ExternalRef{}, decoded)
	})

	t.Run("malformed payload is an error", func(t *testing.T) {
		_, err := DecodeExternalRef("{not json")

		assert.Error(t, err)
	})
}

func TestIsValidEntryKind(t *testing.T) {
	for _, kind := range []EntryKind{KindBaseReset, KindTopup, KindJobReserve, KindJobRefund, KindJobFailRefund, KindTierUpgradeBonus} {
		assert.True(t, IsValidEntryKind(string(kind)), string(kind))
	}
	assert.False(t, IsValidEntryKind("REFUND"))
	assert.False(t, IsValidEntryKind(""))
}
