package billing

import (
	"context"
	"errors"
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

type processorMocks struct {
	uow          *mocksPersistence.MockUnitOfWork
	ledger       *mocksPersistence.MockLedgerStore
	users        *mocksPersistence.MockUserRepository
	events       *mocksPersistence.MockProcessedEventRepository
	timeProvider *mocksCore.MockTimeProvider
	logger       *mocksCore.MockLogger
}

func newTestProcessor(t *testing.T) (*Processor, *processorMocks) {
	t.Helper()

	m := &processorMocks{
		uow:          new(mocksPersistence.MockUnitOfWork),
		ledger:       new(mocksPersistence.MockLedgerStore),
		users:        new(mocksPersistence.MockUserRepository),
		events:       new(mocksPersistence.MockProcessedEventRepository),
		timeProvider: new(mocksCore.MockTimeProvider),
		logger:       new(mocksCore.MockLogger),
	}

	m.timeProvider.On("Now").Return(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)).Maybe()
	m.logger.On("Debug", mock.Anything, mock.Anything).Maybe()
	m.logger.On("Info", mock.Anything, mock.Anything).Maybe()
	m.logger.On("Warn", mock.Anything, mock.Anything).Maybe()
	m.logger.On("Error", mock.Anything, mock.Anything).Maybe()

	creditPolicy := policy.New(policy.Config{
		CreditsPerSecond:   15,
		DefaultPlanCredits: 1000,
		PlanBaseCredits:    map[string]int64{"starter": 2500, "pro": 10000},
		TopupPackCredits:   map[string]int64{"pack_small": 1000},
	})
	processor := NewProcessor(m.uow, creditPolicy, m.timeProvider, m.logger)
	return processor, m
}

// expectFreshEvent wires the gate for an event id seen for the first time.
func (m *processorMocks) expectFreshEvent(ctx context.Context, eventID string) {
	m.uow.On("GetProcessedEventRepository", ctx).Return(m.events)
	m.events.On("Get", ctx, eventID).Return(nil, errs.ErrEventNotFound)
	m.events.On("CreateProcessing", ctx, mock.MatchedBy(func(e *entity.ProcessedEvent) bool {
		return e.EventID == eventID && e.Status == entity.EventProcessing
	})).Return(nil)
	m.uow.On("Begin", mock.Anything).Return(ctx, nil)
	m.events.On("GetForUpdate", ctx, eventID).
		Return(&entity.ProcessedEvent{EventID: eventID, Status: entity.EventProcessing}, nil)
	m.uow.On("GetUserRepository", ctx).Return(m.users).Maybe()
	m.uow.On("GetLedgerStore", ctx).Return(m.ledger).Maybe()
}

func TestProcessRenewal(t *testing.T) {
	ctx := context.Background()
	event := RenewalEvent{
		EventID:     "evt-1",
		UserID:      "user-1",
		PlanID:      "starter",
		PeriodStart: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:   time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
	}

	t.Run("should reset plan and credit the base allotment", func(t *testing.T) {
		// Arrange
		processor, m := newTestProcessor(t)
		m.expectFreshEvent(ctx, "evt-1")
		m.users.On("UpsertPlan", ctx, "user-1", "starter", event.PeriodStart, event.PeriodEnd).Return(nil)
		m.ledger.On("AppendAndAdjust", ctx, "user-1", int64(2500), entity.KindBaseReset,
			mock.Anything, entity.ExternalRef{EventID: "evt-1", PlanID: "starter"}).Return(int64(2510), nil)
		m.events.On("MarkProcessed", ctx, "evt-1").Return(nil)
		m.uow.On("Commit", ctx).Return(nil)

		// Act
		err := processor.ProcessRenewal(ctx, event)

		// Assert
		assert.NoError(t, err)
		m.users.AssertExpectations(t)
		m.ledger.AssertExpectations(t)
		m.events.AssertExpectations(t)
	})

	t.Run("should skip an already-processed event", func(t *testing.T) {
		// Arrange
		processor, m := newTestProcessor(t)
		processed := &entity.ProcessedEvent{EventID: "evt-1", Status: entity.EventProcessed}
		m.uow.On("GetProcessedEventRepository", ctx).Return(m.events)
		m.events.On("Get", ctx, "evt-1").Return(processed, nil)

		// Act
		err := processor.ProcessRenewal(ctx, event)

		// Assert
		assert.NoError(t, err)
		m.uow.AssertNotCalled(t, "Begin", mock.Anything)
		m.ledger.AssertNotCalled(t, "AppendAndAdjust",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("should re-claim a previously failed event", func(t *testing.T) {
		// Arrange
		processor, m := newTestProcessor(t)
		failed := &entity.ProcessedEvent{EventID: "evt-1", Status: entity.EventFailed}
		m.uow.On("GetProcessedEventRepository", ctx).Return(m.events)
		m.events.On("Get", ctx, "evt-1").Return(failed, nil)
		m.events.On("MarkProcessing", ctx, "evt-1").Return(nil)
		m.uow.On("Begin", mock.Anything).Return(ctx, nil)
		m.events.On("GetForUpdate", ctx, "evt-1").
			Return(&entity.ProcessedEvent{EventID: "evt-1", Status: entity.EventProcessing}, nil)
		m.uow.On("GetUserRepository", ctx).Return(m.users)
		m.uow.On("GetLedgerStore", ctx).Return(m.ledger)
		m.users.On("UpsertPlan", ctx, "user-1", "starter", event.PeriodStart, event.PeriodEnd).Return(nil)
		m.ledger.On("AppendAndAdjust", ctx, "user-1", int64(2500), entity.KindBaseReset,
			mock.Anything, mock.Anything).Return(int64(2500), nil)
		m.events.On("MarkProcessed", ctx, "evt-1").Return(nil)
		m.uow.On("Commit", ctx).Return(nil)

		// Act
		err := processor.ProcessRenewal(ctx, event)

		// Assert
		assert.NoError(t, err)
		m.events.AssertExpectations(t)
	})

	t.Run("should fall back to default credits for an unknown plan", func(t *testing.T) {
		// Arrange
		processor, m := newTestProcessor(t)
		unknown := event
		unknown.EventID = "evt-2"
		unknown.PlanID = "enterprise"
		m.expectFreshEvent(ctx, "evt-2")
		m.users.On("UpsertPlan", ctx, "user-1", "enterprise", unknown.PeriodStart, unknown.PeriodEnd).Return(nil)
		m.ledger.On("AppendAndAdjust", ctx, "user-1", int64(1000), entity.KindBaseReset,
			mock.Anything, mock.Anything).Return(int64(1000), nil)
		m.events.On("MarkProcessed", ctx, "evt-2").Return(nil)
		m.uow.On("Commit", ctx).Return(nil)

		// Act
		err := processor.ProcessRenewal(ctx, unknown)

		// Assert
		assert.NoError(t, err)
		m.logger.AssertCalled(t, "Warn", "Unknown plan id, applying default base credits", mock.Anything)
	})

	t.Run("should mark the event failed when the ledger write fails", func(t *testing.T) {
		// Arrange
		processor, m := newTestProcessor(t)
		m.expectFreshEvent(ctx, "evt-1")
		m.users.On("UpsertPlan", ctx, "user-1", "starter", event.PeriodStart, event.PeriodEnd).Return(nil)
		m.ledger.On("AppendAndAdjust", ctx, "user-1", int64(2500), entity.KindBaseReset,
			mock.Anything, mock.Anything).Return(int64(0), errors.New("connection refused"))
		m.uow.On("Rollback", ctx).Return(nil)
		m.events.On("MarkFailed", ctx, "evt-1", mock.Anything).Return(nil)

		// Act
		err := processor.ProcessRenewal(ctx, event)

		// Assert
		assert.Error(t, err)
		var billingErr *errs.BillingEventError
		assert.ErrorAs(t, err, &billingErr)
		assert.Equal(t, "evt-1", billingErr.EventID)
		m.events.AssertCalled(t, "MarkFailed", ctx, "evt-1", mock.Anything)
		m.uow.AssertNotCalled(t, "Commit", mock.Anything)
	})

	t.Run("should reject an empty event id", func(t *testing.T) {
		processor, _ := newTestProcessor(t)

		err := processor.ProcessRenewal(ctx, RenewalEvent{UserID: "user-1", PlanID: "starter"})

		assert.ErrorIs(t, err, errs.ErrInvalidEventID)
	})
}

func TestProcessTopup(t *testing.T) {
	ctx := context.Background()

	t.Run("should credit a known pack", func(t *testing.T) {
		// Arrange
		processor, m := newTestProcessor(t)
		m.expectFreshEvent(ctx, "evt-10")
		m.users.On("GetOrCreate", ctx, "user-1").Return(&entity.User{ID: "user-1"}, nil)
		m.ledger.On("AppendAndAdjust", ctx, "user-1", int64(1000), entity.KindTopup,
			mock.Anything, entity.ExternalRef{EventID: "evt-10", OrderID: "order-1", PackSKU: "pack_small"}).
			Return(int64(1000), nil)
		m.events.On("MarkProcessed", ctx, "evt-10").Return(nil)
		m.uow.On("Commit", ctx).Return(nil)

		// Act
		err := processor.ProcessTopup(ctx, TopupEvent{
			EventID: "evt-10", UserID: "user-1", PackSKU: "pack_small", OrderID: "order-1",
		})

		// Assert
		assert.NoError(t, err)
		m.ledger.AssertExpectations(t)
	})

	t.Run("should process an unknown SKU without crediting", func(t *testing.T) {
		// Arrange
		processor, m := newTestProcessor(t)
		m.expectFreshEvent(ctx, "evt-11")
		m.events.On("MarkProcessed", ctx, "evt-11").Return(nil)
		m.uow.On("Commit", ctx).Return(nil)

		// Act
		err := processor.ProcessTopup(ctx, TopupEvent{
			EventID: "evt-11", UserID: "user-1", PackSKU: "pack_mystery", OrderID: "order-2",
		})

		// Assert
		assert.NoError(t, err)
		m.logger.AssertCalled(t, "Warn", "Unknown top-up pack SKU, crediting nothing", mock.Anything)
		m.ledger.AssertNotCalled(t, "AppendAndAdjust",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		m.events.AssertCalled(t, "MarkProcessed", ctx, "evt-11")
	})

	t.Run("should back out when another delivery finishes the event first", func(t *testing.T) {
		// Arrange
		processor, m := newTestProcessor(t)
		failed := &entity.ProcessedEvent{EventID: "evt-12", Status: entity.EventFailed}
		m.uow.On("GetProcessedEventRepository", ctx).Return(m.events)
		m.events.On("Get", ctx, "evt-12").Return(failed, nil)
		m.events.On("MarkProcessing", ctx, "evt-12").Return(nil)
		m.uow.On("Begin", mock.Anything).Return(ctx, nil)
		m.events.On("GetForUpdate", ctx, "evt-12").
			Return(&entity.ProcessedEvent{EventID: "evt-12", Status: entity.EventProcessed}, nil)
		m.uow.On("Rollback", ctx).Return(nil)

		// Act
		err := processor.ProcessTopup(ctx, TopupEvent{
			EventID: "evt-12", UserID: "user-1", PackSKU: "pack_small", OrderID: "order-3",
		})

		// Assert
		assert.NoError(t, err)
		m.ledger.AssertNotCalled(t, "AppendAndAdjust",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		m.events.AssertNotCalled(t, "MarkProcessed", mock.Anything, mock.Anything)
		m.uow.AssertNotCalled(t, "Commit", mock.Anything)
	})
}

func TestProcessUpgrade(t *testing.T) {
	ctx := context.Background()

	t.Run("should grant a prorated bonus", func(t *testing.T) {
		// Arrange
		processor, m := newTestProcessor(t)
		m.expectFreshEvent(ctx, "evt-20")
		m.users.On("GetOrCreate", ctx, "user-1").Return(&entity.User{ID: "user-1"}, nil)
		m.users.On("SetPlan", ctx, "user-1", "pro").Return(nil)
		// (10000-2500) * 15/30 = 3750
		m.ledger.On("AppendAndAdjust", ctx, "user-1", int64(3750), entity.KindTierUpgradeBonus,
			mock.Anything, entity.ExternalRef{EventID: "evt-20", PlanID: "pro"}).Return(int64(6250), nil)
		m.events.On("MarkProcessed", ctx, "evt-20").Return(nil)
		m.uow.On("Commit", ctx).Return(nil)

		// Act
		err := processor.ProcessUpgrade(ctx, UpgradeEvent{
			EventID: "evt-20", UserID: "user-1",
			OldPlanID: "starter", NewPlanID: "pro",
			RemainingDays: 15, CycleDays: 30,
		})

		// Assert
		assert.NoError(t, err)
		m.ledger.AssertExpectations(t)
	})

	t.Run("should record a downgrade without any credit", func(t *testing.T) {
		// Arrange
		processor, m := newTestProcessor(t)
		m.expectFreshEvent(ctx, "evt-21")
		m.users.On("GetOrCreate", ctx, "user-1").Return(&entity.User{ID: "user-1"}, nil)
		m.users.On("SetPlan", ctx, "user-1", "starter").Return(nil)
		m.events.On("MarkProcessed", ctx, "evt-21").Return(nil)
		m.uow.On("Commit", ctx).Return(nil)

		// Act
		err := processor.ProcessUpgrade(ctx, UpgradeEvent{
			EventID: "evt-21", UserID: "user-1",
			OldPlanID: "pro", NewPlanID: "starter",
			RemainingDays: 15, CycleDays: 30,
		})

		// Assert
		assert.NoError(t, err)
		m.users.AssertCalled(t, "SetPlan", ctx, "user-1", "starter")
		m.ledger.AssertNotCalled(t, "AppendAndAdjust",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("should provision a user the ledger has never seen", func(t *testing.T) {
		// Arrange
		processor, m := newTestProcessor(t)
		m.expectFreshEvent(ctx, "evt-22")
		m.users.On("GetOrCreate", ctx, "user-new").Return(&entity.User{ID: "user-new"}, nil)
		m.users.On("SetPlan", ctx, "user-new", "pro").Return(nil)
		m.ledger.On("AppendAndAdjust", ctx, "user-new", int64(3750), entity.KindTierUpgradeBonus,
			mock.Anything, mock.Anything).Return(int64(3750), nil)
		m.events.On("MarkProcessed", ctx, "evt-22").Return(nil)
		m.uow.On("Commit", ctx).Return(nil)

		// Act
		err := processor.ProcessUpgrade(ctx, UpgradeEvent{
			EventID: "evt-22", UserID: "user-new",
			OldPlanID: "starter", NewPlanID: "pro",
			RemainingDays: 15, CycleDays: 30,
		})

		// Assert
		assert.NoError(t, err)
		m.users.AssertCalled(t, "GetOrCreate", ctx, "user-new")
		m.users.AssertCalled(t, "SetPlan", ctx, "user-new", "pro")
	})
}
