package billing

import (
	"context"
	"fmt"

	"github.com/clipcraft/credit-ledger/internal/domain/entity"
	errs "github.com/clipcraft/credit-ledger/internal/domain/error"
	"github.com/clipcraft/credit-ledger/internal/domain/policy"
	coreport "github.com/clipcraft/credit-ledger/internal/domain/port/core"
	"github.com/clipcraft/credit-ledger/internal/domain/port/persistence"
)

// Processor applies billing events to the ledger exactly once per event id.
// Webhook delivery is at-least-once and may be duplicated or reordered; the
// processed-event record is the sole idempotency gate. Any error leaves the
// record in failed (never processed) so a redelivery is reprocessed rather
// than silently dropped.
type Processor struct {
	uow          persistence.UnitOfWork
	policy       *policy.Policy
	timeProvider coreport.TimeProvider
	logger       coreport.Logger
}

// NewProcessor creates a billing event processor.
func NewProcessor(
	uow persistence.UnitOfWork,
	creditPolicy *policy.Policy,
	timeProvider coreport.TimeProvider,
	logger coreport.Logger,
) *Processor {
	return &Processor{
		uow:          uow,
		policy:       creditPolicy,
		timeProvider: timeProvider,
		logger:       logger,
	}
}

// ProcessRenewal resets the user's plan, cycle window and base credit
// allotment for a new billing period.
func (p *Processor) ProcessRenewal(ctx context.Context, event RenewalEvent) error {
	base, known := p.policy.BaseCreditsForPlan(event.PlanID)
	if !known {
		p.logger.Warn("Unknown plan id, applying default base credits", map[string]any{
			"event_id":     event.EventID,
			"user_id":      event.UserID,
			"plan_id":      event.PlanID,
			"base_credits": base,
		})
	}

	return p.withEventGate(ctx, event.EventID, entity.EventKindRenewal, event.UserID, func(txCtx context.Context) error {
		if err := p.uow.GetUserRepository(txCtx).UpsertPlan(
			txCtx, event.UserID, event.PlanID, event.PeriodStart, event.PeriodEnd,
		); err != nil {
			return err
		}

		newBalance, err := p.uow.GetLedgerStore(txCtx).AppendAndAdjust(
			txCtx, event.UserID, base, entity.KindBaseReset,
			fmt.Sprintf("base credit reset for plan %s", event.PlanID),
			entity.ExternalRef{EventID: event.EventID, PlanID: event.PlanID},
		)
		if err != nil {
			return err
		}

		p.logger.Info("Subscription renewal processed", map[string]any{
			"event_id":     event.EventID,
			"user_id":      event.UserID,
			"plan_id":      event.PlanID,
			"base_credits": base,
			"new_balance":  newBalance,
		})
		return nil
	})
}

// ProcessTopup credits a one-time pack purchase. Unknown pack SKUs resolve
// to zero credits, logged loudly, never an error: a new pack slug must not
// crash the webhook pipeline.
func (p *Processor) ProcessTopup(ctx context.Context, event TopupEvent) error {
	credits, known := p.policy.TopupCredits(event.PackSKU)
	if !known {
		p.logger.Warn("Unknown top-up pack SKU, crediting nothing", map[string]any{
			"event_id": event.EventID,
			"user_id":  event.UserID,
			"pack_sku": event.PackSKU,
		})
	}

	return p.withEventGate(ctx, event.EventID, entity.EventKindTopup, event.UserID, func(txCtx context.Context) error {
		if credits == 0 {
			return nil
		}

		if _, err := p.uow.GetUserRepository(txCtx).GetOrCreate(txCtx, event.UserID); err != nil {
			return err
		}

		newBalance, err := p.uow.GetLedgerStore(txCtx).AppendAndAdjust(
			txCtx, event.UserID, credits, entity.KindTopup,
			fmt.Sprintf("one-time top-up pack %s", event.PackSKU),
			entity.ExternalRef{EventID: event.EventID, OrderID: event.OrderID, PackSKU: event.PackSKU},
		)
		if err != nil {
			return err
		}

		p.logger.Info("Top-up processed", map[string]any{
			"event_id":    event.EventID,
			"user_id":     event.UserID,
			"pack_sku":    event.PackSKU,
			"credits":     credits,
			"new_balance": newBalance,
		})
		return nil
	})
}

// ProcessUpgrade applies a prorated bonus for a mid-cycle plan change and
// records the new plan even when the bonus is zero (downgrades take effect
// at the next renewal with no clawback).
func (p *Processor) ProcessUpgrade(ctx context.Context, event UpgradeEvent) error {
	oldBase, _ := p.policy.BaseCreditsForPlan(event.OldPlanID)
	newBase, newKnown := p.policy.BaseCreditsForPlan(event.NewPlanID)
	if !newKnown {
		p.logger.Warn("Unknown plan id on upgrade, applying default base credits", map[string]any{
			"event_id": event.EventID,
			"user_id":  event.UserID,
			"plan_id":  event.NewPlanID,
		})
	}
	bonus := p.policy.UpgradeBonus(oldBase, newBase, event.RemainingDays, event.CycleDays)

	return p.withEventGate(ctx, event.EventID, entity.EventKindUpgrade, event.UserID, func(txCtx context.Context) error {
		users := p.uow.GetUserRepository(txCtx)
		if _, err := users.GetOrCreate(txCtx, event.UserID); err != nil {
			return err
		}
		if err := users.SetPlan(txCtx, event.UserID, event.NewPlanID); err != nil {
			return err
		}

		if bonus > 0 {
			if _, err := p.uow.GetLedgerStore(txCtx).AppendAndAdjust(
				txCtx, event.UserID, bonus, entity.KindTierUpgradeBonus,
				fmt.Sprintf("prorated bonus for upgrade %s -> %s", event.OldPlanID, event.NewPlanID),
				entity.ExternalRef{EventID: event.EventID, PlanID: event.NewPlanID},
			); err != nil {
				return err
			}
		}

		p.logger.Info("Plan upgrade processed", map[string]any{
			"event_id": event.EventID,
			"user_id":  event.UserID,
			"old_plan": event.OldPlanID,
			"new_plan": event.NewPlanID,
			"bonus":    bonus,
		})
		return nil
	})
}

// withEventGate wraps apply with the idempotency protocol: short-circuit on
// an already-processed event, claim or re-claim the record, re-check it under
// its row lock inside the transaction, run apply plus the processed-mark in
// that transaction, and record failures on the gate.
// Because the processed-mark commits atomically with the ledger writes, a
// crash at any point leaves either no effect or a processed record, so a
// redelivery can never credit twice.
func (p *Processor) withEventGate(ctx context.Context, eventID, kind, userID string, apply func(txCtx context.Context) error) error {
	if eventID == "" {
		return errs.ErrInvalidEventID
	}
	if userID == "" {
		return errs.ErrInvalidUserID
	}

	events := p.uow.GetProcessedEventRepository(ctx)

	record, err := events.Get(ctx, eventID)
	switch {
	case err == nil:
		if record.IsProcessed() {
			p.logger.Debug("Billing event already processed, skipping", map[string]any{
				"event_id":   eventID,
				"event_kind": kind,
			})
			return nil
		}
		// failed or stale processing record: re-claim for this attempt
		if err := events.MarkProcessing(ctx, eventID); err != nil {
			return err
		}
	case errs.IsNotFoundError(err):
		record, err = entity.NewProcessedEvent(eventID, kind, p.timeProvider)
		if err != nil {
			return err
		}
		if err := events.CreateProcessing(ctx, record); err != nil {
			return err
		}
	default:
		return err
	}

	txCtx, err := p.uow.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin billing transaction: %w", err)
	}

	// Re-read the gate record under its row lock. Two redeliveries can both
	// pass the check above before either commits; the lock serializes them so
	// the loser sees the processed record and backs out.
	var applyErr error
	locked, lockErr := p.uow.GetProcessedEventRepository(txCtx).GetForUpdate(txCtx, eventID)
	switch {
	case lockErr != nil:
		applyErr = lockErr
	case locked.IsProcessed():
		p.rollback(txCtx)
		p.logger.Debug("Billing event processed by a concurrent delivery, skipping", map[string]any{
			"event_id":   eventID,
			"event_kind": kind,
		})
		return nil
	default:
		applyErr = apply(txCtx)
	}
	if applyErr == nil {
		applyErr = p.uow.GetProcessedEventRepository(txCtx).MarkProcessed(txCtx, eventID)
	}
	if applyErr == nil {
		applyErr = p.uow.Commit(txCtx)
	} else {
		p.rollback(txCtx)
	}

	if applyErr != nil {
		if markErr := events.MarkFailed(ctx, eventID, applyErr.Error()); markErr != nil {
			p.logger.Error("Failed to mark billing event as failed", map[string]any{
				"event_id": eventID,
				"error":    markErr.Error(),
			})
		}
		return errs.NewBillingEventError(eventID, kind, userID, "event processing failed", applyErr)
	}
	return nil
}

// rollback discards a transaction, logging rather than propagating failures.
func (p *Processor) rollback(txCtx context.Context) {
	if err := p.uow.Rollback(txCtx); err != nil {
		p.logger.Error("Failed to rollback transaction", map[string]any{
			"error": err.Error(),
		})
	}
}
