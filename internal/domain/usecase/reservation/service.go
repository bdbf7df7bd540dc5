// Package reservation implements the reserve / settle / refund state
// machine for generation-job credit holds.
package reservation

import (
	"context"
	"fmt"
	"math"

	"github.com/clipcraft/credit-ledger/internal/domain/entity"
	errs "github.com/clipcraft/credit-ledger/internal/domain/error"
	"github.com/clipcraft/credit-ledger/internal/domain/policy"
	coreport "github.com/clipcraft/credit-ledger/internal/domain/port/core"
	"github.com/clipcraft/credit-ledger/internal/domain/port/persistence"
)

// Service implements reserve-on-start / settle-or-refund-on-completion for
// generation jobs. Reserve is the only operation that can fail for business
// reasons; settle and refund tolerate unknown or already-closed reservations
// so duplicate or late completion callbacks are safe.
type Service struct {
	uow          persistence.UnitOfWork
	policy       *policy.Policy
	timeProvider coreport.TimeProvider
	logger       coreport.Logger
}

// NewService creates a reservation service.
func NewService(
	uow persistence.UnitOfWork,
	creditPolicy *policy.Policy,
	timeProvider coreport.TimeProvider,
	logger coreport.Logger,
) *Service {
	return &Service{
		uow:          uow,
		policy:       creditPolicy,
		timeProvider: timeProvider,
		logger:       logger,
	}
}

// ReserveResult reports a successful credit hold.
type ReserveResult struct {
	TaskID          string
	ReservedCredits int64
	NewBalance      int64
}

// SettleResult reports the outcome of reconciling a reservation against
// actual usage.
type SettleResult struct {
	TaskID        string
	UsedCredits   int64
	RefundCredits int64
}

// RefundResult reports a full refund after job failure.
type RefundResult struct {
	TaskID        string
	RefundCredits int64
}

// Reserve places a credit hold for a job expected to generate
// requestedSeconds of video. The balance check and the debit happen under
// the user's exclusive row lock in one transaction; on insufficient credits
// nothing is written and the error carries needed/balance for display.
func (s *Service) Reserve(ctx context.Context, userID string, requestedSeconds float64, taskID string) (*ReserveResult, error) {
	if userID == "" {
		return nil, errs.ErrInvalidUserID
	}
	if taskID == "" {
		return nil, errs.ErrInvalidTaskID
	}
	if math.IsNaN(requestedSeconds) || math.IsInf(requestedSeconds, 0) {
		return nil, errs.ErrInvalidSeconds
	}

	needed := s.policy.CreditsForSeconds(requestedSeconds)

	txCtx, err := s.uow.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin reservation transaction: %w", err)
	}

	ledger := s.uow.GetLedgerStore(txCtx)

	balance, err := ledger.GetBalanceForUpdate(txCtx, userID)
	if err != nil {
		s.rollback(txCtx)
		return nil, err
	}

	if balance < needed {
		s.rollback(txCtx)
		insufficientErr := errs.NewInsufficientCreditsError(userID, needed, balance)
		s.logger.Info("Reservation rejected: insufficient credits", map[string]any{
			"user_id": userID,
			"task_id": taskID,
			"needed":  needed,
			"balance": balance,
		})
		return nil, insufficientErr
	}

	reservation, err := entity.NewReservation(userID, taskID, needed, s.timeProvider)
	if err != nil {
		s.rollback(txCtx)
		return nil, err
	}

	if err := s.uow.GetReservationRepository(txCtx).Create(txCtx, reservation); err != nil {
		s.rollback(txCtx)
		if errs.IsDuplicateTaskError(err) {
			s.logger.Warn("Duplicate reservation attempt", map[string]any{
				"user_id": userID,
				"task_id": taskID,
			})
			return nil, errs.NewDuplicateTaskError(taskID, userID)
		}
		return nil, err
	}

	newBalance, err := ledger.AppendAndAdjust(
		txCtx, userID, -needed, entity.KindJobReserve,
		fmt.Sprintf("reserve %d credits for generation job", needed),
		entity.ExternalRef{TaskID: taskID},
	)
	if err != nil {
		s.rollback(txCtx)
		return nil, err
	}

	if err := s.uow.Commit(txCtx); err != nil {
		return nil, fmt.Errorf("failed to commit reservation: %w", err)
	}

	s.logger.Info("Credits reserved", map[string]any{
		"user_id":          userID,
		"task_id":          taskID,
		"reserved_credits": needed,
		"new_balance":      newBalance,
	})

	return &ReserveResult{
		TaskID:          taskID,
		ReservedCredits: needed,
		NewBalance:      newBalance,
	}, nil
}

// Settle reconciles a reservation against the actual generated duration,
// refunding the unused portion. Settlement never charges beyond the original
// reservation; overage shrinks the refund to zero. Calling Settle on an
// unknown or already-closed reservation is a no-op with a zero refund.
func (s *Service) Settle(ctx context.Context, taskID string, actualSeconds float64) (*SettleResult, error) {
	if taskID == "" {
		return nil, errs.ErrInvalidTaskID
	}
	if math.IsNaN(actualSeconds) || math.IsInf(actualSeconds, 0) {
		return nil, errs.ErrInvalidSeconds
	}

	used := s.policy.CreditsForSeconds(actualSeconds)

	result := &SettleResult{TaskID: taskID}
	closed, err := s.closeReservation(ctx, taskID, func(reservation *entity.Reservation) (int64, entity.EntryKind, string) {
		refund := reservation.UnusedCredits(used)
		result.UsedCredits = used
		result.RefundCredits = refund
		return refund, entity.KindJobRefund,
			fmt.Sprintf("refund %d unused of %d reserved credits", refund, reservation.ReservedCredits)
	})
	if err != nil {
		return nil, err
	}
	if !closed {
		// Unknown or already-settled task: duplicate/late completion callback
		s.logger.Debug("Settle on missing or closed reservation, ignoring", map[string]any{
			"task_id": taskID,
		})
		return &SettleResult{TaskID: taskID}, nil
	}

	s.logger.Info("Reservation settled", map[string]any{
		"task_id":        taskID,
		"used_credits":   result.UsedCredits,
		"refund_credits": result.RefundCredits,
	})
	return result, nil
}

// RefundAll returns the full reserved amount after a failed job. Like
// Settle it is a safe no-op on unknown or already-closed reservations.
func (s *Service) RefundAll(ctx context.Context, taskID string) (*RefundResult, error) {
	if taskID == "" {
		return nil, errs.ErrInvalidTaskID
	}

	result := &RefundResult{TaskID: taskID}
	closed, err := s.closeReservation(ctx, taskID, func(reservation *entity.Reservation) (int64, entity.EntryKind, string) {
		result.RefundCredits = reservation.ReservedCredits
		return reservation.ReservedCredits, entity.KindJobFailRefund,
			fmt.Sprintf("full refund of %d reserved credits after job failure", reservation.ReservedCredits)
	})
	if err != nil {
		return nil, err
	}
	if !closed {
		s.logger.Debug("Refund on missing or closed reservation, ignoring", map[string]any{
			"task_id": taskID,
		})
		return &RefundResult{TaskID: taskID}, nil
	}

	s.logger.Info("Reservation fully refunded", map[string]any{
		"task_id":        taskID,
		"refund_credits": result.RefundCredits,
	})
	return result, nil
}

// closeReservation locks the reservation row, computes the refund via
// decide, appends the refund entry when positive and closes the row, all in
// one transaction. Returns false without error when there was nothing open
// to close.
func (s *Service) closeReservation(
	ctx context.Context,
	taskID string,
	decide func(*entity.Reservation) (refund int64, kind entity.EntryKind, reason string),
) (bool, error) {
	txCtx, err := s.uow.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin settlement transaction: %w", err)
	}

	reservations := s.uow.GetReservationRepository(txCtx)

	reservation, err := reservations.GetByTaskIDForUpdate(txCtx, taskID)
	if err != nil {
		s.rollback(txCtx)
		if errs.IsNotFoundError(err) {
			return false, nil
		}
		return false, err
	}

	if !reservation.IsOpen() {
		s.rollback(txCtx)
		return false, nil
	}

	refund, kind, reason := decide(reservation)

	if refund > 0 {
		if _, err := s.uow.GetLedgerStore(txCtx).AppendAndAdjust(
			txCtx, reservation.UserID, refund, kind, reason,
			entity.ExternalRef{TaskID: taskID},
		); err != nil {
			s.rollback(txCtx)
			return false, err
		}
	}

	if err := reservations.Close(txCtx, taskID, s.timeProvider.Now()); err != nil {
		s.rollback(txCtx)
		return false, err
	}

	if err := s.uow.Commit(txCtx); err != nil {
		return false, fmt.Errorf("failed to commit settlement: %w", err)
	}
	return true, nil
}

// rollback discards a transaction, logging rather than propagating failures
// since the original error is what the caller needs to see.
func (s *Service) rollback(txCtx context.Context) {
	if err := s.uow.Rollback(txCtx); err != nil {
		s.logger.Error("Failed to rollback transaction", map[string]any{
			"error": err.Error(),
		})
	}
}
