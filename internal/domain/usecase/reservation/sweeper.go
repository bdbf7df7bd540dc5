package reservation

import (
	"context"
	"fmt"
	"time"

	coreport "github.com/clipcraft/credit-ledger/internal/domain/port/core"
	"github.com/clipcraft/credit-ledger/internal/domain/port/persistence"
	"github.com/robfig/cron/v3"
)

// SweeperConfig controls the stale-reservation sweep.
type SweeperConfig struct {
	// Interval between sweeps.
	Interval time.Duration
	// MaxAge is how long a reservation may stay open before the sweep
	// refunds it. A caller crash between reserve and settle would otherwise
	// hold the credits forever.
	MaxAge time.Duration
	// BatchSize caps how many reservations one sweep refunds.
	BatchSize int
}

// Sweeper periodically refunds reservations that have been open longer than
// the configured threshold. It reuses RefundAll, so a late completion
// callback racing the sweep stays a harmless no-op on whichever side loses.
type Sweeper struct {
	service      *Service
	reservations persistence.ReservationRepository
	timeProvider coreport.TimeProvider
	logger       coreport.Logger
	config       SweeperConfig
	cron         *cron.Cron
}

// NewSweeper creates a sweeper; Start schedules it.
func NewSweeper(
	service *Service,
	reservations persistence.ReservationRepository,
	timeProvider coreport.TimeProvider,
	logger coreport.Logger,
	config SweeperConfig,
) *Sweeper {
	if config.Interval <= 0 {
		config.Interval = 5 * time.Minute
	}
	if config.MaxAge <= 0 {
		config.MaxAge = time.Hour
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 100
	}
	return &Sweeper{
		service:      service,
		reservations: reservations,
		timeProvider: timeProvider,
		logger:       logger,
		config:       config,
		cron:         cron.New(),
	}
}

// Start schedules the periodic sweep.
func (s *Sweeper) Start() error {
	spec := fmt.Sprintf("@every %s", s.config.Interval)
	if _, err := s.cron.AddFunc(spec, s.Sweep); err != nil {
		return fmt.Errorf("failed to schedule reservation sweep: %w", err)
	}
	s.cron.Start()
	s.logger.Info("Stale reservation sweeper started", map[string]any{
		"interval": s.config.Interval.String(),
		"max_age":  s.config.MaxAge.String(),
	})
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Stale reservation sweeper stopped", nil)
}

// Sweep refunds one batch of over-age open reservations. Exported so an
// operator endpoint or test can trigger it directly.
func (s *Sweeper) Sweep() {
	ctx := context.Background()
	cutoff := s.timeProvider.Now().Add(-s.config.MaxAge)

	stale, err := s.reservations.ListOpenBefore(ctx, cutoff, s.config.BatchSize)
	if err != nil {
		s.logger.Error("Failed to list stale reservations", map[string]any{
			"error": err.Error(),
		})
		return
	}
	if len(stale) == 0 {
		return
	}

	refunded := 0
	for _, reservation := range stale {
		if _, err := s.service.RefundAll(ctx, reservation.TaskID); err != nil {
			s.logger.Error("Failed to refund stale reservation", map[string]any{
				"task_id": reservation.TaskID,
				"user_id": reservation.UserID,
				"error":   err.Error(),
			})
			continue
		}
		refunded++
	}

	s.logger.Warn("Refunded stale reservations", map[string]any{
		"found":    len(stale),
		"refunded": refunded,
		"cutoff":   cutoff,
	})
}
