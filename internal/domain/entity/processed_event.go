package entity

import (
	"time"

	errs "github.com/clipcraft/credit-ledger/internal/domain/error"
	coreport "github.com/clipcraft/credit-ledger/internal/domain/port/core"
)

// EventStatus represents the processing state of a billing event
type EventStatus string

// Billing event processing states
const (
	EventProcessing EventStatus = "processing"
	EventProcessed  EventStatus = "processed"
	EventFailed     EventStatus = "failed"
)

// Billing event kinds as delivered by the webhook adapter
const (
	EventKindRenewal = "renewal"
	EventKindTopup   = "topup"
	EventKindUpgrade = "upgrade"
)

// ProcessedEvent is the deduplication record for one billing webhook event.
// It is the sole idempotency boundary for at-least-once delivery: ledger
// entries themselves are never deduplicated by content.
type ProcessedEvent struct {
	EventID      string
	Kind         string
	Status       EventStatus
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewProcessedEvent creates a dedup record in the processing state.
func NewProcessedEvent(eventID, kind string, timeProvider coreport.TimeProvider) (*ProcessedEvent, error) {
	if eventID == "" {
		return nil, errs.ErrInvalidEventID
	}

	now := timeProvider.Now()
	return &ProcessedEvent{
		EventID:   eventID,
		Kind:      kind,
		Status:    EventProcessing,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// MarkProcessed records successful processing.
func (e *ProcessedEvent) MarkProcessed(timeProvider coreport.TimeProvider) {
	e.Status = EventProcessed
	e.ErrorMessage = ""
	e.UpdatedAt = timeProvider.Now()
}

// MarkFailed records a failed attempt; the event stays eligible for
// reprocessing on redelivery.
func (e *ProcessedEvent) MarkFailed(message string, timeProvider coreport.TimeProvider) {
	e.Status = EventFailed
	e.ErrorMessage = message
	e.UpdatedAt = timeProvider.Now()
}

// IsProcessed reports whether redelivery of this event must short-circuit.
func (e *ProcessedEvent) IsProcessed() bool {
	return e.Status == EventProcessed
}
