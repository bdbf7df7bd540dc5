package persistence

import (
	"context"

	"github.com/clipcraft/credit-ledger/internal/domain/entity"
)

// ProcessedEventRepository manages the webhook deduplication records that
// make billing event processing idempotent under at-least-once delivery.
type ProcessedEventRepository interface {
	// Get retrieves the dedup record for an event id.
	//
	// Possible errors:
	// - ErrEventNotFound: If the event has never been seen
	// - ErrDatabaseConnection: If the store is unreachable
	Get(ctx context.Context, eventID string) (*entity.ProcessedEvent, error)

	// GetForUpdate retrieves the dedup record holding its exclusive row lock,
	// serializing concurrent redeliveries of the same event. Callers must
	// already be inside a UnitOfWork transaction.
	//
	// Possible errors:
	// - ErrEventNotFound: If the event has never been seen
	// - ErrDatabaseConnection: If the store is unreachable
	GetForUpdate(ctx context.Context, eventID string) (*entity.ProcessedEvent, error)

	// CreateProcessing claims a new event by inserting its record in the
	// processing state. The event id is the primary key, so exactly one of
	// two concurrent handlers wins the claim.
	//
	// Possible errors:
	// - ErrEventInProgress: If another handler already claimed the event
	// - ErrDatabaseConnection: If the store is unreachable
	CreateProcessing(ctx context.Context, event *entity.ProcessedEvent) error

	// MarkProcessing resets an existing (failed or stale) record to the
	// processing state for a re-attempt.
	MarkProcessing(ctx context.Context, eventID string) error

	// MarkProcessed records success; future redeliveries short-circuit.
	MarkProcessed(ctx context.Context, eventID string) error

	// MarkFailed records a failure message; the event stays reprocessable so
	// a redelivery is not silently dropped.
	MarkFailed(ctx context.Context, eventID string, message string) error
}
