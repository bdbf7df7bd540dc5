package entity

import (
	"encoding/json"
	"fmt"
	"time"

	errs "github.com/clipcraft/credit-ledger/internal/domain/error"
	coreport "github.com/clipcraft/credit-ledger/internal/domain/port/core"
)

// EntryKind identifies why a ledger entry changed the balance
type EntryKind string

// Ledger entry kinds
const (
	KindBaseReset        EntryKind = "BASE_RESET"
	KindTopup            EntryKind = "TOPUP"
	KindJobReserve       EntryKind = "JOB_RESERVE"
	KindJobRefund        EntryKind = "JOB_REFUND"
	KindJobFailRefund    EntryKind = "JOB_FAIL_REFUND"
	KindTierUpgradeBonus EntryKind = "TIER_UPGRADE_BONUS"
)

// ExternalRef links a ledger entry to the outside event that caused it.
// All fields are optional; which ones are set depends on the entry kind.
type ExternalRef struct {
	TaskID  string `json:"taskId,omitempty"`
	EventID string `json:"eventId,omitempty"`
	OrderID string `json:"orderId,omitempty"`
	PlanID  string `json:"planId,omitempty"`
	PackSKU string `json:"packSku,omitempty"`
}

// Encode serializes the reference for storage. An empty reference encodes
// to the empty string.
func (r ExternalRef) Encode() string {
	if r == (ExternalRef{}) {
		return ""
	}
	// Marshal cannot fail for a struct of plain strings
	b, _ := json.Marshal(r)
	return string(b)
}

// DecodeExternalRef parses a stored reference payload.
func DecodeExternalRef(s string) (ExternalRef, error) {
	var ref ExternalRef
	if s == "" {
		return ref, nil
	}
	if err := json.Unmarshal([]byte(s), &ref); err != nil {
		return ExternalRef{}, fmt.Errorf("malformed external reference: %w", err)
	}
	return ref, nil
}

// LedgerEntry is one immutable, append-only credit-changing record. The sum
// of all entry deltas for a user equals that user's balance at any point.
type LedgerEntry struct {
	ID        uint64
	UserID    string
	Delta     int64 // Positive = credit, negative = debit
	Kind      EntryKind
	Reason    string
	Ref       ExternalRef
	CreatedAt time.Time
}

// NewLedgerEntry creates a ledger entry with basic validation.
func NewLedgerEntry(
	userID string,
	delta int64,
	kind EntryKind,
	reason string,
	ref ExternalRef,
	timeProvider coreport.TimeProvider,
) (*LedgerEntry, error) {
	if userID == "" {
		return nil, errs.ErrInvalidUserID
	}
	if delta == 0 {
		return nil, errs.ErrInvalidDelta
	}
	if !IsValidEntryKind(string(kind)) {
		return nil, fmt.Errorf("%w: %s", errs.ErrInvalidEntryKind, kind)
	}

	return &LedgerEntry{
		UserID:    userID,
		Delta:     delta,
		Kind:      kind,
		Reason:    reason,
		Ref:       ref,
		CreatedAt: timeProvider.Now(),
	}, nil
}

// IsCredit reports whether this entry increased the balance.
func (e *LedgerEntry) IsCredit() bool {
	return e.Delta > 0
}

// IsValidEntryKind validates if the entry kind is one of the allowed values
func IsValidEntryKind(kind string) bool {
	switch EntryKind(kind) {
	case KindBaseReset, KindTopup, KindJobReserve, KindJobRefund, KindJobFailRefund, KindTierUpgradeBonus:
		return true
	}
	return false
}
