package dto

import "time"

// BalanceResponse represents the API response for a user's balance
type BalanceResponse struct {
	UserID     string     `json:"userId"`
	Balance    int64      `json:"balance"`
	PlanID     string     `json:"planId,omitempty"`
	CycleStart *time.Time `json:"cycleStart,omitempty"`
	CycleEnd   *time.Time `json:"cycleEnd,omitempty"`
}

// LedgerEntryResponse represents one ledger entry in an audit listing
type LedgerEntryResponse struct {
	ID        uint64    `json:"id"`
	Delta     int64     `json:"delta"`
	Kind      string    `json:"kind"`
	Reason    string    `json:"reason,omitempty"`
	TaskID    string    `json:"taskId,omitempty"`
	EventID   string    `json:"eventId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// LedgerResponse represents the API response for a user's ledger listing
type LedgerResponse struct {
	UserID  string                `json:"userId"`
	Entries []LedgerEntryResponse `json:"entries"`
}
