package model

import (
	"time"
)

// LedgerEntry represents the database model for credit-changing records.
// Rows are append-only: no updated_at, no soft delete, never mutated after
// insert.
type LedgerEntry struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement"`
	UserID      string    `gorm:"not null;size:255;index:idx_ledger_entries_user_created,priority:1"`
	Delta       int64     `gorm:"not null"`
	Kind        string    `gorm:"not null;size:50;index"`
	Reason      string    `gorm:"type:text"`
	ExternalRef string    `gorm:"type:text"`
	CreatedAt   time.Time `gorm:"not null;index:idx_ledger_entries_user_created,priority:2"`

	User User `gorm:"foreignKey:UserID;references:ID"`
}

// TableName specifies the table name for LedgerEntry
func (LedgerEntry) TableName() string {
	return "ledger_entries"
}
