package model

import (
	"time"

	"gorm.io/gorm"
)

// User represents the database model for credit accounts. Balance is the
// cached sum of ledger entry deltas; soft delete only, accounts are never
// hard-deleted.
type User struct {
	ID                 string `gorm:"primaryKey;size:255"`
	Balance            int64  `gorm:"not null;default:0"`
	PlanID             string `gorm:"size:100"`
	CycleStart         *time.Time
	CycleEnd           *time.Time
	BillingCustomerRef string    `gorm:"size:255"`
	CreatedAt          time.Time `gorm:"not null"`
	UpdatedAt          time.Time `gorm:"not null"`
	DeletedAt          gorm.DeletedAt `gorm:"index"`
}

// TableName specifies the table name for User
func (User) TableName() string {
	return "users"
}
