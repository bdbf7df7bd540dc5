package model

import (
	"time"
)

// Reservation represents the database model for open credit holds. The
// unique index on TaskID enforces one reservation per external task.
type Reservation struct {
	ID              uint64    `gorm:"primaryKey;autoIncrement"`
	UserID          string    `gorm:"not null;size:255;index"`
	TaskID          string    `gorm:"uniqueIndex;not null;size:255"`
	ReservedCredits int64     `gorm:"not null"`
	Status          string    `gorm:"not null;size:20;index:idx_reservations_status_created,priority:1"`
	CreatedAt       time.Time `gorm:"not null;index:idx_reservations_status_created,priority:2"`
	ClosedAt        *time.Time

	User User `gorm:"foreignKey:UserID;references:ID"`
}

// TableName specifies the table name for Reservation
func (Reservation) TableName() string {
	return "reservations"
}
