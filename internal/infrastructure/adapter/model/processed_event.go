package model

import (
	"time"
)

// ProcessedEvent represents the database model for billing webhook
// deduplication. The event id from the provider is the primary key, which
// makes claiming an event a race exactly one handler can win.
type ProcessedEvent struct {
	EventID      string    `gorm:"primaryKey;size:255"`
	Kind         string    `gorm:"not null;size:50"`
	Status       string    `gorm:"not null;size:20;index"`
	ErrorMessage string    `gorm:"type:text"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

// TableName specifies the table name for ProcessedEvent
func (ProcessedEvent) TableName() string {
	return "processed_events"
}
