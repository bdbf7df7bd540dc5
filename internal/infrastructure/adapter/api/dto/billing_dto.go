package dto

import "time"

// RenewalEventRequest represents a subscription-renewal billing event
type RenewalEventRequest struct {
	EventID     string    `json:"eventId" binding:"required"`
	UserID      string    `json:"userId" binding:"required"`
	PlanID      string    `json:"planId" binding:"required"`
	PeriodStart time.Time `json:"periodStart" binding:"required"`
	PeriodEnd   time.Time `json:"periodEnd" binding:"required"`
}

// TopupEventRequest represents a one-time credit-pack purchase event
type TopupEventRequest struct {
	EventID string `json:"eventId" binding:"required"`
	UserID  string `json:"userId" binding:"required"`
	PackSKU string `json:"packSku" binding:"required"`
	OrderID string `json:"orderId"`
}

// UpgradeEventRequest represents a mid-cycle plan change event
type UpgradeEventRequest struct {
	EventID       string `json:"eventId" binding:"required"`
	UserID        string `json:"userId" binding:"required"`
	OldPlanID     string `json:"oldPlanId" binding:"required"`
	NewPlanID     string `json:"newPlanId" binding:"required"`
	RemainingDays int    `json:"remainingDays" binding:"gte=0"`
	CycleDays     int    `json:"cycleDays" binding:"required,gt=0"`
}

// BillingEventResponse acknowledges a processed billing event
type BillingEventResponse struct {
	EventID   string `json:"eventId"`
	Processed bool   `json:"processed"`
}
