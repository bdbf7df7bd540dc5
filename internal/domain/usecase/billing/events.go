// Package billing converts external billing events (subscription renewals,
// one-time top-ups, tier upgrades) into ledger credits, exactly once per
// event id.
package billing

import "time"

// RenewalEvent is a validated subscription-renewal webhook. The webhook
// adapter has already parsed and verified the vendor payload; this core
// never sees raw provider JSON.
type RenewalEvent struct {
	EventID     string
	UserID      string
	PlanID      string
	PeriodStart time.Time
	PeriodEnd   time.Time
}

// TopupEvent is a validated one-time credit-pack purchase.
type TopupEvent struct {
	EventID string
	UserID  string
	PackSKU string
	OrderID string
}

// UpgradeEvent is a validated mid-cycle plan change. RemainingDays and
// CycleDays drive the prorated bonus; downgrades carry a non-positive
// allotment difference and earn nothing.
type UpgradeEvent struct {
	EventID       string
	UserID        string
	OldPlanID     string
	NewPlanID     string
	RemainingDays int
	CycleDays     int
}
