package entity

import (
	"time"

	errs "github.com/clipcraft/credit-ledger/internal/domain/error"
	coreport "github.com/clipcraft/credit-ledger/internal/domain/port/core"
)

// User represents an account holding prepaid generation credits. The
// identifier is the stable opaque id supplied by the authentication
// collaborator (a verified email in practice).
type User struct {
	ID                 string     // Stable opaque identifier
	balance            int64      // Cached credit balance; always equals the sum of ledger deltas (private)
	PlanID             string     // Current subscription plan, empty when none
	CycleStart         *time.Time // Current billing cycle start, nil when no active cycle
	CycleEnd           *time.Time // Current billing cycle end
	BillingCustomerRef string     // External billing-customer reference, optional
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// NewUser creates a new user with a zero balance and no plan.
func NewUser(id string, timeProvider coreport.TimeProvider) (*User, error) {
	if id == "" {
		return nil, errs.ErrInvalidUserID
	}

	now := timeProvider.Now()
	return &User{
		ID:        id,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Balance returns the cached credit balance.
func (u *User) Balance() int64 {
	return u.balance
}

// SetBalance overwrites the cached balance. Only repositories use this when
// rehydrating a user from storage; business code must go through the ledger.
func (u *User) SetBalance(balance int64) {
	u.balance = balance
}

// CanReserve reports whether the balance covers the needed credits.
func (u *User) CanReserve(needed int64) bool {
	return u.balance >= needed
}

// SetPlan updates the plan identifier and billing cycle window.
func (u *User) SetPlan(planID string, cycleStart, cycleEnd time.Time, timeProvider coreport.TimeProvider) {
	u.PlanID = planID
	u.CycleStart = &cycleStart
	u.CycleEnd = &cycleEnd
	u.UpdatedAt = timeProvider.Now()
}

// HasActiveCycle reports whether the given instant falls inside the user's
// current billing cycle.
func (u *User) HasActiveCycle(at time.Time) bool {
	if u.CycleStart == nil || u.CycleEnd == nil {
		return false
	}
	return !at.Before(*u.CycleStart) && at.Before(*u.CycleEnd)
}
