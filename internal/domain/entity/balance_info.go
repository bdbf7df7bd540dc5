package entity

import "time"

// BalanceInfo is the read model for the balance endpoint: current credits
// plus the billing cycle window the editor UI displays.
type BalanceInfo struct {
	UserID     string     `json:"userId"`
	Balance    int64      `json:"balance"`
	PlanID     string     `json:"planId,omitempty"`
	CycleStart *time.Time `json:"cycleStart,omitempty"`
	CycleEnd   *time.Time `json:"cycleEnd,omitempty"`
}

// UserToBalanceInfo converts a User entity to the balance read model.
// Kept as a free function rather than a method to keep the domain model
// free of presentation concerns.
func UserToBalanceInfo(user *User) BalanceInfo {
	return BalanceInfo{
		UserID:     user.ID,
		Balance:    user.Balance(),
		PlanID:     user.PlanID,
		CycleStart: user.CycleStart,
		CycleEnd:   user.CycleEnd,
	}
}
