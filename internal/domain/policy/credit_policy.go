// Package policy holds the pure pricing rules of the credit ledger:
// seconds-to-credits conversion, plan base allotments, top-up packs and
// prorated upgrade bonuses. No I/O, no side effects; every value comes
// from the injected Config.
package policy

import "math"

// Config is the injected value set for the credit policy. Tables are read
// from configuration at startup; nothing in this package is hard-coded.
type Config struct {
	// CreditsPerSecond is the price of one billable second of generated video.
	CreditsPerSecond int64
	// PlanBaseCredits maps a plan identifier to its per-cycle base allotment.
	PlanBaseCredits map[string]int64
	// DefaultPlanCredits is the fallback allotment for plan identifiers not
	// present in PlanBaseCredits (new plans rolled out before a deploy).
	DefaultPlanCredits int64
	// TopupPackCredits maps a one-time pack SKU to the credits it grants.
	TopupPackCredits map[string]int64
}

// Fallbacks applied when the configuration leaves a value unset.
const (
	DefaultCreditsPerSecond   = 1
	DefaultUnknownPlanCredits = 1000
)

// Policy evaluates the credit rules against a fixed Config.
type Policy struct {
	cfg Config
}

// New creates a Policy, filling unset config values with the documented
// defaults.
func New(cfg Config) *Policy {
	if cfg.CreditsPerSecond <= 0 {
		cfg.CreditsPerSecond = DefaultCreditsPerSecond
	}
	if cfg.DefaultPlanCredits <= 0 {
		cfg.DefaultPlanCredits = DefaultUnknownPlanCredits
	}
	return &Policy{cfg: cfg}
}

// BillableSeconds converts a raw duration into whole billed seconds:
// negatives clamp to zero, then round half-away-from-zero, with a
// one-second minimum.
func (p *Policy) BillableSeconds(seconds float64) int64 {
	if math.IsNaN(seconds) || seconds < 0 {
		seconds = 0
	}
	billable := int64(math.Round(seconds))
	if billable < 1 {
		billable = 1
	}
	return billable
}

// CreditsForSeconds returns the credits a job of the given duration costs.
// Monotonically non-decreasing and strictly positive for any input.
func (p *Policy) CreditsForSeconds(seconds float64) int64 {
	return p.BillableSeconds(seconds) * p.cfg.CreditsPerSecond
}

// BaseCreditsForPlan looks up the per-cycle base allotment for a plan. The
// second return value is false when the plan is unknown and the documented
// default applies; callers log that condition at warn level.
func (p *Policy) BaseCreditsForPlan(planID string) (int64, bool) {
	if credits, ok := p.cfg.PlanBaseCredits[planID]; ok {
		return credits, true
	}
	return p.cfg.DefaultPlanCredits, false
}

// TopupCredits looks up the credits granted by a one-time pack SKU. Unknown
// SKUs resolve to zero, never negative; the second return value is false so
// callers can log the condition.
func (p *Policy) TopupCredits(packSKU string) (int64, bool) {
	if credits, ok := p.cfg.TopupPackCredits[packSKU]; ok {
		return credits, true
	}
	return 0, false
}

// UpgradeBonus prorates the allotment difference over the remainder of the
// billing cycle: ceil((newBase-oldBase) * remainingDays / cycleDays), floored
// at zero. Downgrades earn no bonus and no clawback.
func (p *Policy) UpgradeBonus(oldBase, newBase int64, remainingDays, cycleDays int) int64 {
	diff := newBase - oldBase
	if diff <= 0 || cycleDays <= 0 || remainingDays <= 0 {
		return 0
	}
	if remainingDays > cycleDays {
		remainingDays = cycleDays
	}
	return (diff*int64(remainingDays) + int64(cycleDays) - 1) / int64(cycleDays)
}
