package models

import (
	"time"

	"github.com/tannerhall/tritrack/internal/constants"
)

// SubscriptionProfile is the billing-owned slice of the user profile. It is
// read-only to this application; only the billing provider (or its webhook
// handler) mutates it upstream.
type SubscriptionProfile struct {
	UserID     string         `json:"user_id"`
	Email      string         `json:"email,omitempty"`
	Plan       constants.Plan `json:"plan"`
	PlanExpiry *time.Time     `json:"plan_expiry,omitempty"`
}

// EffectivePlan resolves the plan as of now: an expired paid plan degrades
// to free.
func (p SubscriptionProfile) EffectivePlan(now time.Time) constants.Plan {
	if p.PlanExpiry != nil && p.PlanExpiry.Before(now) {
		return constants.PlanFree
	}
	return p.Plan
}
