package constants

// Plan identifies a subscription tier. The set is closed; anything
// unrecognized is treated as the free tier.
type Plan string

const (
	PlanFree    Plan = "free"
	PlanPlus    Plan = "plus"
	PlanPremium Plan = "premium"
)

// Valid reports whether the plan names a known tier.
func (p Plan) Valid() bool {
	switch p {
	case PlanFree, PlanPlus, PlanPremium:
		return true
	}
	return false
}

const (
	// UnlimitedHistory marks a plan with no lookback restriction
	UnlimitedHistory = -1

	// FreeHistoryDays is the rolling lookback window for the free tier
	FreeHistoryDays = 7
	// PlusHistoryDays is the rolling lookback window for the plus tier
	PlusHistoryDays = 90
)
