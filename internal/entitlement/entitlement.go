// Package entitlement maps subscription plans to access limits and decides,
// per data point, whether the current plan allows a historical date to be
// fetched or displayed. Decisions are pure functions of (plan, now) and are
// deliberately never memoized: "now" advances and the plan can change
// mid-session, so every render re-evaluates.
package entitlement

import (
	"time"

	"github.com/tannerhall/tritrack/internal/constants"
	"github.com/tannerhall/tritrack/internal/models"
	"github.com/tannerhall/tritrack/internal/utils"
)

// Limits is the derived entitlement set for a plan. It is computed, never
// stored.
type Limits struct {
	// MaxHistoryDays is the rolling lookback window in whole days, or
	// constants.UnlimitedHistory.
	MaxHistoryDays   int
	AdvancedSearch   bool
	UnlimitedHistory bool
	Export           bool
}

// Access is the tri-state result of an entitlement check. Unknown means the
// profile has not loaded yet; callers must render a loading state rather
// than silently granting or denying.
type Access int

const (
	AccessUnknown Access = iota
	AccessGranted
	AccessDenied
)

// LimitsFor returns the limits for a plan. It is total over the closed plan
// set; unknown plans default to the most restrictive tier.
func LimitsFor(plan constants.Plan) Limits {
	switch plan {
	case constants.PlanPremium:
		return Limits{
			MaxHistoryDays:   constants.UnlimitedHistory,
			AdvancedSearch:   true,
			UnlimitedHistory: true,
			Export:           true,
		}
	case constants.PlanPlus:
		return Limits{
			MaxHistoryDays: constants.PlusHistoryDays,
			AdvancedSearch: true,
		}
	default:
		return Limits{
			MaxHistoryDays: constants.FreeHistoryDays,
		}
	}
}

// LimitsForProfile resolves the effective plan (expiry degrades to free)
// before computing limits. A nil profile yields no limits and callers should
// treat every check as AccessUnknown.
func LimitsForProfile(profile *models.SubscriptionProfile, now time.Time) (Limits, bool) {
	if profile == nil {
		return Limits{}, false
	}
	return LimitsFor(profile.EffectivePlan(now)), true
}

// CanAccessDate reports whether a calendar day is within the plan's rolling
// lookback window. The difference is computed by calendar-day truncation,
// not wall-clock subtraction, so timezone and DST drift cannot change the
// outcome. Future dates fall out of the same formula (negative diff is
// always within the window); blocking navigation into the future is the
// caller's job.
func CanAccessDate(date time.Time, limits Limits, now time.Time) bool {
	if limits.MaxHistoryDays == constants.UnlimitedHistory {
		return true
	}
	return utils.DaysBetween(date, now) <= limits.MaxHistoryDays
}

// CanAccessDay is CanAccessDate for a date string. Malformed days are
// denied.
func CanAccessDay(day string, limits Limits, now time.Time) bool {
	t, err := utils.ParseDay(day)
	if err != nil {
		return false
	}
	return CanAccessDate(t, limits, now)
}

// CanAccessRange reports whether the whole [start, end] range is within the
// window. Only the range start matters: if the oldest day is accessible,
// every later day is too.
func CanAccessRange(start, end string, limits Limits, now time.Time) bool {
	if start > end {
		return false
	}
	return CanAccessDay(start, limits, now)
}

// CanAccessYear follows the same pattern at year granularity: the year is
// accessible iff its most recent day is. A year that has not started yet
// compares like a future date.
func CanAccessYear(year int, limits Limits, now time.Time) bool {
	if limits.MaxHistoryDays == constants.UnlimitedHistory {
		return true
	}
	// The year is accessible iff its most recent day not after today is.
	// For the current year that is today (diff 0); for a future year the
	// diff goes negative, which the date formula already admits.
	lastDay := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
	today := utils.DateOnly(now)
	if today.Year() == year {
		lastDay = today
	}
	return CanAccessDate(lastDay, limits, now)
}

// CheckDay is the tri-state form of CanAccessDay: AccessUnknown when the
// profile is not loaded, otherwise Granted or Denied.
func CheckDay(day string, profile *models.SubscriptionProfile, now time.Time) Access {
	limits, ok := LimitsForProfile(profile, now)
	if !ok {
		return AccessUnknown
	}
	if CanAccessDay(day, limits, now) {
		return AccessGranted
	}
	return AccessDenied
}

// CheckYear is the tri-state form of CanAccessYear.
func CheckYear(year int, profile *models.SubscriptionProfile, now time.Time) Access {
	limits, ok := LimitsForProfile(profile, now)
	if !ok {
		return AccessUnknown
	}
	if CanAccessYear(year, limits, now) {
		return AccessGranted
	}
	return AccessDenied
}

// CheckRange is the tri-state form of CanAccessRange.
func CheckRange(start, end string, profile *models.SubscriptionProfile, now time.Time) Access {
	limits, ok := LimitsForProfile(profile, now)
	if !ok {
		return AccessUnknown
	}
	if CanAccessRange(start, end, limits, now) {
		return AccessGranted
	}
	return AccessDenied
}
