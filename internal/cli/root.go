package cli

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/tannerhall/tritrack/internal/aggregate"
	"github.com/tannerhall/tritrack/internal/constants"
	"github.com/tannerhall/tritrack/internal/models"
	"github.com/tannerhall/tritrack/internal/session"
	"github.com/tannerhall/tritrack/internal/storage"
	"github.com/tannerhall/tritrack/internal/utils"
	"github.com/tannerhall/tritrack/internal/validation"
)

type Context struct {
	Store   storage.Provider
	Session *session.Session
}

// ResolveDay turns a user-facing day argument into YYYY-MM-DD. Accepts
// "today", "yesterday", or an explicit date.
func (c *Context) ResolveDay(arg string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(arg)) {
	case "", "today":
		return c.Session.Today()
	case "yesterday":
		today, err := c.Session.Today()
		if err != nil {
			return "", err
		}
		t, err := utils.ParseDay(today)
		if err != nil {
			return "", err
		}
		return utils.FormatDay(t.AddDate(0, 0, -1)), nil
	default:
		if err := validation.Day(arg); err != nil {
			return "", err
		}
		return arg, nil
	}
}

// ParseCategory validates and normalizes a category argument.
func ParseCategory(arg string) (constants.Category, error) {
	return validation.Category(strings.ToLower(strings.TrimSpace(arg)))
}

// FormatDayRecord renders one day's buckets as indented lines, categories
// in canonical order, entries sorted by quantity descending.
func FormatDayRecord(rec models.DayRecord) string {
	var b strings.Builder
	empty := true
	for _, cat := range constants.Categories {
		entries := append([]models.TypedEntry(nil), rec.Buckets[cat]...)
		if len(entries) == 0 {
			continue
		}
		empty = false
		sort.SliceStable(entries, func(i, j int) bool {
			return entries[i].Quantity > entries[j].Quantity
		})
		fmt.Fprintf(&b, "  %s:\n", cat)
		for _, e := range entries {
			fmt.Fprintf(&b, "    %-12s ×%d\n", e.Type, e.Quantity)
		}
	}
	if empty {
		return "  (no entries)\n"
	}
	return b.String()
}

// FormatDaySummary renders the one-line form: day, score, and per-category
// totals.
func FormatDaySummary(rec models.DayRecord) string {
	one := []models.DayRecord{rec}
	return fmt.Sprintf("%s  score=%d  sport=%d social=%d nutrition=%d",
		rec.Day, aggregate.DayScore(rec),
		aggregate.TotalPerCategory(one, constants.CategorySport),
		aggregate.TotalPerCategory(one, constants.CategorySocial),
		aggregate.TotalPerCategory(one, constants.CategoryNutrition))
}

// UpsellMessage is printed when entitlement denies a view.
func UpsellMessage(plan constants.Plan) string {
	switch plan {
	case constants.PlanFree:
		return fmt.Sprintf("This view is outside the free plan's %d-day history. Upgrade to plus or premium to unlock it.", constants.FreeHistoryDays)
	case constants.PlanPlus:
		return fmt.Sprintf("This view is outside the plus plan's %d-day history. Upgrade to premium for unlimited history.", constants.PlusHistoryDays)
	default:
		return "This view is not available on your current plan."
	}
}

// CurrentPlan resolves the session's plan, defaulting to free while the
// profile is unknown.
func (c *Context) CurrentPlan() constants.Plan {
	prof := c.Session.Profile()
	if prof == nil {
		return constants.PlanFree
	}
	return prof.EffectivePlan(time.Now())
}
