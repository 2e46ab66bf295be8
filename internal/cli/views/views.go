// Package views holds the read-side commands. Every command goes through
// the session cache; a denied result prints an upsell line and exits
// non-zero rather than pretending the data is empty.
package views

import (
	"errors"
	"fmt"

	"github.com/tannerhall/tritrack/internal/aggregate"
	"github.com/tannerhall/tritrack/internal/cache"
	"github.com/tannerhall/tritrack/internal/cli"
	"github.com/tannerhall/tritrack/internal/constants"
	"github.com/tannerhall/tritrack/internal/models"
)

// printRangeSummary lists each recorded day as a one-line summary and
// closes with per-category totals and the average score.
func printRangeSummary(days []models.DayRecord) {
	if len(days) == 0 {
		fmt.Println("  (no entries)")
		return
	}
	for _, rec := range days {
		fmt.Printf("  %s\n", cli.FormatDaySummary(rec))
	}
	fmt.Printf("Totals: sport=%d social=%d nutrition=%d  avg score=%.1f\n",
		aggregate.TotalPerCategory(days, constants.CategorySport),
		aggregate.TotalPerCategory(days, constants.CategorySocial),
		aggregate.TotalPerCategory(days, constants.CategoryNutrition),
		aggregate.AverageScore(days))
}

// explainLoadError maps cache sentinel errors onto user-facing messages.
func explainLoadError(ctx *cli.Context, err error) error {
	switch {
	case errors.Is(err, cache.ErrDenied):
		return fmt.Errorf("%s", cli.UpsellMessage(ctx.CurrentPlan()))
	case errors.Is(err, cache.ErrUnknownEntitlement):
		return fmt.Errorf("subscription status unknown; check your network or accounts configuration")
	default:
		return err
	}
}
