package views

import (
	"fmt"

	"github.com/tannerhall/tritrack/internal/aggregate"
	"github.com/tannerhall/tritrack/internal/cli"
	"github.com/tannerhall/tritrack/internal/constants"
	"github.com/tannerhall/tritrack/internal/utils"
)

type StatsCmd struct {
	Day string `short:"d" help:"Any day inside the week to analyze (YYYY-MM-DD, 'today')." default:"today"`
}

func (c *StatsCmd) Run(ctx *cli.Context) error {
	day, err := ctx.ResolveDay(c.Day)
	if err != nil {
		return err
	}
	start, end, err := utils.WeekRange(day)
	if err != nil {
		return err
	}

	entry, err := ctx.Session.Range(start, end)
	if err != nil {
		return explainLoadError(ctx, err)
	}

	fmt.Printf("Stats for %s .. %s\n", start, end)
	fmt.Printf("Average score: %.1f   Streak: %d day(s)\n", aggregate.AverageScore(entry.Days), aggregate.Streak(entry.Days))

	for _, cat := range constants.Categories {
		fmt.Printf("%s (total %d):\n", cat, aggregate.TotalPerCategory(entry.Days, cat))
		breakdown := aggregate.BreakdownPerCategory(entry.Days, cat)
		if len(breakdown) == 0 {
			fmt.Println("  (no entries)")
			continue
		}
		for _, tc := range breakdown {
			fmt.Printf("  %-12s ×%d\n", tc.Type, tc.Quantity)
		}
		if top, ok := aggregate.TopActivity(entry.Days, cat); ok {
			fmt.Printf("  top: %s\n", top.Type)
		}
	}
	return nil
}
