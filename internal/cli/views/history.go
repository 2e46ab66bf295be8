package views

import (
	"fmt"

	"github.com/tannerhall/tritrack/internal/cli"
)

type HistoryCmd struct {
	Limit int `short:"l" help:"Show at most this many days (0 = all)." default:"0"`
}

func (c *HistoryCmd) Run(ctx *cli.Context) error {
	entry, err := ctx.Session.AllTime()
	if err != nil {
		return explainLoadError(ctx, err)
	}

	days := entry.Days
	if c.Limit > 0 && len(days) > c.Limit {
		days = days[:c.Limit]
	}

	fmt.Printf("All-time history (%d recorded days, newest first)\n", len(entry.Days))
	printRangeSummary(days)
	return nil
}
