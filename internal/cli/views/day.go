package views

import (
	"fmt"

	"github.com/tannerhall/tritrack/internal/aggregate"
	"github.com/tannerhall/tritrack/internal/cli"
)

type DayCmd struct {
	Day string `arg:"" optional:"" help:"Day to show (YYYY-MM-DD, 'today', 'yesterday')." default:"today"`
}

func (c *DayCmd) Run(ctx *cli.Context) error {
	day, err := ctx.ResolveDay(c.Day)
	if err != nil {
		return err
	}

	entry, err := ctx.Session.Day(day)
	if err != nil {
		return explainLoadError(ctx, err)
	}

	fmt.Printf("%s  (score %d)\n", day, aggregate.DayScore(entry.Day))
	fmt.Print(cli.FormatDayRecord(entry.Day))
	return nil
}
