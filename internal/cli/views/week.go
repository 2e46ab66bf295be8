package views

import (
	"fmt"

	"github.com/tannerhall/tritrack/internal/cli"
	"github.com/tannerhall/tritrack/internal/utils"
)

type WeekCmd struct {
	Day string `arg:"" optional:"" help:"Any day inside the week (YYYY-MM-DD, 'today')." default:"today"`
}

func (c *WeekCmd) Run(ctx *cli.Context) error {
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

	fmt.Printf("Week %s .. %s\n", start, end)
	printRangeSummary(entry.Days)
	return nil
}
