package views

import (
	"fmt"
	"time"

	"github.com/tannerhall/tritrack/internal/cli"
)

type YearCmd struct {
	Year int `arg:"" optional:"" help:"Calendar year to show; defaults to the current year."`
}

func (c *YearCmd) Run(ctx *cli.Context) error {
	year := c.Year
	if year == 0 {
		year = time.Now().Year()
	}

	entry, err := ctx.Session.Year(year)
	if err != nil {
		return explainLoadError(ctx, err)
	}

	fmt.Printf("Year %d\n", year)
	printRangeSummary(entry.Days)
	return nil
}
