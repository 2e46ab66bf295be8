package logs

import (
	"fmt"

	"github.com/tannerhall/tritrack/internal/cli"
	"github.com/tannerhall/tritrack/internal/validation"
)

type AddCmd struct {
	Category string `arg:"" help:"Category (sport|social|nutrition)."`
	Type     string `arg:"" help:"Entry type within the category (e.g. running, coffee, veggies)."`
	Quantity int    `short:"n" help:"How many to add." default:"1"`
	Day      string `short:"d" help:"Day to log (YYYY-MM-DD, 'today', 'yesterday')." default:"today"`
}

func (c *AddCmd) Validate() error {
	cat, err := cli.ParseCategory(c.Category)
	if err != nil {
		return err
	}
	if err := validation.EntryType(cat, c.Type); err != nil {
		return err
	}
	return validation.Quantity(c.Quantity)
}

func (c *AddCmd) Run(ctx *cli.Context) error {
	day, err := ctx.ResolveDay(c.Day)
	if err != nil {
		return err
	}
	cat, err := cli.ParseCategory(c.Category)
	if err != nil {
		return err
	}

	if err := ctx.Session.Engine.Add(ctx.Session.UserID, day, cat, c.Type, c.Quantity); err != nil {
		return err
	}

	fmt.Printf("Logged %s/%s ×%d on %s\n", cat, c.Type, c.Quantity, day)
	return nil
}
