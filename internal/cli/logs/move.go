package logs

import (
	"fmt"

	"github.com/tannerhall/tritrack/internal/cli"
	"github.com/tannerhall/tritrack/internal/validation"
)

type MoveCmd struct {
	Category string `arg:"" help:"Category (sport|social|nutrition)."`
	Type     string `arg:"" help:"Entry type within the category."`
	From     string `arg:"" help:"Day the entry is currently on (YYYY-MM-DD, 'today', 'yesterday')."`
	To       string `arg:"" help:"Day to move it to."`
	Quantity int    `short:"n" help:"How many to move." default:"1"`
}

func (c *MoveCmd) Validate() error {
	cat, err := cli.ParseCategory(c.Category)
	if err != nil {
		return err
	}
	if err := validation.EntryType(cat, c.Type); err != nil {
		return err
	}
	return validation.Quantity(c.Quantity)
}

func (c *MoveCmd) Run(ctx *cli.Context) error {
	from, err := ctx.ResolveDay(c.From)
	if err != nil {
		return err
	}
	to, err := ctx.ResolveDay(c.To)
	if err != nil {
		return err
	}
	cat, err := cli.ParseCategory(c.Category)
	if err != nil {
		return err
	}

	if from == to {
		fmt.Println("Source and destination are the same day; nothing to do.")
		return nil
	}

	if err := ctx.Session.Engine.Move(ctx.Session.UserID, from, to, cat, c.Type, c.Quantity); err != nil {
		return err
	}

	fmt.Printf("Moved %s/%s ×%d from %s to %s\n", cat, c.Type, c.Quantity, from, to)
	return nil
}
