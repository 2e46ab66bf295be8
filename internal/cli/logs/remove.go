package logs

import (
	"errors"
	"fmt"

	"github.com/tannerhall/tritrack/internal/cli"
	"github.com/tannerhall/tritrack/internal/mutate"
	"github.com/tannerhall/tritrack/internal/validation"
)

type RemoveCmd struct {
	Category string `arg:"" help:"Category (sport|social|nutrition)."`
	Type     string `arg:"" help:"Entry type within the category."`
	Quantity int    `short:"n" help:"How many to remove; the full quantity deletes the entry." default:"1"`
	Day      string `short:"d" help:"Day to edit (YYYY-MM-DD, 'today', 'yesterday')." default:"today"`
	Step     bool   `help:"Single-unit step-down that refuses to empty the entry."`
}

func (c *RemoveCmd) Validate() error {
	cat, err := cli.ParseCategory(c.Category)
	if err != nil {
		return err
	}
	if err := validation.EntryType(cat, c.Type); err != nil {
		return err
	}
	if c.Step && c.Quantity != 1 {
		return fmt.Errorf("--step removes exactly one unit")
	}
	return validation.Quantity(c.Quantity)
}

func (c *RemoveCmd) Run(ctx *cli.Context) error {
	day, err := ctx.ResolveDay(c.Day)
	if err != nil {
		return err
	}
	cat, err := cli.ParseCategory(c.Category)
	if err != nil {
		return err
	}

	if c.Step {
		err = ctx.Session.Engine.Decrement(ctx.Session.UserID, day, cat, c.Type)
	} else {
		err = ctx.Session.Engine.Remove(ctx.Session.UserID, day, cat, c.Type, c.Quantity)
	}
	if err != nil {
		if errors.Is(err, mutate.ErrQuantityUnderflow) {
			return fmt.Errorf("not enough %s/%s logged on %s to remove %d", cat, c.Type, day, c.Quantity)
		}
		return err
	}

	fmt.Printf("Removed %s/%s ×%d on %s\n", cat, c.Type, c.Quantity, day)
	return nil
}
