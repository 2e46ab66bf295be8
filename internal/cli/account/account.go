package account

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tannerhall/tritrack/internal/cli"
	"github.com/tannerhall/tritrack/internal/constants"
	"github.com/tannerhall/tritrack/internal/keyring"
)

// PlanCmd shows the current subscription plan and its history window.
type PlanCmd struct {
	Refresh bool `help:"Force a profile refresh from the accounts service first."`
}

func (c *PlanCmd) Run(ctx *cli.Context) error {
	if c.Refresh {
		ctx.Session.RefreshProfile(context.Background())
	}

	prof := ctx.Session.Profile()
	if prof == nil {
		fmt.Println("Subscription status: unknown (accounts service configured but not yet reachable)")
		fmt.Println("Gated views are unavailable until the profile resolves. Retry with --refresh,")
		fmt.Println("or set a local plan override with `tritrack account override <plan>`.")
		return nil
	}

	plan := prof.EffectivePlan(time.Now())
	fmt.Printf("User:  %s\n", prof.UserID)
	if prof.Email != "" {
		fmt.Printf("Email: %s\n", prof.Email)
	}
	fmt.Printf("Plan:  %s", plan)
	if plan != prof.Plan {
		fmt.Printf(" (was %s, expired)", prof.Plan)
	}
	fmt.Println()
	if prof.PlanExpiry != nil {
		fmt.Printf("Renews/expires: %s\n", prof.PlanExpiry.Format(constants.DateFormat))
	}

	limits, _ := ctx.Session.Limits()
	if limits.UnlimitedHistory {
		fmt.Println("History window: unlimited")
	} else {
		fmt.Printf("History window: last %d days\n", limits.MaxHistoryDays)
	}
	return nil
}

// OverrideCmd sets or clears the persisted local plan override. The
// override bypasses the accounts service entirely, so it is meant for
// development and for installs that never configure one.
type OverrideCmd struct {
	Plan string `arg:"" help:"Plan to force locally (free, plus, premium), or 'clear' to remove the override."`
}

func (c *OverrideCmd) Run(ctx *cli.Context) error {
	settings, err := ctx.Store.GetSettings()
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	if c.Plan == "clear" {
		settings.PlanOverride = ""
		if err := ctx.Store.SaveSettings(settings); err != nil {
			return fmt.Errorf("failed to save settings: %w", err)
		}
		fmt.Println("✓ Plan override cleared")
		return nil
	}

	plan := constants.Plan(c.Plan)
	if !plan.Valid() {
		return fmt.Errorf("unknown plan %q (expected free, plus, or premium)", c.Plan)
	}
	settings.PlanOverride = string(plan)
	if err := ctx.Store.SaveSettings(settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	fmt.Printf("✓ Plan override set to %s\n", plan)
	return nil
}

// TokenSetCmd stores the accounts API bearer token in the OS keyring.
type TokenSetCmd struct {
	Token string `arg:"" help:"Bearer token for the accounts API."`
}

func (c *TokenSetCmd) Run(ctx *cli.Context) error {
	if err := keyring.SetAccountsToken(c.Token); err != nil {
		return fmt.Errorf("failed to store token in keyring: %w", err)
	}
	fmt.Println("✓ Accounts token stored in OS keyring")
	return nil
}

// TokenDeleteCmd removes the stored accounts API bearer token.
type TokenDeleteCmd struct{}

func (c *TokenDeleteCmd) Run(ctx *cli.Context) error {
	if err := keyring.DeleteAccountsToken(); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return errors.New("no accounts token found in keyring")
		}
		return fmt.Errorf("failed to delete token from keyring: %w", err)
	}
	fmt.Println("✓ Accounts token deleted from OS keyring")
	return nil
}
