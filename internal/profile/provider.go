package profile

import (
	"context"
	"errors"

	"github.com/tannerhall/tritrack/internal/models"
)

var (
	// ErrUnavailable is returned when the accounts service cannot be reached.
	ErrUnavailable = errors.New("accounts service unavailable")
	// ErrNotFound is returned when the accounts service has no profile for
	// the user.
	ErrNotFound = errors.New("profile not found")
)

// Provider fetches the billing-owned subscription profile for a user.
// Implementations must not cache; staleness handling belongs to the Manager.
type Provider interface {
	Fetch(ctx context.Context, userID string) (models.SubscriptionProfile, error)
}
