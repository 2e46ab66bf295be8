package profile

import (
	"context"
	"fmt"
	"io"
	stdlog "log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"

	"github.com/tannerhall/tritrack/internal/constants"
	"github.com/tannerhall/tritrack/internal/keyring"
	"github.com/tannerhall/tritrack/internal/models"
)

// HTTPProvider fetches subscription profiles from the accounts API.
type HTTPProvider struct {
	baseURL string
	token   string
	client  *retryablehttp.Client
}

// NewHTTPProvider creates a provider against the given accounts API base URL.
// The token may be empty for unauthenticated deployments.
func NewHTTPProvider(baseURL, token string) *HTTPProvider {
	retryClient := retryablehttp.NewClient()
	retryClient.Logger = stdlog.New(io.Discard, "", 0)
	retryClient.RetryMax = 5
	retryClient.HTTPClient.Timeout = 10 * time.Second

	return &HTTPProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  retryClient,
	}
}

// FromEnv builds a provider from TRITRACK_ACCOUNTS_URL, taking the bearer
// token from TRITRACK_ACCOUNTS_TOKEN or, failing that, the OS keyring.
// Returns nil when no accounts URL is configured.
func FromEnv() *HTTPProvider {
	baseURL := os.Getenv(constants.EnvAccountsURL)
	if baseURL == "" {
		return nil
	}

	token := os.Getenv(constants.EnvAccountsToken)
	if token == "" {
		if stored, err := keyring.GetAccountsToken(); err == nil {
			token = stored
		}
	}

	return NewHTTPProvider(baseURL, token)
}

func (p *HTTPProvider) Fetch(ctx context.Context, userID string) (models.SubscriptionProfile, error) {
	url := fmt.Sprintf("%s/v1/profiles/%s", p.baseURL, userID)
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return models.SubscriptionProfile{}, err
	}
	if p.token != "" {
		req.Header.Set("Authorization", "Bearer "+p.token)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return models.SubscriptionProfile{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return models.SubscriptionProfile{}, ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return models.SubscriptionProfile{}, fmt.Errorf("%w: unexpected status %d", ErrUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.SubscriptionProfile{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return parseProfile(body, userID)
}

// parseProfile extracts the billing fields from an accounts API response.
// Unknown plan values are kept verbatim; entitlement treats them as the
// most restrictive tier.
func parseProfile(body []byte, userID string) (models.SubscriptionProfile, error) {
	doc := string(body)
	if !gjson.Valid(doc) {
		return models.SubscriptionProfile{}, fmt.Errorf("malformed profile response")
	}

	prof := models.SubscriptionProfile{
		UserID: userID,
		Email:  gjson.Get(doc, "email").String(),
		Plan:   constants.Plan(gjson.Get(doc, "plan").String()),
	}
	if id := gjson.Get(doc, "user_id").String(); id != "" {
		prof.UserID = id
	}
	if expiry := gjson.Get(doc, "plan_expiry").String(); expiry != "" {
		ts, err := time.Parse(time.RFC3339, expiry)
		if err != nil {
			return models.SubscriptionProfile{}, fmt.Errorf("malformed plan_expiry: %w", err)
		}
		prof.PlanExpiry = &ts
	}
	return prof, nil
}
