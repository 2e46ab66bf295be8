package profile

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/tannerhall/tritrack/internal/constants"
	"github.com/tannerhall/tritrack/internal/models"
)

type stubProvider struct {
	profile models.SubscriptionProfile
	err     error
	calls   int
}

func (s *stubProvider) Fetch(ctx context.Context, userID string) (models.SubscriptionProfile, error) {
	s.calls++
	if s.err != nil {
		return models.SubscriptionProfile{}, s.err
	}
	return s.profile, nil
}

func newTestManager(t *testing.T, provider Provider) *Manager {
	t.Helper()
	path := filepath.Join(t.TempDir(), constants.ProfileCacheFileName)
	m, err := NewManager(provider, path)
	if err != nil {
		t.Fatalf("NewManager() failed: %v", err)
	}
	t.Cleanup(func() { m.Close() })
	return m
}

func TestRefreshStoresAndReturnsProfile(t *testing.T) {
	want := models.SubscriptionProfile{UserID: "user-1", Plan: constants.PlanPlus}
	m := newTestManager(t, &stubProvider{profile: want})

	got, err := m.Refresh(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Refresh() failed: %v", err)
	}
	if got.Plan != constants.PlanPlus {
		t.Errorf("Refresh() plan = %s, want plus", got.Plan)
	}

	stored, err := m.Last("user-1")
	if err != nil {
		t.Fatalf("Last() failed: %v", err)
	}
	if stored.Plan != constants.PlanPlus {
		t.Errorf("Last() plan = %s, want plus", stored.Plan)
	}
}

func TestRefreshFiresHookOnChange(t *testing.T) {
	provider := &stubProvider{profile: models.SubscriptionProfile{UserID: "user-1", Plan: constants.PlanFree}}
	m := newTestManager(t, provider)

	var events []string
	m.OnChange(func(previous, current models.SubscriptionProfile) {
		events = append(events, fmt.Sprintf("%s->%s", previous.Plan, current.Plan))
	})

	if _, err := m.Refresh(context.Background(), "user-1"); err != nil {
		t.Fatalf("Refresh() failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("first refresh fired %d hooks, want 1 (never seen before)", len(events))
	}

	// Same profile again: no hook.
	if _, err := m.Refresh(context.Background(), "user-1"); err != nil {
		t.Fatalf("Refresh() failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("unchanged refresh fired hooks, want none (got %d total)", len(events))
	}

	// Upgrade: hook with old and new plan.
	provider.profile.Plan = constants.PlanPremium
	if _, err := m.Refresh(context.Background(), "user-1"); err != nil {
		t.Fatalf("Refresh() failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("plan change fired %d hooks, want 2 total", len(events))
	}
	if events[1] != "free->premium" {
		t.Errorf("hook saw %s, want free->premium", events[1])
	}
}

func TestRefreshExpiryChangeDetected(t *testing.T) {
	expiry := time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)
	provider := &stubProvider{profile: models.SubscriptionProfile{UserID: "user-1", Plan: constants.PlanPlus, PlanExpiry: &expiry}}
	m := newTestManager(t, provider)

	fired := 0
	m.OnChange(func(previous, current models.SubscriptionProfile) { fired++ })

	if _, err := m.Refresh(context.Background(), "user-1"); err != nil {
		t.Fatalf("Refresh() failed: %v", err)
	}

	// Same expiry via a different pointer must not count as a change.
	sameExpiry := expiry
	provider.profile.PlanExpiry = &sameExpiry
	if _, err := m.Refresh(context.Background(), "user-1"); err != nil {
		t.Fatalf("Refresh() failed: %v", err)
	}
	if fired != 1 {
		t.Errorf("equal expiry via new pointer fired hook, want value comparison")
	}

	later := expiry.AddDate(0, 1, 0)
	provider.profile.PlanExpiry = &later
	if _, err := m.Refresh(context.Background(), "user-1"); err != nil {
		t.Fatalf("Refresh() failed: %v", err)
	}
	if fired != 2 {
		t.Errorf("expiry change fired %d hooks, want 2", fired)
	}
}

func TestRefreshFallsBackToLastKnown(t *testing.T) {
	provider := &stubProvider{profile: models.SubscriptionProfile{UserID: "user-1", Plan: constants.PlanPremium}}
	m := newTestManager(t, provider)

	if _, err := m.Refresh(context.Background(), "user-1"); err != nil {
		t.Fatalf("Refresh() failed: %v", err)
	}

	provider.err = ErrUnavailable
	got, err := m.Refresh(context.Background(), "user-1")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("Refresh() error = %v, want ErrUnavailable surfaced", err)
	}
	if got.Plan != constants.PlanPremium {
		t.Errorf("Refresh() fallback plan = %s, want last-known premium", got.Plan)
	}
}

func TestRefreshUnknownUserOffline(t *testing.T) {
	m := newTestManager(t, &stubProvider{err: ErrUnavailable})

	_, err := m.Refresh(context.Background(), "stranger")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("Refresh() error = %v, want ErrUnavailable when nothing cached", err)
	}
}

func TestNilProviderServesCacheOnly(t *testing.T) {
	m := newTestManager(t, nil)

	_, err := m.Refresh(context.Background(), "user-1")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Refresh() with nil provider = %v, want ErrNotFound", err)
	}
}

func TestHTTPProviderFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.URL.Path {
		case "/v1/profiles/user-1":
			fmt.Fprint(w, `{"user_id":"user-1","email":"u@example.com","plan":"plus","plan_expiry":"2025-01-01T00:00:00Z"}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	provider := NewHTTPProvider(srv.URL, "tok-1")

	got, err := provider.Fetch(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Fetch() failed: %v", err)
	}
	if got.UserID != "user-1" || got.Email != "u@example.com" || got.Plan != constants.PlanPlus {
		t.Errorf("Fetch() = %+v, want populated profile", got)
	}
	if got.PlanExpiry == nil || !got.PlanExpiry.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Fetch() expiry = %v, want 2025-01-01", got.PlanExpiry)
	}

	if _, err := provider.Fetch(context.Background(), "ghost"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Fetch() missing user = %v, want ErrNotFound", err)
	}
}

func TestParseProfile(t *testing.T) {
	t.Run("unknown plan kept verbatim", func(t *testing.T) {
		prof, err := parseProfile([]byte(`{"plan":"enterprise"}`), "user-1")
		if err != nil {
			t.Fatalf("parseProfile() failed: %v", err)
		}
		if prof.Plan != constants.Plan("enterprise") {
			t.Errorf("plan = %s, want enterprise kept verbatim", prof.Plan)
		}
	})

	t.Run("malformed body rejected", func(t *testing.T) {
		if _, err := parseProfile([]byte(`{not json`), "user-1"); err == nil {
			t.Error("parseProfile() should reject malformed JSON")
		}
	})

	t.Run("malformed expiry rejected", func(t *testing.T) {
		if _, err := parseProfile([]byte(`{"plan":"free","plan_expiry":"yesterday"}`), "user-1"); err == nil {
			t.Error("parseProfile() should reject malformed plan_expiry")
		}
	})
}
