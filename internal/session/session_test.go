package session

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/tannerhall/tritrack/internal/cache"
	"github.com/tannerhall/tritrack/internal/constants"
	"github.com/tannerhall/tritrack/internal/models"
	"github.com/tannerhall/tritrack/internal/profile"
	"github.com/tannerhall/tritrack/internal/storage"
)

// fakeStore implements just enough of storage.Provider for session tests.
type fakeStore struct {
	storage.Provider
	days     map[string]models.DayRecord
	settings models.Settings
	getCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		days:     make(map[string]models.DayRecord),
		settings: models.Settings{Timezone: "UTC", DefaultUser: "user-1"},
	}
}

func (f *fakeStore) GetSettings() (models.Settings, error) { return f.settings, nil }

func (f *fakeStore) GetDay(userID, day string) (models.DayRecord, error) {
	f.getCalls++
	rec, ok := f.days[userID+"|"+day]
	if !ok {
		return models.DayRecord{}, storage.ErrNotFound
	}
	return rec, nil
}

func (f *fakeStore) GetRange(userID, start, end string) ([]models.DayRecord, error) {
	f.getCalls++
	var out []models.DayRecord
	for _, rec := range f.days {
		if rec.UserID == userID && rec.Day >= start && rec.Day <= end {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeStore) GetAll(userID string) ([]models.DayRecord, error) {
	f.getCalls++
	var out []models.DayRecord
	for _, rec := range f.days {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeStore) seed(userID, day string, cat constants.Category, entryType string, qty int) {
	rec, ok := f.days[userID+"|"+day]
	if !ok {
		rec = models.NewDayRecord(userID, day)
	}
	rec.Buckets[cat] = append(rec.Buckets[cat], models.TypedEntry{Type: entryType, Quantity: qty, UpdatedAt: time.Now()})
	f.days[userID+"|"+day] = rec
}

type fixedProvider struct {
	prof models.SubscriptionProfile
	err  error
}

func (p *fixedProvider) Fetch(ctx context.Context, userID string) (models.SubscriptionProfile, error) {
	if p.err != nil {
		return models.SubscriptionProfile{}, p.err
	}
	return p.prof, nil
}

func newTestSession(t *testing.T, store *fakeStore, prov profile.Provider) *Session {
	t.Helper()
	var mgr *profile.Manager
	if prov != nil {
		var err error
		mgr, err = profile.NewManager(prov, filepath.Join(t.TempDir(), constants.ProfileCacheFileName))
		if err != nil {
			t.Fatalf("NewManager() failed: %v", err)
		}
	}
	s, err := New(store, mgr, "")
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewResolvesDefaultUser(t *testing.T) {
	s := newTestSession(t, newFakeStore(), nil)
	if s.UserID != "user-1" {
		t.Errorf("UserID = %s, want default user from settings", s.UserID)
	}
}

func TestDayBeforeProfileKnownFailsFast(t *testing.T) {
	// Accounts service configured but unreachable: entitlement stays
	// unknown and gated loads fail fast instead of guessing.
	prov := &fixedProvider{err: profile.ErrUnavailable}
	s := newTestSession(t, newFakeStore(), prov)
	s.RefreshProfile(context.Background())

	today, err := s.Today()
	if err != nil {
		t.Fatalf("Today() failed: %v", err)
	}
	_, err = s.Day(today)
	if !errors.Is(err, cache.ErrUnknownEntitlement) {
		t.Errorf("Day() before profile = %v, want ErrUnknownEntitlement", err)
	}
}

func TestLocalInstallDefaultsToFree(t *testing.T) {
	// No accounts service at all: the free tier applies rather than
	// leaving every view permanently unknown.
	s := newTestSession(t, newFakeStore(), nil)

	today, err := s.Today()
	if err != nil {
		t.Fatalf("Today() failed: %v", err)
	}
	entry, err := s.Day(today)
	if err != nil {
		t.Fatalf("Day() on a local install = %v, want free-tier access", err)
	}
	if entry.State != cache.StateReady {
		t.Errorf("state = %v, want Ready", entry.State)
	}

	if _, err := s.AllTime(); !errors.Is(err, cache.ErrDenied) {
		t.Errorf("AllTime() on a local install = %v, want ErrDenied on free tier", err)
	}
	if _, err := s.Week("2019-03-06"); !errors.Is(err, cache.ErrDenied) {
		t.Errorf("Week() far in the past = %v, want ErrDenied on free tier", err)
	}
}

func TestPlanOverrideWinsOverProfile(t *testing.T) {
	store := newFakeStore()
	store.settings.PlanOverride = string(constants.PlanPremium)
	prov := &fixedProvider{prof: models.SubscriptionProfile{UserID: "user-1", Plan: constants.PlanFree}}
	s := newTestSession(t, store, prov)
	s.RefreshProfile(context.Background())

	if _, err := s.AllTime(); err != nil {
		t.Errorf("AllTime() with premium override = %v, want granted", err)
	}
	if prof := s.Profile(); prof == nil || prof.Plan != constants.PlanPremium {
		t.Errorf("Profile() = %+v, want override plan premium", prof)
	}
}

func TestPlanOverrideOnLocalInstall(t *testing.T) {
	store := newFakeStore()
	store.settings.PlanOverride = string(constants.PlanPremium)
	store.seed("user-1", "2020-01-01", constants.CategorySport, "running", 1)
	s := newTestSession(t, store, nil)

	entry, err := s.AllTime()
	if err != nil {
		t.Fatalf("AllTime() with premium override = %v, want granted", err)
	}
	if len(entry.Days) != 1 {
		t.Errorf("AllTime() returned %d days, want 1", len(entry.Days))
	}
}

func TestDaySynthesizesEmptyRecord(t *testing.T) {
	store := newFakeStore()
	prov := &fixedProvider{prof: models.SubscriptionProfile{UserID: "user-1", Plan: constants.PlanPremium}}
	s := newTestSession(t, store, prov)
	s.RefreshProfile(context.Background())

	today, _ := s.Today()
	entry, err := s.Day(today)
	if err != nil {
		t.Fatalf("Day() failed: %v", err)
	}
	if entry.State != cache.StateReady {
		t.Errorf("state = %v, want Ready", entry.State)
	}
	if !entry.Day.IsEmpty() {
		t.Errorf("empty day should materialize as an empty record, got %+v", entry.Day)
	}

	// Second read is a cache hit.
	calls := store.getCalls
	if _, err := s.Day(today); err != nil {
		t.Fatalf("Day() failed: %v", err)
	}
	if store.getCalls != calls {
		t.Errorf("second Day() hit the store, want cache hit")
	}
}

func TestAllTimeGatedByPlan(t *testing.T) {
	tests := []struct {
		plan       constants.Plan
		wantDenied bool
	}{
		{constants.PlanFree, true},
		{constants.PlanPlus, true},
		{constants.PlanPremium, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.plan), func(t *testing.T) {
			store := newFakeStore()
			store.seed("user-1", "2020-01-01", constants.CategorySport, "running", 1)
			prov := &fixedProvider{prof: models.SubscriptionProfile{UserID: "user-1", Plan: tt.plan}}
			s := newTestSession(t, store, prov)
			s.RefreshProfile(context.Background())

			entry, err := s.AllTime()
			if tt.wantDenied {
				if !errors.Is(err, cache.ErrDenied) {
					t.Errorf("AllTime() = %v, want ErrDenied for %s", err, tt.plan)
				}
				if store.getCalls != 0 {
					t.Errorf("denied AllTime() hit the store")
				}
				return
			}
			if err != nil {
				t.Fatalf("AllTime() failed: %v", err)
			}
			if len(entry.Days) != 1 {
				t.Errorf("AllTime() returned %d days, want 1", len(entry.Days))
			}
		})
	}
}

func TestWeekOutsideFreeWindowDenied(t *testing.T) {
	store := newFakeStore()
	prov := &fixedProvider{prof: models.SubscriptionProfile{UserID: "user-1", Plan: constants.PlanFree}}
	s := newTestSession(t, store, prov)
	s.RefreshProfile(context.Background())

	_, err := s.Week("2019-03-06")
	if !errors.Is(err, cache.ErrDenied) {
		t.Errorf("Week() far in the past = %v, want ErrDenied on free plan", err)
	}
}

func TestProfileChangeInvalidatesCache(t *testing.T) {
	store := newFakeStore()
	prov := &fixedProvider{prof: models.SubscriptionProfile{UserID: "user-1", Plan: constants.PlanPremium}}
	s := newTestSession(t, store, prov)
	s.RefreshProfile(context.Background())

	if _, err := s.AllTime(); err != nil {
		t.Fatalf("AllTime() failed: %v", err)
	}
	if s.Cache.Len() == 0 {
		t.Fatal("expected a materialized entry before the plan change")
	}

	// Downgrade arrives on the next refresh.
	prov.prof.Plan = constants.PlanFree
	s.RefreshProfile(context.Background())

	if s.Cache.Len() != 0 {
		t.Errorf("cache holds %d entries after plan change, want 0", s.Cache.Len())
	}
	if _, err := s.AllTime(); !errors.Is(err, cache.ErrDenied) {
		t.Errorf("AllTime() after downgrade = %v, want ErrDenied", err)
	}
}

func TestRefreshProfileOfflineKeepsLastKnown(t *testing.T) {
	store := newFakeStore()
	prov := &fixedProvider{prof: models.SubscriptionProfile{UserID: "user-1", Plan: constants.PlanPlus}}
	s := newTestSession(t, store, prov)
	s.RefreshProfile(context.Background())

	prov.err = profile.ErrUnavailable
	s.RefreshProfile(context.Background())

	if s.Profile() == nil || s.Profile().Plan != constants.PlanPlus {
		t.Errorf("Profile() after offline refresh = %+v, want last-known plus", s.Profile())
	}
}
