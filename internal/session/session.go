// Package session owns the per-login wiring: one store, one cache, one
// mutation engine, and the current subscription profile. A Session is
// created after the store is loaded and torn down on exit; nothing in it
// survives across logins.
package session

import (
	"context"
	"time"

	"github.com/tannerhall/tritrack/internal/cache"
	"github.com/tannerhall/tritrack/internal/constants"
	"github.com/tannerhall/tritrack/internal/entitlement"
	"github.com/tannerhall/tritrack/internal/logger"
	"github.com/tannerhall/tritrack/internal/models"
	"github.com/tannerhall/tritrack/internal/mutate"
	"github.com/tannerhall/tritrack/internal/profile"
	"github.com/tannerhall/tritrack/internal/storage"
	"github.com/tannerhall/tritrack/internal/utils"
)

// Session binds a user to the store, the query cache, and the mutation
// engine for the lifetime of one login.
type Session struct {
	UserID   string
	Store    storage.Provider
	Cache    *cache.Cache
	Engine   *mutate.Engine
	Profiles *profile.Manager

	settings models.Settings
	profile  *models.SubscriptionProfile
	now      func() time.Time
}

// New builds a session for userID. An empty userID resolves to the store's
// default user. The profile manager may be nil for purely local use; with
// no accounts service to consult, entitlement falls back to the free tier
// unless the settings carry a plan override.
func New(store storage.Provider, profiles *profile.Manager, userID string) (*Session, error) {
	settings, err := store.GetSettings()
	if err != nil {
		return nil, err
	}
	if userID == "" {
		userID = settings.DefaultUser
	}

	s := &Session{
		UserID:   userID,
		Store:    store,
		Cache:    cache.New(),
		Profiles: profiles,
		settings: settings,
		now:      time.Now,
	}
	s.Engine = mutate.NewEngine(store, s.Cache)

	if profiles != nil {
		profiles.OnChange(func(previous, current models.SubscriptionProfile) {
			if current.UserID != s.UserID {
				return
			}
			// Plan changes move the entitlement boundary in either
			// direction, so every cached view was computed under a
			// decision that no longer holds. Drop them rather than
			// serving stale placeholders.
			n := s.Cache.DropUser(s.UserID)
			logger.Info("Subscription changed, cache dropped",
				"user", s.UserID, "from", previous.Plan, "to", current.Plan, "entries", n)
			s.profile = &current
		})
	}

	return s, nil
}

// RefreshProfile pulls the current subscription profile. On fetch failure
// the last-known profile is used; before any profile is known entitlement
// stays Unknown and gated loads fail fast instead of guessing.
func (s *Session) RefreshProfile(ctx context.Context) {
	if s.Profiles == nil {
		return
	}
	prof, err := s.Profiles.Refresh(ctx, s.UserID)
	if err != nil && prof.UserID == "" {
		logger.Warn("No subscription profile available", "user", s.UserID, "error", err)
		return
	}
	s.profile = &prof
}

// currentProfile resolves the profile entitlement checks run against. A
// persisted plan override wins over everything else. Next comes the last
// fetched profile. With neither, a nil profile manager means the install
// has no accounts service at all, so the free tier applies instead of
// leaving entitlement unknown forever. Only a configured-but-unresolved
// accounts service yields nil, which makes gated loads fail fast.
func (s *Session) currentProfile() *models.SubscriptionProfile {
	if plan := constants.Plan(s.settings.PlanOverride); plan.Valid() {
		return &models.SubscriptionProfile{UserID: s.UserID, Plan: plan}
	}
	if s.profile != nil {
		return s.profile
	}
	if s.Profiles == nil {
		return &models.SubscriptionProfile{UserID: s.UserID, Plan: constants.PlanFree}
	}
	return nil
}

// Profile returns the profile entitlement runs against: the plan override
// or local free-tier fallback when those apply, otherwise the fetched
// profile, nil while an accounts service is configured but unresolved.
func (s *Session) Profile() *models.SubscriptionProfile { return s.currentProfile() }

// Limits resolves the current plan limits. The boolean is false while the
// profile is unknown.
func (s *Session) Limits() (entitlement.Limits, bool) {
	return entitlement.LimitsForProfile(s.currentProfile(), s.now())
}

// Settings returns the store settings loaded at session start.
func (s *Session) Settings() models.Settings { return s.settings }

// Today resolves the current day in the configured timezone.
func (s *Session) Today() (string, error) {
	return utils.TodayFromSettings(s.settings)
}

// Day loads the single-day view through the cache, consulting entitlement
// first. ErrDenied means the plan's window excludes the day.
func (s *Session) Day(day string) (cache.Entry, error) {
	access := entitlement.CheckDay(day, s.currentProfile(), s.now())
	return s.Cache.Load(cache.DayKey(s.UserID, day), access, func(key cache.Key) (models.DayRecord, []models.DayRecord, error) {
		rec, err := s.Store.GetDay(key.UserID, key.Start)
		if err == storage.ErrNotFound {
			return models.NewDayRecord(key.UserID, key.Start), nil, nil
		}
		return rec, nil, err
	})
}

// Range loads a date-range view (week, month, year) through the cache.
func (s *Session) Range(start, end string) (cache.Entry, error) {
	access := entitlement.CheckRange(start, end, s.currentProfile(), s.now())
	return s.Cache.Load(cache.RangeKey(s.UserID, start, end), access, func(key cache.Key) (models.DayRecord, []models.DayRecord, error) {
		days, err := s.Store.GetRange(key.UserID, key.Start, key.End)
		return models.DayRecord{}, days, err
	})
}

// Week loads the Monday-to-Sunday range containing day.
func (s *Session) Week(day string) (cache.Entry, error) {
	start, end, err := utils.WeekRange(day)
	if err != nil {
		return cache.Entry{}, err
	}
	return s.Range(start, end)
}

// Month loads the calendar month containing day.
func (s *Session) Month(day string) (cache.Entry, error) {
	start, end, err := utils.MonthRange(day)
	if err != nil {
		return cache.Entry{}, err
	}
	return s.Range(start, end)
}

// Year loads the calendar-year view. Entitlement tests the most recent
// reachable day of the year, not January 1st, so a window that covers any
// part of the year grants it.
func (s *Session) Year(year int) (cache.Entry, error) {
	start, end := utils.YearRange(year)
	access := entitlement.CheckYear(year, s.currentProfile(), s.now())
	return s.Cache.Load(cache.RangeKey(s.UserID, start, end), access, func(key cache.Key) (models.DayRecord, []models.DayRecord, error) {
		days, err := s.Store.GetRange(key.UserID, key.Start, key.End)
		return models.DayRecord{}, days, err
	})
}

// AllTime loads the full history view. Only the unlimited tier reaches the
// store here; everyone else gets Denied.
func (s *Session) AllTime() (cache.Entry, error) {
	access := allTimeAccess(s.currentProfile(), s.now())
	return s.Cache.Load(cache.AllKey(s.UserID), access, func(key cache.Key) (models.DayRecord, []models.DayRecord, error) {
		days, err := s.Store.GetAll(key.UserID)
		return models.DayRecord{}, days, err
	})
}

func allTimeAccess(prof *models.SubscriptionProfile, now time.Time) entitlement.Access {
	limits, known := entitlement.LimitsForProfile(prof, now)
	if !known {
		return entitlement.AccessUnknown
	}
	if limits.UnlimitedHistory {
		return entitlement.AccessGranted
	}
	return entitlement.AccessDenied
}

// Close releases session-held resources. The store itself is owned by the
// caller that opened it.
func (s *Session) Close() error {
	s.Cache.Clear()
	if s.Profiles != nil {
		return s.Profiles.Close()
	}
	return nil
}
