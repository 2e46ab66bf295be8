package profile

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/mitchellh/hashstructure/v2"
	bolt "go.etcd.io/bbolt"

	"github.com/tannerhall/tritrack/internal/logger"
	"github.com/tannerhall/tritrack/internal/models"
)

var bucketProfiles = []byte("profiles")

// ChangeHook is invoked after a refresh observes a different profile than
// the last known one. The previous profile is the zero value when the user
// was not seen before.
type ChangeHook func(previous, current models.SubscriptionProfile)

// Manager keeps the last-known subscription profile per user in a local
// bolt file and notifies registered hooks when a refresh detects a change.
// Entitlement answers always come from the profile the caller holds, never
// from this cache; the cache only bridges offline starts.
type Manager struct {
	mu       sync.Mutex
	provider Provider
	db       *bolt.DB
	hooks    []ChangeHook
}

// NewManager opens (or creates) the profile cache at path. The provider may
// be nil; Refresh then always falls back to the last-known profile.
func NewManager(provider Provider, path string) (*Manager, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, e := tx.CreateBucketIfNotExists(bucketProfiles)
		return e
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Manager{provider: provider, db: db}, nil
}

func (m *Manager) Close() error { return m.db.Close() }

// OnChange registers a hook to run when a refreshed profile differs from
// the stored one. Hooks run synchronously inside Refresh.
func (m *Manager) OnChange(hook ChangeHook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks = append(m.hooks, hook)
}

// Last returns the stored profile for the user, or ErrNotFound when the
// user has never been refreshed on this machine.
func (m *Manager) Last(userID string) (models.SubscriptionProfile, error) {
	var prof models.SubscriptionProfile
	err := m.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketProfiles).Get([]byte(userID))
		if v == nil {
			return ErrNotFound
		}
		return json.Unmarshal(v, &prof)
	})
	return prof, err
}

// Refresh fetches the current profile and reconciles it with the stored
// one. On fetch failure the last-known profile is returned so the app can
// keep working offline; the error is surfaced alongside it.
func (m *Manager) Refresh(ctx context.Context, userID string) (models.SubscriptionProfile, error) {
	if m.provider == nil {
		return m.Last(userID)
	}

	fetched, err := m.provider.Fetch(ctx, userID)
	if err != nil {
		logger.Warn("Profile refresh failed, using last-known profile", "user", userID, "error", err)
		last, lastErr := m.Last(userID)
		if lastErr != nil {
			return models.SubscriptionProfile{}, err
		}
		return last, err
	}

	previous, lastErr := m.Last(userID)
	changed := lastErr != nil || profilesDiffer(previous, fetched)

	if changed {
		if err := m.store(userID, fetched); err != nil {
			return models.SubscriptionProfile{}, err
		}
		m.mu.Lock()
		hooks := make([]ChangeHook, len(m.hooks))
		copy(hooks, m.hooks)
		m.mu.Unlock()
		for _, hook := range hooks {
			hook(previous, fetched)
		}
	}

	return fetched, nil
}

func (m *Manager) store(userID string, prof models.SubscriptionProfile) error {
	b, err := json.Marshal(prof)
	if err != nil {
		return err
	}
	return m.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketProfiles).Put([]byte(userID), b)
	})
}

// profilesDiffer compares profiles by structural hash so pointer fields
// compare by value.
func profilesDiffer(a, b models.SubscriptionProfile) bool {
	ha, errA := hashstructure.Hash(a, hashstructure.FormatV2, nil)
	hb, errB := hashstructure.Hash(b, hashstructure.FormatV2, nil)
	if errA != nil || errB != nil {
		return true
	}
	return ha != hb
}
