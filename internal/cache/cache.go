// Package cache holds the last known result for each materialized view of a
// user's records: single day, date range, or all time. Entries for
// overlapping scopes do not share storage; every entry is an independent
// materialization, which is why the mutation engine must re-apply each
// change to every covering entry instead of copying one result over.
//
// A Cache is an explicitly constructed object tied to one session. It is
// created at login, passed by reference to consumers, and torn down at
// logout; there is no process-wide singleton.
package cache

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/tannerhall/tritrack/internal/entitlement"
	"github.com/tannerhall/tritrack/internal/logger"
	"github.com/tannerhall/tritrack/internal/models"
)

// ErrUnknownEntitlement is returned by Load when the profile has not
// resolved yet and no fetch decision can be made.
var ErrUnknownEntitlement = errors.New("entitlement not yet known")

// ErrDenied is returned by Load when the plan's window excludes the
// requested scope. It is a distinct state, never a generic fetch error, so
// the view can render an upsell instead of an error.
var ErrDenied = errors.New("denied by entitlement")

// Scope tags the shape of a cache entry.
type Scope string

const (
	ScopeDay   Scope = "day"
	ScopeRange Scope = "range"
	ScopeAll   Scope = "all"
)

// Key identifies one cache entry: scope tag, user, and scope parameters.
// Every key is scoped by user so a pending write can never touch another
// user's entries.
type Key struct {
	Scope  Scope
	UserID string
	Start  string // YYYY-MM-DD; equals End for ScopeDay, empty for ScopeAll
	End    string
}

// DayKey builds the key for a single-day entry.
func DayKey(userID, day string) Key {
	return Key{Scope: ScopeDay, UserID: userID, Start: day, End: day}
}

// RangeKey builds the key for a date-range entry (week, month, year).
func RangeKey(userID, start, end string) Key {
	return Key{Scope: ScopeRange, UserID: userID, Start: start, End: end}
}

// AllKey builds the key for the all-time entry.
func AllKey(userID string) Key {
	return Key{Scope: ScopeAll, UserID: userID}
}

// String renders the canonical prefix-matchable form of the key:
// userID/scope/start..end.
func (k Key) String() string {
	switch k.Scope {
	case ScopeAll:
		return fmt.Sprintf("%s/%s", k.UserID, k.Scope)
	default:
		return fmt.Sprintf("%s/%s/%s..%s", k.UserID, k.Scope, k.Start, k.End)
	}
}

// Covers reports whether the key's scope contains the given day.
func (k Key) Covers(day string) bool {
	switch k.Scope {
	case ScopeAll:
		return true
	default:
		return day >= k.Start && day <= k.End
	}
}

// State describes the lifecycle position of a cache entry.
type State int

const (
	// StateNotLoaded means no fetch has completed for the key.
	StateNotLoaded State = iota
	// StateReady means the entry holds the last successful result.
	StateReady
	// StateDenied means entitlement refused the key's range; the store
	// was never asked.
	StateDenied
	// StateStale means the entry holds a possibly outdated result and
	// must be refetched on next load.
	StateStale
)

// Entry is one materialized view. Day carries the value for ScopeDay keys;
// Days for range and all-time keys (all-time is kept date-descending, the
// canonical order for all-time views).
type Entry struct {
	Key   Key
	State State
	Day   models.DayRecord
	Days  []models.DayRecord
}

// clone deep-copies the entry so readers never alias cached bucket slices.
func (e Entry) clone() Entry {
	out := e
	out.Day = e.Day.Clone()
	out.Days = models.CloneDays(e.Days)
	return out
}

// Fetcher produces the durable result for a key. Day-scope fetchers fill
// the record; list scopes fill the slice.
type Fetcher func(key Key) (models.DayRecord, []models.DayRecord, error)

// Cache is the session-scoped query cache.
type Cache struct {
	mu      sync.Mutex
	entries map[Key]*Entry
}

// New returns an empty cache.
func New() *Cache {
	return &Cache{entries: make(map[Key]*Entry)}
}

// Read returns the current entry for the key without ever blocking or
// fetching. The boolean is false when the key has never been materialized.
func (c *Cache) Read(key Key) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return Entry{Key: key, State: StateNotLoaded}, false
	}
	return e.clone(), true
}

// Load resolves the entry for a key. The entitlement decision is consulted
// first: a denied scope is recorded as StateDenied and the fetcher is never
// invoked, so the store never sees a request for data the user cannot view.
// An unknown decision leaves the entry untouched. Ready entries are
// returned as-is; NotLoaded, Stale, and previously Denied entries fetch.
func (c *Cache) Load(key Key, access entitlement.Access, fetch Fetcher) (Entry, error) {
	switch access {
	case entitlement.AccessUnknown:
		return Entry{Key: key, State: StateNotLoaded}, ErrUnknownEntitlement
	case entitlement.AccessDenied:
		c.mu.Lock()
		e := &Entry{Key: key, State: StateDenied}
		c.entries[key] = e
		c.mu.Unlock()
		logger.Debug("Cache load denied by entitlement", "key", key.String())
		return e.clone(), ErrDenied
	}

	c.mu.Lock()
	if e, ok := c.entries[key]; ok && e.State == StateReady {
		out := e.clone()
		c.mu.Unlock()
		return out, nil
	}
	c.mu.Unlock()

	day, days, err := fetch(key)
	if err != nil {
		return Entry{Key: key, State: StateNotLoaded}, err
	}

	e := &Entry{Key: key, State: StateReady, Day: day, Days: days}
	c.mu.Lock()
	c.entries[key] = e
	out := e.clone()
	c.mu.Unlock()
	return out, nil
}

// Put replaces the entry for a key with a ready value.
func (c *Cache) Put(key Key, day models.DayRecord, days []models.DayRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = &Entry{Key: key, State: StateReady, Day: day, Days: days}
}

// Patch applies fn to the entry for a key under the cache lock. Only Ready
// and Stale entries are patched; entries that have not loaded are skipped
// and self-correct when they are eventually fetched.
func (c *Cache) Patch(key Key, fn func(e *Entry)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || (e.State != StateReady && e.State != StateStale) {
		return false
	}
	fn(e)
	return true
}

// Materialized returns the keys of every loaded entry for a user whose
// scope covers the given day. The mutation engine patches exactly these.
func (c *Cache) Materialized(userID, day string) []Key {
	c.mu.Lock()
	defer c.mu.Unlock()
	var keys []Key
	for k, e := range c.entries {
		if k.UserID != userID {
			continue
		}
		if e.State != StateReady && e.State != StateStale {
			continue
		}
		if k.Covers(day) {
			keys = append(keys, k)
		}
	}
	return keys
}

// Invalidate marks every entry whose canonical key string has the given
// prefix as stale. Stale entries keep their last value for reads but are
// refetched on the next Load. Passing a userID invalidates everything for
// that user.
func (c *Cache) Invalidate(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k, e := range c.entries {
		if !strings.HasPrefix(k.String(), prefix) {
			continue
		}
		if e.State == StateReady || e.State == StateDenied {
			e.State = StateStale
			n++
		}
	}
	if n > 0 {
		logger.Debug("Cache entries invalidated", "prefix", prefix, "count", n)
	}
	return n
}

// InvalidateUser marks all of a user's entries stale.
func (c *Cache) InvalidateUser(userID string) int {
	return c.Invalidate(userID + "/")
}

// DropUser removes all of a user's entries outright. Used when the
// subscription profile changes: stale values were computed under the old
// entitlement decision and must not be served even as placeholders.
func (c *Cache) DropUser(userID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	prefix := userID + "/"
	n := 0
	for k := range c.entries {
		if strings.HasPrefix(k.String(), prefix) {
			delete(c.entries, k)
			n++
		}
	}
	if n > 0 {
		logger.Debug("Cache entries dropped", "user", userID, "count", n)
	}
	return n
}

// InvalidateCovering marks stale every loaded entry for the user whose
// scope covers the day. Used after a failed durable write to reconcile by
// refetch.
func (c *Cache) InvalidateCovering(userID, day string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k, e := range c.entries {
		if k.UserID != userID || !k.Covers(day) {
			continue
		}
		if e.State == StateReady {
			e.State = StateStale
			n++
		}
	}
	return n
}

// InvalidateNotCovering marks stale every loaded entry for the user whose
// scope does not cover the day. After a mutation only covering scopes are
// eagerly patched; everything else must refetch on next access.
func (c *Cache) InvalidateNotCovering(userID string, days ...string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k, e := range c.entries {
		if k.UserID != userID {
			continue
		}
		covered := false
		for _, d := range days {
			if k.Covers(d) {
				covered = true
				break
			}
		}
		if covered {
			continue
		}
		if e.State == StateReady {
			e.State = StateStale
			n++
		}
	}
	return n
}

// Clear drops every entry. Called when a session ends.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[Key]*Entry)
}

// Len returns the number of materialized entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
