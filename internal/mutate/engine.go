// Package mutate applies mutation intents optimistically: every cache entry
// whose scope covers the affected date(s) is rewritten synchronously, then
// the durable write is issued. A re-render immediately after a mutation
// always reflects the new state even though durability is still pending.
//
// There is no fine-grained rollback. When the durable write fails, the
// covering scopes are invalidated and refetched; the optimistic patch stays
// visible until the refetch resolves. Computing a precise inverse of a
// patch already applied to several independent entries is error-prone, so
// reconcile-by-refetch is the deliberate recovery strategy.
package mutate

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tannerhall/tritrack/internal/cache"
	"github.com/tannerhall/tritrack/internal/constants"
	"github.com/tannerhall/tritrack/internal/logger"
	"github.com/tannerhall/tritrack/internal/models"
	"github.com/tannerhall/tritrack/internal/storage"
)

var (
	// ErrQuantityUnderflow is returned when a single-unit decrement targets
	// an entry already at the minimum quantity of 1, or a removal asks for
	// more than the entry holds. Rejected locally before any store call.
	ErrQuantityUnderflow = errors.New("quantity cannot go below the minimum")

	// ErrMutationPending is returned when a mutation for the same user is
	// still writing. Two optimistic patches for the same logical quantity
	// racing each other would double-count.
	ErrMutationPending = errors.New("another mutation is still pending")

	// ErrWriteFailed wraps a durable-write rejection that happened after
	// the optimistic patch was applied. The affected scopes have already
	// been invalidated; the caller surfaces a transient notice and the
	// next load reconciles.
	ErrWriteFailed = errors.New("store write failed")
)

// Op names a mutation kind.
type Op string

const (
	OpAdd    Op = "add"
	OpRemove Op = "remove"
	OpMove   Op = "move"
)

// Intent is one mutation request from the view layer.
type Intent struct {
	Op        Op
	UserID    string
	Day       string // YYYY-MM-DD
	SecondDay string // destination day for OpMove
	Category  constants.Category
	Type      string
	Quantity  int
}

// Engine coordinates optimistic cache patches with durable writes.
type Engine struct {
	store storage.Provider
	cache *cache.Cache

	mu      sync.Mutex
	pending map[string]bool

	now func() time.Time
}

// NewEngine returns an engine bound to one session's cache and store.
func NewEngine(store storage.Provider, c *cache.Cache) *Engine {
	return &Engine{
		store:   store,
		cache:   c,
		pending: make(map[string]bool),
		now:     time.Now,
	}
}

// Apply dispatches an intent to the matching operation.
func (e *Engine) Apply(intent Intent) error {
	switch intent.Op {
	case OpAdd:
		return e.Add(intent.UserID, intent.Day, intent.Category, intent.Type, intent.Quantity)
	case OpRemove:
		return e.Remove(intent.UserID, intent.Day, intent.Category, intent.Type, intent.Quantity)
	case OpMove:
		return e.Move(intent.UserID, intent.Day, intent.SecondDay, intent.Category, intent.Type, intent.Quantity)
	default:
		return fmt.Errorf("unknown mutation op %q", intent.Op)
	}
}

// Add increments the (category, type) quantity on a day across every
// materialized covering cache entry, then issues the durable write.
func (e *Engine) Add(userID, day string, cat constants.Category, entryType string, qty int) error {
	release, err := e.acquire(userID)
	if err != nil {
		return err
	}
	defer release()

	e.patchAll(userID, day, cat, entryType, qty)
	e.cache.InvalidateNotCovering(userID, day)

	if err := e.store.AddEntry(userID, day, cat, entryType, qty); err != nil {
		return e.writeFailed(userID, err, day)
	}
	return nil
}

// Remove decrements the (category, type) quantity on a day. Removing the
// full remaining quantity deletes the entry; asking for more than the entry
// holds is an underflow, rejected before any cache or store mutation.
func (e *Engine) Remove(userID, day string, cat constants.Category, entryType string, qty int) error {
	release, err := e.acquire(userID)
	if err != nil {
		return err
	}
	defer release()

	current, err := e.currentQuantity(userID, day, cat, entryType)
	if err != nil {
		return err
	}
	if current < qty {
		return fmt.Errorf("%w: %s/%s has %d, cannot remove %d", ErrQuantityUnderflow, cat, entryType, current, qty)
	}

	e.patchAll(userID, day, cat, entryType, -qty)
	e.cache.InvalidateNotCovering(userID, day)

	if err := e.store.RemoveEntry(userID, day, cat, entryType, qty); err != nil {
		return e.writeFailed(userID, err, day)
	}
	return nil
}

// Decrement is the single-unit form used by step-down controls. An entry
// already at quantity 1 refuses the decrement; deleting the entry outright
// is a separate, explicit removal.
func (e *Engine) Decrement(userID, day string, cat constants.Category, entryType string) error {
	current, err := e.currentQuantity(userID, day, cat, entryType)
	if err != nil {
		return err
	}
	if current <= 1 {
		return fmt.Errorf("%w: %s/%s is at the minimum quantity, delete the entry instead", ErrQuantityUnderflow, cat, entryType)
	}
	return e.Remove(userID, day, cat, entryType, 1)
}

// Move transfers a quantity of (category, type) from one day to another.
// Every materialized entry covering either day gets the remove and the add
// re-applied independently. Moving to the same day is a no-op on every
// entry.
func (e *Engine) Move(userID, oldDay, newDay string, cat constants.Category, entryType string, qty int) error {
	if oldDay == newDay {
		return nil
	}

	release, err := e.acquire(userID)
	if err != nil {
		return err
	}
	defer release()

	current, err := e.currentQuantity(userID, oldDay, cat, entryType)
	if err != nil {
		return err
	}
	if current < qty {
		return fmt.Errorf("%w: %s/%s has %d on %s, cannot move %d", ErrQuantityUnderflow, cat, entryType, current, oldDay, qty)
	}

	e.patchAll(userID, oldDay, cat, entryType, -qty)
	e.patchAll(userID, newDay, cat, entryType, qty)
	e.cache.InvalidateNotCovering(userID, oldDay, newDay)

	if err := e.store.MoveEntry(userID, oldDay, newDay, cat, entryType, qty); err != nil {
		return e.writeFailed(userID, err, oldDay, newDay)
	}
	return nil
}

// patchAll re-runs the delta against every materialized cache entry whose
// scope covers the day. Each entry is a separate copy; applying the same
// pure transformation per entry is what keeps overlapping views consistent
// without a server round-trip.
func (e *Engine) patchAll(userID, day string, cat constants.Category, entryType string, signedQty int) {
	ts := e.now()
	for _, key := range e.cache.Materialized(userID, day) {
		key := key
		e.cache.Patch(key, func(entry *cache.Entry) {
			switch key.Scope {
			case cache.ScopeDay:
				if entry.Day.Day == "" {
					entry.Day = ApplyDelta(models.NewDayRecord(userID, day), cat, entryType, signedQty, ts)
					return
				}
				entry.Day = ApplyDelta(entry.Day, cat, entryType, signedQty, ts)
			default:
				entry.Days = applyToList(entry.Days, userID, day, cat, entryType, signedQty, ts, key.Scope == cache.ScopeAll)
			}
		})
	}
}

// currentQuantity resolves the present quantity of an entry, preferring
// loaded cache entries over a store read.
func (e *Engine) currentQuantity(userID, day string, cat constants.Category, entryType string) (int, error) {
	if entry, ok := e.cache.Read(cache.DayKey(userID, day)); ok && entry.State == cache.StateReady {
		if typed, found := entry.Day.Entry(cat, entryType); found {
			return typed.Quantity, nil
		}
		return 0, nil
	}
	if entry, ok := e.cache.Read(cache.AllKey(userID)); ok && entry.State == cache.StateReady {
		for _, rec := range entry.Days {
			if rec.Day != day {
				continue
			}
			if typed, found := rec.Entry(cat, entryType); found {
				return typed.Quantity, nil
			}
			return 0, nil
		}
		return 0, nil
	}

	rec, err := e.store.GetDay(userID, day)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("reading current quantity: %w", err)
	}
	if typed, found := rec.Entry(cat, entryType); found {
		return typed.Quantity, nil
	}
	return 0, nil
}

// writeFailed logs the raw store error, invalidates every covering scope
// so the next access reconciles by refetch, and returns the categorized
// error. The optimistic patch is deliberately left in place.
func (e *Engine) writeFailed(userID string, err error, days ...string) error {
	logger.Error("Durable write failed after optimistic patch", "user", userID, "days", days, "error", err)
	for _, day := range days {
		e.cache.InvalidateCovering(userID, day)
	}
	return fmt.Errorf("%w: %v", ErrWriteFailed, err)
}

// acquire rejects re-entrant mutations for a user while a previous write is
// pending so two optimistic patches for the same logical quantity cannot
// race and double-count.
func (e *Engine) acquire(userID string) (func(), error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pending[userID] {
		return nil, ErrMutationPending
	}
	e.pending[userID] = true
	return func() {
		e.mu.Lock()
		delete(e.pending, userID)
		e.mu.Unlock()
	}, nil
}
