package mutate

import (
	"errors"
	"fmt"
	"testing"

	"github.com/tannerhall/tritrack/internal/cache"
	"github.com/tannerhall/tritrack/internal/constants"
	"github.com/tannerhall/tritrack/internal/models"
	"github.com/tannerhall/tritrack/internal/storage"
)

// fakeStore records writes and can be told to fail them. Reads serve from
// an in-memory day map.
type fakeStore struct {
	storage.Provider

	days      map[string]models.DayRecord // key userID|day
	writes    []string
	failWrite bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{days: make(map[string]models.DayRecord)}
}

func (f *fakeStore) key(userID, day string) string { return userID + "|" + day }

func (f *fakeStore) GetDay(userID, day string) (models.DayRecord, error) {
	rec, ok := f.days[f.key(userID, day)]
	if !ok {
		return models.DayRecord{}, storage.ErrNotFound
	}
	return rec.Clone(), nil
}

func (f *fakeStore) AddEntry(userID, day string, cat constants.Category, entryType string, qty int) error {
	if f.failWrite {
		return errors.New("disk full")
	}
	f.writes = append(f.writes, fmt.Sprintf("add %s %s %s/%s x%d", userID, day, cat, entryType, qty))
	k := f.key(userID, day)
	rec, ok := f.days[k]
	if !ok {
		rec = models.NewDayRecord(userID, day)
	}
	f.days[k] = ApplyDelta(rec, cat, entryType, qty, ts)
	return nil
}

func (f *fakeStore) RemoveEntry(userID, day string, cat constants.Category, entryType string, qty int) error {
	if f.failWrite {
		return errors.New("disk full")
	}
	f.writes = append(f.writes, fmt.Sprintf("remove %s %s %s/%s x%d", userID, day, cat, entryType, qty))
	k := f.key(userID, day)
	if rec, ok := f.days[k]; ok {
		f.days[k] = ApplyDelta(rec, cat, entryType, -qty, ts)
	}
	return nil
}

func (f *fakeStore) MoveEntry(userID, oldDay, newDay string, cat constants.Category, entryType string, qty int) error {
	if f.failWrite {
		return errors.New("disk full")
	}
	f.writes = append(f.writes, fmt.Sprintf("move %s %s->%s %s/%s x%d", userID, oldDay, newDay, cat, entryType, qty))
	if err := f.RemoveEntry(userID, oldDay, cat, entryType, qty); err != nil {
		return err
	}
	return f.AddEntry(userID, newDay, cat, entryType, qty)
}

// quantityIn reads the (category, type) quantity for a day out of a cache
// entry, 0 when absent.
func quantityIn(entry cache.Entry, day string, cat constants.Category, entryType string) int {
	if entry.Key.Scope == cache.ScopeDay {
		if typed, ok := entry.Day.Entry(cat, entryType); ok {
			return typed.Quantity
		}
		return 0
	}
	for _, rec := range entry.Days {
		if rec.Day != day {
			continue
		}
		if typed, ok := rec.Entry(cat, entryType); ok {
			return typed.Quantity
		}
	}
	return 0
}

// setupEngine materializes a day entry, a covering week entry, and the
// all-time entry, all holding the same seeded record.
func setupEngine(t *testing.T) (*Engine, *fakeStore, *cache.Cache) {
	t.Helper()
	store := newFakeStore()
	c := cache.New()

	seed := ApplyDelta(models.NewDayRecord("u1", "2024-05-01"), constants.CategorySport, "running", 1, ts)
	store.days[store.key("u1", "2024-05-01")] = seed

	c.Put(cache.DayKey("u1", "2024-05-01"), seed.Clone(), nil)
	c.Put(cache.RangeKey("u1", "2024-04-29", "2024-05-05"), models.DayRecord{}, []models.DayRecord{seed.Clone()})
	c.Put(cache.AllKey("u1"), models.DayRecord{}, []models.DayRecord{seed.Clone()})

	return NewEngine(store, c), store, c
}

// After any mutation, the single-day entry and the all-time entry for the
// same day must agree on every (category, type) quantity.
func assertCrossScopeConsistent(t *testing.T, c *cache.Cache, userID, day string) {
	t.Helper()
	dayEntry, _ := c.Read(cache.DayKey(userID, day))
	allEntry, _ := c.Read(cache.AllKey(userID))

	for _, cat := range constants.Categories {
		for _, entryType := range constants.EntryTypes[cat] {
			got := quantityIn(dayEntry, day, cat, entryType)
			want := quantityIn(allEntry, day, cat, entryType)
			if got != want {
				t.Errorf("scope divergence for %s/%s on %s: day=%d all=%d", cat, entryType, day, got, want)
			}
		}
	}
}

func TestAddPatchesEveryCoveringScope(t *testing.T) {
	engine, store, c := setupEngine(t)

	if err := engine.Add("u1", "2024-05-01", constants.CategorySport, "running", 1); err != nil {
		t.Fatalf("Add unexpected error: %v", err)
	}

	for _, key := range []cache.Key{
		cache.DayKey("u1", "2024-05-01"),
		cache.RangeKey("u1", "2024-04-29", "2024-05-05"),
		cache.AllKey("u1"),
	} {
		entry, _ := c.Read(key)
		if got := quantityIn(entry, "2024-05-01", constants.CategorySport, "running"); got != 2 {
			t.Errorf("%s: quantity = %d, want 2", key, got)
		}
	}
	assertCrossScopeConsistent(t, c, "u1", "2024-05-01")

	if len(store.writes) != 1 {
		t.Errorf("expected exactly one durable write, got %v", store.writes)
	}
}

func TestAddSynthesizesDayInAllTime(t *testing.T) {
	engine, _, c := setupEngine(t)

	if err := engine.Add("u1", "2024-05-03", constants.CategorySocial, "coffee", 2); err != nil {
		t.Fatalf("Add unexpected error: %v", err)
	}

	entry, _ := c.Read(cache.AllKey("u1"))
	if len(entry.Days) != 2 {
		t.Fatalf("expected synthesized day in all-time list, got %d records", len(entry.Days))
	}
	if entry.Days[0].Day != "2024-05-03" {
		t.Errorf("all-time list not date-descending: first day %s", entry.Days[0].Day)
	}
}

func TestAddKeepsRangeEntryAscending(t *testing.T) {
	engine, _, c := setupEngine(t)

	if err := engine.Add("u1", "2024-05-03", constants.CategorySocial, "coffee", 1); err != nil {
		t.Fatalf("Add unexpected error: %v", err)
	}

	// Range entries are materialized date-ascending and the synthesized day
	// must not flip them.
	entry, _ := c.Read(cache.RangeKey("u1", "2024-04-29", "2024-05-05"))
	want := []string{"2024-05-01", "2024-05-03"}
	if len(entry.Days) != len(want) {
		t.Fatalf("expected %d records in range entry, got %d", len(want), len(entry.Days))
	}
	for i, rec := range entry.Days {
		if rec.Day != want[i] {
			t.Errorf("range position %d = %s, want %s", i, rec.Day, want[i])
		}
	}

	allEntry, _ := c.Read(cache.AllKey("u1"))
	if allEntry.Days[0].Day != "2024-05-03" {
		t.Errorf("all-time list not date-descending: first day %s", allEntry.Days[0].Day)
	}
}

func TestAddSkipsUnloadedEntries(t *testing.T) {
	store := newFakeStore()
	c := cache.New()
	engine := NewEngine(store, c)

	// Nothing materialized: the patch pass has nothing to do and the write
	// still goes through.
	if err := engine.Add("u1", "2024-05-01", constants.CategorySport, "running", 1); err != nil {
		t.Fatalf("Add unexpected error: %v", err)
	}
	if len(store.writes) != 1 {
		t.Errorf("expected durable write despite empty cache, got %v", store.writes)
	}
}

func TestRemoveLastEntryDropsDayFromLists(t *testing.T) {
	engine, _, c := setupEngine(t)

	if err := engine.Remove("u1", "2024-05-01", constants.CategorySport, "running", 1); err != nil {
		t.Fatalf("Remove unexpected error: %v", err)
	}

	allEntry, _ := c.Read(cache.AllKey("u1"))
	if len(allEntry.Days) != 0 {
		t.Errorf("expected emptied day gone from all-time list, got %d records", len(allEntry.Days))
	}
	weekEntry, _ := c.Read(cache.RangeKey("u1", "2024-04-29", "2024-05-05"))
	if len(weekEntry.Days) != 0 {
		t.Errorf("expected emptied day gone from range list, got %d records", len(weekEntry.Days))
	}
	assertCrossScopeConsistent(t, c, "u1", "2024-05-01")
}

func TestRemoveUnderflowRejectedBeforeWrite(t *testing.T) {
	engine, store, c := setupEngine(t)

	err := engine.Remove("u1", "2024-05-01", constants.CategorySport, "running", 3)
	if !errors.Is(err, ErrQuantityUnderflow) {
		t.Fatalf("expected ErrQuantityUnderflow, got %v", err)
	}
	if len(store.writes) != 0 {
		t.Errorf("underflow must be rejected before any store call, got %v", store.writes)
	}

	// Cache untouched.
	entry, _ := c.Read(cache.DayKey("u1", "2024-05-01"))
	if got := quantityIn(entry, "2024-05-01", constants.CategorySport, "running"); got != 1 {
		t.Errorf("quantity = %d, want 1 after rejected underflow", got)
	}
}

func TestDecrementAtMinimumRejected(t *testing.T) {
	engine, store, _ := setupEngine(t)

	err := engine.Decrement("u1", "2024-05-01", constants.CategorySport, "running")
	if !errors.Is(err, ErrQuantityUnderflow) {
		t.Fatalf("expected ErrQuantityUnderflow for decrement at minimum, got %v", err)
	}
	if len(store.writes) != 0 {
		t.Errorf("expected no store call, got %v", store.writes)
	}
}

func TestDecrementAboveMinimum(t *testing.T) {
	engine, _, c := setupEngine(t)

	if err := engine.Add("u1", "2024-05-01", constants.CategorySport, "running", 2); err != nil {
		t.Fatalf("Add unexpected error: %v", err)
	}
	if err := engine.Decrement("u1", "2024-05-01", constants.CategorySport, "running"); err != nil {
		t.Fatalf("Decrement unexpected error: %v", err)
	}

	entry, _ := c.Read(cache.DayKey("u1", "2024-05-01"))
	if got := quantityIn(entry, "2024-05-01", constants.CategorySport, "running"); got != 2 {
		t.Errorf("quantity = %d, want 2", got)
	}
}

// Scenario: move quantity 3 of (social, coffee) to a day that already has
// quantity 2 --> source loses the entry, destination ends at 5.
func TestMoveMergesIntoDestination(t *testing.T) {
	store := newFakeStore()
	c := cache.New()
	engine := NewEngine(store, c)

	src := ApplyDelta(models.NewDayRecord("u1", "2024-01-01"), constants.CategorySocial, "coffee", 3, ts)
	dst := ApplyDelta(models.NewDayRecord("u1", "2024-01-02"), constants.CategorySocial, "coffee", 2, ts)
	store.days[store.key("u1", "2024-01-01")] = src
	store.days[store.key("u1", "2024-01-02")] = dst

	c.Put(cache.DayKey("u1", "2024-01-01"), src.Clone(), nil)
	c.Put(cache.DayKey("u1", "2024-01-02"), dst.Clone(), nil)
	c.Put(cache.AllKey("u1"), models.DayRecord{}, []models.DayRecord{dst.Clone(), src.Clone()})

	if err := engine.Move("u1", "2024-01-01", "2024-01-02", constants.CategorySocial, "coffee", 3); err != nil {
		t.Fatalf("Move unexpected error: %v", err)
	}

	srcEntry, _ := c.Read(cache.DayKey("u1", "2024-01-01"))
	if got := quantityIn(srcEntry, "2024-01-01", constants.CategorySocial, "coffee"); got != 0 {
		t.Errorf("source quantity = %d, want 0", got)
	}
	dstEntry, _ := c.Read(cache.DayKey("u1", "2024-01-02"))
	if got := quantityIn(dstEntry, "2024-01-02", constants.CategorySocial, "coffee"); got != 5 {
		t.Errorf("destination quantity = %d, want 5", got)
	}

	allEntry, _ := c.Read(cache.AllKey("u1"))
	if len(allEntry.Days) != 1 {
		t.Errorf("expected emptied source day dropped from all-time, got %d records", len(allEntry.Days))
	}
	assertCrossScopeConsistent(t, c, "u1", "2024-01-01")
	assertCrossScopeConsistent(t, c, "u1", "2024-01-02")
}

func TestMoveToSameDayIsNoop(t *testing.T) {
	engine, store, c := setupEngine(t)

	before, _ := c.Read(cache.DayKey("u1", "2024-05-01"))

	if err := engine.Move("u1", "2024-05-01", "2024-05-01", constants.CategorySport, "running", 1); err != nil {
		t.Fatalf("Move unexpected error: %v", err)
	}

	after, _ := c.Read(cache.DayKey("u1", "2024-05-01"))
	if quantityIn(before, "2024-05-01", constants.CategorySport, "running") != quantityIn(after, "2024-05-01", constants.CategorySport, "running") {
		t.Error("move to same day must leave every cache entry unchanged")
	}
	if after.State != cache.StateReady {
		t.Errorf("expected entry still ready, got %v", after.State)
	}
	if len(store.writes) != 0 {
		t.Errorf("move to same day must not write, got %v", store.writes)
	}
}

func TestWriteFailureInvalidatesCoveringScopes(t *testing.T) {
	engine, store, c := setupEngine(t)
	store.failWrite = true

	err := engine.Add("u1", "2024-05-01", constants.CategorySport, "running", 1)
	if !errors.Is(err, ErrWriteFailed) {
		t.Fatalf("expected ErrWriteFailed, got %v", err)
	}

	// The optimistic patch stays visible but every covering scope is
	// stale, so the next load reconciles by refetch.
	entry, _ := c.Read(cache.DayKey("u1", "2024-05-01"))
	if entry.State != cache.StateStale {
		t.Errorf("expected day entry stale after write failure, got %v", entry.State)
	}
	if got := quantityIn(entry, "2024-05-01", constants.CategorySport, "running"); got != 2 {
		t.Errorf("optimistic patch should stay in place, quantity = %d, want 2", got)
	}
	allEntry, _ := c.Read(cache.AllKey("u1"))
	if allEntry.State != cache.StateStale {
		t.Errorf("expected all-time entry stale after write failure, got %v", allEntry.State)
	}
}

func TestMutationInvalidatesNonCoveringScopes(t *testing.T) {
	engine, _, c := setupEngine(t)
	otherMonth := cache.RangeKey("u1", "2024-06-01", "2024-06-30")
	c.Put(otherMonth, models.DayRecord{}, nil)

	if err := engine.Add("u1", "2024-05-01", constants.CategorySport, "running", 1); err != nil {
		t.Fatalf("Add unexpected error: %v", err)
	}

	entry, _ := c.Read(otherMonth)
	if entry.State != cache.StateStale {
		t.Errorf("expected non-covering scope stale after mutation, got %v", entry.State)
	}
}

func TestApplyDispatch(t *testing.T) {
	engine, _, c := setupEngine(t)

	err := engine.Apply(Intent{
		Op:       OpAdd,
		UserID:   "u1",
		Day:      "2024-05-01",
		Category: constants.CategorySport,
		Type:     "running",
		Quantity: 2,
	})
	if err != nil {
		t.Fatalf("Apply unexpected error: %v", err)
	}

	entry, _ := c.Read(cache.DayKey("u1", "2024-05-01"))
	if got := quantityIn(entry, "2024-05-01", constants.CategorySport, "running"); got != 3 {
		t.Errorf("quantity = %d, want 3", got)
	}

	if err := engine.Apply(Intent{Op: Op("rename")}); err == nil {
		t.Error("expected error for unknown op")
	}
}
