package models

import (
	"time"

	"github.com/tannerhall/tritrack/internal/constants"
)

// TypedEntry is one logged activity of a day: a type within its category,
// how many times it happened, and when it was last touched.
// Quantity is always >= 1; an entry decremented to zero is removed from
// its bucket rather than kept around.
type TypedEntry struct {
	Type      string    `json:"type"`
	Quantity  int       `json:"quantity"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DayRecord holds everything a user logged on one calendar day, split into
// the three fixed category buckets. A record with all buckets empty is
// logically deleted and never displayed, even if the store still holds an
// empty row for it.
type DayRecord struct {
	UserID string `json:"user_id"`
	Day    string `json:"day"` // YYYY-MM-DD format
	// Buckets is keyed by category; each bucket preserves insertion order.
	Buckets map[constants.Category][]TypedEntry `json:"buckets"`
}

// NewDayRecord returns an empty record for the given user and day with all
// three buckets initialized.
func NewDayRecord(userID, day string) DayRecord {
	rec := DayRecord{
		UserID:  userID,
		Day:     day,
		Buckets: make(map[constants.Category][]TypedEntry, len(constants.Categories)),
	}
	for _, cat := range constants.Categories {
		rec.Buckets[cat] = []TypedEntry{}
	}
	return rec
}

// Entry returns the entry with the given type in the given category and
// whether it exists.
func (r DayRecord) Entry(cat constants.Category, entryType string) (TypedEntry, bool) {
	for _, e := range r.Buckets[cat] {
		if e.Type == entryType {
			return e, true
		}
	}
	return TypedEntry{}, false
}

// IsEmpty reports whether all three buckets hold no entries.
func (r DayRecord) IsEmpty() bool {
	for _, entries := range r.Buckets {
		if len(entries) > 0 {
			return false
		}
	}
	return true
}

// Clone returns a deep copy. Cache entries are independent materializations,
// so mutations must never share bucket slices between entries.
func (r DayRecord) Clone() DayRecord {
	out := DayRecord{
		UserID:  r.UserID,
		Day:     r.Day,
		Buckets: make(map[constants.Category][]TypedEntry, len(r.Buckets)),
	}
	for cat, entries := range r.Buckets {
		cp := make([]TypedEntry, len(entries))
		copy(cp, entries)
		out.Buckets[cat] = cp
	}
	return out
}

// CloneDays deep-copies a list of records.
func CloneDays(days []DayRecord) []DayRecord {
	out := make([]DayRecord, len(days))
	for i, d := range days {
		out[i] = d.Clone()
	}
	return out
}
