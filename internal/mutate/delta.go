package mutate

import (
	"sort"
	"time"

	"github.com/tannerhall/tritrack/internal/constants"
	"github.com/tannerhall/tritrack/internal/models"
)

// ApplyDelta returns a copy of the record with the signed quantity applied
// to the (category, type) entry. A positive delta increments an existing
// entry or appends a new one; a negative delta decrements and deletes the
// entry once its quantity reaches zero. A negative delta against a missing
// entry is a no-op.
//
// This is the single transformation every cache entry goes through: the
// same patch logic is re-run against each independently materialized entry
// rather than copied between them, so the three near-duplicate code paths
// of day, range, and all-time views can never drift apart.
func ApplyDelta(rec models.DayRecord, cat constants.Category, entryType string, signedQty int, ts time.Time) models.DayRecord {
	out := rec.Clone()
	if out.Buckets == nil {
		out.Buckets = make(map[constants.Category][]models.TypedEntry, len(constants.Categories))
	}

	bucket := out.Buckets[cat]
	for i, e := range bucket {
		if e.Type != entryType {
			continue
		}
		next := e.Quantity + signedQty
		if next <= 0 {
			out.Buckets[cat] = append(bucket[:i:i], bucket[i+1:]...)
			return out
		}
		bucket[i].Quantity = next
		bucket[i].UpdatedAt = ts
		return out
	}

	if signedQty > 0 {
		out.Buckets[cat] = append(bucket, models.TypedEntry{
			Type:      entryType,
			Quantity:  signedQty,
			UpdatedAt: ts,
		})
	}
	return out
}

// applyToList applies the delta to the record for the given day inside a
// list-based cache entry (range or all-time). Records emptied by the delta
// are dropped so no empty placeholder lingers; a missing record is
// synthesized for positive deltas and inserted in the entry's own sort
// direction: range entries are materialized date-ascending, all-time
// entries date-descending. A negative delta against a missing record is
// skipped and self-corrects on the entry's next load.
func applyToList(days []models.DayRecord, userID, day string, cat constants.Category, entryType string, signedQty int, ts time.Time, descending bool) []models.DayRecord {
	for i, rec := range days {
		if rec.Day != day {
			continue
		}
		next := ApplyDelta(rec, cat, entryType, signedQty, ts)
		if next.IsEmpty() {
			return append(days[:i:i], days[i+1:]...)
		}
		out := make([]models.DayRecord, len(days))
		copy(out, days)
		out[i] = next
		return out
	}

	if signedQty <= 0 {
		return days
	}

	rec := ApplyDelta(models.NewDayRecord(userID, day), cat, entryType, signedQty, ts)
	out := make([]models.DayRecord, 0, len(days)+1)
	out = append(out, days...)
	out = append(out, rec)
	sort.SliceStable(out, func(i, j int) bool {
		if descending {
			return out[i].Day > out[j].Day
		}
		return out[i].Day < out[j].Day
	})
	return out
}
