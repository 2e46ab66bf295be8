// Package aggregate holds pure, stateless reducers over lists of day
// records: totals, per-type breakdowns, day scores, and streaks. None of
// them touch the cache or the store.
package aggregate

import (
	"sort"

	"github.com/tannerhall/tritrack/internal/constants"
	"github.com/tannerhall/tritrack/internal/models"
	"github.com/tannerhall/tritrack/internal/utils"
)

// TotalPerCategory sums entry quantities for one category across all days.
func TotalPerCategory(days []models.DayRecord, cat constants.Category) int {
	total := 0
	for _, rec := range days {
		for _, e := range rec.Buckets[cat] {
			total += e.Quantity
		}
	}
	return total
}

// TypeCount pairs an entry type with its summed quantity.
type TypeCount struct {
	Type     string
	Quantity int
}

// BreakdownPerCategory maps each entry type in a category to its summed
// quantity across all days, ordered by quantity descending. Ties keep
// first-encountered order. The input order is the store's natural order,
// so the sort must be stable.
func BreakdownPerCategory(days []models.DayRecord, cat constants.Category) []TypeCount {
	sums := make(map[string]int)
	var order []string
	for _, rec := range days {
		for _, e := range rec.Buckets[cat] {
			if _, seen := sums[e.Type]; !seen {
				order = append(order, e.Type)
			}
			sums[e.Type] += e.Quantity
		}
	}

	out := make([]TypeCount, 0, len(order))
	for _, t := range order {
		out = append(out, TypeCount{Type: t, Quantity: sums[t]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Quantity > out[j].Quantity })
	return out
}

// TopActivity returns the highest-ranked entry type for a category, or
// false when the category has no entries at all.
func TopActivity(days []models.DayRecord, cat constants.Category) (TypeCount, bool) {
	breakdown := BreakdownPerCategory(days, cat)
	if len(breakdown) == 0 {
		return TypeCount{}, false
	}
	return breakdown[0], true
}

// DayScore is the weighted sum over categories used to classify a day's
// color. A day with no entries scores 0; there is no division anywhere in
// the computation, so no path can produce NaN.
func DayScore(rec models.DayRecord) int {
	score := 0
	for cat, weight := range constants.ScoreWeights {
		for _, e := range rec.Buckets[cat] {
			score += weight * e.Quantity
		}
	}
	return score
}

// AverageScore returns the mean day score over the input list. An empty
// list yields 0, never NaN.
func AverageScore(days []models.DayRecord) float64 {
	if len(days) == 0 {
		return 0
	}
	sum := 0
	for _, rec := range days {
		sum += DayScore(rec)
	}
	return float64(sum) / float64(len(days))
}

// Streak returns the longest run of calendar-adjacent days with a score
// above zero. Adjacency is checked on actual dates after sorting
// ascending, never on list position: a day missing from the input breaks a
// streak exactly like a present day scoring zero.
func Streak(days []models.DayRecord) int {
	type scored struct {
		day   string
		score int
	}
	list := make([]scored, 0, len(days))
	for _, rec := range days {
		list = append(list, scored{day: rec.Day, score: DayScore(rec)})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].day < list[j].day })

	best, run := 0, 0
	var prevDay string
	for _, s := range list {
		if s.score <= 0 {
			run = 0
			prevDay = ""
			continue
		}
		if prevDay != "" && adjacentDays(prevDay, s.day) {
			run++
		} else {
			run = 1
		}
		prevDay = s.day
		if run > best {
			best = run
		}
	}
	return best
}

// adjacentDays reports whether b is the calendar day after a.
func adjacentDays(a, b string) bool {
	ta, err := utils.ParseDay(a)
	if err != nil {
		return false
	}
	tb, err := utils.ParseDay(b)
	if err != nil {
		return false
	}
	return utils.DaysBetween(ta, tb) == 1
}
