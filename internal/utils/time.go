package utils

import (
	"fmt"
	"time"

	"github.com/tannerhall/tritrack/internal/constants"
	"github.com/tannerhall/tritrack/internal/models"
)

// ParseDay parses a calendar date string (YYYY-MM-DD). Anything else,
// including dates with a time component, is rejected.
func ParseDay(day string) (time.Time, error) {
	t, err := time.Parse(constants.DateFormat, day)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD): %w", day, err)
	}
	return t, nil
}

// FormatDay formats a time as a calendar date string (YYYY-MM-DD).
func FormatDay(t time.Time) string {
	return t.Format(constants.DateFormat)
}

// DateOnly truncates a time to its calendar day in its own location.
// Truncation happens on calendar fields, not wall-clock arithmetic, so DST
// transitions cannot shift the day.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the whole number of calendar days from a to b
// (positive when b is after a). Both times are truncated to their calendar
// day first.
func DaysBetween(a, b time.Time) int {
	da := DateOnly(a)
	db := DateOnly(b)
	return int(db.Sub(da).Hours() / 24)
}

// Today returns today's date string (YYYY-MM-DD) for the given time.
func Today(now time.Time) string {
	return now.Format(constants.DateFormat)
}

// WeekRange returns the Monday..Sunday range (inclusive, date strings)
// containing the given day.
func WeekRange(day string) (string, string, error) {
	t, err := ParseDay(day)
	if err != nil {
		return "", "", err
	}
	offset := (int(t.Weekday()) + 6) % 7 // Monday = 0
	start := t.AddDate(0, 0, -offset)
	end := start.AddDate(0, 0, 6)
	return FormatDay(start), FormatDay(end), nil
}

// MonthRange returns the first..last day of the calendar month containing
// the given day.
func MonthRange(day string) (string, string, error) {
	t, err := ParseDay(day)
	if err != nil {
		return "", "", err
	}
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, -1)
	return FormatDay(start), FormatDay(end), nil
}

// YearRange returns the first..last day of the given calendar year.
func YearRange(year int) (string, string) {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
	return FormatDay(start), FormatDay(end)
}

// DayInRange reports whether day falls within [start, end] inclusive.
// All three are date strings; the lexicographic comparison is exact for the
// YYYY-MM-DD format.
func DayInRange(day, start, end string) bool {
	return day >= start && day <= end
}

// LoadLocation loads a timezone location from an IANA timezone name.
// If the timezone is "Local" or empty, it returns the system's local timezone.
func LoadLocation(timezone string) (*time.Location, error) {
	if timezone == "" || timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(timezone)
}

// NowInTimezone returns the current time in the specified timezone.
func NowInTimezone(timezone string) (time.Time, error) {
	loc, err := LoadLocation(timezone)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}
	return time.Now().In(loc), nil
}

// TodayFromSettings returns today's date string using the timezone from
// settings. "Today" is determined by the user's configured timezone, not the
// system timezone.
func TodayFromSettings(settings models.Settings) (string, error) {
	now, err := NowInTimezone(settings.Timezone)
	if err != nil {
		return "", err
	}
	return Today(now), nil
}
