package utils

import (
	"time"

	"github.com/julianstephens/habitkit/internal/constants"
)

// Clock abstracts time retrieval so business logic is deterministic in tests.
type Clock interface {
	Now() time.Time
}

// RealClock returns the actual current time.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// FixedClock always returns the same instant.
type FixedClock struct {
	T time.Time
}

func (c FixedClock) Now() time.Time { return c.T }

// LoadLocation loads a timezone location from an IANA timezone name.
// If the timezone is "Local" or empty, it returns the system's local timezone.
func LoadLocation(timezone string) (*time.Location, error) {
	if timezone == "" || timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(timezone)
}

// ValidateTimezone checks if the timezone name is valid.
func ValidateTimezone(timezone string) bool {
	if timezone == "" || timezone == "Local" {
		return true
	}
	_, err := time.LoadLocation(timezone)
	return err == nil
}

// ParseTime parses a time string in the standard format (HH:MM).
func ParseTime(timeStr string) (time.Time, error) {
	return time.Parse(constants.TimeFormat, timeStr)
}

// ValidateTimeFormat checks if the string matches the standard time format.
func ValidateTimeFormat(timeStr string) bool {
	_, err := ParseTime(timeStr)
	return err == nil
}

// ParseDateInLocation parses a date string (YYYY-MM-DD) in the specified timezone.
func ParseDateInLocation(dateStr string, loc *time.Location) (time.Time, error) {
	t, err := time.Parse(constants.DateFormat, dateStr)
	if err != nil {
		return time.Time{}, err
	}
	return StartOfDay(time.Date(t.Year(), t.Month(), t.Day(), 12, 0, 0, 0, loc)), nil
}

// StartOfDay returns the first instant of t's calendar day in t's location.
// That is local midnight, except where a DST change skips midnight: there the
// day starts at the transition.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	loc := t.Location()
	start := time.Date(y, m, d, 0, 0, 0, 0, loc)
	if start.Day() == d {
		return start
	}

	// time.Date resolved the missing midnight into the previous day. Search
	// the seconds between it and t for the first one dated d.
	lo, hi := start.Unix(), t.Unix()
	for lo < hi {
		mid := lo + (hi-lo)/2
		if time.Unix(mid, 0).In(loc).Day() == d {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return time.Unix(lo, 0).In(loc)
}

// AddDays moves a day value by n calendar days and returns the start of the
// resulting day. It steps by date, anchored at noon, so no DST transition can
// land it on a neighbouring day.
func AddDays(day time.Time, n int) time.Time {
	y, m, d := day.Date()
	return StartOfDay(time.Date(y, m, d+n, 12, 0, 0, 0, day.Location()))
}

// SameDay reports whether a and b fall on the same calendar day in a's location.
func SameDay(a, b time.Time) bool {
	b = b.In(a.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// ToMillis converts t to epoch milliseconds.
func ToMillis(t time.Time) int64 {
	return t.UnixMilli()
}

// FromMillis converts epoch milliseconds to a time in loc.
func FromMillis(ms int64, loc *time.Location) time.Time {
	return time.UnixMilli(ms).In(loc)
}

// DayOf returns the local midnight of the day containing ms, in loc.
func DayOf(ms int64, loc *time.Location) time.Time {
	return StartOfDay(FromMillis(ms, loc))
}

// DayStartMillis returns the epoch milliseconds of local midnight for t's day.
func DayStartMillis(t time.Time) int64 {
	return StartOfDay(t).UnixMilli()
}

// IsDayStart reports whether ms is exactly local midnight in loc.
func IsDayStart(ms int64, loc *time.Location) bool {
	return DayOf(ms, loc).UnixMilli() == ms
}

// FormatDay renders a day as YYYY-MM-DD.
func FormatDay(day time.Time) string {
	return day.Format(constants.DateFormat)
}
