// Package schedule decides whether a habit is due on a given day. It is the only
// place in habitkit that interprets recurrence rules or weekday numbers.
package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/julianstephens/habitkit/internal/constants"
	"github.com/julianstephens/habitkit/internal/models"
)

// isoWeekday maps Go's weekday enumeration (Sunday=0) onto ISO-8601 (Monday=1 ... Sunday=7).
var isoWeekday = [7]int{
	time.Sunday:    7,
	time.Monday:    1,
	time.Tuesday:   2,
	time.Wednesday: 3,
	time.Thursday:  4,
	time.Friday:    5,
	time.Saturday:  6,
}

var dayNames = map[string]time.Weekday{
	"sun":       time.Sunday,
	"sunday":    time.Sunday,
	"mon":       time.Monday,
	"monday":    time.Monday,
	"tue":       time.Tuesday,
	"tuesday":   time.Tuesday,
	"wed":       time.Wednesday,
	"wednesday": time.Wednesday,
	"thu":       time.Thursday,
	"thursday":  time.Thursday,
	"fri":       time.Friday,
	"friday":    time.Friday,
	"sat":       time.Saturday,
	"saturday":  time.Saturday,
}

// Rule is a parsed recurrence rule.
type Rule struct {
	Daily    bool
	weekdays [8]bool // indexed by ISO weekday, slot 0 unused
}

// ISOWeekday returns t's ISO-8601 weekday number.
func ISOWeekday(t time.Time) int {
	return isoWeekday[t.Weekday()]
}

// Parse interprets a rule string. Malformed weekday tokens are skipped; a rule
// with no usable weekday that is not "daily" is never due.
func Parse(rule string) Rule {
	trimmed := strings.TrimSpace(rule)
	if strings.EqualFold(trimmed, constants.RecurrenceDaily) {
		return Rule{Daily: true}
	}

	var r Rule
	for _, tok := range strings.Split(trimmed, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(tok))
		if err != nil || n < 1 || n > 7 {
			continue
		}
		r.weekdays[n] = true
	}
	return r
}

// Valid reports whether the rule can ever be due.
func (r Rule) Valid() bool {
	return r.Daily || len(r.Weekdays()) > 0
}

// Weekdays returns the ISO weekday numbers in ascending order.
func (r Rule) Weekdays() []int {
	var days []int
	for d := 1; d <= 7; d++ {
		if r.weekdays[d] {
			days = append(days, d)
		}
	}
	return days
}

// Due reports whether the rule fires on date's weekday.
func (r Rule) Due(date time.Time) bool {
	if r.Daily {
		return true
	}
	return r.weekdays[ISOWeekday(date)]
}

// String returns the canonical encoding: "daily", or ascending ISO weekdays joined by commas.
func (r Rule) String() string {
	if r.Daily {
		return constants.RecurrenceDaily
	}
	days := r.Weekdays()
	parts := make([]string, len(days))
	for i, d := range days {
		parts[i] = strconv.Itoa(d)
	}
	return strings.Join(parts, ",")
}

// IsDue reports whether habit is scheduled on date.
func IsDue(habit models.Habit, date time.Time) bool {
	return Parse(habit.Recurrence).Due(date)
}

// FromWeekdays builds a canonical rule from Go weekdays. All seven days collapse to "daily".
func FromWeekdays(days []time.Weekday) string {
	var r Rule
	for _, wd := range days {
		if wd < time.Sunday || wd > time.Saturday {
			continue
		}
		r.weekdays[isoWeekday[wd]] = true
	}
	if len(r.Weekdays()) == 7 {
		return constants.RecurrenceDaily
	}
	return r.String()
}

// ParseWeekdayNames parses user input such as "mon,wed,fri", "daily" or "1,3,5"
// (ISO numbers) into a canonical rule. Unlike Parse, unknown tokens are an error
// because this runs on input the user can correct.
func ParseWeekdayNames(s string) (string, error) {
	if strings.EqualFold(strings.TrimSpace(s), constants.RecurrenceDaily) {
		return constants.RecurrenceDaily, nil
	}

	var weekdays []time.Weekday
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(strings.ToLower(part))
		if wd, ok := dayNames[part]; ok {
			weekdays = append(weekdays, wd)
			continue
		}
		num, err := strconv.Atoi(part)
		if err != nil || num < 1 || num > 7 {
			return "", fmt.Errorf("invalid weekday: %q", part)
		}
		weekdays = append(weekdays, fromISO(num))
	}
	if len(weekdays) == 0 {
		return "", fmt.Errorf("no weekdays given")
	}
	return FromWeekdays(weekdays), nil
}

// Describe renders a rule for display.
func Describe(rule string) string {
	r := Parse(rule)
	switch {
	case r.Daily:
		return "Daily"
	case !r.Valid():
		return "Never"
	}

	days := r.Weekdays()
	names := make([]string, len(days))
	for i, d := range days {
		names[i] = fromISO(d).String()[:3]
	}
	return strings.Join(names, ", ")
}

func fromISO(n int) time.Weekday {
	return time.Weekday(n % 7)
}
