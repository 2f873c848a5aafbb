// Package stats aggregates expected-versus-actual completion figures over
// habits and a completion index. Every window and view shares the per-day
// counting in dayCounts.
package stats

import (
	"math"
	"time"

	"github.com/julianstephens/habitkit/internal/ledger"
	"github.com/julianstephens/habitkit/internal/lifecycle"
	"github.com/julianstephens/habitkit/internal/models"
	"github.com/julianstephens/habitkit/internal/schedule"
	"github.com/julianstephens/habitkit/internal/utils"
)

// TrendPoint is one day's completion ratio in [0, 1].
type TrendPoint struct {
	Date  time.Time
	Ratio float64
}

// CalendarDay is one cell of a Monday to Sunday calendar strip.
type CalendarDay struct {
	Date      time.Time
	Completed bool
	Selected  bool
}

// DayEntry describes a habit as it stood on a selected day.
type DayEntry struct {
	Habit       models.Habit
	Completed   bool
	CompletedAt *time.Time
	Streak      int
}

// Scheduled reports whether habit belongs to day's scheduled set: it counts on
// the day, is due, and the day is not before its creation day.
func Scheduled(habit models.Habit, day time.Time) bool {
	day = utils.StartOfDay(day)
	if day.Before(utils.DayOf(habit.CreationDate, day.Location())) {
		return false
	}
	return lifecycle.CountsOnDate(habit, day) && schedule.IsDue(habit, day)
}

func dayCounts(habits []models.Habit, idx *ledger.Index, day time.Time) (expected, actual int) {
	for _, h := range habits {
		if !Scheduled(h, day) {
			continue
		}
		expected++
		if idx.Has(h.ID, day) {
			actual++
		}
	}
	return expected, actual
}

// Percentage returns round(100 * actual / expected) over [start, end] inclusive,
// or 0 when nothing was expected.
func Percentage(habits []models.Habit, idx *ledger.Index, start, end time.Time) int {
	start, end = utils.StartOfDay(start), utils.StartOfDay(end)
	if len(habits) == 0 || start.After(end) {
		return 0
	}

	var expected, actual int
	for d := start; !d.After(end); d = utils.AddDays(d, 1) {
		e, a := dayCounts(habits, idx, d)
		expected += e
		actual += a
	}
	if expected == 0 {
		return 0
	}
	return int(math.Round(100 * float64(actual) / float64(expected)))
}

// WeekStart returns the Monday of day's ISO week.
func WeekStart(day time.Time) time.Time {
	return utils.AddDays(utils.StartOfDay(day), -(schedule.ISOWeekday(day) - 1))
}

// WeekPercentage covers the Monday to Sunday week containing today.
func WeekPercentage(habits []models.Habit, idx *ledger.Index, today time.Time) int {
	start := WeekStart(today)
	return Percentage(habits, idx, start, utils.AddDays(start, 6))
}

// RollingWeekPercentage covers the seven days ending today.
func RollingWeekPercentage(habits []models.Habit, idx *ledger.Index, today time.Time) int {
	return Percentage(habits, idx, utils.AddDays(today, -6), today)
}

// MonthPercentage covers the calendar month containing today.
func MonthPercentage(habits []models.Habit, idx *ledger.Index, today time.Time) int {
	y, m, _ := today.Date()
	start := utils.StartOfDay(time.Date(y, m, 1, 12, 0, 0, 0, today.Location()))
	end := utils.StartOfDay(time.Date(y, m+1, 0, 12, 0, 0, 0, today.Location()))
	return Percentage(habits, idx, start, end)
}

// WeeklyTrend returns the per-day ratio for ref-6 through ref.
func WeeklyTrend(habits []models.Habit, idx *ledger.Index, ref time.Time) [7]TrendPoint {
	var points [7]TrendPoint
	first := utils.AddDays(ref, -6)
	for i := range points {
		d := utils.AddDays(first, i)
		points[i].Date = d
		e, a := dayCounts(habits, idx, d)
		if e == 0 {
			continue
		}
		points[i].Ratio = math.Min(1, math.Max(0, float64(a)/float64(e)))
	}
	return points
}

// CalendarWeek lays out the Monday to Sunday week containing selected. A day is
// completed when any habit has a completion on it.
func CalendarWeek(days ledger.DaySet, selected time.Time) [7]CalendarDay {
	var week [7]CalendarDay
	start := WeekStart(selected)
	for i := range week {
		d := utils.AddDays(start, i)
		week[i] = CalendarDay{
			Date:      d,
			Completed: days.Contains(d),
			Selected:  utils.SameDay(d, selected),
		}
	}
	return week
}

// StreakAsOf reconstructs habit's streak as it stood on ref by walking backward
// to the creation day. Days that are not due are skipped; the first due day
// without a completion ends the walk.
func StreakAsOf(habit models.Habit, idx *ledger.Index, ref time.Time) int {
	ref = utils.StartOfDay(ref)
	created := utils.DayOf(habit.CreationDate, ref.Location())
	rule := schedule.Parse(habit.Recurrence)

	streak := 0
	for d := ref; !d.Before(created); d = utils.AddDays(d, -1) {
		if !rule.Due(d) {
			continue
		}
		if !idx.Has(habit.ID, d) {
			break
		}
		streak++
	}
	return streak
}

// SelectedDaySnapshot lists the habits relevant to selected: those counting on
// the day that are either due or were completed anyway.
func SelectedDaySnapshot(habits []models.Habit, idx *ledger.Index, selected time.Time) []DayEntry {
	selected = utils.StartOfDay(selected)

	var entries []DayEntry
	for _, h := range habits {
		if !lifecycle.CountsOnDate(h, selected) {
			continue
		}
		c, completed := idx.Get(h.ID, selected)
		if !completed && !schedule.IsDue(h, selected) {
			continue
		}

		entry := DayEntry{Habit: h, Completed: completed, Streak: StreakAsOf(h, idx, selected)}
		if completed {
			at := utils.FromMillis(c.CompletedAt, selected.Location())
			entry.CompletedAt = &at
		}
		entries = append(entries, entry)
	}
	return entries
}
