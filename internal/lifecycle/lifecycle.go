// Package lifecycle gates whether a habit participates in statistics on a given
// day, based on its creation day and archive cutoff.
package lifecycle

import (
	"time"

	"github.com/julianstephens/habitkit/internal/models"
	"github.com/julianstephens/habitkit/internal/utils"
)

// CountsOnDate reports whether habit is inside its active window on date.
// Comparisons are by calendar day in date's location.
func CountsOnDate(habit models.Habit, date time.Time) bool {
	loc := date.Location()
	day := utils.StartOfDay(date)

	if day.Before(utils.DayOf(habit.CreationDate, loc)) {
		return false
	}
	if !habit.IsArchived {
		return true
	}
	// An archived habit without a cutoff keeps its whole history.
	if habit.ArchiveDate == nil {
		return true
	}
	return day.Before(utils.DayOf(*habit.ArchiveDate, loc))
}

// Archive returns habit archived as of the start of now's day. The archive date is
// never earlier than the creation date.
func Archive(habit models.Habit, now time.Time) models.Habit {
	cutoff := utils.DayStartMillis(now)
	if cutoff < habit.CreationDate {
		cutoff = habit.CreationDate
	}

	habit.IsArchived = true
	habit.ArchiveDate = &cutoff
	return habit
}

// Restore returns habit with archival cleared.
func Restore(habit models.Habit) models.Habit {
	habit.IsArchived = false
	habit.ArchiveDate = nil
	return habit
}

// Active returns the habits that count on date, preserving order.
func Active(habits []models.Habit, date time.Time) []models.Habit {
	var out []models.Habit
	for _, h := range habits {
		if CountsOnDate(h, date) {
			out = append(out, h)
		}
	}
	return out
}
