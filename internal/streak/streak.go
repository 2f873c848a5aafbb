// Package streak drives the per-habit progress state machine: recording
// progress, moving streaks when a day becomes complete or is undone, and
// resetting stale state when a new day starts.
package streak

import (
	"time"

	"github.com/julianstephens/habitkit/internal/ledger"
	"github.com/julianstephens/habitkit/internal/models"
	"github.com/julianstephens/habitkit/internal/schedule"
	"github.com/julianstephens/habitkit/internal/utils"
)

// Transition is the result of a progress change. The caller credits today in the
// ledger when BecameComplete is set and removes today's completion otherwise.
type Transition struct {
	Habit             models.Habit
	BecameComplete    bool
	WasCompletedToday bool
}

// Engine evaluates transitions against an injectable clock in a fixed zone.
type Engine struct {
	clock utils.Clock
	loc   *time.Location
}

func NewEngine(clock utils.Clock, loc *time.Location) *Engine {
	if clock == nil {
		clock = utils.RealClock{}
	}
	if loc == nil {
		loc = time.Local
	}
	return &Engine{clock: clock, loc: loc}
}

// Now returns the current instant in the engine's zone.
func (e *Engine) Now() time.Time {
	return e.clock.Now().In(e.loc)
}

// Today returns local midnight of the current day.
func (e *Engine) Today() time.Time {
	return utils.StartOfDay(e.Now())
}

// At returns a copy of e frozen at now, so every read within one action sees the
// same instant.
func (e *Engine) At(now time.Time) *Engine {
	return &Engine{clock: utils.FixedClock{T: now}, loc: e.loc}
}

// Location returns the evaluation zone.
func (e *Engine) Location() *time.Location {
	return e.loc
}

// CompletedToday reports whether habit's last completion falls on the current day.
func (e *Engine) CompletedToday(habit models.Habit) bool {
	if habit.LastCompletedDate == nil {
		return false
	}
	return utils.SameDay(e.Today(), utils.FromMillis(*habit.LastCompletedDate, e.loc))
}

// SetProgress records newValue as today's progress without clamping.
func (e *Engine) SetProgress(habit models.Habit, newValue int) Transition {
	return e.ApplyCompletionTransition(habit, newValue, newValue >= habit.TargetValue, e.CompletedToday(habit))
}

// Step moves today's progress by delta, clamped to [0, TargetValue].
func (e *Engine) Step(habit models.Habit, delta int) Transition {
	v := habit.CurrentValue + delta
	if v < 0 {
		v = 0
	}
	if v > habit.TargetValue {
		v = habit.TargetValue
	}
	return e.SetProgress(habit, v)
}

// ApplyCompletionTransition moves the streak for a change in today's completion
// state and stamps the new progress value on today.
func (e *Engine) ApplyCompletionTransition(habit models.Habit, newValue int, becameComplete, wasCompletedToday bool) Transition {
	now := e.Now()

	switch {
	case becameComplete && !wasCompletedToday:
		habit.CurrentStreak++
		completedAt := utils.ToMillis(now)
		habit.LastCompletedDate = &completedAt
	case !becameComplete && wasCompletedToday && habit.CurrentStreak > 0:
		habit.CurrentStreak--
		habit.LastCompletedDate = nil
	}

	if habit.BestStreak < habit.CurrentStreak {
		habit.BestStreak = habit.CurrentStreak
	}
	habit.CurrentValue = newValue
	habit.LastProgressDate = utils.DayStartMillis(now)

	return Transition{
		Habit:             habit,
		BecameComplete:    becameComplete,
		WasCompletedToday: wasCompletedToday,
	}
}

// NormalizeForDisplay is Normalize evaluated at the engine's current day.
func (e *Engine) NormalizeForDisplay(habit models.Habit, idx *ledger.Index) models.Habit {
	return Normalize(habit, idx, e.Today())
}

// Normalize returns habit as it should be seen on today: progress from an earlier
// day is dropped, and the streak is cleared once a scheduled day has been missed.
// It never touches storage.
func Normalize(habit models.Habit, idx *ledger.Index, today time.Time) models.Habit {
	today = utils.StartOfDay(today)
	missed := MissedScheduledDay(habit, idx, today)

	if !utils.SameDay(today, utils.FromMillis(habit.LastProgressDate, today.Location())) {
		habit.CurrentValue = 0
		habit.LastProgressDate = utils.DayStartMillis(today)
		if missed || (habit.CurrentStreak > 0 && habit.LastCompletedDate == nil) {
			habit.CurrentStreak = 0
		}
		return habit
	}

	if missed {
		habit.CurrentStreak = 0
	}
	return habit
}

// MissedScheduledDay walks from the day after habit's last completion up to, but
// not including, today and reports whether any due day lacks a completion. A
// habit that was never completed has missed nothing.
func MissedScheduledDay(habit models.Habit, idx *ledger.Index, today time.Time) bool {
	if habit.LastCompletedDate == nil {
		return false
	}
	loc := today.Location()
	today = utils.StartOfDay(today)

	rule := schedule.Parse(habit.Recurrence)
	for d := utils.AddDays(utils.DayOf(*habit.LastCompletedDate, loc), 1); d.Before(today); d = utils.AddDays(d, 1) {
		if rule.Due(d) && !idx.Has(habit.ID, d) {
			return true
		}
	}
	return false
}
