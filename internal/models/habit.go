package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/habitkit/internal/constants"
)

// ErrInvalidHabit is wrapped by every Validate failure
var ErrInvalidHabit = errors.New("invalid habit")

// Habit is a recurring task definition together with its live progress state.
// All dates are epoch milliseconds in the evaluating device's local calendar.
type Habit struct {
	ID                int64  `json:"id"` // 0 until first persisted
	Name              string `json:"name"`
	Category          string `json:"category,omitempty"`
	Recurrence        string `json:"recurrence"` // "daily" or ISO weekdays, e.g. "1,3,5"
	TargetValue       int    `json:"target_value"`
	CurrentValue      int    `json:"current_value"`
	CreationDate      int64  `json:"creation_date"`
	LastProgressDate  int64  `json:"last_progress_date"` // the day CurrentValue applies to
	LastCompletedDate *int64 `json:"last_completed_date,omitempty"`
	CurrentStreak     int    `json:"current_streak"`
	BestStreak        int    `json:"best_streak"`
	IsArchived        bool   `json:"is_archived"`
	ArchiveDate       *int64 `json:"archive_date,omitempty"`
	NotificationTime  string `json:"notification_time,omitempty"` // HH:MM format
}

// HabitCompletion records that a habit reached its target on a given day.
type HabitCompletion struct {
	ID             string `json:"id"`
	HabitID        int64  `json:"habit_id"`
	CompletionDate int64  `json:"completion_date"` // local midnight of the credited day
	CompletedAt    int64  `json:"completed_at"`    // wall clock, display only
}

func (h *Habit) Validate() error {
	if strings.TrimSpace(h.Name) == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidHabit)
	}
	if h.TargetValue < 1 {
		return fmt.Errorf("%w: target must be at least 1, got %d", ErrInvalidHabit, h.TargetValue)
	}
	if strings.TrimSpace(h.Recurrence) == "" {
		return fmt.Errorf("%w: recurrence cannot be empty", ErrInvalidHabit)
	}
	if h.NotificationTime != "" {
		if _, err := time.Parse(constants.TimeFormat, h.NotificationTime); err != nil {
			return fmt.Errorf("%w: invalid notification time (expected HH:MM): %v", ErrInvalidHabit, err)
		}
	}
	if h.IsArchived && h.ArchiveDate != nil && *h.ArchiveDate < h.CreationDate {
		return fmt.Errorf("%w: archive date precedes creation date", ErrInvalidHabit)
	}
	if h.CurrentStreak < 0 || h.BestStreak < h.CurrentStreak {
		return fmt.Errorf("%w: best streak %d below current streak %d", ErrInvalidHabit, h.BestStreak, h.CurrentStreak)
	}
	return nil
}

// HasNotification reports whether a reminder time is configured
func (h *Habit) HasNotification() bool {
	return strings.TrimSpace(h.NotificationTime) != ""
}

// IsComplete reports whether today's progress has reached the target
func (h *Habit) IsComplete() bool {
	return h.CurrentValue >= h.TargetValue
}
