package models

import (
	"errors"
	"testing"
)

func ptr(v int64) *int64 { return &v }

func TestHabitValidate(t *testing.T) {
	valid := func() Habit {
		return Habit{Name: "Read", Recurrence: "daily", TargetValue: 1, CreationDate: 1000}
	}

	tests := []struct {
		name    string
		mutate  func(h *Habit)
		wantErr bool
	}{
		{name: "valid", mutate: func(h *Habit) {}},
		{name: "with reminder", mutate: func(h *Habit) { h.NotificationTime = "07:30" }},
		{name: "blank name", mutate: func(h *Habit) { h.Name = "   " }, wantErr: true},
		{name: "zero target", mutate: func(h *Habit) { h.TargetValue = 0 }, wantErr: true},
		{name: "empty recurrence", mutate: func(h *Habit) { h.Recurrence = "" }, wantErr: true},
		{name: "bad reminder", mutate: func(h *Habit) { h.NotificationTime = "7pm" }, wantErr: true},
		{name: "archive before creation", mutate: func(h *Habit) {
			h.IsArchived = true
			h.ArchiveDate = ptr(500)
		}, wantErr: true},
		{name: "archive on creation", mutate: func(h *Habit) {
			h.IsArchived = true
			h.ArchiveDate = ptr(1000)
		}},
		{name: "best below current", mutate: func(h *Habit) {
			h.CurrentStreak = 3
			h.BestStreak = 2
		}, wantErr: true},
		{name: "negative streak", mutate: func(h *Habit) { h.CurrentStreak = -1 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := valid()
			tt.mutate(&h)
			err := h.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidHabit) {
					t.Errorf("Validate() = %v, want ErrInvalidHabit", err)
				}
				return
			}
			if err != nil {
				t.Errorf("Validate() unexpected error: %v", err)
			}
		})
	}
}

func TestHabitProgressHelpers(t *testing.T) {
	h := Habit{TargetValue: 3, CurrentValue: 2, NotificationTime: " "}
	if h.IsComplete() {
		t.Error("2/3 should not be complete")
	}
	h.CurrentValue = 3
	if !h.IsComplete() {
		t.Error("3/3 should be complete")
	}
	if h.HasNotification() {
		t.Error("blank reminder should not count as a notification")
	}
}

func TestSettingsMapping(t *testing.T) {
	s := Settings{Timezone: "UTC", Theme: "dark", NotificationsEnabled: true}
	m := SettingsToMap(s)
	if m["notifications_enabled"] != "true" || m["theme"] != "dark" {
		t.Errorf("SettingsToMap() = %v", m)
	}
	if got := MapToSettings(m); got != s {
		t.Errorf("MapToSettings() = %+v, want %+v", got, s)
	}

	partial := MapToSettings(map[string]string{"notifications_enabled": "false", "unknown": "x"})
	ApplyDefaultSettings(&partial)
	if partial.Timezone != "Local" || partial.Theme != "system" || partial.NotificationsEnabled {
		t.Errorf("defaults not applied: %+v", partial)
	}
}
