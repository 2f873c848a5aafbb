package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/habitkit/internal/constants"
	"github.com/julianstephens/habitkit/internal/schedule"
	"github.com/julianstephens/habitkit/internal/utils"
)

// NewHabitForm creates the form for adding a habit
func NewHabitForm(fm *HabitFormModel, theme string) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Habit Name").
				Value(&fm.Name).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("habit name cannot be empty")
					}
					return nil
				}),
			huh.NewInput().
				Title("Schedule").
				Description("daily, or weekdays such as mon,wed,fri").
				Value(&fm.Schedule).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return nil
					}
					_, err := schedule.ParseWeekdayNames(s)
					return err
				}),
			huh.NewInput().
				Title("Daily Target").
				Value(&fm.Target).
				Validate(func(s string) error {
					n, err := strconv.Atoi(strings.TrimSpace(s))
					if err != nil || n < 1 {
						return fmt.Errorf("must be a positive number")
					}
					return nil
				}),
			huh.NewInput().
				Title("Category").
				Description("optional").
				Value(&fm.Category),
			huh.NewInput().
				Title("Reminder (HH:MM)").
				Description("optional").
				Value(&fm.Reminder).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return nil
					}
					if !utils.ValidateTimeFormat(strings.TrimSpace(s)) {
						return fmt.Errorf("invalid time format, use HH:MM")
					}
					return nil
				}),
		),
	).WithTheme(formTheme(theme))
}

// NewSettingsForm creates the form for editing stored preferences
func NewSettingsForm(fm *SettingsFormModel, theme string) *huh.Form {
	options := make([]huh.Option[string], len(constants.Themes))
	for i, t := range constants.Themes {
		options[i] = huh.NewOption(t, t)
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Timezone").
				Description("IANA name such as Europe/Berlin, or Local").
				Value(&fm.Timezone).
				Validate(func(s string) error {
					if !utils.ValidateTimezone(strings.TrimSpace(s)) {
						return fmt.Errorf("unknown timezone")
					}
					return nil
				}),
			huh.NewSelect[string]().
				Title("Theme").
				Options(options...).
				Value(&fm.Theme),
			huh.NewConfirm().
				Title("Habit Reminders").
				Value(&fm.NotificationsEnabled),
		),
	).WithTheme(formTheme(theme))
}
