package models

import (
	"github.com/julianstephens/habitkit/internal/constants"
)

// MapToSettings converts a map of key-value pairs to a Settings struct.
func MapToSettings(data map[string]string) Settings {
	settings := Settings{}

	for key, value := range data {
		switch key {
		case constants.SettingTimezone:
			settings.Timezone = value
		case constants.SettingTheme:
			settings.Theme = value
		case constants.SettingNotificationsEnabled:
			settings.NotificationsEnabled = value == "true"
		}
	}
	return settings
}

// SettingsToMap converts a Settings struct to a map of key-value pairs.
func SettingsToMap(settings Settings) map[string]string {
	notify := "false"
	if settings.NotificationsEnabled {
		notify = "true"
	}
	return map[string]string{
		constants.SettingTimezone:             settings.Timezone,
		constants.SettingTheme:                settings.Theme,
		constants.SettingNotificationsEnabled: notify,
	}
}

// DefaultSettings returns the settings written on first initialization.
func DefaultSettings() Settings {
	return Settings{
		Timezone:             constants.DefaultTimezone,
		Theme:                constants.DefaultTheme,
		NotificationsEnabled: constants.DefaultNotificationsEnabled,
	}
}

// ApplyDefaultSettings applies default values to missing settings.
func ApplyDefaultSettings(settings *Settings) {
	if settings.Timezone == "" {
		settings.Timezone = constants.DefaultTimezone
	}
	if settings.Theme == "" {
		settings.Theme = constants.DefaultTheme
	}
}
