package constants

const (
	SettingTimezone             = "timezone"
	SettingTheme                = "theme"
	SettingNotificationsEnabled = "notifications_enabled"

	DefaultTimezone             = "Local" // Use system local timezone by default
	DefaultTheme                = "system"
	DefaultNotificationsEnabled = true
)

// Themes accepted by the theme setting. The core never reads it; it is stored for the UI.
var Themes = []string{"system", "light", "dark"}
