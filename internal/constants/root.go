package constants

import "time"

const (
	AppName            = "habitkit"
	DefaultKeyringUser = "database-connection"
	DefaultConfigPath  = "~/.config/habitkit/habitkit.db"
	Version            = "v0.1.0"
	ConfigFileName     = "config.toml"

	// EnvDBConnection names the environment variable holding a PostgreSQL connection string
	EnvDBConnection = "HABITKIT_DB_CONNECTION"

	// RecurrenceDaily is the rule token for habits due every day
	RecurrenceDaily = "daily"

	DefaultTargetValue = 1
	DefaultLogDays     = 14
	TrendWindowDays    = 7
	MaxSelectableAge   = 366 // days back the TUI lets you page

	// Notify constants
	NotifyRequestTimeout   = 2 * time.Second
	NotifierLockfileName   = "habitkit-notifier.lock"
	NotificationDurationMs = 5000
	TrayAppIdentifier      = "com.julianstephens.habitkit"

	// Log rotation
	LogFileName   = "habitkit.log"
	LogMaxSizeMB  = 10
	LogMaxBackups = 3
	LogMaxAgeDays = 28
)
