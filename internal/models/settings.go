package models

// Settings holds user preferences. The habit engine never reads them; they are
// stored and handed back to the UI layers unchanged.
type Settings struct {
	Timezone             string `json:"timezone"`              // IANA timezone name, or "Local" for the system timezone
	Theme                string `json:"theme"`                 // "system", "light" or "dark"
	NotificationsEnabled bool   `json:"notifications_enabled"` // whether reminder intents are delivered
}
