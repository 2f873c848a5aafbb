package settings

import (
	"fmt"
	"slices"
	"strings"

	"github.com/julianstephens/habitkit/internal/cli"
	"github.com/julianstephens/habitkit/internal/constants"
	"github.com/julianstephens/habitkit/internal/logger"
	"github.com/julianstephens/habitkit/internal/models"
	"github.com/julianstephens/habitkit/internal/utils"
)

type SettingsCmd struct {
	Show SettingsShowCmd `cmd:"" default:"1" help:"Show current settings."`
	Set  SettingsSetCmd  `cmd:"" help:"Update settings."`
}

type SettingsShowCmd struct{}

func (c *SettingsShowCmd) Run(ctx *cli.Context) error {
	settings, err := ctx.Store.GetSettings()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	models.ApplyDefaultSettings(&settings)

	ctx.Println("Current Settings:")
	ctx.Printf("  Timezone:              %s\n", settings.Timezone)
	ctx.Printf("  Theme:                 %s\n", settings.Theme)
	ctx.Printf("  Notifications Enabled: %v\n", settings.NotificationsEnabled)

	if ctx.Config.General.Timezone != "" {
		ctx.Printf("\nThe config file overrides the timezone with %s.\n", ctx.Config.General.Timezone)
	}
	if !ctx.Config.Notifications.Enabled {
		ctx.Println("\nNotifications are disabled in the config file.")
	}
	return nil
}

type SettingsSetCmd struct {
	Timezone      *string `help:"IANA timezone name, or Local for the system timezone."`
	Theme         *string `help:"Display theme (system, light or dark)."`
	Notifications *bool   `help:"Enable or disable habit reminders."`
}

func (c *SettingsSetCmd) Run(ctx *cli.Context) error {
	settings, err := ctx.Store.GetSettings()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	models.ApplyDefaultSettings(&settings)

	updated := false
	if c.Timezone != nil {
		tz := strings.TrimSpace(*c.Timezone)
		if !utils.ValidateTimezone(tz) {
			return fmt.Errorf("invalid timezone: %q", tz)
		}
		settings.Timezone = tz
		updated = true
	}
	if c.Theme != nil {
		theme := strings.ToLower(strings.TrimSpace(*c.Theme))
		if !slices.Contains(constants.Themes, theme) {
			return fmt.Errorf("invalid theme %q (expected one of %s)", theme, strings.Join(constants.Themes, ", "))
		}
		settings.Theme = theme
		updated = true
	}
	if c.Notifications != nil {
		settings.NotificationsEnabled = *c.Notifications
		updated = true
	}

	if !updated {
		ctx.Println("No changes specified. Use 'settings show' to view settings or flags to update them.")
		return nil
	}

	if err := ctx.Store.SaveSettings(settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	logger.Info("Settings updated", "timezone", settings.Timezone, "theme", settings.Theme, "notifications", settings.NotificationsEnabled)
	ctx.Println("Settings updated successfully.")
	return nil
}
