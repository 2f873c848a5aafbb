package main

import (
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/habitkit/internal/cli"
	"github.com/julianstephens/habitkit/internal/cli/backups"
	"github.com/julianstephens/habitkit/internal/cli/habits"
	"github.com/julianstephens/habitkit/internal/cli/settings"
	"github.com/julianstephens/habitkit/internal/cli/system"
	"github.com/julianstephens/habitkit/internal/config"
	"github.com/julianstephens/habitkit/internal/constants"
	"github.com/julianstephens/habitkit/internal/errors"
	"github.com/julianstephens/habitkit/internal/logger"
)

var CLI struct {
	Version    kong.VersionFlag
	Config     string `help:"Database path or PostgreSQL connection string. Connection strings must NOT embed a password; use the keyring or HABITKIT_DB_CONNECTION instead." type:"string"`
	ConfigFile string `help:"Path to the TOML config file." type:"path"`
	Debug      bool   `help:"Log debug output to stderr."`
	Timezone   string `help:"Evaluate days in this timezone (overrides config and settings)."`

	Init     system.InitCmd       `cmd:"" help:"Initialize habitkit storage."`
	Migrate  system.MigrateCmd    `cmd:"" help:"Run database migrations."`
	Doctor   system.DoctorCmd     `cmd:"" help:"Run health checks and diagnostics."`
	Tui      system.TuiCmd        `cmd:"" help:"Launch the interactive TUI." default:"1"`
	Habit    habits.HabitCmd      `cmd:"" help:"Manage habits and habit tracking."`
	Settings settings.SettingsCmd `cmd:"" help:"Manage stored preferences."`
	Keyring  system.KeyringCmd    `cmd:"" help:"Manage the PostgreSQL connection string in the OS keyring."`
	Backup   backups.BackupCmd    `cmd:"" help:"Manage database backups."`
	DebugCmd system.DebugCmd      `cmd:"" name:"debug" help:"Debug commands for troubleshooting."`
	Notify   system.NotifyCmd     `cmd:"" hidden:"" help:"Re-send every reminder to the tray app."`
}

// noLoad lists commands that manage the store's lifecycle themselves.
var noLoad = map[string]bool{
	"init":    true,
	"doctor":  true,
	"keyring": true,
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Habit tracker with streaks, schedules and completion statistics"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{"version": constants.Version},
	)

	configFile := CLI.ConfigFile
	if configFile == "" {
		configFile = config.ConfigPath()
	}
	cfg, err := config.LoadFrom(configFile)
	if err != nil {
		errors.Fatal(err)
	}

	if err := logger.Init(logger.Config{
		Debug:     CLI.Debug || cfg.General.Debug,
		ConfigDir: filepath.Dir(configFile),
	}); err != nil {
		errors.Fatal(err)
	}
	defer logger.Close()

	target := CLI.Config
	if target == "" {
		target = cfg.General.Database
	}
	store, err := cli.OpenStore(target)
	if err != nil {
		errors.Fatal(err)
	}

	appCtx := cli.NewContext(store, cfg)
	appCtx.Timezone = CLI.Timezone

	command := strings.Fields(ctx.Command())
	if len(command) > 0 && !noLoad[command[0]] {
		if err := store.Load(); err != nil {
			errors.Fatal(err)
		}
	}

	runErr := ctx.Run(appCtx)
	if err := appCtx.Close(); err != nil {
		logger.Warn("Failed to close store", "error", err)
	}
	if runErr != nil {
		logger.Close()
		errors.Fatal(runErr)
	}
}
