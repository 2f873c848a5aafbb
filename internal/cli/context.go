package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/julianstephens/habitkit/internal/actions"
	"github.com/julianstephens/habitkit/internal/backup"
	"github.com/julianstephens/habitkit/internal/config"
	"github.com/julianstephens/habitkit/internal/constants"
	"github.com/julianstephens/habitkit/internal/keyring"
	"github.com/julianstephens/habitkit/internal/ledger"
	"github.com/julianstephens/habitkit/internal/logger"
	"github.com/julianstephens/habitkit/internal/models"
	"github.com/julianstephens/habitkit/internal/notifier"
	"github.com/julianstephens/habitkit/internal/storage"
	"github.com/julianstephens/habitkit/internal/storage/postgres"
	"github.com/julianstephens/habitkit/internal/storage/sqlite"
	"github.com/julianstephens/habitkit/internal/streak"
	"github.com/julianstephens/habitkit/internal/utils"
)

// Context is handed to every command's Run method.
type Context struct {
	Store  storage.Provider
	Config config.Config
	Clock  utils.Clock
	Out    io.Writer
	In     io.Reader

	// Timezone overrides the configured and stored timezone when set.
	Timezone string

	// Deliverer receives reminder intents on Close. Nil means the tray notifier.
	Deliverer notifier.Deliverer

	loc        *time.Location
	dispatcher *actions.Dispatcher
	queue      *notifier.Queue
}

func NewContext(store storage.Provider, cfg config.Config) *Context {
	return &Context{
		Store:  store,
		Config: cfg,
		Clock:  utils.RealClock{},
		Out:    os.Stdout,
		In:     os.Stdin,
		queue:  notifier.NewQueue(),
	}
}

// Printf writes to the command output.
func (c *Context) Printf(format string, args ...any) {
	fmt.Fprintf(c.Out, format, args...)
}

// Println writes a line to the command output.
func (c *Context) Println(args ...any) {
	fmt.Fprintln(c.Out, args...)
}

// OpenStore picks a store for target: a PostgreSQL connection string, a SQLite
// path, or, when target is empty, a connection string from the environment or
// keyring before falling back to the default SQLite path.
func OpenStore(target string) (storage.Provider, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		connStr, source, err := keyring.ResolveConnectionString()
		if err == nil {
			logger.Debug("Using PostgreSQL connection", "source", source)
			return postgres.New(connStr), nil
		}
		logger.Debug("No stored connection string, using SQLite", "reason", err)
		target = constants.DefaultConfigPath
	}

	if postgres.IsConnString(target) {
		if _, err := postgres.ValidateConnString(target); err != nil {
			return nil, fmt.Errorf("refusing connection string: %w (store it with 'habitkit keyring set' or %s instead)", err, constants.EnvDBConnection)
		}
		return postgres.New(target), nil
	}

	path, err := ExpandPath(target)
	if err != nil {
		return nil, err
	}
	return sqlite.NewStore(path), nil
}

// ExpandPath resolves a leading ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// IsSQLite reports whether the store is backed by a local database file.
func (c *Context) IsSQLite() bool {
	_, ok := c.Store.(*sqlite.Store)
	return ok
}

// Location resolves the evaluation timezone: the --timezone flag, then the
// config file, then the stored setting, then the system zone.
func (c *Context) Location() (*time.Location, error) {
	if c.loc != nil {
		return c.loc, nil
	}

	tz := c.Timezone
	if tz == "" {
		tz = c.Config.General.Timezone
	}
	if tz == "" {
		if settings, err := c.Store.GetSettings(); err == nil {
			tz = settings.Timezone
		}
	}

	loc, err := utils.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", tz, err)
	}
	c.loc = loc
	return loc, nil
}

// Engine returns a streak engine for the resolved timezone.
func (c *Context) Engine() (*streak.Engine, error) {
	loc, err := c.Location()
	if err != nil {
		return nil, err
	}
	return streak.NewEngine(c.Clock, loc), nil
}

// Today returns the current day in the resolved timezone.
func (c *Context) Today() (time.Time, error) {
	engine, err := c.Engine()
	if err != nil {
		return time.Time{}, err
	}
	return engine.Today(), nil
}

// Dispatcher returns the action dispatcher, creating it on first use.
func (c *Context) Dispatcher() (*actions.Dispatcher, error) {
	if c.dispatcher != nil {
		return c.dispatcher, nil
	}
	engine, err := c.Engine()
	if err != nil {
		return nil, err
	}
	c.dispatcher = actions.New(c.Store, engine, c.queue)
	return c.dispatcher, nil
}

// Snapshot loads every habit and a completion index in the resolved timezone.
func (c *Context) Snapshot() ([]models.Habit, *ledger.Index, error) {
	loc, err := c.Location()
	if err != nil {
		return nil, nil, err
	}
	habits, err := c.Store.GetAllHabits()
	if err != nil {
		return nil, nil, err
	}
	idx, err := ledger.New(c.Store, loc).Snapshot()
	if err != nil {
		return nil, nil, err
	}
	return habits, idx, nil
}

// ResolveHabit finds a habit by numeric ID or, failing that, by name.
func (c *Context) ResolveHabit(ref string) (models.Habit, error) {
	ref = strings.TrimSpace(ref)
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		h, err := c.Store.GetHabit(id)
		if err == nil {
			return h, nil
		}
	}
	return c.Store.GetHabitByName(ref)
}

// ParseDay parses YYYY-MM-DD in the resolved timezone; empty means today.
func (c *Context) ParseDay(s string) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return c.Today()
	}
	loc, err := c.Location()
	if err != nil {
		return time.Time{}, err
	}
	day, err := utils.ParseDateInLocation(s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format: %s (expected YYYY-MM-DD)", s)
	}
	return day, nil
}

// NotificationsEnabled combines the config file switch with the stored preference.
func (c *Context) NotificationsEnabled() bool {
	if !c.Config.Notifications.Enabled {
		return false
	}
	settings, err := c.Store.GetSettings()
	if err != nil {
		return constants.DefaultNotificationsEnabled
	}
	return settings.NotificationsEnabled
}

// FlushReminders delivers queued reminder intents, or drops them when
// notifications are off.
func (c *Context) FlushReminders() {
	if c.queue.Len() == 0 {
		return
	}
	if !c.NotificationsEnabled() {
		for {
			if _, ok := c.queue.TryNext(); !ok {
				return
			}
		}
	}

	d := c.Deliverer
	if d == nil {
		d = notifier.New(c.Config.Notifications.TrayDir)
	}
	if failed := notifier.Flush(c.queue, d); failed > 0 {
		logger.Warn("Some reminders were not delivered", "failed", failed)
	}
}

// Intents exposes the reminder queue to long-running commands.
func (c *Context) Intents() *notifier.Queue {
	return c.queue
}

// PerformAutomaticBackup snapshots a SQLite database and logs failures without
// interrupting the command.
func (c *Context) PerformAutomaticBackup() {
	if !c.IsSQLite() {
		return
	}
	if _, err := backup.NewManager(c.Store.GetConfigPath()).Create(); err != nil {
		logger.Warn("Automatic backup failed", "error", err)
	}
}

// Close flushes reminders and closes the store.
func (c *Context) Close() error {
	c.FlushReminders()
	return c.Store.Close()
}
