package system

import (
	"fmt"
	"slices"
	"strings"

	"github.com/julianstephens/habitkit/internal/backup"
	"github.com/julianstephens/habitkit/internal/cli"
	"github.com/julianstephens/habitkit/internal/constants"
	"github.com/julianstephens/habitkit/internal/storage/sqlite"
	"github.com/julianstephens/habitkit/internal/utils"
)

type DoctorCmd struct{}

type schemaVersioner interface {
	SchemaVersion() (current, latest int, err error)
}

type check struct {
	name    string
	needsDB bool
	warning bool // failures are reported but do not fail the run
	run     func(*cli.Context) error
}

var checks = []check{
	{name: "Schema version", needsDB: true, run: checkSchemaVersion},
	{name: "Migrations complete", needsDB: true, run: checkMigrationsComplete},
	{name: "Backups present", warning: true, run: checkBackupsPresent},
	{name: "Settings", needsDB: true, run: checkSettings},
	{name: "Clock/timezone", run: checkClockTimezone},
	{name: "Habit integrity", needsDB: true, run: checkHabitsIntegrity},
	{name: "Completion ledger", needsDB: true, run: checkCompletions},
	{name: "Completion day alignment", needsDB: true, warning: true, run: checkCompletionAlignment},
}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	ctx.Println("Running diagnostics...")
	ctx.Println()

	hasError := false
	dbReachable := true

	if err := checkDBReachable(ctx); err != nil {
		ctx.Printf("❌ Database reachable: FAIL\n   Error: %v\n", err)
		hasError = true
		dbReachable = false
	} else {
		ctx.Printf("✓ Database reachable: OK\n")
	}

	for _, c := range checks {
		if c.needsDB && !dbReachable {
			ctx.Printf("⊘ %s: SKIPPED (database not reachable)\n", c.name)
			continue
		}
		err := c.run(ctx)
		switch {
		case err == nil:
			ctx.Printf("✓ %s: OK\n", c.name)
		case c.warning:
			ctx.Printf("⚠ %s: WARNING\n   %v\n", c.name, err)
		default:
			ctx.Printf("❌ %s: FAIL\n   Error: %v\n", c.name, err)
			hasError = true
		}
	}

	ctx.Println()
	if hasError {
		ctx.Println("Diagnostics completed with errors.")
		return fmt.Errorf("one or more health checks failed")
	}

	ctx.Println("All diagnostics passed!")
	return nil
}

func checkDBReachable(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return fmt.Errorf("failed to load database: %w", err)
	}

	if s, ok := ctx.Store.(*sqlite.Store); ok {
		db := s.GetDB()
		if db == nil {
			return fmt.Errorf("database connection is nil")
		}
		var result int
		if err := db.QueryRow("SELECT 1").Scan(&result); err != nil {
			return fmt.Errorf("failed to query database: %w", err)
		}
	}
	return nil
}

func schemaVersions(ctx *cli.Context) (int, int, bool, error) {
	v, ok := ctx.Store.(schemaVersioner)
	if !ok {
		return 0, 0, false, nil
	}
	current, latest, err := v.SchemaVersion()
	if err != nil {
		return 0, 0, true, fmt.Errorf("failed to read schema version: %w", err)
	}
	return current, latest, true, nil
}

func checkSchemaVersion(ctx *cli.Context) error {
	current, latest, ok, err := schemaVersions(ctx)
	if err != nil || !ok {
		return err
	}
	if current > latest {
		return fmt.Errorf("database schema version (%d) is newer than supported version (%d)", current, latest)
	}
	return nil
}

func checkMigrationsComplete(ctx *cli.Context) error {
	current, latest, ok, err := schemaVersions(ctx)
	if err != nil || !ok {
		return err
	}
	if current < latest {
		return fmt.Errorf("migrations incomplete: current version %d, latest version %d (run 'habitkit migrate')", current, latest)
	}
	return nil
}

func checkBackupsPresent(ctx *cli.Context) error {
	if !ctx.IsSQLite() {
		return nil
	}
	backups, err := backup.NewManager(ctx.Store.GetConfigPath()).List()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}
	if len(backups) == 0 {
		return fmt.Errorf("no backups found, consider creating one with 'habitkit backup create'")
	}
	return nil
}

func checkSettings(ctx *cli.Context) error {
	settings, err := ctx.Store.GetSettings()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	if !utils.ValidateTimezone(settings.Timezone) {
		return fmt.Errorf("stored timezone %q is not a known zone", settings.Timezone)
	}
	if settings.Theme != "" && !slices.Contains(constants.Themes, settings.Theme) {
		return fmt.Errorf("stored theme %q is not one of %s", settings.Theme, strings.Join(constants.Themes, ", "))
	}
	return nil
}

func checkClockTimezone(ctx *cli.Context) error {
	now := ctx.Clock.Now()
	if now.Year() < 2020 || now.Year() > 2100 {
		return fmt.Errorf("system time appears incorrect: %s", now.Format("2006-01-02T15:04:05Z07:00"))
	}
	for _, tz := range []string{ctx.Timezone, ctx.Config.General.Timezone} {
		if tz != "" && !utils.ValidateTimezone(tz) {
			return fmt.Errorf("timezone override %q is not a known zone", tz)
		}
	}
	return nil
}

func checkHabitsIntegrity(ctx *cli.Context) error {
	habits, err := ctx.Store.GetAllHabits()
	if err != nil {
		return fmt.Errorf("failed to get habits: %w", err)
	}

	var problems []string
	for _, h := range habits {
		if err := h.Validate(); err != nil {
			problems = append(problems, fmt.Sprintf("#%d %s: %v", h.ID, h.Name, err))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("found %d invalid habit(s):\n   %s", len(problems), strings.Join(problems, "\n   "))
	}
	return nil
}

func checkCompletions(ctx *cli.Context) error {
	habits, err := ctx.Store.GetAllHabits()
	if err != nil {
		return fmt.Errorf("failed to get habits: %w", err)
	}
	completions, err := ctx.Store.GetAllCompletions()
	if err != nil {
		return fmt.Errorf("failed to get completions: %w", err)
	}
	today, err := ctx.Today()
	if err != nil {
		return err
	}

	tomorrow := utils.DayStartMillis(utils.AddDays(today, 1))

	known := make(map[int64]bool, len(habits))
	for _, h := range habits {
		known[h.ID] = true
	}

	type key struct{ habit, day int64 }
	seen := make(map[key]bool, len(completions))
	var orphaned, duplicated, future int
	for _, c := range completions {
		if !known[c.HabitID] {
			orphaned++
		}
		k := key{c.HabitID, c.CompletionDate}
		if seen[k] {
			duplicated++
		}
		seen[k] = true
		if c.CompletionDate >= tomorrow {
			future++
		}
	}

	switch {
	case orphaned > 0:
		return fmt.Errorf("found %d completion(s) referencing missing habits", orphaned)
	case duplicated > 0:
		return fmt.Errorf("found %d duplicate completion(s) for the same habit and day", duplicated)
	case future > 0:
		return fmt.Errorf("found %d completion(s) dated after today", future)
	}
	return nil
}

func checkCompletionAlignment(ctx *cli.Context) error {
	loc, err := ctx.Location()
	if err != nil {
		return err
	}
	completions, err := ctx.Store.GetAllCompletions()
	if err != nil {
		return fmt.Errorf("failed to get completions: %w", err)
	}

	misaligned := 0
	for _, c := range completions {
		if !utils.IsDayStart(c.CompletionDate, loc) {
			misaligned++
		}
	}
	if misaligned > 0 {
		return fmt.Errorf("%d completion(s) do not start at midnight in %s; they were probably recorded in another timezone", misaligned, loc)
	}
	return nil
}
