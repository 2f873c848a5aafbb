package system

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/julianstephens/habitkit/internal/cli"
	"github.com/julianstephens/habitkit/internal/models"
	"github.com/julianstephens/habitkit/internal/storage"
	"github.com/julianstephens/habitkit/internal/utils"
)

type DebugCmd struct {
	DBPath          *DebugDBPathCmd          `cmd:"" help:"Show database path."`
	DumpHabit       *DebugDumpHabitCmd       `cmd:"" help:"Dump habit data as JSON."`
	DumpCompletions *DebugDumpCompletionsCmd `cmd:"" help:"Dump completion records as JSON."`
	DumpSettings    *DebugDumpSettingsCmd    `cmd:"" help:"Dump settings data as JSON."`
}

func printJSON(ctx *cli.Context, what string, v any) error {
	jsonBytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", what, err)
	}
	ctx.Println(string(jsonBytes))
	return nil
}

type DebugDBPathCmd struct{}

func (cmd *DebugDBPathCmd) Run(ctx *cli.Context) error {
	return printJSON(ctx, "output", map[string]string{
		"path": ctx.Store.GetConfigPath(),
	})
}

type DebugDumpHabitCmd struct {
	Ref string `arg:"" help:"ID or name of the habit to dump."`
}

func (cmd *DebugDumpHabitCmd) Run(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return fmt.Errorf("failed to load database: %w", err)
	}

	habit, err := ctx.ResolveHabit(cmd.Ref)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("habit not found: %s", cmd.Ref)
		}
		return fmt.Errorf("failed to get habit: %w", err)
	}
	return printJSON(ctx, "habit", habit)
}

type DebugDumpCompletionsCmd struct {
	Habit string `help:"Only completions of this habit (ID or name)."`
	Day   string `help:"Only completions credited to this day (YYYY-MM-DD)."`
}

func (cmd *DebugDumpCompletionsCmd) Run(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return fmt.Errorf("failed to load database: %w", err)
	}

	var habitID int64
	if cmd.Habit != "" {
		habit, err := ctx.ResolveHabit(cmd.Habit)
		if err != nil {
			return fmt.Errorf("habit not found: %s", cmd.Habit)
		}
		habitID = habit.ID
	}
	var day int64
	if cmd.Day != "" {
		d, err := ctx.ParseDay(cmd.Day)
		if err != nil {
			return err
		}
		day = utils.DayStartMillis(d)
	}

	completions, err := ctx.Store.GetAllCompletions()
	if err != nil {
		return fmt.Errorf("failed to get completions: %w", err)
	}

	out := []models.HabitCompletion{}
	for _, c := range completions {
		if habitID != 0 && c.HabitID != habitID {
			continue
		}
		if day != 0 && c.CompletionDate != day {
			continue
		}
		out = append(out, c)
	}
	return printJSON(ctx, "completions", out)
}

type DebugDumpSettingsCmd struct{}

func (cmd *DebugDumpSettingsCmd) Run(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return fmt.Errorf("failed to load database: %w", err)
	}

	settings, err := ctx.Store.GetSettings()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	return printJSON(ctx, "settings", settings)
}
