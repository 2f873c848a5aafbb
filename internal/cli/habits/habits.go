package habits

import (
	"errors"
	"fmt"
	"strings"

	"github.com/julianstephens/habitkit/internal/cli"
	"github.com/julianstephens/habitkit/internal/models"
	"github.com/julianstephens/habitkit/internal/pipeline"
	"github.com/julianstephens/habitkit/internal/schedule"
	"github.com/julianstephens/habitkit/internal/storage"
)

type HabitCmd struct {
	Add      HabitAddCmd      `cmd:"" help:"Add a new habit."`
	List     HabitListCmd     `cmd:"" help:"List habits."`
	Edit     HabitEditCmd     `cmd:"" help:"Edit a habit."`
	Progress HabitProgressCmd `cmd:"" help:"Set today's progress value."`
	Inc      HabitIncCmd      `cmd:"" help:"Increase today's progress."`
	Dec      HabitDecCmd      `cmd:"" help:"Decrease today's progress."`
	Done     HabitDoneCmd     `cmd:"" help:"Mark a habit complete for today."`
	Undo     HabitUndoCmd     `cmd:"" help:"Clear today's progress."`
	Archive  HabitArchiveCmd  `cmd:"" help:"Archive a habit from today on."`
	Restore  HabitRestoreCmd  `cmd:"" help:"Restore an archived habit."`
	Today    HabitTodayCmd    `cmd:"" help:"Show today's habit status."`
	Day      HabitDayCmd      `cmd:"" help:"Show habits as they stood on a day."`
	Log      HabitLogCmd      `cmd:"" help:"Show habit log (ASCII history)."`
	Stats    HabitStatsCmd    `cmd:"" help:"Show completion percentages and trend."`
	Reset    HabitResetCmd    `cmd:"" help:"Delete every habit and completion."`
}

type HabitAddCmd struct {
	Name     string `arg:"" help:"Habit name."`
	Days     string `help:"Schedule: 'daily' or weekdays such as mon,wed,fri." default:"daily"`
	Target   int    `help:"Progress needed to complete the habit each day." default:"1"`
	Category string `help:"Optional category."`
	Notify   string `help:"Reminder time (HH:MM)."`
}

func (c *HabitAddCmd) Run(ctx *cli.Context) error {
	if _, err := ctx.Store.GetHabitByName(c.Name); err == nil {
		return fmt.Errorf("habit with name %q already exists", c.Name)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return err
	}

	rule, err := schedule.ParseWeekdayNames(c.Days)
	if err != nil {
		return err
	}

	d, err := ctx.Dispatcher()
	if err != nil {
		return err
	}
	habit, err := d.CreateHabit(c.Name, rule, c.Target, c.Category, c.Notify)
	if err != nil {
		return err
	}

	ctx.Printf("Added habit %q (#%d, %s)\n", habit.Name, habit.ID, schedule.Describe(habit.Recurrence))
	return nil
}

type HabitListCmd struct {
	Archived bool   `help:"Include archived habits."`
	Category string `help:"Only show habits in this category."`
	Sort     string `help:"Sort by name, streak or created." default:"name" enum:"name,streak,created"`
}

func (c *HabitListCmd) Run(ctx *cli.Context) error {
	key, _ := pipeline.ParseSortKey(c.Sort)
	st, err := compute(ctx, pipeline.Filter{Category: c.Category, IncludeArchived: c.Archived}, key)
	if err != nil {
		return err
	}

	if len(st.Rows) == 0 {
		ctx.Println("No habits found.")
		return nil
	}

	for _, row := range st.Rows {
		h := row.Habit
		status := ""
		if h.IsArchived {
			status = " [ARCHIVED]"
		}
		extra := ""
		if h.Category != "" {
			extra += " · " + h.Category
		}
		if h.HasNotification() {
			extra += " · reminder " + h.NotificationTime
		}
		ctx.Printf("#%-3d %-24s %-16s target %d · streak %d (best %d)%s%s\n",
			h.ID, h.Name, schedule.Describe(h.Recurrence), h.TargetValue,
			h.CurrentStreak, h.BestStreak, extra, status)
	}
	return nil
}

type HabitEditCmd struct {
	Habit       string  `arg:"" help:"Habit ID or name."`
	Name        *string `help:"New name."`
	Days        *string `help:"New schedule: 'daily' or weekdays such as mon,wed,fri."`
	Target      *int    `help:"New daily target."`
	Category    *string `help:"New category (empty to clear)."`
	Notify      *string `help:"New reminder time (HH:MM)."`
	ClearNotify bool    `help:"Remove the reminder."`
}

func (c *HabitEditCmd) Run(ctx *cli.Context) error {
	habit, err := ctx.ResolveHabit(c.Habit)
	if err != nil {
		return err
	}

	updated := false
	if c.Name != nil {
		name := strings.TrimSpace(*c.Name)
		if other, err := ctx.Store.GetHabitByName(name); err == nil && other.ID != habit.ID {
			return fmt.Errorf("habit with name %q already exists", name)
		}
		habit.Name = name
		updated = true
	}
	if c.Days != nil {
		rule, err := schedule.ParseWeekdayNames(*c.Days)
		if err != nil {
			return err
		}
		habit.Recurrence = rule
		updated = true
	}
	if c.Target != nil {
		habit.TargetValue = *c.Target
		updated = true
	}
	if c.Category != nil {
		habit.Category = strings.TrimSpace(*c.Category)
		updated = true
	}
	if c.Notify != nil {
		habit.NotificationTime = strings.TrimSpace(*c.Notify)
		updated = true
	}
	if c.ClearNotify {
		habit.NotificationTime = ""
		updated = true
	}

	if !updated {
		ctx.Println("No changes specified.")
		return nil
	}

	d, err := ctx.Dispatcher()
	if err != nil {
		return err
	}
	saved, err := d.SaveHabit(habit)
	if err != nil {
		return err
	}
	ctx.Printf("Updated habit %q\n", saved.Name)
	return nil
}

type HabitArchiveCmd struct {
	Habit string `arg:"" help:"Habit ID or name."`
}

func (c *HabitArchiveCmd) Run(ctx *cli.Context) error {
	habit, err := ctx.ResolveHabit(c.Habit)
	if err != nil {
		return err
	}
	d, err := ctx.Dispatcher()
	if err != nil {
		return err
	}
	if _, err := d.Archive(habit.ID); err != nil {
		return err
	}
	ctx.Printf("Archived habit %q. It no longer counts from today on.\n", habit.Name)
	return nil
}

type HabitRestoreCmd struct {
	Habit string `arg:"" help:"Habit ID or name."`
}

func (c *HabitRestoreCmd) Run(ctx *cli.Context) error {
	habit, err := ctx.ResolveHabit(c.Habit)
	if err != nil {
		return err
	}
	d, err := ctx.Dispatcher()
	if err != nil {
		return err
	}
	if _, err := d.Restore(habit.ID); err != nil {
		return err
	}
	ctx.Printf("Restored habit %q\n", habit.Name)
	return nil
}

type HabitResetCmd struct {
	Yes bool `help:"Confirm deleting every habit." short:"y"`
}

func (c *HabitResetCmd) Run(ctx *cli.Context) error {
	if !c.Yes {
		return errors.New("refusing to delete every habit without --yes")
	}
	ctx.PerformAutomaticBackup()

	d, err := ctx.Dispatcher()
	if err != nil {
		return err
	}
	n, err := d.Reset()
	if err != nil {
		return err
	}
	ctx.Printf("Deleted %d habit(s) and their history.\n", n)
	return nil
}

// compute runs the derived-state pipeline over a fresh snapshot for today.
func compute(ctx *cli.Context, filter pipeline.Filter, sort pipeline.SortKey) (pipeline.State, error) {
	return computeFor(ctx, filter, sort, "")
}

func computeFor(ctx *cli.Context, filter pipeline.Filter, sort pipeline.SortKey, date string) (pipeline.State, error) {
	engine, err := ctx.Engine()
	if err != nil {
		return pipeline.State{}, err
	}
	selected, err := ctx.ParseDay(date)
	if err != nil {
		return pipeline.State{}, err
	}

	habits, err := ctx.Store.GetAllHabits()
	if err != nil {
		return pipeline.State{}, err
	}
	completions, err := ctx.Store.GetAllCompletions()
	if err != nil {
		return pipeline.State{}, err
	}

	return pipeline.Compute(pipeline.Inputs{
		Habits:      habits,
		Completions: completions,
		Filter:      filter,
		Sort:        sort,
		Selected:    selected,
		Today:       engine.Now(),
	}), nil
}

func progressBar(h models.Habit) string {
	if h.TargetValue <= 1 {
		if h.IsComplete() {
			return "[x]"
		}
		return "[ ]"
	}
	return fmt.Sprintf("[%d/%d]", h.CurrentValue, h.TargetValue)
}
