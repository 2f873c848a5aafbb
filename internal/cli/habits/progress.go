package habits

import (
	"github.com/julianstephens/habitkit/internal/cli"
	"github.com/julianstephens/habitkit/internal/models"
)

type HabitProgressCmd struct {
	Habit string `arg:"" help:"Habit ID or name."`
	Value int    `arg:"" help:"Progress value for today."`
}

func (c *HabitProgressCmd) Run(ctx *cli.Context) error {
	return apply(ctx, c.Habit, func(d dispatcher, id int64) (models.Habit, error) {
		return d.SetProgress(id, c.Value)
	})
}

type HabitIncCmd struct {
	Habit string `arg:"" help:"Habit ID or name."`
	By    int    `help:"Amount to add." default:"1"`
}

func (c *HabitIncCmd) Run(ctx *cli.Context) error {
	return apply(ctx, c.Habit, func(d dispatcher, id int64) (models.Habit, error) {
		return d.Step(id, c.By)
	})
}

type HabitDecCmd struct {
	Habit string `arg:"" help:"Habit ID or name."`
	By    int    `help:"Amount to subtract." default:"1"`
}

func (c *HabitDecCmd) Run(ctx *cli.Context) error {
	return apply(ctx, c.Habit, func(d dispatcher, id int64) (models.Habit, error) {
		return d.Step(id, -c.By)
	})
}

type HabitDoneCmd struct {
	Habit string `arg:"" help:"Habit ID or name."`
}

func (c *HabitDoneCmd) Run(ctx *cli.Context) error {
	return apply(ctx, c.Habit, func(d dispatcher, id int64) (models.Habit, error) {
		return d.Complete(id)
	})
}

type HabitUndoCmd struct {
	Habit string `arg:"" help:"Habit ID or name."`
}

func (c *HabitUndoCmd) Run(ctx *cli.Context) error {
	return apply(ctx, c.Habit, func(d dispatcher, id int64) (models.Habit, error) {
		return d.Undo(id)
	})
}

type dispatcher interface {
	SetProgress(habitID int64, value int) (models.Habit, error)
	Step(habitID int64, delta int) (models.Habit, error)
	Complete(habitID int64) (models.Habit, error)
	Undo(habitID int64) (models.Habit, error)
}

func apply(ctx *cli.Context, ref string, fn func(dispatcher, int64) (models.Habit, error)) error {
	habit, err := ctx.ResolveHabit(ref)
	if err != nil {
		return err
	}
	d, err := ctx.Dispatcher()
	if err != nil {
		return err
	}
	updated, err := fn(d, habit.ID)
	if err != nil {
		return err
	}

	ctx.Printf("%s %s · streak %d (best %d)\n",
		progressBar(updated), updated.Name, updated.CurrentStreak, updated.BestStreak)
	return nil
}
