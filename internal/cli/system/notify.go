package system

import (
	"fmt"

	"github.com/julianstephens/habitkit/internal/cli"
	"github.com/julianstephens/habitkit/internal/logger"
	"github.com/julianstephens/habitkit/internal/notifier"
)

// NotifyCmd re-sends every reminder to the tray app, e.g. after the tray app
// restarted and lost its schedule.
type NotifyCmd struct {
	DryRun bool `help:"Print the reminders instead of sending them."`
}

func (c *NotifyCmd) Run(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	if !ctx.NotificationsEnabled() {
		ctx.Println("Notifications are disabled.")
		return nil
	}

	habits, err := ctx.Store.GetAllHabits()
	if err != nil {
		return fmt.Errorf("failed to get habits: %w", err)
	}

	var intents []notifier.Intent
	for _, h := range habits {
		switch {
		case h.IsArchived:
			intents = append(intents, notifier.Cancel(h.ID))
		case h.HasNotification():
			intents = append(intents, notifier.Schedule(h))
		}
	}

	if c.DryRun {
		for _, in := range intents {
			if in.Action == notifier.ActionSchedule {
				ctx.Printf("[DryRun] schedule %s at %s\n", in.Habit.Name, in.Habit.NotificationTime)
			} else {
				ctx.Printf("[DryRun] cancel habit %d\n", in.HabitID)
			}
		}
		return nil
	}

	d := ctx.Deliverer
	if d == nil {
		d = notifier.New(ctx.Config.Notifications.TrayDir)
	}
	failed := 0
	for _, in := range intents {
		if err := d.Deliver(in); err != nil {
			logger.Warn("Reminder delivery failed", "action", in.Action, "habit_id", in.HabitID, "error", err)
			failed++
		}
	}

	ctx.Printf("Synced %d reminder(s).\n", len(intents)-failed)
	if failed > 0 {
		return fmt.Errorf("failed to deliver %d reminder(s)", failed)
	}
	return nil
}
