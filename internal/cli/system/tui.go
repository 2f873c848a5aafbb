package system

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/habitkit/internal/cli"
	"github.com/julianstephens/habitkit/internal/logger"
	"github.com/julianstephens/habitkit/internal/models"
	"github.com/julianstephens/habitkit/internal/notifier"
	"github.com/julianstephens/habitkit/internal/pipeline"
	"github.com/julianstephens/habitkit/internal/tui"
)

type TuiCmd struct{}

func (c *TuiCmd) Run(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	ctx.PerformAutomaticBackup()

	d, err := ctx.Dispatcher()
	if err != nil {
		return err
	}
	loc, err := ctx.Location()
	if err != nil {
		return err
	}

	prefs, err := ctx.Store.GetSettings()
	if err != nil {
		prefs = models.DefaultSettings()
	}
	tui.ApplyTheme(prefs.Theme)

	// Reminders are delivered while the UI runs; anything left is flushed on Close.
	if ctx.NotificationsEnabled() {
		drainCtx, cancel := context.WithCancel(context.Background())
		defer cancel()
		deliverer := ctx.Deliverer
		if deliverer == nil {
			deliverer = notifier.New(ctx.Config.Notifications.TrayDir)
		}
		go func() {
			if err := notifier.Drain(drainCtx, ctx.Intents(), deliverer); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("Reminder delivery stopped", "error", err)
			}
		}()
	}

	runner := pipeline.NewRunner(ctx.Store, ctx.Clock, loc)
	p := tea.NewProgram(tui.NewModel(d, runner, ctx.Store), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui exited: %w", err)
	}
	return nil
}
