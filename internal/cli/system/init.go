package system

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/julianstephens/habitkit/internal/cli"
	"github.com/julianstephens/habitkit/internal/logger"
	"github.com/julianstephens/habitkit/internal/models"
	"github.com/julianstephens/habitkit/internal/storage"
	"github.com/julianstephens/habitkit/internal/storage/postgres"
)

type InitCmd struct {
	Force  bool   `help:"Force reset by deleting existing data before initialization."`
	Source string `help:"Source database path or connection string to copy data from."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	if c.Force {
		if err := c.reset(ctx); err != nil {
			return err
		}
	}

	if err := ctx.Store.Init(); err != nil {
		return err
	}

	// PostgreSQL has no file to delete, so clear it once the schema exists.
	if c.Force && !ctx.IsSQLite() {
		if err := ctx.Store.DeleteAllHabits(); err != nil {
			return fmt.Errorf("failed to clear existing habits: %w", err)
		}
		if err := ctx.Store.SaveSettings(models.DefaultSettings()); err != nil {
			return fmt.Errorf("failed to reset settings: %w", err)
		}
	}
	ctx.Printf("Initialized habitkit storage at: %s\n", ctx.Store.GetConfigPath())

	if c.Source != "" {
		ctx.Printf("Copying data from: %s\n", c.Source)
		if err := c.copyData(ctx); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		ctx.Println("Migration completed successfully!")
	}

	return nil
}

func (c *InitCmd) reset(ctx *cli.Context) error {
	if !ctx.IsSQLite() {
		return nil
	}

	dbPath := ctx.Store.GetConfigPath()
	if absDBPath, err := filepath.Abs(dbPath); err == nil {
		dbPath = absDBPath
	}
	if c.Source != "" && !postgres.IsConnString(c.Source) {
		source, err := cli.ExpandPath(c.Source)
		if err == nil {
			if absSource, err := filepath.Abs(source); err == nil && absSource == dbPath {
				return fmt.Errorf("cannot use --force when source and destination are the same: %s", dbPath)
			}
		}
	}

	if _, err := os.Stat(dbPath); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to access existing database: %w", err)
	}

	if err := ctx.Store.Close(); err != nil {
		return fmt.Errorf("failed to close existing database: %w", err)
	}
	if err := os.Remove(dbPath); err != nil {
		return fmt.Errorf("failed to delete existing database: %w", err)
	}
	logger.Info("Deleted existing database", "path", dbPath)
	ctx.Printf("Deleted existing database at: %s\n", dbPath)
	return nil
}

// copyData copies settings, habits and completions from the source store,
// keeping habit IDs so completions still point at their habits.
func (c *InitCmd) copyData(ctx *cli.Context) error {
	source, err := openSource(c.Source)
	if err != nil {
		return err
	}
	if err := source.Load(); err != nil {
		return fmt.Errorf("failed to load source database: %w", err)
	}
	defer source.Close()

	ctx.Println("  Copying settings...")
	settings, err := source.GetSettings()
	if err != nil {
		return fmt.Errorf("failed to get settings from source: %w", err)
	}
	models.ApplyDefaultSettings(&settings)
	if err := ctx.Store.SaveSettings(settings); err != nil {
		return fmt.Errorf("failed to save settings to destination: %w", err)
	}

	habits, err := source.GetAllHabits()
	if err != nil {
		return fmt.Errorf("failed to get habits from source: %w", err)
	}
	completions, err := source.GetAllCompletions()
	if err != nil {
		return fmt.Errorf("failed to get completions from source: %w", err)
	}

	ctx.Println("  Copying habits and completions...")
	err = ctx.Store.WithTx(func(tx storage.Tx) error {
		for _, h := range habits {
			if _, err := tx.InsertOrUpdateHabit(h); err != nil {
				return fmt.Errorf("failed to copy habit %d: %w", h.ID, err)
			}
		}
		for _, comp := range completions {
			if err := tx.AddCompletion(comp); err != nil {
				return fmt.Errorf("failed to copy completion %s: %w", comp.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	ctx.Printf("    Copied %d habits\n", len(habits))
	ctx.Printf("    Copied %d completions\n", len(completions))
	return nil
}

func openSource(target string) (storage.Provider, error) {
	if postgres.IsConnString(target) {
		if _, err := postgres.ValidateConnString(target); err != nil {
			if errors.Is(err, postgres.ErrEmbeddedCredentials) {
				return nil, fmt.Errorf("PostgreSQL source connection string contains embedded credentials. Use environment variables or .pgpass instead")
			}
			return nil, err
		}
	}
	return cli.OpenStore(target)
}
