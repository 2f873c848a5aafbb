package settings

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/julianstephens/habitkit/internal/cli"
	"github.com/julianstephens/habitkit/internal/config"
	"github.com/julianstephens/habitkit/internal/constants"
	"github.com/julianstephens/habitkit/internal/storage/sqlite"
)

func setupTestDB(t *testing.T) (*cli.Context, *bytes.Buffer, func()) {
	tempDir := t.TempDir()
	dbPath := filepath.Join(tempDir, "test.db")

	store := sqlite.NewStore(dbPath)
	if err := store.Init(); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}

	out := &bytes.Buffer{}
	ctx := cli.NewContext(store, config.DefaultConfig())
	ctx.Out = out

	cleanup := func() {
		if err := store.Close(); err != nil {
			t.Errorf("failed to close store: %v", err)
		}
	}

	return ctx, out, cleanup
}

func ptr[T any](v T) *T { return &v }

func TestSettingsShowCmd(t *testing.T) {
	ctx, out, cleanup := setupTestDB(t)
	defer cleanup()

	cmd := &SettingsShowCmd{}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("settings show failed: %v", err)
	}

	for _, want := range []string{constants.DefaultTimezone, constants.DefaultTheme, "Notifications Enabled: true"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestSettingsShowCmd_ConfigOverrides(t *testing.T) {
	ctx, out, cleanup := setupTestDB(t)
	defer cleanup()

	ctx.Config.General.Timezone = "Asia/Tokyo"
	ctx.Config.Notifications.Enabled = false

	if err := (&SettingsShowCmd{}).Run(ctx); err != nil {
		t.Fatalf("settings show failed: %v", err)
	}
	if !strings.Contains(out.String(), "Asia/Tokyo") {
		t.Errorf("expected config timezone override in output:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "disabled in the config file") {
		t.Errorf("expected config notification note in output:\n%s", out.String())
	}
}

func TestSettingsSetCmd(t *testing.T) {
	tests := []struct {
		name    string
		cmd     SettingsSetCmd
		wantErr bool
		check   func(t *testing.T, ctx *cli.Context)
	}{
		{
			name: "timezone",
			cmd:  SettingsSetCmd{Timezone: ptr("Europe/Berlin")},
			check: func(t *testing.T, ctx *cli.Context) {
				s, _ := ctx.Store.GetSettings()
				if s.Timezone != "Europe/Berlin" {
					t.Errorf("Timezone = %q, want Europe/Berlin", s.Timezone)
				}
			},
		},
		{
			name:    "invalid timezone",
			cmd:     SettingsSetCmd{Timezone: ptr("Mars/Olympus")},
			wantErr: true,
		},
		{
			name: "theme is normalized",
			cmd:  SettingsSetCmd{Theme: ptr(" Dark ")},
			check: func(t *testing.T, ctx *cli.Context) {
				s, _ := ctx.Store.GetSettings()
				if s.Theme != "dark" {
					t.Errorf("Theme = %q, want dark", s.Theme)
				}
			},
		},
		{
			name:    "unknown theme",
			cmd:     SettingsSetCmd{Theme: ptr("neon")},
			wantErr: true,
		},
		{
			name: "disable notifications",
			cmd:  SettingsSetCmd{Notifications: ptr(false)},
			check: func(t *testing.T, ctx *cli.Context) {
				s, _ := ctx.Store.GetSettings()
				if s.NotificationsEnabled {
					t.Error("NotificationsEnabled = true, want false")
				}
			},
		},
		{
			name: "multiple fields",
			cmd:  SettingsSetCmd{Timezone: ptr("UTC"), Theme: ptr("light"), Notifications: ptr(false)},
			check: func(t *testing.T, ctx *cli.Context) {
				s, _ := ctx.Store.GetSettings()
				if s.Timezone != "UTC" || s.Theme != "light" || s.NotificationsEnabled {
					t.Errorf("unexpected settings: %+v", s)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, _, cleanup := setupTestDB(t)
			defer cleanup()

			err := tt.cmd.Run(ctx)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Run() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.check != nil {
				tt.check(t, ctx)
			}
		})
	}
}

func TestSettingsSetCmd_InvalidLeavesStoreUntouched(t *testing.T) {
	ctx, _, cleanup := setupTestDB(t)
	defer cleanup()

	cmd := &SettingsSetCmd{Theme: ptr("dark"), Timezone: ptr("Nowhere/Else")}
	if err := cmd.Run(ctx); err == nil {
		t.Fatal("expected error for invalid timezone")
	}

	s, err := ctx.Store.GetSettings()
	if err != nil {
		t.Fatalf("GetSettings: %v", err)
	}
	if s.Theme != constants.DefaultTheme {
		t.Errorf("Theme = %q, want unchanged %q", s.Theme, constants.DefaultTheme)
	}
}

func TestSettingsSetCmd_NoChanges(t *testing.T) {
	ctx, out, cleanup := setupTestDB(t)
	defer cleanup()

	if err := (&SettingsSetCmd{}).Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(out.String(), "No changes specified") {
		t.Errorf("unexpected output: %s", out.String())
	}
}
