package backup

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/habitkit/internal/models"
	"github.com/julianstephens/habitkit/internal/storage/sqlite"
)

var stamp = time.Date(2026, 2, 11, 9, 30, 0, 0, time.Local)

// setupDB creates an initialized habit database holding the named habits.
func setupDB(t *testing.T, names ...string) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "habitkit.db")
	store := sqlite.NewStore(dbPath)
	if err := store.Init(); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	defer store.Close()

	for _, name := range names {
		_, err := store.InsertOrUpdateHabit(models.Habit{
			Name: name, Recurrence: "daily", TargetValue: 1,
			CreationDate: stamp.UnixMilli(), LastProgressDate: stamp.UnixMilli(),
		})
		if err != nil {
			t.Fatalf("failed to insert habit: %v", err)
		}
	}
	return dbPath
}

func habitNames(t *testing.T, dbPath string) []string {
	t.Helper()
	store := sqlite.NewStore(dbPath)
	if err := store.Load(); err != nil {
		t.Fatalf("failed to load store: %v", err)
	}
	defer store.Close()

	habits, err := store.GetAllHabits()
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, h := range habits {
		names = append(names, h.Name)
	}
	return names
}

func fixedManager(dbPath string, at time.Time) *Manager {
	m := NewManager(dbPath)
	m.now = func() time.Time { return at }
	return m
}

func TestCreate(t *testing.T) {
	dbPath := setupDB(t, "Read")
	m := fixedManager(dbPath, stamp)

	path, err := m.Create()
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if filepath.Dir(path) != filepath.Join(filepath.Dir(dbPath), BackupDirName) {
		t.Errorf("backup written to %s, want under %s", path, m.Dir())
	}
	if want := "habitkit-20260211-093000.db"; filepath.Base(path) != want {
		t.Errorf("backup name = %s, want %s", filepath.Base(path), want)
	}
	if names := habitNames(t, path); len(names) != 1 || names[0] != "Read" {
		t.Errorf("backup habits = %v", names)
	}

	// Same second: counter suffix.
	second, err := m.Create()
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(second) != "habitkit-20260211-093000-1.db" {
		t.Errorf("second backup name = %s", filepath.Base(second))
	}
}

func TestCreate_MissingDatabase(t *testing.T) {
	m := NewManager(filepath.Join(t.TempDir(), "missing.db"))
	if _, err := m.Create(); err == nil {
		t.Error("expected error for missing database")
	}
}

func TestCreate_RejectsForeignDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "other.db")
	if err := os.WriteFile(path, []byte("not sqlite at all, just text"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := NewManager(path).Create(); err == nil {
		t.Error("expected error backing up a non-habit file")
	}
}

func TestParseName(t *testing.T) {
	tests := []struct {
		name string
		ok   bool
	}{
		{"habitkit-20260211-093000.db", true},
		{"habitkit-20260211-093000-12.db", true},
		{"habitkit-20260211-093000-x.db", false},
		{"habitkit-20260211.db", false},
		{"otherapp-20260211-093000.db", false},
		{"habitkit-20260211-093000.sqlite", false},
	}
	for _, tt := range tests {
		ts, ok := parseName(tt.name)
		if ok != tt.ok {
			t.Errorf("parseName(%q) ok = %v, want %v", tt.name, ok, tt.ok)
		}
		if ok && !ts.Equal(stamp) {
			t.Errorf("parseName(%q) = %s, want %s", tt.name, ts, stamp)
		}
	}
}

func TestListAndRotate(t *testing.T) {
	dbPath := setupDB(t, "Read")
	m := NewManager(dbPath)

	if backups, err := m.List(); err != nil || len(backups) != 0 {
		t.Fatalf("List() before any backup = %v, %v", backups, err)
	}

	for i := 0; i < MaxBackups+3; i++ {
		at := stamp.Add(time.Duration(i) * time.Hour)
		m.now = func() time.Time { return at }
		if _, err := m.Create(); err != nil {
			t.Fatalf("Create() #%d error: %v", i, err)
		}
	}
	// Stray files are ignored.
	if err := os.WriteFile(filepath.Join(m.Dir(), "notes.txt"), []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}

	backups, err := m.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(backups) != MaxBackups {
		t.Fatalf("len(List()) = %d, want %d", len(backups), MaxBackups)
	}
	newest := stamp.Add(time.Duration(MaxBackups+2) * time.Hour)
	if !backups[0].Timestamp.Equal(newest) {
		t.Errorf("newest backup = %s, want %s", backups[0].Timestamp, newest)
	}
	for i := 1; i < len(backups); i++ {
		if backups[i].Timestamp.After(backups[i-1].Timestamp) {
			t.Fatalf("List() not sorted newest first at %d", i)
		}
	}
	if backups[0].Size == 0 {
		t.Error("backup size not reported")
	}
}

func TestRestore(t *testing.T) {
	dbPath := setupDB(t, "Read")
	m := fixedManager(dbPath, stamp)

	backupPath, err := m.Create()
	if err != nil {
		t.Fatal(err)
	}

	// Change the live database after the backup.
	store := sqlite.NewStore(dbPath)
	if err := store.Load(); err != nil {
		t.Fatal(err)
	}
	if err := store.DeleteAllHabits(); err != nil {
		t.Fatal(err)
	}
	store.Close()

	m.now = func() time.Time { return stamp.Add(time.Minute) }
	safety, err := m.Restore(backupPath)
	if err != nil {
		t.Fatalf("Restore() error: %v", err)
	}
	if safety == "" {
		t.Fatal("Restore() did not snapshot the current database")
	}
	if names := habitNames(t, dbPath); len(names) != 1 || names[0] != "Read" {
		t.Errorf("restored habits = %v, want [Read]", names)
	}
	if names := habitNames(t, safety); len(names) != 0 {
		t.Errorf("safety snapshot habits = %v, want none", names)
	}
	if _, err := os.Stat(dbPath + ".restore.tmp"); !os.IsNotExist(err) {
		t.Error("temporary restore file left behind")
	}
}

func TestRestore_Invalid(t *testing.T) {
	dbPath := setupDB(t)
	m := NewManager(dbPath)

	if _, err := m.Restore(filepath.Join(t.TempDir(), "missing.db")); err == nil {
		t.Error("expected error for missing backup")
	}

	bogus := filepath.Join(t.TempDir(), "bogus.db")
	if err := os.WriteFile(bogus, []byte("garbage"), 0600); err != nil {
		t.Fatal(err)
	}
	_, err := m.Restore(bogus)
	if err == nil || !strings.Contains(err.Error(), "invalid") {
		t.Errorf("Restore(bogus) error = %v", err)
	}
}
