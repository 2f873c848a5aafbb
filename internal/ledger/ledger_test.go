package ledger

import (
	"errors"
	"testing"
	"time"

	"github.com/julianstephens/habitkit/internal/models"
)

// memStore keeps completions keyed by (habit, day), mirroring the stores' unique key.
type memStore struct {
	rows map[key]models.HabitCompletion
	err  error
}

func newMemStore() *memStore {
	return &memStore{rows: map[key]models.HabitCompletion{}}
}

func (m *memStore) GetAllCompletions() ([]models.HabitCompletion, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []models.HabitCompletion
	for _, c := range m.rows {
		out = append(out, c)
	}
	return out, nil
}

func (m *memStore) AddCompletion(c models.HabitCompletion) error {
	if m.err != nil {
		return m.err
	}
	m.rows[key{c.HabitID, c.CompletionDate}] = c
	return nil
}

func (m *memStore) RemoveCompletion(habitID int64, day int64) error {
	if m.err != nil {
		return m.err
	}
	delete(m.rows, key{habitID, day})
	return nil
}

func mustLoad(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Fatalf("failed to load %s: %v", name, err)
	}
	return loc
}

func TestAdd_RejectsWallClock(t *testing.T) {
	loc := mustLoad(t, "America/New_York")
	l := New(newMemStore(), loc)

	wallClock := time.Date(2026, 4, 2, 15, 4, 0, 0, loc).UnixMilli()
	err := l.Add(models.HabitCompletion{HabitID: 1, CompletionDate: wallClock})
	if !errors.Is(err, ErrNotDayStart) {
		t.Errorf("Add(wall clock) error = %v, want ErrNotDayStart", err)
	}

	// UTC midnight is not New York midnight.
	utcMidnight := time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC).UnixMilli()
	if err := l.RemoveForDay(1, utcMidnight); !errors.Is(err, ErrNotDayStart) {
		t.Errorf("RemoveForDay(utc midnight) error = %v, want ErrNotDayStart", err)
	}
}

func TestAdd_ReplacesSameDay(t *testing.T) {
	store := newMemStore()
	l := New(store, time.UTC)
	day := time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC)

	if err := l.Credit(7, day, day.Add(8*time.Hour)); err != nil {
		t.Fatalf("Credit() error: %v", err)
	}
	if err := l.Credit(7, day.Add(20*time.Hour), day.Add(21*time.Hour)); err != nil {
		t.Fatalf("Credit() error: %v", err)
	}

	all, err := l.All()
	if err != nil {
		t.Fatalf("All() error: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("len(All()) = %d, want 1", len(all))
	}
	if all[0].ID == "" {
		t.Error("expected a generated ID")
	}
	if all[0].CompletionDate != day.UnixMilli() {
		t.Errorf("CompletionDate = %d, want %d", all[0].CompletionDate, day.UnixMilli())
	}
	if all[0].CompletedAt != day.Add(21*time.Hour).UnixMilli() {
		t.Errorf("CompletedAt = %d, want the later action", all[0].CompletedAt)
	}
}

func TestRemoveForDay(t *testing.T) {
	store := newMemStore()
	l := New(store, time.UTC)
	day := time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC)

	if err := l.Credit(1, day, day); err != nil {
		t.Fatalf("Credit() error: %v", err)
	}
	if err := l.Credit(2, day, day); err != nil {
		t.Fatalf("Credit() error: %v", err)
	}
	if err := l.RemoveForDay(1, day.UnixMilli()); err != nil {
		t.Fatalf("RemoveForDay() error: %v", err)
	}

	idx, err := l.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot() error: %v", err)
	}
	if idx.Has(1, day) {
		t.Error("habit 1 should have no completion after removal")
	}
	if !idx.Has(2, day) {
		t.Error("habit 2 completion should be untouched")
	}
}

func TestStoreErrorsPropagate(t *testing.T) {
	store := newMemStore()
	store.err = errors.New("disk full")
	l := New(store, time.UTC)
	day := time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC)

	if err := l.Credit(1, day, day); !errors.Is(err, store.err) {
		t.Errorf("Credit() error = %v, want %v", err, store.err)
	}
	if _, err := l.Snapshot(); !errors.Is(err, store.err) {
		t.Errorf("Snapshot() error = %v, want %v", err, store.err)
	}
}
