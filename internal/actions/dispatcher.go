// Package actions funnels user actions into the streak engine and the
// completion ledger. Each mutating action runs in a single store transaction.
package actions

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/julianstephens/habitkit/internal/ledger"
	"github.com/julianstephens/habitkit/internal/lifecycle"
	"github.com/julianstephens/habitkit/internal/logger"
	"github.com/julianstephens/habitkit/internal/models"
	"github.com/julianstephens/habitkit/internal/notifier"
	"github.com/julianstephens/habitkit/internal/storage"
	"github.com/julianstephens/habitkit/internal/streak"
	"github.com/julianstephens/habitkit/internal/utils"
)

// ErrArchived is returned when progress is recorded against an archived habit.
var ErrArchived = errors.New("habit is archived")

// Store is the part of storage.Provider the dispatcher writes through.
type Store interface {
	storage.Tx
	WithTx(fn func(storage.Tx) error) error
}

type Dispatcher struct {
	mu      sync.Mutex
	store   Store
	engine  *streak.Engine
	intents *notifier.Queue

	// OnChange, when set, runs after every committed action.
	OnChange func()
}

func New(store Store, engine *streak.Engine, intents *notifier.Queue) *Dispatcher {
	if engine == nil {
		engine = streak.NewEngine(nil, nil)
	}
	if intents == nil {
		intents = notifier.NewQueue()
	}
	return &Dispatcher{store: store, engine: engine, intents: intents}
}

// Engine returns the streak engine the dispatcher evaluates "today" with.
func (d *Dispatcher) Engine() *streak.Engine {
	return d.engine
}

// Intents returns the queue reminder intents are published to.
func (d *Dispatcher) Intents() *notifier.Queue {
	return d.intents
}

func (d *Dispatcher) changed() {
	if d.OnChange != nil {
		d.OnChange()
	}
}

// SetProgress records value as today's progress without clamping.
func (d *Dispatcher) SetProgress(habitID int64, value int) (models.Habit, error) {
	return d.progress(habitID, "set", func(e *streak.Engine, h models.Habit) streak.Transition {
		return e.SetProgress(h, value)
	})
}

// Step moves today's progress by delta, clamped to [0, target].
func (d *Dispatcher) Step(habitID int64, delta int) (models.Habit, error) {
	return d.progress(habitID, "step", func(e *streak.Engine, h models.Habit) streak.Transition {
		return e.Step(h, delta)
	})
}

// Complete sets progress to the target.
func (d *Dispatcher) Complete(habitID int64) (models.Habit, error) {
	return d.progress(habitID, "complete", func(e *streak.Engine, h models.Habit) streak.Transition {
		return e.SetProgress(h, h.TargetValue)
	})
}

// Undo clears today's progress.
func (d *Dispatcher) Undo(habitID int64) (models.Habit, error) {
	return d.progress(habitID, "undo", func(e *streak.Engine, h models.Habit) streak.Transition {
		return e.SetProgress(h, 0)
	})
}

// Toggle completes an incomplete habit and undoes a complete one.
func (d *Dispatcher) Toggle(habitID int64) (models.Habit, error) {
	return d.progress(habitID, "toggle", func(e *streak.Engine, h models.Habit) streak.Transition {
		if h.IsComplete() {
			return e.SetProgress(h, 0)
		}
		return e.SetProgress(h, h.TargetValue)
	})
}

func (d *Dispatcher) progress(habitID int64, op string, apply func(*streak.Engine, models.Habit) streak.Transition) (models.Habit, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.engine.Now()
	eng := d.engine.At(now)
	today := utils.StartOfDay(now)
	loc := d.engine.Location()
	var out models.Habit
	err := d.store.WithTx(func(tx storage.Tx) error {
		habit, err := tx.GetHabit(habitID)
		if err != nil {
			return fmt.Errorf("failed to get habit %d: %w", habitID, err)
		}
		if habit.IsArchived {
			return fmt.Errorf("%q: %w", habit.Name, ErrArchived)
		}

		book := ledger.New(tx, loc)
		idx, err := book.Snapshot()
		if err != nil {
			return fmt.Errorf("failed to load completions: %w", err)
		}

		tr := apply(eng, eng.NormalizeForDisplay(habit, idx))
		if err := tx.UpdateHabit(tr.Habit); err != nil {
			return err
		}

		// Today's ledger row follows the new state even when the habit's flags
		// and the ledger had drifted apart. An existing row keeps its completed_at.
		switch {
		case tr.BecameComplete && !idx.Has(habitID, today):
			if err := book.Credit(habitID, today, now); err != nil {
				return fmt.Errorf("failed to record completion: %w", err)
			}
		case !tr.BecameComplete:
			if err := book.RemoveForDay(habitID, utils.DayStartMillis(today)); err != nil {
				return fmt.Errorf("failed to remove completion: %w", err)
			}
		}

		out = tr.Habit
		return nil
	})
	if err != nil {
		logger.Error("Progress update failed", "op", op, "habit_id", habitID, "error", err)
		return models.Habit{}, err
	}

	logger.Debug("Progress updated", "op", op, "habit_id", habitID,
		"value", out.CurrentValue, "streak", out.CurrentStreak)
	d.changed()
	return out, nil
}

// SaveHabit validates and persists habit, creating it when ID is zero, then
// publishes exactly one reminder intent.
func (d *Dispatcher) SaveHabit(habit models.Habit) (models.Habit, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	saved, err := d.save(habit)
	if err != nil {
		return models.Habit{}, err
	}
	d.changed()
	return saved, nil
}

func (d *Dispatcher) save(habit models.Habit) (models.Habit, error) {
	habit.Name = strings.TrimSpace(habit.Name)
	if err := habit.Validate(); err != nil {
		return models.Habit{}, err
	}

	err := d.store.WithTx(func(tx storage.Tx) error {
		id, err := tx.InsertOrUpdateHabit(habit)
		if err != nil {
			return err
		}
		habit.ID = id
		return nil
	})
	if err != nil {
		logger.Error("Failed to save habit", "name", habit.Name, "error", err)
		return models.Habit{}, err
	}

	d.intents.Publish(intentFor(habit))
	logger.Debug("Habit saved", "habit_id", habit.ID, "archived", habit.IsArchived)
	return habit, nil
}

// intentFor schedules reminders for live habits with a notification time and
// cancels everything else, archived habits included.
func intentFor(habit models.Habit) notifier.Intent {
	if habit.HasNotification() && !habit.IsArchived {
		return notifier.Schedule(habit)
	}
	return notifier.Cancel(habit.ID)
}

// CreateHabit builds a new habit created now and saves it.
func (d *Dispatcher) CreateHabit(name, rule string, target int, category, notify string) (models.Habit, error) {
	now := d.engine.Now()
	return d.SaveHabit(models.Habit{
		Name:             name,
		Category:         strings.TrimSpace(category),
		Recurrence:       rule,
		TargetValue:      target,
		CreationDate:     utils.ToMillis(now),
		LastProgressDate: utils.DayStartMillis(now),
		NotificationTime: strings.TrimSpace(notify),
	})
}

// Archive stops habit from counting from the start of today onward.
func (d *Dispatcher) Archive(habitID int64) (models.Habit, error) {
	return d.modify(habitID, func(h models.Habit) (models.Habit, error) {
		if h.IsArchived {
			return h, fmt.Errorf("%q: %w", h.Name, ErrArchived)
		}
		return lifecycle.Archive(h, d.engine.Now()), nil
	})
}

// Restore clears archival so the habit counts again on every day since creation.
func (d *Dispatcher) Restore(habitID int64) (models.Habit, error) {
	return d.modify(habitID, func(h models.Habit) (models.Habit, error) {
		if !h.IsArchived {
			return h, fmt.Errorf("habit %q is not archived", h.Name)
		}
		return lifecycle.Restore(h), nil
	})
}

func (d *Dispatcher) modify(habitID int64, fn func(models.Habit) (models.Habit, error)) (models.Habit, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	habit, err := d.store.GetHabit(habitID)
	if err != nil {
		return models.Habit{}, fmt.Errorf("failed to get habit %d: %w", habitID, err)
	}
	habit, err = fn(habit)
	if err != nil {
		return models.Habit{}, err
	}
	saved, err := d.save(habit)
	if err != nil {
		return models.Habit{}, err
	}
	d.changed()
	return saved, nil
}

// Reset deletes every habit and completion and cancels their reminders.
func (d *Dispatcher) Reset() (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var ids []int64
	err := d.store.WithTx(func(tx storage.Tx) error {
		habits, err := tx.GetAllHabits()
		if err != nil {
			return err
		}
		for _, h := range habits {
			ids = append(ids, h.ID)
		}
		return tx.DeleteAllHabits()
	})
	if err != nil {
		logger.Error("Reset failed", "error", err)
		return 0, err
	}

	for _, id := range ids {
		d.intents.Publish(notifier.Cancel(id))
	}
	logger.Info("All habits deleted", "count", len(ids))
	d.changed()
	return len(ids), nil
}

// Today returns the engine's current day.
func (d *Dispatcher) Today() time.Time {
	return d.engine.Today()
}
