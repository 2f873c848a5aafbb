// Package ledger mediates every read and write of completion events. A
// completion is keyed by (habit, day) where day is the local-midnight epoch
// milliseconds of the credited calendar day.
package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/habitkit/internal/models"
	"github.com/julianstephens/habitkit/internal/storage"
	"github.com/julianstephens/habitkit/internal/utils"
)

// ErrNotDayStart is returned when a caller passes a wall-clock timestamp where a
// local day start is required.
var ErrNotDayStart = errors.New("timestamp is not a local day start")

// Store is the persistence the ledger writes through. Both storage.Provider and
// storage.Tx satisfy it.
type Store interface {
	storage.CompletionReader
	storage.CompletionWriter
}

type Ledger struct {
	store Store
	loc   *time.Location
}

func New(store Store, loc *time.Location) *Ledger {
	if loc == nil {
		loc = time.Local
	}
	return &Ledger{store: store, loc: loc}
}

func (l *Ledger) checkDayStart(ms int64) error {
	if !utils.IsDayStart(ms, l.loc) {
		return fmt.Errorf("%w: %s in %s", ErrNotDayStart, utils.FromMillis(ms, l.loc).Format(time.RFC3339), l.loc)
	}
	return nil
}

// Add records a completion, replacing any existing one for the same habit and day.
// An empty ID is assigned a fresh UUID.
func (l *Ledger) Add(c models.HabitCompletion) error {
	if err := l.checkDayStart(c.CompletionDate); err != nil {
		return err
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return l.store.AddCompletion(c)
}

// Credit records that habitID reached its target on day at the wall-clock time at.
func (l *Ledger) Credit(habitID int64, day time.Time, at time.Time) error {
	return l.Add(models.HabitCompletion{
		HabitID:        habitID,
		CompletionDate: utils.DayStartMillis(day.In(l.loc)),
		CompletedAt:    utils.ToMillis(at),
	})
}

// RemoveForDay deletes habitID's completion for the day starting at dayStart.
func (l *Ledger) RemoveForDay(habitID int64, dayStart int64) error {
	if err := l.checkDayStart(dayStart); err != nil {
		return err
	}
	return l.store.RemoveCompletion(habitID, dayStart)
}

// All returns every completion. Order carries no meaning.
func (l *Ledger) All() ([]models.HabitCompletion, error) {
	return l.store.GetAllCompletions()
}

// Snapshot indexes the current completions.
func (l *Ledger) Snapshot() (*Index, error) {
	all, err := l.All()
	if err != nil {
		return nil, err
	}
	return NewIndex(all, l.loc), nil
}
