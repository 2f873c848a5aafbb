package storage

import (
	"errors"

	"github.com/julianstephens/habitkit/internal/models"
)

var (
	// ErrNotFound is returned when a habit lookup matches nothing.
	ErrNotFound = errors.New("not found")
	// ErrNotInitialized is returned by Load before Init has created the database.
	ErrNotInitialized = errors.New("storage not initialized")
)

type HabitReader interface {
	GetHabit(id int64) (models.Habit, error)
	// GetHabitByName matches case-insensitively and returns the oldest match.
	GetHabitByName(name string) (models.Habit, error)
	// GetAllHabits returns every habit, archived ones included, ordered by ID.
	GetAllHabits() ([]models.Habit, error)
}

type HabitWriter interface {
	// InsertOrUpdateHabit inserts a habit with ID 0 and returns the assigned ID;
	// otherwise it updates the row with that ID, inserting it if missing.
	InsertOrUpdateHabit(models.Habit) (int64, error)
	UpdateHabit(models.Habit) error
	DeleteAllHabits() error
}

type CompletionReader interface {
	GetAllCompletions() ([]models.HabitCompletion, error)
}

// CompletionWriter is the write side of the completion ledger. There is at most
// one completion per (habit, day); adding another replaces it.
type CompletionWriter interface {
	AddCompletion(models.HabitCompletion) error
	RemoveCompletion(habitID int64, day int64) error
}

// Tx is the set of habit and completion operations available both on a store and
// inside a transaction.
type Tx interface {
	HabitReader
	HabitWriter
	CompletionReader
	CompletionWriter
}

type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	// Settings
	GetSettings() (models.Settings, error)
	SaveSettings(models.Settings) error

	Tx
	// WithTx runs fn in a single transaction. Any error returned by fn rolls the
	// transaction back and is returned unchanged.
	WithTx(fn func(Tx) error) error

	// Utils
	GetConfigPath() string
}
