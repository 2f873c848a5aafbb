package pipeline

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/julianstephens/habitkit/internal/logger"
	"github.com/julianstephens/habitkit/internal/storage"
	"github.com/julianstephens/habitkit/internal/utils"
)

// ErrSuperseded is returned by Refresh when a newer run started before this
// one finished. Its result is discarded.
var ErrSuperseded = errors.New("recompute superseded by a newer run")

// Source supplies the snapshots Compute runs on.
type Source interface {
	storage.HabitReader
	storage.CompletionReader
}

type Runner struct {
	src   Source
	clock utils.Clock
	loc   *time.Location

	gen atomic.Uint64

	mu       sync.Mutex
	filter   Filter
	sort     SortKey
	selected time.Time
	state    State

	// OnPublish, when set, receives each published state.
	OnPublish func(State)
}

func NewRunner(src Source, clock utils.Clock, loc *time.Location) *Runner {
	if clock == nil {
		clock = utils.RealClock{}
	}
	if loc == nil {
		loc = time.Local
	}
	return &Runner{src: src, clock: clock, loc: loc, sort: SortName}
}

func (r *Runner) SetFilter(f Filter) {
	r.mu.Lock()
	r.filter = f
	r.mu.Unlock()
}

func (r *Runner) SetSort(key SortKey) {
	r.mu.Lock()
	r.sort = key
	r.mu.Unlock()
}

// SetSelected changes the selected day; the zero time selects today.
func (r *Runner) SetSelected(day time.Time) {
	r.mu.Lock()
	r.selected = day
	r.mu.Unlock()
}

// State returns the most recently published state.
func (r *Runner) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Refresh reads fresh snapshots, recomputes and publishes the result unless a
// newer Refresh has started in the meantime.
func (r *Runner) Refresh() (State, error) {
	gen := r.gen.Add(1)

	r.mu.Lock()
	in := Inputs{Filter: r.filter, Sort: r.sort, Selected: r.selected}
	r.mu.Unlock()
	in.Today = r.clock.Now().In(r.loc)

	habits, err := r.src.GetAllHabits()
	if err != nil {
		return State{}, fmt.Errorf("failed to load habits: %w", err)
	}
	completions, err := r.src.GetAllCompletions()
	if err != nil {
		return State{}, fmt.Errorf("failed to load completions: %w", err)
	}
	in.Habits, in.Completions = habits, completions

	st := Compute(in)
	st.Generation = gen

	r.mu.Lock()
	if r.gen.Load() != gen {
		r.mu.Unlock()
		logger.Debug("Discarding stale recompute", "generation", gen)
		return st, ErrSuperseded
	}
	r.state = st
	publish := r.OnPublish
	r.mu.Unlock()

	if publish != nil {
		publish(st)
	}
	return st, nil
}
