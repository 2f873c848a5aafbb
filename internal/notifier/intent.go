package notifier

import (
	"context"
	"sync"

	"github.com/julianstephens/habitkit/internal/models"
)

// Action tells the reminder backend what to do with a habit's reminder.
type Action string

const (
	ActionSchedule Action = "schedule"
	ActionCancel   Action = "cancel"
)

// Intent is a one-shot request to schedule or cancel a habit reminder.
type Intent struct {
	Action  Action
	HabitID int64
	Habit   models.Habit // zero for cancels
}

// Schedule builds a schedule intent for habit.
func Schedule(habit models.Habit) Intent {
	return Intent{Action: ActionSchedule, HabitID: habit.ID, Habit: habit}
}

// Cancel builds a cancel intent for habitID.
func Cancel(habitID int64) Intent {
	return Intent{Action: ActionCancel, HabitID: habitID}
}

// Queue is an unbounded FIFO of intents. Each published intent is handed to
// exactly one Next caller; once taken it is gone.
type Queue struct {
	mu      sync.Mutex
	pending []Intent
	ready   chan struct{}
}

func NewQueue() *Queue {
	return &Queue{ready: make(chan struct{}, 1)}
}

// Publish appends intent without blocking.
func (q *Queue) Publish(intent Intent) {
	q.mu.Lock()
	q.pending = append(q.pending, intent)
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// TryNext takes the oldest pending intent, if any.
func (q *Queue) TryNext() (Intent, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return Intent{}, false
	}
	intent := q.pending[0]
	q.pending[0] = Intent{}
	q.pending = q.pending[1:]
	if len(q.pending) > 0 {
		// wake another waiter for the remainder
		select {
		case q.ready <- struct{}{}:
		default:
		}
	}
	return intent, true
}

// Next blocks until an intent is available or ctx is done.
func (q *Queue) Next(ctx context.Context) (Intent, error) {
	for {
		if intent, ok := q.TryNext(); ok {
			return intent, nil
		}
		select {
		case <-ctx.Done():
			return Intent{}, ctx.Err()
		case <-q.ready:
		}
	}
}

// Len returns the number of intents not yet consumed.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
