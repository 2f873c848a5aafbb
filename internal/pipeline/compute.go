// Package pipeline derives everything the UI shows from a snapshot of habits
// and completions. Compute is pure; Runner re-runs it when data changes and
// drops results that a newer run has superseded.
package pipeline

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/julianstephens/habitkit/internal/ledger"
	"github.com/julianstephens/habitkit/internal/lifecycle"
	"github.com/julianstephens/habitkit/internal/models"
	"github.com/julianstephens/habitkit/internal/schedule"
	"github.com/julianstephens/habitkit/internal/stats"
	"github.com/julianstephens/habitkit/internal/streak"
	"github.com/julianstephens/habitkit/internal/utils"
)

// SortKey orders habit rows.
type SortKey string

const (
	SortName    SortKey = "name"
	SortStreak  SortKey = "streak"
	SortCreated SortKey = "created"
)

// SortKeys lists the accepted sort keys.
var SortKeys = []SortKey{SortName, SortStreak, SortCreated}

// Filter narrows the habit rows and the selected-day list. Statistics always
// cover every habit.
type Filter struct {
	Category        string
	IncludeArchived bool
	DueOnly         bool
}

type Inputs struct {
	Habits      []models.Habit
	Completions []models.HabitCompletion
	Filter      Filter
	Sort        SortKey
	Selected    time.Time
	// Today's location is the evaluation zone.
	Today time.Time
}

// Row is a habit normalized for today.
type Row struct {
	Habit          models.Habit
	Due            bool
	Counted        bool
	CompletedToday bool
}

type State struct {
	Generation uint64
	Today      time.Time
	Selected   time.Time
	Rows       []Row
	Day        []stats.DayEntry
	Calendar   [7]stats.CalendarDay
	Summary    stats.Summary
	Categories []string
}

// Compute derives State from in. It never mutates in.
func Compute(in Inputs) State {
	today := utils.StartOfDay(in.Today)
	selected := today
	if !in.Selected.IsZero() {
		selected = utils.StartOfDay(in.Selected.In(today.Location()))
	}

	idx := ledger.NewIndex(in.Completions, today.Location())

	normalized := make([]models.Habit, len(in.Habits))
	for i, h := range in.Habits {
		normalized[i] = streak.Normalize(h, idx, today)
	}

	st := State{
		Today:      today,
		Selected:   selected,
		Calendar:   stats.CalendarWeek(idx.Days(), selected),
		Summary:    stats.Summarize(normalized, idx, today),
		Categories: categories(normalized),
	}

	var visible []models.Habit
	for _, h := range normalized {
		if !in.Filter.matches(h) {
			continue
		}
		visible = append(visible, h)

		due := schedule.IsDue(h, today)
		if in.Filter.DueOnly && !due {
			continue
		}
		st.Rows = append(st.Rows, Row{
			Habit:          h,
			Due:            due,
			Counted:        lifecycle.CountsOnDate(h, today),
			CompletedToday: idx.Has(h.ID, today),
		})
	}
	sortRows(st.Rows, in.Sort)
	st.Day = stats.SelectedDaySnapshot(visible, idx, selected)

	return st
}

func (f Filter) matches(h models.Habit) bool {
	if h.IsArchived && !f.IncludeArchived {
		return false
	}
	if f.Category != "" && !strings.EqualFold(strings.TrimSpace(h.Category), strings.TrimSpace(f.Category)) {
		return false
	}
	return true
}

func sortRows(rows []Row, key SortKey) {
	slices.SortStableFunc(rows, func(a, b Row) int {
		switch key {
		case SortStreak:
			if c := cmp.Compare(b.Habit.CurrentStreak, a.Habit.CurrentStreak); c != 0 {
				return c
			}
		case SortCreated:
			if c := cmp.Compare(a.Habit.CreationDate, b.Habit.CreationDate); c != 0 {
				return c
			}
		}
		if c := cmp.Compare(strings.ToLower(a.Habit.Name), strings.ToLower(b.Habit.Name)); c != 0 {
			return c
		}
		return cmp.Compare(a.Habit.ID, b.Habit.ID)
	})
}

func categories(habits []models.Habit) []string {
	seen := make(map[string]bool)
	var out []string
	for _, h := range habits {
		c := strings.TrimSpace(h.Category)
		if c == "" || seen[strings.ToLower(c)] {
			continue
		}
		seen[strings.ToLower(c)] = true
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b string) int {
		return cmp.Compare(strings.ToLower(a), strings.ToLower(b))
	})
	return out
}

// ParseSortKey accepts a sort key name; empty means SortName.
func ParseSortKey(s string) (SortKey, bool) {
	if s == "" {
		return SortName, true
	}
	k := SortKey(strings.ToLower(strings.TrimSpace(s)))
	return k, slices.Contains(SortKeys, k)
}
