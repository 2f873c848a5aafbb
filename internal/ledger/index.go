package ledger

import (
	"sort"
	"time"

	"github.com/julianstephens/habitkit/internal/models"
	"github.com/julianstephens/habitkit/internal/utils"
)

type key struct {
	habitID int64
	day     int64
}

// DaySet is the set of days (local-midnight epoch ms) with at least one completion.
type DaySet map[int64]struct{}

// Contains reports whether day's calendar day is in the set.
func (s DaySet) Contains(day time.Time) bool {
	_, ok := s[utils.DayStartMillis(day)]
	return ok
}

// Index is an immutable view over a completion snapshot.
type Index struct {
	loc     *time.Location
	byKey   map[key]models.HabitCompletion
	byHabit map[int64][]models.HabitCompletion
	perDay  map[int64]int
}

// NewIndex builds an index in loc. Completion dates are re-normalized to loc's
// local midnight; when two completions land on the same habit and day the later
// one wins.
func NewIndex(completions []models.HabitCompletion, loc *time.Location) *Index {
	if loc == nil {
		loc = time.Local
	}
	idx := &Index{
		loc:     loc,
		byKey:   make(map[key]models.HabitCompletion, len(completions)),
		byHabit: make(map[int64][]models.HabitCompletion),
		perDay:  make(map[int64]int),
	}

	for _, c := range completions {
		c.CompletionDate = utils.DayStartMillis(utils.FromMillis(c.CompletionDate, loc))
		k := key{c.HabitID, c.CompletionDate}
		if prev, ok := idx.byKey[k]; ok && prev.CompletedAt > c.CompletedAt {
			continue
		}
		idx.byKey[k] = c
	}

	for k, c := range idx.byKey {
		idx.byHabit[k.habitID] = append(idx.byHabit[k.habitID], c)
		idx.perDay[k.day]++
	}
	for _, list := range idx.byHabit {
		sort.Slice(list, func(i, j int) bool {
			return list[i].CompletionDate < list[j].CompletionDate
		})
	}
	return idx
}

func (idx *Index) dayKey(day time.Time) int64 {
	return utils.DayStartMillis(day.In(idx.loc))
}

// Location returns the zone the index was built in.
func (idx *Index) Location() *time.Location {
	return idx.loc
}

// Has reports whether habitID has a completion on day.
func (idx *Index) Has(habitID int64, day time.Time) bool {
	_, ok := idx.byKey[key{habitID, idx.dayKey(day)}]
	return ok
}

// Get returns habitID's completion on day, if any.
func (idx *Index) Get(habitID int64, day time.Time) (models.HabitCompletion, bool) {
	c, ok := idx.byKey[key{habitID, idx.dayKey(day)}]
	return c, ok
}

// ForHabit returns habitID's completions ordered by day.
func (idx *Index) ForHabit(habitID int64) []models.HabitCompletion {
	list := idx.byHabit[habitID]
	out := make([]models.HabitCompletion, len(list))
	copy(out, list)
	return out
}

// CountOn returns how many habits have a completion on day.
func (idx *Index) CountOn(day time.Time) int {
	return idx.perDay[idx.dayKey(day)]
}

// Days returns the set of days with at least one completion across all habits.
func (idx *Index) Days() DaySet {
	set := make(DaySet, len(idx.perDay))
	for d := range idx.perDay {
		set[d] = struct{}{}
	}
	return set
}

// Len returns the number of distinct (habit, day) completions.
func (idx *Index) Len() int {
	return len(idx.byKey)
}
