package stats

import (
	"time"

	"github.com/julianstephens/habitkit/internal/ledger"
	"github.com/julianstephens/habitkit/internal/models"
)

// Summary bundles the headline figures shown by the CLI and TUI.
type Summary struct {
	Week        int
	RollingWeek int
	Month       int
	Trend       [7]TrendPoint
	DueToday    int
	DoneToday   int
	// BestCurrentStreak is the longest live streak among the habits.
	BestCurrentStreak int
	BestEverStreak    int
}

// Summarize computes the window percentages, the trend ending today and today's
// due and done counts. Habits should already be normalized for today.
func Summarize(habits []models.Habit, idx *ledger.Index, today time.Time) Summary {
	s := Summary{
		Week:        WeekPercentage(habits, idx, today),
		RollingWeek: RollingWeekPercentage(habits, idx, today),
		Month:       MonthPercentage(habits, idx, today),
		Trend:       WeeklyTrend(habits, idx, today),
	}
	s.DueToday, s.DoneToday = dayCounts(habits, idx, today)

	for _, h := range habits {
		if h.IsArchived {
			continue
		}
		s.BestCurrentStreak = max(s.BestCurrentStreak, h.CurrentStreak)
		s.BestEverStreak = max(s.BestEverStreak, h.BestStreak)
	}
	return s
}
