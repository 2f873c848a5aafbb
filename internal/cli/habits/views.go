package habits

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/habitkit/internal/cli"
	"github.com/julianstephens/habitkit/internal/constants"
	"github.com/julianstephens/habitkit/internal/lifecycle"
	"github.com/julianstephens/habitkit/internal/models"
	"github.com/julianstephens/habitkit/internal/pipeline"
	"github.com/julianstephens/habitkit/internal/schedule"
	"github.com/julianstephens/habitkit/internal/stats"
	"github.com/julianstephens/habitkit/internal/streak"
	"github.com/julianstephens/habitkit/internal/utils"
)

var (
	doneStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	missedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	headerStyle = lipgloss.NewStyle().Bold(true)
)

var sparks = []rune("▁▂▃▄▅▆▇█")

// Sparkline renders trend ratios as block characters.
func Sparkline(points [7]stats.TrendPoint) string {
	var b strings.Builder
	for _, p := range points {
		i := int(math.Round(p.Ratio * float64(len(sparks)-1)))
		b.WriteRune(sparks[max(0, min(i, len(sparks)-1))])
	}
	return b.String()
}

type HabitTodayCmd struct {
	Category string `help:"Only show habits in this category."`
	All      bool   `help:"Include habits that are not due today."`
}

func (c *HabitTodayCmd) Run(ctx *cli.Context) error {
	st, err := compute(ctx, pipeline.Filter{Category: c.Category, DueOnly: !c.All}, pipeline.SortName)
	if err != nil {
		return err
	}

	ctx.Println(headerStyle.Render(fmt.Sprintf("Habits for %s (%s):", utils.FormatDay(st.Today), st.Today.Weekday().String()[:3])))
	ctx.Println()
	if len(st.Rows) == 0 {
		ctx.Println("Nothing due today.")
	}
	for _, row := range st.Rows {
		h := row.Habit
		line := fmt.Sprintf("%-7s %-24s streak %d", progressBar(h), h.Name, h.CurrentStreak)
		switch {
		case !row.Due:
			line = mutedStyle.Render(line + " · not due")
		case row.CompletedToday:
			line = doneStyle.Render(line)
		}
		ctx.Println(line)
	}

	s := st.Summary
	ctx.Printf("\nDone: %d/%d · week %d%% · last 7 days %d%% · month %d%%\n",
		s.DoneToday, s.DueToday, s.Week, s.RollingWeek, s.Month)
	return nil
}

type HabitDayCmd struct {
	Date     string `help:"Date in YYYY-MM-DD format (default: today)."`
	Category string `help:"Only show habits in this category."`
}

func (c *HabitDayCmd) Run(ctx *cli.Context) error {
	st, err := computeFor(ctx, pipeline.Filter{Category: c.Category}, pipeline.SortName, c.Date)
	if err != nil {
		return err
	}
	if st.Selected.After(st.Today) {
		return fmt.Errorf("%s is in the future", utils.FormatDay(st.Selected))
	}

	ctx.Println(headerStyle.Render(fmt.Sprintf("Habits on %s (%s):", utils.FormatDay(st.Selected), st.Selected.Weekday().String()[:3])))
	ctx.Println(RenderCalendar(st.Calendar))
	ctx.Println()

	if len(st.Day) == 0 {
		ctx.Println("No habits were due that day.")
		return nil
	}
	for _, e := range st.Day {
		mark, at := "[ ]", ""
		if e.Completed {
			mark = "[x]"
			at = " at " + e.CompletedAt.Format(constants.TimeFormat)
		}
		note := ""
		if !schedule.IsDue(e.Habit, st.Selected) {
			note = " (not scheduled)"
		}
		ctx.Printf("%s %-24s streak %d%s%s\n", mark, e.Habit.Name, e.Streak, at, note)
	}
	return nil
}

// RenderCalendar draws a Monday to Sunday strip, highlighting completed days
// and bracketing the selected one.
func RenderCalendar(week [7]stats.CalendarDay) string {
	cells := make([]string, len(week))
	for i, d := range week {
		label := fmt.Sprintf("%s %2d", d.Date.Weekday().String()[:2], d.Date.Day())
		if d.Selected {
			label = "[" + label + "]"
		} else {
			label = " " + label + " "
		}
		if d.Completed {
			label = doneStyle.Render(label)
		} else {
			label = mutedStyle.Render(label)
		}
		cells[i] = label
	}
	return strings.Join(cells, " ")
}

type HabitLogCmd struct {
	Days  int    `help:"Number of days to show." default:"14"`
	Habit string `help:"Show log for specific habit only."`
}

func (c *HabitLogCmd) Run(ctx *cli.Context) error {
	if c.Days < 1 {
		c.Days = constants.DefaultLogDays
	}
	habits, idx, err := ctx.Snapshot()
	if err != nil {
		return err
	}
	today, err := ctx.Today()
	if err != nil {
		return err
	}

	var selected []models.Habit
	if c.Habit != "" {
		h, err := ctx.ResolveHabit(c.Habit)
		if err != nil {
			return err
		}
		selected = []models.Habit{h}
	} else {
		for _, h := range habits {
			if !h.IsArchived {
				selected = append(selected, h)
			}
		}
	}
	if len(selected) == 0 {
		ctx.Println("No habits found.")
		return nil
	}

	start := utils.AddDays(today, -(c.Days - 1))
	ctx.Printf("Habit log (last %d days):\n\n", c.Days)

	header := fmt.Sprintf("%-20s ", "Habit")
	for d := start; !d.After(today); d = utils.AddDays(d, 1) {
		header += d.Weekday().String()[:1]
	}
	ctx.Println(headerStyle.Render(header))

	for _, h := range selected {
		name := h.Name
		if len(name) > 20 {
			name = name[:17] + "..."
		}
		var cells strings.Builder
		for d := start; !d.After(today); d = utils.AddDays(d, 1) {
			cells.WriteString(logCell(h, idx.Has(h.ID, d), d, today))
		}
		ctx.Printf("%-20s %s\n", name, cells.String())
	}

	ctx.Println()
	ctx.Println(mutedStyle.Render("█ done  · missed  ' ' not scheduled"))
	return nil
}

func logCell(h models.Habit, done bool, day, today time.Time) string {
	switch {
	case done:
		return doneStyle.Render("█")
	case !lifecycle.CountsOnDate(h, day) || !schedule.IsDue(h, day):
		return " "
	case utils.SameDay(day, today):
		return "·"
	default:
		return missedStyle.Render("·")
	}
}

type HabitStatsCmd struct {
	Category string `help:"Only count habits in this category."`
}

func (c *HabitStatsCmd) Run(ctx *cli.Context) error {
	habits, idx, err := ctx.Snapshot()
	if err != nil {
		return err
	}
	today, err := ctx.Today()
	if err != nil {
		return err
	}

	var in []models.Habit
	for _, h := range habits {
		if c.Category != "" && !strings.EqualFold(h.Category, c.Category) {
			continue
		}
		in = append(in, streak.Normalize(h, idx, today))
	}
	habits = in

	s := stats.Summarize(habits, idx, today)
	ctx.Println(headerStyle.Render("Completion"))
	ctx.Printf("  This week:    %3d%%\n", s.Week)
	ctx.Printf("  Last 7 days:  %3d%%\n", s.RollingWeek)
	ctx.Printf("  This month:   %3d%%\n", s.Month)
	ctx.Printf("  Today:        %d/%d\n", s.DoneToday, s.DueToday)
	ctx.Println()
	ctx.Printf("Trend %s → %s  %s\n", utils.FormatDay(s.Trend[0].Date), utils.FormatDay(s.Trend[6].Date), Sparkline(s.Trend))
	ctx.Printf("Best current streak: %d · best ever: %d\n", s.BestCurrentStreak, s.BestEverStreak)
	return nil
}
