// Package day renders the calendar strip, the headline percentages and the
// habits of the selected day.
package day

import (
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/habitkit/internal/constants"
	"github.com/julianstephens/habitkit/internal/pipeline"
	"github.com/julianstephens/habitkit/internal/schedule"
	"github.com/julianstephens/habitkit/internal/stats"
	"github.com/julianstephens/habitkit/internal/utils"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			MarginBottom(1)

	cellStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240"))

	selectedCellStyle = cellStyle.
				BorderForeground(lipgloss.Color("205")).
				Bold(true)

	doneStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Width(14)
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Bold(true)
)

var sparks = []rune("▁▂▃▄▅▆▇█")

type Model struct {
	state  pipeline.State
	width  int
	height int
}

func New(width, height int) Model {
	return Model{width: width, height: height}
}

func (m *Model) SetState(st pipeline.State) {
	m.state = st
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

// Calendar renders the Monday to Sunday strip around the selected day.
func (m Model) Calendar() string {
	cells := make([]string, len(m.state.Calendar))
	for i, d := range m.state.Calendar {
		label := fmt.Sprintf("%s\n%2d", d.Date.Weekday().String()[:3], d.Date.Day())
		if d.Completed {
			label = doneStyle.Render(label)
		} else if d.Date.After(m.state.Today) {
			label = mutedStyle.Render(label)
		}
		style := cellStyle
		if d.Selected {
			style = selectedCellStyle
		}
		cells[i] = style.Render(label)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cells...)
}

// Summary renders today's counts, the window percentages and the trend.
func (m Model) Summary() string {
	s := m.state.Summary
	row := func(label, value string) string {
		return labelStyle.Render(label) + " " + valueStyle.Render(value)
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		row("Today", fmt.Sprintf("%d/%d done", s.DoneToday, s.DueToday)),
		row("This week", fmt.Sprintf("%d%%", s.Week)),
		row("Last 7 days", fmt.Sprintf("%d%%  %s", s.RollingWeek, Sparkline(s.Trend))),
		row("This month", fmt.Sprintf("%d%%", s.Month)),
		row("Best streak", fmt.Sprintf("%d (ever %d)", s.BestCurrentStreak, s.BestEverStreak)),
	)
}

// Sparkline renders trend ratios as block characters.
func Sparkline(points [constants.TrendWindowDays]stats.TrendPoint) string {
	var b strings.Builder
	for _, p := range points {
		i := int(math.Round(p.Ratio * float64(len(sparks)-1)))
		b.WriteRune(sparks[max(0, min(i, len(sparks)-1))])
	}
	return b.String()
}

// Entries renders the habits that counted on the selected day.
func (m Model) Entries() string {
	if len(m.state.Day) == 0 {
		return mutedStyle.Render("No habits were due that day.")
	}
	lines := make([]string, 0, len(m.state.Day))
	for _, e := range m.state.Day {
		mark := "○"
		at := ""
		if e.Completed {
			mark = "✓"
			if e.CompletedAt != nil {
				at = " at " + e.CompletedAt.Format(constants.TimeFormat)
			}
		}
		line := fmt.Sprintf("%s %-24s streak %d%s", mark, e.Habit.Name, e.Streak, at)
		if !schedule.IsDue(e.Habit, m.state.Selected) {
			line += " (not scheduled)"
		}
		if e.Completed {
			line = doneStyle.Render(line)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (m Model) View() string {
	if m.state.Today.IsZero() {
		return "Loading..."
	}

	title := utils.FormatDay(m.state.Selected)
	if utils.SameDay(m.state.Selected, m.state.Today) {
		title += " (today)"
	}

	hint := mutedStyle.Render("←/→ change day · t today")
	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(title),
		m.Calendar(),
		"",
		m.Entries(),
		"",
		hint,
	)
}

func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
