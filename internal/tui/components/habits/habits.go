package habits

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/habitkit/internal/pipeline"
	"github.com/julianstephens/habitkit/internal/schedule"
)

type AddHabitMsg struct{}

type ToggleHabitMsg struct {
	ID int64
}

type StepHabitMsg struct {
	ID    int64
	Delta int
}

type ArchiveHabitMsg struct {
	ID   int64
	Name string
}

type RestoreHabitMsg struct {
	ID int64
}

type CycleSortMsg struct{}

type ToggleArchivedMsg struct{}

type Item struct {
	Row pipeline.Row
}

func (i Item) Title() string {
	h := i.Row.Habit
	mark := "○"
	switch {
	case h.IsArchived:
		return "[ARCHIVED] " + h.Name
	case i.Row.CompletedToday:
		mark = "✓"
	case !i.Row.Due:
		mark = "·"
	}
	title := fmt.Sprintf("%s %s", mark, h.Name)
	if h.TargetValue > 1 {
		title += fmt.Sprintf("  %d/%d", h.CurrentValue, h.TargetValue)
	}
	return title
}

func (i Item) Description() string {
	h := i.Row.Habit
	parts := []string{schedule.Describe(h.Recurrence)}
	if h.IsArchived {
		parts = append(parts, "restore with 'r'")
	} else {
		parts = append(parts, fmt.Sprintf("streak %d (best %d)", h.CurrentStreak, h.BestStreak))
	}
	if h.Category != "" {
		parts = append(parts, h.Category)
	}
	if h.HasNotification() {
		parts = append(parts, "⏰ "+h.NotificationTime)
	}
	return strings.Join(parts, " · ")
}

func (i Item) FilterValue() string { return i.Row.Habit.Name }

type KeyMap struct {
	Toggle       key.Binding
	Increment    key.Binding
	Decrement    key.Binding
	Add          key.Binding
	Archive      key.Binding
	Restore      key.Binding
	Sort         key.Binding
	ShowArchived key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Toggle: key.NewBinding(
			key.WithKeys(" ", "space"),
			key.WithHelp("space", "done/undo"),
		),
		Increment: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "step up"),
		),
		Decrement: key.NewBinding(
			key.WithKeys("-"),
			key.WithHelp("-", "step down"),
		),
		Add: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add"),
		),
		Archive: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "archive"),
		),
		Restore: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "restore"),
		),
		Sort: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "sort"),
		),
		ShowArchived: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "show archived"),
		),
	}
}

func (k KeyMap) bindings() []key.Binding {
	return []key.Binding{k.Toggle, k.Increment, k.Decrement, k.Add, k.Archive, k.Restore, k.Sort, k.ShowArchived}
}

type Model struct {
	list list.Model
	keys KeyMap
}

func New(rows []pipeline.Row, width, height int) Model {
	l := list.New(items(rows), list.NewDefaultDelegate(), width, height)
	l.Title = "Habits"
	l.SetShowTitle(false)
	l.SetShowHelp(false)

	keys := DefaultKeyMap()
	l.AdditionalShortHelpKeys = keys.bindings
	l.AdditionalFullHelpKeys = keys.bindings

	return Model{
		list: l,
		keys: keys,
	}
}

func items(rows []pipeline.Row) []list.Item {
	out := make([]list.Item, len(rows))
	for i, r := range rows {
		out[i] = Item{Row: r}
	}
	return out
}

// SetRows replaces the rows, keeping the cursor on the same habit when it is
// still listed.
func (m *Model) SetRows(rows []pipeline.Row) {
	var current int64
	if i, ok := m.list.SelectedItem().(Item); ok {
		current = i.Row.Habit.ID
	}
	m.list.SetItems(items(rows))
	for idx, r := range rows {
		if r.Habit.ID == current {
			m.list.Select(idx)
			break
		}
	}
}

// Selected returns the highlighted row.
func (m Model) Selected() (pipeline.Row, bool) {
	i, ok := m.list.SelectedItem().(Item)
	return i.Row, ok
}

// Filtering reports whether the list's filter input has focus.
func (m Model) Filtering() bool {
	return m.list.FilterState() == list.Filtering
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd

	if msg, ok := msg.(tea.KeyMsg); ok && !m.Filtering() {
		if key.Matches(msg, m.keys.Add) {
			return m, func() tea.Msg { return AddHabitMsg{} }
		}
		if key.Matches(msg, m.keys.Sort) {
			return m, func() tea.Msg { return CycleSortMsg{} }
		}
		if key.Matches(msg, m.keys.ShowArchived) {
			return m, func() tea.Msg { return ToggleArchivedMsg{} }
		}

		if row, ok := m.Selected(); ok {
			h := row.Habit
			switch {
			case key.Matches(msg, m.keys.Toggle):
				if !h.IsArchived {
					return m, func() tea.Msg { return ToggleHabitMsg{ID: h.ID} }
				}
				return m, nil
			case key.Matches(msg, m.keys.Increment):
				if !h.IsArchived {
					return m, func() tea.Msg { return StepHabitMsg{ID: h.ID, Delta: 1} }
				}
				return m, nil
			case key.Matches(msg, m.keys.Decrement):
				if !h.IsArchived {
					return m, func() tea.Msg { return StepHabitMsg{ID: h.ID, Delta: -1} }
				}
				return m, nil
			case key.Matches(msg, m.keys.Archive):
				if !h.IsArchived {
					return m, func() tea.Msg { return ArchiveHabitMsg{ID: h.ID, Name: h.Name} }
				}
				return m, nil
			case key.Matches(msg, m.keys.Restore):
				if h.IsArchived {
					return m, func() tea.Msg { return RestoreHabitMsg{ID: h.ID} }
				}
				return m, nil
			}
		}
	}

	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if len(m.list.Items()) == 0 && !m.Filtering() {
		return "\n  No habits yet.\n  Press 'a' to add one or 'v' to show archived."
	}
	return m.list.View()
}

func (m *Model) SetSize(width, height int) {
	m.list.SetSize(width, height)
}
