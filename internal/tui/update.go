package tui

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/habitkit/internal/actions"
	"github.com/julianstephens/habitkit/internal/constants"
	"github.com/julianstephens/habitkit/internal/logger"
	"github.com/julianstephens/habitkit/internal/pipeline"
	"github.com/julianstephens/habitkit/internal/schedule"
	"github.com/julianstephens/habitkit/internal/tui/components/habits"
	"github.com/julianstephens/habitkit/internal/tui/components/settings"
	"github.com/julianstephens/habitkit/internal/utils"
)

type stateMsg struct {
	state pipeline.State
}

type errMsg struct {
	err error
}

type actionMsg struct {
	op  string
	err error
}

type tickMsg time.Time

// RefreshMsg asks the model to recompute, e.g. after another process changed
// the database.
type RefreshMsg struct{}

func tick() tea.Cmd {
	return tea.Tick(time.Minute, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// refresh recomputes in the background. Superseded runs produce no message.
func (m Model) refresh() tea.Cmd {
	runner := m.runner
	return func() tea.Msg {
		st, err := runner.Refresh()
		if errors.Is(err, pipeline.ErrSuperseded) {
			return nil
		}
		if err != nil {
			return errMsg{err: err}
		}
		return stateMsg{state: st}
	}
}

func (m Model) act(op string, fn func(*actions.Dispatcher) error) tea.Cmd {
	d := m.dispatcher
	return func() tea.Msg {
		return actionMsg{op: op, err: fn(d)}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		h, v := docStyle.GetFrameSize()
		// Tabs, summary header, status and help take roughly eight lines.
		m.habitsModel.SetSize(msg.Width-h, msg.Height-v-8)
		m.dayModel.SetSize(msg.Width-h, msg.Height-v-4)
		m.settingsModel.SetSize(msg.Width-h, msg.Height-v-4)
		return m, nil

	case stateMsg:
		// Results can arrive out of order; keep the newest.
		if msg.state.Generation < m.data.Generation {
			return m, nil
		}
		m.data = msg.state
		m.habitsModel.SetRows(msg.state.Rows)
		m.dayModel.SetState(msg.state)
		return m, nil

	case errMsg:
		m.status = msg.err.Error()
		logger.Error("TUI refresh failed", "error", msg.err)
		return m, nil

	case actionMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("%s failed: %v", msg.op, msg.err)
		} else {
			m.status = ""
		}
		return m, m.refresh()

	case RefreshMsg:
		return m, m.refresh()

	case tickMsg:
		// Past midnight the rows must be re-normalized for the new day.
		if !m.data.Today.IsZero() && !utils.SameDay(m.dispatcher.Today(), m.data.Today) {
			return m, tea.Batch(m.refresh(), tick())
		}
		return m, tick()
	}

	switch m.state {
	case StateAddHabit:
		return m.updateAddHabit(msg)
	case StateEditSettings:
		return m.updateEditSettings(msg)
	case StateConfirmArchive:
		return m.updateConfirmArchive(msg)
	}

	if handled, model, cmd := m.handleComponentMsg(msg); handled {
		return model, cmd
	}

	if msg, ok := msg.(tea.KeyMsg); ok && !m.habitsModel.Filtering() {
		if handled, model, cmd := m.handleGlobalKeys(msg); handled {
			return model, cmd
		}
	}

	var cmd tea.Cmd
	switch m.state {
	case StateHabits:
		m.habitsModel, cmd = m.habitsModel.Update(msg)
	case StateDay:
		m.dayModel, cmd = m.dayModel.Update(msg)
	case StateSettings:
		m.settingsModel, cmd = m.settingsModel.Update(msg)
	}
	return m, cmd
}

func (m Model) handleGlobalKeys(msg tea.KeyMsg) (bool, Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return true, m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return true, m, nil
	case key.Matches(msg, m.keys.Tab):
		m.state = (m.state + 1) % tabCount
		return true, m, nil
	case key.Matches(msg, m.keys.ShiftTab):
		m.state = (m.state + tabCount - 1) % tabCount
		return true, m, nil
	case key.Matches(msg, m.keys.PrevDay):
		return true, m.selectDay(-1), m.refresh()
	case key.Matches(msg, m.keys.NextDay):
		return true, m.selectDay(1), m.refresh()
	case key.Matches(msg, m.keys.Today):
		m.selected = time.Time{}
		m.runner.SetSelected(m.selected)
		return true, m, m.refresh()
	}
	return false, m, nil
}

// selectDay moves the selected day by delta, never past today and never more
// than MaxSelectableAge days back.
func (m Model) selectDay(delta int) Model {
	today := m.dispatcher.Today()
	current := m.selected
	if current.IsZero() {
		current = today
	}

	next := utils.AddDays(current, delta)
	if next.After(today) {
		next = today
	}
	if oldest := utils.AddDays(today, -constants.MaxSelectableAge); next.Before(oldest) {
		next = oldest
	}

	if utils.SameDay(next, today) {
		m.selected = time.Time{}
	} else {
		m.selected = next
	}
	m.runner.SetSelected(m.selected)
	return m
}

// handleComponentMsg reacts to the messages the tab components emit.
func (m Model) handleComponentMsg(msg tea.Msg) (bool, Model, tea.Cmd) {
	switch msg := msg.(type) {
	case habits.ToggleHabitMsg:
		return true, m, m.act("toggle", func(d *actions.Dispatcher) error {
			_, err := d.Toggle(msg.ID)
			return err
		})

	case habits.StepHabitMsg:
		return true, m, m.act("step", func(d *actions.Dispatcher) error {
			_, err := d.Step(msg.ID, msg.Delta)
			return err
		})

	case habits.RestoreHabitMsg:
		return true, m, m.act("restore", func(d *actions.Dispatcher) error {
			_, err := d.Restore(msg.ID)
			return err
		})

	case habits.AddHabitMsg:
		m.habitForm = &HabitFormModel{Schedule: constants.RecurrenceDaily, Target: strconv.Itoa(constants.DefaultTargetValue)}
		m.form = NewHabitForm(m.habitForm, m.settingsModel.Settings().Theme)
		m.state = StateAddHabit
		return true, m, m.form.Init()

	case habits.ArchiveHabitMsg:
		m.archiveID = msg.ID
		m.archiveName = msg.Name
		m.state = StateConfirmArchive
		return true, m, nil

	case habits.CycleSortMsg:
		i := slices.Index(pipeline.SortKeys, m.sort)
		m.sort = pipeline.SortKeys[(i+1)%len(pipeline.SortKeys)]
		m.runner.SetSort(m.sort)
		return true, m, m.refresh()

	case habits.ToggleArchivedMsg:
		m.includeArchived = !m.includeArchived
		m.runner.SetFilter(m.filter())
		return true, m, m.refresh()

	case settings.EditSettingsMsg:
		prefs := m.settingsModel.Settings()
		m.settingsForm = &SettingsFormModel{
			Timezone:             prefs.Timezone,
			Theme:                prefs.Theme,
			NotificationsEnabled: prefs.NotificationsEnabled,
		}
		m.form = NewSettingsForm(m.settingsForm, prefs.Theme)
		m.state = StateEditSettings
		return true, m, m.form.Init()
	}
	return false, m, nil
}

func (m Model) updateForm(msg tea.Msg, back SessionState) (Model, tea.Cmd, bool) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.Type == tea.KeyEsc {
		m.state = back
		return m, nil, false
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}
	switch m.form.State {
	case huh.StateCompleted:
		return m, cmd, true
	case huh.StateAborted:
		m.state = back
	}
	return m, cmd, false
}

func (m Model) updateAddHabit(msg tea.Msg) (tea.Model, tea.Cmd) {
	m, cmd, done := m.updateForm(msg, StateHabits)
	if !done {
		return m, cmd
	}
	m.state = StateHabits
	return m, tea.Batch(cmd, m.submitHabitForm())
}

// submitHabitForm creates the habit described by the add form.
func (m Model) submitHabitForm() tea.Cmd {
	fm := *m.habitForm
	rule := constants.RecurrenceDaily
	if strings.TrimSpace(fm.Schedule) != "" {
		parsed, err := schedule.ParseWeekdayNames(fm.Schedule)
		if err != nil {
			return func() tea.Msg { return actionMsg{op: "add", err: err} }
		}
		rule = parsed
	}
	target := constants.DefaultTargetValue
	if s := strings.TrimSpace(fm.Target); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return func() tea.Msg { return actionMsg{op: "add", err: fmt.Errorf("invalid target %q", s)} }
		}
		target = n
	}

	return m.act("add", func(d *actions.Dispatcher) error {
		_, err := d.CreateHabit(fm.Name, rule, target, strings.TrimSpace(fm.Category), strings.TrimSpace(fm.Reminder))
		return err
	})
}

func (m Model) updateEditSettings(msg tea.Msg) (tea.Model, tea.Cmd) {
	m, cmd, done := m.updateForm(msg, StateSettings)
	if !done {
		return m, cmd
	}
	if err := m.saveSettingsForm(); err != nil {
		m.status = err.Error()
		m.form.State = huh.StateNormal
		return m, cmd
	}
	m.state = StateSettings
	return m, cmd
}

func (m *Model) saveSettingsForm() error {
	prefs := m.settingsModel.Settings()
	prefs.Timezone = strings.TrimSpace(m.settingsForm.Timezone)
	prefs.Theme = m.settingsForm.Theme
	prefs.NotificationsEnabled = m.settingsForm.NotificationsEnabled

	if !utils.ValidateTimezone(prefs.Timezone) {
		return fmt.Errorf("invalid timezone %q", prefs.Timezone)
	}
	if err := m.settings.SaveSettings(prefs); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	ApplyTheme(prefs.Theme)
	m.settingsModel.SetSettings(prefs)
	m.status = ""
	return nil
}

func (m Model) updateConfirmArchive(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(keyMsg, m.keys.Confirm):
		id := m.archiveID
		m.state = StateHabits
		m.archiveID, m.archiveName = 0, ""
		return m, m.act("archive", func(d *actions.Dispatcher) error {
			_, err := d.Archive(id)
			return err
		})
	case key.Matches(keyMsg, m.keys.Cancel):
		m.state = StateHabits
		m.archiveID, m.archiveName = 0, ""
	}
	return m, nil
}
