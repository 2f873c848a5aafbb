package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/habitkit/internal/actions"
	"github.com/julianstephens/habitkit/internal/models"
	"github.com/julianstephens/habitkit/internal/pipeline"
	"github.com/julianstephens/habitkit/internal/tui/components/day"
	"github.com/julianstephens/habitkit/internal/tui/components/habits"
	"github.com/julianstephens/habitkit/internal/tui/components/settings"
)

type SessionState int

const (
	StateHabits SessionState = iota
	StateDay
	StateSettings
	StateAddHabit
	StateEditSettings
	StateConfirmArchive
)

// tabCount is the number of states reachable with tab.
const tabCount = 3

// SettingsStore reads and writes stored preferences.
type SettingsStore interface {
	GetSettings() (models.Settings, error)
	SaveSettings(models.Settings) error
}

type HabitFormModel struct {
	Name     string
	Schedule string
	Target   string
	Category string
	Reminder string
}

type SettingsFormModel struct {
	Timezone             string
	Theme                string
	NotificationsEnabled bool
}

type Model struct {
	dispatcher *actions.Dispatcher
	runner     *pipeline.Runner
	settings   SettingsStore

	state         SessionState
	keys          KeyMap
	help          help.Model
	habitsModel   habits.Model
	dayModel      day.Model
	settingsModel settings.Model
	form          *huh.Form
	habitForm     *HabitFormModel
	settingsForm  *SettingsFormModel

	data            pipeline.State
	selected        time.Time // zero means today
	sort            pipeline.SortKey
	includeArchived bool

	archiveID   int64
	archiveName string
	status      string // last error, shown under the content
	quitting    bool
	width       int
	height      int
}

func NewModel(d *actions.Dispatcher, runner *pipeline.Runner, store SettingsStore) Model {
	prefs, err := store.GetSettings()
	if err != nil {
		prefs = models.DefaultSettings()
	}
	models.ApplyDefaultSettings(&prefs)

	m := Model{
		dispatcher:    d,
		runner:        runner,
		settings:      store,
		state:         StateHabits,
		keys:          DefaultKeyMap(),
		help:          help.New(),
		habitsModel:   habits.New(nil, 0, 0),
		dayModel:      day.New(0, 0),
		settingsModel: settings.New(prefs, d.Engine().Location().String(), 0, 0),
		sort:          pipeline.SortName,
	}
	m.runner.SetSort(m.sort)
	m.runner.SetFilter(m.filter())
	return m
}

func (m Model) filter() pipeline.Filter {
	return pipeline.Filter{IncludeArchived: m.includeArchived}
}

func (m Model) ShortHelp() []key.Binding {
	keys := []key.Binding{m.keys.Tab, m.keys.PrevDay, m.keys.NextDay, m.keys.Quit, m.keys.Help}
	if m.state == StateHabits {
		hk := habits.DefaultKeyMap()
		keys = append(keys, hk.Toggle, hk.Increment, hk.Decrement, hk.Add, hk.Archive)
	}
	return keys
}

func (m Model) FullHelp() [][]key.Binding {
	global := []key.Binding{m.keys.Tab, m.keys.ShiftTab, m.keys.Quit, m.keys.Help}
	days := []key.Binding{m.keys.PrevDay, m.keys.NextDay, m.keys.Today}

	var acts []key.Binding
	switch m.state {
	case StateHabits:
		hk := habits.DefaultKeyMap()
		acts = []key.Binding{hk.Toggle, hk.Increment, hk.Decrement, hk.Add, hk.Archive, hk.Restore, hk.Sort, hk.ShowArchived}
	case StateSettings:
		acts = []key.Binding{key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit settings"))}
	}

	return [][]key.Binding{global, days, acts}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.refresh(), tick())
}
