package settings

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/habitkit/internal/models"
)

type EditSettingsMsg struct{}

type Model struct {
	settings models.Settings
	location string
	edit     key.Binding
	width    int
	height   int
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			MarginBottom(1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Width(25)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255")).
			Bold(true)

	sectionStyle = lipgloss.NewStyle().
			MarginTop(1).
			MarginBottom(1)
)

// New builds the settings view. location names the zone days are evaluated in,
// which may differ from the stored preference when a flag or config overrides it.
func New(settings models.Settings, location string, width, height int) Model {
	return Model{
		settings: settings,
		location: location,
		edit: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit settings"),
		),
		width:  width,
		height: height,
	}
}

func (m *Model) SetSettings(settings models.Settings) {
	m.settings = settings
}

func (m Model) Settings() models.Settings {
	return m.settings
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && key.Matches(msg, m.edit) {
		return m, func() tea.Msg { return EditSettingsMsg{} }
	}
	return m, nil
}

func (m Model) View() string {
	if m.width == 0 {
		return ""
	}

	row := func(label, value string) string {
		return fmt.Sprintf("%s %s", labelStyle.Render(label), valueStyle.Render(value))
	}

	general := lipgloss.JoinVertical(
		lipgloss.Left,
		row("Timezone:", m.settings.Timezone),
		row("Evaluating days in:", m.location),
		row("Theme:", m.settings.Theme),
	)
	notifications := row("Reminders Enabled:", fmt.Sprintf("%t", m.settings.NotificationsEnabled))

	helpText := lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Italic(true).
		MarginTop(2).
		Render("Press 'e' to edit settings. Timezone changes apply on restart.")

	content := lipgloss.JoinVertical(lipgloss.Left,
		sectionStyle.Render(titleStyle.Render("General Settings")+"\n"+general),
		sectionStyle.Render(titleStyle.Render("Notification Settings")+"\n"+notifications),
		helpText,
	)

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Left,
		lipgloss.Top,
		lipgloss.NewStyle().Padding(2, 4).Render(content),
	)
}

func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
