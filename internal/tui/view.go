package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/habitkit/internal/utils"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var content string

	switch m.state {
	case StateHabits:
		content = m.viewHabits()
	case StateDay:
		content = docStyle.Render(m.dayModel.View())
	case StateSettings:
		content = docStyle.Render(m.settingsModel.View())
	case StateAddHabit, StateEditSettings:
		content = docStyle.Render(m.form.View())
	case StateConfirmArchive:
		content = m.viewConfirmArchive()
	}

	var status string
	if m.status != "" {
		status = dangerStyle.Render(m.status)
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.viewTabs(),
		content,
		status,
		m.help.View(m),
	)
}

func (m Model) viewTabs() string {
	var tabs []string
	tabTitles := []string{"Today", "Day", "Settings"}
	for i, title := range tabTitles {
		if m.state == SessionState(i) {
			tabs = append(tabs, activeTabStyle.Render(title))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(title))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) viewHabits() string {
	if m.data.Today.IsZero() {
		return docStyle.Render("Loading...")
	}

	s := m.data.Summary
	header := fmt.Sprintf("%s · %d/%d done · week %d%% · 7 days %d%% · month %d%% · sort %s",
		utils.FormatDay(m.data.Today), s.DoneToday, s.DueToday, s.Week, s.RollingWeek, s.Month, m.sort)
	if m.includeArchived {
		header += " · showing archived"
	}

	return docStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		headerStyle.Render(header),
		m.dayModel.Calendar(),
		m.habitsModel.View(),
	))
}

func (m Model) viewConfirmArchive() string {
	return lipgloss.Place(m.width, m.height-4,
		lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center,
			warningStyle.Render(fmt.Sprintf("Archive %q?", m.archiveName)),
			"Its history stays; it stops counting from today.",
			"",
			"[y] Yes",
			"[n] No",
		),
	)
}
