package ui

import (
	"strings"

	"github.com/agnosto/dm-archiver/config"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// HandleMainMenuUpdate handles updates when in the MainMenuState
func (m *MainModel) HandleMainMenuUpdate(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Up):
			m.cursorPos = (m.cursorPos - 1 + len(m.options)) % len(m.options)
		case key.Matches(msg, m.keys.Down):
			m.cursorPos = (m.cursorPos + 1) % len(m.options)
		case key.Matches(msg, m.keys.Select):
			m.selected = m.options[m.cursorPos]
			return m.handleMainMenuSelection()
		}
	}
	return m, nil
}

// handleMainMenuSelection processes the selected option in the main menu
func (m *MainModel) handleMainMenuSelection() (tea.Model, tea.Cmd) {
	m.message = ""
	switch m.selected {
	case optionSummary:
		m.state = SummaryState
		return m, m.loadSummaryCmd()
	case optionAuthors:
		m.state = AuthorsState
		return m, m.loadAuthorsCmd()
	case optionTombstones:
		m.state = TombstonesState
		return m, m.loadTombstonesCmd()
	case optionDeletePost:
		m.state = DeletePostState
		m.cascade = true
		m.idInput.Reset()
		m.idInput.Focus()
		return m, textinput.Blink
	case optionDeleteTombstone:
		m.state = DeleteTombstoneState
		m.idInput.Reset()
		m.idInput.Focus()
		return m, textinput.Blink
	case optionQuit:
		m.quit = true
		return m, tea.Quit
	}
	return m, nil
}

// RenderMainMenu renders the main menu view
func (m *MainModel) RenderMainMenu() string {
	var sb strings.Builder

	configPath := config.GetConfigPath()
	styledConfigPath := lipgloss.NewStyle().Foreground(lipgloss.Color("#f5c2e7")).Render(configPath)
	welcomeMessage := "Config path: " + styledConfigPath + "\n" + "dm-archiver report tool " + m.version
	sb.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("#a6e3a1")).Render(welcomeMessage) + "\n\n")

	if m.message != "" {
		sb.WriteString(m.message + "\n\n")
	}

	sb.WriteString("What would you like to do? " + "\n")

	for i, opt := range m.options {
		if i == m.cursorPos {
			sb.WriteString("> " + lipgloss.NewStyle().Foreground(lipgloss.Color("#89dceb")).Render(opt) + "\n")
		} else {
			sb.WriteString("  " + opt + "\n")
		}
	}

	return sb.String()
}
