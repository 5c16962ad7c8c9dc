package ui

import (
	"github.com/agnosto/dm-archiver/logger"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

func (m *MainModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		m.width = msg.Width
		m.height = msg.Height
		switch m.state {
		case AuthorsState, FilterState:
			m.updateAuthorsTable()
		case TombstonesState:
			m.updateTombstonesTable()
		}
		return m, nil
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quit = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help) && m.state != FilterState && !m.idInput.Focused():
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		}
		switch m.state {
		case MainMenuState:
			return m.HandleMainMenuUpdate(msg)
		case SummaryState:
			return m.HandleSummaryUpdate(msg)
		case AuthorsState:
			return m.HandleAuthorsUpdate(msg)
		case FilterState:
			return m.HandleFilterAuthorsUpdate(msg)
		case TombstonesState:
			return m.HandleTombstonesUpdate(msg)
		case DeletePostState, DeleteTombstoneState:
			return m.HandleDeleteUpdate(msg)
		default:
			logger.Logger.Debug().Int("state", int(m.state)).Msg("unhandled ui state")
			return m, nil
		}
	case summaryLoadedMsg:
		m.summary = msg.Summary
		m.message = errorText(msg.Error)
		return m, nil
	case authorsLoadedMsg:
		m.authors = msg.Authors
		m.filteredAuthors = msg.Authors
		m.message = errorText(msg.Error)
		m.updateAuthorsTable()
		return m, nil
	case tombstonesLoadedMsg:
		m.tombstones = msg.Tombstones
		m.message = errorText(msg.Error)
		m.updateTombstonesTable()
		return m, nil
	case deleteDoneMsg:
		if msg.Error != nil {
			logger.Logger.Warn().Err(msg.Error).Msg("delete failed")
			m.message = "Error: " + msg.Error.Error()
			return m, nil
		}
		m.Reset()
		m.message = msg.Message
		return m, nil
	}

	if m.state == DeletePostState || m.state == DeleteTombstoneState {
		var cmd tea.Cmd
		m.idInput, cmd = m.idInput.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *MainModel) View() string {
	switch m.state {
	case MainMenuState:
		return m.RenderMainMenu()
	case SummaryState:
		return m.RenderSummary()
	case AuthorsState:
		return m.RenderAuthorsMenu()
	case FilterState:
		return m.RenderFilterAuthorsMenu()
	case TombstonesState:
		return m.RenderTombstonesMenu()
	case DeletePostState, DeleteTombstoneState:
		return m.RenderDeleteMenu()
	default:
		return "Unknown state"
	}
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return "Error: " + err.Error()
}
