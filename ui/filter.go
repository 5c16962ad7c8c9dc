package ui

import (
	"strings"

	"github.com/agnosto/dm-archiver/db/repository"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// HandleFilterAuthorsUpdate narrows the author table while the user types
func (m *MainModel) HandleFilterAuthorsUpdate(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			m.filteredAuthors = m.authors
			m.filterInput = ""
			m.updateAuthorsTable()
			m.state = AuthorsState
			return m, nil
		case "enter":
			m.applyFilter()
			m.state = AuthorsState
			m.filterInput = ""
			return m, nil
		case "backspace":
			if len(m.filterInput) > 0 {
				m.filterInput = m.filterInput[:len(m.filterInput)-1]
				m.applyFilter()
			}
		default:
			if msg.Type == tea.KeyRunes {
				m.filterInput += string(msg.Runes)
				m.applyFilter()
			}
			return m, nil
		}
	}
	return m, nil
}

func (m *MainModel) applyFilter() {
	needle := strings.ToLower(m.filterInput)
	var filtered []repository.AuthorStats
	for _, a := range m.authors {
		if strings.Contains(strings.ToLower(a.Handle), needle) || strings.Contains(strings.ToLower(a.Name), needle) {
			filtered = append(filtered, a)
		}
	}
	m.filteredAuthors = filtered
	m.updateAuthorsTable()
}

func (m *MainModel) RenderFilterAuthorsMenu() string {
	var sb strings.Builder
	sb.WriteString("Filter: " + lipgloss.NewStyle().Foreground(lipgloss.Color("#89dceb")).Render(m.filterInput) + "\n")
	sb.WriteString(m.table.View() + "\n")
	sb.WriteString("Press Enter to apply, Esc to clear.\n")
	return sb.String()
}
