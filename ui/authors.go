package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

func (m *MainModel) loadAuthorsCmd() tea.Cmd {
	return func() tea.Msg {
		stats, err := m.store.AuthorStats()
		return authorsLoadedMsg{Authors: stats, Error: err}
	}
}

// HandleAuthorsUpdate handles updates when in the AuthorsState
func (m *MainModel) HandleAuthorsUpdate(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Reset):
			m.filteredAuthors = m.authors
			m.filterInput = ""
			m.updateAuthorsTable()
			return m, nil
		case key.Matches(msg, m.keys.Up):
			m.table.MoveUp(1)
			return m, nil
		case key.Matches(msg, m.keys.Down):
			m.table.MoveDown(1)
			return m, nil
		case key.Matches(msg, m.keys.Filter):
			m.state = FilterState
			return m, nil
		case key.Matches(msg, m.keys.Back):
			m.state = MainMenuState
			m.cursorPos = 0
			return m, nil
		}
	}
	return m, nil
}

func (m *MainModel) RenderAuthorsMenu() string {
	var sb strings.Builder

	sb.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("#f5c2e7")).Render("Posts per author") + "\n")
	if m.message != "" {
		sb.WriteString(m.message + "\n")
	}
	sb.WriteString(m.table.View() + "\n")
	helpView := m.help.View(m.keys)
	height := m.height - strings.Count(helpView, "\n") - m.table.Height() - 8
	if height < 0 {
		height = 0
	}

	sb.WriteString("\n" + strings.Repeat("\n", height) + helpView)

	return sb.String()
}

func (m *MainModel) updateAuthorsTable() {
	columns := []table.Column{
		{Title: "Handle", Width: 20},
		{Title: "Name", Width: 24},
		{Title: "Posts", Width: 8},
		{Title: "Name changes", Width: 14},
		{Title: "Handle changes", Width: 16},
	}

	rows := make([]table.Row, len(m.filteredAuthors))
	for i, a := range m.filteredAuthors {
		rows[i] = table.Row{
			a.Handle,
			a.Name,
			fmt.Sprintf("%d", a.PostCount),
			fmt.Sprintf("%d", a.NameCount),
			fmt.Sprintf("%d", a.HandleCount),
		}
	}

	m.table = newTable(columns, rows, m.height-10)
}

func newTable(columns []table.Column, rows []table.Row, height int) table.Model {
	if height < 5 {
		height = 5
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(height),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("#cba6f7")).
		Bold(false)
	t.SetStyles(s)

	return t
}
