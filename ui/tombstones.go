package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

func (m *MainModel) loadTombstonesCmd() tea.Cmd {
	return func() tea.Msg {
		tombstones, err := m.store.Tombstones()
		return tombstonesLoadedMsg{Tombstones: tombstones, Error: err}
	}
}

func (m *MainModel) HandleTombstonesUpdate(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Up):
			m.table.MoveUp(1)
		case key.Matches(msg, m.keys.Down):
			m.table.MoveDown(1)
		case key.Matches(msg, m.keys.Back):
			m.state = MainMenuState
		}
	}
	return m, nil
}

func (m *MainModel) RenderTombstonesMenu() string {
	var sb strings.Builder
	sb.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("#f5c2e7")).Render("Deleted posts") + "\n")
	if m.message != "" {
		sb.WriteString(m.message + "\n")
	}
	sb.WriteString(m.table.View() + "\n\n")
	sb.WriteString(m.help.View(m.keys))
	return sb.String()
}

func (m *MainModel) updateTombstonesTable() {
	columns := []table.Column{
		{Title: "Post id", Width: 20},
		{Title: "Handle", Width: 20},
		{Title: "Comment", Width: 30},
		{Title: "Recorded", Width: 17},
	}

	rows := make([]table.Row, len(m.tombstones))
	for i, d := range m.tombstones {
		rows[i] = table.Row{
			fmt.Sprintf("%d", d.PostID),
			d.AuthorHandle,
			d.Comment,
			d.CreatedAt.Local().Format("2006-01-02 15:04"),
		}
	}

	m.table = newTable(columns, rows, m.height-8)
}
