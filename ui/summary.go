package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

func (m *MainModel) loadSummaryCmd() tea.Cmd {
	return func() tea.Msg {
		sum, err := m.store.Summary()
		return summaryLoadedMsg{Summary: sum, Error: err}
	}
}

func (m *MainModel) HandleSummaryUpdate(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && (key.Matches(msg, m.keys.Back) || key.Matches(msg, m.keys.Select)) {
		m.state = MainMenuState
	}
	return m, nil
}

func (m *MainModel) RenderSummary() string {
	var sb strings.Builder

	sb.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("#f5c2e7")).Bold(true).Render("Archive summary") + "\n\n")
	if m.message != "" {
		sb.WriteString(m.message + "\n")
		return sb.String()
	}

	label := lipgloss.NewStyle().Width(14)
	value := lipgloss.NewStyle().Foreground(lipgloss.Color("#a6e3a1")).Align(lipgloss.Right).Width(8)
	rows := []struct {
		name  string
		count int64
	}{
		{"Authors", m.summary.Authors},
		{"Posts", m.summary.Posts},
		{"Comments", m.summary.Comments},
		{"Deleted posts", m.summary.Tombstones},
	}
	for _, row := range rows {
		sb.WriteString(label.Render(row.name) + value.Render(fmt.Sprintf("%d", row.count)) + "\n")
	}

	sb.WriteString("\n" + m.help.View(m.keys))
	return sb.String()
}
