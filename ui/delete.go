package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// HandleDeleteUpdate reads a post id and deletes the post or its tombstone
func (m *MainModel) HandleDeleteUpdate(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Back):
			m.Reset()
			return m, nil
		case key.Matches(msg, m.keys.Cascade):
			if m.state == DeletePostState {
				m.cascade = !m.cascade
			}
			return m, nil
		case key.Matches(msg, m.keys.Select):
			postID, err := strconv.ParseInt(strings.TrimSpace(m.idInput.Value()), 10, 64)
			if err != nil {
				m.message = "Please enter a numeric post id."
				return m, nil
			}
			return m, m.deleteCmd(m.state, postID, m.cascade)
		}
	}

	var cmd tea.Cmd
	m.idInput, cmd = m.idInput.Update(msg)
	return m, cmd
}

func (m *MainModel) deleteCmd(state AppState, postID int64, cascade bool) tea.Cmd {
	return func() tea.Msg {
		if state == DeleteTombstoneState {
			if err := m.store.DeleteTombstone(postID); err != nil {
				return deleteDoneMsg{Error: err}
			}
			return deleteDoneMsg{Message: fmt.Sprintf("Deleted record of deleted post %d.", postID)}
		}

		removed, err := m.store.DeletePost(postID, cascade)
		if err != nil {
			return deleteDoneMsg{Error: err}
		}
		return deleteDoneMsg{Message: fmt.Sprintf("Deleted post %d and %d orphaned comments.", postID, removed)}
	}
}

func (m *MainModel) RenderDeleteMenu() string {
	var sb strings.Builder

	title := "Delete a post"
	if m.state == DeleteTombstoneState {
		title = "Delete a deleted-post record"
	}
	sb.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("#f5c2e7")).Bold(true).Render(title) + "\n\n")
	sb.WriteString(m.idInput.View() + "\n\n")

	if m.state == DeletePostState {
		cascade := "no"
		if m.cascade {
			cascade = "yes"
		}
		sb.WriteString("Also delete comments no other post uses: " + lipgloss.NewStyle().Foreground(lipgloss.Color("#89dceb")).Render(cascade) + "\n\n")
	}
	if m.message != "" {
		sb.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("#f38ba8")).Render(m.message) + "\n\n")
	}
	sb.WriteString("Press Enter to delete, Tab to toggle cascade, Esc to go back.\n")
	return sb.String()
}
