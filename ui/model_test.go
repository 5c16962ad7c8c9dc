package ui

import (
	"errors"
	"testing"

	"github.com/agnosto/dm-archiver/db/models"
	"github.com/agnosto/dm-archiver/db/repository"
	dbservice "github.com/agnosto/dm-archiver/db/service"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	summary    dbservice.Summary
	authors    []repository.AuthorStats
	deletedID  int64
	cascade    bool
	deleteErr  error
	tombstoned int64
}

func (f *fakeStore) Summary() (dbservice.Summary, error) { return f.summary, nil }

func (f *fakeStore) AuthorStats() ([]repository.AuthorStats, error) { return f.authors, nil }

func (f *fakeStore) Tombstones() ([]models.DeletedPost, error) {
	return []models.DeletedPost{{PostID: 99, AuthorHandle: "bob", Comment: "gone"}}, nil
}

func (f *fakeStore) DeletePost(postID int64, cascade bool) (int64, error) {
	f.deletedID, f.cascade = postID, cascade
	return 2, f.deleteErr
}

func (f *fakeStore) DeleteTombstone(postID int64) error {
	f.tombstoned = postID
	return nil
}

func keyPress(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// send applies msg and runs the returned command once, feeding its message back.
func send(t *testing.T, m *MainModel, msg tea.Msg) {
	t.Helper()
	_, cmd := m.Update(msg)
	if cmd == nil {
		return
	}
	if next := cmd(); next != nil {
		if _, isBatch := next.(tea.BatchMsg); !isBatch {
			m.Update(next)
		}
	}
}

func selectOption(t *testing.T, m *MainModel, option string) {
	t.Helper()
	for i, opt := range m.options {
		if opt == option {
			m.cursorPos = i
			send(t, m, keyPress("enter"))
			return
		}
	}
	t.Fatalf("no option %q", option)
}

func TestMainMenu_Navigation(t *testing.T) {
	m := NewMainModel(&fakeStore{}, "test")

	m.Update(keyPress("down"))
	assert.Equal(t, 1, m.cursorPos)
	m.Update(keyPress("k"))
	m.Update(keyPress("k"))
	assert.Equal(t, len(m.options)-1, m.cursorPos)
}

func TestSummary(t *testing.T) {
	store := &fakeStore{summary: dbservice.Summary{Authors: 2, Posts: 5, Comments: 3, Tombstones: 1}}
	m := NewMainModel(store, "test")

	selectOption(t, m, optionSummary)
	assert.Equal(t, SummaryState, m.state)
	assert.Equal(t, store.summary, m.summary)
	assert.Contains(t, m.View(), "Deleted posts")

	m.Update(keyPress("esc"))
	assert.Equal(t, MainMenuState, m.state)
}

func TestAuthors_Filter(t *testing.T) {
	store := &fakeStore{authors: []repository.AuthorStats{
		{Handle: "alice", Name: "Alice", PostCount: 3},
		{Handle: "bob", Name: "Bob", PostCount: 1},
	}}
	m := NewMainModel(store, "test")

	selectOption(t, m, optionAuthors)
	require.Equal(t, AuthorsState, m.state)
	assert.Len(t, m.table.Rows(), 2)

	m.Update(keyPress("/"))
	require.Equal(t, FilterState, m.state)
	m.Update(keyPress("bo"))
	assert.Len(t, m.table.Rows(), 1)
	assert.Equal(t, "bob", m.table.Rows()[0][0])

	m.Update(keyPress("enter"))
	assert.Equal(t, AuthorsState, m.state)
	m.Update(keyPress("r"))
	assert.Len(t, m.table.Rows(), 2)
}

func TestDeletePost(t *testing.T) {
	store := &fakeStore{}
	m := NewMainModel(store, "test")

	selectOption(t, m, optionDeletePost)
	require.Equal(t, DeletePostState, m.state)
	assert.True(t, m.cascade)

	m.Update(keyPress("42"))
	m.Update(keyPress("tab"))
	assert.False(t, m.cascade)

	send(t, m, keyPress("enter"))
	assert.Equal(t, int64(42), store.deletedID)
	assert.False(t, store.cascade)
	assert.Equal(t, MainMenuState, m.state)
	assert.Contains(t, m.message, "Deleted post 42")
}

func TestDeletePost_RejectsNonNumericID(t *testing.T) {
	store := &fakeStore{}
	m := NewMainModel(store, "test")

	selectOption(t, m, optionDeletePost)
	m.Update(keyPress("abc"))
	send(t, m, keyPress("enter"))

	assert.Zero(t, store.deletedID)
	assert.Equal(t, DeletePostState, m.state)
	assert.Contains(t, m.message, "numeric")
}

func TestDeletePost_Error(t *testing.T) {
	store := &fakeStore{deleteErr: errors.New("record not found")}
	m := NewMainModel(store, "test")

	selectOption(t, m, optionDeletePost)
	m.Update(keyPress("7"))
	send(t, m, keyPress("enter"))

	assert.Equal(t, DeletePostState, m.state)
	assert.Contains(t, m.message, "record not found")
}

func TestDeleteTombstone(t *testing.T) {
	store := &fakeStore{}
	m := NewMainModel(store, "test")

	selectOption(t, m, optionDeleteTombstone)
	m.Update(keyPress("99"))
	send(t, m, keyPress("enter"))

	assert.Equal(t, int64(99), store.tombstoned)
	assert.Equal(t, MainMenuState, m.state)
}

func TestTombstonesTable(t *testing.T) {
	m := NewMainModel(&fakeStore{}, "test")

	selectOption(t, m, optionTombstones)
	require.Equal(t, TombstonesState, m.state)
	require.Len(t, m.table.Rows(), 1)
	assert.Equal(t, "99", m.table.Rows()[0][0])
}
