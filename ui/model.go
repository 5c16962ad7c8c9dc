package ui

import (
	"github.com/agnosto/dm-archiver/db/models"
	"github.com/agnosto/dm-archiver/db/repository"
	dbservice "github.com/agnosto/dm-archiver/db/service"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type AppState int

const (
	MainMenuState AppState = iota
	SummaryState
	AuthorsState
	FilterState
	TombstonesState
	DeletePostState
	DeleteTombstoneState
)

const (
	optionSummary         = "Show summary"
	optionAuthors         = "Show posts per author"
	optionTombstones      = "Show deleted posts"
	optionDeletePost      = "Delete a post"
	optionDeleteTombstone = "Delete a deleted-post record"
	optionQuit            = "Quit"
)

// ReportStore is the part of the archive the report menu reads and deletes from.
type ReportStore interface {
	Summary() (dbservice.Summary, error)
	AuthorStats() ([]repository.AuthorStats, error)
	Tombstones() ([]models.DeletedPost, error)
	DeletePost(postID int64, cascade bool) (int64, error)
	DeleteTombstone(postID int64) error
}

type MainModel struct {
	version         string
	store           ReportStore
	quit            bool
	cursorPos       int
	selected        string
	options         []string
	state           AppState
	summary         dbservice.Summary
	authors         []repository.AuthorStats
	filteredAuthors []repository.AuthorStats
	filterInput     string
	tombstones      []models.DeletedPost
	table           table.Model
	idInput         textinput.Model
	cascade         bool
	keys            keyMap
	help            help.Model
	width           int
	height          int
	message         string
}

type summaryLoadedMsg struct {
	Summary dbservice.Summary
	Error   error
}

type authorsLoadedMsg struct {
	Authors []repository.AuthorStats
	Error   error
}

type tombstonesLoadedMsg struct {
	Tombstones []models.DeletedPost
	Error      error
}

type deleteDoneMsg struct {
	Message string
	Error   error
}

type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Help    key.Binding
	Quit    key.Binding
	Filter  key.Binding
	Reset   key.Binding
	Back    key.Binding
	Select  key.Binding
	Cascade key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Filter},
		{k.Down, k.Back},
		{k.Help, k.Reset},
		{k.Quit, k.Select},
	}
}

var defaultKeyMap = keyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "move up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "move down"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "toggle help"),
	),
	Filter: key.NewBinding(
		key.WithKeys("/"),
		key.WithHelp("/", "filter"),
	),
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c"),
		key.WithHelp("ctrl+c", "quit"),
	),
	Reset: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "reset list"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "back to menu"),
	),
	Select: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "select"),
	),
	Cascade: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "toggle comment cascade"),
	),
}

func (m *MainModel) Init() tea.Cmd {
	return tea.EnterAltScreen
}

func NewMainModel(store ReportStore, version string) *MainModel {
	idInput := textinput.New()
	idInput.Placeholder = "Post id"
	idInput.CharLimit = 20

	return &MainModel{
		version: version,
		store:   store,
		options: []string{
			optionSummary,
			optionAuthors,
			optionTombstones,
			optionDeletePost,
			optionDeleteTombstone,
			optionQuit,
		},
		cursorPos: 0,
		keys:      defaultKeyMap,
		help:      help.New(),
		idInput:   idInput,
		state:     MainMenuState,
	}
}

func (m *MainModel) Reset() {
	m.cursorPos = 0
	m.selected = ""
	m.state = MainMenuState
	m.filterInput = ""
	m.idInput.Reset()
	m.idInput.Blur()
}
