package ui

import (
	"strings"

	"github.com/agnosto/dm-archiver/config"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type ConfigWizardModel struct {
	configPath string
	inputs     [6]textinput.Model
	cursor     int
	message    string
	saved      bool
}

const (
	wizardConsumerKey = iota
	wizardConsumerSecret
	wizardAccessToken
	wizardAccessTokenSecret
	wizardScheduleTime
	wizardConnector
)

func NewConfigWizardModel(configPath string) *ConfigWizardModel {
	m := &ConfigWizardModel{configPath: configPath}
	placeholders := [...]string{
		wizardConsumerKey:       "Consumer key",
		wizardConsumerSecret:    "Consumer secret",
		wizardAccessToken:       "Access token",
		wizardAccessTokenSecret: "Access token secret",
		wizardScheduleTime:      "Daily run time (HH:MM)",
		wizardConnector:         "Database (e.g. sqlite:///archive.db)",
	}
	for i := range m.inputs {
		m.inputs[i] = textinput.New()
		m.inputs[i].Placeholder = placeholders[i]
	}
	for _, i := range []int{wizardConsumerSecret, wizardAccessTokenSecret} {
		m.inputs[i].EchoMode = textinput.EchoPassword
		m.inputs[i].EchoCharacter = '•'
	}
	m.inputs[0].Focus()
	return m
}

// Saved reports whether the wizard wrote the config file.
func (m *ConfigWizardModel) Saved() bool { return m.saved }

func (m *ConfigWizardModel) Init() tea.Cmd { return textinput.Blink }

func (m *ConfigWizardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			m.message = "Setup cancelled."
			return m, tea.Quit
		case "enter":
			if m.cursor < len(m.inputs)-1 {
				m.focus(m.cursor + 1)
				return m, nil
			}
			if err := m.save(); err != nil {
				m.message = err.Error()
				return m, nil
			}
			m.saved = true
			return m, tea.Quit
		case "tab":
			m.focus((m.cursor + 1) % len(m.inputs))
			return m, nil
		case "shift+tab":
			m.focus((m.cursor - 1 + len(m.inputs)) % len(m.inputs))
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.inputs[m.cursor], cmd = m.inputs[m.cursor].Update(msg)
	return m, cmd
}

func (m *ConfigWizardModel) focus(i int) {
	m.cursor = i
	for j := range m.inputs {
		if j == i {
			m.inputs[j].Focus()
		} else {
			m.inputs[j].Blur()
		}
	}
}

func (m *ConfigWizardModel) save() error {
	value := func(i int) string { return strings.TrimSpace(m.inputs[i].Value()) }

	cfg := config.CreateDefaultConfig()
	cfg.Twitter.ConsumerKey = value(wizardConsumerKey)
	cfg.Twitter.ConsumerSecret = value(wizardConsumerSecret)
	cfg.Twitter.AccessToken = value(wizardAccessToken)
	cfg.Twitter.AccessTokenSecret = value(wizardAccessTokenSecret)
	cfg.Schedule.Time = value(wizardScheduleTime)
	cfg.Database.Connector = value(wizardConnector)

	if err := cfg.Validate(); err != nil {
		return err
	}
	return config.SaveConfig(cfg, m.configPath)
}

func (m *ConfigWizardModel) View() string {
	var sb strings.Builder
	sb.WriteString("First-time setup: create " + m.configPath + "\n\n")
	for i := range m.inputs {
		sb.WriteString(m.inputs[i].View() + "\n")
	}
	sb.WriteString("\n")
	if m.message != "" {
		sb.WriteString(m.message + "\n")
	}
	sb.WriteString("Press Enter to continue, Tab to switch, Esc to quit. Other settings can be edited in the file later.\n")
	return sb.String()
}
