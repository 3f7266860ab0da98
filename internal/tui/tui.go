// Package tui is the interactive terminal table. The model owns the engine
// and drives it from Bubble Tea's update loop, so every engine call happens
// on one goroutine.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/lox/blackjack/internal/engine"
)

// TUIModel represents the Bubble Tea model for the blackjack table
type TUIModel struct {
	engine *engine.Engine
	logger *log.Logger

	// UI components
	logViewport viewport.Model
	actionInput textinput.Model

	// State
	gameLog     []string
	state       engine.RoundState
	handCount   int
	quitting    bool
	focusedPane int // 0 = log, 1 = input

	// Dimensions
	width       int
	height      int
	initialized bool

	// Test mode
	testMode    bool
	capturedLog []string
}

// NewTUIModel creates the table UI for e
func NewTUIModel(e *engine.Engine, logger *log.Logger) *TUIModel {
	return NewTUIModelWithOptions(e, logger, false)
}

// NewTUIModelWithOptions creates the table UI with test mode option. In test
// mode log entries are captured for assertions and viewport updates are
// skipped.
func NewTUIModelWithOptions(e *engine.Engine, logger *log.Logger, testMode bool) *TUIModel {
	if logger == nil {
		logger = log.Default()
	}

	// sized properly when the first WindowSizeMsg arrives
	vp := viewport.New(10, 5)
	vp.SetContent("")

	ti := textinput.New()
	ti.Focus()
	ti.CharLimit = 64
	ti.Width = 64
	ti.PromptStyle = lipgloss.NewStyle().Foreground(accentColor).Bold(true)
	ti.TextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FAFAFA"))
	ti.Prompt = "> "

	m := &TUIModel{
		engine:      e,
		logger:      logger.WithPrefix("tui"),
		logViewport: vp,
		actionInput: ti,
		gameLog:     []string{},
		state:       e.State(),
		handCount:   e.State().HandCount,
		focusedPane: 1,
		testMode:    testMode,
		capturedLog: []string{},
	}
	e.Subscribe(engine.SubscriberFunc(m.onEvent))

	m.AddBoldLogEntry("Welcome to blackjack. Type 'help' for commands.")
	m.addStyledEntry(InfoStyle, fmt.Sprintf("Balance $%d. Place a bet with 'bet <amount>' then 'deal'.", m.state.Balance))
	return m
}

// Init initializes the TUI model
func (m *TUIModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages in the TUI
func (m *TUIModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.logger.Debug("Updating dimensions", "width", m.width, "height", m.height)

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Sequence(tea.ClearScreen, tea.Quit)
		case "tab":
			if m.focusedPane == 0 {
				m.focusedPane = 1
				m.actionInput.Focus()
			} else {
				m.focusedPane = 0
				m.actionInput.Blur()
			}
		case "enter":
			if m.focusedPane == 1 {
				input := m.actionInput.Value()
				m.actionInput.SetValue("")
				if cmd := m.Submit(input); cmd != nil {
					return m, cmd
				}
			}
		case "up", "k":
			if m.focusedPane == 0 {
				m.logViewport.ScrollUp(1)
			}
		case "down", "j":
			if m.focusedPane == 0 {
				m.logViewport.ScrollDown(1)
			}
		case "pgup", "b":
			if m.focusedPane == 0 {
				m.logViewport.HalfPageUp()
			}
		case "pgdown", "f":
			if m.focusedPane == 0 {
				m.logViewport.HalfPageDown()
			}
		case "home", "g":
			if m.focusedPane == 0 {
				m.logViewport.GotoTop()
			}
		case "end", "G":
			if m.focusedPane == 0 {
				m.logViewport.GotoBottom()
			}
		}
	}

	var cmd tea.Cmd
	if m.focusedPane == 1 {
		m.actionInput, cmd = m.actionInput.Update(msg)
		cmds = append(cmds, cmd)
	}
	m.logViewport, cmd = m.logViewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// State returns the last snapshot the UI rendered from
func (m *TUIModel) State() engine.RoundState {
	return m.state
}

// AddLogEntry adds an entry to the game log
func (m *TUIModel) AddLogEntry(entry string) {
	m.appendEntry(entry, entry)
}

// AddBoldLogEntry adds a highlighted entry to the game log
func (m *TUIModel) AddBoldLogEntry(entry string) {
	m.appendEntry(HandInfoStyle.Render(entry), entry)
}

func (m *TUIModel) addStyledEntry(style lipgloss.Style, entry string) {
	m.appendEntry(style.Render(entry), entry)
}

// appendEntry logs rendered for display; test mode captures the plain text
func (m *TUIModel) appendEntry(rendered, plain string) {
	m.gameLog = append(m.gameLog, rendered)

	if m.testMode {
		m.capturedLog = append(m.capturedLog, plain)
		return
	}

	m.logViewport.SetContent(strings.Join(m.gameLog, "\n"))
	if m.logViewport.Height > 0 && m.logViewport.Width > 0 {
		m.logViewport.GotoBottom()
	}
}

// ClearLog clears the game log
func (m *TUIModel) ClearLog() {
	m.gameLog = []string{}
	m.logViewport.SetContent("")
}

// GetCapturedLog returns the captured log entries (test mode only)
func (m *TUIModel) GetCapturedLog() []string {
	if !m.testMode {
		return nil
	}
	result := make([]string, len(m.capturedLog))
	copy(result, m.capturedLog)
	return result
}

// IsTestMode returns whether the TUI is in test mode
func (m *TUIModel) IsTestMode() bool {
	return m.testMode
}
