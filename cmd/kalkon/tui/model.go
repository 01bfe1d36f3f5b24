// Package tui is the interactive terminal front end: an input line that
// previews every edit, a scrollback of committed results and a help
// overlay. All engine calls happen on the bubbletea update loop.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"kalkon/cmd/kalkon/ui"
	"kalkon/internal/config"
	"kalkon/internal/engine"
	"kalkon/internal/logging"
)

// Rows taken by everything except the history view: header, divider,
// preview and input. The footer hint adds one more.
const chromeHeight = 4

// configMsg carries a reloaded config from the watcher.
type configMsg struct {
	cfg *config.Config
}

// Model is the bubbletea model.
type Model struct {
	engine   *engine.Engine
	input    textinput.Model
	viewport viewport.Model
	styles   ui.Styles
	changes  <-chan *config.Config

	showHint bool
	showHelp bool
	help     string

	width  int
	height int
}

// New creates the model. changes may be nil when the config is not watched.
func New(e *engine.Engine, cfg *config.Config, changes <-chan *config.Config) Model {
	theme, ok := ui.ThemeByName(cfg.UI.Theme)
	if !ok {
		logging.UIError("unknown theme %q, using %s", cfg.UI.Theme, theme.Name)
	}

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "expression or :command"
	ti.Focus()

	m := Model{
		engine:   e,
		input:    ti,
		viewport: viewport.New(80, 10),
		changes:  changes,
		showHint: cfg.UI.ShowHelpHint,
		width:    80,
	}
	m.applyTheme(theme)
	m.refreshHistory()
	return m
}

func (m *Model) applyTheme(theme ui.Theme) {
	m.styles = ui.NewStyles(theme)
	m.input.PromptStyle = m.styles.Prompt
	m.input.TextStyle = m.styles.Input
	m.input.PlaceholderStyle = m.styles.Footer
}

// Init starts the cursor blink and, when watching, the config listener.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.waitForConfig())
}

func (m Model) waitForConfig() tea.Cmd {
	if m.changes == nil {
		return nil
	}
	changes := m.changes
	return func() tea.Msg {
		cfg, ok := <-changes
		if !ok {
			return nil
		}
		return configMsg{cfg: cfg}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = max(msg.Width, 1)
		m.height = msg.Height
		m.viewport.Width = m.width
		m.resize()
		m.input.Width = max(m.width-len(m.input.Prompt)-1, 1)
		if m.showHelp {
			m.help = m.renderHelp()
		}
		m.refreshHistory()
		return m, nil

	case configMsg:
		theme, ok := ui.ThemeByName(msg.cfg.UI.Theme)
		if !ok {
			logging.UIError("unknown theme %q in reloaded config", msg.cfg.UI.Theme)
		}
		logging.UI("config reloaded: theme=%s", theme.Name)
		m.applyTheme(theme)
		m.showHint = msg.cfg.UI.ShowHelpHint
		m.resize()
		if m.showHelp {
			m.help = m.renderHelp()
		}
		m.refreshHistory()
		return m, m.waitForConfig()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit

	case tea.KeyEsc:
		if m.showHelp {
			m.showHelp = false
			return m, nil
		}
		return m, tea.Quit

	case tea.KeyF1:
		m.showHelp = !m.showHelp
		if m.showHelp {
			m.help = m.renderHelp()
		}
		return m, nil
	}

	if m.showHelp {
		return m, nil
	}

	switch msg.Type {
	case tea.KeyTab:
		return m, nil

	case tea.KeyEnter:
		m.commit()
		return m, nil

	case tea.KeyCtrlZ:
		expression := m.engine.Pop()
		logging.UIDebug("undo recalled %q", expression)
		m.setInput(expression)
		m.refreshHistory()
		m.engine.IsStackUpdated()
		return m, nil

	case tea.KeyCtrlL:
		logging.UIDebug("history cleared")
		m.engine.Clear()
		m.engine.IsStackUpdated()
		m.refreshHistory()
		return m, nil
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if after := m.input.Value(); after != before {
		m.engine.Evaluate(after, false)
	}
	return m, cmd
}

// commit runs the confirm action. A committed input is cleared, which
// previews the empty line, and the history view is redrawn only when the
// stack changed without an error.
func (m *Model) commit() {
	if m.engine.Evaluate(m.input.Value(), true) {
		logging.UIDebug("committed %q", m.input.Value())
		m.setInput("")
	}
	if m.engine.IsStackUpdated() && !m.engine.IsError() {
		m.refreshHistory()
	}
}

func (m *Model) setInput(s string) {
	m.input.SetValue(s)
	m.input.CursorEnd()
	m.engine.Evaluate(s, false)
}

// resize fits the history view between the header and the input chrome.
func (m *Model) resize() {
	chrome := chromeHeight
	if m.showHint {
		chrome++
	}
	m.viewport.Height = max(m.height-chrome, 1)
}

func (m *Model) refreshHistory() {
	m.viewport.SetContent(m.renderHistory())
	m.viewport.GotoBottom()
}

// renderHistory lists committed slots oldest first so the newest entry
// sits directly above the input line.
func (m Model) renderHistory() string {
	var rows []string
	for i := m.engine.Len() - 1; i >= 1; i-- {
		rows = append(rows, m.styles.Row(m.engine.Expression(i), m.engine.Result(i), m.width, m.styles.Result))
	}
	return strings.Join(rows, "\n")
}

func (m Model) renderHelp() string {
	md := HelpMarkdown(m.engine.Commands(), m.engine.Interpreter().Dialect())
	return renderHelp(md, m.styles.Theme.IsDark, m.width)
}

// previewLine shows the status message if there is one, otherwise the
// live result of what is being typed.
func (m Model) previewLine() string {
	if status := m.engine.Status(); status != "" {
		status = strings.TrimSpace(strings.ReplaceAll(status, "\n", "::"))
		style := m.styles.Status
		if m.engine.IsError() {
			style = m.styles.Error
		}
		return m.styles.Row("", status, m.width, style)
	}
	return m.styles.Row("", m.engine.Result(0), m.width, m.styles.Preview)
}

func (m Model) View() string {
	var b strings.Builder

	header := m.styles.Header.Render("kalkon") + " " +
		m.styles.Badge.Render(fmt.Sprintf("%s %s", m.engine.Type(), m.engine.Format()))
	b.WriteString(header)
	b.WriteString("\n")

	if m.showHelp {
		b.WriteString(m.help)
		return b.String()
	}

	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.styles.RenderDivider(m.width))
	b.WriteString("\n")
	b.WriteString(m.previewLine())
	b.WriteString("\n")
	b.WriteString(m.input.View())
	if m.showHint {
		b.WriteString("\n")
		b.WriteString(m.styles.Footer.Render("F1 help · Ctrl+Z undo · Esc quit"))
	}
	return b.String()
}

// Input returns the current content of the input line.
func (m Model) Input() string { return m.input.Value() }

// Run starts the interactive program and blocks until it exits.
func Run(e *engine.Engine, cfg *config.Config, changes <-chan *config.Config) error {
	p := tea.NewProgram(New(e, cfg, changes), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
