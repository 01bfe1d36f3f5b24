package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"kalkon/internal/config"
	"kalkon/internal/engine"
)

func newTestModel(t *testing.T) Model {
	t.Helper()
	e, err := engine.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })

	m := New(e, config.DefaultConfig(), nil)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 60, Height: 20})
	return next.(Model)
}

func typeText(t *testing.T, m Model, s string) Model {
	t.Helper()
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	return next.(Model)
}

func press(t *testing.T, m Model, k tea.KeyType) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(tea.KeyMsg{Type: k})
	return next.(Model), cmd
}

func TestModel_PreviewAndCommit(t *testing.T) {
	m := newTestModel(t)

	m = typeText(t, m, "2+2")
	assert.Equal(t, "2+2", m.Input())
	assert.Equal(t, "4", m.engine.Result(0))
	assert.NotContains(t, m.renderHistory(), "2+2", "preview is not history")

	m, _ = press(t, m, tea.KeyEnter)
	assert.Equal(t, "", m.Input())
	assert.Equal(t, "2+2", m.engine.Expression(1))
	assert.Contains(t, m.renderHistory(), "2+2")
	assert.Contains(t, m.View(), "2+2")
}

func TestModel_ErrorKeepsInput(t *testing.T) {
	m := newTestModel(t)

	m = typeText(t, m, "2+")
	m, _ = press(t, m, tea.KeyEnter)
	assert.Equal(t, "2+", m.Input())
	assert.True(t, m.engine.IsError())
	assert.NotEmpty(t, strings.TrimSpace(m.previewLine()))
	assert.Equal(t, "", m.engine.Expression(1))
}

func TestModel_AssignmentThenUse(t *testing.T) {
	m := newTestModel(t)

	m = typeText(t, m, "x = 5")
	assert.Contains(t, m.previewLine(), "Set x = 5")
	m, _ = press(t, m, tea.KeyEnter)
	assert.Equal(t, "", m.Input())
	assert.Empty(t, m.engine.Status(), "clearing the field re-previews the empty line")

	m = typeText(t, m, "x*2")
	m, _ = press(t, m, tea.KeyEnter)
	assert.Equal(t, "10", m.engine.Result(1))
}

func TestModel_TabIsSwallowed(t *testing.T) {
	m := newTestModel(t)
	m = typeText(t, m, "1")
	m, cmd := press(t, m, tea.KeyTab)
	assert.Nil(t, cmd)
	assert.Equal(t, "1", m.Input())
}

func TestModel_UndoAndClear(t *testing.T) {
	m := newTestModel(t)
	m = typeText(t, m, "6*7")
	m, _ = press(t, m, tea.KeyEnter)

	m, _ = press(t, m, tea.KeyCtrlZ)
	assert.Equal(t, "6*7", m.Input(), "undo recalls the expression")
	assert.Equal(t, "", m.engine.Expression(1))
	assert.Equal(t, "42", m.engine.Result(0))

	m, _ = press(t, m, tea.KeyEnter)
	assert.Equal(t, "6*7", m.engine.Expression(1))

	m, _ = press(t, m, tea.KeyCtrlL)
	assert.Equal(t, "", m.engine.Expression(1))
	assert.NotContains(t, m.renderHistory(), "6*7")
}

func TestModel_ModeCommandRerendersHistory(t *testing.T) {
	m := newTestModel(t)
	m = typeText(t, m, "255")
	m, _ = press(t, m, tea.KeyEnter)

	m = typeText(t, m, ":hex")
	assert.Contains(t, m.previewLine(), "CMD: :hex")
	m, _ = press(t, m, tea.KeyEnter)
	assert.Equal(t, "", m.Input())
	assert.Contains(t, m.renderHistory(), "0xff")
	assert.Contains(t, m.View(), "HEXADECIMAL")
}

func TestModel_HelpAndQuit(t *testing.T) {
	m := newTestModel(t)

	m, _ = press(t, m, tea.KeyF1)
	require.True(t, m.showHelp)
	assert.Contains(t, m.View(), "Commands")
	assert.Contains(t, m.View(), "clear")

	m = typeText(t, m, "9")
	assert.Equal(t, "", m.Input(), "typing is ignored while help is open")

	m, cmd := press(t, m, tea.KeyEsc)
	assert.False(t, m.showHelp)
	assert.Nil(t, cmd)

	_, cmd = press(t, m, tea.KeyEsc)
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	_, cmd = press(t, m, tea.KeyCtrlC)
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestModel_HelpBlocksEditingKeys(t *testing.T) {
	m := newTestModel(t)
	m = typeText(t, m, "1")
	m, _ = press(t, m, tea.KeyEnter)
	m = typeText(t, m, "6*7")

	m, _ = press(t, m, tea.KeyF1)
	for _, k := range []tea.KeyType{tea.KeyEnter, tea.KeyCtrlZ, tea.KeyCtrlL} {
		m, _ = press(t, m, k)
	}
	assert.True(t, m.showHelp)
	assert.Equal(t, "6*7", m.Input())
	assert.Equal(t, "1", m.engine.Expression(1), "history is untouched while help is open")
	assert.Equal(t, "", m.engine.Expression(2))
}

func TestModel_ViewportFitsChrome(t *testing.T) {
	m := newTestModel(t)
	require.True(t, m.showHint)
	assert.Equal(t, 20-5, m.viewport.Height)

	cfg := config.DefaultConfig()
	cfg.UI.ShowHelpHint = false
	next, _ := m.Update(configMsg{cfg: cfg})
	m = next.(Model)
	assert.Equal(t, 20-4, m.viewport.Height, "no footer row without the hint")
}

func TestModel_ConfigReload(t *testing.T) {
	defer goleak.VerifyNone(t)

	e, err := engine.New()
	require.NoError(t, err)
	defer e.Close()

	changes := make(chan *config.Config, 1)
	m := New(e, config.DefaultConfig(), changes)
	assert.Equal(t, "matrix", m.styles.Theme.Name)

	reloaded := config.DefaultConfig()
	reloaded.UI.Theme = "light"
	reloaded.UI.ShowHelpHint = false
	changes <- reloaded

	msg := m.waitForConfig()()
	next, cmd := m.Update(msg)
	m = next.(Model)
	assert.Equal(t, "light", m.styles.Theme.Name)
	assert.False(t, m.showHint)
	require.NotNil(t, cmd, "keeps listening")

	close(changes)
	assert.Nil(t, cmd())
}

func TestModel_NoWatcher(t *testing.T) {
	m := newTestModel(t)
	assert.Nil(t, m.waitForConfig())
}

func TestHelpMarkdown(t *testing.T) {
	m := newTestModel(t)
	md := HelpMarkdown(m.engine.Commands(), "lua")
	for _, c := range m.engine.Commands().Commands() {
		assert.Contains(t, md, "`"+c.Token+"`")
	}
	assert.Contains(t, md, "lua syntax")
}
