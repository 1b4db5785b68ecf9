package ui

import (
	"strconv"

	"github.com/atomicstack/assetdesk/internal/data/dispatcher"
	"github.com/atomicstack/assetdesk/internal/idle"
	"github.com/atomicstack/assetdesk/internal/logging/events"
	"github.com/atomicstack/assetdesk/internal/setup"
	tea "github.com/charmbracelet/bubbletea"
)

func (m *Model) handleKeyMsg(msg tea.Msg) tea.Cmd {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}
	key := keyMsg.String()
	events.UI.Key(m.mode.String(), key)
	if key == "ctrl+c" {
		return tea.Quit
	}
	if m.session == nil {
		return nil
	}
	if m.mode == ModeWizard {
		return m.handleWizardKey(key)
	}
	return m.handleDashboardKey(keyMsg)
}

func (m *Model) handleWizardKey(key string) tea.Cmd {
	w := m.session.Wizard()
	m.errMsg = ""
	switch key {
	case "q", "esc":
		return tea.Quit
	case "enter", "right", "tab":
		if w.Cursor() == w.Len()-1 {
			if !w.Finish() {
				m.errMsg = "this step needs attention before finishing"
			}
			return nil
		}
		if !w.Next() {
			m.errMsg = "this step needs attention before continuing"
		}
		return nil
	case "left", "shift+tab":
		w.Back()
		return nil
	case "s":
		w.Skip()
		return nil
	case "f":
		if !w.Finish() {
			m.errMsg = "setup can only be finished from the first or last step"
		}
		return nil
	}
	if n, err := strconv.Atoi(key); err == nil && n >= 1 && n <= w.Len() {
		w.NavigateTo(n - 1)
		return nil
	}
	if page, ok := w.Current().(setup.Interactive); ok {
		page.HandleKey(key)
	}
	return nil
}

func (m *Model) handleDashboardKey(msg tea.KeyMsg) tea.Cmd {
	if m.search.Focused() {
		return m.handleSearchKey(msg)
	}
	switch msg.String() {
	case "q", "esc":
		return tea.Quit
	case "/":
		m.search.Focus()
		return nil
	case "up", "k":
		m.selectBy(-1)
	case "down", "j":
		m.selectBy(1)
	case "r":
		m.session.RestartTasks("manual")
		m.infoMsg = "background checks restarted"
	case "w":
		m.session.Wizard().Reset()
	}
	return nil
}

func (m *Model) selectBy(delta int) {
	if m.index != nil {
		m.index.Select(delta)
	}
}

func (m *Model) handleSearchKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc", "enter":
		m.search.Blur()
		return nil
	case "up":
		m.selectBy(-1)
		return nil
	case "down":
		m.selectBy(1)
		return nil
	}
	before := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if m.search.Value() != before {
		m.deferSearchApply()
	}
	return cmd
}

// deferSearchApply queues a single search-apply callback; it reads the query
// when it fires, so a burst of keystrokes applies once.
func (m *Model) deferSearchApply() {
	m.session.Defer(idle.SearchApply, func() {
		if m.index != nil {
			m.index.SetQuery(m.search.Value())
		}
		m.session.Handle(dispatcher.SourceSearchEdited)
	})
}
