package ui

import (
	"time"

	"github.com/atomicstack/assetdesk/internal/session"
	"github.com/atomicstack/assetdesk/internal/tasks"
	tea "github.com/charmbracelet/bubbletea"
)

// TickMsg drives one render pass.
type TickMsg struct {
	Time time.Time
}

// TaskDoneMsg carries a background task completion to the owner goroutine.
type TaskDoneMsg struct {
	Completion tasks.Completion
}

type tasksClosedMsg struct{}

type idleMsg struct{}

func idleCmd() tea.Msg {
	return idleMsg{}
}

func (m *Model) tickCmd() tea.Cmd {
	return tea.Tick(m.tickInterval, func(t time.Time) tea.Msg {
		return TickMsg{Time: t}
	})
}

func waitForTask(s *session.Coordinator) tea.Cmd {
	if s == nil {
		return nil
	}
	return func() tea.Msg {
		c, ok := <-s.Results()
		if !ok {
			return tasksClosedMsg{}
		}
		return TaskDoneMsg{Completion: c}
	}
}

func (m *Model) handleTickMsg(msg tea.Msg) tea.Cmd {
	tick, ok := msg.(TickMsg)
	if !ok {
		return nil
	}
	if m.session != nil {
		m.lastTick = m.session.Tick(tick.Time)
	}
	m.spinner, _ = m.spinner.Update(m.spinner.Tick())
	if m.manualTick {
		return nil
	}
	return m.tickCmd()
}

func (m *Model) handleIdleMsg(msg tea.Msg) tea.Cmd {
	m.idleQueued = false
	if m.session == nil {
		return nil
	}
	m.idleRebuilt += len(m.session.FlushIdle())
	return nil
}

func (m *Model) handleTaskDoneMsg(msg tea.Msg) tea.Cmd {
	done, ok := msg.(TaskDoneMsg)
	if !ok || m.session == nil {
		return nil
	}
	m.session.Deliver(done.Completion)
	if m.manualTick {
		return nil
	}
	return waitForTask(m.session)
}

func (m *Model) handleTasksClosedMsg(msg tea.Msg) tea.Cmd {
	return nil
}
