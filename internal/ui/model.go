package ui

import (
	"reflect"
	"time"

	"github.com/atomicstack/assetdesk/internal/backend"
	"github.com/atomicstack/assetdesk/internal/index"
	"github.com/atomicstack/assetdesk/internal/logging/events"
	"github.com/atomicstack/assetdesk/internal/session"
	"github.com/atomicstack/assetdesk/internal/theme"
	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type Mode int

const (
	ModeWizard Mode = iota
	ModeDashboard
)

func (m Mode) String() string {
	if m == ModeWizard {
		return "wizard"
	}
	return "dashboard"
}

const defaultTickInterval = 100 * time.Millisecond

var styles = theme.Default()

type msgHandler func(tea.Msg) tea.Cmd

// Options configures the model.
type Options struct {
	Session      *session.Coordinator
	Index        *index.Index
	Watcher      *backend.Watcher
	TickInterval time.Duration
	Width        int
	Height       int
	ShowFooter   bool
	Verbose      bool
	// ManualTick disables the render tick and the task pump; callers send
	// TickMsg and TaskDoneMsg themselves.
	ManualTick bool
}

// Model implements the Bubble Tea model hosting one session.
type Model struct {
	session *session.Coordinator
	index   *index.Index
	backend *backend.Watcher

	mode        Mode
	width       int
	height      int
	fixedWidth  bool
	fixedHeight bool
	showFooter  bool
	verbose     bool

	tickInterval time.Duration
	manualTick   bool
	idleQueued   bool

	search  textinput.Model
	spinner spinner.Model

	lastTick       session.TickResult
	idleRebuilt    int
	backendState   map[backend.Kind]error
	backendLastErr string
	errMsg         string
	infoMsg        string

	handlers map[reflect.Type]msgHandler
}

// NewModel builds the model around an already constructed session.
func NewModel(opts Options) *Model {
	search := textinput.New()
	search.Prompt = "/ "
	search.Placeholder = "search packages"
	search.PromptStyle = *styles.SearchPrompt
	search.PlaceholderStyle = *styles.SearchPlaceholder
	search.Cursor.SetMode(cursor.CursorStatic)

	spin := spinner.New()
	spin.Spinner = spinner.MiniDot
	spin.Style = *styles.Spinner

	interval := opts.TickInterval
	if interval <= 0 {
		interval = defaultTickInterval
	}
	m := &Model{
		session:      opts.Session,
		index:        opts.Index,
		backend:      opts.Watcher,
		showFooter:   opts.ShowFooter,
		verbose:      opts.Verbose,
		tickInterval: interval,
		manualTick:   opts.ManualTick,
		search:       search,
		spinner:      spin,
		backendState: map[backend.Kind]error{},
	}
	if opts.Width > 0 {
		m.width = opts.Width
		m.fixedWidth = true
	}
	if opts.Height > 0 {
		m.height = opts.Height
		m.fixedHeight = true
	}
	m.mode = m.wantMode()
	m.registerHandlers()
	return m
}

// Init is part of the tea.Model interface.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{}
	if m.backend != nil {
		cmds = append(cmds, waitForBackendEvent(m.backend))
	}
	if !m.manualTick {
		cmds = append(cmds, m.tickCmd(), waitForTask(m.session))
	}
	return tea.Batch(cmds...)
}

// Update responds to Bubble Tea messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmds := make([]tea.Cmd, 0, 4)
	if handler := m.handlerFor(msg); handler != nil {
		if cmd := handler(msg); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	return m, m.finishUpdate(cmds)
}

func (m *Model) registerHandlers() {
	m.handlers = map[reflect.Type]msgHandler{
		reflect.TypeOf(tea.KeyMsg{}):        m.handleKeyMsg,
		reflect.TypeOf(tea.WindowSizeMsg{}): m.handleWindowSizeMsg,
		reflect.TypeOf(TickMsg{}):           m.handleTickMsg,
		reflect.TypeOf(idleMsg{}):           m.handleIdleMsg,
		reflect.TypeOf(TaskDoneMsg{}):       m.handleTaskDoneMsg,
		reflect.TypeOf(tasksClosedMsg{}):    m.handleTasksClosedMsg,
		reflect.TypeOf(backendEventMsg{}):   m.handleBackendEventMsg,
		reflect.TypeOf(backendDoneMsg{}):    m.handleBackendDoneMsg,
	}
}

func (m *Model) handlerFor(msg tea.Msg) msgHandler {
	if msg == nil || m.handlers == nil {
		return nil
	}
	t := reflect.TypeOf(msg)
	if handler, ok := m.handlers[t]; ok {
		return handler
	}
	if t.Kind() == reflect.Ptr {
		if handler, ok := m.handlers[t.Elem()]; ok {
			return handler
		}
	}
	return nil
}

// finishUpdate closes a pass. When the pass left deferred callbacks behind,
// an idle command is queued so they run after this pass has returned.
func (m *Model) finishUpdate(cmds []tea.Cmd) tea.Cmd {
	m.syncMode()
	if m.session != nil && m.session.IdlePending() && !m.idleQueued {
		m.idleQueued = true
		cmds = append(cmds, idleCmd)
	}
	if len(cmds) == 0 {
		return nil
	}
	return tea.Batch(cmds...)
}

func (m *Model) wantMode() Mode {
	if m.session != nil && m.session.InWizard() {
		return ModeWizard
	}
	return ModeDashboard
}

func (m *Model) syncMode() {
	next := m.wantMode()
	if next == m.mode {
		return
	}
	m.mode = next
	if next == ModeDashboard {
		m.search.Blur()
	}
	events.UI.Mode(next.String())
}

// Mode returns the active top-level mode.
func (m *Model) Mode() Mode {
	return m.mode
}

func (m *Model) handleWindowSizeMsg(msg tea.Msg) tea.Cmd {
	resize, ok := msg.(tea.WindowSizeMsg)
	if !ok {
		return nil
	}
	if !m.fixedWidth {
		m.width = resize.Width
	}
	if !m.fixedHeight {
		m.height = resize.Height
	}
	return nil
}
