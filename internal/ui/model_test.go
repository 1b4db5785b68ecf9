package ui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/atomicstack/assetdesk/internal/backend"
	"github.com/atomicstack/assetdesk/internal/catalog"
	"github.com/atomicstack/assetdesk/internal/data/dispatcher"
	"github.com/atomicstack/assetdesk/internal/index"
	"github.com/atomicstack/assetdesk/internal/ledger"
	"github.com/atomicstack/assetdesk/internal/session"
	"github.com/atomicstack/assetdesk/internal/setup"
	"github.com/atomicstack/assetdesk/internal/state"
	"github.com/atomicstack/assetdesk/internal/tasks"
	"github.com/atomicstack/assetdesk/internal/wizard"
	tea "github.com/charmbracelet/bubbletea"
)

type fakeSource struct{}

func (fakeSource) Entries() []catalog.Entry {
	return []catalog.Entry{
		{Name: "audio/rain", Category: "audio", Version: "0.3.0"},
		{Name: "textures/brick", Category: "textures", Version: "1.2.0", Installed: "1.1.0"},
		{Name: "textures/marble", Category: "textures", Version: "1.0.0", Installed: "1.0.0"},
	}
}

func (fakeSource) ToolUpdate() (string, bool) { return "", false }

type fixture struct {
	model   *Model
	session *session.Coordinator
	index   *index.Index
	store   state.SessionStore
}

func newFixture(t *testing.T, completed bool, configure func(*session.Options)) *fixture {
	t.Helper()
	store := state.NewMemoryStore()
	store.SetWizardCompleted(completed)
	ix := index.New(fakeSource{})
	opts := session.Options{
		Rebuilders: ix.Rebuilders(),
		Pages:      setup.Pages(setup.DefaultSettings(t.TempDir() + "/missing")),
		Store:      store,
	}
	if configure != nil {
		configure(&opts)
	}
	s, err := session.New(opts)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := s.Close(ctx); err != nil {
			t.Errorf("close session: %v", err)
		}
	})
	s.Start()
	if completed {
		s.Handle(dispatcher.SourceSetupComplete)
	}
	m := NewModel(Options{Session: s, Index: ix, Width: 80, ManualTick: true})
	return &fixture{model: m, session: s, index: ix, store: store}
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func runCmd(m *Model, cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, c := range batch {
			runCmd(m, c)
		}
		return
	}
	m.Update(msg)
}

func TestWizardModeUntilFinished(t *testing.T) {
	f := newFixture(t, false, nil)
	h := NewHarness(f.model)
	if got := h.Model().Mode(); got != ModeWizard {
		t.Fatalf("expected wizard mode, got %v", got)
	}
	view := h.View()
	if !strings.Contains(view, "1/7 Welcome") {
		t.Fatalf("expected first page in view, got\n%s", view)
	}

	h.Send(key("f"))
	if got := h.Model().Mode(); got != ModeDashboard {
		t.Fatalf("expected dashboard after finish, got %v", got)
	}
	if !f.store.WizardCompleted() {
		t.Fatalf("expected completed flag persisted")
	}
	if got := f.session.Dirty(ledger.Lookups); got != ledger.FullRewrite {
		t.Fatalf("expected lookups full rewrite, got %v", got)
	}

	h.Send(TickMsg{Time: time.Unix(0, 0)})
	if f.session.Dirty(ledger.ReportTree) != ledger.None {
		t.Fatalf("expected idle report rebuild to have run")
	}
	view = h.View()
	for _, want := range []string{"> audio/rain", "textures (2)", "outdated", "1"} {
		if !strings.Contains(view, want) {
			t.Fatalf("expected %q in dashboard, got\n%s", want, view)
		}
	}
}

func TestWizardNavigationKeys(t *testing.T) {
	f := newFixture(t, false, nil)
	h := NewHarness(f.model)
	w := f.session.Wizard()

	h.Send(key("enter"))
	if w.Cursor() != 1 {
		t.Fatalf("expected cursor 1, got %d", w.Cursor())
	}
	h.Send(key("left"))
	if w.Cursor() != 0 {
		t.Fatalf("expected cursor 0, got %d", w.Cursor())
	}
	h.Send(key("3"))
	if w.Cursor() != 2 {
		t.Fatalf("expected cursor 2, got %d", w.Cursor())
	}
	if !strings.Contains(h.View(), "no data available") {
		t.Fatalf("expected degraded storage page, got\n%s", h.View())
	}
	h.Send(key("enter"))
	if w.Cursor() != 3 {
		t.Fatalf("degraded storage page must not block, cursor %d", w.Cursor())
	}
	if f.store.WizardPage() != 3 {
		t.Fatalf("expected cursor persisted, got %d", f.store.WizardPage())
	}
}

type gatePage struct{ title string }

func (p gatePage) Title() string                { return p.title }
func (p gatePage) Description() string          { return "" }
func (p gatePage) IsCompleted() bool            { return false }
func (p gatePage) CanProceed() bool             { return false }
func (p gatePage) View(int) string              { return p.title }
func (p gatePage) OnEnter(*wizard.Wizard) error { return nil }
func (p gatePage) OnExit(*wizard.Wizard)        {}

func TestBlockedPageShowsRejection(t *testing.T) {
	f := newFixture(t, false, func(o *session.Options) {
		o.Pages = []wizard.Page{gatePage{"Licence"}, gatePage{"Done"}}
	})
	h := NewHarness(f.model)
	w := f.session.Wizard()

	h.Send(key("enter"))
	if w.Cursor() != 0 {
		t.Fatalf("page that cannot proceed must block, cursor %d", w.Cursor())
	}
	if !strings.Contains(h.View(), "needs attention") {
		t.Fatalf("expected rejection message, got\n%s", h.View())
	}
}

func TestSearchAppliesOnceAtIdlePoint(t *testing.T) {
	f := newFixture(t, true, nil)
	m := f.model
	m.Update(TickMsg{Time: time.Unix(0, 0)})
	m.Update(idleMsg{})
	m.Update(key("/"))

	_, cmd := m.Update(key("b"))
	if cmd == nil {
		t.Fatalf("expected idle command after first keystroke")
	}
	m.Update(key("r"))
	m.Update(key("k"))
	if f.index.Query() != "" {
		t.Fatalf("query must not change before the idle point")
	}

	runCmd(m, cmd)
	if f.session.IdlePending() {
		t.Fatalf("expected trampoline drained")
	}
	if got := f.index.Query(); got != "brk" {
		t.Fatalf("expected coalesced query brk, got %q", got)
	}
	if f.session.Dirty(ledger.SearchResults) != ledger.FullRewrite {
		t.Fatalf("expected search results marked")
	}

	m.Update(TickMsg{Time: time.Unix(1, 0)})
	results := f.index.Results()
	if len(results) != 1 || results[0].Name != "textures/brick" {
		t.Fatalf("unexpected results %#v", results)
	}
	if f.index.Selected() != "textures/brick" {
		t.Fatalf("expected selection synced, got %q", f.index.Selected())
	}
}

func TestTaskCompletionDeliveredOnUpdate(t *testing.T) {
	f := newFixture(t, true, func(o *session.Options) {
		o.CatalogCheck = func(context.Context) (string, error) { return "catalog loaded (3 packages)", nil }
	})
	h := NewHarness(f.model)
	h.Send(TickMsg{Time: time.Unix(0, 0)})

	var comp tasks.Completion
	select {
	case comp = <-f.session.Results():
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for catalog check")
	}
	h.Send(TaskDoneMsg{Completion: comp})
	if got := f.session.Dirty(ledger.PackageTree); got != ledger.FullRewrite {
		t.Fatalf("expected package tree marked, got %v", got)
	}
	if view := h.View(); !strings.Contains(view, "catalog-refresh: succeeded (catalog loaded (3 packages))") {
		t.Fatalf("expected task status in view, got\n%s", view)
	}
}

func TestBackendEventsMarkLedger(t *testing.T) {
	f := newFixture(t, true, nil)
	h := NewHarness(f.model)
	h.Send(TickMsg{Time: time.Unix(0, 0)})

	h.Send(backendEventMsg{event: backend.Event{Kind: backend.KindScripts}})
	if got := f.session.Dirty(ledger.Lookups); got != ledger.FullRewrite {
		t.Fatalf("expected lookups marked by script reload, got %v", got)
	}

	h.Send(backendEventMsg{event: backend.Event{Kind: backend.KindCatalog, Err: errors.New("watch lost")}})
	if got := f.session.Dirty(ledger.PackageTree); got != ledger.None {
		t.Fatalf("failed event must not mark, got %v", got)
	}
	if view := h.View(); !strings.Contains(view, "watcher: watch lost") {
		t.Fatalf("expected watcher warning, got\n%s", view)
	}
}

func TestWatcherFailureClearedByLaterEvent(t *testing.T) {
	f := newFixture(t, true, nil)
	h := NewHarness(f.model)
	h.Send(TickMsg{Time: time.Unix(0, 0)})

	h.Send(backendEventMsg{event: backend.Event{Kind: backend.KindWatch, Err: errors.New("queue overflow")}})
	if view := h.View(); !strings.Contains(view, "watcher: queue overflow") {
		t.Fatalf("expected watcher warning, got\n%s", view)
	}
	if f.session.Dirty(ledger.Lookups) != ledger.None {
		t.Fatalf("watcher failure must not mark the ledger")
	}

	h.Send(backendEventMsg{event: backend.Event{Kind: backend.KindScripts}})
	if view := h.View(); strings.Contains(view, "watcher:") {
		t.Fatalf("expected warning cleared, got\n%s", view)
	}
}

func TestDashboardKeys(t *testing.T) {
	f := newFixture(t, true, nil)
	h := NewHarness(f.model)
	h.Send(TickMsg{Time: time.Unix(0, 0)})

	h.Send(key("j"))
	if got := f.index.Selected(); got != "textures/brick" {
		t.Fatalf("expected selection to move down, got %q", got)
	}
	h.Send(key("r"))
	if !strings.Contains(h.View(), "background checks restarted") {
		t.Fatalf("expected restart notice")
	}
	h.Send(key("w"))
	if h.Model().Mode() != ModeWizard {
		t.Fatalf("expected setup re-entered")
	}
	if f.store.WizardCompleted() {
		t.Fatalf("expected completed flag cleared")
	}
	h.Send(key("ctrl+c"))
	if !h.Quit() {
		t.Fatalf("expected quit")
	}
}
