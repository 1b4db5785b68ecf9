// Package wizard drives a linear, completion-gated setup sequence.
package wizard

import (
	"errors"

	"github.com/atomicstack/assetdesk/internal/logging/events"
)

var (
	ErrNoPages = errors.New("wizard needs at least one page")
	ErrNoStore = errors.New("wizard needs a store")
)

// Wizard owns the cursor over a fixed page sequence. Invalid navigation
// requests are ignored rather than reported.
type Wizard struct {
	pages []Page
	store Store

	cursor    int
	passed    []bool
	skipped   []bool
	pageErr   []error
	completed bool
	loaded    bool

	onFinish func()
}

// New builds a wizard over pages. Call Load before navigating.
func New(pages []Page, store Store) (*Wizard, error) {
	if len(pages) == 0 {
		return nil, ErrNoPages
	}
	if store == nil {
		return nil, ErrNoStore
	}
	n := len(pages)
	return &Wizard{
		pages:   append([]Page(nil), pages...),
		store:   store,
		passed:  make([]bool, n),
		skipped: make([]bool, n),
		pageErr: make([]error, n),
	}, nil
}

// OnFinish registers the callback fired once Finish succeeds.
func (w *Wizard) OnFinish(fn func()) {
	w.onFinish = fn
}

// Load restores the persisted cursor and completion flag. An out-of-range
// cursor resets to the first page and is saved. When setup is still in progress the
// current page is entered.
func (w *Wizard) Load() {
	stored := w.store.WizardPage()
	w.cursor = stored
	if stored < 0 || stored >= len(w.pages) {
		w.cursor = 0
		w.persist()
	}
	cursor := w.cursor
	w.completed = w.store.WizardCompleted()
	for i := 0; i < cursor; i++ {
		w.passed[i] = true
	}
	if w.completed {
		for i := range w.passed {
			w.passed[i] = true
		}
	}
	w.loaded = true
	events.Wizard.Load(cursor, stored, w.completed)
	if !w.completed {
		w.enter(cursor)
	}
}

// Len returns the number of pages.
func (w *Wizard) Len() int {
	return len(w.pages)
}

// Cursor returns the index of the active page.
func (w *Wizard) Cursor() int {
	return w.cursor
}

// Page returns the page at i, or nil when out of range.
func (w *Wizard) Page(i int) Page {
	if i < 0 || i >= len(w.pages) {
		return nil
	}
	return w.pages[i]
}

// Current returns the active page.
func (w *Wizard) Current() Page {
	return w.pages[w.cursor]
}

// Done reports whether setup has been finished.
func (w *Wizard) Done() bool {
	return w.completed
}

// IsCompleted reports whether page i has been passed or reports itself
// complete.
func (w *Wizard) IsCompleted(i int) bool {
	if i < 0 || i >= len(w.pages) {
		return false
	}
	return w.passed[i] || w.pages[i].IsCompleted()
}

// Skipped reports whether page i was passed over by Skip.
func (w *Wizard) Skipped(i int) bool {
	if i < 0 || i >= len(w.pages) {
		return false
	}
	return w.skipped[i]
}

// PageErr returns the error recorded when page i was last entered.
func (w *Wizard) PageErr(i int) error {
	if i < 0 || i >= len(w.pages) {
		return nil
	}
	return w.pageErr[i]
}

// CanNavigateTo reports whether NavigateTo(i) would succeed.
func (w *Wizard) CanNavigateTo(i int) bool {
	if !w.loaded || w.completed || i < 0 || i >= len(w.pages) || i == w.cursor {
		return false
	}
	if i < w.cursor {
		return true
	}
	return w.pages[w.cursor].CanProceed()
}

// NavigateTo moves to page i. Backward moves are always allowed; forward
// moves require the current page to allow proceeding. It reports whether the
// cursor moved.
func (w *Wizard) NavigateTo(i int) bool {
	if !w.CanNavigateTo(i) {
		events.Wizard.Reject(w.cursor, i)
		return false
	}
	w.move(i)
	return true
}

// Next advances one page.
func (w *Wizard) Next() bool {
	return w.NavigateTo(w.cursor + 1)
}

// Back returns one page.
func (w *Wizard) Back() bool {
	return w.NavigateTo(w.cursor - 1)
}

// Skip jumps from the first page straight to the last one, bypassing the
// per-page gates. Pages in between count as completed.
func (w *Wizard) Skip() bool {
	last := len(w.pages) - 1
	if !w.loaded || w.completed || w.cursor != 0 || last == 0 {
		events.Wizard.Reject(w.cursor, last)
		return false
	}
	for i := 1; i < last; i++ {
		if !w.passed[i] {
			w.skipped[i] = true
		}
	}
	w.move(last)
	return true
}

// CanFinish reports whether Finish would succeed: on the last page once it
// allows proceeding, or on the first page as an early exit.
func (w *Wizard) CanFinish() bool {
	if !w.loaded || w.completed {
		return false
	}
	last := len(w.pages) - 1
	if w.cursor == last {
		return w.pages[last].CanProceed()
	}
	return w.cursor == 0
}

// Finish ends setup, persists the completed flag, and fires the OnFinish
// callback.
func (w *Wizard) Finish() bool {
	if !w.CanFinish() {
		events.Wizard.Reject(w.cursor, len(w.pages))
		return false
	}
	w.pages[w.cursor].OnExit(w)
	for i := range w.passed {
		w.passed[i] = true
	}
	w.completed = true
	w.store.SetWizardCompleted(true)
	w.persist()
	events.Wizard.Finish(w.cursor)
	if w.onFinish != nil {
		w.onFinish()
	}
	return true
}

// Reset re-enters setup from the first page, clearing completion.
func (w *Wizard) Reset() {
	if w.loaded && !w.completed {
		w.pages[w.cursor].OnExit(w)
	}
	w.cursor = 0
	w.completed = false
	for i := range w.pages {
		w.passed[i] = false
		w.skipped[i] = false
		w.pageErr[i] = nil
	}
	w.loaded = true
	w.store.SetWizardCompleted(false)
	w.persist()
	events.Wizard.Reset()
	w.enter(0)
}

func (w *Wizard) move(i int) {
	from := w.cursor
	w.pages[from].OnExit(w)
	w.cursor = i
	for j := 0; j < i; j++ {
		w.passed[j] = true
	}
	w.persist()
	events.Wizard.Navigate(from, i)
	w.enter(i)
}

func (w *Wizard) enter(i int) {
	err := w.pages[i].OnEnter(w)
	w.pageErr[i] = err
	if err != nil {
		events.Wizard.PageError(i, w.pages[i].Title(), err)
	}
}

func (w *Wizard) persist() {
	w.store.SetWizardPage(w.cursor)
	if err := w.store.Save(); err != nil {
		events.Wizard.SaveError(err)
	}
}
