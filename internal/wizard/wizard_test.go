package wizard

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	completed bool
	page      int
	saves     int
	saveErr   error
}

func (s *fakeStore) WizardCompleted() bool     { return s.completed }
func (s *fakeStore) SetWizardCompleted(v bool) { s.completed = v }
func (s *fakeStore) WizardPage() int           { return s.page }
func (s *fakeStore) SetWizardPage(v int)       { s.page = v }
func (s *fakeStore) Save() error {
	s.saves++
	return s.saveErr
}

type fakePage struct {
	name     string
	proceed  bool
	done     bool
	enterErr error
	log      *[]string
	seen     int
}

func (p *fakePage) Title() string         { return p.name }
func (p *fakePage) Description() string   { return "about " + p.name }
func (p *fakePage) IsCompleted() bool     { return p.done }
func (p *fakePage) CanProceed() bool      { return p.proceed }
func (p *fakePage) View(width int) string { return p.name }
func (p *fakePage) OnEnter(w *Wizard) error {
	p.seen = w.Cursor()
	*p.log = append(*p.log, fmt.Sprintf("enter:%s@%d", p.name, w.Cursor()))
	return p.enterErr
}
func (p *fakePage) OnExit(w *Wizard) {
	*p.log = append(*p.log, fmt.Sprintf("exit:%s@%d", p.name, w.Cursor()))
}

func newPages(n int, proceed bool) ([]Page, []*fakePage, *[]string) {
	log := &[]string{}
	pages := make([]Page, n)
	fakes := make([]*fakePage, n)
	for i := range pages {
		fakes[i] = &fakePage{name: fmt.Sprintf("p%d", i), proceed: proceed, log: log}
		pages[i] = fakes[i]
	}
	return pages, fakes, log
}

func newLoaded(t *testing.T, n int, proceed bool, store *fakeStore) (*Wizard, []*fakePage, *[]string) {
	t.Helper()
	pages, fakes, log := newPages(n, proceed)
	w, err := New(pages, store)
	require.NoError(t, err)
	w.Load()
	return w, fakes, log
}

func TestNewValidates(t *testing.T) {
	_, err := New(nil, &fakeStore{})
	assert.ErrorIs(t, err, ErrNoPages)
	pages, _, _ := newPages(1, true)
	_, err = New(pages, nil)
	assert.ErrorIs(t, err, ErrNoStore)
}

func TestForwardBlockedWhenPageCannotProceed(t *testing.T) {
	w, _, _ := newLoaded(t, 7, false, &fakeStore{})
	assert.False(t, w.NavigateTo(1))
	assert.False(t, w.NavigateTo(4))
	assert.False(t, w.Next())
	assert.Equal(t, 0, w.Cursor())
}

func TestJumpForwardCompletesEarlierPages(t *testing.T) {
	store := &fakeStore{}
	w, _, _ := newLoaded(t, 7, true, store)
	require.True(t, w.NavigateTo(3))
	for i := 0; i < 3; i++ {
		assert.True(t, w.IsCompleted(i), "page %d", i)
	}
	assert.False(t, w.IsCompleted(3))
	assert.Equal(t, 3, store.page)
	assert.Equal(t, 1, store.saves)
}

func TestCompletionIsMonotonic(t *testing.T) {
	w, fakes, _ := newLoaded(t, 5, true, &fakeStore{})
	require.True(t, w.NavigateTo(3))
	fakes[3].proceed = false
	require.True(t, w.NavigateTo(1), "backward moves are always allowed")
	assert.True(t, w.IsCompleted(2))
	assert.True(t, w.IsCompleted(0))
	fakes[1].proceed = false
	assert.False(t, w.NavigateTo(3))
	assert.Equal(t, 1, w.Cursor())
}

func TestInvalidTargetsIgnored(t *testing.T) {
	store := &fakeStore{}
	w, _, log := newLoaded(t, 3, true, store)
	before := len(*log)
	for _, i := range []int{-1, 3, 99, 0} {
		assert.False(t, w.NavigateTo(i), "target %d", i)
	}
	assert.False(t, w.Back())
	assert.Equal(t, 0, w.Cursor())
	assert.Equal(t, before, len(*log))
	assert.Equal(t, 0, store.saves)
}

func TestHookOrdering(t *testing.T) {
	w, _, log := newLoaded(t, 3, true, &fakeStore{})
	require.True(t, w.Next())
	assert.Equal(t, []string{"enter:p0@0", "exit:p0@0", "enter:p1@1"}, *log)
}

func TestLoadClampsOutOfRangeCursor(t *testing.T) {
	store := &fakeStore{page: 99}
	w, fakes, _ := newLoaded(t, 7, true, store)
	assert.Equal(t, 0, w.Cursor())
	assert.Equal(t, 0, store.page)
	assert.Equal(t, 1, store.saves, "the reset cursor is written back")
	assert.Equal(t, 0, fakes[0].seen)

	store = &fakeStore{page: -4}
	w, _, _ = newLoaded(t, 7, true, store)
	assert.Equal(t, 0, w.Cursor())
	assert.Equal(t, 1, store.saves)
}

func TestLoadInRangeCursorDoesNotSave(t *testing.T) {
	store := &fakeStore{page: 3}
	newLoaded(t, 7, true, store)
	assert.Equal(t, 0, store.saves)
}

func TestLoadRestoresProgress(t *testing.T) {
	w, _, log := newLoaded(t, 7, true, &fakeStore{page: 2})
	assert.Equal(t, 2, w.Cursor())
	assert.True(t, w.IsCompleted(0))
	assert.True(t, w.IsCompleted(1))
	assert.False(t, w.IsCompleted(2))
	assert.Equal(t, []string{"enter:p2@2"}, *log)
}

func TestFinishFromLastPage(t *testing.T) {
	store := &fakeStore{page: 2}
	w, _, _ := newLoaded(t, 7, true, store)
	finished := 0
	w.OnFinish(func() { finished++ })

	assert.False(t, w.Finish(), "finish is not offered mid-sequence")
	require.True(t, w.NavigateTo(6))
	require.True(t, w.Finish())
	assert.True(t, w.Done())
	assert.True(t, store.completed)
	assert.Equal(t, 1, finished)
	for i := 0; i < w.Len(); i++ {
		assert.True(t, w.IsCompleted(i))
	}
	assert.False(t, w.Finish())
	assert.False(t, w.NavigateTo(0), "navigation ends with setup")
}

func TestFinishRequiresLastPageProceed(t *testing.T) {
	w, fakes, _ := newLoaded(t, 3, true, &fakeStore{})
	require.True(t, w.NavigateTo(2))
	fakes[2].proceed = false
	assert.False(t, w.Finish())
	fakes[2].proceed = true
	assert.True(t, w.Finish())
}

func TestEarlyExitFromFirstPage(t *testing.T) {
	store := &fakeStore{}
	w, fakes, _ := newLoaded(t, 7, false, store)
	fakes[0].proceed = false
	require.True(t, w.Finish())
	assert.True(t, store.completed)
}

func TestSkipMarksIntermediatePages(t *testing.T) {
	w, _, _ := newLoaded(t, 7, false, &fakeStore{})
	require.True(t, w.Skip())
	assert.Equal(t, 6, w.Cursor())
	for i := 0; i < 6; i++ {
		assert.True(t, w.IsCompleted(i), "page %d", i)
	}
	assert.False(t, w.Skipped(0))
	assert.True(t, w.Skipped(3))
	assert.False(t, w.Skip(), "skip only from the first page")
}

func TestPageFailureDegradesWithoutBlocking(t *testing.T) {
	pages, fakes, _ := newPages(3, true)
	fakes[1].enterErr = errors.New("cannot list volumes")
	w, err := New(pages, &fakeStore{})
	require.NoError(t, err)
	w.Load()

	require.True(t, w.Next())
	assert.Error(t, w.PageErr(1))
	require.True(t, w.Next())
	assert.Equal(t, 2, w.Cursor())
	assert.NoError(t, w.PageErr(2))
}

func TestSaveFailureDoesNotBlockNavigation(t *testing.T) {
	store := &fakeStore{saveErr: errors.New("read-only")}
	w, _, _ := newLoaded(t, 3, true, store)
	assert.True(t, w.Next())
	assert.Equal(t, 1, w.Cursor())
}

func TestResetReentersSetup(t *testing.T) {
	store := &fakeStore{completed: true, page: 6}
	w, _, log := newLoaded(t, 7, true, store)
	assert.True(t, w.Done())
	assert.Empty(t, *log, "completed setup does not enter a page")

	w.Reset()
	assert.False(t, w.Done())
	assert.Equal(t, 0, w.Cursor())
	assert.False(t, store.completed)
	assert.Equal(t, 0, store.page)
	assert.False(t, w.IsCompleted(1))
	assert.Equal(t, []string{"enter:p0@0"}, *log)
}
