// Package ledger tracks which derived views are stale and how badly.
//
// The ledger is owned by a single goroutine (the render loop). MarkDirty only
// ever raises a stored level; ConsumeIfDirty is the only way to lower one, and
// it does so in the same step as reading it.
package ledger

import (
	"fmt"

	"github.com/atomicstack/assetdesk/internal/logging/events"
)

// Level is the severity of a pending invalidation.
type Level int

const (
	None Level = iota
	ReadOnlyRefresh
	FullRewrite
)

func (l Level) String() string {
	switch l {
	case None:
		return "none"
	case ReadOnlyRefresh:
		return "read-only-refresh"
	case FullRewrite:
		return "full-rewrite"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// Max returns the more severe of two levels.
func Max(a, b Level) Level {
	if a > b {
		return a
	}
	return b
}

// Target names a derived view.
type Target int

const (
	Lookups Target = iota
	SearchResults
	PackageTree
	ReportTree
	SearchSelection
)

// Targets lists every target in consumption order.
var Targets = []Target{Lookups, SearchResults, PackageTree, ReportTree, SearchSelection}

func (t Target) String() string {
	switch t {
	case Lookups:
		return "lookups"
	case SearchResults:
		return "search-results"
	case PackageTree:
		return "package-tree"
	case ReportTree:
		return "report-tree"
	case SearchSelection:
		return "search-selection"
	default:
		return fmt.Sprintf("target(%d)", int(t))
	}
}

// Tiered reports whether the target distinguishes severities. Binary targets
// collapse any non-None level to FullRewrite.
func (t Target) Tiered() bool {
	return t == Lookups
}

// Ledger holds one pending level per target.
type Ledger struct {
	levels [targetCount]Level
}

const targetCount = int(SearchSelection) + 1

// New returns a clean ledger.
func New() *Ledger {
	return &Ledger{}
}

func valid(t Target) bool {
	return t >= 0 && int(t) < targetCount
}

func normalize(t Target, level Level) Level {
	if level <= None {
		return None
	}
	if level > FullRewrite {
		level = FullRewrite
	}
	if !t.Tiered() {
		return FullRewrite
	}
	return level
}

// MarkDirty raises target to max(current, level). Unknown targets and None are
// ignored.
func (l *Ledger) MarkDirty(target Target, level Level) {
	if !valid(target) {
		return
	}
	level = normalize(target, level)
	if level == None {
		return
	}
	stored := Max(l.levels[target], level)
	l.levels[target] = stored
	events.Ledger.Mark(target.String(), level.String(), stored.String())
}

// Mark flags a binary target as dirty.
func (l *Ledger) Mark(target Target) {
	l.MarkDirty(target, FullRewrite)
}

// ConsumeIfDirty returns the pending level for target and resets it to None.
func (l *Ledger) ConsumeIfDirty(target Target) Level {
	if !valid(target) {
		return None
	}
	level := l.levels[target]
	l.levels[target] = None
	if level != None {
		events.Ledger.Consume(target.String(), level.String())
	}
	return level
}

// Peek returns the pending level without consuming it.
func (l *Ledger) Peek(target Target) Level {
	if !valid(target) {
		return None
	}
	return l.levels[target]
}

// AnyDirty reports whether any target has a pending level.
func (l *Ledger) AnyDirty() bool {
	for _, level := range l.levels {
		if level != None {
			return true
		}
	}
	return false
}

// Rebuild consumes target and runs fn with the consumed level. When fn fails
// the level is restored so the rebuild is retried on a later pass. It returns
// the consumed level and fn's error; fn is not called when nothing was pending.
func (l *Ledger) Rebuild(target Target, fn func(Level) error) (Level, error) {
	level := l.ConsumeIfDirty(target)
	if level == None {
		return None, nil
	}
	err := safeRun(fn, level)
	if err != nil {
		l.MarkDirty(target, level)
		events.Ledger.Restore(target.String(), level.String(), err)
	}
	return level, err
}

func safeRun(fn func(Level) error, level Level) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("rebuild panicked: %v", r)
		}
	}()
	return fn(level)
}
