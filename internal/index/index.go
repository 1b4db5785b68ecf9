// Package index holds the derived views the dashboard renders. Each view has a
// rebuild function keyed by its ledger target.
package index

import (
	"fmt"
	"sort"

	"github.com/atomicstack/assetdesk/internal/catalog"
	"github.com/atomicstack/assetdesk/internal/ledger"
	"github.com/atomicstack/assetdesk/internal/session"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Source supplies catalog data to the rebuilds.
type Source interface {
	Entries() []catalog.Entry
	ToolUpdate() (string, bool)
}

// Match is one search hit.
type Match struct {
	Name     string
	Category string
	Distance int
}

// Node is one category of the package tree.
type Node struct {
	Category string
	Packages []string
}

// ReportLine is one row of the status report.
type ReportLine struct {
	Label string
	Value string
}

// Index is owned by the render goroutine.
type Index struct {
	source Source
	query  string

	lookups  map[string]catalog.Entry
	results  []Match
	tree     []Node
	report   []ReportLine
	selected string

	refreshes int
	rewrites  int
}

// New builds an empty index over source.
func New(source Source) *Index {
	return &Index{source: source, lookups: map[string]catalog.Entry{}}
}

// Rebuilders returns the rebuild callbacks for every target. The report is
// deferred to the idle point; the rest run inside the tick.
func (ix *Index) Rebuilders() map[ledger.Target]session.Rebuilder {
	return map[ledger.Target]session.Rebuilder{
		ledger.Lookups:         {Run: ix.RebuildLookups},
		ledger.SearchResults:   {Run: ix.RebuildSearch},
		ledger.PackageTree:     {Run: ix.RebuildPackageTree},
		ledger.ReportTree:      {Run: ix.RebuildReport, Idle: true},
		ledger.SearchSelection: {Run: ix.SyncSelection},
	}
}

// RebuildLookups refreshes the name lookup table. A read-only refresh updates
// known entries in place; when packages were added or removed it falls back
// to a full rewrite.
func (ix *Index) RebuildLookups(level ledger.Level) error {
	if ix.source == nil {
		return catalog.ErrNoCatalog
	}
	entries := ix.source.Entries()
	if level == ledger.ReadOnlyRefresh && len(ix.lookups) > 0 && ix.sameNames(entries) {
		for _, e := range entries {
			ix.lookups[e.Name] = e
		}
		ix.refreshes++
		return nil
	}
	next := make(map[string]catalog.Entry, len(entries))
	for _, e := range entries {
		next[e.Name] = e
	}
	ix.lookups = next
	ix.rewrites++
	return nil
}

func (ix *Index) sameNames(entries []catalog.Entry) bool {
	if len(entries) != len(ix.lookups) {
		return false
	}
	for _, e := range entries {
		if _, ok := ix.lookups[e.Name]; !ok {
			return false
		}
	}
	return true
}

// RebuildSearch ranks the known packages against the current query.
func (ix *Index) RebuildSearch(ledger.Level) error {
	names := ix.names()
	if ix.query == "" {
		ix.results = make([]Match, 0, len(names))
		for _, name := range names {
			ix.results = append(ix.results, Match{Name: name, Category: ix.lookups[name].Category})
		}
		return nil
	}
	ranks := fuzzy.RankFindNormalizedFold(ix.query, names)
	sort.Stable(ranks)
	ix.results = make([]Match, 0, len(ranks))
	for _, r := range ranks {
		ix.results = append(ix.results, Match{Name: r.Target, Category: ix.lookups[r.Target].Category, Distance: r.Distance})
	}
	return nil
}

// RebuildPackageTree groups known packages by category.
func (ix *Index) RebuildPackageTree(ledger.Level) error {
	byCategory := map[string][]string{}
	for _, name := range ix.names() {
		cat := ix.lookups[name].Category
		if cat == "" {
			cat = "uncategorised"
		}
		byCategory[cat] = append(byCategory[cat], name)
	}
	cats := make([]string, 0, len(byCategory))
	for cat := range byCategory {
		cats = append(cats, cat)
	}
	sort.Strings(cats)
	ix.tree = ix.tree[:0]
	for _, cat := range cats {
		ix.tree = append(ix.tree, Node{Category: cat, Packages: byCategory[cat]})
	}
	return nil
}

// RebuildReport summarises install state and tool version.
func (ix *Index) RebuildReport(ledger.Level) error {
	installed, outdated := 0, 0
	for _, e := range ix.lookups {
		if e.Installed != "" {
			installed++
		}
		if e.UpdatePending() {
			outdated++
		}
	}
	tool := "up to date"
	if ix.source != nil {
		if latest, ok := ix.source.ToolUpdate(); ok {
			tool = "update available: " + latest
		}
	}
	ix.report = []ReportLine{
		{Label: "packages", Value: fmt.Sprint(len(ix.lookups))},
		{Label: "installed", Value: fmt.Sprint(installed)},
		{Label: "outdated", Value: fmt.Sprint(outdated)},
		{Label: "tool", Value: tool},
	}
	return nil
}

// SyncSelection keeps the selection on the same package when it is still a
// search hit, falling back to the first hit.
func (ix *Index) SyncSelection(ledger.Level) error {
	for _, m := range ix.results {
		if m.Name == ix.selected {
			return nil
		}
	}
	ix.selected = ""
	if len(ix.results) > 0 {
		ix.selected = ix.results[0].Name
	}
	return nil
}

func (ix *Index) names() []string {
	names := make([]string, 0, len(ix.lookups))
	for name := range ix.lookups {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SetQuery replaces the search query. Callers mark SearchResults and
// SearchSelection dirty afterwards.
func (ix *Index) SetQuery(q string) {
	ix.query = q
}

func (ix *Index) Query() string { return ix.query }

// Select moves the selection by delta within the search hits.
func (ix *Index) Select(delta int) {
	if len(ix.results) == 0 {
		ix.selected = ""
		return
	}
	pos := 0
	for i, m := range ix.results {
		if m.Name == ix.selected {
			pos = i
			break
		}
	}
	pos += delta
	if pos < 0 {
		pos = 0
	}
	if pos >= len(ix.results) {
		pos = len(ix.results) - 1
	}
	ix.selected = ix.results[pos].Name
}

func (ix *Index) Selected() string { return ix.selected }

func (ix *Index) Results() []Match { return append([]Match(nil), ix.results...) }

func (ix *Index) Tree() []Node { return append([]Node(nil), ix.tree...) }

func (ix *Index) Report() []ReportLine { return append([]ReportLine(nil), ix.report...) }

// Lookup returns the entry for name.
func (ix *Index) Lookup(name string) (catalog.Entry, bool) {
	e, ok := ix.lookups[name]
	return e, ok
}

// LookupCounts reports how many read-only refreshes and full rewrites the
// lookup table has seen.
func (ix *Index) LookupCounts() (refreshes, rewrites int) {
	return ix.refreshes, ix.rewrites
}
