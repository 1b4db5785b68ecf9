package dispatcher

import (
	"github.com/atomicstack/assetdesk/internal/backend"
	"github.com/atomicstack/assetdesk/internal/ledger"
	"github.com/atomicstack/assetdesk/internal/logging/events"
)

// Source names an external occurrence the session reacts to.
type Source string

const (
	SourceConfigEdit       Source = "config-edit"
	SourceCatalogFile      Source = "catalog-file"
	SourceScriptReload     Source = "script-reload"
	SourceCatalogRefreshed Source = "catalog-refreshed"
	SourceToolUpdate       Source = "tool-update-found"
	SourceSetupComplete    Source = "setup-complete"
	SourceStorageMoved     Source = "storage-moved"
	SourceSearchEdited     Source = "search-edited"
)

// Mark is one invalidation raised by a source.
type Mark struct {
	Target ledger.Target
	Level  ledger.Level
}

// Table maps each source to the invalidations it raises.
type Table map[Source][]Mark

// DefaultTable returns the standard reaction table.
func DefaultTable() Table {
	return Table{
		SourceConfigEdit: {
			{ledger.Lookups, ledger.ReadOnlyRefresh},
			{ledger.ReportTree, ledger.FullRewrite},
		},
		SourceCatalogFile: {
			{ledger.Lookups, ledger.ReadOnlyRefresh},
			{ledger.PackageTree, ledger.FullRewrite},
		},
		SourceScriptReload: {
			{ledger.Lookups, ledger.FullRewrite},
			{ledger.SearchResults, ledger.FullRewrite},
		},
		SourceCatalogRefreshed: {
			{ledger.Lookups, ledger.ReadOnlyRefresh},
			{ledger.PackageTree, ledger.FullRewrite},
			{ledger.SearchResults, ledger.FullRewrite},
		},
		SourceToolUpdate: {
			{ledger.ReportTree, ledger.FullRewrite},
		},
		SourceSetupComplete: {
			{ledger.Lookups, ledger.FullRewrite},
			{ledger.SearchResults, ledger.FullRewrite},
			{ledger.PackageTree, ledger.FullRewrite},
			{ledger.ReportTree, ledger.FullRewrite},
			{ledger.SearchSelection, ledger.FullRewrite},
		},
		SourceStorageMoved: {
			{ledger.Lookups, ledger.FullRewrite},
			{ledger.PackageTree, ledger.FullRewrite},
			{ledger.ReportTree, ledger.FullRewrite},
		},
		SourceSearchEdited: {
			{ledger.SearchResults, ledger.FullRewrite},
			{ledger.SearchSelection, ledger.FullRewrite},
		},
	}
}

// SourceFor maps a watcher event kind to its source.
func SourceFor(kind backend.Kind) (Source, bool) {
	switch kind {
	case backend.KindConfig:
		return SourceConfigEdit, true
	case backend.KindCatalog:
		return SourceCatalogFile, true
	case backend.KindScripts:
		return SourceScriptReload, true
	default:
		return "", false
	}
}

// Result lists the targets a dispatch marked.
type Result struct {
	Source Source
	Marked []ledger.Target
}

// Dispatcher applies the table to a ledger. It is the only path by which
// external events reach the ledger.
type Dispatcher struct {
	ledger *ledger.Ledger
	table  Table
}

// New builds a dispatcher. A nil table uses DefaultTable.
func New(l *ledger.Ledger, table Table) *Dispatcher {
	if table == nil {
		table = DefaultTable()
	}
	return &Dispatcher{ledger: l, table: table}
}

// Handle raises every mark registered for src.
func (d *Dispatcher) Handle(src Source) Result {
	res := Result{Source: src}
	marks := d.table[src]
	names := make([]string, 0, len(marks))
	for _, m := range marks {
		d.ledger.MarkDirty(m.Target, m.Level)
		res.Marked = append(res.Marked, m.Target)
		names = append(names, m.Target.String())
	}
	events.Session.Event(string(src), names)
	return res
}
