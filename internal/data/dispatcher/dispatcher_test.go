package dispatcher

import (
	"testing"

	"github.com/atomicstack/assetdesk/internal/backend"
	"github.com/atomicstack/assetdesk/internal/ledger"
	"github.com/stretchr/testify/assert"
)

func TestHandleAppliesTable(t *testing.T) {
	l := ledger.New()
	d := New(l, nil)

	res := d.Handle(SourceCatalogFile)
	assert.ElementsMatch(t, []ledger.Target{ledger.Lookups, ledger.PackageTree}, res.Marked)
	assert.Equal(t, ledger.ReadOnlyRefresh, l.Peek(ledger.Lookups))
	assert.Equal(t, ledger.FullRewrite, l.Peek(ledger.PackageTree))

	d.Handle(SourceScriptReload)
	assert.Equal(t, ledger.FullRewrite, l.Peek(ledger.Lookups), "levels combine by max")
}

func TestUnknownSourceMarksNothing(t *testing.T) {
	l := ledger.New()
	res := New(l, Table{}).Handle(SourceConfigEdit)
	assert.Empty(t, res.Marked)
	assert.False(t, l.AnyDirty())
}

func TestSourceForMapsWatcherKinds(t *testing.T) {
	cases := map[backend.Kind]Source{
		backend.KindConfig:  SourceConfigEdit,
		backend.KindCatalog: SourceCatalogFile,
		backend.KindScripts: SourceScriptReload,
	}
	for kind, want := range cases {
		got, ok := SourceFor(kind)
		assert.True(t, ok, kind.String())
		assert.Equal(t, want, got)
	}
	_, ok := SourceFor(backend.KindWatch)
	assert.False(t, ok, "watcher failures have no source")
}

func TestSetupCompleteRewritesEverything(t *testing.T) {
	l := ledger.New()
	New(l, nil).Handle(SourceSetupComplete)
	for _, target := range ledger.Targets {
		assert.Equal(t, ledger.FullRewrite, l.Peek(target), target.String())
	}
}
