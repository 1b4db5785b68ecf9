package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceSuppressedUntilEnabled(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(nil)

	SetTraceEnabled(false)
	Trace("ledger.mark", map[string]interface{}{"target": "lookups"})
	assert.Empty(t, buf.String())

	SetTraceEnabled(true)
	defer SetTraceEnabled(false)
	Trace("ledger.mark", map[string]interface{}{"target": "lookups"})

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "ledger.mark", entry["event"])
	payload, ok := entry["payload"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "lookups", payload["target"])
}

func TestErrorAndWarnWriteEntries(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(nil)

	Error(nil)
	assert.Empty(t, buf.String())

	Error(errors.New("boom"))
	Warn("poller", "accessor failed", map[string]interface{}{"counter": "pending"})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "boom")
	assert.Contains(t, lines[1], `"component":"poller"`)
	assert.Contains(t, lines[1], `"counter":"pending"`)
}

func TestConfigureCreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "app.log")
	Configure(path)
	defer Close()

	Error(errors.New("written"))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written")
	assert.Equal(t, path, Path())
}
