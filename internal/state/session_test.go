package state

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.yml")

	s, err := OpenSessionStore(path)
	require.NoError(t, err)
	assert.False(t, s.WizardCompleted())
	assert.Equal(t, 0, s.WizardPage())

	s.SetWizardPage(4)
	s.SetWizardCompleted(true)
	require.NoError(t, s.Save())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "wizard_current_page: 4")
	assert.Contains(t, string(raw), "wizard_completed: true")

	again, err := OpenSessionStore(path)
	require.NoError(t, err)
	assert.True(t, again.WizardCompleted())
	assert.Equal(t, 4, again.WizardPage())
	assert.Equal(t, path, again.Path())
}

func TestSettersDoNotPersistUntilSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.yml")
	s, err := OpenSessionStore(path)
	require.NoError(t, err)
	s.SetWizardPage(2)

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestOpenSessionStoreRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.yml")
	require.NoError(t, os.WriteFile(path, []byte("wizard_current_page: [oops"), 0o644))
	_, err := OpenSessionStore(path)
	assert.Error(t, err)

	_, err = OpenSessionStore("")
	assert.Error(t, err)
}

func TestMemoryStoreCountsSaves(t *testing.T) {
	s := NewMemoryStore()
	s.SetWizardPage(99)
	require.NoError(t, s.Save())
	require.NoError(t, s.Save())
	assert.Equal(t, 99, s.WizardPage())
	assert.Equal(t, 2, Saves(s))
	assert.Equal(t, "", s.Path())
}
