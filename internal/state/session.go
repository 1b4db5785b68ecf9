package state

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// SessionStore persists the setup wizard's progress between runs. Setters only
// change memory; Save writes the file.
type SessionStore interface {
	WizardCompleted() bool
	SetWizardCompleted(bool)
	WizardPage() int
	SetWizardPage(int)
	Save() error
	Path() string
}

type sessionFile struct {
	WizardCompleted   bool `yaml:"wizard_completed"`
	WizardCurrentPage int  `yaml:"wizard_current_page"`
}

type sessionStore struct {
	path string
	data sessionFile
}

// OpenSessionStore loads the store at path. A missing file yields defaults.
func OpenSessionStore(path string) (SessionStore, error) {
	if path == "" {
		return nil, errors.New("session store path is empty")
	}
	s := &sessionStore{path: path}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("read session state: %w", err)
	}
	if err := yaml.Unmarshal(raw, &s.data); err != nil {
		return nil, fmt.Errorf("parse session state: %w", err)
	}
	return s, nil
}

func (s *sessionStore) WizardCompleted() bool {
	return s.data.WizardCompleted
}

func (s *sessionStore) SetWizardCompleted(done bool) {
	s.data.WizardCompleted = done
}

func (s *sessionStore) WizardPage() int {
	return s.data.WizardCurrentPage
}

func (s *sessionStore) SetWizardPage(page int) {
	s.data.WizardCurrentPage = page
}

func (s *sessionStore) Path() string {
	return s.path
}

// Save writes the state atomically through a temp file in the same directory.
func (s *sessionStore) Save() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	raw, err := yaml.Marshal(s.data)
	if err != nil {
		return fmt.Errorf("marshal session state: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".state-*.yml")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close state file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}

type memoryStore struct {
	data  sessionFile
	saves int
}

// NewMemoryStore returns a store that keeps state in memory only.
func NewMemoryStore() SessionStore {
	return &memoryStore{}
}

func (m *memoryStore) WizardCompleted() bool       { return m.data.WizardCompleted }
func (m *memoryStore) SetWizardCompleted(done bool) { m.data.WizardCompleted = done }
func (m *memoryStore) WizardPage() int              { return m.data.WizardCurrentPage }
func (m *memoryStore) SetWizardPage(page int)       { m.data.WizardCurrentPage = page }
func (m *memoryStore) Path() string                 { return "" }

func (m *memoryStore) Save() error {
	m.saves++
	return nil
}

// Saves returns how many times Save ran on a memory store, or -1 for other
// stores.
func Saves(s SessionStore) int {
	if m, ok := s.(*memoryStore); ok {
		return m.saves
	}
	return -1
}
