package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/atomicstack/assetdesk/internal/backend"
	"github.com/atomicstack/assetdesk/internal/catalog"
	"github.com/atomicstack/assetdesk/internal/data/dispatcher"
	"github.com/atomicstack/assetdesk/internal/index"
	"github.com/atomicstack/assetdesk/internal/logging"
	"github.com/atomicstack/assetdesk/internal/logging/events"
	"github.com/atomicstack/assetdesk/internal/session"
	"github.com/atomicstack/assetdesk/internal/setup"
	"github.com/atomicstack/assetdesk/internal/state"
	"github.com/atomicstack/assetdesk/internal/ui"
	tea "github.com/charmbracelet/bubbletea"
)

const shutdownTimeout = 2 * time.Second

// Config describes user-provided application options.
type Config struct {
	ConfigFile        string
	StateFile         string
	CatalogPath       string
	ScriptsDir        string
	StorageRoot       string
	PollInterval      time.Duration
	TickInterval      time.Duration
	ToolCheckDelay    time.Duration
	CatalogCheckDelay time.Duration
	Width             int
	Height            int
	ShowFooter        bool
	Verbose           bool
	ToolVersion       string
}

// Session bundles what one run of the program owns.
type Session struct {
	Coordinator *session.Coordinator
	Catalog     *catalog.Catalog
	Index       *index.Index
	Settings    *setup.Settings
	Store       state.SessionStore
}

// NewSession wires the coordinator, catalog, index and setup pages. The
// session is not started.
func NewSession(cfg Config) (*Session, error) {
	store, err := state.OpenSessionStore(cfg.StateFile)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}
	cat := catalog.New(cfg.CatalogPath, cfg.ToolVersion)
	ix := index.New(cat)
	settings := setup.DefaultSettings(storageRoot(cfg))

	coord, err := session.New(session.Options{
		Rebuilders:        ix.Rebuilders(),
		PollInterval:      cfg.PollInterval,
		PendingUpdates:    cat.PendingUpdates,
		ActiveTransfers:   cat.ActiveTransfers,
		ToolCheck:         cat.CheckToolUpdate,
		ToolCheckDelay:    cfg.ToolCheckDelay,
		CatalogCheck:      cat.CheckForUpdate,
		CatalogCheckDelay: cfg.CatalogCheckDelay,
		Pages:             setup.Pages(settings),
		Store:             store,
	})
	if err != nil {
		return nil, fmt.Errorf("build session: %w", err)
	}
	settings.OnStorageChanged = func(string) {
		coord.Handle(dispatcher.SourceStorageMoved)
	}
	return &Session{Coordinator: coord, Catalog: cat, Index: ix, Settings: settings, Store: store}, nil
}

func storageRoot(cfg Config) string {
	if cfg.StorageRoot != "" {
		return cfg.StorageRoot
	}
	if cfg.CatalogPath != "" {
		return filepath.Dir(cfg.CatalogPath)
	}
	return ""
}

// Close tears the session down, waiting briefly for background work.
func (s *Session) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.Coordinator.Close(ctx)
}

// Run bootstraps and executes the Bubble Tea program.
func Run(cfg Config) error {
	sess, err := NewSession(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := sess.Close(); err != nil {
			logging.Error(fmt.Errorf("close session: %w", err))
		}
	}()

	watcher, err := backend.NewWatcher(backend.Sources{
		ConfigFile:  cfg.ConfigFile,
		CatalogFile: cfg.CatalogPath,
		ScriptsDir:  cfg.ScriptsDir,
	}, 0)
	if err != nil {
		logging.Error(err)
		watcher = nil
	} else {
		defer watcher.Stop()
	}

	sess.Coordinator.Start()
	model := ui.NewModel(ui.Options{
		Session:      sess.Coordinator,
		Index:        sess.Index,
		Watcher:      watcher,
		TickInterval: cfg.TickInterval,
		Width:        cfg.Width,
		Height:       cfg.Height,
		ShowFooter:   cfg.ShowFooter,
		Verbose:      cfg.Verbose,
	})
	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err = program.Run()
	events.App.Stop("program exited")
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}

// ResetSetup clears the persisted setup progress so the next run starts the
// onboarding pages again.
func ResetSetup(stateFile string) error {
	store, err := state.OpenSessionStore(stateFile)
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	store.SetWizardCompleted(false)
	store.SetWizardPage(0)
	if err := store.Save(); err != nil {
		return fmt.Errorf("save session store: %w", err)
	}
	return nil
}
