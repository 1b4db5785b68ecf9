// Package catalog provides the asynchronous checks the session schedules in
// the background and the counters it polls. The catalog itself is a TOML file.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/pelletier/go-toml/v2"
)

var ErrNoCatalog = errors.New("no catalog loaded")

// Entry is one package listed in the catalog.
type Entry struct {
	Name        string `toml:"name"`
	Category    string `toml:"category"`
	Version     string `toml:"version"`
	Installed   string `toml:"installed"`
	Downloading bool   `toml:"downloading"`
}

// UpdatePending reports whether an installed package lags the listed version.
func (e Entry) UpdatePending() bool {
	return e.Installed != "" && e.Installed != e.Version
}

type file struct {
	ToolVersion string  `toml:"tool_version"`
	Packages    []Entry `toml:"packages"`
}

// Catalog is safe for concurrent use: checks run on worker goroutines while
// the render loop reads counters and entries.
type Catalog struct {
	path        string
	toolVersion string
	latency     time.Duration

	mu       sync.RWMutex
	data     file
	modTime  time.Time
	loaded   bool
	revision int
}

// Option customises a Catalog.
type Option func(*Catalog)

// WithLatency simulates a slow source; checks wait this long, honouring
// cancellation, before reading.
func WithLatency(d time.Duration) Option {
	return func(c *Catalog) { c.latency = d }
}

// New returns a catalog reading path. toolVersion is the running tool's
// version, compared against the catalog's advertised one.
func New(path, toolVersion string, opts ...Option) *Catalog {
	c := &Catalog{path: path, toolVersion: toolVersion}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Path returns the catalog file path.
func (c *Catalog) Path() string {
	return c.path
}

func (c *Catalog) wait(ctx context.Context) error {
	if c.latency <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(c.latency)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// reload reads the file when it changed since the last read and reports
// whether it did.
func (c *Catalog) reload(ctx context.Context) (bool, error) {
	if c.path == "" {
		return false, ErrNoCatalog
	}
	info, err := os.Stat(c.path)
	if err != nil {
		return false, fmt.Errorf("stat catalog: %w", err)
	}
	c.mu.RLock()
	fresh := c.loaded && info.ModTime().Equal(c.modTime)
	c.mu.RUnlock()
	if fresh {
		return false, nil
	}
	raw, err := os.ReadFile(c.path)
	if err != nil {
		return false, fmt.Errorf("read catalog: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	var data file
	if err := toml.Unmarshal(raw, &data); err != nil {
		return false, fmt.Errorf("parse catalog: %w", err)
	}
	sort.SliceStable(data.Packages, func(i, j int) bool { return data.Packages[i].Name < data.Packages[j].Name })
	c.mu.Lock()
	c.data = data
	c.modTime = info.ModTime()
	c.loaded = true
	c.revision++
	c.mu.Unlock()
	return true, nil
}

// CheckForUpdate refreshes the catalog from disk.
func (c *Catalog) CheckForUpdate(ctx context.Context) (string, error) {
	if err := c.wait(ctx); err != nil {
		return "", err
	}
	changed, err := c.reload(ctx)
	if err != nil {
		return "", err
	}
	n := len(c.Entries())
	if !changed {
		return fmt.Sprintf("catalog unchanged (%d packages)", n), nil
	}
	return fmt.Sprintf("catalog loaded (%d packages)", n), nil
}

// CheckToolUpdate compares the advertised tool version with the running one.
func (c *Catalog) CheckToolUpdate(ctx context.Context) (string, error) {
	if err := c.wait(ctx); err != nil {
		return "", err
	}
	if _, err := c.reload(ctx); err != nil {
		return "", err
	}
	if latest, ok := c.ToolUpdate(); ok {
		return fmt.Sprintf("update available: %s", latest), nil
	}
	return "tool is up to date", nil
}

// ToolUpdate returns the advertised version when it differs from the running
// one.
func (c *Catalog) ToolUpdate() (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	latest := c.data.ToolVersion
	if !c.loaded || latest == "" || latest == c.toolVersion {
		return "", false
	}
	return latest, true
}

// Entries returns a copy of the packages, sorted by name.
func (c *Catalog) Entries() []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.data.Packages) == 0 {
		return nil
	}
	out := make([]Entry, len(c.data.Packages))
	copy(out, c.data.Packages)
	return out
}

// Revision increments every time new catalog data is read.
func (c *Catalog) Revision() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.revision
}

// PendingUpdates counts installed packages with a newer listed version.
func (c *Catalog) PendingUpdates() (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.loaded {
		return 0, ErrNoCatalog
	}
	n := 0
	for _, e := range c.data.Packages {
		if e.UpdatePending() {
			n++
		}
	}
	return n, nil
}

// ActiveTransfers counts packages currently downloading.
func (c *Catalog) ActiveTransfers() (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.loaded {
		return 0, ErrNoCatalog
	}
	n := 0
	for _, e := range c.data.Packages {
		if e.Downloading {
			n++
		}
	}
	return n, nil
}
