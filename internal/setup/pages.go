package setup

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/atomicstack/assetdesk/internal/wizard"
	"github.com/charmbracelet/x/ansi"
)

const noData = "no data available"

// Pages returns the onboarding sequence editing s.
func Pages(s *Settings) []wizard.Page {
	return []wizard.Page{
		&introPage{},
		&downloadPage{s: s},
		&storagePage{s: s},
		&previewPage{s: s},
		&aiPage{s: s},
		&modePage{s: s},
		&completionPage{s: s},
	}
}

func lines(width int, rows ...string) string {
	if width > 0 {
		for i, row := range rows {
			rows[i] = ansi.Truncate(row, width, "…")
		}
	}
	return strings.Join(rows, "\n")
}

func check(on bool) string {
	if on {
		return "[x]"
	}
	return "[ ]"
}

type base struct{}

func (base) IsCompleted() bool              { return false }
func (base) CanProceed() bool               { return true }
func (base) OnEnter(w *wizard.Wizard) error { return nil }
func (base) OnExit(w *wizard.Wizard)        {}

type introPage struct{ base }

func (*introPage) Title() string { return "Welcome" }
func (*introPage) Description() string {
	return "A few questions before the catalog opens."
}
func (p *introPage) View(width int) string {
	return lines(width,
		"assetdesk keeps a local library of downloadable assets.",
		"",
		"enter: continue   s: skip to the end   f: finish with defaults",
	)
}

type downloadPage struct {
	base
	s *Settings
}

func (*downloadPage) Title() string       { return "Downloads" }
func (*downloadPage) Description() string { return "How packages are fetched." }
func (p *downloadPage) View(width int) string {
	return lines(width,
		check(p.s.AutoDownload)+" download updates automatically (space)",
		fmt.Sprintf("    parallel transfers: %d (+/-)", p.s.MaxTransfers),
	)
}
func (p *downloadPage) HandleKey(key string) bool {
	switch key {
	case " ":
		p.s.AutoDownload = !p.s.AutoDownload
	case "+":
		if p.s.MaxTransfers < 8 {
			p.s.MaxTransfers++
		}
	case "-":
		if p.s.MaxTransfers > 1 {
			p.s.MaxTransfers--
		}
	default:
		return false
	}
	return true
}

// storagePage lists the directories under the storage root when entered.
type storagePage struct {
	s       *Settings
	dirs    []string
	cursor  int
	err     error
	initial string
}

func (*storagePage) Title() string       { return "Storage" }
func (*storagePage) Description() string { return "Where packages are kept." }
func (p *storagePage) IsCompleted() bool { return p.s.StorageDir != "" }

// CanProceed never blocks: without a listing the page shows no data and the
// storage location stays unset.
func (p *storagePage) CanProceed() bool {
	return true
}

func (p *storagePage) OnEnter(w *wizard.Wizard) error {
	p.initial = p.s.StorageDir
	p.dirs, p.err = listDirs(p.s.StorageRoot)
	if p.err != nil {
		return p.err
	}
	p.cursor = 0
	for i, d := range p.dirs {
		if d == p.s.StorageDir {
			p.cursor = i
		}
	}
	return nil
}

func (p *storagePage) OnExit(w *wizard.Wizard) {
	if p.err != nil || len(p.dirs) == 0 {
		return
	}
	p.s.StorageDir = p.dirs[p.cursor]
	if p.initial != "" && p.initial != p.s.StorageDir && p.s.OnStorageChanged != nil {
		p.s.OnStorageChanged(p.s.StorageDir)
	}
}

func (p *storagePage) View(width int) string {
	if p.err != nil || len(p.dirs) == 0 {
		return lines(width, noData)
	}
	rows := make([]string, 0, len(p.dirs))
	for i, d := range p.dirs {
		marker := "  "
		if i == p.cursor {
			marker = "> "
		}
		rows = append(rows, marker+d)
	}
	return lines(width, rows...)
}

func (p *storagePage) HandleKey(key string) bool {
	switch key {
	case "up", "k":
		if p.cursor > 0 {
			p.cursor--
		}
	case "down", "j":
		if p.cursor < len(p.dirs)-1 {
			p.cursor++
		}
	default:
		return false
	}
	return true
}

func listDirs(root string) ([]string, error) {
	if root == "" {
		return nil, fmt.Errorf("list storage: no root configured")
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("list storage: %w", err)
	}
	var dirs []string
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			dirs = append(dirs, filepath.Join(root, e.Name()))
		}
	}
	sort.Strings(dirs)
	return dirs, nil
}

type previewPage struct {
	base
	s *Settings
}

func (*previewPage) Title() string       { return "Previews" }
func (*previewPage) Description() string { return "Thumbnail generation." }
func (p *previewPage) View(width int) string {
	return lines(width,
		check(p.s.Previews)+" generate previews (space)",
		fmt.Sprintf("    preview size: %dpx (+/-)", p.s.PreviewSize),
	)
}
func (p *previewPage) HandleKey(key string) bool {
	switch key {
	case " ":
		p.s.Previews = !p.s.Previews
	case "+":
		if p.s.PreviewSize < 512 {
			p.s.PreviewSize *= 2
		}
	case "-":
		if p.s.PreviewSize > 32 {
			p.s.PreviewSize /= 2
		}
	default:
		return false
	}
	return true
}

type aiPage struct {
	base
	s *Settings
}

func (*aiPage) Title() string       { return "AI features" }
func (*aiPage) Description() string { return "Automatic tagging." }
func (p *aiPage) View(width int) string {
	return lines(width, check(p.s.AITagging)+" suggest tags for new packages (space)")
}
func (p *aiPage) HandleKey(key string) bool {
	if key != " " {
		return false
	}
	p.s.AITagging = !p.s.AITagging
	return true
}

type modePage struct {
	base
	s *Settings
}

func (*modePage) Title() string       { return "Layout" }
func (*modePage) Description() string { return "Dashboard density." }
func (p *modePage) View(width int) string {
	comfortable, compact := "( )", "( )"
	if p.s.Mode == ModeCompact {
		compact = "(*)"
	} else {
		comfortable = "(*)"
	}
	return lines(width,
		comfortable+" comfortable",
		compact+" compact",
		"",
		"space: toggle",
	)
}
func (p *modePage) HandleKey(key string) bool {
	if key != " " {
		return false
	}
	if p.s.Mode == ModeCompact {
		p.s.Mode = ModeComfortable
	} else {
		p.s.Mode = ModeCompact
	}
	return true
}

type completionPage struct {
	base
	s *Settings
}

func (*completionPage) Title() string       { return "Done" }
func (*completionPage) Description() string { return "Review and finish." }
func (p *completionPage) View(width int) string {
	storage := p.s.StorageDir
	if storage == "" {
		storage = "(not set)"
	}
	return lines(width,
		fmt.Sprintf("auto download: %t, %d transfers", p.s.AutoDownload, p.s.MaxTransfers),
		"storage: "+storage,
		fmt.Sprintf("previews: %t (%dpx)", p.s.Previews, p.s.PreviewSize),
		fmt.Sprintf("ai tagging: %t", p.s.AITagging),
		"layout: "+string(p.s.Mode),
		"",
		"f: finish",
	)
}
