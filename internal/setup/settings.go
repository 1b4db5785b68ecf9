// Package setup provides the onboarding pages shown before the dashboard.
package setup

// UIMode selects the dashboard density.
type UIMode string

const (
	ModeComfortable UIMode = "comfortable"
	ModeCompact     UIMode = "compact"
)

// Settings is what the onboarding pages edit.
type Settings struct {
	AutoDownload     bool
	MaxTransfers     int
	StorageRoot      string
	StorageDir       string
	Previews         bool
	PreviewSize      int
	AITagging        bool
	Mode             UIMode
	OnStorageChanged func(dir string)
}

// DefaultSettings returns the values a fresh install starts with.
func DefaultSettings(storageRoot string) *Settings {
	return &Settings{
		AutoDownload: true,
		MaxTransfers: 2,
		StorageRoot:  storageRoot,
		Previews:     true,
		PreviewSize:  128,
		Mode:         ModeComfortable,
	}
}

// Interactive pages react to key presses. HandleKey reports whether the key
// was consumed.
type Interactive interface {
	HandleKey(key string) bool
}
