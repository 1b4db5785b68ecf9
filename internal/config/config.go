package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/atomicstack/assetdesk/internal/app"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config captures runtime configuration for the application.
type Config struct {
	App      app.Config
	Logging  Logging
	Features Features
	Flags    map[string]string
	Args     []string
}

type Logging struct {
	FilePath string
	Trace    bool
	Level    string
}

type Features struct {
	Verbose bool
}

const (
	envPrefix = "ASSETDESK_"
	envConfig = envPrefix + "CONFIG"
)

const (
	keyConfig            = "config"
	keyStateFile         = "state-file"
	keyCatalog           = "catalog"
	keyScriptsDir        = "scripts-dir"
	keyStorageRoot       = "storage-root"
	keyPollInterval      = "poll-interval"
	keyTickInterval      = "tick-interval"
	keyToolCheckDelay    = "tool-check-delay"
	keyCatalogCheckDelay = "catalog-check-delay"
	keyWidth             = "width"
	keyHeight            = "height"
	keyFooter            = "footer"
	keyTrace             = "trace"
	keyVerbose           = "verbose"
	keyLogFile           = "log-file"
	keyLogLevel          = "log-level"
)

// layered lists the keys resolved through flag > env > file > default.
var layered = []string{
	keyStateFile, keyCatalog, keyScriptsDir, keyStorageRoot,
	keyPollInterval, keyTickInterval, keyToolCheckDelay, keyCatalogCheckDelay,
	keyWidth, keyHeight, keyFooter, keyTrace, keyVerbose, keyLogFile, keyLogLevel,
}

// EnvKey returns the environment variable consulted for key.
func EnvKey(key string) string {
	return envPrefix + strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
}

// NewFlagSet declares every configuration flag with its default.
func NewFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(new(strings.Builder))
	AddFlags(fs)
	return fs
}

// AddFlags declares the configuration flags on fs.
func AddFlags(fs *pflag.FlagSet) {
	fs.String(keyConfig, "", "path to a TOML config file")
	fs.String(keyStateFile, defaultStateFile(), "path to the persisted session state")
	fs.String(keyCatalog, "catalog.toml", "path to the package catalog")
	fs.String(keyScriptsDir, "", "directory of user scripts to watch for reloads")
	fs.String(keyStorageRoot, "", "directory whose subdirectories are offered as storage locations")
	fs.Duration(keyPollInterval, 5*time.Second, "minimum spacing between counter polls")
	fs.Duration(keyTickInterval, 100*time.Millisecond, "render tick interval")
	fs.Duration(keyToolCheckDelay, 2*time.Second, "delay before the tool update check")
	fs.Duration(keyCatalogCheckDelay, 4*time.Second, "delay before the catalog refresh check")
	fs.Int(keyWidth, 0, "desired viewport width in cells (0 uses terminal width)")
	fs.Int(keyHeight, 0, "desired viewport height in rows (0 uses terminal height)")
	fs.Bool(keyFooter, false, "enable footer hint row")
	fs.Bool(keyTrace, false, "enable verbose JSON trace logging")
	fs.Bool(keyVerbose, false, "show rebuild statistics and page errors")
	fs.String(keyLogFile, "", "path to the log file")
	fs.String(keyLogLevel, "info", "minimum log level")
}

func defaultStateFile() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return "assetdesk-session.yaml"
	}
	return filepath.Join(dir, "assetdesk", "session.yaml")
}

// Load parses configuration from CLI arguments and environment variables.
func Load() (Config, error) {
	return LoadArgs(os.Args[1:], os.Environ())
}

// LoadArgs allows tests to supply specific args/environment.
func LoadArgs(args []string, environ []string) (Config, error) {
	fs := NewFlagSet("assetdesk")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return FromFlags(fs, fs.Args(), environ)
}

// FromFlags resolves configuration from an already parsed flag set.
func FromFlags(fs *pflag.FlagSet, args []string, environ []string) (Config, error) {
	env := parseEnv(environ)
	v := viper.New()
	v.SetConfigType("toml")
	if err := v.BindPFlags(fs); err != nil {
		return Config{}, fmt.Errorf("bind flags: %w", err)
	}

	configFile := v.GetString(keyConfig)
	if !fs.Changed(keyConfig) {
		if p, ok := env[envConfig]; ok {
			configFile = p
		}
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}
	// Environment beats the file but never an explicit flag.
	for _, key := range layered {
		if fs.Changed(key) {
			continue
		}
		if val, ok := env[EnvKey(key)]; ok && strings.TrimSpace(val) != "" {
			v.Set(key, val)
		}
	}

	cfg := Config{
		App: app.Config{
			ConfigFile:        configFile,
			StateFile:         v.GetString(keyStateFile),
			CatalogPath:       v.GetString(keyCatalog),
			ScriptsDir:        v.GetString(keyScriptsDir),
			StorageRoot:       v.GetString(keyStorageRoot),
			PollInterval:      v.GetDuration(keyPollInterval),
			TickInterval:      v.GetDuration(keyTickInterval),
			ToolCheckDelay:    v.GetDuration(keyToolCheckDelay),
			CatalogCheckDelay: v.GetDuration(keyCatalogCheckDelay),
			Width:             v.GetInt(keyWidth),
			Height:            v.GetInt(keyHeight),
			ShowFooter:        v.GetBool(keyFooter),
			Verbose:           v.GetBool(keyVerbose),
		},
		Logging: Logging{
			FilePath: v.GetString(keyLogFile),
			Trace:    v.GetBool(keyTrace),
			Level:    v.GetString(keyLogLevel),
		},
		Features: Features{
			Verbose: v.GetBool(keyVerbose),
		},
		Flags: map[string]string{},
		Args:  append([]string(nil), args...),
	}
	cfg.Flags[keyConfig] = configFile
	for _, key := range layered {
		cfg.Flags[key] = v.GetString(key)
	}
	return cfg, nil
}

func parseEnv(environ []string) map[string]string {
	values := make(map[string]string, len(environ))
	for _, entry := range environ {
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, "=", 2)
		if len(parts) != 2 {
			continue
		}
		values[parts[0]] = parts[1]
	}
	return values
}

// Validate rejects configurations the session cannot run with.
func Validate(cfg Config) error {
	a := cfg.App
	if strings.TrimSpace(a.StateFile) == "" {
		return fmt.Errorf("%s must not be empty", keyStateFile)
	}
	for key, d := range map[string]time.Duration{
		keyPollInterval:      a.PollInterval,
		keyTickInterval:      a.TickInterval,
		keyToolCheckDelay:    a.ToolCheckDelay,
		keyCatalogCheckDelay: a.CatalogCheckDelay,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive (got %s)", key, d)
		}
	}
	if a.Width < 0 {
		return fmt.Errorf("width must be >= 0 (got %d)", a.Width)
	}
	if a.Height < 0 {
		return fmt.Errorf("height must be >= 0 (got %d)", a.Height)
	}
	return nil
}
