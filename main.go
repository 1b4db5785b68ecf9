package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/atomicstack/assetdesk/internal/app"
	"github.com/atomicstack/assetdesk/internal/config"
	"github.com/atomicstack/assetdesk/internal/logging"
	"github.com/atomicstack/assetdesk/internal/logging/events"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var version = "0.1.0"

type configError struct{ err error }

func (e configError) Error() string { return "configuration error: " + e.err.Error() }
func (e configError) Unwrap() error { return e.err }

func main() {
	if err := newRootCmd(os.Environ()).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		var cfgErr configError
		if errors.As(err, &cfgErr) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func newRootCmd(environ []string) *cobra.Command {
	root := &cobra.Command{
		Use:           "assetdesk",
		Short:         "Browse and maintain a local asset catalog",
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, args, environ)
			if err != nil {
				return err
			}
			defer logging.Close()
			traceStartup(cfg)
			if err := app.Run(cfg.App); err != nil {
				logging.Error(err)
				return err
			}
			return nil
		},
	}
	config.AddFlags(root.PersistentFlags())
	root.AddCommand(newResetSetupCmd(environ))
	return root
}

func newResetSetupCmd(environ []string) *cobra.Command {
	return &cobra.Command{
		Use:   "reset-setup",
		Short: "Run the setup pages again on the next start",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, args, environ)
			if err != nil {
				return err
			}
			defer logging.Close()
			if err := app.ResetSetup(cfg.App.StateFile); err != nil {
				logging.Error(err)
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "setup progress cleared in %s\n", cfg.App.StateFile)
			return nil
		},
	}
}

// loadConfig resolves and validates configuration, then configures logging.
func loadConfig(cmd *cobra.Command, args []string, environ []string) (config.Config, error) {
	cfg, err := config.FromFlags(cmd.Flags(), args, environ)
	if err != nil {
		return config.Config{}, configError{err}
	}
	if err := config.Validate(cfg); err != nil {
		return config.Config{}, configError{err}
	}
	cfg.App.ToolVersion = version
	logging.Configure(cfg.Logging.FilePath)
	logging.SetLevel(cfg.Logging.Level)
	logging.SetTraceEnabled(cfg.Logging.Trace)
	return cfg, nil
}

func traceStartup(cfg config.Config) {
	events.App.Start(startupTracePayload(cfg))
}

// startupTracePayload bundles runtime context for trace logging.
func startupTracePayload(cfg config.Config) map[string]interface{} {
	flags := make(map[string]interface{}, len(cfg.Flags))
	for k, v := range cfg.Flags {
		flags[k] = v
	}
	flags["trace"] = cfg.Logging.Trace
	flags["logFile"] = cfg.Logging.FilePath
	payload := map[string]interface{}{
		"argv":    cfg.Args,
		"flags":   flags,
		"config":  cfg,
		"version": version,
	}
	if exe, err := os.Executable(); err == nil {
		payload["executable"] = exe
	} else {
		payload["executableError"] = err.Error()
	}
	if cwd, err := os.Getwd(); err == nil {
		payload["cwd"] = cwd
	} else {
		payload["cwdError"] = err.Error()
	}
	payload["tty"] = collectTTYDetails()
	return payload
}

type ttyDetails struct {
	Detected *ttyDetected     `json:"detected,omitempty"`
	Probes   []ttyProbeResult `json:"probes"`
}

type ttyDetected struct {
	Source string `json:"source"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type ttyProbeResult struct {
	Name       string `json:"name"`
	IsTerminal bool   `json:"is_terminal"`
	Width      int    `json:"width,omitempty"`
	Height     int    `json:"height,omitempty"`
	Error      string `json:"error,omitempty"`
}

// collectTTYDetails inspects standard descriptors for terminal support and dimensions.
func collectTTYDetails() ttyDetails {
	probes := []struct {
		name string
		fd   uintptr
	}{
		{"stdin", os.Stdin.Fd()},
		{"stdout", os.Stdout.Fd()},
		{"stderr", os.Stderr.Fd()},
	}
	results := make([]ttyProbeResult, 0, len(probes))
	var detected *ttyDetected
	for _, probe := range probes {
		entry := ttyProbeResult{Name: probe.name}
		fd := int(probe.fd)
		if fd >= 0 && term.IsTerminal(fd) {
			entry.IsTerminal = true
			if width, height, err := term.GetSize(fd); err == nil {
				entry.Width = width
				entry.Height = height
				if detected == nil {
					detected = &ttyDetected{Source: probe.name, Width: width, Height: height}
				}
			} else {
				entry.Error = err.Error()
			}
		}
		results = append(results, entry)
	}
	return ttyDetails{Detected: detected, Probes: results}
}
