package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/atomicstack/gridsync/internal/app"
	"github.com/atomicstack/gridsync/internal/config"
	"github.com/atomicstack/gridsync/internal/logging"
	"github.com/atomicstack/gridsync/internal/logging/events"
	"github.com/atomicstack/gridsync/internal/store"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	cmd := newRootCmd(os.Args[1:], os.Environ(), app.Run)
	if err := cmd.Execute(); err != nil {
		if errors.Is(err, config.ErrInvalid) {
			fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
			os.Exit(2)
		}
		logging.Error(err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newRootCmd builds the gridsync command. run receives the validated
// application config once logging is set up.
func newRootCmd(args, environ []string, run func(app.Config) error) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gridsync",
		Short: "Edit a two-column table and mirror it to a peer over UDP",
		Long: `gridsync shows the rows of a database table as an editable grid.

In send mode every edit is written to the database and the whole grid is
pushed to the peer at --connect, once per edit and once per --interval.
In receive mode the grid mirrors what the peer sends and is read-only.`,
		Args: func(cmd *cobra.Command, rest []string) error {
			if err := cobra.NoArgs(cmd, rest); err != nil {
				return fmt.Errorf("%w: %w", config.ErrInvalid, err)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetArgs(args)
	values := config.Bind(cmd.Flags(), environ)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %w", config.ErrInvalid, err)
	})
	cmd.RunE = func(_ *cobra.Command, _ []string) error {
		runtimeCfg, err := values.Config(args)
		if err != nil {
			return err
		}
		logging.Configure(runtimeCfg.Logging.FilePath)
		logging.SetTraceEnabled(runtimeCfg.Logging.Trace)
		defer logging.Close()

		traceStartup(runtimeCfg)
		return run(runtimeCfg.App)
	}
	return cmd
}

func traceStartup(cfg config.Config) {
	events.App.Start(startupTracePayload(cfg))
}

// startupTracePayload bundles runtime context for trace logging.
func startupTracePayload(cfg config.Config) map[string]interface{} {
	cfg = redactConfig(cfg)
	flags := make(map[string]interface{}, len(cfg.Flags))
	for k, v := range cfg.Flags {
		flags[k] = v
	}
	flags["trace"] = cfg.Logging.Trace
	flags["logFile"] = cfg.Logging.FilePath
	payload := map[string]interface{}{
		"argv":   cfg.Args,
		"flags":  flags,
		"config": cfg,
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

// redactConfig strips database passwords from everything the startup trace
// records. cfg's map and slice are copied, not modified.
func redactConfig(cfg config.Config) config.Config {
	cfg.App.DBURL = store.RedactURL(cfg.App.DBURL)
	flags := make(map[string]string, len(cfg.Flags))
	for k, v := range cfg.Flags {
		flags[k] = v
	}
	if db, ok := flags["db"]; ok {
		flags["db"] = store.RedactURL(db)
	}
	cfg.Flags = flags
	args := make([]string, len(cfg.Args))
	for i, arg := range cfg.Args {
		args[i] = redactArg(arg)
	}
	cfg.Args = args
	return cfg
}

func redactArg(arg string) string {
	if !strings.Contains(arg, "://") {
		return arg
	}
	if name, value, ok := strings.Cut(arg, "="); ok && strings.HasPrefix(name, "-") {
		return name + "=" + store.RedactURL(value)
	}
	return store.RedactURL(arg)
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
		} else {
			entry.IsTerminal = false
		}
		results = append(results, entry)
	}
	return ttyDetails{Detected: detected, Probes: results}
}
