// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/bodaay/FluxModelDownloader/internal/menu"
	"github.com/bodaay/FluxModelDownloader/internal/tui"
	"github.com/bodaay/FluxModelDownloader/pkg/fluxdl"
)

// RootOpts holds global CLI options that are not download settings.
type RootOpts struct {
	JSONOut  bool
	Quiet    bool
	Verbose  bool
	Config   string
	LogFile  string
	LogLevel string
}

// Execute runs the CLI with the given version string.
func Execute(version string) error {
	ctx, cancel := signalContext(context.Background())
	defer cancel()

	if err := NewRootCmd(version).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return err
	}
	return nil
}

// NewRootCmd builds the command tree. Running it without a subcommand
// shows the model menu and downloads the selection.
func NewRootCmd(version string) *cobra.Command {
	ro := &RootOpts{}
	cfg := fluxdl.DefaultSettings()

	root := &cobra.Command{
		Use:           "fluxdl",
		Short:         "Download FLUX.1 model checkpoints into a ComfyUI install",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := applySettingsDefaults(cmd, ro, &cfg); err != nil {
				return err
			}
			return runInteractive(cmd, ro, cfg)
		},
	}

	pf := root.PersistentFlags()
	pf.BoolVar(&ro.JSONOut, "json", false, "Emit machine-readable JSON progress events on stdout")
	pf.BoolVarP(&ro.Quiet, "quiet", "q", false, "Quiet mode (warnings and errors only, no live bars)")
	pf.BoolVarP(&ro.Verbose, "verbose", "v", false, "Verbose logs (debug details)")
	pf.StringVar(&ro.Config, "config", "", "Path to config file (JSON or YAML)")
	pf.StringVar(&ro.LogFile, "log-file", "", "Write logs to file (in addition to stderr)")
	pf.StringVar(&ro.LogLevel, "log-level", "info", "Log level: debug, info, warn, error")

	pf.StringVar(&cfg.BaseDir, "base-dir", cfg.BaseDir, "Directory that contains the app directory (default: current directory)")
	pf.StringVar(&cfg.AppDir, "app-dir", cfg.AppDir, "Application directory name under base-dir")
	pf.BoolVar(&cfg.Insecure, "insecure", cfg.Insecure, "Skip TLS certificate verification (use --insecure=false to verify)")
	pf.StringVar(&cfg.Timeout, "timeout", cfg.Timeout, "Per-download timeout, e.g. 2h (empty or 0 = none)")
	pf.StringVar(&cfg.ChunkSize, "chunk-size", cfg.ChunkSize, "Read size per chunk, e.g. 1KiB, 64KiB")
	pf.IntVar(&cfg.MaxActiveDownloads, "max-active", cfg.MaxActiveDownloads, "Maximum number of files downloading at once (0 = all)")
	pf.StringVar(&cfg.RateLimit, "rate-limit", cfg.RateLimit, "Per-download rate limit, e.g. 50MiB (empty = unlimited)")
	pf.StringVar(&cfg.Endpoint, "endpoint", cfg.Endpoint, "Mirror endpoint to rebase download URLs on, e.g. https://hf-mirror.com")

	root.AddCommand(newListCmd(ro, &cfg))
	root.AddCommand(newVersionCmd(version))
	root.AddCommand(newConfigCmd())
	root.SetHelpCommand(&cobra.Command{Use: "help", Hidden: true})

	return root
}

func runInteractive(cmd *cobra.Command, ro *RootOpts, cfg fluxdl.Settings) error {
	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()

	logs, err := openLogging(ro)
	if err != nil {
		return err
	}
	defer logs.Close()
	logger := logs.logger(errOut)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	if cfg.Insecure {
		logger.Warn("TLS certificate verification is disabled for downloads", "hint", "pass --insecure=false to verify")
	}

	cat, err := fluxdl.NewCatalog(cfg, fluxdl.DefaultArtifacts())
	if err != nil {
		return err
	}
	targets, err := cat.ResolveAll()
	if err != nil {
		return err
	}
	logger.Debug("resolved targets", "dir", cat.CheckpointsDir(), "count", len(targets))

	// Keep stdout a clean JSON stream.
	promptOut := out
	if ro.JSONOut {
		promptOut = errOut
	}
	choice, err := menu.Prompt(cmd.InOrStdin(), promptOut, menu.Build(targets))
	if err != nil {
		return err
	}
	selected, err := cat.ResolveIDs(choice.IDs...)
	if err != nil {
		return err
	}
	logger.Debug("menu choice", "option", choice.Key, "artifacts", strings.Join(choice.IDs, ","), "reinstall", choice.Reinstall)

	r := newRenderer(cmd, ro, logs)
	fetcher, err := fluxdl.NewFetcher(cfg, r.logger, r.progress)
	if err != nil {
		r.close()
		return err
	}
	report := fluxdl.Dispatch(cmd.Context(), fetcher, selected, choice.Reinstall, cfg.MaxActiveDownloads)
	r.close()

	if !ro.JSONOut {
		tui.PrintSummary(out, report)
	}
	if failed := report.Failed(); len(failed) > 0 {
		return fmt.Errorf("%d of %d downloads failed", len(failed), len(report.Outcomes))
	}
	return nil
}

func newListCmd(ro *RootOpts, cfg *fluxdl.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List known models and whether they are already downloaded",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := applySettingsDefaults(cmd, ro, cfg); err != nil {
				return err
			}
			cat, err := fluxdl.NewCatalog(*cfg, fluxdl.DefaultArtifacts())
			if err != nil {
				return err
			}
			targets, err := cat.ResolveAll()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if ro.JSONOut {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(targets)
			}
			fmt.Fprintf(out, "Checkpoints: %s\n", cat.CheckpointsDir())
			for _, t := range targets {
				state := "missing"
				if t.Exists {
					state = "present"
				}
				fmt.Fprintf(out, "  %-8s %-14s %7s  %s\n", t.Artifact.ID, t.Artifact.Name, t.Artifact.SizeHint, state)
			}
			return nil
		},
	}
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-ch:
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(ch)
	}()
	return ctx, cancel
}

// applySettingsDefaults fills every flag the user did not set from the
// config file, if one exists.
func applySettingsDefaults(cmd *cobra.Command, ro *RootOpts, dst *fluxdl.Settings) error {
	path := ro.Config
	if path == "" {
		path = findConfig()
	}
	if path == "" {
		return nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var cfg map[string]any

	// Parse based on file extension
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return fmt.Errorf("invalid YAML config file: %w", err)
		}
	default: // .json or unknown
		if err := json.Unmarshal(b, &cfg); err != nil {
			return fmt.Errorf("invalid JSON config file: %w", err)
		}
	}

	var errs []string
	setStr := func(flagName string, set func(string)) {
		if cmd.Flags().Changed(flagName) {
			return
		}
		if v, ok := cfg[flagName]; ok && v != nil {
			set(fmt.Sprint(v))
		}
	}
	setInt := func(flagName string, set func(int)) {
		setStr(flagName, func(s string) {
			x, err := strconv.Atoi(s)
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s: not an integer: %q", flagName, s))
				return
			}
			set(x)
		})
	}
	setBool := func(flagName string, set func(bool)) {
		setStr(flagName, func(s string) {
			x, err := strconv.ParseBool(s)
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s: not a boolean: %q", flagName, s))
				return
			}
			set(x)
		})
	}

	setStr("base-dir", func(v string) { dst.BaseDir = v })
	setStr("app-dir", func(v string) { dst.AppDir = v })
	setBool("insecure", func(v bool) { dst.Insecure = v })
	setStr("timeout", func(v string) { dst.Timeout = v })
	setStr("chunk-size", func(v string) { dst.ChunkSize = v })
	setInt("max-active", func(v int) { dst.MaxActiveDownloads = v })
	setStr("rate-limit", func(v string) { dst.RateLimit = v })
	setStr("endpoint", func(v string) { dst.Endpoint = v })
	setStr("log-level", func(v string) { ro.LogLevel = v })

	if len(errs) > 0 {
		return fmt.Errorf("config file %s: %s", path, strings.Join(errs, "; "))
	}
	return nil
}
