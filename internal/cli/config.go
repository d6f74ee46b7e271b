// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/bodaay/FluxModelDownloader/pkg/fluxdl"
)

// configNames lists the config files looked up in ~/.config, in order.
var configNames = []string{"fluxdl.json", "fluxdl.yaml", "fluxdl.yml"}

// DefaultConfig returns the default configuration as written by
// "config init".
func DefaultConfig() map[string]any {
	s := fluxdl.DefaultSettings()
	return map[string]any{
		"base-dir":   s.BaseDir,
		"app-dir":    s.AppDir,
		"insecure":   s.Insecure,
		"timeout":    s.Timeout,
		"chunk-size": s.ChunkSize,
		"max-active": s.MaxActiveDownloads,
		"rate-limit": s.RateLimit,
		"endpoint":   s.Endpoint,
		"log-level":  "info",
	}
}

func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not find home directory: %w", err)
	}
	return filepath.Join(home, ".config"), nil
}

// findConfig returns the first existing config file, or "".
func findConfig() string {
	dir, err := configDir()
	if err != nil {
		return ""
	}
	for _, name := range configNames {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigPathCmd())

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var (
		force   bool
		useYAML bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a default configuration file",
		Long: `Creates a default configuration file at ~/.config/fluxdl.json (or .yaml)

The configuration file sets default values for the global flags.
CLI flags always override config file values.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := configDir()
			if err != nil {
				return err
			}

			ext := ".json"
			if useYAML {
				ext = ".yaml"
			}
			configPath := filepath.Join(dir, "fluxdl"+ext)

			if _, err := os.Stat(configPath); err == nil && !force {
				return fmt.Errorf("config file already exists: %s\nUse --force to overwrite", configPath)
			}

			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("could not create config directory: %w", err)
			}

			cfg := DefaultConfig()
			var data []byte
			if useYAML {
				data, err = yaml.Marshal(cfg)
			} else {
				data, err = json.MarshalIndent(cfg, "", "  ")
			}
			if err != nil {
				return err
			}

			if err := os.WriteFile(configPath, data, 0o644); err != nil {
				return fmt.Errorf("could not write config file: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "✓ Created config file: %s\n", configPath)
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Edit this file to set your defaults. For example:")
			fmt.Fprintln(out, "  - Point base-dir at the directory holding ComfyUI")
			fmt.Fprintln(out, "  - Set insecure: false to verify TLS certificates")
			fmt.Fprintln(out, "  - Use a mirror endpoint or a rate limit")

			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite existing config file")
	cmd.Flags().BoolVar(&useYAML, "yaml", false, "Create YAML config instead of JSON")

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			configPath := findConfig()
			if configPath == "" {
				dir, err := configDir()
				if err != nil {
					return err
				}
				fmt.Fprintln(out, "No config file found.")
				fmt.Fprintf(out, "Run 'fluxdl config init' to create one at:\n  %s\n", filepath.Join(dir, configNames[0]))
				return nil
			}

			data, err := os.ReadFile(configPath)
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "Config file: %s\n\n", configPath)
			fmt.Fprintln(out, string(data))

			return nil
		},
	}
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath := findConfig()
			if configPath == "" {
				dir, err := configDir()
				if err != nil {
					return err
				}
				configPath = filepath.Join(dir, configNames[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), configPath)
			return nil
		},
	}
}
