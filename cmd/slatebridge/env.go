// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SlateBridge Contributors

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/spf13/cobra"

	"github.com/slatebridge/slatebridge/internal/launch"
	"github.com/slatebridge/slatebridge/internal/locate"
	"github.com/slatebridge/slatebridge/internal/paths"
)

// envConfig holds configuration for the env command.
type envConfig struct {
	platform   string
	version    string
	startupDir string
	jsonOutput bool
}

// newEnvCmd creates the env subcommand with all flags configured.
func newEnvCmd() *cobra.Command {
	cfg := &envConfig{}

	cmd := &cobra.Command{
		Use:   "env",
		Short: "Print the launch environment for a Vantage installation",
		Long: `Select a Vantage installation (newest by default) and print the
environment variable assignments that make it pick up the bridge at its
next start. Safe to apply repeatedly; the plugin path never gains
duplicate entries.

Apply with: eval "$(slatebridge env)"`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runEnv(cmd, cfg)
		},
	}

	// Register flags
	cmd.Flags().StringVar(&cfg.platform, "platform", runtime.GOOS, "platform to scan for (darwin, linux, windows)")
	cmd.Flags().StringVar(&cfg.version, "version", "", "select an exact installation version instead of the newest")
	cmd.Flags().StringVar(&cfg.startupDir, "startup-dir", defaultStartupDir(), "directory holding the bridge's host entry plugin")
	cmd.Flags().BoolVar(&cfg.jsonOutput, "json", false, "output assignments as JSON")

	return cmd
}

// defaultStartupDir is where the bridge's entry plugin is installed.
func defaultStartupDir() string {
	return filepath.Join(paths.ConfigDir(), "startup")
}

// runEnv executes the env command.
func runEnv(cmd *cobra.Command, cfg *envConfig) error {
	installs, err := locate.NewScanner().Discover(cfg.platform)
	if err != nil {
		return err
	}

	install, err := locate.Select(installs, cfg.version)
	if err != nil {
		return err
	}

	env := map[string]string{
		launch.PluginPathVar: os.Getenv(launch.PluginPathVar),
	}
	mutations, err := launch.NewPublisher(cfg.startupDir).Publish(install, env)
	if err != nil {
		return err
	}

	if cfg.jsonOutput {
		data, err := json.MarshalIndent(mutations, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal environment: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	// Stable order so the output diffs cleanly.
	keys := make([]string, 0, len(mutations))
	for k := range mutations {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		cmd.Printf("export %s=%q\n", k, mutations[k])
	}
	return nil
}
