// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SlateBridge Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/slatebridge/slatebridge/internal/launch"
	"github.com/slatebridge/slatebridge/internal/logging"
	"github.com/slatebridge/slatebridge/internal/settings"
)

// Global flags available to all subcommands.
var (
	configFile string
	logFormat  string
)

// NewRootCmd creates the root command for the SlateBridge CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "slatebridge",
		Short: "SlateBridge - Slate pipeline toolkit integration for Vantage",
		Long: `SlateBridge embeds the Slate pipeline toolkit inside the Vantage
content-creation application. The CLI covers the outside-the-host steps:
finding Vantage installations, publishing the launch environment, and
managing the cached toolkit core.`,
	}

	// Global flags
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "settings file path")
	cmd.PersistentFlags().StringVar(&logFormat, "log-format", "json", "log format (json or text)")

	cmd.PersistentPreRun = func(*cobra.Command, []string) {
		logging.SetDefault(launch.EngineName, version, logFormat)
	}

	// Add subcommands
	cmd.AddCommand(newDiscoverCmd())
	cmd.AddCommand(newEnvCmd())
	cmd.AddCommand(newCacheCmd())
	cmd.AddCommand(newStatusCmd())

	return cmd
}

// loadSettings reads the settings file named by --config, overlaying the
// command's flags. No --config yields empty settings.
func loadSettings(cmd *cobra.Command) (*settings.Settings, error) {
	if configFile == "" {
		return settings.Empty(), nil
	}
	return settings.Load(configFile, cmd.Flags())
}
