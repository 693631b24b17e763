// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SlateBridge Contributors

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/slatebridge/slatebridge/internal/hook"
	"github.com/slatebridge/slatebridge/internal/locate"
	"github.com/slatebridge/slatebridge/internal/paths"
	"github.com/slatebridge/slatebridge/internal/toolkit"
)

// bridgeStatus is the overall readiness report: can the bridge bootstrap
// on this machine without touching the network?
type bridgeStatus struct {
	Platform      string             `json:"platform"`
	Installations []installationInfo `json:"installations"`
	CachedCores   []string           `json:"cached_cores"`
	HooksManifest string             `json:"hooks_manifest"`
	HooksError    string             `json:"hooks_error,omitempty"`
	Ready         bool               `json:"ready"`
}

// statusConfig holds configuration for the status command.
type statusConfig struct {
	jsonOutput bool
	cacheRoot  string
}

// newStatusCmd creates the status subcommand with all flags configured.
func newStatusCmd() *cobra.Command {
	cfg := &statusConfig{}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Report whether the bridge can bootstrap on this machine",
		Long: `Check the pieces a host-side bootstrap needs: at least one Vantage
installation, a cached toolkit core, and a valid hooks manifest.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd, cfg)
		},
	}

	// Register flags
	cmd.Flags().BoolVar(&cfg.jsonOutput, "json", false, "output status as JSON")
	cmd.Flags().StringVar(&cfg.cacheRoot, "cache-root", paths.CoreCacheDir(), "toolkit core cache directory")

	return cmd
}

// runStatus executes the status command.
func runStatus(cmd *cobra.Command, cfg *statusConfig) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	status := bridgeStatus{Platform: runtime.GOOS}

	installs, err := locate.NewScanner().Discover(runtime.GOOS)
	if err != nil && !errors.Is(err, locate.ErrNotFound) {
		return err
	}
	status.Installations = installationInfos(installs)

	versions, err := toolkit.NewCache(cfg.cacheRoot).List()
	if err != nil {
		return err
	}
	for _, v := range versions {
		status.CachedCores = append(status.CachedCores, v.Original())
	}

	status.HooksManifest, status.HooksError = checkHooksManifest(s.HooksManifestPath())

	status.Ready = len(status.Installations) > 0 &&
		len(status.CachedCores) > 0 &&
		status.HooksError == ""

	if cfg.jsonOutput {
		data, err := json.MarshalIndent(status, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal status: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Println(formatStatus(status))
	return nil
}

// checkHooksManifest parses and validates the configured manifest. An
// unset path means the built-in default hooks.
func checkHooksManifest(path string) (name string, errStr string) {
	if path == "" {
		return "built-in defaults", ""
	}
	data, err := os.ReadFile(path) //nolint:gosec // user-supplied path
	if err != nil {
		return path, err.Error()
	}
	if _, err := hook.ParseManifest(data); err != nil {
		return path, err.Error()
	}
	return path, ""
}

// formatStatus renders the human-readable report.
func formatStatus(status bridgeStatus) string {
	var buf []byte
	w := (*byteWriter)(&buf)

	if len(status.Installations) == 0 {
		_, _ = fmt.Fprintf(w, "installations: none found\n")
	} else {
		_, _ = fmt.Fprintf(w, "installations: %d (newest %s)\n",
			len(status.Installations), status.Installations[0].Version)
	}
	if len(status.CachedCores) == 0 {
		_, _ = fmt.Fprintf(w, "cached cores:  none\n")
	} else {
		_, _ = fmt.Fprintf(w, "cached cores:  %d (newest %s)\n",
			len(status.CachedCores), status.CachedCores[0])
	}
	if status.HooksError != "" {
		_, _ = fmt.Fprintf(w, "hooks:         %s (invalid: %s)\n", status.HooksManifest, status.HooksError)
	} else {
		_, _ = fmt.Fprintf(w, "hooks:         %s\n", status.HooksManifest)
	}
	if status.Ready {
		_, _ = fmt.Fprintf(w, "ready:         yes\n")
	} else {
		_, _ = fmt.Fprintf(w, "ready:         no\n")
	}

	return string(buf)
}
