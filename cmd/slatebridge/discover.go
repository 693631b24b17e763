// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SlateBridge Contributors

package main

import (
	"encoding/json"
	"fmt"
	"runtime"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/slatebridge/slatebridge/internal/locate"
)

// installationInfo is the JSON shape for one discovered installation.
type installationInfo struct {
	Path       string `json:"path"`
	Version    string `json:"version"`
	Platform   string `json:"platform"`
	Executable string `json:"executable"`
}

// discoverConfig holds configuration for the discover command.
type discoverConfig struct {
	platform   string
	jsonOutput bool
}

// newDiscoverCmd creates the discover subcommand with all flags configured.
func newDiscoverCmd() *cobra.Command {
	cfg := &discoverConfig{}

	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Find Vantage installations on this machine",
		Long: `Scan the platform's conventional install locations for Vantage
installations and list them newest first. Partial installations are
skipped silently.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDiscover(cmd, cfg)
		},
	}

	// Register flags
	cmd.Flags().StringVar(&cfg.platform, "platform", runtime.GOOS, "platform to scan for (darwin, linux, windows)")
	cmd.Flags().BoolVar(&cfg.jsonOutput, "json", false, "output installations as JSON")

	return cmd
}

// runDiscover executes the discover command.
func runDiscover(cmd *cobra.Command, cfg *discoverConfig) error {
	installs, err := locate.NewScanner().Discover(cfg.platform)
	if err != nil {
		return err
	}

	if cfg.jsonOutput {
		out, err := formatInstallationsJSON(installs)
		if err != nil {
			return err
		}
		cmd.Println(out)
		return nil
	}

	cmd.Println(formatInstallationsTable(installs))
	return nil
}

func installationInfos(installs []locate.Installation) []installationInfo {
	infos := make([]installationInfo, 0, len(installs))
	for _, in := range installs {
		infos = append(infos, installationInfo{
			Path:       in.Path,
			Version:    in.Version.String(),
			Platform:   in.Platform,
			Executable: in.Executable,
		})
	}
	return infos
}

func formatInstallationsJSON(installs []locate.Installation) (string, error) {
	data, err := json.MarshalIndent(installationInfos(installs), "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal installations: %w", err)
	}
	return string(data), nil
}

func formatInstallationsTable(installs []locate.Installation) string {
	var buf []byte
	w := tabwriter.NewWriter((*byteWriter)(&buf), 0, 0, 2, ' ', 0)

	_, _ = fmt.Fprintln(w, "VERSION\tPATH")
	_, _ = fmt.Fprintln(w, "-------\t----")
	for _, in := range installs {
		_, _ = fmt.Fprintf(w, "%s\t%s\n", in.Version, in.Path)
	}

	_ = w.Flush()
	return string(buf)
}

// byteWriter is a simple writer that appends to a byte slice.
type byteWriter []byte

func (w *byteWriter) Write(p []byte) (int, error) {
	*w = append(*w, p...)
	return len(p), nil
}
