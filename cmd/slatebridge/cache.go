// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SlateBridge Contributors

package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/slatebridge/slatebridge/internal/paths"
	"github.com/slatebridge/slatebridge/internal/toolkit"
)

// cacheConfig holds configuration shared by the cache subcommands.
type cacheConfig struct {
	root    string
	baseURL string
	version string
}

// newCacheCmd creates the cache subcommand tree.
func newCacheCmd() *cobra.Command {
	cfg := &cacheConfig{}

	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the local Slate toolkit core cache",
		Long: `The toolkit core is cached per user so host startup never touches
the network. Fetch cores ahead of time; the bridge resolves from the
cache only.`,
	}

	cmd.PersistentFlags().StringVar(&cfg.root, "root", paths.CoreCacheDir(), "cache directory")

	cmd.AddCommand(newCacheListCmd(cfg))
	cmd.AddCommand(newCacheFetchCmd(cfg))

	return cmd
}

// newCacheListCmd creates the cache list subcommand.
func newCacheListCmd(cfg *cacheConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cached toolkit core versions, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			versions, err := toolkit.NewCache(cfg.root).List()
			if err != nil {
				return err
			}
			if len(versions) == 0 {
				cmd.Println("cache is empty")
				return nil
			}
			for _, v := range versions {
				cmd.Println(v.Original())
			}
			return nil
		},
	}
}

// newCacheFetchCmd creates the cache fetch subcommand.
func newCacheFetchCmd(cfg *cacheConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download a toolkit core version into the cache",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCacheFetch(cmd, cfg)
		},
	}

	cmd.Flags().StringVar(&cfg.baseURL, "base-url", "", "core download base URL (defaults to settings core.base_url)")
	cmd.Flags().StringVar(&cfg.version, "core-version", "", "core version to fetch (defaults to settings core.version)")

	return cmd
}

// runCacheFetch executes the cache fetch subcommand.
func runCacheFetch(cmd *cobra.Command, cfg *cacheConfig) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	baseURL := cfg.baseURL
	if baseURL == "" {
		baseURL = s.CoreBaseURL()
	}
	version := cfg.version
	if version == "" {
		version = s.CoreVersion()
	}
	if baseURL == "" || version == "" {
		return oops.Code("CONFIG_INVALID").
			Errorf("a base URL and core version are required, via flags or the settings file")
	}

	path, err := toolkit.NewCache(cfg.root).Fetch(cmd.Context(), baseURL, version)
	if err != nil {
		return err
	}

	cmd.Printf("cached core %s at %s\n", version, path)
	return nil
}
