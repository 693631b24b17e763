// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SlateBridge Contributors

// Package paths provides per-user directories for SlateBridge state.
package paths

import (
	"fmt"
	"os"
	"path/filepath"
)

const appName = "slatebridge"

// ConfigDir returns the config directory for slatebridge.
// Checks XDG_CONFIG_HOME first, falls back to ~/.config.
func ConfigDir() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		base = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(base, appName)
}

// CacheDir returns the cache directory for slatebridge.
// Checks XDG_CACHE_HOME first, falls back to ~/.cache.
// Cached toolkit cores live under CacheDir()/cores/<version>.
func CacheDir() string {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		base = filepath.Join(os.Getenv("HOME"), ".cache")
	}
	return filepath.Join(base, appName)
}

// CoreCacheDir returns the directory holding cached toolkit cores.
func CoreCacheDir() string {
	return filepath.Join(CacheDir(), "cores")
}

// LogDir returns the log directory for slatebridge.
// Checks XDG_STATE_HOME first, falls back to ~/.local/state.
func LogDir() string {
	base := os.Getenv("XDG_STATE_HOME")
	if base == "" {
		base = filepath.Join(os.Getenv("HOME"), ".local", "state")
	}
	return filepath.Join(base, appName, "logs")
}

// EnsureDir creates a directory and all parent directories if they don't exist.
// Directories are created with 0700 permissions.
func EnsureDir(path string) error {
	if err := os.MkdirAll(path, 0o700); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", path, err)
	}
	return nil
}
