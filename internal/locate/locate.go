// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SlateBridge Contributors

// Package locate discovers Vantage installations on the local machine.
package locate

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/gobwas/glob"
	"github.com/samber/oops"
)

// ErrNotFound is returned when discovery yields no installations.
var ErrNotFound = errors.New("no installations found")

// Installation is a discovered Vantage install. Immutable once found.
type Installation struct {
	Path       string
	Version    *semver.Version
	Platform   string
	Executable string
}

// String returns a human readable description of the installation.
func (i Installation) String() string {
	return "Vantage " + i.Version.String() + " (" + i.Path + ")"
}

// dirPattern matches installation directory names, e.g. "Vantage 2.4.1".
var dirPattern = glob.MustCompile("[Vv]antage?*")

// defaultRoots lists the install locations Vantage uses per platform.
var defaultRoots = map[string][]string{
	"darwin":  {"/Applications", "/Users/Shared/Vantage"},
	"linux":   {"/opt/vantage", "/usr/local/vantage"},
	"windows": {`C:\Program Files\Vantage`},
}

// executableRelPath is the path of the editor binary inside an installation.
var executableRelPath = map[string]string{
	"darwin":  "Vantage.app/Contents/MacOS/Vantage",
	"linux":   "bin/vantage",
	"windows": `bin\vantage.exe`,
}

// Scanner probes the filesystem for Vantage installations.
// It requires no running host process and has no side effects.
type Scanner struct {
	roots map[string][]string
}

// ScannerOption configures the Scanner.
type ScannerOption func(*Scanner)

// WithRoots overrides the per-platform install roots. Used by tests and
// by site configs that install Vantage in non-standard locations.
func WithRoots(roots map[string][]string) ScannerOption {
	return func(s *Scanner) {
		s.roots = roots
	}
}

// NewScanner creates a scanner with the default install roots.
func NewScanner(opts ...ScannerOption) *Scanner {
	s := &Scanner{roots: defaultRoots}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Discover returns all valid installations for the platform, newest first.
// Malformed or partial installations are skipped, never reported as errors.
// Returns ErrNotFound when nothing valid is present.
func (s *Scanner) Discover(platform string) ([]Installation, error) {
	relExec, ok := executableRelPath[platform]
	if !ok {
		return nil, oops.
			Code("UNSUPPORTED_PLATFORM").
			With("platform", platform).
			Errorf("no install layout known for platform %q", platform)
	}

	var installs []Installation
	for _, root := range s.roots[platform] {
		entries, err := os.ReadDir(root)
		if err != nil {
			// Roots that don't exist on this machine are normal.
			slog.Debug("skipping unreadable install root", "root", root, "error", err)
			continue
		}

		for _, entry := range entries {
			if !entry.IsDir() || !dirPattern.Match(entry.Name()) {
				continue
			}

			version, err := versionFromDirName(entry.Name())
			if err != nil {
				slog.Debug("skipping directory without parseable version",
					"dir", entry.Name(),
					"error", err)
				continue
			}

			installPath := filepath.Join(root, entry.Name())
			execPath := filepath.Join(installPath, filepath.FromSlash(relExec))
			if _, err := os.Stat(execPath); err != nil {
				slog.Debug("skipping partial installation, executable missing",
					"path", installPath,
					"error", err)
				continue
			}

			installs = append(installs, Installation{
				Path:       installPath,
				Version:    version,
				Platform:   platform,
				Executable: execPath,
			})
		}
	}

	if len(installs) == 0 {
		return nil, oops.
			Code("NOT_FOUND").
			With("platform", platform).
			Wrapf(ErrNotFound, "no vantage installations on %s", platform)
	}

	sort.Slice(installs, func(i, j int) bool {
		return installs[i].Version.GreaterThan(installs[j].Version)
	})
	return installs, nil
}

// Select picks one installation from a discovered set. An empty version
// selects the newest; otherwise the exact version must be present.
func Select(installs []Installation, version string) (Installation, error) {
	if len(installs) == 0 {
		return Installation{}, oops.Code("NOT_FOUND").Wrapf(ErrNotFound, "nothing to select from")
	}
	if version == "" {
		return installs[0], nil
	}

	want, err := semver.NewVersion(version)
	if err != nil {
		return Installation{}, oops.
			Code("NOT_FOUND").
			With("version", version).
			Wrapf(err, "invalid version override %q", version)
	}
	for _, inst := range installs {
		if inst.Version.Equal(want) {
			return inst, nil
		}
	}
	return Installation{}, oops.
		Code("NOT_FOUND").
		With("version", version).
		Wrapf(ErrNotFound, "version %s is not installed", version)
}

// versionFromDirName extracts the semver from names like "Vantage 2.4.1"
// or "vantage-2.4".
func versionFromDirName(name string) (*semver.Version, error) {
	rest := strings.TrimLeft(name[len("vantage"):], " -_")
	return semver.NewVersion(rest)
}
