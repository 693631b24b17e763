// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SlateBridge Contributors

// Package launch prepares the environment Vantage needs to pick up the
// bridge at startup. Vantage scans VANTAGE_PLUGIN_PATH for entry plugins;
// publishing prepends the bridge's startup directory to that variable so
// the host finds the bootstrap entry on its next start.
package launch

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/samber/oops"

	"github.com/slatebridge/slatebridge/internal/locate"
)

// ErrUnsupportedPlatform is returned when the host's plugin-path
// convention is unknown for a platform.
var ErrUnsupportedPlatform = errors.New("unsupported platform")

// EngineName identifies this engine to the toolkit core.
const EngineName = "vantage"

// PluginPathVar is the search-path variable Vantage scans at startup.
const PluginPathVar = "VANTAGE_PLUGIN_PATH"

// EngineVar tells the bootstrap which engine instance to start.
const EngineVar = "SLATE_ENGINE"

// pathListSeparator returns the platform's search-path separator.
// Keyed on the installation's platform, not the machine running publish.
func pathListSeparator(platform string) (string, error) {
	switch platform {
	case "windows":
		return ";", nil
	case "darwin", "linux":
		return ":", nil
	default:
		return "", oops.
			Code("UNSUPPORTED_PLATFORM").
			With("platform", platform).
			Wrapf(ErrUnsupportedPlatform, "no plugin-path convention for %q", platform)
	}
}

// Publisher computes environment mutations for a selected installation.
type Publisher struct {
	startupDir string
}

// NewPublisher creates a publisher whose entry files live in startupDir.
func NewPublisher(startupDir string) *Publisher {
	return &Publisher{startupDir: startupDir}
}

// Publish returns the variable assignments that make the host discover
// the bootstrap entry. env is the current environment; existing search
// path entries are preserved, with the startup dir prepended exactly
// once. Publishing twice yields the same result.
func (p *Publisher) Publish(install locate.Installation, env map[string]string) (map[string]string, error) {
	sep, err := pathListSeparator(install.Platform)
	if err != nil {
		return nil, err
	}

	mutations := map[string]string{
		PluginPathVar: prependPath(env[PluginPathVar], p.startupDir, sep),
		EngineVar:     EngineName,
	}

	slog.Debug("computed launch environment",
		"installation", install.String(),
		"plugin_path", mutations[PluginPathVar])

	return mutations, nil
}

// prependPath puts entry at the front of a search-path value, removing
// any existing occurrences and empty segments.
func prependPath(existing, entry, sep string) string {
	parts := []string{entry}
	for _, p := range strings.Split(existing, sep) {
		if p == "" || p == entry {
			continue
		}
		parts = append(parts, p)
	}
	return strings.Join(parts, sep)
}
