// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SlateBridge Contributors

package hook

import (
	"fmt"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Manifest represents a hooks.yaml file mapping each capability to a
// named implementation. Missing entries fall back to the defaults.
type Manifest struct {
	CreatePanelContainer string `yaml:"create_panel_container" json:"create_panel_container"`
	GetCurrentContext    string `yaml:"get_current_context" json:"get_current_context"`
	WriteToConsole       string `yaml:"write_to_console" json:"write_to_console"`
	GetSelection         string `yaml:"get_selection" json:"get_selection"`
}

// maxNameLength is the maximum allowed length for hook implementation names.
const maxNameLength = 64

// namePattern validates hook names: must start with a lowercase letter,
// followed by lowercase letters, digits, or hyphens.
// Cannot end with a hyphen. Single character names are allowed.
var namePattern = regexp.MustCompile(`^[a-z]([a-z0-9-]*[a-z0-9])?$`)

// DefaultManifest returns a manifest selecting the built-in defaults.
func DefaultManifest() *Manifest {
	return &Manifest{
		CreatePanelContainer: DefaultName,
		GetCurrentContext:    DefaultName,
		WriteToConsole:       DefaultName,
		GetSelection:         DefaultName,
	}
}

// ParseManifest parses and validates a hooks.yaml file.
func ParseManifest(data []byte) (*Manifest, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("manifest data is empty")
	}

	m := DefaultManifest()
	if err := yaml.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}

	return m, nil
}

// Validate checks manifest constraints.
func (m *Manifest) Validate() error {
	for capability, name := range map[string]string{
		"create_panel_container": m.CreatePanelContainer,
		"get_current_context":    m.GetCurrentContext,
		"write_to_console":       m.WriteToConsole,
		"get_selection":          m.GetSelection,
	} {
		if name == "" || !namePattern.MatchString(name) {
			return fmt.Errorf("%s: name %q must start with a-z, contain only a-z, 0-9, hyphens, and not end with a hyphen", capability, name)
		}
		if len(name) > maxNameLength {
			return fmt.Errorf("%s: name must be %d characters or less, got %d", capability, maxNameLength, len(name))
		}
	}
	return nil
}
