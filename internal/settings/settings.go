// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SlateBridge Contributors

// Package settings loads the declarative engine configuration. The
// bridge treats almost all of it as opaque data handed to the toolkit
// core; only the few keys the bridge itself consumes are typed here.
package settings

import (
	"fmt"

	koanfyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Favourite promotes a registered command to the root of the menu.
type Favourite struct {
	AppInstance string `koanf:"app_instance"`
	Name        string `koanf:"name"`
}

// Settings is the loaded configuration tree.
type Settings struct {
	k *koanf.Koanf
}

// Load reads settings from a YAML file, overlaying values from flags
// when given. A missing path yields empty settings, not an error.
func Load(path string, flags *pflag.FlagSet) (*Settings, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), koanfyaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load settings %s: %w", path, err)
		}
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return nil, fmt.Errorf("failed to overlay flags: %w", err)
		}
	}

	return &Settings{k: k}, nil
}

// Empty returns settings with no values set.
func Empty() *Settings {
	return &Settings{k: koanf.New(".")}
}

// CoreVersion is the toolkit core version pinned by configuration, or
// empty when the newest cached core should be used.
func (s *Settings) CoreVersion() string {
	return s.k.String("core.version")
}

// CoreBaseURL is where toolkit cores are downloaded from.
func (s *Settings) CoreBaseURL() string {
	return s.k.String("core.base_url")
}

// HooksManifestPath points at the hooks.yaml to load, if configured.
func (s *Settings) HooksManifestPath() string {
	return s.k.String("hooks.manifest")
}

// MenuFavourites lists commands promoted to the menu root.
func (s *Settings) MenuFavourites() ([]Favourite, error) {
	var favs []Favourite
	if err := s.k.Unmarshal("menu_favourites", &favs); err != nil {
		return nil, fmt.Errorf("invalid menu_favourites: %w", err)
	}
	return favs, nil
}

// EngineConfig returns the opaque configuration subtree passed to the
// toolkit core. The bridge never interprets it.
func (s *Settings) EngineConfig() map[string]any {
	return s.k.Cut("engine").Raw()
}
