// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SlateBridge Contributors

// Package toolkit locates, caches, and runs the Slate toolkit core: the
// external versioned pipeline runtime the bridge delegates to. The core
// runs as a separate process; the bridge holds a Core client for the
// lifetime of the host session.
package toolkit

import "context"

// CommandDescriptor describes a command a toolkit app registered with
// the core. The bridge turns each into a host menu entry.
type CommandDescriptor struct {
	Name        string
	Title       string
	Icon        string
	Group       string
	AppInstance string
	// ContextMenu marks commands that belong under the context submenu
	// rather than an app group.
	ContextMenu bool
}

// Core is the capability surface of a running toolkit core.
type Core interface {
	// LoadApps initializes the configured apps and frameworks for the
	// given pipeline context and returns the commands they registered.
	// engineConfig is the opaque declarative settings subtree.
	LoadApps(ctx context.Context, engineConfig map[string]any, project, entity, task string) ([]CommandDescriptor, error)

	// Execute runs a registered command by name. Long-running commands
	// block; callers offload to a background unit.
	Execute(ctx context.Context, name string) error

	// Version reports the core's own version.
	Version(ctx context.Context) (string, error)

	// Shutdown asks the core to unload apps and exit cleanly.
	Shutdown(ctx context.Context) error
}
