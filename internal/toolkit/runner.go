// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SlateBridge Contributors

package toolkit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"sync"

	hashiplug "github.com/hashicorp/go-plugin"
)

// Sentinel errors for programmatic error checking.
var (
	// ErrRunnerClosed is returned when operations are attempted on a closed runner.
	ErrRunnerClosed = errors.New("runner is closed")
	// ErrNotStarted is returned when operating on a core that isn't running.
	ErrNotStarted = errors.New("core not started")
)

// HandshakeConfig pairs the bridge with slate-core binaries. Cores built
// for a different protocol version refuse the handshake.
var HandshakeConfig = hashiplug.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "SLATE_CORE_PLUGIN",
	MagicCookieValue: "slatebridge",
}

// PluginMap is the map of plugins the runner can dispense.
var PluginMap = map[string]hashiplug.Plugin{
	"core": &CorePlugin{},
}

// CoreClient wraps the go-plugin client for testability.
type CoreClient interface {
	// Client returns the client protocol.
	Client() (hashiplug.ClientProtocol, error)
	// Kill terminates the core process.
	Kill()
}

// ClientFactory creates core clients.
type ClientFactory interface {
	// NewClient creates a client for the given core executable.
	NewClient(execPath string) CoreClient
}

// DefaultClientFactory creates real go-plugin clients.
type DefaultClientFactory struct{}

// NewClient creates a real go-plugin client.
func (f *DefaultClientFactory) NewClient(execPath string) CoreClient {
	return hashiplug.NewClient(&hashiplug.ClientConfig{
		HandshakeConfig:  HandshakeConfig,
		Plugins:          PluginMap,
		Cmd:              exec.Command(execPath), // #nosec G204 -- execPath comes from the validated core cache
		AllowedProtocols: []hashiplug.Protocol{hashiplug.ProtocolNetRPC},
	})
}

// Runner starts and stops the toolkit core process.
type Runner struct {
	factory ClientFactory
	mu      sync.Mutex
	client  CoreClient
	closed  bool
}

// NewRunner creates a runner using real plugin clients.
func NewRunner() *Runner {
	return &Runner{factory: &DefaultClientFactory{}}
}

// NewRunnerWithFactory creates a runner with a custom client factory (for testing).
// Panics if factory is nil.
func NewRunnerWithFactory(factory ClientFactory) *Runner {
	if factory == nil {
		panic("toolkit: factory cannot be nil")
	}
	return &Runner{factory: factory}
}

// Start launches the core executable and returns its Core interface.
// Blocks until the plugin handshake completes or fails.
func (r *Runner) Start(_ context.Context, execPath string) (Core, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrRunnerClosed
	}
	if r.client != nil {
		return nil, fmt.Errorf("core already started")
	}

	client := r.factory.NewClient(execPath)

	rpcClient, err := client.Client()
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("failed to connect to core %s: %w", execPath, err)
	}

	raw, err := rpcClient.Dispense("core")
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("failed to dispense core: %w", err)
	}

	core, ok := raw.(Core)
	if !ok {
		client.Kill()
		return nil, fmt.Errorf("core %s does not implement the Core interface", execPath)
	}

	r.client = client
	slog.Debug("toolkit core started", "exec", execPath)
	return core, nil
}

// Close terminates the core process. Safe to call more than once.
func (r *Runner) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.client != nil {
		r.client.Kill()
		r.client = nil
	}
	r.closed = true
}
