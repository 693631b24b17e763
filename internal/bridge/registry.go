// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SlateBridge Contributors

package bridge

import (
	"context"
	"sort"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Command is a toolkit command surfaced as a host menu entry.
type Command struct {
	Name        string
	Title       string
	Icon        string
	Group       string // app instance the command belongs to
	ContextMenu bool   // place under the context submenu
	Callback    func(ctx context.Context) error
}

// CommandHandle identifies a registration within a session.
type CommandHandle struct {
	ID   ulid.ULID
	Name string
}

// Registry holds the session's registered commands.
// It is thread-safe for concurrent access.
type Registry struct {
	mu       sync.RWMutex
	commands map[string]Command
	handles  map[string]CommandHandle
}

// NewRegistry creates an empty command registry.
func NewRegistry() *Registry {
	return &Registry{
		commands: make(map[string]Command),
		handles:  make(map[string]CommandHandle),
	}
}

// Register adds a command. A name already present is rejected with
// DUPLICATE_COMMAND and the existing registration is left unchanged.
func (r *Registry) Register(cmd Command) (CommandHandle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.commands[cmd.Name]; ok {
		return CommandHandle{}, oops.
			Code("DUPLICATE_COMMAND").
			With("command", cmd.Name).
			Wrapf(ErrDuplicateCommand, "command %q is already registered", cmd.Name)
	}

	handle := CommandHandle{ID: ulid.Make(), Name: cmd.Name}
	r.commands[cmd.Name] = cmd
	r.handles[cmd.Name] = handle
	return handle, nil
}

// Get retrieves a command by name.
func (r *Registry) Get(name string) (Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cmd, ok := r.commands[name]
	return cmd, ok
}

// All returns all registered commands sorted by name, so menus render in
// a predictable order.
func (r *Registry) All() []Command {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cmds := make([]Command, 0, len(r.commands))
	for _, c := range r.commands {
		cmds = append(cmds, c)
	}
	sort.Slice(cmds, func(i, j int) bool { return cmds[i].Name < cmds[j].Name })
	return cmds
}

// Len returns the number of registered commands.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.commands)
}

// Clear removes every registration. Only used at session teardown; there
// is no mid-session unregistration.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.commands = make(map[string]Command)
	r.handles = make(map[string]CommandHandle)
}
