// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SlateBridge Contributors

// Package hook defines the capability contract between the engine bridge
// and the host application. The bridge never touches host APIs directly;
// every host-specific operation goes through one of these interfaces.
// Swapping the host's native UI toolkit means swapping hook
// implementations, not bridge logic.
package hook

import (
	"fmt"
	"sort"
	"sync"
)

// Severity classifies console output.
type Severity uint8

const (
	SeverityDebug Severity = iota
	SeverityInfo
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// Context is the pipeline context tuple the toolkit operates on.
type Context struct {
	Project string
	Entity  string
	Task    string
}

// String renders the context for menu titles, e.g. "proj / shot010 / comp".
func (c Context) String() string {
	out := c.Project
	if c.Entity != "" {
		out += " / " + c.Entity
	}
	if c.Task != "" {
		out += " / " + c.Task
	}
	return out
}

// PanelContainer is a handle to a host-native dockable container.
// The host may destroy a container outside bridge control; Alive reports
// whether the handle is still backed by a live container.
type PanelContainer interface {
	ID() string
	Focus()
	Close() error
	Alive() bool
}

// PanelFactory creates host-native panel containers.
type PanelFactory interface {
	CreatePanelContainer(id, title string) (PanelContainer, error)
}

// ContextProvider reads the current pipeline context from host state.
type ContextProvider interface {
	CurrentContext() (Context, error)
}

// ConsoleSink writes a line to the host's console/output surface.
type ConsoleSink interface {
	WriteConsole(sev Severity, msg string) error
}

// SelectionProvider reports the host's current selection as opaque
// object paths.
type SelectionProvider interface {
	Selection() ([]string, error)
}

// Set bundles one implementation of each capability. Supplied to the
// bridge at bootstrap time; never replaced mid-session.
type Set struct {
	Panels    PanelFactory
	Context   ContextProvider
	Console   ConsoleSink
	Selection SelectionProvider
}

// registry of named capability implementations, keyed by capability kind
// then implementation name. Populated from init funcs and tests.
var (
	regMu         sync.RWMutex
	panelRegistry = map[string]PanelFactory{}
	ctxRegistry   = map[string]ContextProvider{}
	consRegistry  = map[string]ConsoleSink{}
	selRegistry   = map[string]SelectionProvider{}
)

// RegisterPanelFactory makes a panel factory selectable by manifest name.
func RegisterPanelFactory(name string, f PanelFactory) {
	regMu.Lock()
	defer regMu.Unlock()
	panelRegistry[name] = f
}

// RegisterContextProvider makes a context provider selectable by manifest name.
func RegisterContextProvider(name string, p ContextProvider) {
	regMu.Lock()
	defer regMu.Unlock()
	ctxRegistry[name] = p
}

// RegisterConsoleSink makes a console sink selectable by manifest name.
func RegisterConsoleSink(name string, s ConsoleSink) {
	regMu.Lock()
	defer regMu.Unlock()
	consRegistry[name] = s
}

// RegisterSelectionProvider makes a selection provider selectable by manifest name.
func RegisterSelectionProvider(name string, p SelectionProvider) {
	regMu.Lock()
	defer regMu.Unlock()
	selRegistry[name] = p
}

// Resolve builds a Set from a manifest. Every capability named in the
// manifest must have a registered implementation.
func Resolve(m *Manifest) (Set, error) {
	regMu.RLock()
	defer regMu.RUnlock()

	panels, ok := panelRegistry[m.CreatePanelContainer]
	if !ok {
		return Set{}, unknownHook("create_panel_container", m.CreatePanelContainer, keys(panelRegistry))
	}
	ctx, ok := ctxRegistry[m.GetCurrentContext]
	if !ok {
		return Set{}, unknownHook("get_current_context", m.GetCurrentContext, keys(ctxRegistry))
	}
	console, ok := consRegistry[m.WriteToConsole]
	if !ok {
		return Set{}, unknownHook("write_to_console", m.WriteToConsole, keys(consRegistry))
	}
	sel, ok := selRegistry[m.GetSelection]
	if !ok {
		return Set{}, unknownHook("get_selection", m.GetSelection, keys(selRegistry))
	}

	return Set{Panels: panels, Context: ctx, Console: console, Selection: sel}, nil
}

func unknownHook(capability, name string, known []string) error {
	return fmt.Errorf("no %s hook registered under %q (known: %v)", capability, name, known)
}

func keys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
