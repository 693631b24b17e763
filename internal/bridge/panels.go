// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SlateBridge Contributors

package bridge

import (
	"log/slog"
	"sync"

	"github.com/samber/oops"

	"github.com/slatebridge/slatebridge/internal/hook"
)

// WidgetFunc attaches a toolkit app's widget to a freshly created
// container. It runs on the UI thread, and only when a container is
// actually created, never on focus of an existing one.
type WidgetFunc func(container hook.PanelContainer) error

// PanelHandle identifies a hosted panel.
type PanelHandle struct {
	ID        string
	Container hook.PanelContainer
}

// PanelManager owns the mapping from panel id to host container.
// Re-requesting an id focuses the existing container instead of creating
// a duplicate; containers the host destroyed out of band are dropped and
// recreated on the next request.
type PanelManager struct {
	mu      sync.Mutex
	factory hook.PanelFactory
	panels  map[string]hook.PanelContainer
}

// NewPanelManager creates a manager using the given factory hook.
func NewPanelManager(factory hook.PanelFactory) *PanelManager {
	return &PanelManager{
		factory: factory,
		panels:  make(map[string]hook.PanelContainer),
	}
}

// Show returns the panel for id, creating it if needed. Must be called
// from the UI thread.
func (m *PanelManager) Show(id, title string, widget WidgetFunc) (PanelHandle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.panels[id]; ok {
		if existing.Alive() {
			existing.Focus()
			return PanelHandle{ID: id, Container: existing}, nil
		}
		// Host destroyed the container behind our back.
		slog.Debug("panel container was destroyed externally, recreating", "panel", id)
		delete(m.panels, id)
	}

	container, err := m.factory.CreatePanelContainer(id, title)
	if err != nil {
		return PanelHandle{}, oops.
			Code("PANEL_CREATE_FAILED").
			With("panel", id).
			Wrapf(err, "failed to create container for panel %q", id)
	}

	if widget != nil {
		if err := widget(container); err != nil {
			// A half-built panel must not shadow future requests.
			if cerr := container.Close(); cerr != nil {
				slog.Warn("failed to close container after widget error", "panel", id, "error", cerr)
			}
			return PanelHandle{}, oops.
				Code("PANEL_CREATE_FAILED").
				With("panel", id).
				Wrapf(err, "widget attach failed for panel %q", id)
		}
	}

	m.panels[id] = container
	container.Focus()
	return PanelHandle{ID: id, Container: container}, nil
}

// Len returns the number of tracked panels.
func (m *PanelManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.panels)
}

// CloseAll closes every tracked panel, collecting errors instead of
// stopping at the first. Used at teardown only.
func (m *PanelManager) CloseAll() []error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for id, c := range m.panels {
		if !c.Alive() {
			continue
		}
		if err := c.Close(); err != nil {
			errs = append(errs, oops.With("panel", id).Wrapf(err, "failed to close panel %q", id))
		}
	}
	m.panels = make(map[string]hook.PanelContainer)
	return errs
}
