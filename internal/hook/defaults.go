// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SlateBridge Contributors

package hook

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// DefaultName is the manifest name of the built-in implementations.
const DefaultName = "default"

func init() {
	RegisterPanelFactory(DefaultName, NewMemoryPanelFactory())
	RegisterContextProvider(DefaultName, EnvContextProvider{})
	RegisterConsoleSink(DefaultName, &WriterConsoleSink{W: os.Stderr})
	RegisterSelectionProvider(DefaultName, StaticSelectionProvider{})
}

// MemoryPanelFactory creates in-process containers. Used when the host
// cannot dock widgets (panels then behave like floating dialogs) and by
// tests that need to destroy containers out of band.
type MemoryPanelFactory struct {
	mu         sync.Mutex
	containers map[string]*memoryContainer
	focused    string
}

// NewMemoryPanelFactory creates an empty factory.
func NewMemoryPanelFactory() *MemoryPanelFactory {
	return &MemoryPanelFactory{containers: make(map[string]*memoryContainer)}
}

// CreatePanelContainer creates a new container for the id.
func (f *MemoryPanelFactory) CreatePanelContainer(id, title string) (PanelContainer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	c := &memoryContainer{factory: f, id: id, title: title, alive: true}
	f.containers[id] = c
	return c, nil
}

// Destroy kills a container out of bridge control, as a user closing the
// panel tab would.
func (f *MemoryPanelFactory) Destroy(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if c, ok := f.containers[id]; ok {
		c.alive = false
		delete(f.containers, id)
	}
}

// Focused returns the id of the most recently focused container.
func (f *MemoryPanelFactory) Focused() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.focused
}

type memoryContainer struct {
	factory *MemoryPanelFactory
	id      string
	title   string
	alive   bool
}

func (c *memoryContainer) ID() string { return c.id }

func (c *memoryContainer) Focus() {
	c.factory.mu.Lock()
	defer c.factory.mu.Unlock()
	c.factory.focused = c.id
}

func (c *memoryContainer) Close() error {
	c.factory.Destroy(c.id)
	return nil
}

func (c *memoryContainer) Alive() bool {
	c.factory.mu.Lock()
	defer c.factory.mu.Unlock()
	return c.alive
}

// EnvContextProvider reads the pipeline context from the environment the
// launcher published before the host started.
type EnvContextProvider struct{}

// Environment variables carrying the bootstrap context.
const (
	ProjectVar = "SLATE_PROJECT"
	EntityVar  = "SLATE_ENTITY"
	TaskVar    = "SLATE_TASK"
)

// CurrentContext returns the context from SLATE_* variables.
func (EnvContextProvider) CurrentContext() (Context, error) {
	return Context{
		Project: os.Getenv(ProjectVar),
		Entity:  os.Getenv(EntityVar),
		Task:    os.Getenv(TaskVar),
	}, nil
}

// WriterConsoleSink writes console lines to an io.Writer.
type WriterConsoleSink struct {
	mu sync.Mutex
	W  io.Writer
}

// WriteConsole writes "[severity] message" followed by a newline.
func (s *WriterConsoleSink) WriteConsole(sev Severity, msg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := fmt.Fprintf(s.W, "[%s] %s\n", sev, msg); err != nil {
		return fmt.Errorf("console write failed: %w", err)
	}
	return nil
}

// StaticSelectionProvider returns a fixed selection. The zero value
// reports nothing selected, matching a host without selection support.
type StaticSelectionProvider []string

// Selection returns the configured object paths.
func (p StaticSelectionProvider) Selection() ([]string, error) {
	return []string(p), nil
}
