// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SlateBridge Contributors

package bridge

import (
	"log/slog"
	"sync"

	"github.com/samber/oops"
)

// Dispatcher serializes all host UI work onto a single goroutine, the
// bridge's stand-in for the host's UI/event thread. Hooks are only ever
// invoked from this goroutine; background work hands its completion back
// through InvokeLater instead of touching host objects directly.
type Dispatcher struct {
	mu     sync.Mutex
	calls  chan func()
	done   chan struct{}
	closed bool
}

// queueDepth bounds pending UI work. Submissions block once the UI
// thread falls this far behind.
const queueDepth = 256

// NewDispatcher starts the UI goroutine.
func NewDispatcher() *Dispatcher {
	d := &Dispatcher{
		calls: make(chan func(), queueDepth),
		done:  make(chan struct{}),
	}
	go d.loop()
	return d
}

func (d *Dispatcher) loop() {
	defer close(d.done)
	for f := range d.calls {
		f()
	}
}

// Invoke runs f on the UI thread and waits for it to finish. After
// Close it fails with ErrSessionClosed instead of running f.
func (d *Dispatcher) Invoke(f func() error) error {
	errCh := make(chan error, 1)
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return oops.
			Code("SESSION_CLOSED").
			Wrapf(ErrSessionClosed, "ui dispatcher is closed")
	}
	d.calls <- func() {
		errCh <- f()
	}
	d.mu.Unlock()
	return <-errCh
}

// InvokeLater queues f on the UI thread without waiting. After Close
// the work is dropped.
func (d *Dispatcher) InvokeLater(f func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		slog.Debug("dropping ui work queued after dispatcher close")
		return
	}
	d.calls <- f
}

// RunInBackground executes task off the UI thread, then marshals its
// result back onto the UI thread via then. Use for anything that blocks:
// network I/O, long-running publishes.
func (d *Dispatcher) RunInBackground(task func() error, then func(error)) {
	go func() {
		err := task()
		d.InvokeLater(func() { then(err) })
	}()
}

// Close stops accepting work and waits for queued work to finish.
// Safe to call more than once.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.calls)
	}
	d.mu.Unlock()
	<-d.done
}
