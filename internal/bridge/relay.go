// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SlateBridge Contributors

package bridge

import (
	"log/slog"
	"sync"

	"github.com/slatebridge/slatebridge/internal/hook"
)

// LogEvent is a toolkit log record bound for the host console.
type LogEvent struct {
	Level   hook.Severity
	Message string
	Err     error
}

// Relay forwards log events to the host console in emission order. The
// console is a host UI object, so every write runs on the UI thread via
// the dispatcher; the dispatcher's FIFO queue preserves emission order.
// Console failure must never interrupt pipeline operations: the first
// write error degrades the relay to a null sink for the rest of the
// session, reported once through slog.
type Relay struct {
	dispatch *Dispatcher

	mu       sync.Mutex
	sink     hook.ConsoleSink
	degraded bool
}

// NewRelay creates a relay for the given console hook. A nil sink starts
// degraded.
func NewRelay(sink hook.ConsoleSink, d *Dispatcher) *Relay {
	r := &Relay{sink: sink, dispatch: d}
	if sink == nil {
		r.degraded = true
	}
	return r
}

// Emit queues one event for the console. The write itself happens on
// the UI thread; events queued after dispatcher close are dropped.
func (r *Relay) Emit(ev LogEvent) {
	if r.Degraded() {
		return
	}
	r.dispatch.InvokeLater(func() { r.write(ev) })
}

// write runs on the UI thread.
func (r *Relay) write(ev LogEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.degraded {
		return
	}

	msg := ev.Message
	if ev.Err != nil {
		msg += ": " + ev.Err.Error()
	}

	if err := r.sink.WriteConsole(ev.Level, msg); err != nil {
		r.degraded = true
		slog.Warn("host console unavailable, log relay degraded to null sink", "error", err)
		return
	}
	recordLogEvent(ev.Level.String())
}

// Degraded reports whether the relay has fallen back to the null sink.
func (r *Relay) Degraded() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.degraded
}
