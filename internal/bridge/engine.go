// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SlateBridge Contributors

// Package bridge is the long-lived engine connecting the Slate toolkit
// core to the host's UI and console. It owns the session state machine,
// the command registry, panel hosting, and the log relay. All
// host-specific behavior is delegated to the hook contract.
package bridge

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/slatebridge/slatebridge/internal/hook"
	"github.com/slatebridge/slatebridge/internal/settings"
	"github.com/slatebridge/slatebridge/internal/toolkit"
	"github.com/slatebridge/slatebridge/pkg/errutil"
)

// pendingLimit bounds the pre-Ready call queue. Overflow fails the call
// with BOOTSTRAP_TIMEOUT rather than growing without bound.
const pendingLimit = 128

// pendingCall is a queued operation waiting for the Ready transition.
type pendingCall struct {
	apply func()
	onErr func(error)
}

// uiKey marks contexts whose goroutine is the UI thread.
type uiKey struct{}

func onUIThread(ctx context.Context) bool {
	v, _ := ctx.Value(uiKey{}).(bool)
	return v
}

// Engine is the per-session bridge instance. One Engine exists per host
// process lifetime.
type Engine struct {
	id         ulid.ULID
	hooks      hook.Set
	core       toolkit.Core
	dispatcher *Dispatcher
	registry   *Registry
	panels     *PanelManager
	relay      *Relay
	favourites []settings.Favourite

	mu      sync.Mutex
	state   State
	pending []pendingCall
	pipeCtx hook.Context
}

// Option configures the Engine.
type Option func(*Engine)

// WithFavourites promotes the named commands to the menu root.
func WithFavourites(favs []settings.Favourite) Option {
	return func(e *Engine) {
		e.favourites = favs
	}
}

// New creates an engine in the Uninitialized state. The hooks set and
// core are fixed for the session.
func New(core toolkit.Core, hooks hook.Set, opts ...Option) *Engine {
	d := NewDispatcher()
	e := &Engine{
		id:         ulid.Make(),
		hooks:      hooks,
		core:       core,
		dispatcher: d,
		registry:   NewRegistry(),
		panels:     NewPanelManager(hooks.Panels),
		relay:      NewRelay(hooks.Console, d),
		state:      StateUninitialized,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ID returns the session identifier.
func (e *Engine) ID() ulid.ULID { return e.id }

// State returns the current session state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Dispatcher exposes the UI-thread dispatcher so toolkit apps can
// offload blocking work and marshal completions back.
func (e *Engine) Dispatcher() *Dispatcher { return e.dispatcher }

// BeginBootstrap moves the session into Bootstrapping. Called by the
// startup launcher before toolkit apps load.
func (e *Engine) BeginBootstrap() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := transition(e.state, StateBootstrapping); err != nil {
		return err
	}
	e.state = StateBootstrapping
	slog.Debug("engine session bootstrapping", "session", e.id.String())
	return nil
}

// Ready completes bootstrap: the pipeline context is read once from the
// host, then queued calls drain in order on the UI thread.
func (e *Engine) Ready() error {
	e.mu.Lock()
	if err := transition(e.state, StateReady); err != nil {
		e.mu.Unlock()
		return err
	}
	e.state = StateReady
	queued := e.pending
	e.pending = nil
	e.mu.Unlock()

	err := e.dispatcher.Invoke(func() error {
		pipeCtx, err := e.hooks.Context.CurrentContext()
		if err != nil {
			return oops.Wrapf(err, "failed to read pipeline context from host")
		}
		e.mu.Lock()
		e.pipeCtx = pipeCtx
		e.mu.Unlock()

		for _, call := range queued {
			call.apply()
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.Info("engine session ready",
		"session", e.id.String(),
		"context", e.Context().String(),
		"queued_calls", len(queued))
	return nil
}

// BootstrapFailed closes the session without ever reaching Ready. Each
// queued call's error callback is invoked with the failure; calls
// without one are logged and dropped.
func (e *Engine) BootstrapFailed(cause error) {
	e.mu.Lock()
	if e.state != StateBootstrapping && e.state != StateUninitialized {
		e.mu.Unlock()
		return
	}
	e.state = StateClosed
	queued := e.pending
	e.pending = nil
	e.mu.Unlock()

	failure := oops.
		Code("SESSION_CLOSED").
		Wrapf(ErrSessionClosed, "bootstrap failed: %v", cause)
	for _, call := range queued {
		if call.onErr != nil {
			call.onErr(failure)
		} else {
			slog.Warn("dropping queued call after bootstrap failure", "error", cause)
		}
	}
	e.dispatcher.Close()
}

// enqueue records a call for the Ready transition. Caller holds e.mu.
func (e *Engine) enqueueLocked(call pendingCall) error {
	if len(e.pending) >= pendingLimit {
		return oops.
			Code("BOOTSTRAP_TIMEOUT").
			With("queued", len(e.pending)).
			Wrapf(ErrBootstrapTimeout, "session %s queued too many calls before Ready", e.id.String())
	}
	e.pending = append(e.pending, call)
	return nil
}

// closedErr builds the standard post-shutdown failure.
func (e *Engine) closedErr(op string) error {
	return oops.
		Code("SESSION_CLOSED").
		With("state", e.State().String()).
		Wrapf(ErrSessionClosed, "%s rejected, session is %s", op, e.State())
}

// notReadyErr builds the pre-Ready failure for operations that cannot
// queue until bootstrap completes.
func (e *Engine) notReadyErr(op string) error {
	return oops.
		Code("SESSION_NOT_READY").
		With("state", e.State().String()).
		Wrapf(ErrSessionNotReady, "%s rejected, session is %s", op, e.State())
}

// RegisterCommand registers a toolkit command for the session. Duplicate
// names are rejected and the existing registration is left unchanged.
// Valid during bootstrap (that is when apps register) and in Ready;
// rejected once shutdown begins. The command appears in the menu on the
// host's next menu pull.
func (e *Engine) RegisterCommand(cmd Command) (CommandHandle, error) {
	e.mu.Lock()
	state := e.state
	e.mu.Unlock()

	if state == StateShuttingDown || state == StateClosed {
		return CommandHandle{}, e.closedErr("register_command")
	}
	return e.registry.Register(cmd)
}

// Commands returns the registered commands sorted by name.
func (e *Engine) Commands() []Command {
	return e.registry.All()
}

// MenuItems builds the current toolkit menu. The host calls this when
// (re)building its native menu.
func (e *Engine) MenuItems() []MenuItem {
	return buildMenu(e.Context(), e.registry.All(), e.favourites)
}

// ExecuteCommand runs a registered command on the UI thread, trapping
// panics so a misbehaving command cannot take down the host.
func (e *Engine) ExecuteCommand(ctx context.Context, name string) error {
	e.mu.Lock()
	state := e.state
	e.mu.Unlock()

	if state != StateReady {
		if state == StateShuttingDown || state == StateClosed {
			return e.closedErr("execute_command")
		}
		return e.notReadyErr("execute_command")
	}

	cmd, ok := e.registry.Get(name)
	if !ok {
		recordCommandExecution(name, StatusNotFound)
		return oops.
			Code("NOT_FOUND").
			With("command", name).
			Errorf("command %q is not registered", name)
	}

	start := time.Now()
	err := e.dispatcher.Invoke(func() (retErr error) {
		defer func() {
			if r := recover(); r != nil {
				retErr = oops.With("command", name).Errorf("command %q panicked: %v", name, r)
			}
		}()
		return cmd.Callback(context.WithValue(ctx, uiKey{}, true))
	})
	recordCommandDuration(name, time.Since(start))
	if err != nil {
		recordCommandExecution(name, StatusError)
		e.relay.Emit(LogEvent{Level: hook.SeverityError, Message: "command " + name + " failed", Err: err})
		return err
	}
	recordCommandExecution(name, StatusSuccess)
	return nil
}

// ShowPanel shows the panel with the given id, creating its container on
// first request and focusing the existing one after that. During
// bootstrap the request queues until Ready; the returned handle then
// carries only the id.
func (e *Engine) ShowPanel(ctx context.Context, id, title string, widget WidgetFunc) (PanelHandle, error) {
	e.mu.Lock()
	switch e.state {
	case StateShuttingDown, StateClosed:
		e.mu.Unlock()
		return PanelHandle{}, e.closedErr("show_panel")
	case StateUninitialized, StateBootstrapping:
		err := e.enqueueLocked(pendingCall{
			apply: func() {
				if _, serr := e.panels.Show(id, title, widget); serr != nil {
					slog.Error("queued panel request failed", "panel", id, "error", serr)
				}
			},
			onErr: func(ferr error) {
				slog.Warn("queued panel request dropped", "panel", id, "error", ferr)
			},
		})
		e.mu.Unlock()
		if err != nil {
			return PanelHandle{}, err
		}
		return PanelHandle{ID: id}, nil
	}
	e.mu.Unlock()

	recordPanelOperation("show")
	if onUIThread(ctx) {
		return e.panels.Show(id, title, widget)
	}

	var handle PanelHandle
	err := e.dispatcher.Invoke(func() error {
		var serr error
		handle, serr = e.panels.Show(id, title, widget)
		return serr
	})
	return handle, err
}

// Emit forwards a log event to the host console. Events queue during
// bootstrap and fail fast once shutdown begins.
func (e *Engine) Emit(ev LogEvent) error {
	e.mu.Lock()
	switch e.state {
	case StateShuttingDown, StateClosed:
		e.mu.Unlock()
		return e.closedErr("emit")
	case StateUninitialized, StateBootstrapping:
		err := e.enqueueLocked(pendingCall{
			apply: func() { e.relay.Emit(ev) },
		})
		e.mu.Unlock()
		return err
	}
	e.mu.Unlock()

	e.relay.Emit(ev)
	return nil
}

// Context returns the pipeline context captured at bootstrap, refreshed
// only by NotifyContextChange.
func (e *Engine) Context() hook.Context {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pipeCtx
}

// NotifyContextChange re-reads the context from the host. Called by the
// host on explicit context-change events; the bridge never polls.
func (e *Engine) NotifyContextChange() error {
	e.mu.Lock()
	state := e.state
	e.mu.Unlock()

	switch state {
	case StateShuttingDown, StateClosed:
		return e.closedErr("notify_context_change")
	case StateUninitialized, StateBootstrapping:
		return e.notReadyErr("notify_context_change")
	}

	return e.dispatcher.Invoke(func() error {
		pipeCtx, err := e.hooks.Context.CurrentContext()
		if err != nil {
			return oops.Wrapf(err, "failed to refresh pipeline context")
		}
		e.mu.Lock()
		old := e.pipeCtx
		e.pipeCtx = pipeCtx
		e.mu.Unlock()
		slog.Info("pipeline context changed", "old", old.String(), "new", pipeCtx.String())
		return nil
	})
}

// Selection reports the host's current selection through the hook.
func (e *Engine) Selection() ([]string, error) {
	switch e.State() {
	case StateShuttingDown, StateClosed:
		return nil, e.closedErr("get_selection")
	case StateUninitialized, StateBootstrapping:
		return nil, e.notReadyErr("get_selection")
	}

	var sel []string
	err := e.dispatcher.Invoke(func() error {
		var serr error
		sel, serr = e.hooks.Selection.Selection()
		return serr
	})
	return sel, err
}

// Shutdown tears the session down on host shutdown notification. Steps
// run in order and each proceeds even if a prior one failed: commands
// unregister, panels close, pending log output flushes, and the core
// reference is released last. Errors are collected and logged, never
// raised.
func (e *Engine) Shutdown(ctx context.Context) {
	e.mu.Lock()
	if e.state != StateReady {
		if e.state == StateClosed || e.state == StateShuttingDown {
			e.mu.Unlock()
			return
		}
		// Bootstrap never completed; nothing was surfaced.
		e.mu.Unlock()
		e.BootstrapFailed(oops.Errorf("host shut down during bootstrap"))
		return
	}
	e.state = StateShuttingDown
	e.mu.Unlock()

	var errs []error

	e.registry.Clear()

	if cerr := e.dispatcher.Invoke(func() error {
		for _, err := range e.panels.CloseAll() {
			errs = append(errs, err)
		}
		recordPanelOperation("close_all")
		return nil
	}); cerr != nil {
		errs = append(errs, cerr)
	}

	// Announce teardown, then drain the dispatcher queue so every
	// accepted relay event hits the console before the core goes away.
	e.relay.Emit(LogEvent{Level: hook.SeverityInfo, Message: "slate toolkit shutting down"})
	if ferr := e.dispatcher.Invoke(func() error { return nil }); ferr != nil {
		errs = append(errs, ferr)
	}

	if err := e.core.Shutdown(ctx); err != nil {
		errs = append(errs, oops.Wrapf(err, "toolkit core shutdown failed"))
	}
	e.core = nil

	e.dispatcher.Close()

	e.mu.Lock()
	e.state = StateClosed
	e.mu.Unlock()

	logger := slog.Default().With("session", e.id.String())
	for _, err := range errs {
		errutil.LogError(logger, "teardown step failed", err)
	}
	slog.Info("engine session closed", "session", e.id.String(), "teardown_errors", len(errs))
}
