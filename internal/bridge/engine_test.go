// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SlateBridge Contributors

package bridge

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/slatebridge/slatebridge/internal/hook"
	"github.com/slatebridge/slatebridge/internal/settings"
	"github.com/slatebridge/slatebridge/internal/toolkit"
	"github.com/slatebridge/slatebridge/pkg/errutil"
)

// fakeCore implements toolkit.Core in-process.
type fakeCore struct {
	mu           sync.Mutex
	shutdownCnt  int
	shutdownErr  error
	executedCmds []string
}

func (f *fakeCore) LoadApps(_ context.Context, _ map[string]any, _, _, _ string) ([]toolkit.CommandDescriptor, error) {
	return nil, nil
}

func (f *fakeCore) Execute(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.executedCmds = append(f.executedCmds, name)
	return nil
}

func (f *fakeCore) Version(_ context.Context) (string, error) { return "1.4.0", nil }

func (f *fakeCore) Shutdown(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.shutdownCnt++
	return f.shutdownErr
}

// staticContext is a ContextProvider returning a fixed context.
type staticContext struct {
	ctx hook.Context
	err error
}

func (s staticContext) CurrentContext() (hook.Context, error) { return s.ctx, s.err }

type testEngine struct {
	*Engine
	core    *fakeCore
	sink    *recordingSink
	factory *hook.MemoryPanelFactory
}

func newTestEngine(opts ...Option) *testEngine {
	core := &fakeCore{}
	sink := &recordingSink{}
	factory := hook.NewMemoryPanelFactory()
	hooks := hook.Set{
		Panels:    factory,
		Context:   staticContext{ctx: hook.Context{Project: "outpost", Entity: "shot010", Task: "comp"}},
		Console:   sink,
		Selection: hook.StaticSelectionProvider{"/Game/Assets/Chair"},
	}
	return &testEngine{
		Engine:  New(core, hooks, opts...),
		core:    core,
		sink:    sink,
		factory: factory,
	}
}

func newReadyEngine(t *testing.T, opts ...Option) *testEngine {
	t.Helper()
	e := newTestEngine(opts...)
	require.NoError(t, e.BeginBootstrap())
	require.NoError(t, e.Ready())
	return e
}

func TestEngine_LifecycleStates(t *testing.T) {
	e := newTestEngine()
	assert.Equal(t, StateUninitialized, e.State())

	require.NoError(t, e.BeginBootstrap())
	assert.Equal(t, StateBootstrapping, e.State())

	require.NoError(t, e.Ready())
	assert.Equal(t, StateReady, e.State())

	e.Shutdown(context.Background())
	assert.Equal(t, StateClosed, e.State())
}

func TestEngine_ReadyCapturesContext(t *testing.T) {
	e := newReadyEngine(t)
	defer e.Shutdown(context.Background())
	assert.Equal(t, "outpost / shot010 / comp", e.Context().String())
}

func TestEngine_InvalidTransitions(t *testing.T) {
	e := newTestEngine()
	require.Error(t, e.Ready())

	require.NoError(t, e.BeginBootstrap())
	require.Error(t, e.BeginBootstrap())

	e.BootstrapFailed(errors.New("abandoned by test"))
}

func TestEngine_RegisterCommand(t *testing.T) {
	e := newReadyEngine(t)
	defer e.Shutdown(context.Background())

	h, err := e.RegisterCommand(Command{Name: "publish", Title: "Publish...", Callback: noopCallback})
	require.NoError(t, err)
	assert.Equal(t, "publish", h.Name)

	_, err = e.RegisterCommand(Command{Name: "publish", Callback: noopCallback})
	assert.ErrorIs(t, err, ErrDuplicateCommand)
}

func TestEngine_RegisterDuringBootstrap(t *testing.T) {
	e := newTestEngine()
	require.NoError(t, e.BeginBootstrap())

	// Apps register while the session bootstraps.
	_, err := e.RegisterCommand(Command{Name: "publish", Callback: noopCallback})
	require.NoError(t, err)

	require.NoError(t, e.Ready())
	defer e.Shutdown(context.Background())
	assert.Len(t, e.Commands(), 1)
}

func TestEngine_RegisterAfterShutdown(t *testing.T) {
	e := newReadyEngine(t)
	e.Shutdown(context.Background())

	_, err := e.RegisterCommand(Command{Name: "late", Callback: noopCallback})
	assert.ErrorIs(t, err, ErrSessionClosed)
}

func TestEngine_ExecuteCommand(t *testing.T) {
	e := newReadyEngine(t)
	defer e.Shutdown(context.Background())

	ran := false
	_, err := e.RegisterCommand(Command{Name: "publish", Callback: func(_ context.Context) error {
		ran = true
		return nil
	}})
	require.NoError(t, err)

	require.NoError(t, e.ExecuteCommand(context.Background(), "publish"))
	assert.True(t, ran)
}

func TestEngine_ExecuteCommand_NotFound(t *testing.T) {
	e := newReadyEngine(t)
	defer e.Shutdown(context.Background())

	err := e.ExecuteCommand(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")
}

func TestEngine_ExecuteCommand_TrapsPanic(t *testing.T) {
	e := newReadyEngine(t)
	defer e.Shutdown(context.Background())

	_, err := e.RegisterCommand(Command{Name: "crash", Callback: func(_ context.Context) error {
		panic("toolkit app bug")
	}})
	require.NoError(t, err)

	err = e.ExecuteCommand(context.Background(), "crash")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panicked")

	// The engine survives and keeps serving.
	require.NoError(t, e.Emit(LogEvent{Level: hook.SeverityInfo, Message: "still alive"}))
}

func TestEngine_CommandCanShowPanelFromCallback(t *testing.T) {
	e := newReadyEngine(t)
	defer e.Shutdown(context.Background())

	_, err := e.RegisterCommand(Command{Name: "loader", Callback: func(ctx context.Context) error {
		// Runs on the UI thread; must not deadlock.
		_, perr := e.ShowPanel(ctx, "loader-panel", "Loader", nil)
		return perr
	}})
	require.NoError(t, err)

	require.NoError(t, e.ExecuteCommand(context.Background(), "loader"))
	assert.Equal(t, 1, e.panels.Len())
}

func TestEngine_ShowPanelIdempotent(t *testing.T) {
	e := newReadyEngine(t)
	defer e.Shutdown(context.Background())

	first, err := e.ShowPanel(context.Background(), "loader", "Loader", nil)
	require.NoError(t, err)
	second, err := e.ShowPanel(context.Background(), "loader", "Loader", nil)
	require.NoError(t, err)

	assert.Same(t, first.Container, second.Container)
}

func TestEngine_ShowPanelRecreatesAfterDestroy(t *testing.T) {
	e := newReadyEngine(t)
	defer e.Shutdown(context.Background())

	first, err := e.ShowPanel(context.Background(), "loader", "Loader", nil)
	require.NoError(t, err)

	e.factory.Destroy("loader")

	second, err := e.ShowPanel(context.Background(), "loader", "Loader", nil)
	require.NoError(t, err)
	assert.NotSame(t, first.Container, second.Container)
}

func TestEngine_PanelQueuedDuringBootstrap(t *testing.T) {
	e := newTestEngine()
	require.NoError(t, e.BeginBootstrap())

	h, err := e.ShowPanel(context.Background(), "loader", "Loader", nil)
	require.NoError(t, err)
	assert.Equal(t, "loader", h.ID)
	assert.Nil(t, h.Container, "container is deferred until Ready")
	assert.Equal(t, 0, e.panels.Len())

	require.NoError(t, e.Ready())
	defer e.Shutdown(context.Background())
	assert.Equal(t, 1, e.panels.Len())
}

func TestEngine_EmitQueuedInOrder(t *testing.T) {
	e := newTestEngine()
	require.NoError(t, e.BeginBootstrap())

	require.NoError(t, e.Emit(LogEvent{Level: hook.SeverityInfo, Message: "a"}))
	require.NoError(t, e.Emit(LogEvent{Level: hook.SeverityInfo, Message: "b"}))
	assert.Empty(t, e.sink.Lines())

	require.NoError(t, e.Ready())
	require.NoError(t, e.Emit(LogEvent{Level: hook.SeverityInfo, Message: "c"}))

	// Console writes land on the UI thread; wait for the queue to drain.
	require.NoError(t, e.dispatcher.Invoke(func() error { return nil }))
	assert.Equal(t, []string{"[info] a", "[info] b", "[info] c"}, e.sink.Lines())
	e.Shutdown(context.Background())
}

func TestEngine_QueueOverflow(t *testing.T) {
	e := newTestEngine()
	require.NoError(t, e.BeginBootstrap())

	for i := 0; i < pendingLimit; i++ {
		require.NoError(t, e.Emit(LogEvent{Level: hook.SeverityDebug, Message: fmt.Sprintf("event %d", i)}))
	}

	err := e.Emit(LogEvent{Level: hook.SeverityDebug, Message: "one too many"})
	assert.ErrorIs(t, err, ErrBootstrapTimeout)

	e.BootstrapFailed(errors.New("abandon"))
}

func TestEngine_EmitAfterShutdown(t *testing.T) {
	e := newReadyEngine(t)
	e.Shutdown(context.Background())

	err := e.Emit(LogEvent{Level: hook.SeverityInfo, Message: "too late"})
	assert.ErrorIs(t, err, ErrSessionClosed)
}

func TestEngine_BootstrapFailed(t *testing.T) {
	defer goleak.VerifyNone(t)

	e := newTestEngine()
	require.NoError(t, e.BeginBootstrap())

	_, err := e.ShowPanel(context.Background(), "loader", "Loader", nil)
	require.NoError(t, err)

	e.BootstrapFailed(errors.New("core unreachable"))
	assert.Equal(t, StateClosed, e.State())

	// Nothing was surfaced, and later calls fail fast.
	assert.Equal(t, 0, e.panels.Len())
	_, err = e.RegisterCommand(Command{Name: "late", Callback: noopCallback})
	assert.ErrorIs(t, err, ErrSessionClosed)
}

func TestEngine_NotifyContextChange(t *testing.T) {
	e := newTestEngine()
	require.NoError(t, e.BeginBootstrap())
	require.NoError(t, e.Ready())
	defer e.Shutdown(context.Background())

	// The engine caches the context; it only refreshes on notification.
	assert.Equal(t, "outpost", e.Context().Project)

	e.hooks.Context = staticContext{ctx: hook.Context{Project: "skyline"}}
	assert.Equal(t, "outpost", e.Context().Project)

	require.NoError(t, e.NotifyContextChange())
	assert.Equal(t, "skyline", e.Context().Project)
}

func TestEngine_Selection(t *testing.T) {
	e := newReadyEngine(t)
	defer e.Shutdown(context.Background())

	sel, err := e.Selection()
	require.NoError(t, err)
	assert.Equal(t, []string{"/Game/Assets/Chair"}, sel)
}

func TestEngine_NotReadyDistinctFromClosed(t *testing.T) {
	e := newTestEngine()
	require.NoError(t, e.BeginBootstrap())

	// Before Ready the session is not closed; callers get an error they
	// can distinguish from post-shutdown rejection.
	_, err := e.Selection()
	assert.ErrorIs(t, err, ErrSessionNotReady)
	assert.NotErrorIs(t, err, ErrSessionClosed)
	errutil.AssertErrorCode(t, err, "SESSION_NOT_READY")

	err = e.NotifyContextChange()
	assert.ErrorIs(t, err, ErrSessionNotReady)

	err = e.ExecuteCommand(context.Background(), "publish")
	assert.ErrorIs(t, err, ErrSessionNotReady)

	e.BootstrapFailed(errors.New("abandoned"))

	_, err = e.Selection()
	assert.ErrorIs(t, err, ErrSessionClosed)
	err = e.NotifyContextChange()
	assert.ErrorIs(t, err, ErrSessionClosed)
}

func TestEngine_MenuItems(t *testing.T) {
	favs := []settings.Favourite{{AppInstance: "tk-multi-workfiles2", Name: "file-open"}}
	e := newReadyEngine(t, WithFavourites(favs))
	defer e.Shutdown(context.Background())

	_, err := e.RegisterCommand(Command{Name: "file-open", Title: "File Open...", Group: "tk-multi-workfiles2", Callback: noopCallback})
	require.NoError(t, err)

	items := e.MenuItems()
	require.NotEmpty(t, items)
	assert.Equal(t, MenuContextBegin, items[0].Kind)
	assert.Equal(t, "outpost / shot010 / comp", items[0].Title)
}

func TestEngine_ShutdownBestEffort(t *testing.T) {
	defer goleak.VerifyNone(t)

	e := newReadyEngine(t)
	e.core.shutdownErr = errors.New("core hung")

	_, err := e.RegisterCommand(Command{Name: "publish", Callback: noopCallback})
	require.NoError(t, err)
	_, err = e.ShowPanel(context.Background(), "loader", "Loader", nil)
	require.NoError(t, err)

	e.Shutdown(context.Background())

	// Every step ran despite the core failure.
	assert.Equal(t, StateClosed, e.State())
	assert.Equal(t, 0, e.registry.Len())
	assert.Equal(t, 0, e.panels.Len())
	assert.Equal(t, 1, e.core.shutdownCnt)
}

func TestEngine_ShutdownIdempotent(t *testing.T) {
	e := newReadyEngine(t)
	e.Shutdown(context.Background())
	e.Shutdown(context.Background())
	assert.Equal(t, 1, e.core.shutdownCnt)
}

func TestEngine_ShutdownDuringBootstrap(t *testing.T) {
	e := newTestEngine()
	require.NoError(t, e.BeginBootstrap())

	e.Shutdown(context.Background())
	assert.Equal(t, StateClosed, e.State())
	assert.Equal(t, 0, e.core.shutdownCnt, "core was never handed out")
}
