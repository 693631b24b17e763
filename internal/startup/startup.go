// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SlateBridge Contributors

// Package startup is the entry Vantage invokes through its plugin scan.
// It gates on host compatibility, resolves the cached Slate core, boots
// it, and hands the live core to the engine bridge. Bootstrap is the
// one sanctioned blocking call; it runs before the host's event loop
// starts normal operation.
package startup

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/Masterminds/semver/v3"
	"github.com/samber/oops"

	"github.com/slatebridge/slatebridge/internal/bridge"
	"github.com/slatebridge/slatebridge/internal/hook"
	"github.com/slatebridge/slatebridge/internal/paths"
	"github.com/slatebridge/slatebridge/internal/settings"
	"github.com/slatebridge/slatebridge/internal/toolkit"
	"github.com/slatebridge/slatebridge/pkg/errutil"
)

// ErrIncompatibleHost means the running Vantage predates the panel API
// the bridge requires.
var ErrIncompatibleHost = errors.New("incompatible host version")

// MinimumHostVersion is the oldest Vantage release with the docked
// panel API the bridge depends on.
var MinimumHostVersion = semver.MustParse("5.0.0")

// CoreStarter starts the toolkit core process and hands back a client.
// *toolkit.Runner is the production implementation.
type CoreStarter interface {
	Start(ctx context.Context, execPath string) (toolkit.Core, error)
	Close()
}

// Options configures a bootstrap run. Zero values pick production
// defaults.
type Options struct {
	// Settings carries the declarative engine configuration. Empty
	// settings bootstrap with defaults.
	Settings *settings.Settings

	// Hooks supplies the host capability implementations. When zero,
	// the hooks manifest named in Settings selects registered
	// implementations, falling back to the default manifest when no
	// manifest path is configured.
	Hooks hook.Set

	// CacheRoot overrides the toolkit core cache directory.
	CacheRoot string

	// Starter overrides how the core process is launched.
	Starter CoreStarter

	// Progress, when set, receives coarse bootstrap stage notifications.
	Progress func(stage string)
}

func (o *Options) progress(stage string) {
	if o.Progress != nil {
		o.Progress(stage)
	}
}

// Run bootstraps the bridge inside a compatible host. The host invokes
// it with no arguments under its own control; hostVersion comes from
// the host's runtime API. On any failure exactly one error entry is
// written to the host console, the engine is never handed out, and the
// host keeps running without toolkit features.
func Run(ctx context.Context, hostVersion string, opts Options) (*bridge.Engine, error) {
	if opts.Settings == nil {
		opts.Settings = settings.Empty()
	}

	if opts.Hooks == (hook.Set{}) {
		hooks, err := resolveHooks(opts.Settings)
		if err != nil {
			// No console hook exists yet; the diagnostic goes to the log only.
			return nil, reportFailure(nil, err)
		}
		opts.Hooks = hooks
	}

	if err := checkHost(hostVersion); err != nil {
		return nil, reportFailure(opts.Hooks.Console, err)
	}

	opts.progress("resolving toolkit core")
	corePath, coreVersion, err := resolveCore(ctx, &opts)
	if err != nil {
		return nil, reportFailure(opts.Hooks.Console, err)
	}
	slog.Info("resolved toolkit core", "version", coreVersion.String(), "path", corePath)

	starter := opts.Starter
	if starter == nil {
		starter = toolkit.NewRunner()
	}

	opts.progress("starting toolkit core")
	core, err := starter.Start(ctx, corePath)
	if err != nil {
		starter.Close()
		return nil, reportFailure(opts.Hooks.Console, oops.Wrapf(err, "toolkit core failed to start"))
	}

	engine, err := bootstrapEngine(ctx, core, starter, &opts)
	if err != nil {
		return nil, reportFailure(opts.Hooks.Console, err)
	}
	return engine, nil
}

// resolveHooks loads the configured hooks manifest and resolves the
// named capability implementations from the registries.
func resolveHooks(s *settings.Settings) (hook.Set, error) {
	path := s.HooksManifestPath()
	if path == "" {
		return hook.Resolve(hook.DefaultManifest())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return hook.Set{}, oops.With("path", path).Wrapf(err, "cannot read hooks manifest")
	}
	m, err := hook.ParseManifest(data)
	if err != nil {
		return hook.Set{}, oops.With("path", path).Wrapf(err, "invalid hooks manifest %s", path)
	}
	return hook.Resolve(m)
}

// checkHost gates on the minimum supported host version. Unparseable
// versions are treated as incompatible.
func checkHost(hostVersion string) error {
	v, err := semver.NewVersion(hostVersion)
	if err != nil {
		return oops.
			Code("INCOMPATIBLE_HOST").
			With("host_version", hostVersion).
			Wrapf(ErrIncompatibleHost, "cannot parse host version %q", hostVersion)
	}
	if v.LessThan(MinimumHostVersion) {
		return oops.
			Code("INCOMPATIBLE_HOST").
			With("host_version", hostVersion).
			With("minimum", MinimumHostVersion.String()).
			Wrapf(ErrIncompatibleHost, "host %s is older than the minimum supported %s",
				v, MinimumHostVersion)
	}
	return nil
}

// resolveCore finds the Slate core executable, preferring the local
// cache. The network is only touched when nothing usable is cached and
// a download base URL is configured.
func resolveCore(ctx context.Context, opts *Options) (string, *semver.Version, error) {
	root := opts.CacheRoot
	if root == "" {
		root = paths.CoreCacheDir()
	}
	cache := toolkit.NewCache(root)

	want := opts.Settings.CoreVersion()
	path, version, err := cache.Resolve(want)
	if err == nil {
		return path, version, nil
	}
	if !errors.Is(err, toolkit.ErrNoCachedCore) {
		return "", nil, err
	}

	baseURL := opts.Settings.CoreBaseURL()
	if baseURL == "" || want == "" {
		return "", nil, oops.
			With("version", want).
			Wrapf(err, "no cached toolkit core and no pinned download version configured")
	}

	opts.progress("downloading toolkit core")
	if _, ferr := cache.Fetch(ctx, baseURL, want); ferr != nil {
		return "", nil, ferr
	}
	return cache.Resolve(want)
}

// bootstrapEngine creates the engine, loads toolkit apps through the
// core, registers their commands, and completes the Ready transition.
// Any failure closes the half-built session so the engine is never
// observable from the host.
func bootstrapEngine(ctx context.Context, core toolkit.Core, starter CoreStarter, opts *Options) (*bridge.Engine, error) {
	favs, err := opts.Settings.MenuFavourites()
	if err != nil {
		starter.Close()
		return nil, err
	}

	// The engine releases the core at teardown; closing the starter then
	// reaps the core process.
	managed := managedCore{Core: core, starter: starter}
	engine := bridge.New(managed, opts.Hooks, bridge.WithFavourites(favs))
	if err := engine.BeginBootstrap(); err != nil {
		starter.Close()
		return nil, err
	}

	fail := func(cause error) error {
		engine.BootstrapFailed(cause)
		starter.Close()
		return cause
	}

	pipeCtx, err := opts.Hooks.Context.CurrentContext()
	if err != nil {
		return nil, fail(oops.Wrapf(err, "failed to read pipeline context from host"))
	}

	opts.progress("loading toolkit apps")
	descriptors, err := core.LoadApps(ctx, opts.Settings.EngineConfig(),
		pipeCtx.Project, pipeCtx.Entity, pipeCtx.Task)
	if err != nil {
		return nil, fail(oops.Wrapf(err, "toolkit core failed to load apps"))
	}

	for _, d := range descriptors {
		if _, err := engine.RegisterCommand(commandFor(d, core, engine)); err != nil {
			return nil, fail(err)
		}
	}

	opts.progress("finalizing session")
	if err := engine.Ready(); err != nil {
		if engine.State() == bridge.StateReady {
			// Ready partially completed; run the full teardown path,
			// which also reaps the core process.
			engine.Shutdown(ctx)
			return nil, err
		}
		return nil, fail(err)
	}

	slog.Info("bridge bootstrapped",
		"session", engine.ID().String(),
		"commands", len(descriptors),
		"context", pipeCtx.String())
	return engine, nil
}

// managedCore ties the core process lifetime to the core client: the
// engine's teardown releases both.
type managedCore struct {
	toolkit.Core
	starter CoreStarter
}

func (m managedCore) Shutdown(ctx context.Context) error {
	err := m.Core.Shutdown(ctx)
	m.starter.Close()
	return err
}

// commandFor maps a core command descriptor onto an engine command. The
// core call may block on RPC, so the callback offloads it and marshals
// the completion back to the UI thread, reporting failures through the
// console relay.
func commandFor(d toolkit.CommandDescriptor, core toolkit.Core, engine *bridge.Engine) bridge.Command {
	group := d.AppInstance
	if group == "" {
		group = d.Group
	}
	name := d.Name
	return bridge.Command{
		Name:        name,
		Title:       d.Title,
		Icon:        d.Icon,
		Group:       group,
		ContextMenu: d.ContextMenu,
		Callback: func(ctx context.Context) error {
			engine.Dispatcher().RunInBackground(
				func() error { return core.Execute(ctx, name) },
				func(err error) {
					if err != nil {
						_ = engine.Emit(bridge.LogEvent{
							Level:   hook.SeverityError,
							Message: "command " + name + " failed",
							Err:     err,
						})
					}
				})
			return nil
		},
	}
}

// reportFailure writes the single console diagnostic for a failed
// bootstrap and returns the cause unchanged. The bridge then stays
// inert for the rest of the host session.
func reportFailure(console hook.ConsoleSink, cause error) error {
	errutil.LogError(slog.Default(), "bootstrap failed, toolkit features disabled", cause)
	if console != nil {
		if werr := console.WriteConsole(hook.SeverityError,
			"Slate toolkit unavailable: "+cause.Error()); werr != nil {
			slog.Warn("host console rejected bootstrap diagnostic", "error", werr)
		}
	}
	return cause
}
