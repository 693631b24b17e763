// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SlateBridge Contributors

//go:build integration

package bridge_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/slatebridge/slatebridge/internal/bridge"
	"github.com/slatebridge/slatebridge/internal/hook"
	"github.com/slatebridge/slatebridge/internal/startup"
	"github.com/slatebridge/slatebridge/internal/toolkit"
)

// scriptedCore is an in-process toolkit.Core with a fixed app set.
type scriptedCore struct {
	descriptors []toolkit.CommandDescriptor

	mu       sync.Mutex
	executed []string
	shutdown bool
}

func (c *scriptedCore) LoadApps(_ context.Context, _ map[string]any, _, _, _ string) ([]toolkit.CommandDescriptor, error) {
	return c.descriptors, nil
}

func (c *scriptedCore) Execute(_ context.Context, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.executed = append(c.executed, name)
	return nil
}

func (c *scriptedCore) Version(_ context.Context) (string, error) { return "1.4.0", nil }

func (c *scriptedCore) Shutdown(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.shutdown = true
	return nil
}

func (c *scriptedCore) Executed() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.executed...)
}

func (c *scriptedCore) WasShutdown() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.shutdown
}

// inlineStarter hands out a scriptedCore without spawning a process.
type inlineStarter struct {
	core   *scriptedCore
	closed bool
}

func (s *inlineStarter) Start(_ context.Context, _ string) (toolkit.Core, error) {
	return s.core, nil
}

func (s *inlineStarter) Close() { s.closed = true }

// orderedConsole records console lines in write order.
type orderedConsole struct {
	mu    sync.Mutex
	lines []string
}

func (c *orderedConsole) WriteConsole(sev hook.Severity, msg string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = append(c.lines, "["+sev.String()+"] "+msg)
	return nil
}

func (c *orderedConsole) Lines() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.lines...)
}

type pinnedContext struct{ ctx hook.Context }

func (p pinnedContext) CurrentContext() (hook.Context, error) { return p.ctx, nil }

func coreBinaryName() string {
	if runtime.GOOS == "windows" {
		return "slate-core.exe"
	}
	return "slate-core"
}

func seedCoreCache(root, version string) {
	dir := filepath.Join(root, version)
	Expect(os.MkdirAll(dir, 0o700)).To(Succeed())
	Expect(os.WriteFile(filepath.Join(dir, coreBinaryName()), []byte("core"), 0o700)).To(Succeed())
}

var _ = Describe("Bridge lifecycle", func() {
	var (
		core    *scriptedCore
		starter *inlineStarter
		console *orderedConsole
		hooks   hook.Set
		root    string
	)

	BeforeEach(func() {
		core = &scriptedCore{descriptors: []toolkit.CommandDescriptor{
			{Name: "publish", Title: "Publish...", AppInstance: "tk-multi-publish2"},
			{Name: "file-open", Title: "File Open...", AppInstance: "tk-multi-workfiles2"},
		}}
		starter = &inlineStarter{core: core}
		console = &orderedConsole{}
		hooks = hook.Set{
			Panels:    hook.NewMemoryPanelFactory(),
			Context:   pinnedContext{ctx: hook.Context{Project: "outpost", Entity: "shot010", Task: "comp"}},
			Console:   console,
			Selection: hook.StaticSelectionProvider{"/Game/Props/Chair"},
		}
		root = GinkgoT().TempDir()
		seedCoreCache(root, "1.4.0")
	})

	It("bootstraps, serves a full session, and tears down cleanly", func() {
		engine, err := startup.Run(context.Background(), "5.3.1", startup.Options{
			Hooks:     hooks,
			CacheRoot: root,
			Starter:   starter,
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(engine.State()).To(Equal(bridge.StateReady))
		Expect(engine.Commands()).To(HaveLen(2))
		Expect(engine.Context().String()).To(Equal("outpost / shot010 / comp"))

		By("executing a registered command through the core")
		Expect(engine.ExecuteCommand(context.Background(), "publish")).To(Succeed())
		Eventually(core.Executed).Should(ContainElement("publish"))

		By("hosting a panel idempotently")
		first, err := engine.ShowPanel(context.Background(), "loader", "Loader", nil)
		Expect(err).NotTo(HaveOccurred())
		second, err := engine.ShowPanel(context.Background(), "loader", "Loader", nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(first.Container).To(BeIdenticalTo(second.Container))

		By("relaying log events in emission order")
		for _, msg := range []string{"first", "second", "third"} {
			Expect(engine.Emit(bridge.LogEvent{Level: hook.SeverityInfo, Message: msg})).To(Succeed())
		}
		Eventually(console.Lines).Should(ContainElements("[info] first", "[info] second", "[info] third"))

		By("tearing down best-effort")
		engine.Shutdown(context.Background())
		Expect(engine.State()).To(Equal(bridge.StateClosed))
		Expect(core.WasShutdown()).To(BeTrue())
		Expect(engine.Commands()).To(BeEmpty())

		err = engine.Emit(bridge.LogEvent{Level: hook.SeverityInfo, Message: "too late"})
		Expect(errors.Is(err, bridge.ErrSessionClosed)).To(BeTrue())
	})

	It("refuses an incompatible host with a single console entry", func() {
		engine, err := startup.Run(context.Background(), "4.0.0", startup.Options{
			Hooks:     hooks,
			CacheRoot: root,
			Starter:   starter,
		})
		Expect(engine).To(BeNil())
		Expect(errors.Is(err, startup.ErrIncompatibleHost)).To(BeTrue())
		Expect(console.Lines()).To(HaveLen(1))
	})

	It("fails bootstrap loudly once when no core is cached", func() {
		engine, err := startup.Run(context.Background(), "5.3.1", startup.Options{
			Hooks:     hooks,
			CacheRoot: GinkgoT().TempDir(),
			Starter:   starter,
		})
		Expect(engine).To(BeNil())
		Expect(errors.Is(err, toolkit.ErrNoCachedCore)).To(BeTrue())
		Expect(console.Lines()).To(HaveLen(1))
	})
})
