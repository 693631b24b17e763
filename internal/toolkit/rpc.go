// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SlateBridge Contributors

package toolkit

import (
	"context"
	"errors"
	"net/rpc"

	hashiplug "github.com/hashicorp/go-plugin"
)

// CorePlugin implements go-plugin's Plugin interface over net/rpc.
// The bridge side uses Client; slate-core binaries use Server.
type CorePlugin struct {
	// Impl is used by the core-side process (not used by the bridge).
	Impl Core
}

// Server returns the RPC server for the core process.
func (p *CorePlugin) Server(_ *hashiplug.MuxBroker) (any, error) {
	if p.Impl == nil {
		return nil, errors.New("toolkit: core implementation is nil")
	}
	return &coreRPCServer{impl: p.Impl}, nil
}

// Client returns the Core proxy for the bridge process.
func (p *CorePlugin) Client(_ *hashiplug.MuxBroker, c *rpc.Client) (any, error) {
	return &coreRPCClient{client: c}, nil
}

// LoadAppsArgs is the wire form of a LoadApps call.
type LoadAppsArgs struct {
	EngineConfig map[string]any
	Project      string
	Entity       string
	Task         string
}

// LoadAppsReply carries the registered commands back.
type LoadAppsReply struct {
	Commands []CommandDescriptor
}

// ExecuteArgs names the command to run.
type ExecuteArgs struct {
	Name string
}

// VersionReply carries the core's version string.
type VersionReply struct {
	Version string
}

// coreRPCClient proxies Core calls over net/rpc. Contexts don't cross
// the process boundary; cancellation is process-level (Runner.Close).
type coreRPCClient struct {
	client *rpc.Client
}

var _ Core = (*coreRPCClient)(nil)

func (c *coreRPCClient) LoadApps(_ context.Context, engineConfig map[string]any, project, entity, task string) ([]CommandDescriptor, error) {
	args := LoadAppsArgs{
		EngineConfig: engineConfig,
		Project:      project,
		Entity:       entity,
		Task:         task,
	}
	var reply LoadAppsReply
	if err := c.client.Call("Plugin.LoadApps", args, &reply); err != nil {
		return nil, err
	}
	return reply.Commands, nil
}

func (c *coreRPCClient) Execute(_ context.Context, name string) error {
	var reply struct{}
	return c.client.Call("Plugin.Execute", ExecuteArgs{Name: name}, &reply)
}

func (c *coreRPCClient) Version(_ context.Context) (string, error) {
	var reply VersionReply
	if err := c.client.Call("Plugin.Version", struct{}{}, &reply); err != nil {
		return "", err
	}
	return reply.Version, nil
}

func (c *coreRPCClient) Shutdown(_ context.Context) error {
	var reply struct{}
	return c.client.Call("Plugin.Shutdown", struct{}{}, &reply)
}

// coreRPCServer dispatches net/rpc calls onto a Core implementation.
type coreRPCServer struct {
	impl Core
}

func (s *coreRPCServer) LoadApps(args LoadAppsArgs, reply *LoadAppsReply) error {
	cmds, err := s.impl.LoadApps(context.Background(), args.EngineConfig, args.Project, args.Entity, args.Task)
	if err != nil {
		return err
	}
	reply.Commands = cmds
	return nil
}

func (s *coreRPCServer) Execute(args ExecuteArgs, _ *struct{}) error {
	return s.impl.Execute(context.Background(), args.Name)
}

func (s *coreRPCServer) Version(_ struct{}, reply *VersionReply) error {
	v, err := s.impl.Version(context.Background())
	if err != nil {
		return err
	}
	reply.Version = v
	return nil
}

func (s *coreRPCServer) Shutdown(_ struct{}, _ *struct{}) error {
	return s.impl.Shutdown(context.Background())
}
