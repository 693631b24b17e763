// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SlateBridge Contributors

package bridge

import "github.com/samber/oops"

// State is the lifecycle phase of an engine session.
type State uint8

const (
	StateUninitialized State = iota
	StateBootstrapping
	StateReady
	StateShuttingDown
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateBootstrapping:
		return "bootstrapping"
	case StateReady:
		return "ready"
	case StateShuttingDown:
		return "shutting-down"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// transition validates a state change. States only move forward:
// Uninitialized → Bootstrapping → Ready → ShuttingDown → Closed.
// Bootstrapping may jump straight to Closed when bootstrap fails.
func transition(from, to State) error {
	allowed := map[State][]State{
		StateUninitialized: {StateBootstrapping},
		StateBootstrapping: {StateReady, StateClosed},
		StateReady:         {StateShuttingDown},
		StateShuttingDown:  {StateClosed},
	}
	for _, next := range allowed[from] {
		if next == to {
			return nil
		}
	}
	return oops.
		Code("INVALID_TRANSITION").
		With("from", from.String()).
		With("to", to.String()).
		Errorf("cannot transition session from %s to %s", from, to)
}
