// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SlateBridge Contributors

package bridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransition_ForwardOnly(t *testing.T) {
	tests := []struct {
		from, to State
		ok       bool
	}{
		{StateUninitialized, StateBootstrapping, true},
		{StateBootstrapping, StateReady, true},
		{StateBootstrapping, StateClosed, true},
		{StateReady, StateShuttingDown, true},
		{StateShuttingDown, StateClosed, true},
		{StateReady, StateBootstrapping, false},
		{StateClosed, StateReady, false},
		{StateUninitialized, StateReady, false},
		{StateShuttingDown, StateReady, false},
		{StateClosed, StateBootstrapping, false},
	}

	for _, tt := range tests {
		err := transition(tt.from, tt.to)
		if tt.ok {
			assert.NoError(t, err, "%s -> %s", tt.from, tt.to)
		} else {
			assert.Error(t, err, "%s -> %s", tt.from, tt.to)
		}
	}
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "uninitialized", StateUninitialized.String())
	assert.Equal(t, "bootstrapping", StateBootstrapping.String())
	assert.Equal(t, "ready", StateReady.String())
	assert.Equal(t, "shutting-down", StateShuttingDown.String())
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "unknown", State(42).String())
}
