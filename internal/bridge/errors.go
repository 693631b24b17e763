// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SlateBridge Contributors

package bridge

import "errors"

// Sentinel errors for programmatic error checking.
var (
	// ErrDuplicateCommand is returned when registering a command name
	// already present in the session.
	ErrDuplicateCommand = errors.New("duplicate command")

	// ErrSessionClosed is returned for calls made after shutdown began.
	ErrSessionClosed = errors.New("session closed")

	// ErrSessionNotReady is returned for calls that arrive before
	// bootstrap completes and cannot queue until Ready.
	ErrSessionNotReady = errors.New("session not ready")

	// ErrBootstrapTimeout is returned when the pre-Ready call queue
	// overflows instead of growing without bound.
	ErrBootstrapTimeout = errors.New("bootstrap queue full")
)
