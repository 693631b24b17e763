// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SlateBridge Contributors

package errutil_test

import (
	"testing"

	"github.com/samber/oops"

	"github.com/slatebridge/slatebridge/pkg/errutil"
)

func TestAssertErrorCode_MatchingCode(t *testing.T) {
	err := oops.Code("DUPLICATE_COMMAND").Errorf("publish already registered")
	errutil.AssertErrorCode(t, err, "DUPLICATE_COMMAND")
}

func TestAssertErrorContext_MatchingKeyValue(t *testing.T) {
	err := oops.With("panel", "loader").Errorf("container gone")
	errutil.AssertErrorContext(t, err, "panel", "loader")
}
