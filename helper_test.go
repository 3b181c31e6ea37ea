// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pipes_test

import (
	"errors"
	"testing"

	"code.hybscloud.com/iox"
	"code.hybscloud.com/kont"
	"code.hybscloud.com/pipes"
)

// execExpr drives a protocol to completion on s via a Step+Advance loop,
// retrying while the peer has not sent yet. Used by stepping tests to
// exercise the non-blocking path.
func execExpr[R any](s *pipes.Session, protocol kont.Expr[R]) R {
	result, susp := pipes.Step[R](protocol)
	for susp != nil {
		var err error
		result, susp, err = pipes.Advance(s, susp)
		if err != nil && !iox.IsWouldBlock(err) {
			panic(err)
		}
	}
	return result
}

// mustPanic runs f and fails the test unless it panics with want.
func mustPanic(t *testing.T, want error, f func()) {
	t.Helper()
	defer func() {
		t.Helper()
		r := recover()
		if r == nil {
			t.Fatalf("expected panic %v", want)
		}
		err, ok := r.(error)
		if !ok || !errors.Is(err, want) {
			t.Fatalf("panic %v, want %v", r, want)
		}
	}()
	f()
}
