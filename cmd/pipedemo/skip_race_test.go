// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build race

package main

import "testing"

// skipRace skips tests that hand payloads between goroutines.
// The race detector tracks per-variable happens-before and cannot see
// the ordering the packet state exchange gives the payload slot
// (release on send, acquire on receive), producing false positives.
func skipRace(tb testing.TB) {
	tb.Helper()
	tb.Skip("skip: payload ordering is carried by the packet state cell")
}
