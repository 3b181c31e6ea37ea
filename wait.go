// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pipes

import (
	"context"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/pipes/sched"
)

// spins is the number of yielding polls a receive makes on an empty
// packet before it sleeps.
var spins atomix.Int32

// SetSpinCount sets how many times a blocking receive yields and
// re-polls an empty packet before going to sleep. Zero, the default,
// sleeps immediately.
func SetSpinCount(n int) {
	if n < 0 {
		n = 0
	}
	spins.Store(int32(n))
}

func spinCount() int {
	return int(spins.Load())
}

// sleep blocks t until it is signalled. It returns false when the task
// was killed and is not already failing.
func sleep(t *sched.Task, h *Header) bool {
	stats.sleeps.Add(1)
	logger.Debug().Uint64("packet", uint64(h.token())).Uint64("task", t.ID()).Msg("no data available, going to sleep")
	_, killed := t.Wait()
	return !killed || t.Failing()
}

// WaitMany blocks until one of the packets has a message or was closed
// by its sender, and returns its index.
//
// Every packet is marked blocked on the calling task in order; the first
// one found already full or terminated wins. Otherwise the task sleeps
// and wakes for foreign packets are ignored. Before returning, every
// packet is restored to its state as seen by its sender, so endpoints not
// chosen are observably unchanged. When several packets are ready, the
// lowest index among those seen first wins; callers must not rely on
// fairness.
func WaitMany(headers []*Header) int {
	return WaitManyContext(context.Background(), headers)
}

// WaitManyContext is WaitMany on the task bound to ctx. A kill while
// sleeping restores the packets and panics with ErrKilled.
func WaitManyContext(ctx context.Context, headers []*Header) int {
	if len(headers) == 0 {
		panic(ErrInvalidIndex)
	}
	for i, h := range headers {
		switch h.load() {
		case full, terminated:
			return i
		case blocked:
			panic(ErrAlreadyBlocked)
		}
	}

	t := sched.Current(ctx)
	t.ClearEvent()

	ready := -1
mark:
	for i, h := range headers {
		switch old := h.markBlocked(t); old {
		case full, terminated:
			ready = i
			h.restore(old)
			break mark
		case blocked:
			for _, m := range headers[:i] {
				m.unblock()
			}
			panic(ErrAlreadyBlocked)
		case empty:
		}
	}

	for ready < 0 {
		stats.sleeps.Add(1)
		logger.Debug().Int("packets", len(headers)).Uint64("task", t.ID()).Msg("sleeping on packets")
		tok, killed := t.Wait()
		if killed && !t.Failing() {
			for _, h := range headers {
				h.unblock()
			}
			panic(ErrKilled)
		}
		if i := indexOf(headers, tok); i >= 0 {
			ready = i
			break
		}
		stats.spuriousWakes.Add(1)
		logger.Debug().Uint64("event", uint64(tok)).Msg("ignoring spurious event")
		// A later signal may have overwritten the token of a ready packet.
		ready = firstReady(headers)
	}

	for _, h := range headers {
		h.unblock()
	}
	return ready
}

func indexOf(headers []*Header, tok sched.Token) int {
	if tok == 0 {
		return -1
	}
	for i, h := range headers {
		if h.token() == tok {
			return i
		}
	}
	return -1
}

func firstReady(headers []*Header) int {
	for i, h := range headers {
		switch h.load() {
		case full, terminated:
			return i
		}
	}
	return -1
}
