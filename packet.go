// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pipes

import (
	"context"
	"sync/atomic"
	"unsafe"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/pipes/sched"
)

// state is the packet handshake state.
type state uint32

const (
	empty state = iota
	full
	blocked
	terminated
)

func (s state) String() string {
	switch s {
	case empty:
		return "empty"
	case full:
		return "full"
	case blocked:
		return "blocked"
	case terminated:
		return "terminated"
	}
	return "invalid"
}

// Header is the shared part of a packet: the state cell, the task
// blocked on it, and a back-reference to the buffer the packet lives in.
//
// Exactly one sender and one receiver reference a header at a time.
// state and task are the only fields written by both; both are atomic.
type Header struct {
	state atomix.Uint32
	task  atomic.Pointer[sched.Task]

	// buffer is non-owning; it navigates to the reference count.
	buffer *bufferHeader
}

func (h *Header) swapAcquire(s state) state { return state(h.state.SwapAcquire(uint32(s))) }
func (h *Header) swapRelease(s state) state { return state(h.state.SwapRelease(uint32(s))) }
func (h *Header) swapAcqRel(s state) state  { return state(h.state.SwapAcqRel(uint32(s))) }
func (h *Header) restore(s state)           { h.state.StoreRelease(uint32(s)) }
func (h *Header) load() state               { return state(h.state.LoadAcquire()) }

// token identifies the header in wake signals.
func (h *Header) token() sched.Token {
	return sched.Token(uintptr(unsafe.Pointer(h)))
}

// markBlocked records t as the waiter and returns the previous state.
// If the packet was already blocked, the previous waiter stays
// registered.
func (h *Header) markBlocked(t *sched.Task) state {
	prev := h.task.Swap(t)
	old := h.swapAcqRel(blocked)
	if old == blocked {
		h.task.Store(prev)
	}
	return old
}

// unblock withdraws a waiter registered by markBlocked, leaving a full or
// terminated packet as it was.
func (h *Header) unblock() {
	h.task.Store(nil)
	switch old := h.swapAcquire(empty); old {
	case empty, blocked:
	case full, terminated:
		h.restore(old)
	}
}

// wake signals the task blocked on h, if one is still registered.
func (h *Header) wake() {
	t := h.task.Load()
	if t == nil {
		logger.Debug().Uint64("packet", uint64(h.token())).Msg("blocked without a task")
		return
	}
	stats.wakes.Add(1)
	logger.Debug().Uint64("packet", uint64(h.token())).Uint64("task", t.ID()).Msg("waking blocked task")
	t.Signal(h.token())
}

// Packet is a header plus a single payload slot.
// The slot holds a value if and only if the state is full.
type Packet[T any] struct {
	header  Header
	payload T
}

// Header returns the packet's header.
func (p *Packet[T]) Header() *Header {
	return &p.header
}

func (p *Packet[T]) take() T {
	v := p.payload
	var zero T
	p.payload = zero
	return v
}

// send writes v and publishes it with a release exchange.
// Never blocks.
func (p *Packet[T]) send(v T) {
	p.payload = v
	switch p.header.swapRelease(full) {
	case empty:
		// The receiver observes full on its next exchange.
	case full:
		panic(ErrDuplicateSend)
	case blocked:
		p.header.wake()
	case terminated:
		// The receiver is gone; the message is undeliverable.
		discard(p.take())
	}
}

// tryRecv takes the payload, blocking while the packet is empty.
// It reports false when the sender terminated without sending.
func (p *Packet[T]) tryRecv(ctx context.Context) (T, bool) {
	h := &p.header
	// Only the receiver moves a packet out of full or terminated.
	switch h.load() {
	case full:
		v := p.take()
		h.restore(empty)
		return v, true
	case terminated:
		var zero T
		return zero, false
	case blocked:
		panic(ErrAlreadyBlocked)
	}

	t := sched.Current(ctx)
	prev := h.task.Swap(t)
	first := true
	count := spinCount()
	for {
		t.ClearEvent()
		switch old := h.swapAcqRel(blocked); old {
		case full:
			v := p.take()
			h.task.Store(nil)
			h.restore(empty)
			return v, true
		case terminated:
			h.task.Store(nil)
			h.restore(terminated)
			var zero T
			return zero, false
		case blocked:
			if first {
				h.task.Store(prev)
				panic(ErrAlreadyBlocked)
			}
			fallthrough
		case empty:
			if count > 0 {
				count--
				sched.Yield()
				break
			}
			if !sleep(t, h) {
				p.receiverAbort()
				panic(ErrKilled)
			}
		}
		first = false
	}
}

// receiverAbort terminates the packet on behalf of a receiver that was
// killed while blocked on it.
func (p *Packet[T]) receiverAbort() {
	p.header.task.Store(nil)
	if p.header.swapAcqRel(terminated) == full {
		discard(p.take())
	}
}

// peek reports whether a receive would complete without blocking.
func (p *Packet[T]) peek() bool {
	switch p.header.load() {
	case empty:
		return false
	case blocked:
		panic(ErrPeekBlocked)
	}
	return true
}

// senderTerminate closes the send side without a message.
func (p *Packet[T]) senderTerminate() {
	stats.terminations.Add(1)
	switch p.header.swapRelease(terminated) {
	case empty:
	case blocked:
		p.header.wake()
	case full:
		panic(ErrSenderFull)
	case terminated:
		// Both sides are gone; the reference count releases the buffer.
	}
}

// receiverTerminate closes the receive side before a message was taken.
func (p *Packet[T]) receiverTerminate() {
	stats.terminations.Add(1)
	switch p.header.swapAcqRel(terminated) {
	case empty:
	case blocked:
		panic(ErrTerminateBlocked)
	case full:
		discard(p.take())
	case terminated:
	}
}

// Discarder is implemented by payloads that own endpoints.
// Discard is called when such a payload can no longer be delivered, so the
// endpoints it carries are closed instead of leaking their peers.
type Discarder interface {
	Discard()
}

func discard(v any) {
	if d, ok := v.(Discarder); ok {
		d.Discard()
	}
}
