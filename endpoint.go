// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pipes

import (
	"context"
	"runtime"
)

// SendPacket is the sending end of a packet. It can send exactly one
// message.
//
// A SendPacket exclusively owns its packet and one reference on the
// packet's buffer. Send consumes it; Close terminates it without a
// message. If an unconsumed SendPacket becomes unreachable, the same
// termination runs when it is collected, but callers should not rely on
// the garbage collector: close what you do not send on.
type SendPacket[T any] struct {
	p       *Packet[T]
	buffer  bufferResource
	cleanup runtime.Cleanup
}

// RecvPacket is the receiving end of a packet. It can receive exactly one
// message.
//
// Ownership follows [SendPacket]: a receive consumes it, Close terminates
// it.
type RecvPacket[T any] struct {
	p       *Packet[T]
	buffer  bufferResource
	cleanup runtime.Cleanup
}

// Entangle creates a fresh one-packet buffer and returns the two ends of
// its packet.
func Entangle[T any]() (*SendPacket[T], *RecvPacket[T]) {
	p := unibuffer[T]()
	stats.entangled.Add(1)
	return NewSendPacket(p), NewRecvPacket(p)
}

// EntangleBuffer returns the two ends of the packet init carves out of
// the preallocated buffer b. Bounded protocols use it to start a
// conversation whose every state lives in b.
func EntangleBuffer[B, T any](b *Buffer[B], init func(b *Buffer[B]) *Packet[T]) (*SendPacket[T], *RecvPacket[T]) {
	p := init(b)
	if p.header.buffer != &b.header {
		panic(ErrForeignPacket)
	}
	stats.entangled.Add(1)
	return NewSendPacket(p), NewRecvPacket(p)
}

// NewSendPacket wraps a bound packet as its send side, acquiring a
// reference on the packet's buffer.
func NewSendPacket[T any](p *Packet[T]) *SendPacket[T] {
	if p.header.buffer == nil {
		panic(ErrUnbound)
	}
	s := &SendPacket[T]{p: p, buffer: acquireBuffer(p.header.buffer)}
	s.cleanup = runtime.AddCleanup(s, abandonSender[T], p)
	return s
}

// NewRecvPacket wraps a bound packet as its receive side, acquiring a
// reference on the packet's buffer.
func NewRecvPacket[T any](p *Packet[T]) *RecvPacket[T] {
	if p.header.buffer == nil {
		panic(ErrUnbound)
	}
	r := &RecvPacket[T]{p: p, buffer: acquireBuffer(p.header.buffer)}
	r.cleanup = runtime.AddCleanup(r, abandonReceiver[T], p)
	return r
}

func abandonSender[T any](p *Packet[T]) {
	p.senderTerminate()
	p.header.buffer.drop()
}

func abandonReceiver[T any](p *Packet[T]) {
	p.receiverTerminate()
	p.header.buffer.drop()
}

// unwrap takes the raw packet out of the handle. The buffer reference
// stays with the handle until released.
func (s *SendPacket[T]) unwrap() *Packet[T] {
	p := s.p
	if p == nil {
		panic(ErrConsumed)
	}
	s.p = nil
	s.cleanup.Stop()
	return p
}

// Send delivers v to the receiver and consumes s. Never blocks.
// If the receiver was closed, v is silently dropped.
func (s *SendPacket[T]) Send(v T) {
	p := s.unwrap()
	p.send(v)
	s.buffer.release()
}

// Header returns the header of the owned packet.
func (s *SendPacket[T]) Header() *Header {
	if s.p == nil {
		panic(ErrConsumed)
	}
	return &s.p.header
}

// Consumed reports whether the packet was sent on or closed.
func (s *SendPacket[T]) Consumed() bool {
	return s.p == nil
}

// Close terminates the send side if it was not consumed: a receiver
// waiting on the packet is woken and observes the closure. Closing a
// consumed SendPacket is a no-op.
func (s *SendPacket[T]) Close() {
	if s.p == nil {
		return
	}
	s.unwrap().senderTerminate()
	s.buffer.release()
}

func (r *RecvPacket[T]) unwrap() *Packet[T] {
	p := r.p
	if p == nil {
		panic(ErrConsumed)
	}
	r.p = nil
	r.cleanup.Stop()
	return p
}

// Recv blocks until the message arrives and consumes r.
// It panics with ErrClosed if the sender closed without sending.
func (r *RecvPacket[T]) Recv() T {
	v, ok := r.TryRecv()
	if !ok {
		panic(ErrClosed)
	}
	return v
}

// RecvContext is Recv with a kill signal: cancellation of ctx while
// blocked aborts the receive with a panic of ErrKilled.
func (r *RecvPacket[T]) RecvContext(ctx context.Context) T {
	v, ok := r.TryRecvContext(ctx)
	if !ok {
		panic(ErrClosed)
	}
	return v
}

// TryRecv blocks until the message arrives or the sender closes, and
// consumes r. It returns false if the sender closed without sending.
func (r *RecvPacket[T]) TryRecv() (T, bool) {
	return r.TryRecvContext(context.Background())
}

// TryRecvContext is TryRecv on the task bound to ctx.
func (r *RecvPacket[T]) TryRecvContext(ctx context.Context) (T, bool) {
	p := r.unwrap()
	defer r.buffer.release()
	return p.tryRecv(ctx)
}

// Peek reports whether a message or a closure is ready, without
// consuming r.
func (r *RecvPacket[T]) Peek() bool {
	if r.p == nil {
		panic(ErrConsumed)
	}
	return r.p.peek()
}

// Header returns the header of the owned packet.
func (r *RecvPacket[T]) Header() *Header {
	if r.p == nil {
		panic(ErrConsumed)
	}
	return &r.p.header
}

// Consumed reports whether the packet was received on or closed.
func (r *RecvPacket[T]) Consumed() bool {
	return r.p == nil
}

// Close terminates the receive side if it was not consumed. A message
// already delivered is discarded. Closing a consumed RecvPacket is a
// no-op.
func (r *RecvPacket[T]) Close() {
	if r.p == nil {
		return
	}
	r.unwrap().receiverTerminate()
	r.buffer.release()
}
