// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pipes

import (
	"context"

	"code.hybscloud.com/iox"
	"code.hybscloud.com/kont"
)

// Channel is the sending side of an unbounded stream.
type Channel[T any] interface {
	Send(x T)
}

// Receiver is the receiving side of an unbounded stream.
type Receiver[T any] interface {
	Recv() T
	TryRecv() (T, bool)
	Peek() bool
}

// SelectableReceiver is a receiver that can be waited on.
type SelectableReceiver[T any] interface {
	Selectable
	Receiver[T]
}

// streamMsg is the single message of the stream protocol:
//
//	open: send { data(T) -> open }
//
// Each message carries the receive end of the packet for the rest of the
// stream.
type streamMsg[T any] struct {
	value T
	next  *RecvPacket[streamMsg[T]]
}

// Discard closes the rest of the stream and discards the value.
func (m streamMsg[T]) Discard() {
	if m.next != nil {
		m.next.Close()
	}
	discard(m.value)
}

// Chan is the sending end of a stream. Sends never block.
type Chan[T any] struct {
	endp *SendPacket[streamMsg[T]]
}

// Port is the receiving end of a stream.
type Port[T any] struct {
	endp *RecvPacket[streamMsg[T]]
}

// Stream returns a connected unbounded single-producer single-consumer
// stream. Every value travels through its own packet.
func Stream[T any]() (*Chan[T], *Port[T]) {
	s, r := Entangle[streamMsg[T]]()
	return &Chan[T]{endp: s}, &Port[T]{endp: r}
}

// Send appends x to the stream. If the port was closed, x is dropped.
func (c *Chan[T]) Send(x T) {
	endp := c.endp
	if endp == nil {
		panic(ErrClosed)
	}
	s, r := Entangle[streamMsg[T]]()
	endp.Send(streamMsg[T]{value: x, next: r})
	c.endp = s
}

// Close ends the stream; the port observes end of stream after the values
// already sent. Closing twice is a no-op.
func (c *Chan[T]) Close() {
	if c.endp != nil {
		c.endp.Close()
		c.endp = nil
	}
}

// Recv returns the next value, blocking until one arrives.
// It panics with ErrClosed at end of stream.
func (p *Port[T]) Recv() T {
	v, ok := p.TryRecv()
	if !ok {
		panic(ErrClosed)
	}
	return v
}

// TryRecv returns the next value, blocking until one arrives or the
// stream ends. It returns false at end of stream, and on every call after.
func (p *Port[T]) TryRecv() (T, bool) {
	return p.TryRecvContext(context.Background())
}

// TryRecvContext is TryRecv on the task bound to ctx.
func (p *Port[T]) TryRecvContext(ctx context.Context) (T, bool) {
	endp := p.endp
	if endp == nil {
		var zero T
		return zero, false
	}
	p.endp = nil
	m, ok := endp.TryRecvContext(ctx)
	if !ok {
		var zero T
		return zero, false
	}
	p.endp = m.next
	return m.value, true
}

// Poll receives without blocking. It returns iox.ErrWouldBlock while no
// value is ready and ErrClosed at end of stream.
func (p *Port[T]) Poll() (T, error) {
	var zero T
	if p.endp == nil {
		return zero, ErrClosed
	}
	if !p.endp.Peek() {
		return zero, iox.ErrWouldBlock
	}
	v, ok := p.TryRecv()
	if !ok {
		return zero, ErrClosed
	}
	return v, nil
}

// Peek reports whether a receive would complete without blocking.
func (p *Port[T]) Peek() bool {
	if p.endp == nil {
		return true
	}
	return p.endp.Peek()
}

// Header returns the header of the packet the next value arrives on.
// It panics with ErrClosed at end of stream.
func (p *Port[T]) Header() *Header {
	if p.endp == nil {
		panic(ErrClosed)
	}
	return p.endp.Header()
}

// Close stops receiving; later sends on the peer are dropped.
func (p *Port[T]) Close() {
	if p.endp != nil {
		p.endp.Close()
		p.endp = nil
	}
}

// wait blocks until Peek would report true.
func (p *Port[T]) wait(ctx context.Context) {
	if p.endp == nil {
		return
	}
	WaitManyContext(ctx, []*Header{p.endp.Header()})
}

// SelectRecv2 receives from whichever of l and r is ready first: Left
// with l's value or Right with r's. It panics with ErrClosed if the
// chosen receiver has ended.
func SelectRecv2[T, U any](l SelectableReceiver[T], r SelectableReceiver[U]) kont.Either[T, U] {
	if Select2i(l, r).IsLeft() {
		return kont.Left[T, U](l.Recv())
	}
	return kont.Right[T](r.Recv())
}

// TrySelectRecv2 is SelectRecv2 reporting end of stream instead of
// panicking.
func TrySelectRecv2[T, U any](l SelectableReceiver[T], r SelectableReceiver[U]) kont.Either[Received[T], Received[U]] {
	if Select2i(l, r).IsLeft() {
		v, ok := l.TryRecv()
		return kont.Left[Received[T], Received[U]](Received[T]{Value: v, OK: ok})
	}
	v, ok := r.TryRecv()
	return kont.Right[Received[T]](Received[U]{Value: v, OK: ok})
}
