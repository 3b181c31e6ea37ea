// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pipes

import "code.hybscloud.com/atomix"

// bufferHeader is the reference-counted part of a buffer.
// refs equals the number of live endpoint handles referencing the buffer.
type bufferHeader struct {
	refs    atomix.Int32
	owner   any
	release func()
}

func (h *bufferHeader) acquire() {
	h.refs.AddAcquire(1)
}

// drop gives up one reference; the caller that takes the count to zero
// releases the buffer.
func (h *bufferHeader) drop() {
	if h.refs.AddRelease(-1) != 0 {
		return
	}
	stats.buffersReleased.Add(1)
	if h.release != nil {
		h.release()
	}
}

// bufferResource owns one reference on a buffer. The zero value owns none.
type bufferResource struct {
	h *bufferHeader
}

func acquireBuffer(h *bufferHeader) bufferResource {
	h.acquire()
	return bufferResource{h: h}
}

// release drops the owned reference. Calling it again is a no-op.
func (r *bufferResource) release() {
	if h := r.h; h != nil {
		r.h = nil
		h.drop()
	}
}

// Buffer is a reference-counted allocation holding protocol data.
//
// Unbounded protocols use one buffer per packet. Bounded protocols embed
// every packet of the conversation in Data and bind them with [Bind], so
// one allocation serves the whole exchange.
type Buffer[B any] struct {
	header bufferHeader
	Data   B
}

// NewBuffer allocates an empty buffer.
func NewBuffer[B any]() *Buffer[B] {
	b := &Buffer[B]{}
	b.header.owner = b
	return b
}

// OnRelease sets f to run once the last endpoint referencing the buffer
// is disposed of. It must be set before endpoints are created.
func (b *Buffer[B]) OnRelease(f func()) {
	b.header.release = f
}

// Refs returns the number of live endpoints referencing the buffer.
func (b *Buffer[B]) Refs() int {
	return int(b.header.refs.Load())
}

// Bind carves p out of b: it resets p and records b as the buffer p
// lives in. Generated protocol code binds every packet embedded in a
// buffer before creating endpoints on them.
func Bind[B, T any](b *Buffer[B], p *Packet[T]) *Packet[T] {
	if b.header.owner == nil {
		b.header.owner = b
	}
	p.header.buffer = &b.header
	p.header.task.Store(nil)
	p.header.restore(empty)
	var zero T
	p.payload = zero
	return p
}

// BufferOf returns the buffer the endpoint's packet lives in.
// It panics if the buffer's data is not of type B.
func BufferOf[B any](e Selectable) *Buffer[B] {
	h := e.Header().buffer
	if h == nil {
		panic(ErrUnbound)
	}
	b, ok := h.owner.(*Buffer[B])
	if !ok {
		panic(ErrForeignPacket)
	}
	return b
}

// unibuffer allocates a one-packet buffer and returns its packet.
func unibuffer[T any]() *Packet[T] {
	b := NewBuffer[Packet[T]]()
	return Bind(b, &b.Data)
}
