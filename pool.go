// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pipes

import "code.hybscloud.com/lfq"

// freeList is the subset of the lfq queue interface the pool uses.
type freeList[T any] interface {
	Enqueue(elem *T) error
	Dequeue() (T, error)
}

// Pool recycles one-packet buffers. A buffer re-enters the pool from its
// release hook, that is only after both of its endpoints are disposed of.
//
// The free list is a bounded lock-free MPMC queue: buffers released while
// it is full are left to the garbage collector, and Entangle allocates
// when it is empty.
type Pool[T any] struct {
	free freeList[*Buffer[Packet[T]]]
}

// NewPool returns a pool keeping up to capacity idle buffers.
// The capacity is rounded up to a power of two, at least 2.
func NewPool[T any](capacity int) *Pool[T] {
	if capacity < 2 {
		capacity = 2
	}
	return &Pool[T]{free: lfq.NewMPMC[*Buffer[Packet[T]]](capacity)}
}

// Entangle is [Entangle] drawing the buffer from the pool.
func (pl *Pool[T]) Entangle() (*SendPacket[T], *RecvPacket[T]) {
	b, err := pl.free.Dequeue()
	if err != nil {
		b = NewBuffer[Packet[T]]()
		b.OnRelease(func() { pl.put(b) })
	}
	p := Bind(b, &b.Data)
	stats.entangled.Add(1)
	return NewSendPacket(p), NewRecvPacket(p)
}

func (pl *Pool[T]) put(b *Buffer[Packet[T]]) {
	var zero T
	b.Data.payload = zero
	_ = pl.free.Enqueue(&b)
}
