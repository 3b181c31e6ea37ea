// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pipes

import (
	"context"
	"slices"
)

// PortSet merges several ports behind one receiver. Ports whose stream
// ends are dropped from the set; the set ends when all of them have.
type PortSet[T any] struct {
	ports []*Port[T]
}

// NewPortSet returns an empty port set.
func NewPortSet[T any]() *PortSet[T] {
	return &PortSet[T]{}
}

// Add moves port into the set. A port that has already ended is ignored.
func (s *PortSet[T]) Add(port *Port[T]) {
	if port.endp == nil {
		return
	}
	s.ports = append(s.ports, port)
}

// Chan creates a new stream feeding the set and returns its sending end.
func (s *PortSet[T]) Chan() *Chan[T] {
	c, p := Stream[T]()
	s.Add(p)
	return c
}

// Len returns the number of member ports that have not ended.
func (s *PortSet[T]) Len() int {
	return len(s.ports)
}

// Recv returns the next value from any member, blocking until one
// arrives. It panics with ErrPortSetClosed once every member has ended.
func (s *PortSet[T]) Recv() T {
	v, ok := s.TryRecv()
	if !ok {
		panic(ErrPortSetClosed)
	}
	return v
}

// TryRecv returns the next value from any member. It returns false once
// every member has ended.
func (s *PortSet[T]) TryRecv() (T, bool) {
	return s.TryRecvContext(context.Background())
}

// TryRecvContext is TryRecv on the task bound to ctx.
func (s *PortSet[T]) TryRecvContext(ctx context.Context) (T, bool) {
	for len(s.ports) > 0 {
		i := WaitManyContext(ctx, headersOf(s.ports))
		if i < 0 || i >= len(s.ports) {
			panic(ErrInvalidIndex)
		}
		if v, ok := s.ports[i].TryRecvContext(ctx); ok {
			return v, true
		}
		s.ports = slices.Delete(s.ports, i, i+1)
	}
	var zero T
	return zero, false
}

// Peek reports whether any member has a value or an end of stream ready.
func (s *PortSet[T]) Peek() bool {
	for _, p := range s.ports {
		if p.Peek() {
			return true
		}
	}
	return false
}

// Close closes every member port.
func (s *PortSet[T]) Close() {
	for _, p := range s.ports {
		p.Close()
	}
	s.ports = nil
}
