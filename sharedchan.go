// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pipes

import "sync"

// SharedChan lets several goroutines send on one stream. At any instant
// only the goroutine holding the lock is the stream's sender, so each
// packet still has a single producer.
type SharedChan[T any] struct {
	mu sync.Mutex
	c  *Chan[T]
}

// NewSharedChan takes ownership of c.
func NewSharedChan[T any](c *Chan[T]) *SharedChan[T] {
	return &SharedChan[T]{c: c}
}

// Send appends x to the stream. Values sent by one goroutine keep their
// order; values from different goroutines interleave arbitrarily.
func (s *SharedChan[T]) Send(x T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.c.Send(x)
}

// Close ends the stream.
func (s *SharedChan[T]) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.c.Close()
}
