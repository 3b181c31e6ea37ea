// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pipes

import (
	"context"

	"code.hybscloud.com/iox"
	"code.hybscloud.com/kont"
)

// sessionContext holds the transport for one side of a session:
// a stream towards the peer and a stream from it.
type sessionContext struct {
	out *Chan[any]
	in  *Port[any]
}

// sessionDispatcher is the structural interface for session operations.
// DispatchSession is non-blocking: it returns iox.ErrWouldBlock when the
// peer has not produced the value being waited for.
type sessionDispatcher interface {
	DispatchSession(ctx *sessionContext) (kont.Resumed, error)
}

// sessionHandler implements kont.Handler for session effects.
// Value type: passed to evalFrames on the stack, avoiding heap allocation.
type sessionHandler[R any] struct {
	ctx *sessionContext
}

// Dispatch implements kont.Handler via structural interface assertion.
func (h sessionHandler[R]) Dispatch(op kont.Operation) (kont.Resumed, bool) {
	sop, ok := op.(sessionDispatcher)
	if !ok {
		panic("pipes: unhandled effect in sessionHandler")
	}
	return dispatchWait(h.ctx, sop), true
}

// dispatchWait dispatches sop, sleeping on the inbound stream while it
// reports iox.ErrWouldBlock. Any other error is fatal.
func dispatchWait(ctx *sessionContext, sop sessionDispatcher) kont.Resumed {
	for {
		v, err := sop.DispatchSession(ctx)
		if err == nil {
			return v
		}
		if !iox.IsWouldBlock(err) {
			panic(err)
		}
		ctx.in.wait(context.Background())
	}
}

// Session is one side of a session-typed conversation.
// Values of any type travel over a pair of pipes streams, one per
// direction, so every message is a single packet handshake.
type Session struct {
	ctx    sessionContext
	serial Serial
}

// Serial returns the serial number assigned to this session.
func (s *Session) Serial() Serial {
	return s.serial
}

// NewSession creates a connected pair of sessions.
func NewSession() (*Session, *Session) {
	n := nextSerial()
	ab, abPort := Stream[any]()
	ba, baPort := Stream[any]()
	a := &Session{ctx: sessionContext{out: ab, in: baPort}, serial: n}
	b := &Session{ctx: sessionContext{out: ba, in: abPort}, serial: n}
	return a, b
}

// Discard closes both directions of a session that could not be
// delegated because its recipient was gone.
func (s *Session) Discard() {
	s.ctx.out.Close()
	s.ctx.in.Close()
}
