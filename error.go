// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pipes

import (
	"code.hybscloud.com/iox"
	"code.hybscloud.com/kont"
)

// errorDispatcher is the structural interface of kont error operations.
type errorDispatcher[E any] interface {
	DispatchError(ctx *kont.ErrorContext[E]) (kont.Resumed, bool)
}

// sessionErrorHandler handles session effects and error effects.
// Session ops sleep while the peer has not sent; Throw short-circuits.
type sessionErrorHandler[E, A any] struct {
	ctx    *sessionContext
	errCtx *kont.ErrorContext[E]
}

// Dispatch implements kont.Handler. Session ops are tried first.
func (h sessionErrorHandler[E, A]) Dispatch(op kont.Operation) (kont.Resumed, bool) {
	if sop, ok := op.(sessionDispatcher); ok {
		return dispatchWait(h.ctx, sop), true
	}
	if eop, ok := op.(errorDispatcher[E]); ok {
		v, _ := eop.DispatchError(h.errCtx)
		if h.errCtx.HasErr {
			return kont.Left[E, A](h.errCtx.Err), false
		}
		return v, true
	}
	panic("pipes: unhandled effect in sessionErrorHandler")
}

// ExecError runs a session protocol with error handling on s.
// Returns Right with the result, or Left with the thrown error.
func ExecError[E, R any](s *Session, protocol kont.Eff[R]) kont.Either[E, R] {
	wrapped := kont.Map[kont.Resumed, R, kont.Either[E, R]](protocol, func(r R) kont.Either[E, R] {
		return kont.Right[E, R](r)
	})
	var errCtx kont.ErrorContext[E]
	h := sessionErrorHandler[E, R]{ctx: &s.ctx, errCtx: &errCtx}
	return kont.Handle(wrapped, h)
}

// ExecErrorExpr is ExecError for a defunctionalized protocol.
func ExecErrorExpr[E, R any](s *Session, protocol kont.Expr[R]) kont.Either[E, R] {
	wrapped := kont.ExprMap(protocol, func(r R) kont.Either[E, R] {
		return kont.Right[E, R](r)
	})
	var errCtx kont.ErrorContext[E]
	h := sessionErrorHandler[E, R]{ctx: &s.ctx, errCtx: &errCtx}
	return kont.HandleExpr(wrapped, h)
}

// RunError is Run with error handling on both sides.
func RunError[E, A, B any](a kont.Eff[A], b kont.Eff[B]) (kont.Either[E, A], kont.Either[E, B]) {
	return RunErrorExpr[E](kont.Reify(a), kont.Reify(b))
}

// RunErrorExpr is RunExpr with error handling on both sides.
// A side that throws stops; if the other side is then left waiting for a
// message that never comes, RunErrorExpr does not return.
func RunErrorExpr[E, A, B any](a kont.Expr[A], b kont.Expr[B]) (kont.Either[E, A], kont.Either[E, B]) {
	sa, sb := NewSession()
	resultA, suspA := StepError[E, A](a)
	resultB, suspB := StepError[E, B](b)
	var bo iox.Backoff
	for suspA != nil || suspB != nil {
		progress := false
		if suspA != nil {
			var err error
			resultA, suspA, err = AdvanceError[E](sa, suspA)
			if err == nil {
				progress = true
			} else if !iox.IsWouldBlock(err) {
				panic(err)
			}
		}
		if suspB != nil {
			var err error
			resultB, suspB, err = AdvanceError[E](sb, suspB)
			if err == nil {
				progress = true
			} else if !iox.IsWouldBlock(err) {
				panic(err)
			}
		}
		if !progress {
			bo.Wait()
		} else {
			bo.Reset()
		}
	}
	return resultA, resultB
}

// StepError evaluates a session protocol with error support until the
// first effect suspension.
func StepError[E, R any](protocol kont.Expr[R]) (kont.Either[E, R], *kont.Suspension[kont.Either[E, R]]) {
	wrapped := kont.ExprMap(protocol, func(r R) kont.Either[E, R] {
		return kont.Right[E, R](r)
	})
	return kont.StepExpr(wrapped)
}

// AdvanceError dispatches the suspended operation on s.
// Session ops are non-blocking. Throw discards the suspension and
// returns Left.
func AdvanceError[E, R any](s *Session, susp *kont.Suspension[kont.Either[E, R]]) (kont.Either[E, R], *kont.Suspension[kont.Either[E, R]], error) {
	switch op := susp.Op().(type) {
	case sessionDispatcher:
		v, err := op.DispatchSession(&s.ctx)
		if err != nil {
			var zero kont.Either[E, R]
			return zero, susp, err
		}
		result, next := susp.Resume(v)
		return result, next, nil
	case errorDispatcher[E]:
		var ctx kont.ErrorContext[E]
		v, _ := op.DispatchError(&ctx)
		if ctx.HasErr {
			susp.Discard()
			return kont.Left[E, R](ctx.Err), nil, nil
		}
		result, next := susp.Resume(v)
		return result, next, nil
	}
	panic("pipes: unhandled effect in AdvanceError")
}
