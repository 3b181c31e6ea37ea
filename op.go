// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pipes

import (
	"code.hybscloud.com/kont"
)

// SendOp is the effect operation for sending a value of type T.
type SendOp[T any] struct {
	kont.Phantom[struct{}]
	Value T
}

// DispatchSession handles SendOp. Stream sends never block.
func (s SendOp[T]) DispatchSession(ctx *sessionContext) (kont.Resumed, error) {
	ctx.out.Send(s.Value)
	return struct{}{}, nil
}

// RecvOp is the effect operation for receiving a value of type T.
type RecvOp[T any] struct {
	kont.Phantom[T]
}

// DispatchSession handles RecvOp.
// Non-blocking: returns iox.ErrWouldBlock while nothing has arrived, and
// ErrClosed if the peer closed the session.
func (RecvOp[T]) DispatchSession(ctx *sessionContext) (kont.Resumed, error) {
	v, err := ctx.in.Poll()
	if err != nil {
		return nil, err
	}
	return v.(T), nil
}

// CloseOp is the effect operation for closing the session.
type CloseOp struct {
	kont.Phantom[struct{}]
}

// DispatchSession handles CloseOp by terminating both streams.
// Values the peer sends afterwards are dropped. Never blocks.
func (CloseOp) DispatchSession(ctx *sessionContext) (kont.Resumed, error) {
	ctx.out.Close()
	ctx.in.Close()
	return struct{}{}, nil
}

// choice is the branch label sent by SelectL and SelectR.
type choice bool

const (
	choiceLeft  choice = true
	choiceRight choice = false
)

// offerLeft and offerRight are pre-boxed Resumed values for Offer dispatch.
var (
	offerLeft  kont.Resumed = kont.Left[struct{}, struct{}](struct{}{})
	offerRight kont.Resumed = kont.Right[struct{}](struct{}{})
)

// SelectLOp is the effect operation for choosing the left branch.
type SelectLOp struct {
	kont.Phantom[struct{}]
}

// DispatchSession handles SelectLOp.
func (SelectLOp) DispatchSession(ctx *sessionContext) (kont.Resumed, error) {
	ctx.out.Send(choiceLeft)
	return struct{}{}, nil
}

// SelectROp is the effect operation for choosing the right branch.
type SelectROp struct {
	kont.Phantom[struct{}]
}

// DispatchSession handles SelectROp.
func (SelectROp) DispatchSession(ctx *sessionContext) (kont.Resumed, error) {
	ctx.out.Send(choiceRight)
	return struct{}{}, nil
}

// OfferOp is the effect operation for receiving the peer's branch choice.
type OfferOp struct {
	kont.Phantom[kont.Either[struct{}, struct{}]]
}

// DispatchSession handles OfferOp.
// Non-blocking: returns iox.ErrWouldBlock while no choice has arrived.
func (OfferOp) DispatchSession(ctx *sessionContext) (kont.Resumed, error) {
	v, err := ctx.in.Poll()
	if err != nil {
		return nil, err
	}
	c, ok := v.(choice)
	if !ok {
		panic("pipes: offer received a value instead of a branch choice")
	}
	if c == choiceLeft {
		return offerLeft, nil
	}
	return offerRight, nil
}

// SendThen sends a value and then continues with next.
func SendThen[T, B any](v T, next kont.Eff[B]) kont.Eff[B] {
	return kont.Then(kont.Perform(SendOp[T]{Value: v}), next)
}

// RecvBind receives a value and passes it to f.
func RecvBind[T, B any](f func(T) kont.Eff[B]) kont.Eff[B] {
	return kont.Bind(kont.Perform(RecvOp[T]{}), f)
}

// CloseDone closes the session and returns a.
func CloseDone[A any](a A) kont.Eff[A] {
	return kont.Then(kont.Perform(CloseOp{}), kont.Pure(a))
}

// SelectLThen selects the left branch and continues with next.
func SelectLThen[B any](next kont.Eff[B]) kont.Eff[B] {
	return kont.Then(kont.Perform(SelectLOp{}), next)
}

// SelectRThen selects the right branch and continues with next.
func SelectRThen[B any](next kont.Eff[B]) kont.Eff[B] {
	return kont.Then(kont.Perform(SelectROp{}), next)
}

// OfferBranch waits for the peer's choice and calls onLeft or onRight.
func OfferBranch[A any](onLeft func() kont.Eff[A], onRight func() kont.Eff[A]) kont.Eff[A] {
	return kont.Bind(kont.Perform(OfferOp{}), func(e kont.Either[struct{}, struct{}]) kont.Eff[A] {
		if e.IsLeft() {
			return onLeft()
		}
		return onRight()
	})
}

// Loop runs a recursive session protocol.
// step returns Left(nextState) to continue or Right(result) to finish.
func Loop[S, A any](initial S, step func(S) kont.Eff[kont.Either[S, A]]) kont.Eff[A] {
	return kont.Bind(step(initial), func(e kont.Either[S, A]) kont.Eff[A] {
		if left, ok := e.GetLeft(); ok {
			return Loop(left, step)
		}
		right, _ := e.GetRight()
		return kont.Pure(right)
	})
}
