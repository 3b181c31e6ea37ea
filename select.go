// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pipes

import "code.hybscloud.com/kont"

// Selectable is implemented by endpoints that can be waited on.
type Selectable interface {
	Header() *Header
}

// Received is the outcome of a fallible receive: OK is false when the
// sender closed without sending.
type Received[T any] struct {
	Value T
	OK    bool
}

func headersOf[S Selectable](endpoints []S) []*Header {
	hs := make([]*Header, len(endpoints))
	for i, e := range endpoints {
		hs[i] = e.Header()
	}
	return hs
}

// Selecti waits until one of the endpoints is ready and returns its
// index. Nothing is received.
func Selecti[S Selectable](endpoints []S) int {
	return WaitMany(headersOf(endpoints))
}

// Select2i waits on two endpoints and reports which one is ready:
// Left for a, Right for b. Nothing is received.
func Select2i(a, b Selectable) kont.Either[struct{}, struct{}] {
	switch WaitMany([]*Header{a.Header(), b.Header()}) {
	case 0:
		return kont.Left[struct{}, struct{}](struct{}{})
	case 1:
		return kont.Right[struct{}](struct{}{})
	}
	panic(ErrInvalidIndex)
}

// Select2 receives from whichever of a and b is ready first.
//
// The result is Left with a's outcome or Right with b's; the endpoint that
// was received on is consumed and the other stays usable. When both are
// ready, either may be chosen.
func Select2[A, B any](a *RecvPacket[A], b *RecvPacket[B]) kont.Either[Received[A], Received[B]] {
	switch WaitMany([]*Header{a.Header(), b.Header()}) {
	case 0:
		v, ok := a.TryRecv()
		return kont.Left[Received[A], Received[B]](Received[A]{Value: v, OK: ok})
	case 1:
		v, ok := b.TryRecv()
		return kont.Right[Received[A]](Received[B]{Value: v, OK: ok})
	}
	panic(ErrInvalidIndex)
}

// Select waits on a list of endpoints and receives from the first ready
// one. It returns that endpoint's index, the received value, whether a
// message arrived, and the endpoints not received on, in their original
// order.
func Select[T any](endpoints []*RecvPacket[T]) (int, T, bool, []*RecvPacket[T]) {
	ready := Selecti(endpoints)
	if ready < 0 || ready >= len(endpoints) {
		panic(ErrInvalidIndex)
	}
	var (
		v  T
		ok bool
	)
	remaining := make([]*RecvPacket[T], 0, len(endpoints)-1)
	for i, e := range endpoints {
		if i == ready {
			v, ok = e.TryRecv()
			continue
		}
		remaining = append(remaining, e)
	}
	return ready, v, ok, remaining
}
