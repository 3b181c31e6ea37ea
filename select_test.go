// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pipes_test

import (
	"context"
	"testing"
	"time"

	"code.hybscloud.com/pipes"
	"code.hybscloud.com/pipes/sched"
)

func entangleN(n int) ([]*pipes.SendPacket[int], []*pipes.RecvPacket[int]) {
	ss := make([]*pipes.SendPacket[int], n)
	rs := make([]*pipes.RecvPacket[int], n)
	for i := range n {
		ss[i], rs[i] = pipes.Entangle[int]()
	}
	return ss, rs
}

func headers(rs []*pipes.RecvPacket[int]) []*pipes.Header {
	hs := make([]*pipes.Header, len(rs))
	for i, r := range rs {
		hs[i] = r.Header()
	}
	return hs
}

func TestWaitManyReady(t *testing.T) {
	ss, rs := entangleN(3)
	ss[1].Send(10)

	if i := pipes.WaitMany(headers(rs)); i != 1 {
		t.Fatalf("index %d, want 1", i)
	}
	// Endpoints not chosen are unchanged.
	if rs[0].Peek() || rs[2].Peek() {
		t.Fatal("idle endpoints should still be empty")
	}
	if v := rs[1].Recv(); v != 10 {
		t.Fatalf("got %d, want 10", v)
	}
	ss[0].Send(0)
	ss[2].Send(2)
	if rs[0].Recv() != 0 || rs[2].Recv() != 2 {
		t.Fatal("idle endpoints lost their messages")
	}
}

func TestWaitManyTerminated(t *testing.T) {
	ss, rs := entangleN(2)
	ss[0].Close()
	if i := pipes.WaitMany(headers(rs)); i != 0 {
		t.Fatalf("index %d, want 0", i)
	}
	if _, ok := rs[0].TryRecv(); ok {
		t.Fatal("closed sender delivered a value")
	}
	ss[1].Close()
	rs[1].Close()
}

func TestWaitManyBlocks(t *testing.T) {
	skipRace(t)
	ss, rs := entangleN(4)
	go func() {
		time.Sleep(10 * time.Millisecond)
		ss[2].Send(22)
	}()
	if i := pipes.WaitMany(headers(rs)); i != 2 {
		t.Fatalf("index %d, want 2", i)
	}
	if v := rs[2].Recv(); v != 22 {
		t.Fatalf("got %d, want 22", v)
	}
	for _, i := range []int{0, 1, 3} {
		if rs[i].Peek() {
			t.Fatalf("endpoint %d should be empty", i)
		}
		ss[i].Close()
		rs[i].Close()
	}
}

func TestWaitManySubset(t *testing.T) {
	skipRace(t)
	ss, rs := entangleN(3)
	go func() {
		time.Sleep(5 * time.Millisecond)
		ss[0].Send(0)
		time.Sleep(5 * time.Millisecond)
		ss[2].Send(2)
	}()
	// Wait on the last two only; the first becoming ready does not count.
	i := pipes.WaitMany(headers(rs[1:]))
	if i != 1 {
		t.Fatalf("index %d, want 1", i)
	}
	if rs[0].Recv() != 0 || rs[2].Recv() != 2 {
		t.Fatal("unexpected payloads")
	}
	ss[1].Close()
	rs[1].Close()
}

// peekBlocked reports whether a waiter has marked r's packet blocked.
func peekBlocked(r *pipes.RecvPacket[int]) (blocked bool) {
	defer func() {
		if p := recover(); p != nil {
			if p != pipes.ErrPeekBlocked {
				panic(p)
			}
			blocked = true
		}
	}()
	r.Peek()
	return false
}

func waitBlocked(t *testing.T, r *pipes.RecvPacket[int]) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !peekBlocked(r) {
		if time.Now().After(deadline) {
			t.Fatal("packet was never blocked on")
		}
		time.Sleep(100 * time.Microsecond)
	}
}

func TestWaitManySpuriousWake(t *testing.T) {
	skipRace(t)
	ss, rs := entangleN(2)
	hs := headers(rs)
	task := sched.NewTask(context.Background())
	ctx := sched.WithTask(context.Background(), task)
	before := pipes.ReadStats().SpuriousWakes

	done := make(chan int, 1)
	go func() { done <- pipes.WaitManyContext(ctx, hs) }()
	waitBlocked(t, rs[1])

	// No watched header lives at this address.
	task.Signal(sched.Token(1))
	deadline := time.Now().Add(time.Second)
	for pipes.ReadStats().SpuriousWakes == before {
		if time.Now().After(deadline) {
			t.Fatal("foreign wake was not counted")
		}
		time.Sleep(100 * time.Microsecond)
	}
	select {
	case i := <-done:
		t.Fatalf("returned %d on a foreign wake", i)
	default:
	}

	ss[1].Send(11)
	if i := <-done; i != 1 {
		t.Fatalf("index %d, want 1", i)
	}
	if v := rs[1].Recv(); v != 11 {
		t.Fatalf("got %d, want 11", v)
	}
	ss[0].Close()
	rs[0].Close()
}

func TestWaitManyKeepsBlockedWaiter(t *testing.T) {
	skipRace(t)
	s, r := pipes.Entangle[int]()
	h := r.Header()

	done := make(chan int, 1)
	go func() { done <- pipes.WaitMany([]*pipes.Header{h}) }()
	waitBlocked(t, r)

	mustPanic(t, pipes.ErrAlreadyBlocked, func() { pipes.WaitMany([]*pipes.Header{h}) })

	// The first waiter is still the one the sender wakes.
	s.Send(5)
	select {
	case i := <-done:
		if i != 0 {
			t.Fatalf("index %d, want 0", i)
		}
	case <-time.After(time.Second):
		t.Fatal("blocked waiter was not woken")
	}
	if v := r.Recv(); v != 5 {
		t.Fatalf("got %d, want 5", v)
	}
}

func TestWaitManyReadyAllocs(t *testing.T) {
	ss, rs := entangleN(2)
	ss[1].Send(1)
	hs := headers(rs)
	if n := testing.AllocsPerRun(100, func() { pipes.WaitMany(hs) }); n != 0 {
		t.Fatalf("wait on a ready packet: %v allocs, want 0", n)
	}
	if v := rs[1].Recv(); v != 1 {
		t.Fatalf("got %d, want 1", v)
	}
	ss[0].Close()
	rs[0].Close()
}

func TestWaitManyEmpty(t *testing.T) {
	mustPanic(t, pipes.ErrInvalidIndex, func() { pipes.WaitMany(nil) })
}

func TestWaitManyAlreadyBlocked(t *testing.T) {
	_, rs := entangleN(1)
	h := rs[0].Header()
	mustPanic(t, pipes.ErrAlreadyBlocked, func() { pipes.WaitMany([]*pipes.Header{h, h}) })
}

func TestWaitManyKilled(t *testing.T) {
	skipRace(t)
	ss, rs := entangleN(2)
	ctx, cancel := context.WithCancel(context.Background())

	result := make(chan any)
	go func() {
		defer func() { result <- recover() }()
		pipes.WaitManyContext(ctx, headers(rs))
	}()
	time.Sleep(10 * time.Millisecond)
	cancel()
	if p := <-result; p != pipes.ErrKilled {
		t.Fatalf("recovered %v, want %v", p, pipes.ErrKilled)
	}
	// The watched endpoints are usable after the aborted wait.
	for i := range 2 {
		ss[i].Send(i)
		if v := rs[i].Recv(); v != i {
			t.Fatalf("got %d, want %d", v, i)
		}
	}
}

func TestSelect2(t *testing.T) {
	sa, ra := pipes.Entangle[int]()
	sb, rb := pipes.Entangle[string]()
	sb.Send("b")

	e := pipes.Select2(ra, rb)
	got, ok := e.GetRight()
	if !ok || !got.OK || got.Value != "b" {
		t.Fatalf("got %v, want Right(b)", e)
	}
	if !rb.Consumed() || ra.Consumed() {
		t.Fatal("only the chosen endpoint is consumed")
	}

	sa.Close()
	e2 := pipes.Select2(ra, ra2(t))
	left, ok := e2.GetLeft()
	if !ok || left.OK {
		t.Fatalf("got %v, want Left of a closed sender", e2)
	}
}

// ra2 returns an idle endpoint that is closed when the test ends.
func ra2(t *testing.T) *pipes.RecvPacket[int] {
	s, r := pipes.Entangle[int]()
	t.Cleanup(func() {
		s.Close()
		r.Close()
	})
	return r
}

func TestSelecti(t *testing.T) {
	ss, rs := entangleN(3)
	ss[2].Send(2)
	if i := pipes.Selecti(rs); i != 2 {
		t.Fatalf("index %d, want 2", i)
	}
	if rs[2].Consumed() {
		t.Fatal("Selecti must not receive")
	}
	for i := range 3 {
		ss[i].Close()
		rs[i].Close()
	}
}

func TestSelect2i(t *testing.T) {
	sa, ra := pipes.Entangle[int]()
	sb, rb := pipes.Entangle[int]()
	sa.Send(1)
	if !pipes.Select2i(ra, rb).IsLeft() {
		t.Fatal("want Left")
	}
	ra.Recv()
	sb.Send(2)
	if !pipes.Select2i(rb, ra2(t)).IsLeft() {
		t.Fatal("want Left")
	}
	rb.Recv()
}

func TestSelectPartition(t *testing.T) {
	ss, rs := entangleN(4)
	ss[2].Send(42)

	i, v, ok, rest := pipes.Select(rs)
	if i != 2 || v != 42 || !ok {
		t.Fatalf("got (%d, %d, %v), want (2, 42, true)", i, v, ok)
	}
	want := []*pipes.RecvPacket[int]{rs[0], rs[1], rs[3]}
	if len(rest) != len(want) {
		t.Fatalf("remaining %d endpoints, want %d", len(rest), len(want))
	}
	for k := range want {
		if rest[k] != want[k] {
			t.Fatalf("remaining[%d] out of order", k)
		}
	}

	ss[3].Send(3)
	i, v, ok, rest = pipes.Select(rest)
	if i != 2 || v != 3 || !ok || len(rest) != 2 {
		t.Fatalf("got (%d, %d, %v, %d left), want (2, 3, true, 2 left)", i, v, ok, len(rest))
	}
	for _, k := range []int{0, 1} {
		ss[k].Close()
		rest[k].Close()
	}
}

func TestSelectRecv2Streams(t *testing.T) {
	c1, p1 := pipes.Stream[int]()
	c2, p2 := pipes.Stream[string]()
	c1.Send(1)

	e := pipes.SelectRecv2(p1, p2)
	if v, ok := e.GetLeft(); !ok || v != 1 {
		t.Fatalf("got %v, want Left(1)", e)
	}

	c2.Send("two")
	e = pipes.SelectRecv2(p1, p2)
	if v, ok := e.GetRight(); !ok || v != "two" {
		t.Fatalf("got %v, want Right(two)", e)
	}

	c1.Close()
	te := pipes.TrySelectRecv2(p1, p2)
	if v, ok := te.GetLeft(); !ok || v.OK {
		t.Fatalf("got %v, want Left of an ended stream", te)
	}
	c2.Close()
}
