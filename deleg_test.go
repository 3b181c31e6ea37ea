// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pipes_test

import (
	"testing"

	"code.hybscloud.com/kont"
	"code.hybscloud.com/pipes"
)

func TestDelegAcceptRoundtrip(t *testing.T) {
	skipRace(t)
	// A delegates a sub-session to B; B uses it to talk to C.
	subA, subB := pipes.NewSession()

	done := make(chan string)
	go func() {
		done <- pipes.Exec(subB, pipes.RecvBind(func(s string) kont.Eff[string] {
			return pipes.CloseDone(s)
		}))
	}()

	delegator := pipes.SendThen(subA, pipes.CloseDone("delegated"))
	acceptor := pipes.RecvBind(func(s *pipes.Session) kont.Eff[string] {
		pipes.Exec(s, pipes.SendThen("hello", pipes.CloseDone("sent")))
		return pipes.CloseDone("accepted")
	})

	aResult, bResult := pipes.Run[string, string](delegator, acceptor)
	cResult := <-done

	if aResult != "delegated" {
		t.Fatalf("A got %q, want %q", aResult, "delegated")
	}
	if bResult != "accepted" {
		t.Fatalf("B got %q, want %q", bResult, "accepted")
	}
	if cResult != "hello" {
		t.Fatalf("C got %q, want %q", cResult, "hello")
	}
}

func TestDelegThreePartyChain(t *testing.T) {
	skipRace(t)
	// A ─(deleg)→ B ─(via delegated session)→ C
	subA, subC := pipes.NewSession()

	cDone := make(chan int)
	go func() {
		cDone <- pipes.Exec(subC, pipes.RecvBind(func(n int) kont.Eff[int] {
			return pipes.SendThen(n*2, pipes.CloseDone(n))
		}))
	}()

	delegator := pipes.SendThen(subA, pipes.CloseDone("done"))
	acceptor := pipes.RecvBind(func(s *pipes.Session) kont.Eff[int] {
		result := pipes.Exec(s, pipes.SendThen(21,
			pipes.RecvBind(func(doubled int) kont.Eff[int] {
				return pipes.CloseDone(doubled)
			}),
		))
		return pipes.CloseDone(result)
	})

	aResult, bResult := pipes.Run[string, int](delegator, acceptor)
	cResult := <-cDone

	if aResult != "done" {
		t.Fatalf("A got %q, want %q", aResult, "done")
	}
	if bResult != 42 {
		t.Fatalf("B got %d, want 42", bResult)
	}
	if cResult != 21 {
		t.Fatalf("C got %d, want 21", cResult)
	}
}

func TestDelegUndeliverableClosesSession(t *testing.T) {
	skipRace(t)
	// A delegated session whose recipient already closed is discarded,
	// so its peer observes the end of the conversation instead of hanging.
	sub, peer := pipes.NewSession()
	a, b := pipes.NewSession()

	pipes.Exec(b, pipes.CloseDone(struct{}{}))
	pipes.Exec(a, pipes.SendThen(sub, pipes.CloseDone(struct{}{})))

	mustPanic(t, pipes.ErrClosed, func() {
		pipes.Exec(peer, pipes.RecvBind(func(n int) kont.Eff[int] {
			return pipes.CloseDone(n)
		}))
	})
}
