// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pipes

import (
	"code.hybscloud.com/iox"
	"code.hybscloud.com/kont"
)

// Run creates a session pair, runs both protocols and returns both
// results. Both sides are interleaved on the calling goroutine, backing
// off with iox.Backoff while neither can make progress.
func Run[A, B any](a kont.Eff[A], b kont.Eff[B]) (A, B) {
	return RunExpr(kont.Reify(a), kont.Reify(b))
}

// RunExpr is Run for defunctionalized protocols.
func RunExpr[A, B any](a kont.Expr[A], b kont.Expr[B]) (A, B) {
	sa, sb := NewSession()
	resultA, suspA := Step[A](a)
	resultB, suspB := Step[B](b)
	var bo iox.Backoff
	for suspA != nil || suspB != nil {
		progress := false
		if suspA != nil {
			var err error
			resultA, suspA, err = Advance(sa, suspA)
			if err == nil {
				progress = true
			} else if !iox.IsWouldBlock(err) {
				panic(err)
			}
		}
		if suspB != nil {
			var err error
			resultB, suspB, err = Advance(sb, suspB)
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
