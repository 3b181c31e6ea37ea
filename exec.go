// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pipes

import (
	"code.hybscloud.com/kont"
)

// Exec runs a session protocol on s until it completes.
// A receive with nothing pending sleeps on the inbound packet, so the
// peer must run on another goroutine.
func Exec[R any](s *Session, protocol kont.Eff[R]) R {
	h := sessionHandler[R]{ctx: &s.ctx}
	return kont.Handle(protocol, h)
}

// ExecExpr is Exec for a defunctionalized protocol.
func ExecExpr[R any](s *Session, protocol kont.Expr[R]) R {
	h := sessionHandler[R]{ctx: &s.ctx}
	return kont.HandleExpr(protocol, h)
}
