// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pipes

import "errors"

// Usage errors. The runtime panics with these values; a panic means the
// ownership discipline of an endpoint was broken and is never recovered
// internally.
var (
	ErrDuplicateSend    = errors.New("pipes: duplicate send")
	ErrAlreadyBlocked   = errors.New("pipes: blocking on already blocked packet")
	ErrPeekBlocked      = errors.New("pipes: peeking on blocked packet")
	ErrConsumed         = errors.New("pipes: packet already consumed")
	ErrTerminateBlocked = errors.New("pipes: terminating a blocked packet")
	ErrSenderFull       = errors.New("pipes: sender terminated with a pending message")
	ErrInvalidIndex     = errors.New("pipes: wait returned an invalid index")
	ErrKilled           = errors.New("pipes: killed")
	ErrForeignPacket    = errors.New("pipes: packet does not belong to buffer")
	ErrUnbound          = errors.New("pipes: packet is not bound to a buffer")
)

// End-of-stream conditions. Fallible receives report these as an empty
// result; only the non-fallible Recv variants panic with them.
var (
	ErrClosed        = errors.New("pipes: endpoint closed")
	ErrPortSetClosed = errors.New("pipes: port set endpoints closed")
)
