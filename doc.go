// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package pipes provides single-shot, single-producer single-consumer
// message passing between tasks, built on a lock-free packet state
// machine.
//
// A packet carries at most one message. Its sender and its receiver each
// hold exactly one endpoint, and each endpoint is used at most once:
// either it performs its operation (send or receive) or it is closed.
// Longer conversations are chains of packets, where each message carries
// the endpoint for the next step.
//
// # Architecture
//
//   - Packet: one [code.hybscloud.com/atomix] state cell moving between
//     empty, full, blocked and terminated. A receiver that finds the
//     packet empty publishes its task and sleeps; the sender wakes it.
//   - Buffer: packets live inside reference-counted buffers. [Entangle]
//     allocates a one-packet buffer; [EntangleBuffer] carves packets out
//     of a caller-built [Buffer]. The buffer is released exactly once,
//     when its last endpoint is gone. [Pool] recycles one-packet buffers.
//   - Tasks: blocking is delegated to [code.hybscloud.com/pipes/sched].
//     A task killed while blocked panics with [ErrKilled].
//   - Select: [WaitMany] blocks until any of several packets is ready;
//     [Select2], [Selecti], [Select2i] and [Select] build on it.
//   - Streams: [Stream] chains packets into an unbounded FIFO. [PortSet]
//     merges ports, [SharedChan] lets several goroutines send.
//
// # Sessions
//
// Session protocols are written as [code.hybscloud.com/kont] effects
// ([SendOp], [RecvOp], [CloseOp], [SelectLOp], [SelectROp], [OfferOp]) and
// run over a [Session] pair whose transport is two streams. [Exec] blocks
// on the wait bridge; [Run] interleaves both sides on one goroutine with
// [code.hybscloud.com/iox.Backoff]; [Step] and [Advance] evaluate one
// effect at a time and report [code.hybscloud.com/iox.ErrWouldBlock].
//
// # Example
//
//	tx, rx := pipes.Entangle[int]()
//	go tx.Send(42)
//	v, ok := rx.TryRecv() // 42, true
package pipes
