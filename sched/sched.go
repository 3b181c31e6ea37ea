// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package sched provides the execution-context services the pipes runtime
// blocks and wakes through.
//
// A [Task] is a goroutine's identity for the purpose of waiting: it owns a
// single event slot that peers fill with an opaque [Token] before waking it,
// and a kill signal delivered as cancellation of the task's context.
// Tasks are carried in a [context.Context]; [Current] resolves the task of
// the calling context, creating a transient one when none is bound.
package sched

import (
	"context"
	"runtime"

	"code.hybscloud.com/atomix"
)

// Token is the opaque value a signaller hands to a woken task.
// The pipes runtime uses packet header addresses.
type Token uintptr

// ids is the global monotonic counter for task identifiers.
var ids atomix.Uint64

// Task is a blockable execution context.
//
// Wait must only be called by the goroutine that currently owns the task.
// Signal and Kill may be called from any goroutine.
type Task struct {
	id      uint64
	event   atomix.Uint64
	failing atomix.Uint32
	wake    chan struct{}
	ctx     context.Context
	cancel  context.CancelFunc

	// killSeen is owned by the waiting goroutine.
	killSeen bool
}

type taskKey struct{}

// NewTask returns a task whose kill signal is the cancellation of ctx.
func NewTask(ctx context.Context) *Task {
	if ctx == nil {
		panic("sched: nil context")
	}
	return &Task{
		id:   ids.Add(1),
		wake: make(chan struct{}, 1),
		ctx:  ctx,
	}
}

// WithTask returns a copy of ctx carrying t.
func WithTask(ctx context.Context, t *Task) context.Context {
	return context.WithValue(ctx, taskKey{}, t)
}

// FromContext returns the task bound to ctx, if any.
func FromContext(ctx context.Context) (*Task, bool) {
	t, ok := ctx.Value(taskKey{}).(*Task)
	return t, ok
}

// Current returns the task bound to ctx, or a fresh task killed by the
// cancellation of ctx.
func Current(ctx context.Context) *Task {
	if t, ok := FromContext(ctx); ok {
		return t
	}
	return NewTask(ctx)
}

// Go spawns f on a new goroutine running as its own task.
// The context passed to f carries the task; Kill cancels it.
func Go(ctx context.Context, f func(ctx context.Context)) *Task {
	ctx, cancel := context.WithCancel(ctx)
	t := NewTask(ctx)
	t.cancel = cancel
	go func() {
		defer cancel()
		f(WithTask(ctx, t))
	}()
	return t
}

// Yield voluntarily gives up the processor.
func Yield() {
	runtime.Gosched()
}

// ID returns the task's identifier.
func (t *Task) ID() uint64 {
	return t.id
}

// Context returns the context the task's kill signal derives from.
func (t *Task) Context() context.Context {
	return t.ctx
}

// ClearEvent discards any pending wake and event token.
// A task clears its event before marking itself blocked so that a signal
// meant for an earlier wait is not taken for the next one.
func (t *Task) ClearEvent() {
	t.event.Store(0)
	select {
	case <-t.wake:
	default:
	}
}

// Signal stores tok as the task's event and wakes it.
// Never blocks; a later signal overwrites an unconsumed token.
func (t *Task) Signal(tok Token) {
	t.event.Store(uint64(tok))
	select {
	case t.wake <- struct{}{}:
	default:
	}
}

// Wait sleeps until the task is signalled or killed.
// It returns the event token of the wake, or killed=true the first time
// the kill is observed. Later waits ignore the kill and sleep on signals only.
func (t *Task) Wait() (tok Token, killed bool) {
	var done <-chan struct{}
	if !t.killSeen {
		done = t.ctx.Done()
	}
	select {
	case <-t.wake:
		return Token(t.event.Swap(0)), false
	case <-done:
		t.killSeen = true
		return 0, true
	}
}

// Kill requests the task to abort its current and future blocking waits.
// Tasks not created by Go are killed through their context instead.
func (t *Task) Kill() {
	if t.cancel != nil {
		t.cancel()
	}
}

// Killed reports whether a kill has been requested.
func (t *Task) Killed() bool {
	return t.ctx.Err() != nil
}

// Fail marks the task as unwinding from another failure.
// Kill requests observed by a failing task no longer abort its waits.
func (t *Task) Fail() {
	t.failing.Store(1)
}

// Failing reports whether Fail has been called.
func (t *Task) Failing() bool {
	return t.failing.Load() != 0
}
