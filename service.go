// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pipes

import (
	"context"
	"errors"

	"code.hybscloud.com/pipes/sched"
)

// SpawnService creates an endpoint pair with init, runs service on the
// receive side in a new task and returns the send side.
//
// The context passed to service carries the task; receives made with it
// abort when the task is killed or ctx is cancelled. Such an abort ends
// the task quietly; any other panic from service is re-raised.
func SpawnService[T any](
	ctx context.Context,
	init func() (*SendPacket[T], *RecvPacket[T]),
	service func(ctx context.Context, server *RecvPacket[T]),
) *SendPacket[T] {
	client, server := init()
	sched.Go(ctx, func(ctx context.Context) {
		defer recoverKilled(ctx)
		service(ctx, server)
	})
	return client
}

// SpawnServiceRecv is SpawnService for protocols whose first message
// flows from the service to the client.
func SpawnServiceRecv[T any](
	ctx context.Context,
	init func() (*RecvPacket[T], *SendPacket[T]),
	service func(ctx context.Context, server *SendPacket[T]),
) *RecvPacket[T] {
	client, server := init()
	sched.Go(ctx, func(ctx context.Context) {
		defer recoverKilled(ctx)
		service(ctx, server)
	})
	return client
}

// recoverKilled stops an ErrKilled panic at the top of a service task.
func recoverKilled(ctx context.Context) {
	r := recover()
	if r == nil {
		return
	}
	if err, ok := r.(error); ok && errors.Is(err, ErrKilled) {
		if t, ok := sched.FromContext(ctx); ok {
			logger.Debug().Uint64("task", t.ID()).Msg("service killed")
		}
		return
	}
	panic(r)
}
