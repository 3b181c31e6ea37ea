// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"code.hybscloud.com/kont"
	"code.hybscloud.com/pipes"
	"code.hybscloud.com/pipes/internal/metrics"
	"code.hybscloud.com/pipes/pingpong"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// workload runs one scenario to completion or until ctx is done.
type workload func(ctx context.Context, cfg Config) error

var workloads = map[string]workload{
	"sharedchan": runSharedChan,
	"portset":    runPortSet,
	"pingpong":   runPingPong,
	"session":    runSession,
	"select":     runSelect,
}

func workloadNames() []string {
	return slices.Sorted(maps.Keys(workloads))
}

// runAll runs the selected workloads concurrently and records each one.
func runAll(ctx context.Context, cfg Config, logger zerolog.Logger, rec *metrics.Workloads) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, name := range cfg.Workloads {
		w := workloads[name]
		g.Go(func() error {
			start := time.Now()
			err := w(ctx, cfg)
			elapsed := time.Since(start)
			rec.Record(name, elapsed, err == nil)
			if err != nil {
				logger.Error().Err(err).Str("workload", name).Dur("elapsed", elapsed).Msg("workload failed")
				return fmt.Errorf("%s: %w", name, err)
			}
			logger.Info().Str("workload", name).Dur("elapsed", elapsed).Msg("workload finished")
			return nil
		})
	}
	return g.Wait()
}

// recoverKilled turns a pipes panic, such as ErrKilled, into an error.
func recoverKilled(errp *error) {
	r := recover()
	if r == nil {
		return
	}
	err, ok := r.(error)
	if !ok {
		panic(r)
	}
	*errp = err
}

// checkOrder verifies that values of every source arrive in order.
type checkOrder struct {
	next []int
}

func newCheckOrder(sources int) *checkOrder {
	return &checkOrder{next: make([]int, sources)}
}

func (c *checkOrder) see(src, seq int) error {
	if c.next[src] != seq {
		return fmt.Errorf("source %d: got %d, want %d", src, seq, c.next[src])
	}
	c.next[src]++
	return nil
}

func (c *checkOrder) total() int {
	n := 0
	for _, v := range c.next {
		n += v
	}
	return n
}

type tagged struct {
	src, seq int
}

// runSharedChan fans several producers into one stream.
func runSharedChan(ctx context.Context, cfg Config) (err error) {
	defer recoverKilled(&err)
	c, p := pipes.Stream[tagged]()
	shared := pipes.NewSharedChan(c)

	var g errgroup.Group
	for src := range cfg.Producers {
		g.Go(func() error {
			for seq := range cfg.Messages {
				shared.Send(tagged{src: src, seq: seq})
			}
			return nil
		})
	}
	go func() {
		_ = g.Wait()
		shared.Close()
	}()

	order := newCheckOrder(cfg.Producers)
	for {
		m, ok := p.TryRecvContext(ctx)
		if !ok {
			break
		}
		if err := order.see(m.src, m.seq); err != nil {
			p.Close()
			return err
		}
	}
	if n, want := order.total(), cfg.Producers*cfg.Messages; n != want {
		return fmt.Errorf("received %d values, want %d", n, want)
	}
	return nil
}

// runPortSet merges one stream per producer.
func runPortSet(ctx context.Context, cfg Config) (err error) {
	defer recoverKilled(&err)
	set := pipes.NewPortSet[tagged]()
	defer set.Close()

	var g errgroup.Group
	for src := range cfg.Producers {
		c := set.Chan()
		g.Go(func() error {
			defer c.Close()
			for seq := range cfg.Messages {
				c.Send(tagged{src: src, seq: seq})
			}
			return nil
		})
	}

	order := newCheckOrder(cfg.Producers)
	for {
		m, ok := set.TryRecvContext(ctx)
		if !ok {
			break
		}
		if err := order.see(m.src, m.seq); err != nil {
			return err
		}
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if n, want := order.total(), cfg.Producers*cfg.Messages; n != want {
		return fmt.Errorf("received %d values, want %d", n, want)
	}
	return nil
}

// runPingPong runs bounded exchanges against spawned servers.
func runPingPong(ctx context.Context, cfg Config) (err error) {
	defer recoverKilled(&err)
	totals, results := pipes.Stream[int]()
	shared := pipes.NewSharedChan(totals)

	want := 0
	for i := range cfg.Exchanges {
		client := pingpong.Spawn(ctx, func(n int) int { return n + 1 }, shared)
		m, finish, ok := client.Ping(i).Recv(ctx)
		if !ok {
			return fmt.Errorf("exchange %d: server abandoned", i)
		}
		if m != i+1 {
			finish.Close()
			return fmt.Errorf("exchange %d: pong %d, want %d", i, m, i+1)
		}
		finish.Done(m)
		want += m
	}

	got := 0
	for range cfg.Exchanges {
		n, ok := results.TryRecvContext(ctx)
		if !ok {
			return errors.New("totals stream ended early")
		}
		got += n
	}
	shared.Close()
	if got != want {
		return fmt.Errorf("totals %d, want %d", got, want)
	}
	return nil
}

// runSession counts up over a session, one round per branch choice.
func runSession(ctx context.Context, cfg Config) (err error) {
	defer recoverKilled(&err)
	rounds := cfg.SessionRounds
	client := pipes.Loop(0, func(i int) kont.Eff[kont.Either[int, int]] {
		if i >= rounds {
			return pipes.SelectLThen(pipes.CloseDone(kont.Right[int, int](i)))
		}
		return pipes.SelectRThen(pipes.SendThen(i, pipes.RecvBind(func(echo int) kont.Eff[kont.Either[int, int]] {
			return kont.Pure(kont.Left[int, int](echo + 1))
		})))
	})
	server := pipes.Loop(0, func(sum int) kont.Eff[kont.Either[int, int]] {
		return pipes.OfferBranch(
			func() kont.Eff[kont.Either[int, int]] {
				return pipes.CloseDone(kont.Right[int, int](sum))
			},
			func() kont.Eff[kont.Either[int, int]] {
				return pipes.RecvBind(func(n int) kont.Eff[kont.Either[int, int]] {
					return pipes.SendThen(n, kont.Pure(kont.Left[int, int](sum+n)))
				})
			},
		)
	})

	done := make(chan [2]int, 1)
	go func() {
		a, b := pipes.Run[int, int](client, server)
		done <- [2]int{a, b}
	}()
	select {
	case r := <-done:
		if r[0] != rounds || r[1] != rounds*(rounds-1)/2 {
			return fmt.Errorf("session got %v, want [%d %d]", r, rounds, rounds*(rounds-1)/2)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// runSelect receives one value from each of several one-shot packets,
// in whatever order they become ready.
func runSelect(ctx context.Context, cfg Config) (err error) {
	defer recoverKilled(&err)
	pool := pipes.NewPool[int](cfg.Producers)
	for range max(1, cfg.Messages/cfg.Producers) {
		rs := make([]*pipes.RecvPacket[int], cfg.Producers)
		var g errgroup.Group
		for i := range cfg.Producers {
			s, r := pool.Entangle()
			rs[i] = r
			g.Go(func() error {
				s.Send(i)
				return nil
			})
		}
		seen := make([]bool, cfg.Producers)
		for len(rs) > 0 {
			_, v, ok, rest := pipes.Select(rs)
			if !ok || seen[v] {
				return fmt.Errorf("select delivered (%d, %v)", v, ok)
			}
			seen[v] = true
			rs = rest
		}
		if err := g.Wait(); err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return nil
}
