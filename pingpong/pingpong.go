// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package pingpong implements a bounded three-message protocol on pipes:
//
//	client: send Ping(n) -> recv Pong(m) -> send Done(total)
//	server: recv Ping(n) -> send Pong(m) -> recv Done(total)
//
// Every packet of one exchange is embedded in a single buffer, so an
// exchange costs one allocation. Each message carries the endpoint its
// receiver uses for the next step. The buffer is released once, after
// the last endpoint of the exchange is consumed or closed.
package pingpong

import (
	"context"

	"code.hybscloud.com/pipes"
)

type ping struct {
	n     int
	reply *pipes.SendPacket[pong]
}

func (m ping) Discard() { m.reply.Close() }

type pong struct {
	n    int
	done *pipes.SendPacket[done]
}

func (m pong) Discard() { m.done.Close() }

type done struct {
	total int
}

// exchange holds every packet of one conversation.
type exchange struct {
	ping pipes.Packet[ping]
	pong pipes.Packet[pong]
	done pipes.Packet[done]
}

func bindAll(b *pipes.Buffer[exchange]) *pipes.Packet[ping] {
	pipes.Bind(b, &b.Data.pong)
	pipes.Bind(b, &b.Data.done)
	return pipes.Bind(b, &b.Data.ping)
}

// Client is the client at the start of an exchange.
type Client struct {
	ping *pipes.SendPacket[ping]
}

// Server is the server at the start of an exchange.
type Server struct {
	ping *pipes.RecvPacket[ping]
}

// Start allocates one exchange. release, if not nil, runs once when the
// exchange's buffer is released.
func Start(release func()) (*Client, *Server) {
	b := pipes.NewBuffer[exchange]()
	if release != nil {
		b.OnRelease(release)
	}
	s, r := pipes.EntangleBuffer(b, bindAll)
	return &Client{ping: s}, &Server{ping: r}
}

// Ping sends n and returns the client waiting for the reply.
func (c *Client) Ping(n int) *AwaitPong {
	b := pipes.BufferOf[exchange](c.ping)
	reply := pipes.NewSendPacket(&b.Data.pong)
	await := &AwaitPong{pong: pipes.NewRecvPacket(&b.Data.pong)}
	c.ping.Send(ping{n: n, reply: reply})
	return await
}

// Close abandons the exchange before pinging.
func (c *Client) Close() {
	c.ping.Close()
}

// Recv waits for the client's ping. It returns false if the client
// abandoned the exchange.
func (s *Server) Recv(ctx context.Context) (int, *Reply, bool) {
	m, ok := s.ping.TryRecvContext(ctx)
	if !ok {
		return 0, nil, false
	}
	return m.n, &Reply{pong: m.reply}, true
}

// Close abandons the exchange before receiving.
func (s *Server) Close() {
	s.ping.Close()
}

// AwaitPong is the client waiting for the server's reply.
type AwaitPong struct {
	pong *pipes.RecvPacket[pong]
}

// Recv waits for the reply. It returns false if the server abandoned
// the exchange.
func (a *AwaitPong) Recv(ctx context.Context) (int, *Finish, bool) {
	m, ok := a.pong.TryRecvContext(ctx)
	if !ok {
		return 0, nil, false
	}
	return m.n, &Finish{done: m.done}, true
}

// Close abandons the exchange while waiting for the reply.
func (a *AwaitPong) Close() {
	a.pong.Close()
}

// Reply is the server about to answer.
type Reply struct {
	pong *pipes.SendPacket[pong]
}

// Pong sends n and returns the server waiting for the client to finish.
func (r *Reply) Pong(n int) *AwaitDone {
	b := pipes.BufferOf[exchange](r.pong)
	finish := pipes.NewSendPacket(&b.Data.done)
	await := &AwaitDone{done: pipes.NewRecvPacket(&b.Data.done)}
	r.pong.Send(pong{n: n, done: finish})
	return await
}

// Close abandons the exchange without answering.
func (r *Reply) Close() {
	r.pong.Close()
}

// Finish is the client about to end the exchange.
type Finish struct {
	done *pipes.SendPacket[done]
}

// Done ends the exchange, reporting total to the server.
func (f *Finish) Done(total int) {
	f.done.Send(done{total: total})
}

// Close ends the exchange without a total.
func (f *Finish) Close() {
	f.done.Close()
}

// AwaitDone is the server waiting for the client to finish.
type AwaitDone struct {
	done *pipes.RecvPacket[done]
}

// Recv waits for the client's total. It returns false if the client
// closed without one.
func (a *AwaitDone) Recv(ctx context.Context) (int, bool) {
	m, ok := a.done.TryRecvContext(ctx)
	return m.total, ok
}

// Close stops waiting for the total.
func (a *AwaitDone) Close() {
	a.done.Close()
}

// Spawn runs a server on its own task that answers a ping of n with
// f(n), and returns the client end. totals, if not nil, receives the
// total the client finishes with.
func Spawn(ctx context.Context, f func(n int) int, totals pipes.Channel[int]) *Client {
	start := func() (*pipes.SendPacket[ping], *pipes.RecvPacket[ping]) {
		c, s := Start(nil)
		return c.ping, s.ping
	}
	c := pipes.SpawnService(ctx, start, func(ctx context.Context, r *pipes.RecvPacket[ping]) {
		srv := &Server{ping: r}
		n, reply, ok := srv.Recv(ctx)
		if !ok {
			return
		}
		total, ok := reply.Pong(f(n)).Recv(ctx)
		if ok && totals != nil {
			totals.Send(total)
		}
	})
	return &Client{ping: c}
}
