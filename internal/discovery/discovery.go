// Package discovery implements the LAN discovery responder: a UDP socket
// answering broadcast probes with the server's name and TCP port.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"
)

// Probe is the datagram clients broadcast to find servers.
const Probe = "looking for quiznet servers"

// Responder answers discovery probes on a UDP port.
type Responder struct {
	addr    string
	name    string
	tcpPort int

	conn net.PacketConn
	mu   sync.Mutex
}

// NewResponder creates a responder that advertises the given server name and
// TCP port.
func NewResponder(addr, name string, tcpPort int) *Responder {
	return &Responder{
		addr:    addr,
		name:    name,
		tcpPort: tcpPort,
	}
}

// LocalAddr returns the bound address, or nil before Run.
func (r *Responder) LocalAddr() net.Addr {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conn == nil {
		return nil
	}
	return r.conn.LocalAddr()
}

// Close closes the socket and unblocks Run.
func (r *Responder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}

// Run listens for probes until ctx is cancelled. Datagrams other than the
// probe are ignored.
func (r *Responder) Run(ctx context.Context) error {
	conn, err := net.ListenPacket("udp", r.addr)
	if err != nil {
		return fmt.Errorf("listening on udp %s: %w", r.addr, err)
	}

	r.mu.Lock()
	r.conn = conn
	r.mu.Unlock()

	return r.serve(ctx, conn)
}

func (r *Responder) serve(ctx context.Context, conn net.PacketConn) error {
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	slog.Info("discovery responder started", "address", conn.LocalAddr(), "name", r.name)

	reply := []byte(fmt.Sprintf("hello i'm a quiznet server:%s:%d", r.name, r.tcpPort))
	buf := make([]byte, 512)
	for {
		n, peer, err := conn.ReadFrom(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("reading discovery probe: %w", err)
		}

		msg := strings.TrimSpace(string(buf[:n]))
		if msg != Probe {
			slog.Debug("ignoring datagram", "from", peer, "len", n)
			continue
		}

		if _, err := conn.WriteTo(reply, peer); err != nil {
			slog.Warn("answering discovery probe", "to", peer, "err", err)
			continue
		}
		slog.Info("discovery probe answered", "to", peer)
	}
}
