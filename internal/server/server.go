// Package server implements the TCP front of the quiz server: the accept
// loop, the per-connection reader, the client registry and the request
// handlers.
package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/hactazia/quiznet/internal/account"
	"github.com/hactazia/quiznet/internal/catalog"
	"github.com/hactazia/quiznet/internal/game"
	"github.com/hactazia/quiznet/internal/protocol"
)

// Server accepts client connections and drives one reader goroutine per
// client.
type Server struct {
	addr     string
	clients  *ClientManager
	sessions *game.Manager
	handler  *Handler

	listener net.Listener
	mu       sync.Mutex
}

// NewServer wires the client registry, the session manager and the request
// handler around the shared account registry and question catalog.
func NewServer(addr string, accounts *account.Registry, cat *catalog.Catalog, timing game.Timing) *Server {
	clients := NewClientManager()
	sessions := game.NewManager(cat, clients, timing)
	return &Server{
		addr:     addr,
		clients:  clients,
		sessions: sessions,
		handler:  NewHandler(accounts, cat, sessions),
	}
}

// Clients returns the client registry.
func (s *Server) Clients() *ClientManager {
	return s.clients
}

// Sessions returns the session manager.
func (s *Server) Sessions() *game.Manager {
	return s.sessions
}

// Addr returns the listening address, or nil before Run.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Close closes the listener and stops the accept loop.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Close()
	}
	return nil
}

// Run begins listening for client connections on the configured address.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.addr, err)
	}

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	return s.Serve(ctx, ln)
}

// Serve accepts connections from a ready listener. Used by tests to serve on
// an arbitrary listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	var wg sync.WaitGroup
	wg.Go(func() {
		slog.Info("quiz server started", "address", ln.Addr())
		acceptLoop(ctx, &wg, s, ln)
	})

	wg.Wait()

	return nil
}

func acceptLoop(
	ctx context.Context,
	wg *sync.WaitGroup,
	srv *Server,
	ln net.Listener,
) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
			conn, err := ln.Accept()
			if err != nil {
				if errors.Is(err, net.ErrClosed) {
					return
				}
				slog.Error("failed to accept new connection", "error", err)
				continue
			}
			wg.Go(func() {
				handleConnection(ctx, srv, conn)
			})
		}
	}
}

func handleConnection(ctx context.Context, srv *Server, conn net.Conn) {
	done := make(chan struct{})
	defer close(done)
	defer conn.Close()

	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	client, err := srv.clients.Add(conn)
	if err != nil {
		slog.Warn("rejecting connection", "remote", conn.RemoteAddr(), "err", err)
		return
	}
	defer srv.disconnect(client)

	slog.Info("new connection", "client", client.ID(), "remote", client.IP())

	reader := bufio.NewReader(conn)
	for {
		select {
		case <-ctx.Done():
			return
		default:
			req, err := protocol.ReadRequest(reader)
			if err != nil {
				slog.Info("connection closed", "client", client.ID(), "err", err)
				return
			}
			srv.handler.Handle(ctx, client, req)
		}
	}
}

// disconnect detaches the client from its session (if any) and removes it
// from the registry.
func (s *Server) disconnect(c *Client) {
	if id := c.SessionID(); id >= 0 {
		if sess := s.sessions.Find(id); sess != nil {
			if err := sess.Leave(c.ID()); err != nil && !errors.Is(err, game.ErrNotInSession) {
				slog.Warn("leaving session on disconnect", "client", c.ID(), "session", id, "err", err)
			}
		}
	}
	s.clients.Remove(c.ID())
	slog.Info("client disconnected", "client", c.ID(), "remote", c.IP())
}
