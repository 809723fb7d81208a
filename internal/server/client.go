package server

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/hactazia/quiznet/internal/protocol"
)

const writeTimeout = 5 * time.Second

// Client represents a single client connection. Writes are serialized by mu
// because session broadcasts and the client's own handler replies may race.
type Client struct {
	id   int
	conn net.Conn
	ip   string

	mu        sync.Mutex
	pseudo    string
	auth      bool
	sessionID int // -1 while not in a session
}

func newClient(id int, conn net.Conn) *Client {
	host, _, err := net.SplitHostPort(conn.RemoteAddr().String())
	if err != nil {
		host = conn.RemoteAddr().String()
	}
	return &Client{
		id:        id,
		conn:      conn,
		ip:        host,
		sessionID: -1,
	}
}

// ID returns the client id assigned at accept time.
func (c *Client) ID() int {
	return c.id
}

// IP returns the client's remote address.
func (c *Client) IP() string {
	return c.ip
}

// Authenticated reports whether the client has logged in.
func (c *Client) Authenticated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.auth
}

// Pseudo returns the logged-in player name, or "".
func (c *Client) Pseudo() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pseudo
}

// SetAuthenticated binds the player name after a successful login.
func (c *Client) SetAuthenticated(pseudo string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.auth = true
	c.pseudo = pseudo
}

// SessionID returns the bound session id, or -1.
func (c *Client) SessionID() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// SetSessionID binds or clears (-1) the client's session.
func (c *Client) SetSessionID(id int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessionID = id
}

// Send encodes payload as one JSON line and writes it with a deadline so a
// stalled peer cannot block a session broadcast forever.
func (c *Client) Send(payload any) error {
	data, err := protocol.Encode(payload)
	if err != nil {
		return fmt.Errorf("encoding frame: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return fmt.Errorf("setting write deadline: %w", err)
	}
	if _, err := c.conn.Write(data); err != nil {
		return fmt.Errorf("writing frame: %w", err)
	}
	return nil
}
