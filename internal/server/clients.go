package server

import (
	"errors"
	"log/slog"
	"net"
	"sync"

	"github.com/hactazia/quiznet/internal/model"
)

// ErrServerFull is returned by Add when the client capacity is reached.
var ErrServerFull = errors.New("server: client capacity reached")

// ClientManager is the registry of connected clients. It implements
// game.Notifier so session broadcasts resolve ids through it; the registry
// lock is only held for the lookup, never across the socket write.
type ClientManager struct {
	mu      sync.RWMutex
	clients map[int]*Client
	nextID  int
}

// NewClientManager creates an empty client registry.
func NewClientManager() *ClientManager {
	return &ClientManager{
		clients: make(map[int]*Client, model.MaxClients),
		nextID:  1,
	}
}

// Add registers a new connection and assigns it a monotonic client id.
func (cm *ClientManager) Add(conn net.Conn) (*Client, error) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if len(cm.clients) >= model.MaxClients {
		return nil, ErrServerFull
	}

	id := cm.nextID
	cm.nextID++
	c := newClient(id, conn)
	cm.clients[id] = c
	return c, nil
}

// Remove drops the client from the registry.
func (cm *ClientManager) Remove(id int) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	delete(cm.clients, id)
}

// Get returns the client with the given id, or nil.
func (cm *ClientManager) Get(id int) *Client {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.clients[id]
}

// Count returns the number of connected clients.
func (cm *ClientManager) Count() int {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return len(cm.clients)
}

// Send delivers a frame to a client by id. Frames to unknown or gone clients
// are dropped; a write error is logged but not propagated, the reader will
// notice the broken connection on its own.
func (cm *ClientManager) Send(clientID int, payload any) {
	c := cm.Get(clientID)
	if c == nil {
		return
	}
	if err := c.Send(payload); err != nil {
		slog.Warn("dropping frame", "client", clientID, "err", err)
	}
}

// ClearSession detaches the client from its session binding.
func (cm *ClientManager) ClearSession(clientID int) {
	if c := cm.Get(clientID); c != nil {
		c.SetSessionID(-1)
	}
}
