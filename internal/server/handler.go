package server

import (
	"context"
	"log/slog"

	"github.com/hactazia/quiznet/internal/account"
	"github.com/hactazia/quiznet/internal/catalog"
	"github.com/hactazia/quiznet/internal/game"
	"github.com/hactazia/quiznet/internal/protocol"
)

// Handler routes parsed requests to the endpoint handlers.
type Handler struct {
	accounts *account.Registry
	catalog  *catalog.Catalog
	sessions *game.Manager
}

// NewHandler creates the request router.
func NewHandler(accounts *account.Registry, cat *catalog.Catalog, sessions *game.Manager) *Handler {
	return &Handler{
		accounts: accounts,
		catalog:  cat,
		sessions: sessions,
	}
}

// Handle dispatches one request. Responses are written directly to the
// client; a routing failure answers 400, an unknown endpoint 520.
func (h *Handler) Handle(ctx context.Context, c *Client, req protocol.Request) {
	slog.Info("request", "client", c.ID(), "method", req.Method, "endpoint", req.Endpoint)

	switch req.Method {
	case "GET":
		switch req.Endpoint {
		case "themes/list":
			h.handleThemesList(c)
		case "sessions/list":
			h.handleSessionsList(c)
		default:
			h.replyUnknown(c, req.Endpoint)
		}
	case "POST":
		switch req.Endpoint {
		case "player/register":
			h.handleRegister(c, req)
		case "player/login":
			h.handleLogin(c, req)
		case "session/create":
			h.handleSessionCreate(c, req)
		case "session/join":
			h.handleSessionJoin(c, req)
		case "session/start":
			h.handleSessionStart(ctx, c)
		case "question/answer":
			h.handleAnswer(c, req)
		case "joker/use":
			h.handleJoker(c, req)
		default:
			h.replyUnknown(c, req.Endpoint)
		}
	default:
		slog.Warn("unknown method", "client", c.ID(), "method", req.Method)
		h.replyBadRequest(c)
	}
}

func (h *Handler) reply(c *Client, payload any) {
	if err := c.Send(payload); err != nil {
		slog.Warn("sending response", "client", c.ID(), "err", err)
	}
}

func (h *Handler) replyError(c *Client, action, status, message string) {
	h.reply(c, protocol.Error(action, status, message))
}

func (h *Handler) replyBadRequest(c *Client) {
	h.replyError(c, "", protocol.StatusBadRequest, "Bad request")
}

func (h *Handler) replyUnknown(c *Client, endpoint string) {
	slog.Warn("unknown endpoint", "client", c.ID(), "endpoint", endpoint)
	h.replyError(c, "", protocol.StatusUnknown, "Unknown Error")
}
