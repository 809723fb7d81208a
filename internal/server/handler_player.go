package server

import (
	"errors"
	"log/slog"

	"github.com/hactazia/quiznet/internal/account"
	"github.com/hactazia/quiznet/internal/model"
	"github.com/hactazia/quiznet/internal/protocol"
)

type credentialsBody struct {
	Pseudo   string `json:"pseudo"`
	Password string `json:"password"`
}

func (h *Handler) handleRegister(c *Client, req protocol.Request) {
	var body credentialsBody
	if err := req.DecodeBody(&body); err != nil || body.Pseudo == "" || body.Password == "" {
		h.replyBadRequest(c)
		return
	}
	if len(body.Pseudo) > model.MaxNameLen {
		h.replyBadRequest(c)
		return
	}

	switch err := h.accounts.Register(body.Pseudo, body.Password); {
	case err == nil:
		slog.Info("player registered", "client", c.ID(), "pseudo", body.Pseudo)
		h.reply(c, protocol.Created("player/register", "player registered successfully"))
	case errors.Is(err, account.ErrDuplicate):
		h.replyError(c, "player/register", protocol.StatusConflict, "pseudo already exists")
	case errors.Is(err, account.ErrCapacity):
		h.replyError(c, "player/register", protocol.StatusBadRequest, "account capacity reached")
	default:
		slog.Error("registering player", "client", c.ID(), "err", err)
		h.replyError(c, "player/register", protocol.StatusUnknown, "Unknown Error")
	}
}

func (h *Handler) handleLogin(c *Client, req protocol.Request) {
	var body credentialsBody
	if err := req.DecodeBody(&body); err != nil || body.Pseudo == "" || body.Password == "" {
		h.replyBadRequest(c)
		return
	}

	if err := h.accounts.Authenticate(body.Pseudo, body.Password); err != nil {
		slog.Info("login rejected", "client", c.ID(), "pseudo", body.Pseudo)
		h.replyError(c, "player/login", protocol.StatusUnauthorized, "invalid credentials")
		return
	}

	c.SetAuthenticated(body.Pseudo)
	slog.Info("player logged in", "client", c.ID(), "pseudo", body.Pseudo)
	h.reply(c, protocol.OK("player/login", "login successful"))
}
