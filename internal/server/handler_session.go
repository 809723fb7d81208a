package server

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hactazia/quiznet/internal/catalog"
	"github.com/hactazia/quiznet/internal/game"
	"github.com/hactazia/quiznet/internal/model"
	"github.com/hactazia/quiznet/internal/protocol"
)

// jokerState reports per-player joker availability as 0/1 flags.
type jokerState struct {
	Fifty int `json:"fifty"`
	Skip  int `json:"skip"`
}

func availableJokers(p game.Player) jokerState {
	js := jokerState{Fifty: 1, Skip: 1}
	if p.FiftyUsed {
		js.Fifty = 0
	}
	if p.SkipUsed {
		js.Skip = 0
	}
	return js
}

type themeEntry struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func (h *Handler) handleThemesList(c *Client) {
	themes := h.catalog.Themes()
	resp := struct {
		protocol.Envelope
		NbThemes int          `json:"nbThemes"`
		Themes   []themeEntry `json:"themes"`
	}{
		Envelope: protocol.OK("themes/list", "ok"),
		NbThemes: len(themes),
		Themes:   make([]themeEntry, 0, len(themes)),
	}
	for _, t := range themes {
		resp.Themes = append(resp.Themes, themeEntry{ID: t.ID, Name: t.Name})
	}
	h.reply(c, resp)
}

func (h *Handler) handleSessionsList(c *Client) {
	list := h.sessions.ListWaiting()
	h.reply(c, struct {
		protocol.Envelope
		NbSessions int            `json:"nbSessions"`
		Sessions   []game.Summary `json:"sessions,omitempty"`
	}{
		Envelope:   protocol.OK("sessions/list", "ok"),
		NbSessions: len(list),
		Sessions:   list,
	})
}

type createSessionBody struct {
	Name        string `json:"name"`
	ThemeIDs    []int  `json:"themeIds"`
	Difficulty  string `json:"difficulty"`
	NbQuestions int    `json:"nbQuestions"`
	TimeLimit   int    `json:"timeLimit"`
	Mode        string `json:"mode"`
	MaxPlayers  int    `json:"maxPlayers"`
	Lives       *int   `json:"lives"`
}

func (h *Handler) handleSessionCreate(c *Client, req protocol.Request) {
	if !c.Authenticated() {
		h.replyError(c, "session/create", protocol.StatusUnauthorized, "not authenticated")
		return
	}

	var body createSessionBody
	if err := req.DecodeBody(&body); err != nil {
		h.replyBadRequest(c)
		return
	}
	if body.Name == "" || body.ThemeIDs == nil || body.Difficulty == "" ||
		body.NbQuestions == 0 || body.TimeLimit == 0 || body.Mode == "" || body.MaxPlayers == 0 {
		h.replyBadRequest(c)
		return
	}

	mode := model.ParseMode(body.Mode)
	cfg := game.Config{
		Name:         body.Name,
		ThemeIDs:     body.ThemeIDs,
		Difficulty:   model.ParseDifficulty(body.Difficulty),
		NumQuestions: body.NbQuestions,
		TimeLimit:    body.TimeLimit,
		Mode:         mode,
		MaxPlayers:   body.MaxPlayers,
	}
	if mode == model.ModeBattle {
		if body.Lives == nil {
			h.replyError(c, "session/create", protocol.StatusBadRequest, "lives required for battle mode")
			return
		}
		cfg.InitialLives = *body.Lives
	}

	s, err := h.sessions.Create(cfg, c.ID())
	switch {
	case err == nil:
	case errors.Is(err, game.ErrInvalidConfig):
		h.replyError(c, "session/create", protocol.StatusBadRequest, "invalid parameters")
		return
	case errors.Is(err, catalog.ErrNotEnoughQuestions):
		h.replyError(c, "session/create", protocol.StatusBadRequest, "not enough questions matching criteria")
		return
	case errors.Is(err, game.ErrTooManySessions):
		h.replyError(c, "session/create", protocol.StatusBadRequest, "too many sessions")
		return
	default:
		slog.Error("creating session", "client", c.ID(), "err", err)
		h.replyError(c, "session/create", protocol.StatusUnknown, "Unknown Error")
		return
	}

	// The creator joins as the first player.
	if err := s.Join(c.ID(), c.Pseudo()); err != nil {
		slog.Error("creator join failed", "client", c.ID(), "session", s.ID, "err", err)
		h.replyError(c, "session/create", protocol.StatusUnknown, "Unknown Error")
		return
	}
	c.SetSessionID(s.ID)

	resp := struct {
		protocol.Envelope
		SessionID int        `json:"sessionId"`
		IsCreator bool       `json:"isCreator"`
		Lives     int        `json:"lives,omitempty"`
		Jokers    jokerState `json:"jokers"`
	}{
		Envelope:  protocol.Created("session/create", "session created"),
		SessionID: s.ID,
		IsCreator: true,
		Jokers:    jokerState{Fifty: 1, Skip: 1},
	}
	if mode == model.ModeBattle {
		resp.Lives = cfg.InitialLives
	}
	h.reply(c, resp)
}

func (h *Handler) handleSessionJoin(c *Client, req protocol.Request) {
	if !c.Authenticated() {
		h.replyError(c, "session/join", protocol.StatusUnauthorized, "not authenticated")
		return
	}

	var body struct {
		SessionID *int `json:"sessionId"`
	}
	if err := req.DecodeBody(&body); err != nil || body.SessionID == nil {
		h.replyBadRequest(c)
		return
	}

	s := h.sessions.Find(*body.SessionID)
	if s == nil {
		h.replyError(c, "session/join", protocol.StatusNotFound, "session not found")
		return
	}

	switch err := s.Join(c.ID(), c.Pseudo()); {
	case err == nil:
	case errors.Is(err, game.ErrSessionFull):
		h.replyError(c, "session/join", protocol.StatusForbidden, "session is full")
		return
	default:
		h.replyError(c, "session/join", protocol.StatusBadRequest, "cannot join session")
		return
	}
	c.SetSessionID(s.ID)

	resp := struct {
		protocol.Envelope
		SessionID int        `json:"sessionId"`
		Mode      string     `json:"mode"`
		IsCreator bool       `json:"isCreator"`
		Players   []string   `json:"players"`
		Lives     int        `json:"lives,omitempty"`
		Jokers    jokerState `json:"jokers"`
	}{
		// Historical quirk: join answers 201 even though nothing was created.
		Envelope:  protocol.Created("session/join", "session joined"),
		SessionID: s.ID,
		Mode:      s.Config.Mode.String(),
		IsCreator: s.CreatorID() == c.ID(),
		Players:   s.PlayerNames(),
		Jokers:    jokerState{Fifty: 1, Skip: 1},
	}
	if s.Config.Mode == model.ModeBattle {
		resp.Lives = s.Config.InitialLives
	}
	h.reply(c, resp)
}

func (h *Handler) handleSessionStart(ctx context.Context, c *Client) {
	id := c.SessionID()
	if id < 0 {
		h.replyError(c, "session/start", protocol.StatusBadRequest, "not in a session")
		return
	}
	s := h.sessions.Find(id)
	if s == nil {
		h.replyError(c, "session/start", protocol.StatusNotFound, "session not found")
		return
	}
	if s.CreatorID() != c.ID() {
		h.replyError(c, "session/start", protocol.StatusForbidden, "only creator can start session")
		return
	}

	switch err := h.sessions.Start(ctx, s); {
	case err == nil:
		// No direct reply; session/started and question frames follow.
	case errors.Is(err, game.ErrNotEnoughReady):
		h.replyError(c, "session/start", protocol.StatusBadRequest, "need at least 2 players")
	default:
		h.replyError(c, "session/start", protocol.StatusBadRequest, "cannot start session")
	}
}
