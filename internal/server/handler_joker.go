package server

import (
	"log/slog"

	"github.com/hactazia/quiznet/internal/protocol"
)

func (h *Handler) handleJoker(c *Client, req protocol.Request) {
	s := h.playingSession(c, "joker/use")
	if s == nil {
		return
	}

	var body struct {
		Type string `json:"type"`
	}
	if err := req.DecodeBody(&body); err != nil || body.Type == "" {
		h.replyBadRequest(c)
		return
	}

	if _, ok := s.Player(c.ID()); !ok {
		h.replyError(c, "joker/use", protocol.StatusBadRequest, "player not found")
		return
	}

	switch body.Type {
	case "fifty":
		removed, err := s.UseFifty(c.ID())
		if err != nil {
			h.replyError(c, "joker/use", protocol.StatusBadRequest, "joker not available")
			return
		}
		p, _ := s.Player(c.ID())
		slog.Info("fifty joker used", "client", c.ID(), "session", s.ID)
		h.reply(c, struct {
			protocol.Envelope
			RemainingAnswers []string   `json:"remainingAnswers"`
			Jokers           jokerState `json:"jokers"`
		}{
			Envelope:         protocol.OK("joker/use", "joker activated"),
			RemainingAnswers: s.CurrentOptions(removed),
			Jokers:           availableJokers(p),
		})
	case "skip":
		if err := s.UseSkip(c.ID()); err != nil {
			h.replyError(c, "joker/use", protocol.StatusBadRequest, "joker not available")
			return
		}
		p, _ := s.Player(c.ID())
		slog.Info("skip joker used", "client", c.ID(), "session", s.ID)
		h.reply(c, struct {
			protocol.Envelope
			Jokers jokerState `json:"jokers"`
		}{
			Envelope: protocol.OK("joker/use", "question skipped"),
			Jokers:   availableJokers(p),
		})
	default:
		h.replyError(c, "joker/use", protocol.StatusBadRequest, "unknown joker type")
	}
}
