package server

import (
	"encoding/json"
	"log/slog"

	"github.com/hactazia/quiznet/internal/game"
	"github.com/hactazia/quiznet/internal/protocol"
)

// playingSession resolves the client's session when it exists and is
// currently playing; otherwise it answers the appropriate 400 itself.
func (h *Handler) playingSession(c *Client, action string) *game.Session {
	id := c.SessionID()
	if id < 0 {
		h.replyError(c, action, protocol.StatusBadRequest, "not in a session")
		return nil
	}
	s := h.sessions.Find(id)
	if s == nil || s.Status() != game.StatusPlaying {
		h.replyError(c, action, protocol.StatusBadRequest, "session not playing")
		return nil
	}
	return s
}

func (h *Handler) handleAnswer(c *Client, req protocol.Request) {
	s := h.playingSession(c, "question/answer")
	if s == nil {
		return
	}

	var body struct {
		Answer       json.RawMessage `json:"answer"`
		ResponseTime *float64        `json:"responseTime"`
	}
	if err := req.DecodeBody(&body); err != nil || body.ResponseTime == nil {
		h.replyBadRequest(c)
		return
	}

	// The answer is a number (option index), a string (free text) or a
	// boolean depending on the question kind.
	ans := game.Answer{Index: -1}
	var raw any
	if err := json.Unmarshal(body.Answer, &raw); err == nil {
		switch v := raw.(type) {
		case float64:
			ans.Index = int(v)
		case string:
			ans.Text = v
		case bool:
			ans.Bool = v
		}
	}

	slog.Info("answer received",
		"client", c.ID(), "session", s.ID, "responseTime", *body.ResponseTime)
	s.ProcessAnswer(c.ID(), ans, *body.ResponseTime)

	h.reply(c, protocol.OK("question/answer", "answer received"))
}
