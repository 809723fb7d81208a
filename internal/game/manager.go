package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/hactazia/quiznet/internal/catalog"
	"github.com/hactazia/quiznet/internal/model"
)

// Manager-level errors.
var (
	ErrTooManySessions = errors.New("game: session capacity reached")
	ErrInvalidConfig   = errors.New("game: invalid session parameters")
	ErrNotPlaying      = errors.New("game: session not playing")
)

// Notifier delivers server-initiated frames to connected clients. Sends are
// best effort; frames to disconnected clients are dropped silently.
type Notifier interface {
	Send(clientID int, payload any)
	// ClearSession detaches the client from its session binding once the
	// session has finished.
	ClearSession(clientID int)
}

// Timing groups the externally visible delays of the game loop. Tests
// shrink these to keep runs fast; production uses DefaultTiming.
type Timing struct {
	Countdown    time.Duration // pause between session/started and question 1
	ResultsPause time.Duration // viewing window between results and next question
	Grace        time.Duration // tolerance added to the per-question deadline
	// Second scales the per-question deadline: timeLimit is expressed in
	// seconds on the wire, so the deadline is timeLimit*Second + Grace.
	Second time.Duration
}

// DefaultTiming matches the historical server: 3 s countdown, 5 s results
// window, 1 s answer grace.
func DefaultTiming() Timing {
	return Timing{
		Countdown:    3 * time.Second,
		ResultsPause: 5 * time.Second,
		Grace:        1 * time.Second,
		Second:       time.Second,
	}
}

// Manager owns every session. A single mutex guards the session table and
// the id counter; each session carries its own lock for gameplay state.
type Manager struct {
	catalog *catalog.Catalog
	notify  Notifier
	timing  Timing

	mu       sync.Mutex
	sessions map[int]*Session
	nextID   int
}

// NewManager creates a session manager using cat for question selection and
// notify for frame delivery.
func NewManager(cat *catalog.Catalog, notify Notifier, timing Timing) *Manager {
	return &Manager{
		catalog:  cat,
		notify:   notify,
		timing:   timing,
		sessions: make(map[int]*Session, model.MaxSessions),
		nextID:   1,
	}
}

// Create validates cfg, pre-selects the question sequence and registers a
// new waiting session. The caller is recorded as creator but must still
// Join as the first player.
func (m *Manager) Create(cfg Config, creatorID int) (*Session, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	questionIDs, err := m.catalog.Select(cfg.ThemeIDs, cfg.Difficulty, cfg.NumQuestions)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Finished sessions free their slot for new ones.
	for id, s := range m.sessions {
		if s.Status() == StatusFinished {
			delete(m.sessions, id)
		}
	}
	if len(m.sessions) >= model.MaxSessions {
		return nil, ErrTooManySessions
	}

	if cfg.Mode != model.ModeBattle {
		cfg.InitialLives = 0
	}

	id := m.nextID
	m.nextID++
	s := newSession(id, cfg, creatorID, questionIDs, m.catalog, m.notify, m.timing)
	m.sessions[id] = s

	slog.Info("session created",
		"session", id, "name", cfg.Name, "mode", cfg.Mode.String(),
		"difficulty", cfg.Difficulty.String(), "questions", cfg.NumQuestions,
		"timeLimit", cfg.TimeLimit, "maxPlayers", cfg.MaxPlayers)
	return s, nil
}

func validateConfig(cfg Config) error {
	switch {
	case cfg.NumQuestions < 10 || cfg.NumQuestions > 50:
		return fmt.Errorf("%w: nbQuestions must be in [10,50]", ErrInvalidConfig)
	case cfg.TimeLimit < 10 || cfg.TimeLimit > 60:
		return fmt.Errorf("%w: timeLimit must be in [10,60]", ErrInvalidConfig)
	case cfg.MaxPlayers < 2 || cfg.MaxPlayers > model.MaxPlayersPerSession:
		return fmt.Errorf("%w: maxPlayers must be in [2,%d]", ErrInvalidConfig, model.MaxPlayersPerSession)
	case cfg.Mode == model.ModeBattle && (cfg.InitialLives < 1 || cfg.InitialLives > 10):
		return fmt.Errorf("%w: lives must be in [1,10]", ErrInvalidConfig)
	case len(cfg.ThemeIDs) == 0:
		return fmt.Errorf("%w: at least one theme required", ErrInvalidConfig)
	}
	return nil
}

// Find returns the session with the given id, or nil.
func (m *Manager) Find(id int) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[id]
}

// Summary describes one joinable session for sessions/list.
type Summary struct {
	ID         int      `json:"id"`
	Name       string   `json:"name"`
	ThemeIDs   []int    `json:"themeIds"`
	ThemeNames []string `json:"themeNames"`
	Difficulty string   `json:"difficulty"`
	NbQ        int      `json:"nbQuestions"`
	TimeLimit  int      `json:"timeLimit"`
	Mode       string   `json:"mode"`
	NbPlayers  int      `json:"nbPlayers"`
	MaxPlayers int      `json:"maxPlayers"`
	Status     string   `json:"status"`
}

// ListWaiting returns a summary of every session still accepting players,
// in ascending id order.
func (m *Manager) ListWaiting() []Summary {
	m.mu.Lock()
	ids := make([]int, 0, len(m.sessions))
	for id, s := range m.sessions {
		if s.Status() == StatusWaiting {
			ids = append(ids, id)
		}
	}
	m.mu.Unlock()
	sort.Ints(ids)

	summaries := make([]Summary, 0, len(ids))
	for _, id := range ids {
		s := m.Find(id)
		if s == nil {
			continue
		}
		cfg := s.Config
		names := make([]string, 0, len(cfg.ThemeIDs))
		for _, themeID := range cfg.ThemeIDs {
			if name := m.catalog.ThemeName(themeID); name != "" {
				names = append(names, name)
			}
		}
		summaries = append(summaries, Summary{
			ID:         s.ID,
			Name:       cfg.Name,
			ThemeIDs:   cfg.ThemeIDs,
			ThemeNames: names,
			Difficulty: cfg.Difficulty.String(),
			NbQ:        cfg.NumQuestions,
			TimeLimit:  cfg.TimeLimit,
			Mode:       cfg.Mode.String(),
			NbPlayers:  s.PlayerCount(),
			MaxPlayers: cfg.MaxPlayers,
			Status:     StatusWaiting.String(),
		})
	}
	return summaries
}

// Start flips the session to playing and spawns its runner goroutine. The
// caller must have verified creatorship; the player minimum is enforced
// here. ctx is the server lifetime: cancellation stops the runner at its
// next wait.
func (m *Manager) Start(ctx context.Context, s *Session) error {
	s.mu.Lock()
	if s.status != StatusWaiting {
		s.mu.Unlock()
		return ErrNotWaiting
	}
	if len(s.players) < 2 {
		s.mu.Unlock()
		return ErrNotEnoughReady
	}

	s.status = StatusPlaying
	s.current = 0

	frame := sessionStartedFrame{
		Action:    ActionSessionStarted,
		Message:   "session is starting",
		Countdown: 3,
	}
	for _, p := range s.players {
		s.notify.Send(p.ClientID, frame)
	}
	slog.Info("session starting", "session", s.ID, "players", len(s.players))
	s.mu.Unlock()

	go m.run(ctx, s)
	return nil
}

// run drives one session from countdown to finish: dispatch, wait for the
// completion predicate or the question deadline, emit results, pause,
// advance. Exits when the session ends or the server shuts down.
func (m *Manager) run(ctx context.Context, s *Session) {
	if !m.wait(ctx, s, m.timing.Countdown) {
		return
	}

	deadline := time.Duration(s.Config.TimeLimit)*m.timing.Second + m.timing.Grace
	for {
		if !s.dispatchQuestion() {
			return
		}

		timer := time.NewTimer(deadline)
		select {
		case <-s.answered:
			timer.Stop()
		case <-timer.C:
			slog.Info("question deadline expired", "session", s.ID)
		case <-s.finished:
			timer.Stop()
			return
		case <-ctx.Done():
			timer.Stop()
			return
		}

		if s.emitResults() {
			s.end()
			return
		}
		if !m.wait(ctx, s, m.timing.ResultsPause) {
			return
		}
		s.advance()
	}
}

// wait sleeps for d, aborting early on shutdown or session end.
func (m *Manager) wait(ctx context.Context, s *Session, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-s.finished:
		return false
	case <-ctx.Done():
		return false
	}
}

// sortRanking orders players for the final ranking. Battle: lives desc,
// then latest elimination first, then score desc. Solo: score desc. The
// sort is stable so full ties keep join order.
func sortRanking(players []*Player, mode model.Mode) {
	sort.SliceStable(players, func(i, j int) bool {
		a, b := players[i], players[j]
		if mode == model.ModeBattle {
			if a.Lives != b.Lives {
				return a.Lives > b.Lives
			}
			if a.EliminatedAt != b.EliminatedAt {
				return a.EliminatedAt > b.EliminatedAt
			}
		}
		return a.Score > b.Score
	})
}
