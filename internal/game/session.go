// Package game implements the session engine: the per-session state machine
// that walks players through an ordered question sequence, collects answers,
// applies battle-mode life loss, and decides when to advance or end.
package game

import (
	"errors"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/hactazia/quiznet/internal/catalog"
	"github.com/hactazia/quiznet/internal/model"
)

// Session lifecycle errors.
var (
	ErrNotWaiting      = errors.New("game: session is not waiting for players")
	ErrSessionFull     = errors.New("game: session is full")
	ErrAlreadyJoined   = errors.New("game: client already in session")
	ErrNotInSession    = errors.New("game: client not in session")
	ErrNotEnoughReady  = errors.New("game: need at least 2 players")
	ErrJokerNotAllowed = errors.New("game: joker not available")
)

// Status of a session.
type Status int

const (
	StatusWaiting Status = iota
	StatusPlaying
	StatusFinished
)

func (s Status) String() string {
	switch s {
	case StatusPlaying:
		return "playing"
	case StatusFinished:
		return "finished"
	default:
		return "waiting"
	}
}

// Player is one participant's state inside a session.
type Player struct {
	ClientID       int
	Pseudo         string
	Score          int
	Lives          int // battle mode only
	CorrectAnswers int

	// Per-question state, reset on every dispatch.
	HasAnswered  bool
	WasCorrect   bool
	Answer       int // chosen index; -1 none, -2 skipped
	ResponseTime float64
	SkippedThis  bool

	Eliminated   bool
	EliminatedAt int // 1-based question number, 0 while alive

	FiftyUsed bool
	SkipUsed  bool
}

// Config are the validated creation parameters of a session.
type Config struct {
	Name         string
	ThemeIDs     []int
	Difficulty   model.Difficulty
	NumQuestions int
	TimeLimit    int // seconds per question
	Mode         model.Mode
	InitialLives int // battle only
	MaxPlayers   int
}

// Session hosts up to MaxPlayers players through NumQuestions questions.
// All mutable state is guarded by mu. Broadcasts happen under mu; the
// notifier takes the client registry lock internally, so the lock order is
// always session then clients.
type Session struct {
	ID      int
	Config  Config
	catalog *catalog.Catalog
	notify  Notifier
	timing  Timing

	mu            sync.Mutex
	status        Status
	creatorID     int
	players       []*Player
	questionIDs   []int
	current       int // index into questionIDs, valid while playing
	questionStart time.Time
	// closed marks the current question as no longer accepting answers or
	// jokers: set once results go out, cleared on the next dispatch.
	closed bool

	// answered is signalled when the completion predicate holds for the
	// current question; the runner drains it before each dispatch.
	answered chan struct{}
	// finished unblocks the runner when the session ends out-of-band
	// (disconnects). Closed exactly once.
	finished   chan struct{}
	finishOnce sync.Once
}

func newSession(id int, cfg Config, creatorID int, questionIDs []int, cat *catalog.Catalog, notify Notifier, timing Timing) *Session {
	return &Session{
		ID:          id,
		Config:      cfg,
		catalog:     cat,
		notify:      notify,
		timing:      timing,
		creatorID:   creatorID,
		questionIDs: questionIDs,
		closed:      true,
		answered:    make(chan struct{}, 1),
		finished:    make(chan struct{}),
	}
}

// Status returns the current lifecycle status.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// CreatorID returns the client id of the current creator.
func (s *Session) CreatorID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creatorID
}

// PlayerCount returns the number of players currently in the session.
func (s *Session) PlayerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.players)
}

// PlayerNames returns the player names in join order.
func (s *Session) PlayerNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, len(s.players))
	for i, p := range s.players {
		names[i] = p.Pseudo
	}
	return names
}

func (s *Session) findPlayer(clientID int) *Player {
	for _, p := range s.players {
		if p.ClientID == clientID {
			return p
		}
	}
	return nil
}

// Player returns a snapshot of the player's state, or false when the client
// is not in the session.
func (s *Session) Player(clientID int) (Player, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.findPlayer(clientID)
	if p == nil {
		return Player{}, false
	}
	return *p, true
}

// Join adds a player. Only valid while waiting, below capacity, and when the
// client is not already in. Other players are notified.
func (s *Session) Join(clientID int, pseudo string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusWaiting {
		return ErrNotWaiting
	}
	if len(s.players) >= s.Config.MaxPlayers {
		return ErrSessionFull
	}
	if s.findPlayer(clientID) != nil {
		return ErrAlreadyJoined
	}

	s.players = append(s.players, &Player{
		ClientID: clientID,
		Pseudo:   pseudo,
		Lives:    s.Config.InitialLives,
		Answer:   -1,
	})
	slog.Info("player joined session",
		"session", s.ID, "pseudo", pseudo, "players", len(s.players), "max", s.Config.MaxPlayers)

	frame := playerJoinedFrame{
		Action:    ActionPlayerJoined,
		Pseudo:    pseudo,
		NbPlayers: len(s.players),
	}
	for _, p := range s.players[:len(s.players)-1] {
		s.notify.Send(p.ClientID, frame)
	}
	return nil
}

// Leave removes a player. The first remaining player inherits creatorship.
// With nobody left the session finishes silently; with one player left
// mid-game it ends with final results.
func (s *Session) Leave(clientID int) error {
	s.mu.Lock()

	idx := -1
	for i, p := range s.players {
		if p.ClientID == clientID {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return ErrNotInSession
	}

	pseudo := s.players[idx].Pseudo
	s.players = append(s.players[:idx], s.players[idx+1:]...)
	slog.Info("player left session", "session", s.ID, "pseudo", pseudo, "remaining", len(s.players))

	if clientID == s.creatorID && len(s.players) > 0 {
		s.creatorID = s.players[0].ClientID
		slog.Info("session creator reassigned", "session", s.ID, "pseudo", s.players[0].Pseudo)
	}

	frame := playerLeftFrame{Action: ActionPlayerLeft, Pseudo: pseudo, Reason: "disconnected"}
	for _, p := range s.players {
		s.notify.Send(p.ClientID, frame)
	}

	switch {
	case len(s.players) == 0:
		s.status = StatusFinished
		s.mu.Unlock()
		s.closeFinished()
	case len(s.players) <= 1 && s.status == StatusPlaying:
		s.mu.Unlock()
		s.end()
	default:
		// The leaver may have been the last pending answer.
		complete := s.status == StatusPlaying && !s.closed && s.allAnswered()
		s.mu.Unlock()
		if complete {
			s.signalComplete()
		}
	}
	return nil
}

// question returns the current question; nil when the cursor is out of
// range. Caller holds mu.
func (s *Session) question() *model.Question {
	if s.current < 0 || s.current >= len(s.questionIDs) {
		return nil
	}
	return s.catalog.Question(s.questionIDs[s.current])
}

// dispatchQuestion resets per-question player state, stamps the start time
// and sends question/new to every non-eliminated player. Returns false when
// the session is no longer playing.
func (s *Session) dispatchQuestion() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusPlaying {
		return false
	}
	q := s.question()
	if q == nil {
		return false
	}

	// Drop any stale completion signal from the previous question.
	select {
	case <-s.answered:
	default:
	}

	for _, p := range s.players {
		p.HasAnswered = false
		p.WasCorrect = false
		p.Answer = -1
		p.ResponseTime = 0
		p.SkippedThis = false
	}
	s.questionStart = time.Now()
	s.closed = false

	frame := questionFrame{
		Action:         ActionQuestionNew,
		QuestionNum:    s.current + 1,
		TotalQuestions: s.Config.NumQuestions,
		Type:           q.Kind.String(),
		Difficulty:     q.Difficulty.String(),
		Question:       q.Prompt,
		TimeLimit:      s.Config.TimeLimit,
	}
	if q.Kind == model.KindMultiChoice {
		frame.Answers = q.Options[:]
	}

	sent := 0
	for _, p := range s.players {
		if p.Eliminated {
			continue
		}
		s.notify.Send(p.ClientID, frame)
		sent++
	}
	slog.Info("question dispatched",
		"session", s.ID, "question", s.current+1, "total", s.Config.NumQuestions, "players", sent)
	return true
}

// Answer is a typed player answer; exactly one field is meaningful
// depending on the question kind.
type Answer struct {
	Index int
	Text  string
	Bool  bool
}

// ProcessAnswer records a player's answer for the current question. Answers
// from non-players, double answers, eliminated players and answers arriving
// after the question closed are ignored. The reported response time is
// clamped to the question deadline (timeLimit plus the grace) when the
// server-side elapsed time exceeds it.
func (s *Session) ProcessAnswer(clientID int, ans Answer, responseTime float64) {
	s.mu.Lock()

	if s.status != StatusPlaying || s.closed {
		s.mu.Unlock()
		return
	}
	p := s.findPlayer(clientID)
	if p == nil || p.HasAnswered || p.Eliminated {
		s.mu.Unlock()
		return
	}

	// The reported time is in wire seconds; the server-side bound scales by
	// timing.Second so shrunk test clocks keep the clamp reachable.
	bound := time.Duration(s.Config.TimeLimit)*s.timing.Second + s.timing.Grace
	if time.Since(s.questionStart) > bound {
		responseTime = float64(bound) / float64(s.timing.Second)
	}

	p.HasAnswered = true
	p.Answer = ans.Index
	p.ResponseTime = responseTime

	if q := s.question(); q != nil {
		var correct bool
		switch q.Kind {
		case model.KindFreeText:
			correct = catalog.CheckText(q, ans.Text)
		case model.KindBoolean:
			correct = catalog.CheckBoolean(q, ans.Bool)
			if ans.Bool {
				p.Answer = 1
			} else {
				p.Answer = 0
			}
		default:
			correct = catalog.CheckMultiChoice(q, ans.Index)
		}
		if correct {
			p.Score += catalog.Score(q.Difficulty, responseTime, s.Config.TimeLimit)
			p.CorrectAnswers++
		}
		p.WasCorrect = correct
	}

	complete := s.allAnswered()
	s.mu.Unlock()

	if complete {
		s.signalComplete()
	}
}

// allAnswered is the completion predicate: every non-eliminated player has
// answered the current question. Caller holds mu.
func (s *Session) allAnswered() bool {
	for _, p := range s.players {
		if !p.Eliminated && !p.HasAnswered {
			return false
		}
	}
	return true
}

func (s *Session) signalComplete() {
	select {
	case s.answered <- struct{}{}:
	default:
	}
}

// UseFifty consumes the 50/50 joker: two distinct wrong options of the
// current multi-choice question are picked at random and returned. Fails if
// the joker was already used, the player has answered, or the question is
// not multi-choice.
func (s *Session) UseFifty(clientID int) ([2]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed [2]int
	if s.closed {
		return removed, ErrJokerNotAllowed
	}
	p := s.findPlayer(clientID)
	if p == nil || p.FiftyUsed || p.HasAnswered {
		return removed, ErrJokerNotAllowed
	}
	q := s.question()
	if q == nil || q.Kind != model.KindMultiChoice {
		return removed, ErrJokerNotAllowed
	}

	p.FiftyUsed = true

	wrongs := make([]int, 0, 3)
	for i := range 4 {
		if i != q.Correct {
			wrongs = append(wrongs, i)
		}
	}
	rand.Shuffle(len(wrongs), func(i, j int) {
		wrongs[i], wrongs[j] = wrongs[j], wrongs[i]
	})
	removed[0], removed[1] = wrongs[0], wrongs[1]
	return removed, nil
}

// UseSkip consumes the skip joker: the player counts as answered with no
// score and is excluded from life loss this question. Completion is
// re-evaluated, so a skip by the last pending player closes the question.
func (s *Session) UseSkip(clientID int) error {
	s.mu.Lock()

	p := s.findPlayer(clientID)
	if p == nil || p.SkipUsed || p.HasAnswered || s.closed {
		s.mu.Unlock()
		return ErrJokerNotAllowed
	}

	p.SkipUsed = true
	p.HasAnswered = true
	p.SkippedThis = true
	p.Answer = -2

	complete := s.allAnswered()
	s.mu.Unlock()

	if complete {
		s.signalComplete()
	}
	return nil
}

// CurrentOptions returns the option strings of the current question except
// the removed indices. Used to build the fifty joker response.
func (s *Session) CurrentOptions(removed [2]int) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := s.question()
	if q == nil || q.Kind != model.KindMultiChoice {
		return nil
	}
	remaining := make([]string, 0, 2)
	for i, opt := range q.Options {
		if i != removed[0] && i != removed[1] {
			remaining = append(remaining, opt)
		}
	}
	return remaining
}

// emitResults applies battle-mode life accounting, broadcasts the results
// frame (and elimination frames) to every player, and reports whether the
// session should end now.
func (s *Session) emitResults() (done bool) {
	s.mu.Lock()

	q := s.question()
	if q == nil || s.status != StatusPlaying {
		s.mu.Unlock()
		return true
	}
	// Answers arriving after the deadline fired must not score against a
	// question whose results are about to say they did not answer.
	s.closed = true

	lastIdx := -1
	if s.Config.Mode == model.ModeBattle {
		// Wrong answers cost a life; skips and silence do not.
		maxResponse := 0.0
		for i, p := range s.players {
			if p.Eliminated || p.SkippedThis {
				continue
			}
			if p.HasAnswered && !p.WasCorrect {
				p.Lives--
				if p.Lives <= 0 {
					p.Lives = 0
					p.Eliminated = true
					p.EliminatedAt = s.current + 1
				}
			}
			if p.HasAnswered && p.ResponseTime > maxResponse {
				maxResponse = p.ResponseTime
				lastIdx = i
			}
		}

		// The slowest responder loses a life even when right.
		if lastIdx >= 0 {
			last := s.players[lastIdx]
			if !last.Eliminated && last.WasCorrect {
				last.Lives--
				if last.Lives <= 0 {
					last.Lives = 0
					last.Eliminated = true
					last.EliminatedAt = s.current + 1
				}
			}
		}
	}

	frame := resultsFrame{Action: ActionQuestionResults, Explanation: q.Explanation}
	if q.Kind == model.KindFreeText {
		frame.CorrectAnswer = q.TextAnswers[0]
	} else {
		frame.CorrectAnswer = q.Correct
	}
	if s.Config.Mode == model.ModeBattle && lastIdx >= 0 {
		frame.LastPlayer = s.players[lastIdx].Pseudo
	}

	for _, p := range s.players {
		answer := -1
		if p.HasAnswered {
			answer = p.Answer
		}
		points := 0
		if p.WasCorrect {
			points = catalog.Score(q.Difficulty, p.ResponseTime, s.Config.TimeLimit)
		}
		entry := playerResult{
			Pseudo:     p.Pseudo,
			Answer:     answer,
			Correct:    p.WasCorrect,
			Points:     points,
			TotalScore: p.Score,
		}
		if s.Config.Mode == model.ModeBattle {
			entry.ResponseTime = floatPtr(p.ResponseTime)
			entry.Lives = intPtr(p.Lives)
		}
		frame.Results = append(frame.Results, entry)
	}

	for _, p := range s.players {
		s.notify.Send(p.ClientID, frame)
	}

	if s.Config.Mode == model.ModeBattle {
		for _, p := range s.players {
			if p.Eliminated && p.EliminatedAt == s.current+1 {
				elim := playerEliminatedFrame{Action: ActionPlayerEliminated, Pseudo: p.Pseudo}
				for _, target := range s.players {
					s.notify.Send(target.ClientID, elim)
				}
			}
		}
	}

	alive := 0
	for _, p := range s.players {
		if !p.Eliminated {
			alive++
		}
	}
	lastQuestion := s.current+1 >= s.Config.NumQuestions
	s.mu.Unlock()

	return (s.Config.Mode == model.ModeBattle && alive <= 1) || lastQuestion
}

// advance moves the cursor to the next question.
func (s *Session) advance() {
	s.mu.Lock()
	s.current++
	s.mu.Unlock()
}

// end finishes the session: status flips to finished, the final ranking is
// broadcast, and every participating client's session binding is cleared.
func (s *Session) end() {
	s.mu.Lock()

	if s.status == StatusFinished {
		s.mu.Unlock()
		return
	}
	s.status = StatusFinished

	ranked := make([]*Player, len(s.players))
	copy(ranked, s.players)
	sortRanking(ranked, s.Config.Mode)

	frame := sessionFinishedFrame{
		Action: ActionSessionFinished,
		Mode:   s.Config.Mode.String(),
	}
	if s.Config.Mode == model.ModeBattle && len(ranked) > 0 {
		frame.Winner = ranked[0].Pseudo
	}
	for i, p := range ranked {
		entry := rankEntry{
			Rank:           i + 1,
			Pseudo:         p.Pseudo,
			Score:          p.Score,
			CorrectAnswers: p.CorrectAnswers,
		}
		if s.Config.Mode == model.ModeBattle {
			entry.Lives = intPtr(p.Lives)
			if p.Eliminated {
				entry.EliminatedAt = intPtr(p.EliminatedAt)
			}
		}
		frame.Ranking = append(frame.Ranking, entry)
	}

	for _, p := range s.players {
		s.notify.Send(p.ClientID, frame)
		s.notify.ClearSession(p.ClientID)
	}
	slog.Info("session finished", "session", s.ID, "players", len(s.players))

	s.mu.Unlock()
	s.closeFinished()
}

func (s *Session) closeFinished() {
	s.finishOnce.Do(func() { close(s.finished) })
}
