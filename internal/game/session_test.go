package game

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hactazia/quiznet/internal/catalog"
	"github.com/hactazia/quiznet/internal/model"
)

// recordingNotifier captures every frame per client and signals arrivals so
// tests can wait without sleeping.
type recordingNotifier struct {
	mu      sync.Mutex
	frames  map[int][]map[string]any
	cleared map[int]bool
	arrived chan struct{}
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{
		frames:  make(map[int][]map[string]any),
		cleared: make(map[int]bool),
		arrived: make(chan struct{}, 256),
	}
}

func (n *recordingNotifier) Send(clientID int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		panic(err)
	}
	var frame map[string]any
	if err := json.Unmarshal(data, &frame); err != nil {
		panic(err)
	}

	n.mu.Lock()
	n.frames[clientID] = append(n.frames[clientID], frame)
	n.mu.Unlock()
	n.arrived <- struct{}{}
}

func (n *recordingNotifier) ClearSession(clientID int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cleared[clientID] = true
}

// framesFor returns all frames sent to clientID with the given action.
func (n *recordingNotifier) framesFor(clientID int, action string) []map[string]any {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []map[string]any
	for _, f := range n.frames[clientID] {
		if f["action"] == action {
			out = append(out, f)
		}
	}
	return out
}

// waitFor blocks until clientID has received want frames with the given
// action, failing the test after two seconds.
func (n *recordingNotifier) waitFor(t *testing.T, clientID int, action string, want int) []map[string]any {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		if got := n.framesFor(clientID, action); len(got) >= want {
			return got
		}
		select {
		case <-n.arrived:
		case <-deadline:
			t.Fatalf("timed out waiting for %d %q frames for client %d (have %d)",
				want, action, clientID, len(n.framesFor(clientID, action)))
		}
	}
}

// testCatalog builds a catalog with enough easy multi-choice questions for a
// full session, correct answer always index 0.
func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	var b strings.Builder
	for i := 0; i < 12; i++ {
		fmt.Fprintf(&b, "general;facile;qcm;Question %d ?;a,b,c,d;0;because\n", i+1)
	}
	b.WriteString("truths;facile;boolean;Vrai ?;;1;\n")

	path := filepath.Join(t.TempDir(), "questions.dat")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	c, err := catalog.Load(path)
	require.NoError(t, err)
	return c
}

func fastTiming() Timing {
	return Timing{
		Countdown:    time.Millisecond,
		ResultsPause: time.Millisecond,
		Grace:        time.Second,
		Second:       time.Millisecond,
	}
}

func testManager(t *testing.T) (*Manager, *recordingNotifier) {
	t.Helper()
	notify := newRecordingNotifier()
	return NewManager(testCatalog(t), notify, fastTiming()), notify
}

func soloConfig() Config {
	return Config{
		Name:         "g",
		ThemeIDs:     []int{0},
		Difficulty:   model.DifficultyEasy,
		NumQuestions: 10,
		TimeLimit:    20,
		Mode:         model.ModeSolo,
		MaxPlayers:   4,
	}
}

func battleConfig(lives int) Config {
	cfg := soloConfig()
	cfg.Mode = model.ModeBattle
	cfg.InitialLives = lives
	return cfg
}

func TestManager_CreateValidation(t *testing.T) {
	m, _ := testManager(t)

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"too few questions", func(c *Config) { c.NumQuestions = 9 }},
		{"too many questions", func(c *Config) { c.NumQuestions = 51 }},
		{"time limit too low", func(c *Config) { c.TimeLimit = 9 }},
		{"time limit too high", func(c *Config) { c.TimeLimit = 61 }},
		{"max players too low", func(c *Config) { c.MaxPlayers = 1 }},
		{"max players too high", func(c *Config) { c.MaxPlayers = 11 }},
		{"no themes", func(c *Config) { c.ThemeIDs = nil }},
		{"battle lives too low", func(c *Config) { c.Mode = model.ModeBattle; c.InitialLives = 0 }},
		{"battle lives too high", func(c *Config) { c.Mode = model.ModeBattle; c.InitialLives = 11 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := soloConfig()
			tt.mutate(&cfg)
			_, err := m.Create(cfg, 1)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestManager_CreateSelectsQuestions(t *testing.T) {
	m, _ := testManager(t)

	s, err := m.Create(soloConfig(), 1)
	require.NoError(t, err)
	assert.Equal(t, StatusWaiting, s.Status())
	assert.Equal(t, 1, s.CreatorID())
	assert.Len(t, s.questionIDs, 10)

	// Not enough hard questions in the catalog.
	cfg := soloConfig()
	cfg.Difficulty = model.DifficultyHard
	_, err = m.Create(cfg, 1)
	assert.ErrorIs(t, err, catalog.ErrNotEnoughQuestions)
}

func TestSession_JoinRules(t *testing.T) {
	m, notify := testManager(t)

	cfg := soloConfig()
	cfg.MaxPlayers = 2
	s, err := m.Create(cfg, 1)
	require.NoError(t, err)

	require.NoError(t, s.Join(1, "alice"))
	assert.ErrorIs(t, s.Join(1, "alice"), ErrAlreadyJoined)
	require.NoError(t, s.Join(2, "bob"))
	assert.ErrorIs(t, s.Join(3, "carol"), ErrSessionFull)

	// Alice was notified about bob; bob got nothing.
	joined := notify.framesFor(1, ActionPlayerJoined)
	require.Len(t, joined, 1)
	assert.Equal(t, "bob", joined[0]["pseudo"])
	assert.Equal(t, float64(2), joined[0]["nbPlayers"])
	assert.Empty(t, notify.framesFor(2, ActionPlayerJoined))
}

func TestSession_LeaveReassignsCreator(t *testing.T) {
	m, notify := testManager(t)

	s, err := m.Create(soloConfig(), 1)
	require.NoError(t, err)
	require.NoError(t, s.Join(1, "alice"))
	require.NoError(t, s.Join(2, "bob"))
	require.NoError(t, s.Join(3, "carol"))

	require.NoError(t, s.Leave(1))
	assert.Equal(t, 2, s.CreatorID())
	assert.Equal(t, []string{"bob", "carol"}, s.PlayerNames())

	left := notify.framesFor(2, ActionPlayerLeft)
	require.Len(t, left, 1)
	assert.Equal(t, "alice", left[0]["pseudo"])
	assert.Equal(t, "disconnected", left[0]["reason"])

	assert.ErrorIs(t, s.Leave(99), ErrNotInSession)
}

func TestSession_LastLeaveFinishesSilently(t *testing.T) {
	m, notify := testManager(t)

	s, err := m.Create(soloConfig(), 1)
	require.NoError(t, err)
	require.NoError(t, s.Join(1, "alice"))
	require.NoError(t, s.Leave(1))

	assert.Equal(t, StatusFinished, s.Status())
	assert.Empty(t, notify.framesFor(1, ActionSessionFinished))
}

func TestManager_StartRequiresTwoPlayers(t *testing.T) {
	m, _ := testManager(t)

	s, err := m.Create(soloConfig(), 1)
	require.NoError(t, err)
	require.NoError(t, s.Join(1, "alice"))

	assert.ErrorIs(t, m.Start(context.Background(), s), ErrNotEnoughReady)
	assert.Equal(t, StatusWaiting, s.Status())
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}

func startedSoloSession(t *testing.T) (*Manager, *recordingNotifier, *Session) {
	t.Helper()
	m, notify := testManager(t)

	s, err := m.Create(soloConfig(), 1)
	require.NoError(t, err)
	require.NoError(t, s.Join(1, "alice"))
	require.NoError(t, s.Join(2, "bob"))
	require.NoError(t, m.Start(testContext(t), s))

	for _, id := range []int{1, 2} {
		started := notify.waitFor(t, id, ActionSessionStarted, 1)
		assert.Equal(t, float64(3), started[0]["countdown"])
	}
	return m, notify, s
}

func TestSession_FullSoloGame(t *testing.T) {
	_, notify, s := startedSoloSession(t)

	for qn := 1; qn <= 10; qn++ {
		for _, id := range []int{1, 2} {
			frames := notify.waitFor(t, id, ActionQuestionNew, qn)
			frame := frames[qn-1]
			assert.Equal(t, float64(qn), frame["questionNum"])
			assert.Equal(t, float64(10), frame["totalQuestions"])
			assert.Equal(t, "qcm", frame["type"])
			assert.Equal(t, "facile", frame["difficulty"])
			assert.Equal(t, float64(20), frame["timeLimit"])
			assert.Len(t, frame["answers"], 4)
		}

		// Alice answers fast and right, bob slow and wrong.
		s.ProcessAnswer(1, Answer{Index: 0}, 2)
		s.ProcessAnswer(2, Answer{Index: 3}, 15)

		results := notify.waitFor(t, 2, ActionQuestionResults, qn)
		frame := results[qn-1]
		assert.Equal(t, float64(0), frame["correctAnswer"])
		assert.Equal(t, "because", frame["explanation"])

		entries := frame["results"].([]any)
		require.Len(t, entries, 2)
		alice := entries[0].(map[string]any)
		assert.Equal(t, "alice", alice["pseudo"])
		assert.Equal(t, true, alice["correct"])
		assert.Equal(t, float64(6), alice["points"]) // 5 base + 1 fast bonus
		bob := entries[1].(map[string]any)
		assert.Equal(t, false, bob["correct"])
		assert.Equal(t, float64(0), bob["points"])
		// Solo results carry no lives or response times.
		_, hasLives := alice["lives"]
		assert.False(t, hasLives)
	}

	finished := notify.waitFor(t, 1, ActionSessionFinished, 1)
	frame := finished[0]
	assert.Equal(t, "solo", frame["mode"])
	_, hasWinner := frame["winner"]
	assert.False(t, hasWinner)

	ranking := frame["ranking"].([]any)
	require.Len(t, ranking, 2)
	first := ranking[0].(map[string]any)
	assert.Equal(t, "alice", first["pseudo"])
	assert.Equal(t, float64(1), first["rank"])
	assert.Equal(t, float64(60), first["score"])
	assert.Equal(t, float64(10), first["correctAnswers"])

	assert.Equal(t, StatusFinished, s.Status())
	notify.mu.Lock()
	assert.True(t, notify.cleared[1])
	assert.True(t, notify.cleared[2])
	notify.mu.Unlock()
}

func TestSession_AnswerIgnoredWhenInvalid(t *testing.T) {
	_, notify, s := startedSoloSession(t)
	notify.waitFor(t, 1, ActionQuestionNew, 1)

	// Unknown client and double answers are ignored.
	s.ProcessAnswer(99, Answer{Index: 0}, 1)
	s.ProcessAnswer(1, Answer{Index: 0}, 1)
	s.ProcessAnswer(1, Answer{Index: 3}, 1)

	p, ok := s.Player(1)
	require.True(t, ok)
	assert.Equal(t, 0, p.Answer)
	assert.True(t, p.WasCorrect)
	assert.Equal(t, 6, p.Score)
}

func TestSession_DeadlineForcesResults(t *testing.T) {
	_, notify, s := startedSoloSession(t)
	notify.waitFor(t, 1, ActionQuestionNew, 1)

	// Only alice answers; the deadline closes the question for bob.
	s.ProcessAnswer(1, Answer{Index: 0}, 2)

	results := notify.waitFor(t, 1, ActionQuestionResults, 1)
	entries := results[0]["results"].([]any)
	bob := entries[1].(map[string]any)
	assert.Equal(t, float64(-1), bob["answer"])
	assert.Equal(t, false, bob["correct"])
}

func TestSession_LateAnswerAfterResultsIgnored(t *testing.T) {
	notify := newRecordingNotifier()
	// Short grace so the deadline fires quickly; long results pause so the
	// late answer lands while the question is between results and advance.
	timing := Timing{
		Countdown:    time.Millisecond,
		ResultsPause: 250 * time.Millisecond,
		Grace:        20 * time.Millisecond,
		Second:       time.Millisecond,
	}
	m := NewManager(testCatalog(t), notify, timing)

	s, err := m.Create(soloConfig(), 1)
	require.NoError(t, err)
	require.NoError(t, s.Join(1, "alice"))
	require.NoError(t, s.Join(2, "bob"))
	require.NoError(t, m.Start(testContext(t), s))

	// Nobody answers; the deadline closes question 1.
	results := notify.waitFor(t, 2, ActionQuestionResults, 1)
	entries := results[0]["results"].([]any)
	bob := entries[1].(map[string]any)
	require.Equal(t, float64(-1), bob["answer"])
	require.Equal(t, float64(0), bob["points"])

	// A correct answer during the results pause must not score.
	s.ProcessAnswer(2, Answer{Index: 0}, 1)

	p, ok := s.Player(2)
	require.True(t, ok)
	assert.Zero(t, p.Score)
	assert.Zero(t, p.CorrectAnswers)
	assert.False(t, p.HasAnswered)

	// Jokers are rejected on a closed question and stay unused.
	_, err = s.UseFifty(2)
	assert.ErrorIs(t, err, ErrJokerNotAllowed)
	assert.ErrorIs(t, s.UseSkip(2), ErrJokerNotAllowed)
	p, _ = s.Player(2)
	assert.False(t, p.FiftyUsed)
	assert.False(t, p.SkipUsed)
}

func TestProcessAnswer_ClampsOverrunResponseTime(t *testing.T) {
	notify := newRecordingNotifier()
	timing := Timing{
		Countdown:    time.Millisecond,
		ResultsPause: time.Millisecond,
		Grace:        10 * time.Millisecond,
		Second:       time.Millisecond,
	}
	m := NewManager(testCatalog(t), notify, timing)

	s, err := m.Create(soloConfig(), 1)
	require.NoError(t, err)
	require.NoError(t, s.Join(1, "alice"))
	require.NoError(t, s.Join(2, "bob"))

	// Drive the question directly, without the runner, so the answer can
	// arrive after the deadline but before results.
	s.mu.Lock()
	s.status = StatusPlaying
	s.current = 0
	s.mu.Unlock()
	require.True(t, s.dispatchQuestion())

	// Sleep past timeLimit plus grace (20ms + 10ms).
	time.Sleep(40 * time.Millisecond)
	s.ProcessAnswer(1, Answer{Index: 0}, 2)

	p, ok := s.Player(1)
	require.True(t, ok)
	assert.InDelta(t, 30, p.ResponseTime, 0.001)
	assert.True(t, p.WasCorrect)
	assert.Equal(t, 5, p.Score, "clamped time is past the bonus window")
}

func TestSession_LeaveCompletesQuestion(t *testing.T) {
	notify := newRecordingNotifier()
	// Deadline far beyond the waitFor timeout: results can only come from
	// the completion signal raised by the departure.
	timing := Timing{
		Countdown:    time.Millisecond,
		ResultsPause: time.Millisecond,
		Grace:        10 * time.Second,
		Second:       time.Millisecond,
	}
	m := NewManager(testCatalog(t), notify, timing)

	s, err := m.Create(soloConfig(), 1)
	require.NoError(t, err)
	require.NoError(t, s.Join(1, "alice"))
	require.NoError(t, s.Join(2, "bob"))
	require.NoError(t, s.Join(3, "carol"))
	require.NoError(t, m.Start(testContext(t), s))
	notify.waitFor(t, 1, ActionQuestionNew, 1)

	s.ProcessAnswer(1, Answer{Index: 0}, 2)
	s.ProcessAnswer(2, Answer{Index: 0}, 3)

	// Carol was the last pending answer; her departure closes the question.
	require.NoError(t, s.Leave(3))

	results := notify.waitFor(t, 1, ActionQuestionResults, 1)
	entries := results[0]["results"].([]any)
	assert.Len(t, entries, 2)
}

func TestSession_BattleElimination(t *testing.T) {
	m, notify := testManager(t)

	s, err := m.Create(battleConfig(1), 1)
	require.NoError(t, err)
	require.NoError(t, s.Join(1, "alice"))
	require.NoError(t, s.Join(2, "bob"))
	require.NoError(t, m.Start(testContext(t), s))
	notify.waitFor(t, 1, ActionQuestionNew, 1)

	// Both answer wrong with one life each: double elimination, game over.
	s.ProcessAnswer(1, Answer{Index: 1}, 2)
	s.ProcessAnswer(2, Answer{Index: 2}, 5)

	results := notify.waitFor(t, 1, ActionQuestionResults, 1)
	entries := results[0]["results"].([]any)
	for _, e := range entries {
		entry := e.(map[string]any)
		assert.Equal(t, float64(0), entry["lives"])
	}

	elims := notify.waitFor(t, 1, ActionPlayerEliminated, 2)
	names := []string{elims[0]["pseudo"].(string), elims[1]["pseudo"].(string)}
	assert.ElementsMatch(t, []string{"alice", "bob"}, names)

	finished := notify.waitFor(t, 1, ActionSessionFinished, 1)
	frame := finished[0]
	assert.Equal(t, "battle", frame["mode"])
	assert.NotEmpty(t, frame["winner"])

	ranking := frame["ranking"].([]any)
	require.Len(t, ranking, 2)
	first := ranking[0].(map[string]any)
	assert.Equal(t, float64(0), first["lives"])
	assert.Equal(t, float64(1), first["eliminatedAt"])
}

func TestSession_BattleSlowestCorrectLosesLife(t *testing.T) {
	m, notify := testManager(t)

	s, err := m.Create(battleConfig(3), 1)
	require.NoError(t, err)
	require.NoError(t, s.Join(1, "alice"))
	require.NoError(t, s.Join(2, "bob"))
	require.NoError(t, m.Start(testContext(t), s))
	notify.waitFor(t, 1, ActionQuestionNew, 1)

	// Both correct; bob is slower and pays the slowpoke penalty.
	s.ProcessAnswer(1, Answer{Index: 0}, 2)
	s.ProcessAnswer(2, Answer{Index: 0}, 10)

	results := notify.waitFor(t, 1, ActionQuestionResults, 1)
	frame := results[0]
	assert.Equal(t, "bob", frame["lastPlayer"])

	entries := frame["results"].([]any)
	alice := entries[0].(map[string]any)
	bob := entries[1].(map[string]any)
	assert.Equal(t, float64(3), alice["lives"])
	assert.Equal(t, float64(2), bob["lives"])
	assert.Equal(t, true, bob["correct"])
}

func TestSession_BattleRankingOrder(t *testing.T) {
	players := []*Player{
		{Pseudo: "out-early", Lives: 0, EliminatedAt: 2, Score: 30},
		{Pseudo: "alive-low", Lives: 1, Score: 10},
		{Pseudo: "out-late", Lives: 0, EliminatedAt: 5, Score: 20},
		{Pseudo: "alive-high", Lives: 1, Score: 50},
	}
	sortRanking(players, model.ModeBattle)

	got := []string{players[0].Pseudo, players[1].Pseudo, players[2].Pseudo, players[3].Pseudo}
	assert.Equal(t, []string{"alive-high", "alive-low", "out-late", "out-early"}, got)
}

func TestSession_JokerFifty(t *testing.T) {
	_, notify, s := startedSoloSession(t)
	notify.waitFor(t, 1, ActionQuestionNew, 1)

	removed, err := s.UseFifty(1)
	require.NoError(t, err)
	assert.NotEqual(t, removed[0], removed[1])
	for _, idx := range removed {
		assert.NotEqual(t, 0, idx, "correct option must never be removed")
		assert.GreaterOrEqual(t, idx, 1)
		assert.LessOrEqual(t, idx, 3)
	}

	remaining := s.CurrentOptions(removed)
	assert.Len(t, remaining, 2)
	assert.Contains(t, remaining, "a") // option of the correct index

	// Single use per session.
	_, err = s.UseFifty(1)
	assert.ErrorIs(t, err, ErrJokerNotAllowed)
}

func TestSession_JokerFiftyRejectedAfterAnswer(t *testing.T) {
	_, notify, s := startedSoloSession(t)
	notify.waitFor(t, 1, ActionQuestionNew, 1)

	s.ProcessAnswer(1, Answer{Index: 0}, 1)
	_, err := s.UseFifty(1)
	assert.ErrorIs(t, err, ErrJokerNotAllowed)
}

func TestSession_JokerSkipCompletesQuestion(t *testing.T) {
	_, notify, s := startedSoloSession(t)
	notify.waitFor(t, 1, ActionQuestionNew, 1)

	s.ProcessAnswer(1, Answer{Index: 0}, 1)
	require.NoError(t, s.UseSkip(2))

	// Skip completed the question: results arrive without a deadline.
	results := notify.waitFor(t, 2, ActionQuestionResults, 1)
	entries := results[0]["results"].([]any)
	bob := entries[1].(map[string]any)
	assert.Equal(t, float64(-2), bob["answer"])
	assert.Equal(t, float64(0), bob["points"])

	// Single use.
	notify.waitFor(t, 2, ActionQuestionNew, 2)
	assert.ErrorIs(t, s.UseSkip(2), ErrJokerNotAllowed)
}

func TestSession_BattleSkipExemptFromLifeLoss(t *testing.T) {
	m, notify := testManager(t)

	s, err := m.Create(battleConfig(2), 1)
	require.NoError(t, err)
	require.NoError(t, s.Join(1, "alice"))
	require.NoError(t, s.Join(2, "bob"))
	require.NoError(t, m.Start(testContext(t), s))
	notify.waitFor(t, 1, ActionQuestionNew, 1)

	s.ProcessAnswer(1, Answer{Index: 0}, 2)
	require.NoError(t, s.UseSkip(2))

	results := notify.waitFor(t, 1, ActionQuestionResults, 1)
	entries := results[0]["results"].([]any)
	bob := entries[1].(map[string]any)
	assert.Equal(t, float64(2), bob["lives"], "skipping player keeps all lives")
}

func TestSession_LeaveDuringPlayEndsWithResults(t *testing.T) {
	_, notify, s := startedSoloSession(t)
	notify.waitFor(t, 1, ActionQuestionNew, 1)

	require.NoError(t, s.Leave(2))

	assert.Equal(t, StatusFinished, s.Status())
	finished := notify.waitFor(t, 1, ActionSessionFinished, 1)
	ranking := finished[0]["ranking"].([]any)
	assert.Len(t, ranking, 1)
}

func TestManager_ListWaiting(t *testing.T) {
	m, _ := testManager(t)

	s1, err := m.Create(soloConfig(), 1)
	require.NoError(t, err)
	require.NoError(t, s1.Join(1, "alice"))

	cfg := battleConfig(3)
	cfg.Name = "arena"
	s2, err := m.Create(cfg, 2)
	require.NoError(t, err)
	require.NoError(t, s2.Join(2, "bob"))

	list := m.ListWaiting()
	require.Len(t, list, 2)
	assert.Equal(t, s1.ID, list[0].ID)
	assert.Equal(t, "g", list[0].Name)
	assert.Equal(t, []string{"general"}, list[0].ThemeNames)
	assert.Equal(t, "facile", list[0].Difficulty)
	assert.Equal(t, 1, list[0].NbPlayers)
	assert.Equal(t, "waiting", list[0].Status)
	assert.Equal(t, "battle", list[1].Mode)

	// Finished sessions disappear from the list.
	require.NoError(t, s1.Leave(1))
	list = m.ListWaiting()
	require.Len(t, list, 1)
	assert.Equal(t, "arena", list[0].Name)
}

func TestManager_SessionCapacityAndSlotReuse(t *testing.T) {
	m, _ := testManager(t)

	sessions := make([]*Session, 0, model.MaxSessions)
	for i := 0; i < model.MaxSessions; i++ {
		s, err := m.Create(soloConfig(), i)
		require.NoError(t, err)
		sessions = append(sessions, s)
	}

	_, err := m.Create(soloConfig(), 99)
	assert.ErrorIs(t, err, ErrTooManySessions)

	// Finishing one session frees a slot.
	require.NoError(t, sessions[0].Join(1, "alice"))
	require.NoError(t, sessions[0].Leave(1))
	s, err := m.Create(soloConfig(), 99)
	require.NoError(t, err)
	assert.Nil(t, m.Find(sessions[0].ID), "finished session purged")
	assert.NotNil(t, m.Find(s.ID))
}
