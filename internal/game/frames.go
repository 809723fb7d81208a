package game

// Server-initiated frame actions.
const (
	ActionPlayerJoined     = "session/player/joined"
	ActionPlayerLeft       = "session/player/left"
	ActionSessionStarted   = "session/started"
	ActionQuestionNew      = "question/new"
	ActionQuestionResults  = "question/results"
	ActionPlayerEliminated = "session/player/eliminated"
	ActionSessionFinished  = "session/finished"
)

// playerJoinedFrame notifies existing players of a newcomer.
type playerJoinedFrame struct {
	Action    string `json:"action"`
	Pseudo    string `json:"pseudo"`
	NbPlayers int    `json:"nbPlayers"`
}

// playerLeftFrame notifies remaining players of a departure.
type playerLeftFrame struct {
	Action string `json:"action"`
	Pseudo string `json:"pseudo"`
	Reason string `json:"reason"`
}

// sessionStartedFrame announces the pre-game countdown.
type sessionStartedFrame struct {
	Action    string `json:"action"`
	Message   string `json:"message"`
	Countdown int    `json:"countdown"`
}

// questionFrame carries one question to a player. Answers is present for
// multi-choice only.
type questionFrame struct {
	Action         string   `json:"action"`
	QuestionNum    int      `json:"questionNum"`
	TotalQuestions int      `json:"totalQuestions"`
	Type           string   `json:"type"`
	Difficulty     string   `json:"difficulty"`
	Question       string   `json:"question"`
	TimeLimit      int      `json:"timeLimit"`
	Answers        []string `json:"answers,omitempty"`
}

// playerResult is one per-player entry of a results frame. ResponseTime and
// Lives are battle-mode only, hence pointers: nil omits them, a pointer to
// zero still serializes.
type playerResult struct {
	Pseudo       string   `json:"pseudo"`
	Answer       int      `json:"answer"`
	Correct      bool     `json:"correct"`
	Points       int      `json:"points"`
	TotalScore   int      `json:"totalScore"`
	ResponseTime *float64 `json:"responseTime,omitempty"`
	Lives        *int     `json:"lives,omitempty"`
}

// resultsFrame is broadcast after a question closes. CorrectAnswer is the
// option index for multi-choice/boolean and the first accepted string for
// free text.
type resultsFrame struct {
	Action        string         `json:"action"`
	CorrectAnswer any            `json:"correctAnswer"`
	Explanation   string         `json:"explanation,omitempty"`
	LastPlayer    string         `json:"lastPlayer,omitempty"`
	Results       []playerResult `json:"results"`
}

// playerEliminatedFrame announces a fresh elimination (battle mode).
type playerEliminatedFrame struct {
	Action string `json:"action"`
	Pseudo string `json:"pseudo"`
}

// rankEntry is one row of the final ranking. Lives and EliminatedAt are
// battle-mode only; EliminatedAt only for players who went out.
type rankEntry struct {
	Rank           int    `json:"rank"`
	Pseudo         string `json:"pseudo"`
	Score          int    `json:"score"`
	CorrectAnswers int    `json:"correctAnswers"`
	Lives          *int   `json:"lives,omitempty"`
	EliminatedAt   *int   `json:"eliminatedAt,omitempty"`
}

// sessionFinishedFrame closes a session with the final ranking. Winner is
// battle-mode only.
type sessionFinishedFrame struct {
	Action  string      `json:"action"`
	Mode    string      `json:"mode"`
	Winner  string      `json:"winner,omitempty"`
	Ranking []rankEntry `json:"ranking"`
}

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }
