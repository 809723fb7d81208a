// Package model holds the core quiz domain types shared across the server:
// question kinds, difficulties, game modes, themes, questions and accounts.
package model

import "strings"

// Capacity limits, matching the historical server so existing data files and
// clients keep working.
const (
	MaxClients           = 100
	MaxSessions          = 20
	MaxPlayersPerSession = 10
	MaxQuestions         = 200
	MaxThemes            = 20
	MaxNameLen           = 32
)

// Difficulty of a question. Wire strings are the historical French ones.
type Difficulty int

const (
	DifficultyEasy Difficulty = iota
	DifficultyMedium
	DifficultyHard
)

// String returns the wire representation of the difficulty.
func (d Difficulty) String() string {
	switch d {
	case DifficultyEasy:
		return "facile"
	case DifficultyHard:
		return "difficile"
	default:
		return "moyen"
	}
}

// ParseDifficulty accepts both the French wire strings and their English
// aliases, case-insensitively. Anything unknown maps to medium.
func ParseDifficulty(s string) Difficulty {
	switch {
	case strings.EqualFold(s, "facile"), strings.EqualFold(s, "easy"):
		return DifficultyEasy
	case strings.EqualFold(s, "difficile"), strings.EqualFold(s, "hard"):
		return DifficultyHard
	default:
		return DifficultyMedium
	}
}

// Mode of a game session.
type Mode int

const (
	ModeSolo Mode = iota
	ModeBattle
)

func (m Mode) String() string {
	if m == ModeBattle {
		return "battle"
	}
	return "solo"
}

// ParseMode maps "battle" to battle mode, everything else to solo.
func ParseMode(s string) Mode {
	if strings.EqualFold(s, "battle") {
		return ModeBattle
	}
	return ModeSolo
}

// QuestionKind is the answer format of a question.
type QuestionKind int

const (
	KindMultiChoice QuestionKind = iota // 4 options, one correct index
	KindBoolean                         // true/false
	KindFreeText                        // free text, matched against accepted answers
)

func (k QuestionKind) String() string {
	switch k {
	case KindBoolean:
		return "boolean"
	case KindFreeText:
		return "text"
	default:
		return "qcm"
	}
}

// ParseKind maps catalog kind strings to QuestionKind. Unknown strings fall
// back to free text, as the historical loader did.
func ParseKind(s string) QuestionKind {
	switch s {
	case "qcm":
		return KindMultiChoice
	case "boolean":
		return KindBoolean
	default:
		return KindFreeText
	}
}

// Theme is a question category. Ids are dense, assigned in first-seen order
// during catalog load.
type Theme struct {
	ID   int
	Name string
}

// Question is an immutable catalog entry.
type Question struct {
	ID          int
	ThemeIDs    []int
	Difficulty  Difficulty
	Kind        QuestionKind
	Prompt      string
	Options     [4]string // multi-choice only
	Correct     int       // option index for qcm, 0/1 for boolean
	TextAnswers []string  // free text only, up to 4 accepted strings
	Explanation string
}

// HasTheme reports whether the question belongs to any of the given themes.
func (q *Question) HasTheme(themeIDs []int) bool {
	for _, want := range themeIDs {
		for _, have := range q.ThemeIDs {
			if have == want {
				return true
			}
		}
	}
	return false
}

// Account is a persistent player account. The digest format is fixed by the
// on-disk accounts file; see package account.
type Account struct {
	Name     string
	Digest   string
	LoggedIn bool // runtime only, never persisted
}
