// Package catalog loads the question catalog and implements question
// selection, answer checking and scoring.
//
// The catalog file is line-based, one question per line:
//
//	themes;difficulty;kind;prompt;options;correct;explanation
//
// themes and options are comma-separated, blank lines and lines starting
// with '#' are skipped. Theme ids are assigned densely in first-seen order,
// question ids densely from 1 in file order.
package catalog

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"strconv"
	"strings"

	"github.com/hactazia/quiznet/internal/model"
)

// ErrNotEnoughQuestions is returned by Select when fewer questions match the
// requested difficulty and themes than the session needs.
var ErrNotEnoughQuestions = errors.New("catalog: not enough matching questions")

// Catalog is the immutable set of themes and questions loaded at startup.
type Catalog struct {
	themes    []model.Theme
	questions []*model.Question
	byID      map[int]*model.Question
}

// Load parses the catalog file at path. It fails on unreadable files; the
// server treats that as a startup error.
func Load(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening questions file %s: %w", path, err)
	}
	defer f.Close()

	c := &Catalog{byID: make(map[int]*model.Question)}

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 4096), 64*1024)
	lineNum := 0
	nextID := 1
	for sc.Scan() && len(c.questions) < model.MaxQuestions {
		lineNum++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		q, err := c.parseLine(line, nextID)
		if err != nil {
			slog.Warn("skipping question line", "line", lineNum, "err", err)
			continue
		}
		nextID++
		c.questions = append(c.questions, q)
		c.byID[q.ID] = q
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading questions file %s: %w", path, err)
	}

	slog.Info("question catalog loaded",
		"questions", len(c.questions), "themes", len(c.themes), "path", path)
	return c, nil
}

func (c *Catalog) parseLine(line string, id int) (*model.Question, error) {
	fields := strings.Split(line, ";")
	if len(fields) < 6 {
		return nil, fmt.Errorf("expected at least 6 fields, got %d", len(fields))
	}

	q := &model.Question{ID: id}

	for _, name := range strings.Split(fields[0], ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		themeID, err := c.themeID(name)
		if err != nil {
			slog.Warn("theme capacity reached", "theme", name)
			continue
		}
		q.ThemeIDs = append(q.ThemeIDs, themeID)
	}

	q.Difficulty = model.ParseDifficulty(fields[1])
	q.Kind = model.ParseKind(fields[2])
	q.Prompt = fields[3]

	if q.Kind == model.KindMultiChoice {
		opts := strings.Split(fields[4], ",")
		if len(opts) != 4 {
			return nil, fmt.Errorf("multi-choice needs 4 options, got %d", len(opts))
		}
		copy(q.Options[:], opts)
	}

	if q.Kind == model.KindFreeText {
		for _, ans := range strings.Split(fields[5], ",") {
			if ans == "" || len(q.TextAnswers) == 4 {
				continue
			}
			q.TextAnswers = append(q.TextAnswers, ans)
		}
		if len(q.TextAnswers) == 0 {
			return nil, errors.New("free-text question without accepted answers")
		}
	} else {
		correct, err := strconv.Atoi(strings.TrimSpace(fields[5]))
		if err != nil {
			return nil, fmt.Errorf("parsing correct index: %w", err)
		}
		if q.Kind == model.KindMultiChoice && (correct < 0 || correct > 3) {
			return nil, fmt.Errorf("correct index %d out of range", correct)
		}
		q.Correct = correct
	}

	if len(fields) > 6 {
		q.Explanation = fields[6]
	}
	return q, nil
}

// themeID returns the id for a theme name, registering it if new.
func (c *Catalog) themeID(name string) (int, error) {
	for _, t := range c.themes {
		if t.Name == name {
			return t.ID, nil
		}
	}
	if len(c.themes) >= model.MaxThemes {
		return 0, errors.New("catalog: theme capacity reached")
	}
	id := len(c.themes)
	c.themes = append(c.themes, model.Theme{ID: id, Name: name})
	return id, nil
}

// Themes returns all registered themes in id order.
func (c *Catalog) Themes() []model.Theme {
	return c.themes
}

// ThemeName returns the display name for a theme id, or "" if unknown.
func (c *Catalog) ThemeName(id int) string {
	if id < 0 || id >= len(c.themes) {
		return ""
	}
	return c.themes[id].Name
}

// Question returns the question with the given catalog id.
func (c *Catalog) Question(id int) *model.Question {
	return c.byID[id]
}

// Len returns the number of loaded questions.
func (c *Catalog) Len() int {
	return len(c.questions)
}

// Select draws n distinct question ids matching the difficulty whose theme
// set intersects themeIDs. The matching pool is shuffled so every session
// gets a fresh order.
func (c *Catalog) Select(themeIDs []int, difficulty model.Difficulty, n int) ([]int, error) {
	var pool []int
	for _, q := range c.questions {
		if q.Difficulty != difficulty || !q.HasTheme(themeIDs) {
			continue
		}
		pool = append(pool, q.ID)
	}
	if len(pool) < n {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrNotEnoughQuestions, len(pool), n)
	}

	rand.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})
	return pool[:n], nil
}

// CheckMultiChoice reports whether the chosen option index is correct.
func CheckMultiChoice(q *model.Question, index int) bool {
	return index == q.Correct
}

// CheckBoolean reports whether the boolean answer is correct.
func CheckBoolean(q *model.Question, answer bool) bool {
	return answer == (q.Correct == 1)
}

// CheckText reports whether text matches any accepted answer, ignoring case
// and accents.
func CheckText(q *model.Question, text string) bool {
	for _, accepted := range q.TextAnswers {
		if Equals(text, accepted) {
			return true
		}
	}
	return false
}

// Score returns the points for a correct answer: a per-difficulty base, plus
// a bonus when the answer arrived within the first half of the time limit.
func Score(d model.Difficulty, responseTime float64, timeLimit int) int {
	var base, bonus int
	switch d {
	case model.DifficultyEasy:
		base, bonus = 5, 1
	case model.DifficultyMedium:
		base, bonus = 10, 3
	case model.DifficultyHard:
		base, bonus = 15, 6
	}
	if responseTime <= float64(timeLimit)/2 {
		return base + bonus
	}
	return base
}
