package lesson

import (
	"strings"

	"gorm.io/datatypes"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// ParseDifficulty is case-insensitive; anything unknown is medium.
func ParseDifficulty(raw string) Difficulty {
	switch Difficulty(strings.ToLower(strings.TrimSpace(raw))) {
	case DifficultyEasy:
		return DifficultyEasy
	case DifficultyHard:
		return DifficultyHard
	default:
		return DifficultyMedium
	}
}

// OptionCount is the number of labeled options every question carries.
const OptionCount = 4

type QuizQuestion struct {
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	Answer      string   `json:"answer"`
	Explanation string   `json:"explanation"`
}

// HasAnswer reports whether Answer is one of Options verbatim.
func (q QuizQuestion) HasAnswer() bool {
	for _, o := range q.Options {
		if o == q.Answer {
			return true
		}
	}
	return false
}

// Quiz is stored as a JSON column.
type Quiz = datatypes.JSONSlice[QuizQuestion]
