package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Common errors
var (
	ErrQuestionNotFound = errors.New("question not found")
	ErrUnknownCategory  = errors.New("unknown category")
	ErrInvalidQuestion  = errors.New("invalid question")
)

// OptionCount is the number of options every persisted question carries.
const OptionCount = 4

// Difficulty levels accepted for a question.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// ValidDifficulty reports whether s is one of the accepted difficulty levels.
func ValidDifficulty(s string) bool {
	switch s {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Option is a single answer choice, owned by its parent question.
type Option struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

// Question represents a question with its answer options.
type Question struct {
	ID         int      `json:"id"`
	Text       string   `json:"text"`
	CategoryID *int     `json:"category_id,omitempty"`
	Difficulty string   `json:"difficulty,omitempty"`
	Options    []Option `json:"options"`
}

// QuestionSummary is the admin-listing row: category and difficulty are
// rendered as "N/A" when the underlying columns are null.
type QuestionSummary struct {
	ID         int    `json:"id"`
	Text       string `json:"text"`
	Category   string `json:"category"`
	Difficulty string `json:"difficulty"`
}

// Category groups questions for filtering.
type Category struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// QuestionFilter narrows which questions are eligible for a quiz session.
// Nil fields apply no constraint; both set means both must match.
type QuestionFilter struct {
	CategoryID *int
	Difficulty *string
}

// QuestionInput is the payload for creating or replacing a question.
type QuestionInput struct {
	Text       string
	Options    []Option
	Category   string
	Difficulty string
}

// Validate checks the invariants enforced at the repository boundary:
// non-empty trimmed texts, exactly four options, exactly one of them
// marked correct, and a known difficulty level.
func (in QuestionInput) Validate() error {
	if strings.TrimSpace(in.Text) == "" {
		return fmt.Errorf("%w: question text is empty", ErrInvalidQuestion)
	}
	if len(in.Options) != OptionCount {
		return fmt.Errorf("%w: a question requires exactly %d options", ErrInvalidQuestion, OptionCount)
	}
	correct := 0
	for _, opt := range in.Options {
		if strings.TrimSpace(opt.Text) == "" {
			return fmt.Errorf("%w: option text is empty", ErrInvalidQuestion)
		}
		if opt.IsCorrect {
			correct++
		}
	}
	if correct != 1 {
		return fmt.Errorf("%w: exactly one option must be marked correct", ErrInvalidQuestion)
	}
	if !ValidDifficulty(in.Difficulty) {
		return fmt.Errorf("%w: difficulty must be easy, medium or hard", ErrInvalidQuestion)
	}
	return nil
}

// QuestionRepository defines the interface for question-bank operations
type QuestionRepository interface {
	// ListCategories retrieves all categories ordered by name
	ListCategories(ctx context.Context) ([]Category, error)

	// ListQuestions retrieves all questions with their metadata, ordered by id
	ListQuestions(ctx context.Context) ([]QuestionSummary, error)

	// GetQuestionMeta retrieves a single question's metadata, options excluded
	GetQuestionMeta(ctx context.Context, id int) (*QuestionSummary, error)

	// GetOptions retrieves a question's options in insertion order
	GetOptions(ctx context.Context, questionID int) ([]Option, error)

	// FetchForPlayer retrieves questions with options populated, in a single query
	FetchForPlayer(ctx context.Context, filter QuestionFilter) ([]Question, error)

	// AddQuestion inserts a question and its four options atomically
	AddQuestion(ctx context.Context, in QuestionInput) (int, error)

	// UpdateQuestion replaces a question and its options atomically
	UpdateQuestion(ctx context.Context, id int, in QuestionInput) error

	// DeleteQuestion removes a question; its options go with it
	DeleteQuestion(ctx context.Context, id int) error
}
