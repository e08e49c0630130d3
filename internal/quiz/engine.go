// Package quiz drives a single player's run through a shuffled question
// set: presentation order, scoring, and exactly-once score persistence.
package quiz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"

	"github.com/miskar/quizdeck/internal/domain"
)

var (
	ErrAlreadyStarted = errors.New("session already started")
	ErrNotInProgress  = errors.New("session is not in progress")
	ErrNoQuestions    = errors.New("no questions match the selected filter")
	ErrInvalidOption  = errors.New("selected option index out of range")
	ErrLoadFailed     = errors.New("failed to load questions")
)

// State is the lifecycle position of a session.
type State int

const (
	StateNotStarted State = iota
	StateLoading
	StateInProgress
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateLoading:
		return "loading"
	case StateInProgress:
		return "in_progress"
	case StateCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// Fetcher supplies the question set for a session.
type Fetcher interface {
	FetchForPlayer(ctx context.Context, filter domain.QuestionFilter) ([]domain.Question, error)
}

// Recorder persists a completed session's score.
type Recorder interface {
	Save(ctx context.Context, rec domain.ScoreRecord) error
}

// Progress is the result of one submitted answer. Next is captured in the
// same critical section as the grading, so it always matches Index.
type Progress struct {
	Correct bool
	Score   int
	Index   int // next question index; equals Total when done
	Total   int
	Done    bool
	Next    *domain.Question // nil when done
}

// Engine is one player's quiz session. It is transient: nothing about it is
// persisted until completion, and an abandoned engine is simply discarded.
// A session has exactly one player, but that player's client can race its
// own requests, so every state transition runs under the engine's mutex.
type Engine struct {
	userID   int
	filter   domain.QuestionFilter
	fetcher  Fetcher
	recorder Recorder
	log      *slog.Logger

	mu        sync.Mutex
	state     State
	questions []domain.Question
	current   int
	score     int
}

// NewEngine creates a session for one user with an optional filter.
func NewEngine(userID int, filter domain.QuestionFilter, fetcher Fetcher, recorder Recorder, log *slog.Logger) *Engine {
	return &Engine{
		userID:   userID,
		filter:   filter,
		fetcher:  fetcher,
		recorder: recorder,
		log:      log,
		state:    StateNotStarted,
	}
}

// Start fetches the question set and shuffles it. An empty result completes
// the session immediately with ErrNoQuestions; a fetch failure completes it
// with the wrapped load error. Each session's order is independently random.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateNotStarted {
		return ErrAlreadyStarted
	}
	e.state = StateLoading

	questions, err := e.fetcher.FetchForPlayer(ctx, e.filter)
	if err != nil {
		e.state = StateCompleted
		return fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	if len(questions) == 0 {
		e.state = StateCompleted
		return ErrNoQuestions
	}

	rand.Shuffle(len(questions), func(i, j int) {
		questions[i], questions[j] = questions[j], questions[i]
	})

	e.questions = questions
	e.current = 0
	e.score = 0
	e.state = StateInProgress
	return nil
}

// State returns the session's lifecycle position.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Current returns the question at the session's position along with its
// 0-based index and the session total.
func (e *Engine) Current() (*domain.Question, int, int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateInProgress {
		return nil, 0, 0, ErrNotInProgress
	}
	return &e.questions[e.current], e.current, len(e.questions), nil
}

// Score returns the running score.
func (e *Engine) Score() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.score
}

// SubmitAnswer grades the selected option against the current question and
// advances. Grading and advancing are one operation under the mutex, so a
// question can never be graded twice: of two racing submissions the second
// either grades the next question or gets ErrNotInProgress. After the last
// answer the session completes and the score is persisted exactly once; a
// persist failure is logged and does not change the player-visible outcome.
func (e *Engine) SubmitAnswer(ctx context.Context, optionIndex int) (Progress, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateInProgress {
		return Progress{}, ErrNotInProgress
	}
	q := e.questions[e.current]
	if optionIndex < 0 || optionIndex >= len(q.Options) {
		return Progress{}, ErrInvalidOption
	}

	correct := q.Options[optionIndex].IsCorrect
	if correct {
		e.score++
	}
	e.current++

	total := len(e.questions)
	if e.current == total {
		e.state = StateCompleted
		e.persistResult(ctx)
	}

	prog := Progress{
		Correct: correct,
		Score:   e.score,
		Index:   e.current,
		Total:   total,
		Done:    e.state == StateCompleted,
	}
	if !prog.Done {
		prog.Next = &e.questions[e.current]
	}
	return prog, nil
}

// persistResult fires the single downstream save for a normally completed
// session. Failure here is non-fatal: the score is still reported.
func (e *Engine) persistResult(ctx context.Context) {
	rec := domain.ScoreRecord{
		UserID:     e.userID,
		Score:      e.score,
		Total:      len(e.questions),
		CategoryID: e.filter.CategoryID,
		Difficulty: e.filter.Difficulty,
	}
	if err := e.recorder.Save(ctx, rec); err != nil {
		e.log.Error("failed to save score",
			"user_id", e.userID,
			"score", e.score,
			"total", rec.Total,
			"error", err,
		)
	}
}
