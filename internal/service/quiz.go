package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/miskar/quizdeck/internal/domain"
	"github.com/miskar/quizdeck/internal/quiz"
	"github.com/miskar/quizdeck/internal/session"
)

var (
	ErrSessionNotFound = errors.New("quiz session not found")
	ErrNoSelection     = errors.New("no option selected")
)

// QuestionView is a question as shown to the player: option correctness
// flags are stripped before anything leaves the service.
type QuestionView struct {
	Index   int      `json:"index"`
	Total   int      `json:"total"`
	Text    string   `json:"text"`
	Options []string `json:"options"`
}

// AnswerResult is the outcome of one submitted answer.
type AnswerResult struct {
	Correct bool          `json:"correct"`
	Score   int           `json:"score"`
	Done    bool          `json:"done"`
	Total   int           `json:"total"`
	Next    *QuestionView `json:"next,omitempty"`
}

// QuizService runs quiz sessions on behalf of the presentation layer.
type QuizService struct {
	questions domain.QuestionRepository
	recorder  *quiz.ResultRecorder
	registry  *session.Registry
	log       *slog.Logger
}

// NewQuizService creates a new quiz service
func NewQuizService(questions domain.QuestionRepository, recorder *quiz.ResultRecorder, registry *session.Registry, log *slog.Logger) *QuizService {
	return &QuizService{
		questions: questions,
		recorder:  recorder,
		registry:  registry,
		log:       log,
	}
}

// StartSession begins a quiz for a user and returns the session id and the
// first question. ErrNoQuestions surfaces when the filter matches nothing;
// that session is never registered.
func (s *QuizService) StartSession(ctx context.Context, userID int, filter domain.QuestionFilter) (string, *QuestionView, error) {
	eng := quiz.NewEngine(userID, filter, s.questions, s.recorder, s.log)
	if err := eng.Start(ctx); err != nil {
		return "", nil, err
	}

	id := s.registry.Put(userID, eng)
	view, err := currentView(eng)
	if err != nil {
		s.registry.Delete(id)
		return "", nil, err
	}
	return id, view, nil
}

// CurrentQuestion returns the question the session is waiting on.
func (s *QuizService) CurrentQuestion(ctx context.Context, userID int, sessionID string) (*QuestionView, error) {
	eng, ok := s.registry.Get(sessionID, userID)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return currentView(eng)
}

// SubmitAnswer grades one answer. A nil option index means the caller sent
// no selection at all, which is rejected before reaching the engine. When
// the session completes its registry entry is dropped.
func (s *QuizService) SubmitAnswer(ctx context.Context, userID int, sessionID string, optionIndex *int) (*AnswerResult, error) {
	if optionIndex == nil {
		return nil, ErrNoSelection
	}
	eng, ok := s.registry.Get(sessionID, userID)
	if !ok {
		return nil, ErrSessionNotFound
	}

	prog, err := eng.SubmitAnswer(ctx, *optionIndex)
	if err != nil {
		return nil, err
	}

	res := &AnswerResult{
		Correct: prog.Correct,
		Score:   prog.Score,
		Done:    prog.Done,
		Total:   prog.Total,
	}
	if prog.Done {
		s.registry.Delete(sessionID)
		return res, nil
	}

	res.Next = newQuestionView(prog.Next, prog.Index, prog.Total)
	return res, nil
}

// Abandon discards an in-progress session without persisting anything.
func (s *QuizService) Abandon(userID int, sessionID string) {
	if _, ok := s.registry.Get(sessionID, userID); ok {
		s.registry.Delete(sessionID)
	}
}

func currentView(eng *quiz.Engine) (*QuestionView, error) {
	q, idx, total, err := eng.Current()
	if err != nil {
		return nil, err
	}
	return newQuestionView(q, idx, total), nil
}

func newQuestionView(q *domain.Question, idx, total int) *QuestionView {
	view := &QuestionView{
		Index: idx,
		Total: total,
		Text:  q.Text,
	}
	for _, opt := range q.Options {
		view.Options = append(view.Options, opt.Text)
	}
	return view
}
