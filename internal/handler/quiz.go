package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/miskar/quizdeck/internal/domain"
	"github.com/miskar/quizdeck/internal/quiz"
	"github.com/miskar/quizdeck/internal/service"
)

// QuizHandler exposes the player quiz-session API
type QuizHandler struct {
	quizService *service.QuizService
}

// NewQuizHandler creates a new quiz handler
func NewQuizHandler(quizService *service.QuizService) *QuizHandler {
	return &QuizHandler{quizService: quizService}
}

// StartSessionRequest selects the optional category/difficulty filter.
type StartSessionRequest struct {
	CategoryID *int    `json:"category_id"`
	Difficulty *string `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
}

// AnswerRequest carries the player's selected option. The pointer
// distinguishes "picked option 0" from "picked nothing".
type AnswerRequest struct {
	OptionIndex *int `json:"option_index"`
}

// StartSession begins a quiz run and returns the first question.
func (h *QuizHandler) StartSession(c echo.Context) error {
	var req StartSessionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}

	user := currentUser(c)
	filter := domain.QuestionFilter{CategoryID: req.CategoryID, Difficulty: req.Difficulty}

	id, first, err := h.quizService.StartSession(c.Request().Context(), user.ID, filter)
	if err != nil {
		switch {
		case errors.Is(err, quiz.ErrNoQuestions):
			return c.JSON(http.StatusNotFound, ErrorResponse{Error: "No questions found for the selected filter"})
		case errors.Is(err, quiz.ErrLoadFailed):
			return c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "Failed to load questions"})
		default:
			return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to start quiz"})
		}
	}

	return c.JSON(http.StatusCreated, map[string]any{
		"session_id": id,
		"question":   first,
	})
}

// CurrentQuestion returns the question the session is waiting on.
func (h *QuizHandler) CurrentQuestion(c echo.Context) error {
	user := currentUser(c)
	view, err := h.quizService.CurrentQuestion(c.Request().Context(), user.ID, c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			return c.JSON(http.StatusNotFound, ErrorResponse{Error: "Session not found"})
		}
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to get question"})
	}
	return c.JSON(http.StatusOK, view)
}

// SubmitAnswer grades one answer and advances the session.
func (h *QuizHandler) SubmitAnswer(c echo.Context) error {
	var req AnswerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
	}

	user := currentUser(c)
	res, err := h.quizService.SubmitAnswer(c.Request().Context(), user.ID, c.Param("id"), req.OptionIndex)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoSelection):
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Please select an answer"})
		case errors.Is(err, quiz.ErrInvalidOption):
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Selected option does not exist"})
		case errors.Is(err, service.ErrSessionNotFound):
			return c.JSON(http.StatusNotFound, ErrorResponse{Error: "Session not found"})
		case errors.Is(err, quiz.ErrNotInProgress):
			return c.JSON(http.StatusConflict, ErrorResponse{Error: "Session is not in progress"})
		default:
			return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to submit answer"})
		}
	}

	return c.JSON(http.StatusOK, res)
}

// AbandonSession discards an in-progress session.
func (h *QuizHandler) AbandonSession(c echo.Context) error {
	user := currentUser(c)
	h.quizService.Abandon(user.ID, c.Param("id"))
	return c.NoContent(http.StatusNoContent)
}
