package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/miskar/quizdeck/internal/domain"
)

// QuestionHandler exposes the admin question-bank API
type QuestionHandler struct {
	repo domain.QuestionRepository
}

// NewQuestionHandler creates a new question handler
func NewQuestionHandler(repo domain.QuestionRepository) *QuestionHandler {
	return &QuestionHandler{repo: repo}
}

// OptionPayload is one answer choice in a question payload.
type OptionPayload struct {
	Text      string `json:"text" validate:"required"`
	IsCorrect bool   `json:"is_correct"`
}

// QuestionPayload is the request body for creating or updating a question.
type QuestionPayload struct {
	Text       string          `json:"text" validate:"required"`
	Options    []OptionPayload `json:"options" validate:"required,len=4,dive"`
	Category   string          `json:"category" validate:"required"`
	Difficulty string          `json:"difficulty" validate:"required,oneof=easy medium hard"`
}

func (p QuestionPayload) toInput() domain.QuestionInput {
	in := domain.QuestionInput{
		Text:       p.Text,
		Category:   p.Category,
		Difficulty: p.Difficulty,
	}
	for _, opt := range p.Options {
		in.Options = append(in.Options, domain.Option{Text: opt.Text, IsCorrect: opt.IsCorrect})
	}
	return in
}

// ListCategories returns all categories for the editor dropdowns.
func (h *QuestionHandler) ListCategories(c echo.Context) error {
	categories, err := h.repo.ListCategories(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to list categories"})
	}
	return c.JSON(http.StatusOK, categories)
}

// ListQuestions returns the admin table rows.
func (h *QuestionHandler) ListQuestions(c echo.Context) error {
	questions, err := h.repo.ListQuestions(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to list questions"})
	}
	return c.JSON(http.StatusOK, questions)
}

// GetQuestion returns one question's metadata and options for the editor.
func (h *QuestionHandler) GetQuestion(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid question id"})
	}

	ctx := c.Request().Context()
	meta, err := h.repo.GetQuestionMeta(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrQuestionNotFound) {
			return c.JSON(http.StatusNotFound, ErrorResponse{Error: "Question not found"})
		}
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to get question"})
	}

	options, err := h.repo.GetOptions(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to get options"})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"question": meta,
		"options":  options,
	})
}

// CreateQuestion adds a question with its four options.
func (h *QuestionHandler) CreateQuestion(c echo.Context) error {
	var payload QuestionPayload
	if err := c.Bind(&payload); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
	}
	if err := c.Validate(&payload); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}

	id, err := h.repo.AddQuestion(c.Request().Context(), payload.toInput())
	if err != nil {
		return h.writeQuestionError(c, err)
	}

	return c.JSON(http.StatusCreated, map[string]int{"id": id})
}

// UpdateQuestion replaces a question and its options.
func (h *QuestionHandler) UpdateQuestion(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid question id"})
	}

	var payload QuestionPayload
	if err := c.Bind(&payload); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
	}
	if err := c.Validate(&payload); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}

	if err := h.repo.UpdateQuestion(c.Request().Context(), id, payload.toInput()); err != nil {
		return h.writeQuestionError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// DeleteQuestion removes a question and, through the cascade, its options.
func (h *QuestionHandler) DeleteQuestion(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid question id"})
	}

	if err := h.repo.DeleteQuestion(c.Request().Context(), id); err != nil {
		if errors.Is(err, domain.ErrQuestionNotFound) {
			return c.JSON(http.StatusNotFound, ErrorResponse{Error: "Question not found"})
		}
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to delete question"})
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *QuestionHandler) writeQuestionError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidQuestion):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrUnknownCategory):
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrQuestionNotFound):
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "Question not found"})
	default:
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to save question"})
	}
}
