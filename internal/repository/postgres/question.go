package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/miskar/quizdeck/internal/domain"
)

// QuestionRepository implements the domain.QuestionRepository interface
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new question repository
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{
		pool: pool,
	}
}

// ListCategories retrieves all categories ordered by name
func (r *QuestionRepository) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name
		FROM categories
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []domain.Category
	for rows.Next() {
		var cat domain.Category
		if err := rows.Scan(&cat.ID, &cat.Name); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, cat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	return categories, nil
}

// ListQuestions retrieves every question with its category name and
// difficulty for the admin table, ordered by id ascending.
func (r *QuestionRepository) ListQuestions(ctx context.Context) ([]domain.QuestionSummary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT q.id, q.question_text, COALESCE(c.name, 'N/A'), COALESCE(q.difficulty, 'N/A')
		FROM questions q
		LEFT JOIN categories c ON q.category_id = c.id
		ORDER BY q.id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	defer rows.Close()

	var questions []domain.QuestionSummary
	for rows.Next() {
		var q domain.QuestionSummary
		if err := rows.Scan(&q.ID, &q.Text, &q.Category, &q.Difficulty); err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating questions: %w", err)
	}

	return questions, nil
}

// GetQuestionMeta retrieves a single question's metadata without options
func (r *QuestionRepository) GetQuestionMeta(ctx context.Context, id int) (*domain.QuestionSummary, error) {
	var q domain.QuestionSummary
	err := r.pool.QueryRow(ctx, `
		SELECT q.id, q.question_text, COALESCE(c.name, 'N/A'), COALESCE(q.difficulty, 'N/A')
		FROM questions q
		LEFT JOIN categories c ON q.category_id = c.id
		WHERE q.id = $1
	`, id).Scan(&q.ID, &q.Text, &q.Category, &q.Difficulty)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrQuestionNotFound
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	return &q, nil
}

// GetOptions retrieves a question's options in insertion order. The admin
// editor round-trips on this order, so it must be stable.
func (r *QuestionRepository) GetOptions(ctx context.Context, questionID int) ([]domain.Option, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT option_text, is_correct
		FROM options
		WHERE question_id = $1
		ORDER BY id
	`, questionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get options: %w", err)
	}
	defer rows.Close()

	var options []domain.Option
	for rows.Next() {
		var opt domain.Option
		if err := rows.Scan(&opt.Text, &opt.IsCorrect); err != nil {
			return nil, fmt.Errorf("failed to scan option: %w", err)
		}
		options = append(options, opt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating options: %w", err)
	}

	return options, nil
}

// FetchForPlayer retrieves questions with their options in a single joined
// query: one round trip regardless of how many questions match.
func (r *QuestionRepository) FetchForPlayer(ctx context.Context, filter domain.QuestionFilter) ([]domain.Question, error) {
	query := strings.Builder{}
	query.WriteString(`
		SELECT q.id, q.question_text, q.category_id, COALESCE(q.difficulty, ''), o.option_text, o.is_correct
		FROM questions q
		JOIN options o ON o.question_id = q.id
	`)

	var (
		conds []string
		args  []any
	)
	if filter.CategoryID != nil {
		args = append(args, *filter.CategoryID)
		conds = append(conds, fmt.Sprintf("q.category_id = $%d", len(args)))
	}
	if filter.Difficulty != nil && strings.TrimSpace(*filter.Difficulty) != "" {
		args = append(args, *filter.Difficulty)
		conds = append(conds, fmt.Sprintf("q.difficulty = $%d", len(args)))
	}
	if len(conds) > 0 {
		query.WriteString(" WHERE " + strings.Join(conds, " AND "))
	}
	// Row order drives the question/option grouping below.
	query.WriteString(" ORDER BY q.id, o.id")

	rows, err := r.pool.Query(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch questions: %w", err)
	}
	defer rows.Close()

	var (
		questions []domain.Question
		byID      = make(map[int]int) // question id -> index in questions
	)
	for rows.Next() {
		var (
			id         int
			text       string
			categoryID *int
			difficulty string
			opt        domain.Option
		)
		if err := rows.Scan(&id, &text, &categoryID, &difficulty, &opt.Text, &opt.IsCorrect); err != nil {
			return nil, fmt.Errorf("failed to scan question row: %w", err)
		}
		idx, ok := byID[id]
		if !ok {
			questions = append(questions, domain.Question{
				ID:         id,
				Text:       text,
				CategoryID: categoryID,
				Difficulty: difficulty,
			})
			idx = len(questions) - 1
			byID[id] = idx
		}
		questions[idx].Options = append(questions[idx].Options, opt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating question rows: %w", err)
	}

	return questions, nil
}

// AddQuestion inserts a question and its four options in one transaction.
// Any failure rolls back the whole write; no partial question survives.
func (r *QuestionRepository) AddQuestion(ctx context.Context, in domain.QuestionInput) (int, error) {
	if err := in.Validate(); err != nil {
		return 0, err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	categoryID, err := categoryIDByName(ctx, tx, in.Category)
	if err != nil {
		return 0, err
	}

	var id int
	err = tx.QueryRow(ctx, `
		INSERT INTO questions (question_text, category_id, difficulty)
		VALUES ($1, $2, $3)
		RETURNING id
	`, in.Text, categoryID, in.Difficulty).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert question: %w", err)
	}

	if err := insertOptions(ctx, tx, id, in.Options); err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return id, nil
}

// UpdateQuestion replaces the question row and rewrites all four options in
// one transaction: update question, delete old options, insert new ones.
func (r *QuestionRepository) UpdateQuestion(ctx context.Context, id int, in domain.QuestionInput) error {
	if err := in.Validate(); err != nil {
		return err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	categoryID, err := categoryIDByName(ctx, tx, in.Category)
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `
		UPDATE questions
		SET question_text = $1, category_id = $2, difficulty = $3
		WHERE id = $4
	`, in.Text, categoryID, in.Difficulty, id)
	if err != nil {
		return fmt.Errorf("failed to update question: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuestionNotFound
	}

	if _, err := tx.Exec(ctx, `DELETE FROM options WHERE question_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete old options: %w", err)
	}

	if err := insertOptions(ctx, tx, id, in.Options); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// DeleteQuestion deletes a question. Its options are removed by the
// ON DELETE CASCADE constraint on options.question_id.
func (r *QuestionRepository) DeleteQuestion(ctx context.Context, id int) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM questions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete question: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuestionNotFound
	}
	return nil
}

// categoryIDByName resolves a category name inside the caller's transaction.
func categoryIDByName(ctx context.Context, tx pgx.Tx, name string) (int, error) {
	var id int
	err := tx.QueryRow(ctx, `SELECT id FROM categories WHERE name = $1`, name).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("%w: %s", domain.ErrUnknownCategory, name)
		}
		return 0, fmt.Errorf("failed to resolve category: %w", err)
	}
	return id, nil
}

func insertOptions(ctx context.Context, tx pgx.Tx, questionID int, options []domain.Option) error {
	for _, opt := range options {
		_, err := tx.Exec(ctx, `
			INSERT INTO options (question_id, option_text, is_correct)
			VALUES ($1, $2, $3)
		`, questionID, opt.Text, opt.IsCorrect)
		if err != nil {
			return fmt.Errorf("failed to insert option: %w", err)
		}
	}
	return nil
}
