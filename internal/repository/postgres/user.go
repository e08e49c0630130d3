package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/miskar/quizdeck/internal/domain"
)

// uniqueViolation is the PostgreSQL error code for a unique constraint hit.
const uniqueViolation = "23505"

// UserRepository implements domain.UserRepository
type UserRepository struct {
	pool   *pgxpool.Pool
	hasher domain.PasswordHasher
}

// NewUserRepository creates a new user repository
func NewUserRepository(pool *pgxpool.Pool, hasher domain.PasswordHasher) *UserRepository {
	return &UserRepository{pool: pool, hasher: hasher}
}

// CreateUser stores a new account. Hashing is delegated to the password
// capability; a duplicate username maps to domain.ErrUsernameTaken.
func (r *UserRepository) CreateUser(ctx context.Context, username, password string, isAdmin bool) error {
	hash, err := r.hasher.Hash(password)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO users (username, password_hash, is_admin)
		VALUES ($1, $2, $3)
	`, username, hash, isAdmin)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrUsernameTaken
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// Authenticate resolves credentials to a user. Unknown username and wrong
// password both return (nil, nil); only infrastructure failures are errors.
func (r *UserRepository) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	user := &domain.User{}
	err := r.pool.QueryRow(ctx, `
		SELECT id, username, password_hash, is_admin
		FROM users
		WHERE username = $1
	`, username).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.IsAdmin,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if !r.hasher.Verify(user.PasswordHash, password) {
		return nil, nil
	}

	return user, nil
}

// SaveScore appends one completed-session score row.
func (r *UserRepository) SaveScore(ctx context.Context, rec domain.ScoreRecord) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO scores (user_id, score, total, category_id, difficulty)
		VALUES ($1, $2, $3, $4, $5)
	`, rec.UserID, rec.Score, rec.Total, rec.CategoryID, rec.Difficulty)
	if err != nil {
		return fmt.Errorf("failed to save score: %w", err)
	}
	return nil
}
