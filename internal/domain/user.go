package domain

import (
	"context"
	"errors"
)

// Common errors
var (
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// User represents a registered account. Authentication resolves one of
// these; the rest of the core only cares about ID and IsAdmin.
type User struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"` // Never expose password hash
	IsAdmin      bool   `json:"is_admin"`
}

// ScoreRecord is one completed quiz run. Append-only: written once at
// session completion, never updated or deleted.
type ScoreRecord struct {
	UserID     int     `json:"user_id"`
	Score      int     `json:"score"`
	Total      int     `json:"total"`
	CategoryID *int    `json:"category_id,omitempty"`
	Difficulty *string `json:"difficulty,omitempty"`
}

// PasswordHasher is the credential-hashing capability. The repository
// delegates to it and never sees the hashing algorithm.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hash, password string) bool
}

// UserRepository defines the interface for user and score operations
type UserRepository interface {
	// CreateUser stores a new account with a hashed password
	CreateUser(ctx context.Context, username, password string, isAdmin bool) error

	// Authenticate resolves credentials to a user. Unknown username and
	// wrong password both yield (nil, nil); only infrastructure failures
	// surface as errors.
	Authenticate(ctx context.Context, username, password string) (*User, error)

	ScoreWriter
}

// ScoreWriter persists completed-session scores.
type ScoreWriter interface {
	SaveScore(ctx context.Context, rec ScoreRecord) error
}
