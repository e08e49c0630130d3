package service

import (
	"context"

	"github.com/miskar/quizdeck/internal/domain"
	"github.com/miskar/quizdeck/internal/session"
)

// UserService handles registration and login
type UserService struct {
	users  domain.UserRepository
	tokens *session.TokenStore
}

// NewUserService creates a new user service
func NewUserService(users domain.UserRepository, tokens *session.TokenStore) *UserService {
	return &UserService{
		users:  users,
		tokens: tokens,
	}
}

// RegisterRequest represents a user registration request
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=32"`
	Password string `json:"password" validate:"required,min=8"`
}

// Register creates a new player account. Admin accounts are provisioned
// out of band, never through this endpoint.
func (s *UserService) Register(ctx context.Context, req RegisterRequest) error {
	return s.users.CreateUser(ctx, req.Username, req.Password, false)
}

// LoginRequest represents a user login request
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Login authenticates a user and issues a session token. Unknown username
// and wrong password are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, req LoginRequest) (string, *domain.User, error) {
	user, err := s.users.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		return "", nil, err
	}
	if user == nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Create(ctx, *user)
	if err != nil {
		return "", nil, err
	}

	return token, user, nil
}

// Logout revokes a session token.
func (s *UserService) Logout(ctx context.Context, token string) error {
	return s.tokens.Delete(ctx, token)
}

// ResolveToken returns the user behind a bearer token.
func (s *UserService) ResolveToken(ctx context.Context, token string) (*domain.User, error) {
	return s.tokens.Resolve(ctx, token)
}
