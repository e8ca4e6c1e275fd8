package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"fileshare/internal/model"
	"fileshare/internal/repository"
)

// PasswordHasher hashes and checks passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(plain, stored string) bool
}

// TokenSigner issues access tokens.
type TokenSigner interface {
	Issue(username string) (string, time.Time, error)
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *model.User
}

// AuthService defines account use cases.
type AuthService interface {
	// Register creates a regular (non-admin) account.
	Register(ctx context.Context, username, password string) (*model.User, error)

	// Login checks credentials and issues an access token.
	Login(ctx context.Context, username, password string) (*LoginResult, error)

	// CreateAdmin creates an administrator account. It is not reachable over HTTP.
	CreateAdmin(ctx context.Context, username, password string) (*model.User, error)
}

type authService struct {
	users  repository.UserRepository
	hasher PasswordHasher
	tokens TokenSigner
	// dummyHash is compared against when the user does not exist so the
	// response time does not reveal which usernames are registered.
	dummyHash string
}

// NewAuthService returns an AuthService backed by users, hashing passwords with hasher.
func NewAuthService(users repository.UserRepository, hasher PasswordHasher, tokens TokenSigner) (AuthService, error) {
	dummy, err := hasher.Hash("fileshare-timing-equalizer")
	if err != nil {
		return nil, err
	}
	return &authService{users: users, hasher: hasher, tokens: tokens, dummyHash: dummy}, nil
}

func (s *authService) Register(ctx context.Context, username, password string) (*model.User, error) {
	return s.create(ctx, username, password, false)
}

func (s *authService) CreateAdmin(ctx context.Context, username, password string) (*model.User, error) {
	return s.create(ctx, username, password, true)
}

func (s *authService) create(ctx context.Context, username, password string, admin bool) (*model.User, error) {
	if err := validateCredentials(username, password); err != nil {
		return nil, err
	}

	_, err := s.users.FindByUsername(ctx, username)
	switch {
	case err == nil:
		return nil, ErrUsernameTaken
	case !errors.Is(err, sql.ErrNoRows):
		return nil, &PersistenceError{Op: "find user", Err: err}
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	u, err := s.users.Create(ctx, &model.User{
		Username:     username,
		PasswordHash: hash,
		IsAdmin:      admin,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUsernameTaken
		}
		return nil, &PersistenceError{Op: "create user", Err: err}
	}
	return u, nil
}

func (s *authService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	u, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.hasher.Verify(password, s.dummyHash)
			return nil, ErrInvalidCredentials
		}
		return nil, &PersistenceError{Op: "find user", Err: err}
	}
	if !s.hasher.Verify(password, u.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	token, exp, err := s.tokens.Issue(u.Username)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return &LoginResult{Token: token, ExpiresAt: exp, User: u}, nil
}
