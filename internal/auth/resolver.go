package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fileshare/internal/model"
	"fileshare/internal/repository"
)

var (
	// ErrAnonymous means no credential was presented.
	ErrAnonymous = errors.New("no credentials presented")
	// ErrUserNotFound means the token was valid but names no stored user.
	ErrUserNotFound = errors.New("token subject not found")
)

// TokenVerifier is the verification half of TokenIssuer.
type TokenVerifier interface {
	Verify(token string) (*Claims, error)
}

// Resolver turns a presented token into the stored user it names.
type Resolver struct {
	tokens TokenVerifier
	users  repository.UserRepository
}

// NewResolver returns a Resolver that verifies bearer tokens and loads the user they name.
func NewResolver(tokens TokenVerifier, users repository.UserRepository) *Resolver {
	return &Resolver{tokens: tokens, users: users}
}

// Resolve returns ErrAnonymous for an empty token, an ErrInvalidToken match
// for a rejected token and ErrUserNotFound when the username is unknown.
func (r *Resolver) Resolve(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, ErrAnonymous
	}
	claims, err := r.tokens.Verify(token)
	if err != nil {
		return nil, err
	}
	u, err := r.users.FindByUsername(ctx, claims.Username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("lookup token subject: %w", err)
	}
	return u, nil
}
