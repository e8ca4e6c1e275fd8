package repository

import (
	"context"

	"fileshare/internal/model"
)

// UserRepository defines data access for users using SQL queries only.
type UserRepository interface {
	// Create inserts a user and returns the stored record including its ID.
	// Returns ErrDuplicate when the username is taken.
	Create(ctx context.Context, u *model.User) (*model.User, error)

	// FindByUsername returns the user with the exact (case-sensitive) username.
	FindByUsername(ctx context.Context, username string) (*model.User, error)

	// FindByID returns a user by its ID.
	FindByID(ctx context.Context, id int64) (*model.User, error)
}
