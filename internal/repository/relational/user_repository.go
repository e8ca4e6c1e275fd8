package relational

import (
	"context"
	"database/sql"

	"fileshare/internal/model"
	"fileshare/internal/repository"
)

// UserRepository is a database/sql implementation of repository.UserRepository.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

var _ repository.UserRepository = (*UserRepository)(nil)

const userColumns = `id, username, hashed_password, is_admin, created_at`

// Create inserts a new user row and returns the stored record.
func (r *UserRepository) Create(ctx context.Context, u *model.User) (*model.User, error) {
	const q = `
		INSERT INTO users (username, hashed_password, is_admin, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + userColumns
	row := r.db.QueryRowContext(ctx, q, u.Username, u.PasswordHash, u.IsAdmin, u.CreatedAt)
	out, err := scanUser(row)
	if err != nil {
		return nil, translateInsertErr(err)
	}
	return out, nil
}

// FindByUsername fetches a single user by exact username.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	return scanUser(r.db.QueryRowContext(ctx, q, username))
}

// FindByID fetches a single user by ID.
func (r *UserRepository) FindByID(ctx context.Context, id int64) (*model.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, q, id))
}

func scanUser(row *sql.Row) (*model.User, error) {
	var u model.User
	if err := row.Scan(
		&u.ID,
		&u.Username,
		&u.PasswordHash,
		&u.IsAdmin,
		&u.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &u, nil
}
