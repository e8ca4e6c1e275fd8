package relational

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fileshare/internal/model"
	"fileshare/internal/repository"
)

var userCols = []string{"id", "username", "hashed_password", "is_admin", "created_at"}

func TestUserRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewUserRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()
	u := &model.User{Username: "alice", PasswordHash: "$2a$hash", CreatedAt: now}

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO users").
			WithArgs("alice", "$2a$hash", false, now).
			WillReturnRows(sqlmock.NewRows(userCols).AddRow(1, "alice", "$2a$hash", false, now))

		got, err := repo.Create(ctx, u)

		require.NoError(t, err)
		assert.Equal(t, int64(1), got.ID)
		assert.Equal(t, "alice", got.Username)
		assert.False(t, got.IsAdmin)
	})

	t.Run("duplicate username", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO users").
			WithArgs("alice", "$2a$hash", false, now).
			WillReturnError(&pgconn.PgError{Code: "23505"})

		got, err := repo.Create(ctx, u)

		assert.ErrorIs(t, err, repository.ErrDuplicate)
		assert.Nil(t, got)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_FindByUsername(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewUserRepository(db)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM users WHERE username = ").
			WithArgs("alice").
			WillReturnRows(sqlmock.NewRows(userCols).AddRow(7, "alice", "h", true, time.Now()))

		u, err := repo.FindByUsername(ctx, "alice")

		require.NoError(t, err)
		assert.Equal(t, int64(7), u.ID)
		assert.True(t, u.IsAdmin)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM users WHERE username = ").
			WithArgs("Alice").
			WillReturnError(sql.ErrNoRows)

		u, err := repo.FindByUsername(ctx, "Alice")

		assert.ErrorIs(t, err, sql.ErrNoRows)
		assert.Nil(t, u)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_FindByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewUserRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM users WHERE id = ").
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(3, "bob", "h", false, time.Now()))

	u, err := repo.FindByID(context.Background(), 3)

	require.NoError(t, err)
	assert.Equal(t, "bob", u.Username)
	assert.NoError(t, mock.ExpectationsWereMet())
}
