package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"fileshare/internal/auth"
	"fileshare/internal/model"
	"fileshare/internal/repository"
	repoMocks "fileshare/internal/repository/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newAuthService(t *testing.T, users repository.UserRepository) (AuthService, *auth.PasswordHasher) {
	t.Helper()
	hasher := auth.NewPasswordHasher(bcrypt.MinCost)
	tokens, err := auth.NewTokenIssuer(auth.TokenConfig{Secret: strings.Repeat("s", 32), TTL: time.Minute})
	require.NoError(t, err)
	svc, err := NewAuthService(users, hasher, tokens)
	require.NoError(t, err)
	return svc, hasher
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		username   string
		password   string
		setupMocks func(m *repoMocks.MockUserRepository)
		wantErr    error
		wantField  string
	}{
		{
			name:     "happy path",
			username: "alice",
			password: "pw",
			setupMocks: func(m *repoMocks.MockUserRepository) {
				m.On("FindByUsername", ctx, "alice").Return(nil, sql.ErrNoRows)
				m.On("Create", ctx, mock.MatchedBy(func(u *model.User) bool {
					return u.Username == "alice" && !u.IsAdmin &&
						u.PasswordHash != "pw" && bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("pw")) == nil
				})).Return(&model.User{ID: 1, Username: "alice"}, nil)
			},
		},
		{
			name:       "empty username",
			username:   "",
			password:   "pw",
			setupMocks: func(m *repoMocks.MockUserRepository) {},
			wantField:  "username",
		},
		{
			name:       "padded username",
			username:   " alice",
			password:   "pw",
			setupMocks: func(m *repoMocks.MockUserRepository) {},
			wantField:  "username",
		},
		{
			name:       "username too long",
			username:   strings.Repeat("u", 151),
			password:   "pw",
			setupMocks: func(m *repoMocks.MockUserRepository) {},
			wantField:  "username",
		},
		{
			name:       "empty password",
			username:   "alice",
			password:   "",
			setupMocks: func(m *repoMocks.MockUserRepository) {},
			wantField:  "password",
		},
		{
			name:       "password too long",
			username:   "alice",
			password:   strings.Repeat("p", 73),
			setupMocks: func(m *repoMocks.MockUserRepository) {},
			wantField:  "password",
		},
		{
			name:     "taken",
			username: "alice",
			password: "pw",
			setupMocks: func(m *repoMocks.MockUserRepository) {
				m.On("FindByUsername", ctx, "alice").Return(&model.User{ID: 1}, nil)
			},
			wantErr: ErrUsernameTaken,
		},
		{
			name:     "taken concurrently",
			username: "alice",
			password: "pw",
			setupMocks: func(m *repoMocks.MockUserRepository) {
				m.On("FindByUsername", ctx, "alice").Return(nil, sql.ErrNoRows)
				m.On("Create", ctx, mock.Anything).Return(nil, repository.ErrDuplicate)
			},
			wantErr: ErrUsernameTaken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := new(repoMocks.MockUserRepository)
			tt.setupMocks(users)
			svc, _ := newAuthService(t, users)

			u, err := svc.Register(ctx, tt.username, tt.password)

			switch {
			case tt.wantField != "":
				var ve *ValidationError
				require.ErrorAs(t, err, &ve)
				assert.Equal(t, tt.wantField, ve.Field)
				users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, u)
			default:
				require.NoError(t, err)
				assert.Equal(t, int64(1), u.ID)
			}
			users.AssertExpectations(t)
		})
	}
}

func TestAuthService_Register_StoreFailure(t *testing.T) {
	ctx := context.Background()
	users := new(repoMocks.MockUserRepository)
	users.On("FindByUsername", ctx, "alice").Return(nil, errors.New("db down"))
	svc, _ := newAuthService(t, users)

	_, err := svc.Register(ctx, "alice", "pw")

	var pe *PersistenceError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "find user", pe.Op)
}

func TestAuthService_CreateAdmin(t *testing.T) {
	ctx := context.Background()
	users := new(repoMocks.MockUserRepository)
	users.On("FindByUsername", ctx, "root").Return(nil, sql.ErrNoRows)
	users.On("Create", ctx, mock.MatchedBy(func(u *model.User) bool { return u.IsAdmin })).
		Return(&model.User{ID: 1, Username: "root", IsAdmin: true}, nil)
	svc, _ := newAuthService(t, users)

	u, err := svc.CreateAdmin(ctx, "root", "pw")

	require.NoError(t, err)
	assert.True(t, u.IsAdmin)
	users.AssertExpectations(t)
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()
	hash, err := auth.NewPasswordHasher(bcrypt.MinCost).Hash("pw")
	require.NoError(t, err)
	alice := &model.User{ID: 1, Username: "alice", PasswordHash: hash}

	t.Run("success", func(t *testing.T) {
		users := new(repoMocks.MockUserRepository)
		users.On("FindByUsername", ctx, "alice").Return(alice, nil)
		svc, _ := newAuthService(t, users)

		res, err := svc.Login(ctx, "alice", "pw")

		require.NoError(t, err)
		assert.NotEmpty(t, res.Token)
		assert.Equal(t, alice, res.User)
		assert.True(t, res.ExpiresAt.After(time.Now()))
	})

	t.Run("wrong password", func(t *testing.T) {
		users := new(repoMocks.MockUserRepository)
		users.On("FindByUsername", ctx, "alice").Return(alice, nil)
		svc, _ := newAuthService(t, users)

		res, err := svc.Login(ctx, "alice", "nope")

		assert.ErrorIs(t, err, ErrInvalidCredentials)
		assert.Nil(t, res)
	})

	t.Run("unknown user", func(t *testing.T) {
		users := new(repoMocks.MockUserRepository)
		users.On("FindByUsername", ctx, "ghost").Return(nil, sql.ErrNoRows)
		svc, _ := newAuthService(t, users)

		_, err := svc.Login(ctx, "ghost", "pw")

		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("case sensitive", func(t *testing.T) {
		users := new(repoMocks.MockUserRepository)
		users.On("FindByUsername", ctx, "Alice").Return(nil, sql.ErrNoRows)
		svc, _ := newAuthService(t, users)

		_, err := svc.Login(ctx, "Alice", "pw")

		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("lookup failure", func(t *testing.T) {
		users := new(repoMocks.MockUserRepository)
		users.On("FindByUsername", ctx, "alice").Return(nil, errors.New("db down"))
		svc, _ := newAuthService(t, users)

		_, err := svc.Login(ctx, "alice", "pw")

		var pe *PersistenceError
		assert.ErrorAs(t, err, &pe)
		assert.NotErrorIs(t, err, ErrInvalidCredentials)
	})
}
