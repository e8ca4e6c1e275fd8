package middleware

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fileshare/internal/auth"
	"fileshare/internal/model"
)

type stubResolver map[string]*model.User

func (s stubResolver) Resolve(_ context.Context, token string) (*model.User, error) {
	switch token {
	case "":
		return nil, auth.ErrAnonymous
	case "gone":
		return nil, auth.ErrUserNotFound
	case "dbdown":
		return nil, errors.New("db down")
	}
	if u, ok := s[token]; ok {
		return u, nil
	}
	return nil, auth.ErrInvalidToken
}

func newIdentityApp() *fiber.App {
	resolver := stubResolver{"good": {ID: 1, Username: "alice"}}

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusTeapot).SendString(err.Error())
		},
	})
	app.Use(Identity(resolver, zap.NewNop(), BearerHeader(), Cookie("access_token")))
	app.Get("/open", func(c *fiber.Ctx) error {
		if u := CurrentUser(c); u != nil {
			return c.SendString(u.Username)
		}
		return c.SendString("anonymous")
	})
	app.Get("/closed", RequireUser(), func(c *fiber.Ctx) error {
		return c.SendString(CurrentUser(c).Username)
	})
	return app
}

func get(t *testing.T, app *fiber.App, path, authorization, cookie string) (int, string) {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	if cookie != "" {
		req.Header.Set("Cookie", "access_token="+cookie)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(b)
}

func TestIdentity(t *testing.T) {
	app := newIdentityApp()

	tests := []struct {
		name       string
		path       string
		header     string
		cookie     string
		wantStatus int
		wantBody   string
	}{
		{"anonymous open", "/open", "", "", fiber.StatusOK, "anonymous"},
		{"bearer", "/open", "Bearer good", "", fiber.StatusOK, "alice"},
		{"bearer lowercase scheme", "/open", "bearer good", "", fiber.StatusOK, "alice"},
		{"cookie", "/open", "", "good", fiber.StatusOK, "alice"},
		{"header wins over cookie", "/open", "Bearer bad", "good", fiber.StatusOK, "anonymous"},
		{"basic scheme ignored", "/open", "Basic good", "", fiber.StatusOK, "anonymous"},
		{"closed anonymous", "/closed", "", "", fiber.StatusTeapot, auth.ErrAnonymous.Error()},
		{"closed bad token", "/closed", "Bearer bad", "", fiber.StatusTeapot, auth.ErrInvalidToken.Error()},
		{"closed user gone", "/closed", "", "gone", fiber.StatusTeapot, auth.ErrUserNotFound.Error()},
		{"closed lookup failure", "/closed", "Bearer dbdown", "", fiber.StatusTeapot, "db down"},
		{"closed via cookie", "/closed", "", "good", fiber.StatusOK, "alice"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, got := get(t, app, tt.path, tt.header, tt.cookie)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantBody, got)
		})
	}
}
