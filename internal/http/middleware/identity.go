package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"fileshare/internal/auth"
	"fileshare/internal/model"
)

const (
	// UserLocalKey holds the authenticated *model.User.
	UserLocalKey = "user"
	// identityErrLocalKey holds why a presented credential was rejected.
	identityErrLocalKey = "identity_error"
)

// CredentialExtractor pulls a raw token from the request, or "" if absent.
type CredentialExtractor func(c *fiber.Ctx) string

// BearerHeader reads "Authorization: Bearer <token>".
func BearerHeader() CredentialExtractor {
	return func(c *fiber.Ctx) string {
		h := c.Get(fiber.HeaderAuthorization)
		scheme, token, ok := strings.Cut(h, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") {
			return ""
		}
		return strings.TrimSpace(token)
	}
}

// Cookie reads the token from the named cookie.
func Cookie(name string) CredentialExtractor {
	return func(c *fiber.Ctx) string {
		return c.Cookies(name)
	}
}

// IdentityResolver maps a token to a user.
type IdentityResolver interface {
	Resolve(ctx context.Context, token string) (*model.User, error)
}

// Identity resolves the first credential any extractor finds and stores the
// user in locals. It never rejects a request on its own; RequireUser does.
func Identity(resolver IdentityResolver, logger *zap.Logger, extractors ...CredentialExtractor) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var token string
		for _, extract := range extractors {
			if token = extract(c); token != "" {
				break
			}
		}
		if token == "" {
			return c.Next()
		}

		user, err := resolver.Resolve(c.UserContext(), token)
		if err != nil {
			rid, _ := c.Locals(RequestIDLocalKey).(string)
			logger.Info("identity_rejected", zap.String("request_id", rid), zap.Error(err))
			c.Locals(identityErrLocalKey, err)
			return c.Next()
		}

		c.Locals(UserLocalKey, user)
		return c.Next()
	}
}

// CurrentUser returns the authenticated user, or nil for anonymous requests.
func CurrentUser(c *fiber.Ctx) *model.User {
	u, _ := c.Locals(UserLocalKey).(*model.User)
	return u
}

// RequireUser stops anonymous requests. It returns auth.ErrAnonymous,
// auth.ErrInvalidToken or auth.ErrUserNotFound for the error handler to
// render as 401; a failed lookup is returned as is.
func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if CurrentUser(c) != nil {
			return c.Next()
		}
		if err, ok := c.Locals(identityErrLocalKey).(error); ok {
			return err
		}
		return auth.ErrAnonymous
	}
}
