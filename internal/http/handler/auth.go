package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"fileshare/internal/http/middleware"
	"fileshare/internal/service"
)

// CookieConfig controls the browser session cookie set by /login.
type CookieConfig struct {
	Name   string
	Secure bool
}

type credentials struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	UserID      int64  `json:"user_id"`
	Username    string `json:"username"`
}

type loginResponse struct {
	Token    string `json:"token"`
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
}

type profileResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func parseCredentials(c *fiber.Ctx) (credentials, error) {
	var in credentials
	if err := c.BodyParser(&in); err != nil {
		return in, fiber.ErrBadRequest
	}
	return in, nil
}

// Register godoc
// @Summary Register a user
// @Tags auth
// @Accept json
// @Produce json
// @Param body body credentials true "username and password"
// @Success 201 {object} model.User
// @Failure 400 {object} errorPayload
// @Router /register [post]
func Register(svc service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		in, err := parseCredentials(c)
		if err != nil {
			return respondError(c, err)
		}
		u, err := svc.Register(c.UserContext(), in.Username, in.Password)
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(u)
	}
}

// Token godoc
// @Summary Issue an access token (OAuth2 password flow)
// @Tags auth
// @Accept x-www-form-urlencoded
// @Produce json
// @Param username formData string true "username"
// @Param password formData string true "password"
// @Success 200 {object} tokenResponse
// @Failure 404 {object} errorPayload
// @Router /token [post]
func Token(svc service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		in, err := parseCredentials(c)
		if err != nil {
			return respondError(c, err)
		}
		res, err := svc.Login(c.UserContext(), in.Username, in.Password)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(tokenResponse{
			AccessToken: res.Token,
			TokenType:   "bearer",
			UserID:      res.User.ID,
			Username:    res.User.Username,
		})
	}
}

// Login godoc
// @Summary Log in and set the session cookie
// @Tags auth
// @Accept json
// @Produce json
// @Param body body credentials true "username and password"
// @Success 200 {object} loginResponse
// @Failure 404 {object} errorPayload
// @Router /login [post]
func Login(svc service.AuthService, cookie CookieConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		in, err := parseCredentials(c)
		if err != nil {
			return respondError(c, err)
		}
		res, err := svc.Login(c.UserContext(), in.Username, in.Password)
		if err != nil {
			return respondError(c, err)
		}
		c.Cookie(&fiber.Cookie{
			Name:     cookie.Name,
			Value:    res.Token,
			Path:     "/",
			Expires:  res.ExpiresAt,
			HTTPOnly: true,
			Secure:   cookie.Secure,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
		return c.JSON(loginResponse{Token: res.Token, UserID: res.User.ID, Username: res.User.Username})
	}
}

// Logout godoc
// @Summary Clear the session cookie
// @Tags auth
// @Produce json
// @Success 200 {object} messageResponse
// @Router /logout [post]
func Logout(cookie CookieConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Cookie(&fiber.Cookie{
			Name:     cookie.Name,
			Value:    "",
			Path:     "/",
			Expires:  time.Unix(0, 0),
			MaxAge:   -1,
			HTTPOnly: true,
			Secure:   cookie.Secure,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
		return c.JSON(messageResponse{Message: "logged out"})
	}
}

// Profile godoc
// @Summary Current user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} profileResponse
// @Failure 401 {object} errorPayload
// @Router /profile [get]
func Profile() fiber.Handler {
	return func(c *fiber.Ctx) error {
		u := middleware.CurrentUser(c)
		return c.JSON(profileResponse{ID: u.ID, Username: u.Username, IsAdmin: u.IsAdmin})
	}
}
