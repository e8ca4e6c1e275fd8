package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"fileshare/internal/http/middleware"
	"fileshare/internal/service"
)

// Dependencies are the collaborators the HTTP routes need.
type Dependencies struct {
	DB       *sql.DB
	Auth     service.AuthService
	Files    service.FileService
	Resolver middleware.IdentityResolver
	Logger   *zap.Logger
	Cookie   CookieConfig
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app. Protected
// routes accept a bearer token or the session cookie.
func RegisterRoutes(app *fiber.App, deps Dependencies) {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	identity := middleware.Identity(deps.Resolver, logger,
		middleware.BearerHeader(),
		middleware.Cookie(deps.Cookie.Name),
	)
	requireUser := middleware.RequireUser()
	noStore := middleware.NoStore()

	app.Get("/", Welcome())
	app.Get("/health", HealthCheck(deps.DB))
	app.Get("/healthz", LivenessProbe())

	app.Post("/register", Register(deps.Auth))
	app.Post("/token", noStore, Token(deps.Auth))
	app.Post("/login", noStore, Login(deps.Auth, deps.Cookie))
	app.Post("/logout", Logout(deps.Cookie))

	app.Get("/profile", identity, requireUser, noStore, Profile())
	app.Post("/upload", identity, requireUser, UploadFile(deps.Files))
	app.Get("/files", identity, requireUser, noStore, ListFiles(deps.Files))
	app.Get("/files/granted", identity, requireUser, noStore, ListGrantedFiles(deps.Files))
	app.Put("/files/:id", identity, requireUser, UpdateAccess(deps.Files))
	app.Get("/download/:id", identity, requireUser, noStore, DownloadFile(deps.Files))
	app.Delete("/delete/:id", identity, requireUser, DeleteFile(deps.Files))
}
