package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"fileshare/docs"
	"fileshare/internal/auth"
	"fileshare/internal/config"
	"fileshare/internal/database"
	"fileshare/internal/database/migration"
	handlers "fileshare/internal/http/handler"
	"fileshare/internal/http/middleware"
	"fileshare/internal/logging"
	"fileshare/internal/otel"
	"fileshare/internal/repository/relational"
	"fileshare/internal/service"
	"fileshare/internal/storage"
)

// @title File Share API
// @version 1.0
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.Location())
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server_failed", zap.Error(err))
	}
}

func run(cfg *config.AppConfig, logger *zap.Logger) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, logger)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			logger.Warn("tracing_shutdown_failed", zap.Error(err))
		}
	}()

	db, err := database.Open(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, cfg.Database.Driver, logger); err != nil {
		return err
	}

	store, err := storage.New(cfg.Storage)
	if err != nil {
		return err
	}

	users := relational.NewUserRepository(db)
	files := relational.NewFileRepository(db)

	tokens, err := auth.NewTokenIssuer(auth.TokenConfig{
		Secret:          cfg.Auth.JWTSecret,
		PreviousSecrets: cfg.Auth.JWTPreviousSecrets,
		TTL:             cfg.Auth.TokenTTL,
		Issuer:          cfg.Auth.JWTIssuer,
	})
	if err != nil {
		return err
	}
	authSvc, err := service.NewAuthService(users, auth.NewPasswordHasher(cfg.Auth.BcryptCost), tokens)
	if err != nil {
		return err
	}
	fileSvc := service.NewFileService(store, files, logger)

	metrics, err := middleware.NewPrometheusMiddleware(prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}

	app := fiber.New(fiber.Config{
		BodyLimit:             cfg.MaxUploadMB * 1024 * 1024,
		ErrorHandler:          handlers.ErrorHandler(),
		DisableStartupMessage: true,
	})

	// Register global middleware
	app.Use(middleware.RequestID())
	app.Use(otelfiber.Middleware())
	app.Use(metrics.Handler())
	app.Use(middleware.Logger(logger))

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	handlers.RegisterRoutes(app, handlers.Dependencies{
		DB:       db,
		Auth:     authSvc,
		Files:    fileSvc,
		Resolver: auth.NewResolver(tokens, users),
		Logger:   logger,
		Cookie: handlers.CookieConfig{
			Name:   cfg.Auth.CookieName,
			Secure: cfg.Auth.CookieSecure,
		},
	})

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		logger.Info("server_starting", zap.String("addr", addr), zap.String("storage", cfg.Storage.Backend), zap.String("db_driver", cfg.Database.Driver))
		errCh <- app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("server_stopping")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}
