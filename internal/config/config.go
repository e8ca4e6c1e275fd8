package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// DatabaseConfig holds relational database connection settings.
// Driver selects between PostgreSQL ("postgres") and SQLite ("sqlite3"); the
// network fields apply to PostgreSQL and Path applies to SQLite.
type DatabaseConfig struct {
	Driver             string
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	Path               string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// StorageConfig selects where uploaded bytes live.
type StorageConfig struct {
	Backend  string // "local" or "minio"
	LocalDir string
	MinIO    MinIOConfig
}

// AuthConfig holds token signing and cookie settings.
type AuthConfig struct {
	JWTSecret          string
	JWTPreviousSecrets []string
	JWTIssuer          string
	TokenTTL           time.Duration
	BcryptCost         int
	CookieName         string
	CookieSecure       bool
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost     string
	Port        string
	Timezone    string
	LogLevel    string
	MaxUploadMB int
	Database    DatabaseConfig
	Storage     StorageConfig
	Auth        AuthConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost:     getEnv("APP_HOST", "localhost:8080"),
		Port:        getEnv("PORT", "8080"),
		Timezone:    getEnv("TZ", "UTC"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		MaxUploadMB: getEnvInt("MAX_UPLOAD_MB", 50),
		Database: DatabaseConfig{
			Driver:             getEnv("DB_DRIVER", "postgres"),
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			Path:               getEnv("DB_PATH", "fileshare.db"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		Storage: StorageConfig{
			Backend:  getEnv("STORAGE_BACKEND", "local"),
			LocalDir: getEnv("STORAGE_LOCAL_DIR", "data"),
			MinIO: MinIOConfig{
				Endpoint:  getEnv("MINIO_ENDPOINT", ""),
				AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
				SecretKey: getEnv("MINIO_SECRET_KEY", ""),
				Bucket:    getEnv("MINIO_BUCKET", ""),
				UseSSL:    getEnvBool("MINIO_USE_SSL", false),
			},
		},
		Auth: AuthConfig{
			JWTSecret:          getEnv("JWT_SECRET", ""),
			JWTPreviousSecrets: getEnvList("JWT_PREVIOUS_SECRETS"),
			JWTIssuer:          getEnv("JWT_ISSUER", "fileshare"),
			TokenTTL:           time.Duration(getEnvInt("TOKEN_TTL_MINUTES", 30)) * time.Minute,
			BcryptCost:         getEnvInt("BCRYPT_COST", 10),
			CookieName:         getEnv("AUTH_COOKIE_NAME", "access_token"),
			CookieSecure:       getEnvBool("AUTH_COOKIE_SECURE", true),
		},
	}
}

// minSecretLen is the shortest HS256 key accepted at startup.
const minSecretLen = 32

// Validate reports configuration that would make the service unsafe or unusable.
func (c *AppConfig) Validate() error {
	var errs []error
	if len(c.Auth.JWTSecret) < minSecretLen {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d characters", minSecretLen))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("TOKEN_TTL_MINUTES must be positive"))
	}
	switch c.Database.Driver {
	case "postgres", "sqlite3":
	default:
		errs = append(errs, fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver))
	}
	switch c.Storage.Backend {
	case "local":
		if c.Storage.LocalDir == "" {
			errs = append(errs, errors.New("STORAGE_LOCAL_DIR is required for the local backend"))
		}
	case "minio":
	default:
		errs = append(errs, fmt.Errorf("unsupported STORAGE_BACKEND %q", c.Storage.Backend))
	}
	return errors.Join(errs...)
}

// Location resolves the configured timezone, falling back to UTC.
func (c *AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

// getEnvList splits a comma-separated variable, dropping empty entries.
func getEnvList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
