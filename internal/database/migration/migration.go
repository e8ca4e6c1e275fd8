package migration

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Dialects understood by EnsureMigrated. They match the database driver names.
const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite3"
)

type migrationStep struct {
	Name string
	SQL  string
}

type dialect struct {
	sentinel string
	steps    []migrationStep
}

var dialects = map[string]dialect{
	DialectPostgres: {
		sentinel: "SELECT to_regclass('public.files') IS NOT NULL",
		steps: []migrationStep{
			{
				Name: "create_table_users",
				SQL: `CREATE TABLE IF NOT EXISTS users (
  id              BIGSERIAL    PRIMARY KEY,
  username        VARCHAR(150) NOT NULL UNIQUE,
  hashed_password TEXT         NOT NULL,
  is_admin        BOOLEAN      NOT NULL DEFAULT FALSE,
  created_at      TIMESTAMPTZ  NOT NULL DEFAULT now()
);`,
			},
			{
				Name: "create_table_files",
				SQL: `CREATE TABLE IF NOT EXISTS files (
  id             BIGSERIAL   PRIMARY KEY,
  filename       TEXT        NOT NULL UNIQUE,
  path           TEXT        NOT NULL,
  size           BIGINT      NOT NULL CHECK (size >= 0),
  content_type   TEXT        NOT NULL,
  download_count BIGINT      NOT NULL DEFAULT 0 CHECK (download_count >= 0),
  access_granted BOOLEAN     NOT NULL DEFAULT FALSE,
  owner_id       BIGINT      REFERENCES users (id) ON DELETE SET NULL,
  created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
			},
			{
				Name: "create_index_files_access_granted",
				SQL:  `CREATE INDEX IF NOT EXISTS idx_files_access_granted ON files (access_granted);`,
			},
			{
				Name: "create_index_files_owner_id",
				SQL:  `CREATE INDEX IF NOT EXISTS idx_files_owner_id ON files (owner_id);`,
			},
		},
	},
	DialectSQLite: {
		sentinel: "SELECT COUNT(*) > 0 FROM sqlite_master WHERE type = 'table' AND name = 'files'",
		steps: []migrationStep{
			{
				Name: "create_table_users",
				SQL: `CREATE TABLE IF NOT EXISTS users (
  id              INTEGER      PRIMARY KEY AUTOINCREMENT,
  username        VARCHAR(150) NOT NULL UNIQUE,
  hashed_password TEXT         NOT NULL,
  is_admin        BOOLEAN      NOT NULL DEFAULT 0,
  created_at      DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP
);`,
			},
			{
				Name: "create_table_files",
				SQL: `CREATE TABLE IF NOT EXISTS files (
  id             INTEGER  PRIMARY KEY AUTOINCREMENT,
  filename       TEXT     NOT NULL UNIQUE,
  path           TEXT     NOT NULL,
  size           INTEGER  NOT NULL CHECK (size >= 0),
  content_type   TEXT     NOT NULL,
  download_count INTEGER  NOT NULL DEFAULT 0 CHECK (download_count >= 0),
  access_granted BOOLEAN  NOT NULL DEFAULT 0,
  owner_id       INTEGER  REFERENCES users (id) ON DELETE SET NULL,
  created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);`,
			},
			{
				Name: "create_index_files_access_granted",
				SQL:  `CREATE INDEX IF NOT EXISTS idx_files_access_granted ON files (access_granted);`,
			},
			{
				Name: "create_index_files_owner_id",
				SQL:  `CREATE INDEX IF NOT EXISTS idx_files_owner_id ON files (owner_id);`,
			},
		},
	},
}

// EnsureMigrated checks whether the 'files' table exists and creates the
// schema if it doesn't. Every step is idempotent, so a half-applied run is
// completed on the next start.
func EnsureMigrated(ctx context.Context, db *sql.DB, name string, logger *zap.Logger) error {
	d, ok := dialects[name]
	if !ok {
		return fmt.Errorf("unsupported migration dialect %q", name)
	}

	start := time.Now()
	log := logger.With(zap.String("component", "database"), zap.String("dialect", name))
	log.Info("db_migration_check", zap.String("status", "starting"))

	var exists bool
	if err := db.QueryRowContext(ctx, d.sentinel).Scan(&exists); err != nil {
		log.Error("db_migration_failed",
			zap.String("status", "error"),
			zap.Error(err),
			zap.Duration("duration_ms", time.Since(start)),
		)
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		log.Info("db_migration_skip",
			zap.String("status", "success"),
			zap.String("reason", "schema already exists"),
			zap.Duration("duration_ms", time.Since(start)),
		)
		return nil
	}

	log.Info("db_migration_start", zap.String("status", "in_progress"))

	for _, step := range d.steps {
		stepStart := time.Now()
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			log.Error("db_migration_failed",
				zap.String("status", "error"),
				zap.String("migration_step", step.Name),
				zap.Error(err),
				zap.Duration("duration_ms", time.Since(start)),
				zap.Duration("step_duration_ms", time.Since(stepStart)),
			)
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		log.Info("db_migration_step",
			zap.String("status", "success"),
			zap.String("migration_step", step.Name),
			zap.Duration("step_duration_ms", time.Since(stepStart)),
		)
	}

	log.Info("db_migration_success",
		zap.String("status", "success"),
		zap.Duration("duration_ms", time.Since(start)),
	)
	return nil
}
