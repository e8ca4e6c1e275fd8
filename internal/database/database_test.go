package database

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"fileshare/internal/config"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubOpen points sqlOpen at a sqlmock handle for the duration of the test
// and records the DSN it was asked to open.
func stubOpen(t *testing.T, openErr error) (sqlmock.Sqlmock, *string) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	var dsn string
	orig := sqlOpen
	sqlOpen = func(_, dataSourceName string) (*sql.DB, error) {
		dsn = dataSourceName
		if openErr != nil {
			return nil, openErr
		}
		return db, nil
	}
	t.Cleanup(func() { sqlOpen = orig })
	return mock, &dsn
}

func TestBuildPostgresDSN(t *testing.T) {
	base := config.DatabaseConfig{Host: "db", Port: "5432", User: "fs", Name: "fileshare"}
	with := func(mut func(*config.DatabaseConfig)) config.DatabaseConfig {
		c := base
		mut(&c)
		return c
	}

	tests := []struct {
		name   string
		config config.DatabaseConfig
		want   string
	}{
		{"password and sslmode", with(func(c *config.DatabaseConfig) { c.Password = "s3cret"; c.SSLMode = "disable" }), "postgres://fs:s3cret@db:5432/fileshare?sslmode=disable"},
		{"no password", with(func(c *config.DatabaseConfig) { c.SSLMode = "require" }), "postgres://fs@db:5432/fileshare?sslmode=require"},
		{"bare", base, "postgres://fs@db:5432/fileshare"},
		{"password is escaped", with(func(c *config.DatabaseConfig) { c.Password = "p@ss/word" }), "postgres://fs:p%40ss%2Fword@db:5432/fileshare"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BuildPostgresDSN(tt.config)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, field := range []string{"host", "port", "user", "name"} {
		t.Run("missing "+field, func(t *testing.T) {
			c := base
			switch field {
			case "host":
				c.Host = ""
			case "port":
				c.Port = ""
			case "user":
				c.User = ""
			case "name":
				c.Name = ""
			}
			_, err := BuildPostgresDSN(c)
			assert.ErrorContains(t, err, "invalid database config")
		})
	}
}

func TestNewPostgres(t *testing.T) {
	conf := config.DatabaseConfig{
		Host:               "db",
		Port:               "5432",
		User:               "fs",
		Password:           "pw",
		Name:               "fileshare",
		MaxOpenConns:       10,
		MaxIdleConns:       5,
		ConnMaxLifetimeSec: 300,
	}

	t.Run("success", func(t *testing.T) {
		mock, dsn := stubOpen(t, nil)
		mock.ExpectPing()

		db, err := NewPostgres(conf)

		require.NoError(t, err)
		assert.Equal(t, 10, db.Stats().MaxOpenConnections)
		assert.Equal(t, "postgres://fs:pw@db:5432/fileshare", *dsn)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("open error", func(t *testing.T) {
		stubOpen(t, errors.New("open error"))

		db, err := NewPostgres(conf)

		assert.ErrorContains(t, err, "sql open: open error")
		assert.Nil(t, db)
	})

	t.Run("ping error", func(t *testing.T) {
		mock, _ := stubOpen(t, nil)
		mock.ExpectPing().WillReturnError(errors.New("ping failed"))
		mock.ExpectClose()

		db, err := NewPostgres(conf)

		assert.ErrorContains(t, err, "db ping: ping failed")
		assert.Nil(t, db)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("invalid DSN never opens", func(t *testing.T) {
		_, dsn := stubOpen(t, nil)

		db, err := NewPostgres(config.DatabaseConfig{})

		assert.Error(t, err)
		assert.Nil(t, db)
		assert.Empty(t, *dsn)
	})
}

func TestBuildSQLiteDSN(t *testing.T) {
	dsn, err := BuildSQLiteDSN(config.DatabaseConfig{Path: "/tmp/fs.db"})
	require.NoError(t, err)
	assert.Equal(t, "file:/tmp/fs.db?_busy_timeout=5000&_foreign_keys=on", dsn)

	_, err = BuildSQLiteDSN(config.DatabaseConfig{})
	assert.Error(t, err)
}

func TestOpen(t *testing.T) {
	t.Run("unsupported driver", func(t *testing.T) {
		db, err := Open(config.DatabaseConfig{Driver: "mysql"})
		assert.ErrorContains(t, err, "unsupported database driver")
		assert.Nil(t, db)
	})

	t.Run("sqlite file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "fs.db")

		db, err := Open(config.DatabaseConfig{Driver: DriverSQLite, Path: path})
		require.NoError(t, err)
		defer db.Close()

		var fk int
		require.NoError(t, db.QueryRow("PRAGMA foreign_keys").Scan(&fk))
		assert.Equal(t, 1, fk)
		assert.Equal(t, 1, db.Stats().MaxOpenConnections)
	})

	t.Run("sqlite routes through sqlOpen", func(t *testing.T) {
		mock, dsn := stubOpen(t, nil)
		mock.ExpectPing()

		db, err := Open(config.DatabaseConfig{Driver: DriverSQLite, Path: "x.db"})

		require.NoError(t, err)
		assert.NotNil(t, db)
		assert.Contains(t, *dsn, "file:x.db?")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
