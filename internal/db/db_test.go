package database

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-tripmap/internal/pkg/config"
)

func TestNewDatabaseConfig(t *testing.T) {
	logger := zap.NewNop()

	t.Run("rejects missing config", func(t *testing.T) {
		_, err := NewDatabaseConfig(nil, logger)
		assert.Error(t, err)
	})

	t.Run("builds a migrate compatible url", func(t *testing.T) {
		cfg := &config.Config{Repositories: config.RepositoriesConfig{Postgres: config.PostgresConfig{
			Host: "db", Port: "5432", DB: "tripmap", Username: "app", Password: "p@ss",
			SSLMode: "disable", MaxConns: 10, MinConns: 2,
		}}}

		dbConfig, err := NewDatabaseConfig(cfg, logger)
		require.NoError(t, err)

		u, err := url.Parse(dbConfig.ConnectionURL)
		require.NoError(t, err)
		assert.Equal(t, "postgresql", u.Scheme)
		assert.Equal(t, "db:5432", u.Host)
		assert.Equal(t, "/tripmap", u.Path)
		pw, _ := u.User.Password()
		assert.Equal(t, "p@ss", pw)
		assert.Equal(t, "disable", u.Query().Get("sslmode"))
		assert.Equal(t, int32(10), dbConfig.MaxConns)
	})
}

func TestEmbeddedMigrations(t *testing.T) {
	entries, err := migrationFS.ReadDir("migrations")
	require.NoError(t, err)

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Contains(t, names, "000001_create_trips.up.sql")
	assert.Contains(t, names, "000002_create_places.up.sql")
	assert.Len(t, names, 4)
}

func TestRunMigrationsRejectsScheme(t *testing.T) {
	err := RunMigrations("mysql://localhost/db", zap.NewNop())
	assert.Error(t, err)
}
