package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
check:
  token: secret
  team_slug: my-team
database:
  host: localhost
  dbname: factsync
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://check-api.checkmedia.org/api/graphql", cfg.Check.APIURL)
	assert.Equal(t, 120*time.Second, cfg.Check.Timeout)
	assert.Equal(t, 30*time.Second, cfg.Check.ProbeTimeout)
	assert.Equal(t, 30*time.Second, cfg.Sync.Interval)
	assert.Equal(t, 200, cfg.Sync.FetchLimit)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_MissingToken(t *testing.T) {
	path := writeConfig(t, `
check:
  team_slug: my-team
database:
  host: localhost
  dbname: factsync
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "check.token")
}

func TestLoad_ExpandsEnvironment(t *testing.T) {
	t.Setenv("TEST_CHECK_TOKEN", "from-env")
	path := writeConfig(t, `
check:
  token: ${TEST_CHECK_TOKEN}
  team_slug: my-team
database:
  host: localhost
  dbname: factsync
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Check.Token)
}

func TestDatabaseConfig_URLs(t *testing.T) {
	db := DatabaseConfig{
		Host: "db", Port: 5432, User: "u", Password: "p",
		DBName: "factsync", SSLMode: "disable",
	}

	assert.Equal(t, "host=db port=5432 user=u password=p dbname=factsync sslmode=disable", db.DSN())
	assert.Equal(t, "postgres://u:p@db:5432/factsync?sslmode=disable", db.MigrationURL())
}
