package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadResolvesRelativeSQLitePath(t *testing.T) {
	req := require.New(t)
	path := writeConfig(t, `{
		"basic_config": {"server_address": ":9000", "shutdown_timeout_seconds": 3},
		"databases": {
			"sqlite3": {"dsn": "data/chat.db"},
			"mysql": {"host": "db", "port": 3306, "username": "u", "password": "p", "db_name": "chat"}
		},
		"log": {"level": "debug"}
	}`)

	cfg, err := Load(path)
	req.NoError(err)
	req.Equal(":9000", cfg.ServerAddress())
	req.Equal(3*time.Second, cfg.ShutdownTimeout())
	req.Equal(filepath.Join(filepath.Dir(path), "data/chat.db"), cfg.Databases["sqlite3"].DSN)
	req.Equal("db", cfg.Databases["mysql"].Host)
	req.Equal("debug", cfg.Log.Level)
	req.NoError(cfg.Validate("sqlite3"))
	req.NoError(cfg.Validate("mysql"))
}

func TestLoadKeepsMemoryDSN(t *testing.T) {
	path := writeConfig(t, `{"databases": {"sqlite": {"dsn": ":memory:"}}}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	db, ok := cfg.Database("sqlite3")
	require.True(t, ok)
	require.Equal(t, ":memory:", db.DSN)
}

func TestLoadKeepsFileURIDSN(t *testing.T) {
	path := writeConfig(t, `{"databases": {"sqlite3": {"dsn": "file:data/chat.db?_foreign_keys=1"}}}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "file:data/chat.db?_foreign_keys=1", cfg.Databases["sqlite3"].DSN)
}

func TestDefaults(t *testing.T) {
	cfg := &Config{}
	require.Equal(t, ":8080", cfg.ServerAddress())
	require.Equal(t, defaultShutdownTimeout, cfg.ShutdownTimeout())
}

func TestValidate(t *testing.T) {
	cfg := &Config{Databases: map[string]DatabaseConfig{"sqlite3": {}}}
	require.Error(t, cfg.Validate("sqlite3"))
	require.Error(t, cfg.Validate("postgres"))
	require.Error(t, cfg.Validate("mongo"))
	require.Error(t, cfg.Validate("cassandra"))
	require.NoError(t, cfg.Validate("redis"))

	cfg.Databases["pgx"] = DatabaseConfig{DSN: "postgres://localhost/chat"}
	require.NoError(t, cfg.Validate("postgres"))
	cfg.Mongo.URI = "mongodb://localhost:27017"
	require.NoError(t, cfg.Validate("mongo"))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}
