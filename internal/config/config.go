package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config represents runtime configuration for the service.
type Config struct {
	BasicConfig BasicConfig               `json:"basic_config"`
	Databases   map[string]DatabaseConfig `json:"databases"`
	Redis       RedisConfig               `json:"redis"`
	Mongo       MongoConfig               `json:"mongo"`
	Log         LogConfig                 `json:"log"`
}

type BasicConfig struct {
	ServerAddress   string `json:"server_address"`
	GinMode         string `json:"gin_mode"`
	ShutdownTimeout int    `json:"shutdown_timeout_seconds"`
}

// DatabaseConfig describes one SQL backend. DSN wins over the discrete fields.
type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	Params   string `json:"params"`
}

type RedisConfig struct {
	Host      string `json:"host"`
	Port      int    `json:"port"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	DB        int    `json:"db"`
	KeyPrefix string `json:"key_prefix"`
}

type MongoConfig struct {
	URI      string `json:"uri"`
	Database string `json:"database"`
}

type LogConfig struct {
	Level       string `json:"level"`
	Development bool   `json:"development"`
}

const defaultShutdownTimeout = 10 * time.Second

// Load reads configuration from the provided path (defaults to config.json).
// A .env file in the working directory is applied to the environment first.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if path == "" {
		path = "config.json"
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	file, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("open config %s: %w", absPath, err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	for name, db := range cfg.Databases {
		if isSQLite(name) && isRelativeFileDSN(db.DSN) {
			db.DSN = filepath.Join(filepath.Dir(absPath), db.DSN)
			cfg.Databases[name] = db
		}
	}
	return &cfg, nil
}

// Validate checks the sections required by the selected store backend.
func (c *Config) Validate(storeType string) error {
	switch strings.ToLower(storeType) {
	case "redis":
		return nil
	case "mongo", "mongodb":
		if c.Mongo.URI == "" {
			return errors.New("mongo.uri must be configured")
		}
		return nil
	case "sqlite", "sqlite3", "mysql", "postgres", "pgx":
		db, ok := c.Database(storeType)
		if !ok {
			return fmt.Errorf("database config for %s not found", storeType)
		}
		if isSQLite(storeType) && db.DSN == "" {
			return errors.New("sqlite dsn must be provided")
		}
		return nil
	default:
		return fmt.Errorf("unsupported store: %s", storeType)
	}
}

// Database returns the SQL backend section, accepting driver aliases.
func (c *Config) Database(driver string) (DatabaseConfig, bool) {
	driver = strings.ToLower(driver)
	if db, ok := c.Databases[driver]; ok {
		return db, true
	}
	aliases := map[string]string{"sqlite": "sqlite3", "sqlite3": "sqlite", "pgx": "postgres", "postgres": "pgx"}
	db, ok := c.Databases[aliases[driver]]
	return db, ok
}

// ServerAddress returns the listen address, defaulting to :8080.
func (c *Config) ServerAddress() string {
	if c.BasicConfig.ServerAddress == "" {
		return ":8080"
	}
	return c.BasicConfig.ServerAddress
}

func (c *Config) ShutdownTimeout() time.Duration {
	if c.BasicConfig.ShutdownTimeout <= 0 {
		return defaultShutdownTimeout
	}
	return time.Duration(c.BasicConfig.ShutdownTimeout) * time.Second
}

func isSQLite(name string) bool {
	name = strings.ToLower(name)
	return name == "sqlite" || name == "sqlite3"
}

// isRelativeFileDSN reports whether dsn names a plain relative file path.
// file: URIs are handed to the driver untouched.
func isRelativeFileDSN(dsn string) bool {
	if dsn == "" || isMemoryDSN(dsn) || strings.HasPrefix(dsn, "file:") {
		return false
	}
	return !filepath.IsAbs(dsn)
}

func isMemoryDSN(dsn string) bool {
	return strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}
