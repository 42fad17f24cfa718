package store

import (
	"context"
	"fmt"
	"strings"

	"chatfeed/internal/config"
	"chatfeed/internal/redis"
	"chatfeed/internal/storage"
)

// Open builds the backend named by storeType from cfg. SQL backends are
// migrated before use.
func Open(ctx context.Context, storeType string, cfg *config.Config) (Store, error) {
	if err := cfg.Validate(storeType); err != nil {
		return nil, err
	}
	switch strings.ToLower(storeType) {
	case "redis":
		client, err := redis.NewRedisClient(cfg)
		if err != nil {
			return nil, fmt.Errorf("create redis client: %w", err)
		}
		return NewRedisStore(client), nil
	case "mongo", "mongodb":
		return OpenMongo(ctx, cfg.Mongo)
	default:
		dbCfg, _ := cfg.Database(storeType)
		db, err := storage.Open(storeType, dbCfg)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		if err := storage.Migrate(db, storeType); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate database: %w", err)
		}
		return NewSQLStore(db, storeType)
	}
}
