package store

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"chatfeed/internal/config"
)

func TestMongoStore(t *testing.T) {
	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		t.Skip("set TEST_MONGO_URI to run mongo-backed store tests")
	}
	ctx := context.Background()
	s, err := OpenMongo(ctx, config.MongoConfig{
		URI:      uri,
		Database: "chatfeed_test_" + strconv.FormatInt(time.Now().UnixNano(), 10),
	})
	if err != nil {
		t.Fatalf("open mongo: %v", err)
	}
	defer func() {
		_ = s.coll.Database().Drop(ctx)
		_ = s.Close()
	}()

	exerciseStore(t, s)
}
