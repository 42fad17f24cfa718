package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"chatfeed/internal/config"
	"chatfeed/internal/models"
)

var _ Store = (*MongoStore)(nil)

const defaultMongoDatabase = "chatfeed"

// MongoStore keeps one document per message keyed by id. BSON datetimes
// carry millisecond precision, matching the stored sent value.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
	log    *zap.Logger
}

// OpenMongo connects, pings and ensures the ordering index.
func OpenMongo(ctx context.Context, cfg config.MongoConfig) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	name := cfg.Database
	if name == "" {
		name = defaultMongoDatabase
	}
	s := &MongoStore{
		client: client,
		coll:   client.Database(name).Collection("messages"),
		log:    zap.L().Named("store.mongo"),
	}
	_, err = s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "sent", Value: 1}, {Key: "_id", Value: 1}},
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("create mongo index: %w", err)
	}
	return s, nil
}

func (s *MongoStore) Insert(ctx context.Context, msg models.Message) (models.Message, error) {
	msg, err := prepare(msg)
	if err != nil {
		return models.Message{}, err
	}
	if _, err := s.coll.InsertOne(ctx, msg); err != nil {
		return models.Message{}, unavailable("insert message", err)
	}
	s.log.Debug("message stored", zap.String("id", msg.ID))
	return msg, nil
}

func (s *MongoStore) ListAll(ctx context.Context) ([]models.Message, error) {
	return s.find(ctx, bson.M{})
}

func (s *MongoStore) ListAfter(ctx context.Context, cursorID string) ([]models.Message, error) {
	if cursorID == "" {
		return s.ListAll(ctx)
	}
	var cursor models.Message
	err := s.coll.FindOne(ctx, bson.M{"_id": cursorID}).Decode(&cursor)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			s.log.Debug("unknown cursor, listing all", zap.String("cursor", cursorID))
			return s.ListAll(ctx)
		}
		return nil, unavailable("lookup cursor", err)
	}
	return s.find(ctx, bson.M{"sent": bson.M{"$gt": cursor.Sent}})
}

func (s *MongoStore) Clear(ctx context.Context) error {
	if _, err := s.coll.DeleteMany(ctx, bson.M{}); err != nil {
		return unavailable("clear messages", err)
	}
	return nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, nil); err != nil {
		return unavailable("ping mongo", err)
	}
	return nil
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) find(ctx context.Context, filter bson.M) ([]models.Message, error) {
	cur, err := s.coll.Find(ctx, filter)
	if err != nil {
		return nil, unavailable("list messages", err)
	}
	defer cur.Close(ctx)

	messages := make([]models.Message, 0)
	if err := cur.All(ctx, &messages); err != nil {
		return nil, unavailable("decode messages", err)
	}
	for i := range messages {
		messages[i].Sent = messages[i].Sent.UTC()
	}
	return messages, nil
}
