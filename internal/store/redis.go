package store

import (
	"context"
	"errors"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"chatfeed/internal/models"
	"chatfeed/internal/redis"
)

var _ Store = (*RedisStore)(nil)

const maxClearAttempts = 16

// RedisStore keeps each message in a hash and indexes ids in a sorted set
// scored by sent milliseconds. Equal scores order by member, i.e. by id.
type RedisStore struct {
	client *redis.Client
	index  string
	log    *zap.Logger
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client: client,
		index:  client.Key("messages"),
		log:    zap.L().Named("store.redis"),
	}
}

func (s *RedisStore) messageKey(id string) string {
	return s.client.Key("message", id)
}

func (s *RedisStore) Insert(ctx context.Context, msg models.Message) (models.Message, error) {
	msg, err := prepare(msg)
	if err != nil {
		return models.Message{}, err
	}
	raw := s.client.Raw()
	_, err = raw.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.HSet(ctx, s.messageKey(msg.ID), map[string]any{
			"content":         msg.Content,
			"content_type":    string(msg.ContentType),
			"sent":            msg.Sent.UnixMilli(),
			"user_name":       msg.UserName,
			"user_avatar_url": msg.UserAvatarURL,
		})
		pipe.ZAdd(ctx, s.index, goredis.Z{Score: float64(msg.Sent.UnixMilli()), Member: msg.ID})
		return nil
	})
	if err != nil {
		return models.Message{}, unavailable("insert message", err)
	}
	s.log.Debug("message stored", zap.String("id", msg.ID))
	return msg, nil
}

func (s *RedisStore) ListAll(ctx context.Context) ([]models.Message, error) {
	ids, err := s.client.Raw().ZRange(ctx, s.index, 0, -1).Result()
	if err != nil {
		return nil, unavailable("list message ids", err)
	}
	return s.load(ctx, ids)
}

func (s *RedisStore) ListAfter(ctx context.Context, cursorID string) ([]models.Message, error) {
	if cursorID == "" {
		return s.ListAll(ctx)
	}
	raw := s.client.Raw()
	score, err := raw.ZScore(ctx, s.index, cursorID).Result()
	if err != nil {
		if errors.Is(err, redis.ErrCacheMiss) {
			s.log.Debug("unknown cursor, listing all", zap.String("cursor", cursorID))
			return s.ListAll(ctx)
		}
		return nil, unavailable("lookup cursor", err)
	}
	ids, err := raw.ZRangeByScore(ctx, s.index, &goredis.ZRangeBy{
		Min: "(" + strconv.FormatInt(int64(score), 10),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, unavailable("list message ids", err)
	}
	return s.load(ctx, ids)
}

// Clear deletes the index and every hash it references. The index is
// watched, so an Insert landing mid-clear aborts the transaction and the
// clear is retried instead of orphaning the new hash.
func (s *RedisStore) Clear(ctx context.Context) error {
	raw := s.client.Raw()
	clearAll := func(tx *goredis.Tx) error {
		ids, err := tx.ZRange(ctx, s.index, 0, -1).Result()
		if err != nil {
			return err
		}
		keys := make([]string, 0, len(ids)+1)
		for _, id := range ids {
			keys = append(keys, s.messageKey(id))
		}
		keys = append(keys, s.index)
		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Del(ctx, keys...)
			return nil
		})
		return err
	}
	for attempt := 0; attempt < maxClearAttempts; attempt++ {
		err := raw.Watch(ctx, clearAll, s.index)
		if err == nil {
			return nil
		}
		if !errors.Is(err, goredis.TxFailedErr) {
			return unavailable("clear messages", err)
		}
		s.log.Debug("index changed during clear, retrying", zap.Int("attempt", attempt+1))
	}
	return unavailable("clear messages", goredis.TxFailedErr)
}

func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx); err != nil {
		return unavailable("ping redis", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) load(ctx context.Context, ids []string) ([]models.Message, error) {
	messages := make([]models.Message, 0, len(ids))
	if len(ids) == 0 {
		return messages, nil
	}
	cmds := make([]*goredis.MapStringStringCmd, len(ids))
	_, err := s.client.Raw().Pipelined(ctx, func(pipe goredis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = pipe.HGetAll(ctx, s.messageKey(id))
		}
		return nil
	})
	if err != nil {
		return nil, unavailable("load messages", err)
	}
	for i, cmd := range cmds {
		fields := cmd.Val()
		// cleared between the index read and the hash read
		if len(fields) == 0 {
			continue
		}
		sent, err := strconv.ParseInt(fields["sent"], 10, 64)
		if err != nil {
			return nil, unavailable("decode message "+ids[i], err)
		}
		messages = append(messages, models.Message{
			ID:            ids[i],
			Content:       fields["content"],
			ContentType:   models.ContentType(fields["content_type"]),
			Sent:          time.UnixMilli(sent).UTC(),
			UserName:      fields["user_name"],
			UserAvatarURL: fields["user_avatar_url"],
		})
	}
	return messages, nil
}
