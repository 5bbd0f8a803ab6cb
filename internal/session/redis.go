package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"sitebot/internal/model"
)

const sessionPrefix = "session:"

// RedisStore keeps sessions in Redis; each Put refreshes the TTL.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func (r *RedisStore) Get(ctx context.Context, conversationID string) (*Session, error) {
	data, err := r.rdb.Get(ctx, sessionPrefix+conversationID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, model.ErrUnknownConversation
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return decode(data)
}

func (r *RedisStore) Put(ctx context.Context, s *Session) error {
	s.UpdatedAt = time.Now().UTC()
	data, err := encode(s)
	if err != nil {
		return err
	}
	if err := r.rdb.Set(ctx, sessionPrefix+s.ConversationID, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}
