package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "session:"

// SessionStore keeps opaque token -> user ID bindings with a TTL.
type SessionStore interface {
	Save(ctx context.Context, token string, userID uuid.UUID, ttl time.Duration) error
	Lookup(ctx context.Context, token string) (uuid.UUID, bool)
	Delete(ctx context.Context, token string) error
}

// RedisSessions stores sessions in Redis so they survive restarts and are
// shared across instances.
type RedisSessions struct {
	rdb *redis.Client
}

func NewRedisSessions(rdb *redis.Client) *RedisSessions {
	return &RedisSessions{rdb: rdb}
}

func (s *RedisSessions) Save(ctx context.Context, token string, userID uuid.UUID, ttl time.Duration) error {
	return s.rdb.Set(ctx, sessionKeyPrefix+token, userID.String(), ttl).Err()
}

func (s *RedisSessions) Lookup(ctx context.Context, token string) (uuid.UUID, bool) {
	val, err := s.rdb.Get(ctx, sessionKeyPrefix+token).Result()
	if errors.Is(err, redis.Nil) || err != nil {
		return uuid.Nil, false
	}
	userID, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, false
	}
	return userID, true
}

func (s *RedisSessions) Delete(ctx context.Context, token string) error {
	return s.rdb.Del(ctx, sessionKeyPrefix+token).Err()
}
