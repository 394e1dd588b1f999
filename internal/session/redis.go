package session

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/amowogbaje/HelpBoardFullstackAmowogbaje-sub000/internal/domain"
)

const sessionKeyPrefix = "hb:session:"

// RedisDurable persists sessions in Redis as JSON values with a TTL, so
// expired records vanish without coordination.
type RedisDurable struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisDurable builds the Redis-backed durable tier.
func NewRedisDurable(client *redis.Client, ttl time.Duration) *RedisDurable {
	return &RedisDurable{client: client, ttl: ttl}
}

// Save implements Durable.
func (d *RedisDurable) Save(ctx context.Context, session *domain.Session) error {
	val, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return d.client.Set(ctx, d.key(session.Token), val, d.ttl).Err()
}

// Find implements Durable. Unknown tokens return (nil, nil).
func (d *RedisDurable) Find(ctx context.Context, token string) (*domain.Session, error) {
	val, err := d.client.Get(ctx, d.key(token)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var session domain.Session
	if err := json.Unmarshal([]byte(val), &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// Delete implements Durable.
func (d *RedisDurable) Delete(ctx context.Context, token string) error {
	return d.client.Del(ctx, d.key(token)).Err()
}

func (d *RedisDurable) key(token string) string {
	return sessionKeyPrefix + token
}
