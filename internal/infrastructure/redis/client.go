package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// Bus is the broadcast fan-out plus a small key/value cache. Publishes are
// fire-and-forget: only currently subscribed connections see a message.
type Bus struct {
	rdb *redis.Client
}

func New(addr, pass string, db int) (*Bus, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr, Password: pass, DB: db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &Bus{rdb: rdb}, nil
}

func (b *Bus) Close() error {
	return b.rdb.Close()
}

func (b *Bus) Ping(ctx context.Context) error {
	return b.rdb.Ping(ctx).Err()
}

func (b *Bus) Publish(ctx context.Context, channel string, v any) error {
	bytes, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, channel, bytes).Err()
}

// Subscribe opens a dedicated subscriber connection. Commands keep flowing
// through the shared client; subscriber connections cannot issue them.
// The caller owns the returned handle and must Close it.
func (b *Bus) Subscribe(ctx context.Context, channels ...string) *redis.PubSub {
	return b.rdb.Subscribe(ctx, channels...)
}

func (b *Bus) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	val, err := b.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(val, dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON stores val under key. A zero ttl means no expiration; the queue
// positions snapshot is stored that way and stays until the next write.
func (b *Bus) SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error {
	bytes, err := json.Marshal(val)
	if err != nil {
		return err
	}
	return b.rdb.Set(ctx, key, bytes, ttl).Err()
}
