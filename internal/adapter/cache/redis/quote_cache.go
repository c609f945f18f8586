// Package redis stores raw market-data payloads in Redis so that catalog
// refreshes from several processes share one upstream budget.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/vmihailenco/msgpack/v5"
)

const keyPrefix = "wealthflow:quote:"

// Config configures the Redis quote cache.
type Config struct {
	Addr     string // e.g. "localhost:6379"
	Password string
	DB       int
}

// entry is the msgpack envelope written under each key.
type entry struct {
	Body      []byte `msgpack:"b"`
	FetchedAt int64  `msgpack:"t"` // unix millis
}

// QuoteCache implements domain.QuoteCache on top of Redis strings.
type QuoteCache struct {
	client *goredis.Client
	now    func() time.Time
}

// New creates a quote cache and pings the server.
func New(cfg Config) (*QuoteCache, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return NewWithClient(client), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *goredis.Client) *QuoteCache {
	return &QuoteCache{client: client, now: time.Now}
}

// Get returns the cached payload. A missing key is a miss, not an error.
func (c *QuoteCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	raw, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}

	body, err := decode(raw)
	if err != nil {
		return nil, false, err
	}
	return body, true, nil
}

// Set stores the payload. A non-positive ttl keeps the key until evicted.
func (c *QuoteCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	raw, err := encode(value, c.now())
	if err != nil {
		return err
	}
	if ttl < 0 {
		ttl = 0
	}
	if err := c.client.Set(ctx, keyPrefix+key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Close closes the underlying client.
func (c *QuoteCache) Close() error {
	return c.client.Close()
}

func encode(body []byte, fetchedAt time.Time) ([]byte, error) {
	raw, err := msgpack.Marshal(entry{Body: body, FetchedAt: fetchedAt.UnixMilli()})
	if err != nil {
		return nil, fmt.Errorf("encode quote entry: %w", err)
	}
	return raw, nil
}

func decode(raw []byte) ([]byte, error) {
	var e entry
	if err := msgpack.Unmarshal(raw, &e); err != nil {
		return nil, fmt.Errorf("decode quote entry: %w", err)
	}
	return e.Body, nil
}
