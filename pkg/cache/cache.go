package cache

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	BanKeyPattern           = "ban:%s"
	ExamWindowKeyPattern    = "reqtimes:%s:%s"
	SuspicionFlagKeyPattern = "flag:suspicious:%s:%s"

	// callTimeout bounds every store round-trip so no request can hang on
	// the cache; callers decide whether a timeout fails open or closed.
	callTimeout = 2 * time.Second
)

type Config struct {
	Host     string
	Port     int
	Password string
	DB       int
	TLS      bool
}

// Cache wraps the shared redis client. All cross-request defense state
// (ban records, exam windows, suspicion flags) lives here; there is no
// in-process shared mutable state.
type Cache struct {
	client *redis.Client
}

func NewCache(config Config) (*Cache, error) {
	options := &redis.Options{
		Addr:     fmt.Sprintf("%s:%d", config.Host, config.Port),
		Password: config.Password,
		DB:       config.DB,
	}
	if config.TLS {
		options.TLSConfig = &tls.Config{
			InsecureSkipVerify: true, // #nosec G402
		}
	}
	client := redis.NewClient(options)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Cache{client: client}, nil
}

// NewCacheWithClient wires an existing client, used by tests with redismock.
func NewCacheWithClient(client *redis.Client) *Cache {
	return &Cache{client: client}
}

func (c *Cache) Client() *redis.Client {
	return c.client
}

func (c *Cache) Exists(ctx context.Context, key string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()
	n, err := c.client.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (c *Cache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()
	return c.client.Set(ctx, key, value, ttl).Err()
}

// SetIfAbsent writes the key only when it does not exist yet, so a repeated
// ban inside an active window never refreshes the original TTL.
func (c *Cache) SetIfAbsent(ctx context.Context, key, value string, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()
	return c.client.SetNX(ctx, key, value, ttl).Err()
}

func (c *Cache) ListPushFront(ctx context.Context, key, value string) error {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()
	return c.client.LPush(ctx, key, value).Err()
}

func (c *Cache) ListTrim(ctx context.Context, key string, start, stop int64) error {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()
	return c.client.LTrim(ctx, key, start, stop).Err()
}

func (c *Cache) ListRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()
	return c.client.LRange(ctx, key, start, stop).Result()
}

func (c *Cache) Close() error {
	return c.client.Close()
}
