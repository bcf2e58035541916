package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

type Config struct {
	Addr     string
	Password string
	DB       int
}

type RedisClient struct {
	Client *redis.Client
}

func NewRedisClient(cfg *Config) (*RedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisClient{Client: client}, nil
}

func (c *RedisClient) Close() error {
	return c.Client.Close()
}

// releaseScript deletes the lock only if the caller still owns it.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
    return redis.call("del", KEYS[1])
end
return 0
`)

// AcquireLock takes a best-effort distributed lock. The value must be unique
// per caller so ReleaseLock cannot free somebody else's lock.
func (c *RedisClient) AcquireLock(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	return c.Client.SetNX(ctx, key, value, ttl).Result()
}

func (c *RedisClient) ReleaseLock(ctx context.Context, key, value string) error {
	return releaseScript.Run(ctx, c.Client, []string{key}, value).Err()
}
