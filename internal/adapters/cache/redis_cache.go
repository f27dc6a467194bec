package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const redisOpTimeout = 2 * time.Second

// RedisCache keeps each entity's observations in a capped list. A companion
// set of record positions makes Record idempotent across redeliveries.
type RedisCache struct {
	rdb       *redis.Client
	prefix    string
	ttl       time.Duration
	perEntity int
}

type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	Prefix    string
	TTL       time.Duration
	PerEntity int
}

func NewRedisCache(cfg RedisConfig) *RedisCache {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	perEntity := cfg.PerEntity
	if perEntity <= 0 {
		perEntity = DefaultPerEntity
	}
	return &RedisCache{
		rdb:       rdb,
		prefix:    cfg.Prefix,
		ttl:       cfg.TTL,
		perEntity: perEntity,
	}
}

func (c *RedisCache) makeKey(id string) string {
	return c.prefix + id
}

// recordScript appends an observation unless its position was already seen.
// The seen marker is written after the push: a script aborted by a failing
// command leaves no marker behind, so a redelivered record is stored.
var recordScript = redis.NewScript(`
if redis.call('SISMEMBER', KEYS[2], ARGV[1]) == 1 then
  return 0
end
redis.call('RPUSH', KEYS[1], ARGV[2])
redis.call('LTRIM', KEYS[1], -tonumber(ARGV[3]), -1)
redis.call('SADD', KEYS[2], ARGV[1])
local ttl = tonumber(ARGV[4])
if ttl > 0 then
  redis.call('PEXPIRE', KEYS[1], ttl)
  redis.call('PEXPIRE', KEYS[2], ttl)
end
return 1
`)

func (c *RedisCache) Record(ctx context.Context, o Observation) error {
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()

	data, err := json.Marshal(o)
	if err != nil {
		return err
	}

	key := c.makeKey(o.EntityID)
	err = recordScript.Run(ctx, c.rdb, []string{key, key + ":seen"},
		o.position(), data, c.perEntity, c.ttl.Milliseconds()).Err()
	if err != nil {
		return fmt.Errorf("redis record: %w", err)
	}
	return nil
}

func (c *RedisCache) Get(ctx context.Context, entityID string) ([]Observation, error) {
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()

	raw, err := c.rdb.LRange(ctx, c.makeKey(entityID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis lrange: %w", err)
	}
	if len(raw) == 0 {
		return nil, ErrNotFound
	}

	out := make([]Observation, 0, len(raw))
	for _, s := range raw {
		var o Observation
		if err := json.Unmarshal([]byte(s), &o); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

func (c *RedisCache) Delete(ctx context.Context, entityID string) error {
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()

	key := c.makeKey(entityID)
	n, err := c.rdb.Del(ctx, key, key+":seen").Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (c *RedisCache) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()
	return c.rdb.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.rdb.Close()
}
