package embedding

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jonathan/career-path/internal/errs"
)

const redisKeyPrefix = "careerpath:embedding:"

// RedisCache shares vectors between processes. Vectors are stored as
// little-endian float32 bytes so they round-trip exactly.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache connects to the Redis server at url (redis://...) and checks it with PING.
func NewRedisCache(ctx context.Context, url string, ttl time.Duration) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, &errs.ConfigError{Message: "invalid REDIS_URL", Cause: err}
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, &errs.UpstreamError{Message: "failed to reach redis", Cause: err}
	}
	return &RedisCache{client: client, ttl: ttl}, nil
}

// NewRedisCacheFromClient wraps an existing client.
func NewRedisCacheFromClient(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

// Get implements Cache.
func (c *RedisCache) Get(ctx context.Context, key string) ([]float32, bool, error) {
	data, err := c.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	vec, err := decodeVector(data)
	if err != nil {
		return nil, false, err
	}
	return vec, true, nil
}

// Set implements Cache.
func (c *RedisCache) Set(ctx context.Context, key string, vec []float32) error {
	if err := c.client.Set(ctx, redisKeyPrefix+key, encodeVector(vec), c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Close closes the underlying client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

func encodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
	}
	return buf
}

func decodeVector(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("corrupt cached vector: %d bytes", len(data))
	}
	vec := make([]float32, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[4*i:]))
	}
	return vec, nil
}
