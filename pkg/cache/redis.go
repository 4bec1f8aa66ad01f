package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"gitlab.connectwisedev.com/cars-service/models"
)

// DefaultTTL bounds how long a cached entry survives edits made directly in the store
const DefaultTTL = 5 * time.Minute

// ErrCacheMiss is returned when a key is absent
var ErrCacheMiss = errors.New("cache miss")

// RedisClient holds the Redis client connection
type RedisClient struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisClient initializes and returns a new Redis client
func NewRedisClient(ctx context.Context, addr string, logger *zap.Logger) (*RedisClient, error) {
	if addr == "" {
		return nil, fmt.Errorf("redis address not set")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: "", // No password by default for local Redis
		DB:       0,  // Default DB
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pong, err := client.Ping(pingCtx).Result()
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	logger.Info("Successfully connected to Redis", zap.String("ping", pong))

	return &RedisClient{client: client, ttl: DefaultTTL, logger: logger}, nil
}

// Close closes the Redis connection
func (c *RedisClient) Close() {
	if c.client != nil {
		c.client.Close()
		c.logger.Info("Redis connection closed.")
	}
}

// GetCar returns the cached detail record for id
func (c *RedisClient) GetCar(ctx context.Context, id string) (*models.CarSpec, error) {
	var car models.CarSpec
	if err := c.get(ctx, carKey(id), &car); err != nil {
		return nil, err
	}
	return &car, nil
}

// SetCar caches a detail record under its id
func (c *RedisClient) SetCar(ctx context.Context, car models.CarSpec) error {
	return c.set(ctx, carKey(car.ID), car)
}

func (c *RedisClient) get(ctx context.Context, key string, out interface{}) error {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return ErrCacheMiss
	}
	if err != nil {
		return fmt.Errorf("failed to get %s from Redis: %w", key, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to unmarshal %s from Redis: %w", key, err)
	}
	return nil
}

func (c *RedisClient) set(ctx context.Context, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s for Redis: %w", key, err)
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set %s in Redis: %w", key, err)
	}
	return nil
}

func carKey(id string) string {
	return fmt.Sprintf("car:%s", id)
}
