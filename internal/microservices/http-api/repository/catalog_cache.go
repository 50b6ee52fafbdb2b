package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"sitehub/internal/microservices/http-api/models"

	"github.com/redis/go-redis/v9"
)

const catalogKey = "plans:catalog"

// CatalogCache keeps a snapshot of the global plans in Redis
type CatalogCache interface {
	Get(ctx context.Context) ([]models.GlobalPlan, bool, error)
	Set(ctx context.Context, list []models.GlobalPlan) error
	Invalidate(ctx context.Context) error
}

type RedisCatalogCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCatalogCache connects to addr and verifies the connection
func NewRedisCatalogCache(addr, password string, ttl time.Duration) (*RedisCatalogCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           0,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisCatalogCache{client: rdb, ttl: ttl}, nil
}

// Get reports a miss when the cache is disabled or empty
func (c *RedisCatalogCache) Get(ctx context.Context) ([]models.GlobalPlan, bool, error) {
	if c == nil || c.client == nil {
		return nil, false, nil
	}
	raw, err := c.client.Get(ctx, catalogKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var list []models.GlobalPlan
	if err := json.Unmarshal(raw, &list); err != nil {
		// a corrupt entry is a miss, the caller reloads and overwrites it
		return nil, false, nil
	}
	return list, true, nil
}

func (c *RedisCatalogCache) Set(ctx context.Context, list []models.GlobalPlan) error {
	if c == nil || c.client == nil {
		return nil
	}
	raw, err := json.Marshal(list)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, catalogKey, raw, c.ttl).Err()
}

func (c *RedisCatalogCache) Invalidate(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Del(ctx, catalogKey).Err()
}

func (c *RedisCatalogCache) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}
