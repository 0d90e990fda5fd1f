// internal/infrastructure/cache/redis/cache.go
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

const defaultPrefix = "cryptoweb:"

type Cache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewCacheWithClient создает Cache с существующим клиентом
func NewCacheWithClient(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{
		client: client,
		prefix: defaultPrefix,
		ttl:    ttl,
	}
}

// Set устанавливает значение в Redis с TTL
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, c.prefix+key, data, ttl).Err()
}

// Get получает значение из Redis; ok=false если ключа нет
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := c.client.Get(ctx, c.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return true, json.Unmarshal([]byte(data), dest)
}

func priceKey(symbol string) string {
	return "price:" + symbol
}

// mirroredPrice - запись цены в Redis
type mirroredPrice struct {
	Price     float64 `json:"price"`
	UpdatedAt int64   `json:"updated_at"` // unix ms
}

// SetPrice зеркалирует цену символа
func (c *Cache) SetPrice(ctx context.Context, symbol string, price float64) error {
	return c.Set(ctx, priceKey(symbol), mirroredPrice{Price: price, UpdatedAt: time.Now().UnixMilli()}, c.ttl)
}

// GetPrice читает зеркальную цену символа
func (c *Cache) GetPrice(ctx context.Context, symbol string) (float64, bool, error) {
	var mp mirroredPrice
	ok, err := c.Get(ctx, priceKey(symbol), &mp)
	if err != nil || !ok {
		return 0, false, err
	}
	return mp.Price, true, nil
}
