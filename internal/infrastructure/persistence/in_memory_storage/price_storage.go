// internal/infrastructure/persistence/in_memory_storage/price_storage.go
package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"crypto-exchange-web/internal/infrastructure/api"
	"crypto-exchange-web/pkg/logger"
)

const mirrorTimeout = 2 * time.Second

// PriceCache - кэш последних цен без вытеснения.
// Значение может быть сколь угодно устаревшим: чтение никогда не инвалидирует запись.
type PriceCache struct {
	mu      sync.RWMutex
	prices  map[string]PriceSnapshot
	fetcher api.PriceFetcher
	mirror  PriceMirror
	now     func() time.Time
}

// PriceCacheOption функция настройки кэша
type PriceCacheOption func(*PriceCache)

// WithMirror включает запись цен в зеркало
func WithMirror(m PriceMirror) PriceCacheOption {
	return func(c *PriceCache) {
		c.mirror = m
	}
}

// WithClock подменяет часы (для тестов)
func WithClock(now func() time.Time) PriceCacheOption {
	return func(c *PriceCache) {
		c.now = now
	}
}

// NewPriceCache создает кэш цен поверх клиента биржи
func NewPriceCache(fetcher api.PriceFetcher, options ...PriceCacheOption) *PriceCache {
	c := &PriceCache{
		prices:  make(map[string]PriceSnapshot),
		fetcher: fetcher,
		now:     time.Now,
	}
	for _, option := range options {
		option(c)
	}
	return c
}

// Get возвращает закэшированную цену
func (c *PriceCache) Get(symbol string) (float64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap, ok := c.prices[symbol]
	return snap.Price, ok
}

// Set сохраняет цену; последняя запись побеждает
func (c *PriceCache) Set(symbol string, price float64) {
	c.mu.Lock()
	c.prices[symbol] = PriceSnapshot{Symbol: symbol, Price: price, UpdatedAt: c.now()}
	c.mu.Unlock()

	if c.mirror != nil {
		ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
		defer cancel()
		if err := c.mirror.SetPrice(ctx, symbol, price); err != nil {
			logger.Warn("⚠️ PriceCache: не удалось записать %s в зеркало: %v", symbol, err)
		}
	}
}

// Fetch всегда запрашивает биржу и записывает результат в кэш
func (c *PriceCache) Fetch(ctx context.Context, symbol string) (float64, error) {
	price, err := c.fetcher.GetPrice(ctx, symbol)
	if err != nil {
		return 0, err
	}
	c.Set(symbol, price)
	return price, nil
}

// GetOrFetch возвращает цену из кэша, при промахе запрашивает биржу
func (c *PriceCache) GetOrFetch(ctx context.Context, symbol string) (float64, error) {
	if price, ok := c.Get(symbol); ok {
		return price, nil
	}
	return c.Fetch(ctx, symbol)
}

// Snapshot возвращает копию всех записей, отсортированную по символу
func (c *PriceCache) Snapshot() []PriceSnapshot {
	c.mu.RLock()
	out := make([]PriceSnapshot, 0, len(c.prices))
	for _, snap := range c.prices {
		out = append(out, snap)
	}
	c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// Len - количество символов в кэше
func (c *PriceCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.prices)
}

// Warmup заполняет кэш из зеркала при старте; возвращает число загруженных цен
func (c *PriceCache) Warmup(ctx context.Context, symbols []string) int {
	if c.mirror == nil {
		return 0
	}

	loaded := 0
	for _, symbol := range symbols {
		price, ok, err := c.mirror.GetPrice(ctx, symbol)
		if err != nil {
			logger.Warn("⚠️ PriceCache: прогрев %s из зеркала не удался: %v", symbol, err)
			continue
		}
		if !ok {
			continue
		}

		c.mu.Lock()
		if _, exists := c.prices[symbol]; !exists {
			c.prices[symbol] = PriceSnapshot{Symbol: symbol, Price: price, UpdatedAt: c.now()}
			loaded++
		}
		c.mu.Unlock()
	}

	if loaded > 0 {
		logger.Info("🔥 PriceCache: прогрето %d цен из зеркала", loaded)
	}
	return loaded
}
