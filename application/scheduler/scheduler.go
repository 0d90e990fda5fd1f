// application/scheduler/scheduler.go
package scheduler

import (
	"context"
	"sync"
	"time"

	"crypto-exchange-web/internal/core/domain/market"
	events "crypto-exchange-web/internal/infrastructure/transport/event_bus"
	"crypto-exchange-web/pkg/logger"
)

// DefaultInterval - период рассылки цен
const DefaultInterval = 5 * time.Second

// PriceFetcher получает свежую цену (и обновляет кэш)
type PriceFetcher interface {
	Fetch(ctx context.Context, symbol string) (float64, error)
}

// Publisher рассылает событие подписчикам без ожидания
type Publisher interface {
	Publish(event events.Event) int
}

// Observer получает счетчики цикла рассылки
type Observer interface {
	IncTick()
	IncBroadcast()
	IncFetchFailure(symbol string)
}

// PriceBroadcaster - фоновый цикл: каждые interval опрашивает цены
// списка символов и публикует одно событие prices.
type PriceBroadcaster struct {
	fetcher   PriceFetcher
	publisher Publisher
	symbols   []string
	interval  time.Duration
	observer  Observer
	now       func() time.Time

	mu       sync.RWMutex
	lastPush time.Time
	ticks    int
}

// NewPriceBroadcaster создает цикл рассылки; observer может быть nil
func NewPriceBroadcaster(fetcher PriceFetcher, publisher Publisher, symbols []string, interval time.Duration, observer Observer) *PriceBroadcaster {
	if interval <= 0 {
		interval = DefaultInterval
	}
	syms := make([]string, len(symbols))
	copy(syms, symbols)

	return &PriceBroadcaster{
		fetcher:   fetcher,
		publisher: publisher,
		symbols:   syms,
		interval:  interval,
		observer:  observer,
		now:       time.Now,
	}
}

// Run выполняет первый такт сразу, затем каждые interval, пока ctx не отменен
func (b *PriceBroadcaster) Run(ctx context.Context) error {
	logger.Info("✅ [Broadcaster] Запущен: %d символов, период %v", len(b.symbols), b.interval)

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	b.Tick(ctx)

	for {
		select {
		case <-ticker.C:
			b.Tick(ctx)
		case <-ctx.Done():
			logger.Info("🛑 [Broadcaster] Остановлен")
			return nil
		}
	}
}

// Tick выполняет один такт рассылки и возвращает число полученных цен.
// Ошибки отдельных символов пропускаются; если не получено ни одной цены, событие не публикуется.
func (b *PriceBroadcaster) Tick(ctx context.Context) int {
	if b.observer != nil {
		b.observer.IncTick()
	}

	ticks := make([]market.PriceTick, 0, len(b.symbols))
	for _, symbol := range b.symbols {
		if ctx.Err() != nil {
			return 0
		}

		price, err := b.fetcher.Fetch(ctx, symbol)
		if err != nil {
			logger.Debug("⚠️ [Broadcaster] %s пропущен: %v", symbol, err)
			if b.observer != nil {
				b.observer.IncFetchFailure(symbol)
			}
			continue
		}
		ticks = append(ticks, market.NewPriceTick(symbol, price, b.now()))
	}

	b.mu.Lock()
	b.ticks++
	b.mu.Unlock()

	if len(ticks) == 0 {
		logger.Debug("⚠️ [Broadcaster] Ни одной цены за такт, событие не отправлено")
		return 0
	}

	now := b.now()
	delivered := b.publisher.Publish(events.Event{
		Type:      events.EventPrices,
		Source:    "broadcaster",
		Data:      ticks,
		Timestamp: now,
	})

	b.mu.Lock()
	b.lastPush = now
	b.mu.Unlock()

	if b.observer != nil {
		b.observer.IncBroadcast()
	}
	logger.Debug("📤 [Broadcaster] %d/%d цен отправлено %d подписчикам", len(ticks), len(b.symbols), delivered)
	return len(ticks)
}

// LastPush - время последней публикации (нулевое, если публикаций не было)
func (b *PriceBroadcaster) LastPush() time.Time {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastPush
}

// Ticks - число выполненных тактов
func (b *PriceBroadcaster) Ticks() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.ticks
}

// Symbols возвращает копию списка символов
func (b *PriceBroadcaster) Symbols() []string {
	out := make([]string, len(b.symbols))
	copy(out, b.symbols)
	return out
}
