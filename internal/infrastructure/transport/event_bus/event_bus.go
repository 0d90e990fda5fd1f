// internal/infrastructure/transport/event_bus/event_bus.go
package events

import (
	"sort"
	"sync"
	"time"

	"crypto-exchange-web/pkg/logger"

	"github.com/google/uuid"
)

// BusStats - счетчики шины
type BusStats struct {
	EventsPublished uint64
	Deliveries      uint64
	Dropped         uint64
}

// EventBus - реестр подписчиков канала реального времени.
// Publish никогда не ждет медленного подписчика.
type EventBus struct {
	mu          sync.RWMutex
	subscribers map[string]Subscriber
	taps        []Subscriber
	observer    Observer

	statsMu sync.Mutex
	stats   BusStats
}

// NewEventBus создает шину; observer может быть nil
func NewEventBus(observer Observer) *EventBus {
	return &EventBus{
		subscribers: make(map[string]Subscriber),
		observer:    observer,
	}
}

// Subscribe регистрирует подписчика; повторная регистрация с тем же ID заменяет прежнего
func (b *EventBus) Subscribe(sub Subscriber) {
	b.mu.Lock()
	b.subscribers[sub.ID()] = sub
	n := len(b.subscribers)
	b.mu.Unlock()

	if b.observer != nil {
		b.observer.SetWSSubscribers(n)
	}
	logger.Debug("✅ EventBus: подписчик %s подключен (всего %d)", sub.ID(), n)
}

// Tap подключает служебного наблюдателя (например, лог событий).
// Наблюдатели получают все события, но не считаются подписчиками и не попадают в статистику.
func (b *EventBus) Tap(sub Subscriber) {
	b.mu.Lock()
	b.taps = append(b.taps, sub)
	b.mu.Unlock()
	logger.Debug("👀 EventBus: наблюдатель %s подключен", sub.ID())
}

// Unsubscribe удаляет подписчика по ID
func (b *EventBus) Unsubscribe(id string) {
	b.mu.Lock()
	_, ok := b.subscribers[id]
	delete(b.subscribers, id)
	n := len(b.subscribers)
	b.mu.Unlock()

	if !ok {
		return
	}
	if b.observer != nil {
		b.observer.SetWSSubscribers(n)
	}
	logger.Debug("❌ EventBus: подписчик %s отключен (всего %d)", id, n)
}

// Publish рассылает событие всем подписчикам и возвращает число доставок
func (b *EventBus) Publish(event Event) int {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	b.mu.RLock()
	subs := make([]Subscriber, 0, len(b.subscribers))
	for _, s := range b.subscribers {
		subs = append(subs, s)
	}
	taps := b.taps
	b.mu.RUnlock()

	for _, t := range taps {
		t.Deliver(event)
	}

	delivered, dropped := 0, 0
	for _, s := range subs {
		if s.Deliver(event) {
			delivered++
			continue
		}
		dropped++
		if b.observer != nil {
			b.observer.IncWSDropped()
		}
		logger.Debug("⚠️ EventBus: очередь %s переполнена, событие %s отброшено", s.ID(), event.Type)
	}

	b.statsMu.Lock()
	b.stats.EventsPublished++
	b.stats.Deliveries += uint64(delivered)
	b.stats.Dropped += uint64(dropped)
	b.statsMu.Unlock()

	return delivered
}

// SubscriberCount возвращает количество подписчиков
func (b *EventBus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// SubscriberIDs возвращает отсортированные ID подписчиков
func (b *EventBus) SubscriberIDs() []string {
	b.mu.RLock()
	ids := make([]string, 0, len(b.subscribers))
	for id := range b.subscribers {
		ids = append(ids, id)
	}
	b.mu.RUnlock()

	sort.Strings(ids)
	return ids
}

// Stats возвращает копию счетчиков
func (b *EventBus) Stats() BusStats {
	b.statsMu.Lock()
	defer b.statsMu.Unlock()
	return b.stats
}

// Close отключает всех подписчиков и закрывает их очереди
func (b *EventBus) Close() {
	logger.Debug("🛑 EventBus: отключаем %v", b.SubscriberIDs())

	b.mu.Lock()
	subs := b.subscribers
	b.subscribers = make(map[string]Subscriber)
	b.taps = nil
	b.mu.Unlock()

	for _, s := range subs {
		if c, ok := s.(interface{ Close() }); ok {
			c.Close()
		}
	}
	if b.observer != nil {
		b.observer.SetWSSubscribers(0)
	}
	logger.Info("🛑 EventBus: отключено подписчиков: %d", len(subs))
}

// Name возвращает имя сервиса
func (b *EventBus) Name() string {
	return "EventBus"
}
