// internal/infrastructure/transport/event_bus/subscribers.go
package events

import (
	"sync"

	"crypto-exchange-web/pkg/logger"
)

// ChannelSubscriber - подписчик с ограниченной очередью отправки.
// Когда очередь заполнена, новые события отбрасываются.
type ChannelSubscriber struct {
	id string
	ch chan Event

	mu     sync.Mutex
	closed bool
}

// NewChannelSubscriber создает подписчика с очередью размера buffer (минимум 1)
func NewChannelSubscriber(id string, buffer int) *ChannelSubscriber {
	if buffer < 1 {
		buffer = 1
	}
	return &ChannelSubscriber{id: id, ch: make(chan Event, buffer)}
}

func (s *ChannelSubscriber) ID() string { return s.id }

// Deliver кладет событие в очередь без ожидания
func (s *ChannelSubscriber) Deliver(event Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}

	select {
	case s.ch <- event:
		return true
	default:
		return false
	}
}

// C - канал для чтения событий писателем соединения
func (s *ChannelSubscriber) C() <-chan Event {
	return s.ch
}

// Close закрывает очередь; повторный вызов безопасен
func (s *ChannelSubscriber) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}

// LoggerSubscriber пишет события шины в DEBUG-лог
type LoggerSubscriber struct{}

func NewLoggerSubscriber() *LoggerSubscriber {
	return &LoggerSubscriber{}
}

func (LoggerSubscriber) ID() string { return "console_logger" }

func (LoggerSubscriber) Deliver(event Event) bool {
	logger.Debug("💰 %s [%s]: %v", event.Type, event.ID, event.Data)
	return true
}
