// internal/infrastructure/transport/event_bus/event.go
package events

import "time"

// EventType - имя события в канале реального времени
type EventType string

const (
	// EventHello отправляется клиенту сразу после подключения
	EventHello EventType = "hello"
	// EventPrices - пакет цен одного такта рассылки
	EventPrices EventType = "prices"
)

// Event - сообщение шины. На проводе сериализуется как {"event": ..., "data": ...}.
type Event struct {
	ID        string    `json:"-"`
	Type      EventType `json:"event"`
	Source    string    `json:"-"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"-"`
}

// HelloData - полезная нагрузка события hello
type HelloData struct {
	Msg     string   `json:"msg"`
	Symbols []string `json:"symbols"`
}

// Subscriber - получатель событий шины.
// Deliver не должен блокироваться; false означает, что событие отброшено.
type Subscriber interface {
	ID() string
	Deliver(event Event) bool
}

// Observer получает счетчики шины
type Observer interface {
	IncWSDropped()
	SetWSSubscribers(n int)
}
