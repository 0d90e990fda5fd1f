// internal/delivery/ws/handler.go
package ws

import (
	"context"
	"errors"
	"net/http"
	"time"

	events "crypto-exchange-web/internal/infrastructure/transport/event_bus"
	"crypto-exchange-web/pkg/logger"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
)

const (
	helloMessage = "connected"
	writeTimeout = 10 * time.Second
)

// Handler - точка подключения клиентов канала реального времени.
// Каждый клиент получает hello, затем события шины через собственную очередь.
type Handler struct {
	bus        *events.EventBus
	symbols    []string
	sendBuffer int
}

// NewHandler создает обработчик websocket-подключений
func NewHandler(bus *events.EventBus, symbols []string, sendBuffer int) *Handler {
	return &Handler{
		bus:        bus,
		symbols:    symbols,
		sendBuffer: sendBuffer,
	}
}

// ServeHTTP принимает соединение и обслуживает его до отключения клиента
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		logger.Warn("⚠️ WS: не удалось принять соединение от %s: %v", r.RemoteAddr, err)
		return
	}
	defer conn.CloseNow()

	id := uuid.New().String()
	// входящие сообщения не ожидаются, CloseRead отменит ctx при отключении
	ctx := conn.CloseRead(r.Context())

	hello := events.Event{
		Type: events.EventHello,
		Data: events.HelloData{Msg: helloMessage, Symbols: h.symbols},
	}
	if err := write(ctx, conn, hello); err != nil {
		logger.Debug("WS %s: hello не отправлен: %v", id, err)
		return
	}

	sub := events.NewChannelSubscriber(id, h.sendBuffer)
	h.bus.Subscribe(sub)
	defer func() {
		h.bus.Unsubscribe(id)
		sub.Close()
	}()

	logger.Info("🔌 WS %s: клиент подключен (%s)", id, r.RemoteAddr)

	for {
		select {
		case <-ctx.Done():
			logger.Info("🔌 WS %s: клиент отключен", id)
			return
		case ev, ok := <-sub.C():
			if !ok {
				conn.Close(websocket.StatusGoingAway, "server shutdown")
				return
			}
			if err := write(ctx, conn, ev); err != nil {
				if !errors.Is(err, context.Canceled) {
					logger.Warn("⚠️ WS %s: ошибка отправки %s: %v", id, ev.Type, err)
				}
				return
			}
		}
	}
}

func write(ctx context.Context, conn *websocket.Conn, ev events.Event) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, ev)
}
