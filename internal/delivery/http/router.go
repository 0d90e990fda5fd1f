// internal/delivery/http/router.go
package httpapi

import (
	"context"
	"net/http"
	"time"

	"crypto-exchange-web/internal/core/domain/market"
	storage "crypto-exchange-web/internal/infrastructure/persistence/in_memory_storage"
	events "crypto-exchange-web/internal/infrastructure/transport/event_bus"

	"github.com/gin-gonic/gin"
)

// PriceService - кэш цен с принудительным обновлением
type PriceService interface {
	Fetch(ctx context.Context, symbol string) (float64, error)
	Snapshot() []storage.PriceSnapshot
}

// KlineFetcher - источник свечей
type KlineFetcher interface {
	GetKlines(ctx context.Context, symbol, interval string, limit int) ([]market.Kline, error)
}

// Converter - пересчет суммы между символами
type Converter interface {
	Convert(ctx context.Context, amount float64, from, to string) (float64, error)
}

// Chat - ретранслятор диалога в генеративную модель
type Chat interface {
	Converse(ctx context.Context, sessionID, text string) string
}

// BroadcastStatus - состояние цикла рассылки
type BroadcastStatus interface {
	LastPush() time.Time
	Symbols() []string
}

// BusStats - счетчики шины реального времени
type BusStats interface {
	Stats() events.BusStats
}

// Counter возвращает текущее количество (подписчиков, сессий)
type Counter func() int

// RequestObserver получает итог каждого HTTP-запроса
type RequestObserver interface {
	ObserveHTTP(method, path string, status int)
}

// Deps - зависимости HTTP-слоя
type Deps struct {
	Prices      PriceService
	Klines      KlineFetcher
	Converter   Converter
	Chat        Chat
	Broadcaster BroadcastStatus
	Subscribers Counter
	Bus         BusStats
	Sessions    Counter
	Observer    RequestObserver

	// WS - обработчик канала реального времени (/ws)
	WS http.Handler
	// Metrics - обработчик /metrics
	Metrics http.Handler
}

// Server - HTTP API сервиса
type Server struct {
	deps Deps
	R    *gin.Engine
}

// NewServer собирает роутер, middleware и маршруты
func NewServer(deps Deps) *Server {
	g := gin.New()
	g.Use(requestLogger(deps.Observer))
	g.Use(gin.Recovery())

	s := &Server{deps: deps, R: g}

	g.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	api := g.Group("/api")
	api.GET("/ticker", s.getTicker)
	api.GET("/klines", s.getKlines)
	api.GET("/convert", s.getConvert)
	api.POST("/ai", s.postAI)
	api.GET("/status", s.getStatus)

	if deps.WS != nil {
		g.GET("/ws", gin.WrapH(deps.WS))
	}
	if deps.Metrics != nil {
		g.GET("/metrics", gin.WrapH(deps.Metrics))
	}

	return s
}

// Handler возвращает корневой http.Handler
func (s *Server) Handler() http.Handler {
	return s.R
}
