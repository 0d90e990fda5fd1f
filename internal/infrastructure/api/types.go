// internal/infrastructure/api/types.go
package api

import (
	"context"

	"crypto-exchange-web/internal/core/domain/market"
)

// PriceFetcher - получение последней цены символа
type PriceFetcher interface {
	GetPrice(ctx context.Context, symbol string) (float64, error)
}

// KlineFetcher - получение свечей
type KlineFetcher interface {
	GetKlines(ctx context.Context, symbol, interval string, limit int) ([]market.Kline, error)
}

// ExchangeClient интерфейс для клиентов бирж
type ExchangeClient interface {
	PriceFetcher
	KlineFetcher
	Name() string
}

// Роли сообщений диалога
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// ChatTurn - одно сообщение диалога для AI
type ChatTurn struct {
	Role string `json:"role"` // "user" | "model"
	Text string `json:"text"`
}

// CompletionClient - генеративная модель, принимающая весь диалог
type CompletionClient interface {
	Generate(ctx context.Context, turns []ChatTurn) (string, error)
}
