package storage

import (
	"context"
	"time"

	"crypto-exchange-web/internal/infrastructure/api"
)

// PriceSnapshot текущий снапшот цены
type PriceSnapshot struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PriceMirror - внешнее зеркало кэша цен (Redis)
type PriceMirror interface {
	SetPrice(ctx context.Context, symbol string, price float64) error
	GetPrice(ctx context.Context, symbol string) (float64, bool, error)
}

// Turn - сообщение диалога
type Turn = api.ChatTurn
