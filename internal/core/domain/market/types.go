// internal/core/domain/market/types.go
package market

import (
	"strings"
	"time"
)

// QuoteAsset - общая котируемая валюта для кросс-курсов
const QuoteAsset = "USDT"

// SupportedSymbols - фиксированный список пар для рассылки
var SupportedSymbols = []string{"BTCUSDT", "ETHUSDT", "SOLUSDT", "BNBUSDT", "DOGEUSDT", "XRPUSDT"}

// Symbols возвращает копию списка поддерживаемых пар
func Symbols() []string {
	out := make([]string, len(SupportedSymbols))
	copy(out, SupportedSymbols)
	return out
}

// NormalizePair приводит символ к паре с QuoteAsset: "btc" -> "BTCUSDT"
func NormalizePair(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if strings.HasSuffix(s, QuoteAsset) {
		return s
	}
	return s + QuoteAsset
}

// Kline - свеча OHLCV
type Kline struct {
	OpenTime int64   `json:"t"` // unix ms
	Open     float64 `json:"o"`
	High     float64 `json:"h"`
	Low      float64 `json:"l"`
	Close    float64 `json:"c"`
	Volume   float64 `json:"v"`
}

// PriceTick - цена символа на момент запроса
type PriceTick struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
	TS     int64   `json:"ts"` // unix ms
}

// NewPriceTick создает тик с меткой времени t
func NewPriceTick(symbol string, price float64, t time.Time) PriceTick {
	return PriceTick{Symbol: symbol, Price: price, TS: t.UnixMilli()}
}
