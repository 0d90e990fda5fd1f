// internal/core/domain/converter/converter.go
package converter

import (
	"context"
	"fmt"
	"math"
	"strings"

	"crypto-exchange-web/internal/core/domain/apperr"
	"crypto-exchange-web/internal/core/domain/market"

	"github.com/shopspring/decimal"
)

const (
	// significantDigits - точность частного в значащих цифрах
	significantDigits = 24
	// minDivisionPlaces - минимум знаков после запятой при делении
	minDivisionPlaces = 16
)

// PriceSource - источник цен в котируемой валюте (кэш цен)
type PriceSource interface {
	GetOrFetch(ctx context.Context, symbol string) (float64, error)
}

// Converter считает кросс-курс через общую котируемую валюту
type Converter struct {
	prices PriceSource
}

// NewConverter создает конвертер
func NewConverter(prices PriceSource) *Converter {
	return &Converter{prices: prices}
}

// Convert пересчитывает amount из from в to: amount * price(from) / price(to)
func (c *Converter) Convert(ctx context.Context, amount float64, from, to string) (float64, error) {
	const op = "converter.Convert"

	from = strings.ToUpper(strings.TrimSpace(from))
	to = strings.ToUpper(strings.TrimSpace(to))
	if from == "" || to == "" {
		return 0, apperr.Domain(op, "both 'from' and 'to' symbols are required")
	}
	if from == to {
		return amount, nil
	}

	pFrom, err := c.quotePrice(ctx, from)
	if err != nil {
		return 0, err
	}
	pTo, err := c.quotePrice(ctx, to)
	if err != nil {
		return 0, err
	}

	num := decimal.NewFromFloat(amount).Mul(decimal.NewFromFloat(pFrom))
	den := decimal.NewFromFloat(pTo)

	f := num.DivRound(den, divisionPlaces(num, den)).InexactFloat64()
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, apperr.Domain(op, "result of %v %s -> %s overflows float64", amount, from, to)
	}
	return f, nil
}

// divisionPlaces подбирает число знаков после запятой так, чтобы
// частное num/den сохранило significantDigits значащих цифр
func divisionPlaces(num, den decimal.Decimal) int32 {
	if num.IsZero() {
		return minDivisionPlaces
	}
	magnitude := (num.NumDigits() + int(num.Exponent())) - (den.NumDigits() + int(den.Exponent()))
	places := significantDigits - magnitude
	if places < minDivisionPlaces {
		places = minDivisionPlaces
	}
	return int32(places)
}

// quotePrice возвращает положительную цену пары SYM+USDT
func (c *Converter) quotePrice(ctx context.Context, symbol string) (float64, error) {
	pair := market.NormalizePair(symbol)

	price, err := c.prices.GetOrFetch(ctx, pair)
	if err != nil {
		return 0, fmt.Errorf("price for %s: %w", pair, err)
	}
	if price <= 0 {
		return 0, apperr.Domain("converter.Convert", "price for %s is %v, cannot convert", pair, price)
	}
	return price, nil
}
