package converter

import (
	"context"
	"errors"
	"math"
	"testing"

	"crypto-exchange-web/internal/core/domain/apperr"
	storage "crypto-exchange-web/internal/infrastructure/persistence/in_memory_storage"
)

type fakePrices struct {
	prices map[string]float64
	err    error
	calls  int
}

func (f *fakePrices) GetOrFetch(_ context.Context, symbol string) (float64, error) {
	f.calls++
	if f.err != nil {
		return 0, f.err
	}
	p, ok := f.prices[symbol]
	if !ok {
		return 0, apperr.Upstream("fake", "unknown symbol %s", symbol)
	}
	return p, nil
}

func TestConvertSameSymbolSkipsLookup(t *testing.T) {
	f := &fakePrices{}
	c := NewConverter(f)

	for _, amount := range []float64{0, 1, 2.5, -3, 1e9} {
		got, err := c.Convert(context.Background(), amount, "btc", "BTC")
		if err != nil {
			t.Fatalf("Convert: %v", err)
		}
		if got != amount {
			t.Errorf("Convert(%v) = %v, want unchanged", amount, got)
		}
	}
	if f.calls != 0 {
		t.Errorf("price lookups = %d, want 0", f.calls)
	}
}

func TestConvertCrossRate(t *testing.T) {
	f := &fakePrices{prices: map[string]float64{"BTCUSDT": 50000, "ETHUSDT": 2500, "USDT": 1}}
	c := NewConverter(f)

	tests := []struct {
		amount   float64
		from, to string
		want     float64
	}{
		{2, "BTC", "ETH", 40},
		{1, "eth", "btcusdt", 0.05},
		{10, "ETHUSDT", "BTC", 0.5},
	}
	for _, tt := range tests {
		got, err := c.Convert(context.Background(), tt.amount, tt.from, tt.to)
		if err != nil {
			t.Fatalf("Convert(%v %s->%s): %v", tt.amount, tt.from, tt.to, err)
		}
		if math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("Convert(%v %s->%s) = %v, want %v", tt.amount, tt.from, tt.to, got, tt.want)
		}
	}
}

func TestConvertZeroPriceIsDomainError(t *testing.T) {
	f := &fakePrices{prices: map[string]float64{"BTCUSDT": 50000, "DEADUSDT": 0}}
	c := NewConverter(f)

	_, err := c.Convert(context.Background(), 1, "BTC", "DEAD")
	if !apperr.Is(err, apperr.KindDomain) {
		t.Errorf("kind = %q, want domain (%v)", apperr.KindOf(err), err)
	}

	_, err = c.Convert(context.Background(), 1, "DEAD", "BTC")
	if !apperr.Is(err, apperr.KindDomain) {
		t.Errorf("kind = %q, want domain (%v)", apperr.KindOf(err), err)
	}
}

func TestConvertPropagatesLookupError(t *testing.T) {
	netErr := apperr.Network("fake", errors.New("timeout"))
	c := NewConverter(&fakePrices{err: netErr})

	_, err := c.Convert(context.Background(), 1, "BTC", "ETH")
	if !errors.Is(err, netErr) {
		t.Errorf("expected wrapped network error, got %v", err)
	}
	if !apperr.Is(err, apperr.KindNetwork) {
		t.Errorf("kind = %q", apperr.KindOf(err))
	}
}

func TestConvertEmptySymbol(t *testing.T) {
	c := NewConverter(&fakePrices{})
	_, err := c.Convert(context.Background(), 1, "", "ETH")
	if !apperr.Is(err, apperr.KindDomain) {
		t.Errorf("kind = %q, want domain", apperr.KindOf(err))
	}
}

type mutableExchange struct {
	prices map[string]float64
}

func (m *mutableExchange) GetPrice(_ context.Context, symbol string) (float64, error) {
	p, ok := m.prices[symbol]
	if !ok {
		return 0, apperr.Upstream("exchange", "unknown symbol %s", symbol)
	}
	return p, nil
}

func TestConvertUsesStaleCachedPrice(t *testing.T) {
	ex := &mutableExchange{prices: map[string]float64{"BTCUSDT": 50000, "ETHUSDT": 2500}}
	cache := storage.NewPriceCache(ex)
	c := NewConverter(cache)
	ctx := context.Background()

	if got, _ := c.Convert(ctx, 1, "BTC", "ETH"); got != 20 {
		t.Fatalf("first convert = %v, want 20", got)
	}

	ex.prices["BTCUSDT"] = 100000
	if got, _ := c.Convert(ctx, 1, "BTC", "ETH"); got != 20 {
		t.Errorf("convert after upstream change = %v, want stale 20", got)
	}

	if _, err := cache.Fetch(ctx, "BTCUSDT"); err != nil {
		t.Fatal(err)
	}
	if got, _ := c.Convert(ctx, 1, "BTC", "ETH"); got != 40 {
		t.Errorf("convert after refetch = %v, want 40", got)
	}
}

func TestConvertKeepsPrecisionOfSmallCrossRates(t *testing.T) {
	tests := []struct {
		amount, pFrom, pTo float64
	}{
		{0.001, 2e-06, 60000},
		{1, 1.234e-05, 67000},
		{1e-9, 1e-08, 90000},
		{5, 0.5, 3},
	}
	for _, tt := range tests {
		f := &fakePrices{prices: map[string]float64{"AAAUSDT": tt.pFrom, "BBBUSDT": tt.pTo}}
		got, err := NewConverter(f).Convert(context.Background(), tt.amount, "AAA", "BBB")
		if err != nil {
			t.Fatalf("Convert: %v", err)
		}
		want := tt.amount * tt.pFrom / tt.pTo
		if got == 0 || math.Abs(got-want)/want > 1e-12 {
			t.Errorf("Convert(%v, %v/%v) = %v, want %v", tt.amount, tt.pFrom, tt.pTo, got, want)
		}
	}
}

func TestConvertOverflowIsDomainError(t *testing.T) {
	f := &fakePrices{prices: map[string]float64{"BTCUSDT": 50000, "ETHUSDT": 2500}}
	c := NewConverter(f)

	got, err := c.Convert(context.Background(), 1e308, "BTC", "ETH")
	if !apperr.Is(err, apperr.KindDomain) {
		t.Fatalf("Convert(1e308) = %v, %v; want domain error", got, err)
	}
	if got != 0 {
		t.Errorf("result = %v, want 0 on error", got)
	}
}
