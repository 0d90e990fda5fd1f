// internal/infrastructure/api/exchanges/binance/client.go
package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"crypto-exchange-web/internal/core/domain/apperr"
	"crypto-exchange-web/internal/core/domain/market"
	"crypto-exchange-web/internal/infrastructure/api"
	"crypto-exchange-web/internal/infrastructure/config"
)

const (
	defaultBaseURL = "https://api.binance.com"
	defaultTimeout = 10 * time.Second
)

var _ api.ExchangeClient = (*BinanceClient)(nil)

// BinanceClient - клиент для публичного Spot API Binance
type BinanceClient struct {
	httpClient *http.Client
	baseURL    string
}

// BinancePriceResponse - ответ /api/v3/ticker/price
type BinancePriceResponse struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

// NewBinanceClient создает нового клиента для Binance
func NewBinanceClient(cfg config.ExchangeConfig) *BinanceClient {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &BinanceClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
	}
}

// Name возвращает имя биржи
func (c *BinanceClient) Name() string {
	return "binance"
}

// GetPrice получает последнюю цену символа
func (c *BinanceClient) GetPrice(ctx context.Context, symbol string) (float64, error) {
	const op = "binance.GetPrice"

	params := url.Values{}
	params.Set("symbol", symbol)

	body, err := c.makeRequest(ctx, op, "/api/v3/ticker/price", params)
	if err != nil {
		return 0, err
	}

	var resp BinancePriceResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, apperr.Parse(op, fmt.Errorf("failed to parse price response: %w", err))
	}

	price, err := strconv.ParseFloat(resp.Price, 64)
	if err != nil {
		return 0, apperr.Parse(op, fmt.Errorf("invalid price %q for %s: %w", resp.Price, symbol, err))
	}

	return price, nil
}

// GetKlines получает свечи от старых к новым
func (c *BinanceClient) GetKlines(ctx context.Context, symbol, interval string, limit int) ([]market.Kline, error) {
	const op = "binance.GetKlines"

	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("interval", interval)
	params.Set("limit", strconv.Itoa(limit))

	body, err := c.makeRequest(ctx, op, "/api/v3/klines", params)
	if err != nil {
		return nil, err
	}

	var rows [][]json.RawMessage
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, apperr.Parse(op, fmt.Errorf("failed to parse klines response: %w", err))
	}

	klines := make([]market.Kline, 0, len(rows))
	for i, row := range rows {
		k, err := parseKlineRow(row)
		if err != nil {
			return nil, apperr.Parse(op, fmt.Errorf("kline #%d: %w", i, err))
		}
		klines = append(klines, k)
	}

	return klines, nil
}

// parseKlineRow разбирает строку [openTime, "open", "high", "low", "close", "volume", ...]
func parseKlineRow(row []json.RawMessage) (market.Kline, error) {
	if len(row) < 6 {
		return market.Kline{}, fmt.Errorf("expected at least 6 fields, got %d", len(row))
	}

	var k market.Kline
	if err := json.Unmarshal(row[0], &k.OpenTime); err != nil {
		return market.Kline{}, fmt.Errorf("open time: %w", err)
	}

	fields := []*float64{&k.Open, &k.High, &k.Low, &k.Close, &k.Volume}
	for i, dst := range fields {
		v, err := parseNumber(row[i+1])
		if err != nil {
			return market.Kline{}, fmt.Errorf("field %d: %w", i+1, err)
		}
		*dst = v
	}

	return k, nil
}

// parseNumber принимает как "123.4", так и 123.4
func parseNumber(raw json.RawMessage) (float64, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strconv.ParseFloat(s, 64)
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, err
	}
	return f, nil
}

// makeRequest выполняет GET запрос
func (c *BinanceClient) makeRequest(ctx context.Context, op, endpoint string, params url.Values) ([]byte, error) {
	apiURL := c.baseURL + endpoint
	if len(params) > 0 {
		apiURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, apperr.Network(op, fmt.Errorf("failed to create request: %w", err))
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "CryptoExchangeWeb/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperr.Network(op, fmt.Errorf("failed to make request: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.Network(op, fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		return nil, apperr.Upstream(op, "binance API returned status %d: %s", resp.StatusCode, upstreamMessage(body))
	}

	return body, nil
}

// upstreamMessage достает msg из {"code":-1121,"msg":"Invalid symbol."}
func upstreamMessage(body []byte) string {
	var e struct {
		Code int    `json:"code"`
		Msg  string `json:"msg"`
	}
	if err := json.Unmarshal(body, &e); err == nil && e.Msg != "" {
		return e.Msg
	}
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200]
	}
	if s == "" {
		return "empty body"
	}
	return s
}
