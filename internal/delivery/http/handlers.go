// internal/delivery/http/handlers.go
package httpapi

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"crypto-exchange-web/internal/core/domain/apperr"
	"crypto-exchange-web/internal/core/domain/chat"
	"crypto-exchange-web/internal/core/domain/market"
	"crypto-exchange-web/pkg/period"

	"github.com/gin-gonic/gin"
)

const (
	defaultSymbol = "BTCUSDT"
	defaultLimit  = 60
	maxKlineLimit = 1000

	defaultAmount = "1"
	defaultFrom   = "BTC"
	defaultTo     = "ETH"
)

type klinesResponse struct {
	Symbol   string         `json:"symbol"`
	Interval string         `json:"interval"`
	Data     []market.Kline `json:"data"`
}

type convertResponse struct {
	Amount float64 `json:"amount"`
	From   string  `json:"from"`
	To     string  `json:"to"`
	Result float64 `json:"result"`
}

type aiRequest struct {
	Text string `json:"text"`
	Sid  string `json:"sid"`
}

type aiResponse struct {
	Reply string `json:"reply"`
}

type statusResponse struct {
	Symbols      []string     `json:"symbols"`
	LastPush     int64        `json:"last_push"` // unix ms, 0 если рассылок не было
	Subscribers  int          `json:"subscribers"`
	Sessions     int          `json:"sessions"`
	CachedPrices []priceEntry `json:"cached_prices"`
	Events       *busStats    `json:"events,omitempty"`
}

type busStats struct {
	Published uint64 `json:"published"`
	Delivered uint64 `json:"delivered"`
	Dropped   uint64 `json:"dropped"`
}

type priceEntry struct {
	Symbol    string  `json:"symbol"`
	Price     float64 `json:"price"`
	UpdatedAt int64   `json:"updated_at"`
}

func symbolParam(c *gin.Context) string {
	s := strings.ToUpper(strings.TrimSpace(c.Query("symbol")))
	if s == "" {
		return defaultSymbol
	}
	return s
}

func queryOr(c *gin.Context, key, def string) string {
	if v := strings.TrimSpace(c.Query(key)); v != "" {
		return v
	}
	return def
}

// GET /api/ticker?symbol=S
func (s *Server) getTicker(c *gin.Context) {
	symbol := symbolParam(c)

	price, err := s.deps.Prices.Fetch(c.Request.Context(), symbol)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, market.NewPriceTick(symbol, price, time.Now()))
}

// GET /api/klines?symbol=S&interval=I&limit=L
func (s *Server) getKlines(c *gin.Context) {
	const op = "api.klines"

	symbol := symbolParam(c)
	interval := queryOr(c, "interval", period.DefaultInterval)
	if !period.IsValid(interval) {
		s.fail(c, apperr.Domain(op, "unsupported interval %q (supported: %s)", interval, period.Supported()))
		return
	}

	limit := defaultLimit
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxKlineLimit {
			s.fail(c, apperr.Domain(op, "limit must be an integer between 1 and %d, got %q", maxKlineLimit, raw))
			return
		}
		limit = n
	}

	klines, err := s.deps.Klines.GetKlines(c.Request.Context(), symbol, interval, limit)
	if err != nil {
		s.fail(c, err)
		return
	}
	if klines == nil {
		klines = []market.Kline{}
	}
	c.JSON(http.StatusOK, klinesResponse{Symbol: symbol, Interval: interval, Data: klines})
}

// GET /api/convert?amount=A&from=F&to=T
func (s *Server) getConvert(c *gin.Context) {
	const op = "api.convert"

	rawAmount := queryOr(c, "amount", defaultAmount)
	amount, err := strconv.ParseFloat(rawAmount, 64)
	if err != nil || math.IsNaN(amount) || math.IsInf(amount, 0) {
		s.fail(c, apperr.Domain(op, "invalid amount %q", rawAmount))
		return
	}

	from := strings.ToUpper(queryOr(c, "from", defaultFrom))
	to := strings.ToUpper(queryOr(c, "to", defaultTo))

	result, err := s.deps.Converter.Convert(c.Request.Context(), amount, from, to)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, convertResponse{Amount: amount, From: from, To: to, Result: result})
}

// POST /api/ai {text, sid}
func (s *Server) postAI(c *gin.Context) {
	const op = "api.ai"

	var req aiRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, apperr.New(apperr.KindDomain, op, err))
		return
	}
	if req.Sid == "" {
		req.Sid = chat.DefaultSessionID
	}

	reply := s.deps.Chat.Converse(c.Request.Context(), req.Sid, req.Text)
	c.JSON(http.StatusOK, aiResponse{Reply: reply})
}

// GET /api/status
func (s *Server) getStatus(c *gin.Context) {
	resp := statusResponse{
		Symbols:      market.Symbols(),
		CachedPrices: []priceEntry{},
	}

	if b := s.deps.Broadcaster; b != nil {
		resp.Symbols = b.Symbols()
		if lp := b.LastPush(); !lp.IsZero() {
			resp.LastPush = lp.UnixMilli()
		}
	}
	if s.deps.Subscribers != nil {
		resp.Subscribers = s.deps.Subscribers()
	}
	if s.deps.Sessions != nil {
		resp.Sessions = s.deps.Sessions()
	}
	if s.deps.Bus != nil {
		st := s.deps.Bus.Stats()
		resp.Events = &busStats{Published: st.EventsPublished, Delivered: st.Deliveries, Dropped: st.Dropped}
	}
	for _, snap := range s.deps.Prices.Snapshot() {
		resp.CachedPrices = append(resp.CachedPrices, priceEntry{
			Symbol:    snap.Symbol,
			Price:     snap.Price,
			UpdatedAt: snap.UpdatedAt.UnixMilli(),
		})
	}

	c.JSON(http.StatusOK, resp)
}
