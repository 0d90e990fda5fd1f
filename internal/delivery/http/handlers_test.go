package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"crypto-exchange-web/internal/core/domain/apperr"
	"crypto-exchange-web/internal/core/domain/chat"
	"crypto-exchange-web/internal/core/domain/converter"
	"crypto-exchange-web/internal/infrastructure/api/ai/gemini"
	"crypto-exchange-web/internal/infrastructure/api/exchanges/binance"
	"crypto-exchange-web/internal/infrastructure/config"
	storage "crypto-exchange-web/internal/infrastructure/persistence/in_memory_storage"
	events "crypto-exchange-web/internal/infrastructure/transport/event_bus"

	"github.com/gin-gonic/gin"
)

// fakeBinance отдает цены из карты; неизвестный символ -> 400 как у Binance
type fakeBinance struct {
	mu     sync.Mutex
	prices map[string]string
	hits   map[string]int
}

func (f *fakeBinance) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Query().Get("symbol")
	f.mu.Lock()
	f.hits[symbol]++
	price, ok := f.prices[symbol]
	f.mu.Unlock()

	switch r.URL.Path {
	case "/api/v3/ticker/price":
		if !ok {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"code":-1121,"msg":"Invalid symbol."}`)
			return
		}
		fmt.Fprintf(w, `{"symbol":%q,"price":%q}`, symbol, price)
	case "/api/v3/klines":
		fmt.Fprint(w, `[[1700000000000,"1","2","0.5","1.5","100",1700000059999,"150",10,"50","75","0"],`+
			`[1700000060000,"1.5","2.5","1","2","200",1700000119999,"300",20,"100","150","0"]]`)
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeBinance) hitCount(symbol string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[symbol]
}

// fakeGemini отвечает эхом последнего сообщения
func fakeGemini(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Contents []struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"contents"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	last := req.Contents[len(req.Contents)-1].Parts[0].Text
	if last == "fail" {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"code":429,"message":"quota exceeded","status":"RESOURCE_EXHAUSTED"}}`)
		return
	}
	fmt.Fprintf(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":%q}]}}]}`,
		fmt.Sprintf("echo(%d): %s", len(req.Contents), last))
}

type testEnv struct {
	server   *Server
	exchange *fakeBinance
	sessions *storage.SessionStore
	cache    *storage.PriceCache
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	exchange := &fakeBinance{
		prices: map[string]string{"BTCUSDT": "50000.00", "ETHUSDT": "2500.00"},
		hits:   map[string]int{},
	}
	exSrv := httptest.NewServer(exchange)
	t.Cleanup(exSrv.Close)

	aiSrv := httptest.NewServer(http.HandlerFunc(fakeGemini))
	t.Cleanup(aiSrv.Close)

	client := binance.NewBinanceClient(config.ExchangeConfig{BaseURL: exSrv.URL, Timeout: 2 * time.Second})
	cache := storage.NewPriceCache(client)
	sessions := storage.NewSessionStore()
	relay := chat.NewRelay(
		gemini.New("test-key", gemini.WithBaseURL(aiSrv.URL), gemini.WithTimeout(2*time.Second)),
		sessions,
		chat.Config{PersistErrorReplies: true},
		nil,
	)

	s := NewServer(Deps{
		Prices:    cache,
		Klines:    client,
		Converter: converter.NewConverter(cache),
		Chat:      relay,
		Sessions:  sessions.Count,
	})
	return &testEnv{server: s, exchange: exchange, sessions: sessions, cache: cache}
}

func (e *testEnv) do(t *testing.T, method, target string, body []byte) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)

	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("%s %s: invalid JSON %q: %v", method, target, rec.Body.String(), err)
	}
	return rec, out
}

func TestTicker(t *testing.T) {
	env := newTestEnv(t)

	rec, out := env.do(t, "GET", "/api/ticker?symbol=btcusdt", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if out["symbol"] != "BTCUSDT" || out["price"] != 50000.0 {
		t.Errorf("body = %v", out)
	}
	if _, ok := out["ts"].(float64); !ok {
		t.Errorf("ts missing: %v", out)
	}

	if p, ok := env.cache.Get("BTCUSDT"); !ok || p != 50000 {
		t.Errorf("ticker must write through to cache, got %v %v", p, ok)
	}
}

func TestTickerDefaultsToBTC(t *testing.T) {
	env := newTestEnv(t)
	_, out := env.do(t, "GET", "/api/ticker", nil)
	if out["symbol"] != "BTCUSDT" {
		t.Errorf("symbol = %v, want BTCUSDT", out["symbol"])
	}
}

func TestTickerUpstreamError(t *testing.T) {
	env := newTestEnv(t)

	rec, out := env.do(t, "GET", "/api/ticker?symbol=NOPEUSDT", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if _, ok := out["error"].(string); !ok {
		t.Errorf("error field missing: %v", out)
	}
	if out["kind"] != "upstream" {
		t.Errorf("kind = %v, want upstream", out["kind"])
	}
}

func TestKlines(t *testing.T) {
	env := newTestEnv(t)

	rec, out := env.do(t, "GET", "/api/klines?symbol=ethusdt", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if out["symbol"] != "ETHUSDT" || out["interval"] != "1m" {
		t.Errorf("body = %v", out)
	}
	data, _ := out["data"].([]any)
	if len(data) != 2 {
		t.Fatalf("data len = %d, want 2", len(data))
	}
	first := data[0].(map[string]any)
	if first["t"] != 1700000000000.0 || first["c"] != 1.5 || first["v"] != 100.0 {
		t.Errorf("first candle = %v", first)
	}
}

func TestKlinesInvalidLimit(t *testing.T) {
	env := newTestEnv(t)

	for _, limit := range []string{"abc", "0", "5000"} {
		rec, out := env.do(t, "GET", "/api/klines?limit="+limit, nil)
		if rec.Code != http.StatusBadRequest || out["kind"] != "domain" {
			t.Errorf("limit=%s: status %d body %v", limit, rec.Code, out)
		}
	}
}

func TestKlinesInvalidInterval(t *testing.T) {
	env := newTestEnv(t)
	rec, out := env.do(t, "GET", "/api/klines?interval=7m", nil)
	if rec.Code != http.StatusBadRequest || out["kind"] != "domain" {
		t.Errorf("status %d body %v", rec.Code, out)
	}
}

func TestConvert(t *testing.T) {
	env := newTestEnv(t)

	rec, out := env.do(t, "GET", "/api/convert?amount=2&from=btc&to=eth", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if out["result"] != 40.0 {
		t.Errorf("result = %v, want 40", out["result"])
	}
	if out["from"] != "BTC" || out["to"] != "ETH" || out["amount"] != 2.0 {
		t.Errorf("body = %v", out)
	}

	// повторная конвертация берет цены из кэша
	env.do(t, "GET", "/api/convert?amount=3&from=BTC&to=ETH", nil)
	if n := env.exchange.hitCount("BTCUSDT"); n != 1 {
		t.Errorf("BTCUSDT fetched %d times, want 1", n)
	}
}

func TestConvertDefaults(t *testing.T) {
	env := newTestEnv(t)
	_, out := env.do(t, "GET", "/api/convert", nil)
	if out["amount"] != 1.0 || out["from"] != "BTC" || out["to"] != "ETH" || out["result"] != 20.0 {
		t.Errorf("body = %v", out)
	}
}

func TestConvertSameSymbolSkipsExchange(t *testing.T) {
	env := newTestEnv(t)
	_, out := env.do(t, "GET", "/api/convert?amount=7&from=doge&to=DOGE", nil)
	if out["result"] != 7.0 {
		t.Errorf("result = %v, want 7", out["result"])
	}
	if n := env.exchange.hitCount("DOGEUSDT"); n != 0 {
		t.Errorf("exchange called %d times", n)
	}
}

func TestConvertMalformedAmount(t *testing.T) {
	env := newTestEnv(t)

	for _, amount := range []string{"abc", "NaN", "Inf"} {
		rec, out := env.do(t, "GET", "/api/convert?amount="+amount, nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("amount=%s: status = %d, want 400", amount, rec.Code)
		}
		if msg, _ := out["error"].(string); msg == "" {
			t.Errorf("amount=%s: error field missing: %v", amount, out)
		}
	}
}

func TestConvertOverflowIs400(t *testing.T) {
	env := newTestEnv(t)

	rec, out := env.do(t, "GET", "/api/convert?amount=1e308&from=BTC&to=ETH", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 (body %s)", rec.Code, rec.Body)
	}
	if out["kind"] != "domain" {
		t.Errorf("kind = %v, want domain", out["kind"])
	}
	if msg, _ := out["error"].(string); msg == "" {
		t.Errorf("error field missing: %v", out)
	}
}

func TestAIConversation(t *testing.T) {
	env := newTestEnv(t)

	body, _ := json.Marshal(map[string]string{"text": "hello", "sid": "abc"})
	rec, out := env.do(t, "POST", "/api/ai", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	// стилевое сообщение + вопрос
	if out["reply"] != "echo(2): hello" {
		t.Errorf("reply = %v", out["reply"])
	}

	body, _ = json.Marshal(map[string]string{"text": "again", "sid": "abc"})
	_, out = env.do(t, "POST", "/api/ai", body)
	if out["reply"] != "echo(4): again" {
		t.Errorf("second reply = %v", out["reply"])
	}
	if env.sessions.Count() != 1 {
		t.Errorf("sessions = %d, want 1", env.sessions.Count())
	}
}

func TestAIDefaultSessionAndErrorReply(t *testing.T) {
	env := newTestEnv(t)

	body, _ := json.Marshal(map[string]string{"text": "fail"})
	rec, out := env.do(t, "POST", "/api/ai", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("AI failures must not fail the request, status %d", rec.Code)
	}
	reply, _ := out["reply"].(string)
	if !strings.HasPrefix(reply, "[Ошибка AI] ") || !strings.Contains(reply, "quota exceeded") {
		t.Errorf("reply = %q", reply)
	}
	if tr := env.sessions.Transcript(chat.DefaultSessionID); len(tr) != 3 {
		t.Errorf("global transcript len = %d, want 3", len(tr))
	}
}

func TestAIMalformedBody(t *testing.T) {
	env := newTestEnv(t)
	rec, out := env.do(t, "POST", "/api/ai", []byte("{not json"))
	if rec.Code != http.StatusBadRequest || out["kind"] != "domain" {
		t.Errorf("status %d body %v", rec.Code, out)
	}
}

func TestStatusAndHealth(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, "GET", "/api/ticker?symbol=ETHUSDT", nil)

	rec, out := env.do(t, "GET", "/api/status", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if out["last_push"] != 0.0 {
		t.Errorf("last_push = %v, want 0", out["last_push"])
	}
	if syms, _ := out["symbols"].([]any); len(syms) != 6 {
		t.Errorf("symbols = %v", out["symbols"])
	}
	cached, _ := out["cached_prices"].([]any)
	if len(cached) != 1 || cached[0].(map[string]any)["symbol"] != "ETHUSDT" {
		t.Errorf("cached_prices = %v", out["cached_prices"])
	}

	rec, out = env.do(t, "GET", "/healthz", nil)
	if rec.Code != http.StatusOK || out["status"] != "ok" {
		t.Errorf("healthz: %d %v", rec.Code, out)
	}
}

func TestStatusReportsBusEvents(t *testing.T) {
	env := newTestEnv(t)

	bus := events.NewEventBus(nil)
	bus.Subscribe(events.NewChannelSubscriber("client", 1))
	bus.Publish(events.Event{Type: events.EventPrices})
	bus.Publish(events.Event{Type: events.EventPrices})

	env.server = NewServer(Deps{
		Prices:      env.cache,
		Subscribers: bus.SubscriberCount,
		Bus:         bus,
	})

	_, out := env.do(t, "GET", "/api/status", nil)
	if out["subscribers"] != 1.0 {
		t.Errorf("subscribers = %v, want 1", out["subscribers"])
	}
	ev, ok := out["events"].(map[string]any)
	if !ok {
		t.Fatalf("events missing: %v", out)
	}
	if ev["published"] != 2.0 || ev["delivered"] != 1.0 || ev["dropped"] != 1.0 {
		t.Errorf("events = %v", ev)
	}
}

func TestStatusForKindAlways400(t *testing.T) {
	for _, k := range []string{"network", "upstream", "parse", "domain", "unknown", ""} {
		if got := statusForKind(apperr.Kind(k)); got != http.StatusBadRequest {
			t.Errorf("kind %q -> %d", k, got)
		}
	}
}
