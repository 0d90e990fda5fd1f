// application/bootstrap/app.go
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"crypto-exchange-web/application/scheduler"
	"crypto-exchange-web/internal/core/domain/chat"
	"crypto-exchange-web/internal/core/domain/converter"
	"crypto-exchange-web/internal/core/domain/market"
	httpapi "crypto-exchange-web/internal/delivery/http"
	"crypto-exchange-web/internal/delivery/ws"
	"crypto-exchange-web/internal/infrastructure/api"
	"crypto-exchange-web/internal/infrastructure/api/ai/gemini"
	"crypto-exchange-web/internal/infrastructure/api/exchanges/binance"
	redisCache "crypto-exchange-web/internal/infrastructure/cache/redis"
	"crypto-exchange-web/internal/infrastructure/config"
	"crypto-exchange-web/internal/infrastructure/metrics"
	storage "crypto-exchange-web/internal/infrastructure/persistence/in_memory_storage"
	events "crypto-exchange-web/internal/infrastructure/transport/event_bus"
	"crypto-exchange-web/pkg/logger"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

const (
	shutdownTimeout   = 5 * time.Second
	redisStartTimeout = 5 * time.Second
	warmupTimeout     = 5 * time.Second
)

// Application владеет всем состоянием процесса: кэшем цен, сессиями,
// шиной подписчиков и фоновым циклом рассылки.
type Application struct {
	config *config.Config

	metrics     *metrics.Metrics
	exchange    api.ExchangeClient
	completer   api.CompletionClient
	redis       *redisCache.RedisService
	prices      *storage.PriceCache
	sessions    *storage.SessionStore
	relay       *chat.Relay
	converter   *converter.Converter
	bus         *events.EventBus
	broadcaster *scheduler.PriceBroadcaster
	server      *httpapi.Server

	eventLogging bool

	mu        sync.RWMutex
	running   bool
	startTime time.Time
	addr      string
}

// NewApplication создает приложение с клиентами по умолчанию (Binance, Gemini)
func NewApplication(cfg *config.Config) (*Application, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	return &Application{config: cfg}, nil
}

// Initialize собирает компоненты. Вызывается из Build.
func (app *Application) Initialize() error {
	cfg := app.config

	if !cfg.IsDev() {
		gin.SetMode(gin.ReleaseMode)
	}

	if app.metrics == nil {
		app.metrics = metrics.New()
	}
	if app.exchange == nil {
		app.exchange = binance.NewBinanceClient(cfg.Exchange)
	}
	if app.completer == nil {
		gc := gemini.New(cfg.AI.APIKey,
			gemini.WithBaseURL(cfg.AI.BaseURL),
			gemini.WithModel(cfg.AI.Model),
			gemini.WithTimeout(cfg.AI.Timeout),
		)
		logger.Info("🧠 Gemini: модель %s", gc.Model())
		app.completer = gc
	}

	var cacheOpts []storage.PriceCacheOption
	if mirror := app.startRedis(); mirror != nil {
		cacheOpts = append(cacheOpts, storage.WithMirror(mirror))
	}

	app.prices = storage.NewPriceCache(app.exchange, cacheOpts...)
	app.sessions = storage.NewSessionStore()
	app.converter = converter.NewConverter(app.prices)

	aiCfg := chat.Config{
		StylePrompt:         cfg.AI.StylePrompt,
		MaxHistory:          cfg.AI.MaxHistory,
		PersistErrorReplies: cfg.AI.PersistErrorReplies,
	}
	app.relay = chat.NewRelay(app.completer, app.sessions, aiCfg, app.metrics)
	logger.Info("🤖 AI relay: %s", aiCfg)

	app.bus = events.NewEventBus(app.metrics)
	if app.eventLogging {
		app.bus.Tap(events.NewLoggerSubscriber())
	}

	app.broadcaster = scheduler.NewPriceBroadcaster(
		app.prices, app.bus, market.Symbols(), cfg.BroadcastInterval, app.metrics)

	app.server = httpapi.NewServer(httpapi.Deps{
		Prices:      app.prices,
		Klines:      app.exchange,
		Converter:   app.converter,
		Chat:        app.relay,
		Broadcaster: app.broadcaster,
		Subscribers: app.bus.SubscriberCount,
		Bus:         app.bus,
		Sessions:    app.sessions.Count,
		Observer:    app.metrics,
		WS:          ws.NewHandler(app.bus, market.Symbols(), cfg.WSSendBuffer),
		Metrics:     app.metrics.Handler(),
	})

	return nil
}

// startRedis подключает зеркало кэша цен; недоступный Redis не фатален
func (app *Application) startRedis() storage.PriceMirror {
	if !app.config.Redis.Enabled {
		return nil
	}

	rs := redisCache.NewRedisService(app.config.Redis)
	ctx, cancel := context.WithTimeout(context.Background(), redisStartTimeout)
	defer cancel()

	if err := rs.Start(ctx); err != nil {
		logger.Warn("⚠️ Redis недоступен, работаем без зеркала цен: %v", err)
		return nil
	}
	app.redis = rs
	return rs.GetCache()
}

// Handler возвращает HTTP-обработчик приложения
func (app *Application) Handler() http.Handler {
	return app.server.Handler()
}

// Run слушает порт из конфигурации до отмены ctx
func (app *Application) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", ":"+app.config.Port)
	if err != nil {
		return fmt.Errorf("listen :%s: %w", app.config.Port, err)
	}
	return app.Serve(ctx, ln)
}

// Serve запускает HTTP-сервер и цикл рассылки; возвращается после graceful shutdown
func (app *Application) Serve(ctx context.Context, ln net.Listener) error {
	app.mu.Lock()
	if app.running {
		app.mu.Unlock()
		return errors.New("приложение уже запущено")
	}
	app.running = true
	app.startTime = time.Now()
	app.addr = ln.Addr().String()
	app.mu.Unlock()

	defer func() {
		app.mu.Lock()
		app.running = false
		app.mu.Unlock()
	}()

	if app.redis != nil {
		wctx, cancel := context.WithTimeout(ctx, warmupTimeout)
		n := app.prices.Warmup(wctx, market.Symbols())
		cancel()
		logger.Info("🔥 Прогрев кэша из Redis: %d цен", n)
	}

	srv := &http.Server{
		Handler:           app.server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("🌐 HTTP сервер слушает %s", app.addr)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return app.broadcaster.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("🛑 Останавливаем приложение...")

		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			logger.Warn("⚠️ HTTP shutdown: %v", err)
			srv.Close()
		}
		app.shutdown()
		return nil
	})

	err := g.Wait()
	logger.Info("✅ Приложение остановлено. Время работы: %v", time.Since(app.startTime))
	return err
}

func (app *Application) shutdown() {
	app.bus.Close()
	if app.redis != nil {
		if err := app.redis.Stop(); err != nil {
			logger.Warn("⚠️ Redis stop: %v", err)
		}
	}
}

// Status - краткое состояние приложения для логов
func (app *Application) Status() map[string]string {
	app.mu.RLock()
	defer app.mu.RUnlock()

	status := map[string]string{
		"running":     fmt.Sprintf("%v", app.running),
		"subscribers": fmt.Sprintf("%d", app.bus.SubscriberCount()),
		"sessions":    fmt.Sprintf("%d", app.sessions.Count()),
		"cached":      fmt.Sprintf("%d", app.prices.Len()),
		"ticks":       fmt.Sprintf("%d", app.broadcaster.Ticks()),
	}
	st := app.bus.Stats()
	status["events"] = fmt.Sprintf("%d published, %d delivered, %d dropped", st.EventsPublished, st.Deliveries, st.Dropped)
	if app.running {
		status["uptime"] = time.Since(app.startTime).Round(time.Second).String()
		status["addr"] = app.addr
	}
	if lp := app.broadcaster.LastPush(); !lp.IsZero() {
		status["last_push"] = lp.Format(time.RFC3339)
	}
	if app.redis != nil {
		status["redis"] = string(app.redis.State())
	}
	return status
}
