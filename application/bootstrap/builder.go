// application/bootstrap/builder.go
package bootstrap

import (
	"fmt"

	"crypto-exchange-web/internal/infrastructure/api"
	"crypto-exchange-web/internal/infrastructure/config"
	"crypto-exchange-web/internal/infrastructure/metrics"
	"crypto-exchange-web/pkg/logger"
)

// AppBuilder строитель приложения
type AppBuilder struct {
	config  *config.Config
	options []AppOption
}

// AppOption опция для настройки приложения (применяется до Initialize)
type AppOption func(*Application) error

// NewAppBuilder создает новый строитель приложений
func NewAppBuilder() *AppBuilder {
	return &AppBuilder{}
}

// WithConfig устанавливает конфигурацию
func (b *AppBuilder) WithConfig(cfg *config.Config) *AppBuilder {
	b.config = cfg
	return b
}

// WithConfigFile загружает конфигурацию из .env файла и окружения
func (b *AppBuilder) WithConfigFile(path string) *AppBuilder {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		logger.Warn("⚠️  Ошибка загрузки конфигурации: %v", err)
		return b
	}
	b.config = cfg
	return b
}

// WithOption добавляет опцию настройки
func (b *AppBuilder) WithOption(option AppOption) *AppBuilder {
	b.options = append(b.options, option)
	return b
}

// Build строит и инициализирует приложение
func (b *AppBuilder) Build() (*Application, error) {
	if b.config == nil {
		cfg, err := config.LoadConfig("")
		if err != nil {
			return nil, fmt.Errorf("конфигурация по умолчанию: %w", err)
		}
		b.config = cfg
		logger.Info("ℹ️  Используется конфигурация по умолчанию")
	}

	app, err := NewApplication(b.config)
	if err != nil {
		return nil, fmt.Errorf("создание приложения: %w", err)
	}

	for _, option := range b.options {
		if err := option(app); err != nil {
			return nil, fmt.Errorf("применение опции: %w", err)
		}
	}

	if err := app.Initialize(); err != nil {
		return nil, fmt.Errorf("инициализация приложения: %w", err)
	}
	return app, nil
}

// ==================== Опции приложения ====================

// WithExchangeClient подменяет клиента биржи
func WithExchangeClient(client api.ExchangeClient) AppOption {
	return func(app *Application) error {
		if client == nil {
			return fmt.Errorf("exchange client is nil")
		}
		app.exchange = client
		return nil
	}
}

// WithCompletionClient подменяет клиента генеративной модели
func WithCompletionClient(client api.CompletionClient) AppOption {
	return func(app *Application) error {
		if client == nil {
			return fmt.Errorf("completion client is nil")
		}
		app.completer = client
		return nil
	}
}

// WithMetrics использует переданный набор метрик
func WithMetrics(m *metrics.Metrics) AppOption {
	return func(app *Application) error {
		app.metrics = m
		return nil
	}
}

// WithEventLogging подключает DEBUG-логгер к шине событий как наблюдателя
func WithEventLogging(enabled bool) AppOption {
	return func(app *Application) error {
		app.eventLogging = enabled
		return nil
	}
}
