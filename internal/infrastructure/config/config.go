// /internal/infrastructure/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// ============================================
// КОНФИГУРАЦИЯ REDIS
// ============================================

// RedisConfig конфигурация Redis (зеркало кэша цен)
type RedisConfig struct {
	Enabled    bool          `env:"REDIS_ENABLED" envDefault:"false"`
	Host       string        `env:"REDIS_HOST" envDefault:"localhost"`
	Port       int           `env:"REDIS_PORT" envDefault:"6379"`
	Password   string        `env:"REDIS_PASSWORD"`
	DB         int           `env:"REDIS_DB" envDefault:"0"`
	PoolSize   int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	DefaultTTL time.Duration `env:"REDIS_DEFAULT_TTL" envDefault:"1h"`
}

// ============================================
// ЛОГИРОВАНИЕ
// ============================================

// LogConfig - настройки логгера
type LogConfig struct {
	Level      string `env:"LOG_LEVEL" envDefault:"INFO"`
	Path       string `env:"LOG_PATH" envDefault:"logs/server.log"`
	MaxSizeMB  int    `env:"LOG_MAX_SIZE_MB" envDefault:"50"`
	MaxBackups int    `env:"LOG_MAX_BACKUPS" envDefault:"5"`
	MaxAgeDays int    `env:"LOG_MAX_AGE_DAYS" envDefault:"14"`
	DebugMode  bool   `env:"DEBUG_MODE" envDefault:"false"`
}

// ============================================
// БИРЖА
// ============================================

// ExchangeConfig - настройки клиента Binance
type ExchangeConfig struct {
	BaseURL string        `env:"BINANCE_BASE_URL" envDefault:"https://api.binance.com"`
	Timeout time.Duration `env:"EXCHANGE_TIMEOUT" envDefault:"10s"`
}

// ============================================
// AI (GEMINI)
// ============================================

// AIConfig - настройки ретранслятора Gemini
type AIConfig struct {
	APIKey              string        `env:"GOOGLE_API_KEY" envDefault:"YOUR_GEMINI_API_KEY"`
	Model               string        `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash-lite"`
	BaseURL             string        `env:"GEMINI_BASE_URL" envDefault:"https://generativelanguage.googleapis.com/v1"`
	Timeout             time.Duration `env:"AI_TIMEOUT" envDefault:"20s"`
	MaxHistory          int           `env:"AI_MAX_HISTORY" envDefault:"5"`
	StylePrompt         string        `env:"AI_STYLE_PROMPT" envDefault:"будь Розроботчиком кодов и отвечай кодом"`
	PersistErrorReplies bool          `env:"AI_PERSIST_ERROR_REPLIES" envDefault:"true"`
}

// ============================================
// ОСНОВНАЯ КОНФИГУРАЦИЯ ПРИЛОЖЕНИЯ
// ============================================

// Config - основная структура конфигурации
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"production"`
	Version     string `env:"VERSION" envDefault:"1.0.0"`

	// HTTP
	Port      string `env:"PORT" envDefault:"8080"`
	SecretKey string `env:"SECRET_KEY" envDefault:"super-secret-key"`

	// Рассылка цен
	BroadcastInterval time.Duration `env:"BROADCAST_INTERVAL" envDefault:"5s"`
	WSSendBuffer      int           `env:"WS_SEND_BUFFER" envDefault:"16"`

	Exchange ExchangeConfig
	AI       AIConfig
	Redis    RedisConfig
	Log      LogConfig
}

// LoadConfig загружает .env (если есть) и переменные окружения
func LoadConfig(path string) (*Config, error) {
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			fmt.Printf("⚠️  Config file not found, using environment variables\n")
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.Port) == "" {
		return fmt.Errorf("PORT must not be empty")
	}
	if c.BroadcastInterval <= 0 {
		return fmt.Errorf("BROADCAST_INTERVAL must be positive, got %v", c.BroadcastInterval)
	}
	if c.Exchange.Timeout <= 0 {
		return fmt.Errorf("EXCHANGE_TIMEOUT must be positive, got %v", c.Exchange.Timeout)
	}
	if c.AI.Timeout <= 0 {
		return fmt.Errorf("AI_TIMEOUT must be positive, got %v", c.AI.Timeout)
	}
	if c.AI.MaxHistory < 1 {
		return fmt.Errorf("AI_MAX_HISTORY must be >= 1, got %d", c.AI.MaxHistory)
	}
	if c.WSSendBuffer < 1 {
		return fmt.Errorf("WS_SEND_BUFFER must be >= 1, got %d", c.WSSendBuffer)
	}
	if c.Redis.Enabled && c.Redis.Host == "" {
		return fmt.Errorf("REDIS_HOST is required when REDIS_ENABLED=true")
	}
	return nil
}

// Summary возвращает ключевые параметры для стартового баннера (секреты замаскированы)
func (c *Config) Summary() map[string]string {
	redis := "выкл"
	if c.Redis.Enabled {
		redis = c.GetRedisAddress()
	}
	return map[string]string{
		"Окружение":      c.Environment,
		"Порт":           c.Port,
		"Binance":        c.Exchange.BaseURL,
		"AI модель":      c.AI.Model,
		"AI ключ":        maskSecret(c.AI.APIKey),
		"Secret key":     maskSecret(c.SecretKey),
		"Интервал цен":   c.BroadcastInterval.String(),
		"Redis":          redis,
		"Уровень логов":  c.Log.Level,
	}
}

// GetRedisAddress возвращает адрес Redis в формате host:port
func (c *Config) GetRedisAddress() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// IsDev - режим разработки
func (c *Config) IsDev() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

func maskSecret(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return s[:2] + strings.Repeat("*", len(s)-4) + s[len(s)-2:]
}
