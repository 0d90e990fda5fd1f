package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"crypto-exchange-web/application/bootstrap"
	"crypto-exchange-web/internal/infrastructure/config"
	"crypto-exchange-web/pkg/logger"
)

func main() {
	envFile := flag.String("env", ".env", "путь к .env файлу")
	flag.Parse()

	// 1. Загружаем конфигурацию
	cfg, err := config.LoadConfig(*envFile)
	if err != nil {
		log.Fatalf("Не удалось загрузить конфигурацию: %v", err)
	}

	// 2. Логгер
	if err := logger.InitGlobal(logger.Options{
		Path:       cfg.Log.Path,
		Level:      cfg.Log.Level,
		Debug:      cfg.Log.DebugMode,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	}); err != nil {
		log.Fatalf("Не удалось инициализировать логгер: %v", err)
	}
	defer logger.Close()

	logger.Status("🚀 CRYPTO EXCHANGE WEB "+cfg.Version, cfg.Summary())

	// 3. Строим приложение
	app, err := bootstrap.NewAppBuilder().
		WithConfig(cfg).
		WithOption(bootstrap.WithEventLogging(cfg.Log.DebugMode)).
		Build()
	if err != nil {
		logger.Error("❌ Ошибка сборки приложения: %v", err)
		os.Exit(1)
	}

	// 4. Запускаем до SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil {
		logger.Error("❌ Приложение завершилось с ошибкой: %v", err)
		logger.Close()
		os.Exit(1)
	}

	logger.Status("📊 Итоги работы", app.Status())
}
