package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kecarajocomer/internal/api"
	"kecarajocomer/internal/app"
	"kecarajocomer/internal/config"
	"kecarajocomer/internal/database"
	"kecarajocomer/internal/llm"
	"kecarajocomer/internal/logger"
	"kecarajocomer/internal/metrics"
	"kecarajocomer/internal/storage"
	"kecarajocomer/internal/telegram"

	"go.uber.org/zap"
)

const (
	webhookPath     = "/telegram/webhook"
	shutdownTimeout = 10 * time.Second
)

func main() {
	// 1. Load Configuration
	cfg, err := config.NewFromEnv()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}
	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	defer func() { _ = log.Sync() }()

	ctx := context.Background()

	// 2. Infrastructure
	db, err := database.NewDB(cfg.DatabasePath, log)
	if err != nil {
		log.Fatal("failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	textGen, err := llm.NewTextGenerator(ctx, cfg, 0.4)
	if err != nil {
		log.Fatal("failed to create LLM client", zap.String("provider", cfg.LLMProvider), zap.Error(err))
	}
	if c, ok := textGen.(llm.Closer); ok {
		defer c.Close()
	}

	exporter, err := storage.NewListStore(cfg.ExportDir)
	if err != nil {
		log.Fatal("failed to initialize export store", zap.Error(err))
	}

	collectors := metrics.NewCollectors()

	// 3. Application
	application := app.NewApp(cfg, app.Deps{
		DB:         db.SQL,
		TextGen:    textGen,
		Collectors: collectors,
		Exporter:   exporter,
		Log:        log,
	})

	// 4. Telegram Bot, when configured
	var opts []api.Option
	if cfg.TelegramEnabled() {
		bot, err := telegram.NewBot(cfg, application, log.Named("telegram"))
		if err != nil {
			log.Fatal("failed to initialize Telegram bot", zap.Error(err))
		}
		opts = append(opts, api.WithWebhook(webhookPath, bot.WebhookHandler()))
	} else {
		log.Info("telegram bot disabled")
	}

	// 5. Start Server with Graceful Shutdown
	srv := api.NewServer(application, collectors, log.Named("http"), opts...)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatal("server failed", zap.Error(err))
		}
		return
	case sig := <-quit:
		log.Info("received signal", zap.String("signal", sig.String()))
	}

	ctxShutdown, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
		return
	}
	log.Info("server exiting")
}
