package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"FxSentinel/internal/collector"
	"FxSentinel/internal/config"
	"FxSentinel/internal/notifier"
	"FxSentinel/internal/recorder"
	"FxSentinel/internal/scheduler"
	"FxSentinel/internal/store"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// Secrets come from .env in dev, plain env in deployment.
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()
	logger.Info("FxSentinel starting")

	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal("config validation", zap.Error(err))
	}

	fetcher := collector.NewAlphaVantageFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy)
	logger.Info("data source ready", zap.String("fetcher", fetcher.Name()))
	col := collector.NewCollector(fetcher)

	st, err := store.NewManager(cfg.State.File)
	if err != nil {
		logger.Fatal("init state store", zap.String("file", cfg.State.File), zap.Error(err))
	}

	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			logger.Warn("init sqlite recorder failed, using noop", zap.Error(err))
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	tg, err := notifier.NewTelegram(cfg.Telegram.BotToken, st, rec, logger)
	if err != nil {
		logger.Fatal("init telegram", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	interval := time.Duration(cfg.Schedule.CheckIntervalSeconds) * time.Second
	sched := scheduler.NewScheduler(ctx, col, st, tg, rec, logger, interval)
	if err := sched.RegisterDigest(cfg.Schedule.DigestCron); err != nil {
		logger.Fatal("register digest task", zap.Error(err))
	}
	sched.StartCron()
	defer sched.StopCron()

	go tg.Run(ctx)
	go sched.Run()

	logger.Info("FxSentinel is running, press Ctrl+C to stop")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutdown signal received, stopping")
	cancel()
	logger.Info("FxSentinel stopped")
}
