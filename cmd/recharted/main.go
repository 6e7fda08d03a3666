package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"Recharted/internal/cache"
	"Recharted/internal/collector"
	"Recharted/internal/config"
	"Recharted/internal/logger"
	"Recharted/internal/model"
	"Recharted/internal/notifier"
	"Recharted/internal/preview"
	"Recharted/internal/recorder"
	"Recharted/internal/resolver"
	"Recharted/internal/scheduler"
	"Recharted/internal/server"
	"Recharted/internal/tweet"
)

func main() {
	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config validation: %v", err)
	}

	zl, err := logger.New(cfg.Log.Level)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()
	zl.Info("Recharted starting", zap.String("config", cfgPath))

	// Context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Init providers
	client := collector.NewHTTPClient(cfg.HTTP.Timeout, cfg.Proxy)
	codex := collector.NewCodexFetcher(cfg.Codex.Endpoint, cfg.Codex.APIKey, client, zl)
	dex := collector.NewDexScreenerFetcher(cfg.DexScreener.BaseURL, client, zl)
	if cfg.Codex.APIKey == "" {
		zl.Warn("no Codex API key, charts will use snapshot synthesis")
	}

	charts := resolver.New(codex, dex, zl, resolver.Options{
		PopularTokens:   cfg.Resolver.PopularTokens,
		GuardExemptions: cfg.Resolver.HistoryGuardExemptions,
	})
	tweets := tweet.NewResolver(cfg.Syndication.BaseURL, client, zl)

	// Init cache
	var store cache.Store
	if cfg.Cache.RedisAddr != "" {
		rs, err := cache.NewRedisStore(ctx, cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB, cfg.Cache.TTL, zl)
		if err != nil {
			zl.Warn("init redis cache failed, using memory", zap.Error(err))
			store = cache.NewMemoryStore(cfg.Cache.TTL)
		} else {
			store = rs
		}
	} else {
		store = cache.NewMemoryStore(cfg.Cache.TTL)
	}
	defer store.Close()

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, zl)
		if err != nil {
			zl.Warn("init sqlite recorder failed, using noop", zap.Error(err))
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}
	defer rec.Close()

	deps := server.Deps{
		Charts:           charts,
		Tweets:           tweets,
		Cache:            store,
		Recorder:         rec,
		Render:           preview.Render,
		DefaultTimeframe: cfg.DefaultTimeframe(),
	}

	// Init Telegram notifier
	if cfg.TelegramEnabled() {
		tn, err := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, zl)
		if err != nil {
			zl.Warn("init telegram notifier failed, alerts disabled", zap.Error(err))
		} else {
			deps.Alerter = notifier.NewAlerter(tn, notifier.DefaultAlertInterval, zl)
			cmds := &notifier.Commands{
				Resolver:         charts,
				Recorder:         rec,
				Render:           renderPNG,
				DefaultTimeframe: cfg.DefaultTimeframe(),
				Log:              zl,
			}
			go tn.StartPolling(ctx, cmds.Handle)
			zl.Info("telegram polling started")
		}
	}

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, charts, store, cfg.DefaultTimeframe(), zl)
	if err := sched.RegisterAll(cfg.Schedule.WarmCron, cfg.Schedule.PruneCron); err != nil {
		zl.Fatal("register cron tasks", zap.Error(err))
	}
	sched.Start()
	defer sched.Stop()

	srv := server.NewServer(fmt.Sprintf(":%d", cfg.Server.Port), deps, cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, zl)
	if err := srv.Start(ctx); err != nil {
		zl.Error("http server", zap.Error(err))
		return
	}
	zl.Info("Recharted stopped")
}

func renderPNG(series *model.PriceSeries, tf model.Timeframe) ([]byte, error) {
	img, err := preview.Render(series, tf, "")
	if err != nil {
		return nil, err
	}
	return img.PNG, nil
}
