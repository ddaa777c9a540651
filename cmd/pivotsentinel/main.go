package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"PivotSentinel/internal/analysis"
	"PivotSentinel/internal/api"
	"PivotSentinel/internal/cache"
	"PivotSentinel/internal/collector"
	"PivotSentinel/internal/config"
	"PivotSentinel/internal/logger"
	"PivotSentinel/internal/metrics"
	"PivotSentinel/internal/model"
	"PivotSentinel/internal/notifier"
	"PivotSentinel/internal/recorder"
	"PivotSentinel/internal/scheduler"
	"PivotSentinel/internal/watchlist"
)

func main() {
	// .env is optional
	_ = godotenv.Load()
	if err := logger.Init("info", "production"); err != nil {
		panic(err)
	}

	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.Env); err != nil {
		panic(err)
	}
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Fatalf("config validation: %v", err)
	}
	logger.Infof("PivotSentinel starting...")
	metrics.Init()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Fetcher and collector
	loc, _ := cfg.Location()
	fetcher, err := collector.NewFetcher(collector.Source{
		Provider:      cfg.DataSource.Provider,
		BaseURL:       cfg.DataSource.BaseURL,
		APIKey:        cfg.DataSource.APIKey,
		Proxy:         cfg.DataSource.Proxy,
		Location:      loc,
		RatePerSecond: cfg.DataSource.RatePerSecond,
	})
	if err != nil {
		logger.Fatalf("init fetcher: %v", err)
	}
	logger.Infof("data source: %s", fetcher.Name())

	ttls, _ := cfg.CacheTTLs()
	var store cache.SeriesCache = cache.NewMemoryCache(ttls)
	if cfg.Cache.Backend == "redis" {
		rc, err := cache.NewRedisCache(ctx, cache.RedisOptions{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		}, ttls)
		if err != nil {
			logger.Warnf("init redis cache failed, using memory: %v", err)
		} else {
			store = rc
			defer rc.Close()
		}
	}

	timeframes, _ := cfg.TimeFrames()
	setupTFs, _ := cfg.SetupTimeFrames()
	col := collector.NewCollector(fetcher, store, timeframes)

	engineCfg := analysis.DefaultConfig()
	engineCfg.GeneralTolerancePct = cfg.Pivot.GeneralTolerancePct
	engineCfg.SetupTolerancePct = cfg.Pivot.SetupTolerancePct
	engine := analysis.NewEngine(engineCfg)

	// Watchlist
	if err := os.MkdirAll(filepath.Dir(cfg.Watchlist.File), 0o755); err != nil {
		logger.Fatalf("create watchlist dir: %v", err)
	}
	wl, err := watchlist.NewManager(cfg.Watchlist.File)
	if err != nil {
		logger.Fatalf("init watchlist: %v", err)
	}

	// Recorder
	var rec recorder.Recorder = recorder.NewNoopRecorder()
	if cfg.Database.SQLitePath != "" {
		_ = os.MkdirAll(filepath.Dir(cfg.Database.SQLitePath), 0o755)
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			logger.Warnf("init sqlite recorder failed, using noop: %v", err)
		} else {
			rec = sr
		}
	}
	defer rec.Close()

	// Telegram notifier
	var tn *notifier.TelegramNotifier
	var note notifier.Notifier = notifier.NoopNotifier{}
	if cfg.TelegramEnabled() {
		tn, err = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.DataSource.Proxy)
		if err != nil {
			logger.Warnf("init telegram failed, notifications disabled: %v", err)
		} else {
			note = tn
		}
	}

	// Scheduler
	sched := scheduler.NewScheduler(ctx, scheduler.Deps{
		Collector:       col,
		Engine:          engine,
		Watchlist:       wl,
		Notifier:        note,
		Recorder:        rec,
		SetupTimeFrames: setupTFs,
	})
	if err := sched.RegisterAll(cfg.Schedule.ScanCron, cfg.Schedule.SummaryCron); err != nil {
		logger.Fatalf("register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		logger.Infof("telegram polling started")
	}

	if os.Getenv("RUN_ON_START") == "true" {
		logger.Infof("RUN_ON_START enabled, scanning now")
		go sched.RunScan(ctx, model.TriggerManual)
	}

	// HTTP API
	server := &http.Server{
		Addr: cfg.HTTP.Addr,
		Handler: (&api.API{
			Collector:       col,
			Engine:          engine,
			Watchlist:       wl,
			Scanner:         sched,
			Recorder:        rec,
			SetupTimeFrames: setupTFs,
			Location:        loc,
		}).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Infof("http api listening on %s", cfg.HTTP.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("http server: %v", err)
			cancel()
		}
	}()

	logger.Infof("PivotSentinel is running. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
		logger.Infof("shutdown signal received, stopping...")
	case <-ctx.Done():
	}
	cancel()

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}
	logger.Infof("PivotSentinel stopped")
}
