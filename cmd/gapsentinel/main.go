package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"GapSentinel/internal/cache"
	"GapSentinel/internal/calendar"
	"GapSentinel/internal/collector"
	"GapSentinel/internal/config"
	"GapSentinel/internal/gapscan"
	"GapSentinel/internal/httpapi"
	"GapSentinel/internal/model"
	"GapSentinel/internal/notifier"
	"GapSentinel/internal/scanner"
	"GapSentinel/internal/scheduler"
	"GapSentinel/internal/store"
	"GapSentinel/internal/universe"
)

// quoteCacheSize bounds the short-lived quote cache.
const quoteCacheSize = 10000

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] GapSentinel starting...")

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}
	if cfg.Provider.APIKey == "" {
		log.Println("[WARN] FINNHUB_API_KEY is not set, scans will fail until it is configured")
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cal, err := calendar.New(cfg.Calendar.Timezone, cfg.Calendar.ExtraHolidays)
	if err != nil {
		log.Fatalf("[FATAL] init calendar: %v", err)
	}
	if year := time.Now().In(cal.Location()).Year(); !cal.Covers(year) {
		log.Printf("[WARN] no holiday list for %d, add calendar.extra_holidays", year)
	}

	// Durable cache tier; scans keep working without it.
	var st store.Store
	var purger scheduler.Purger
	sqliteStore, err := store.NewSQLiteStore(ctx, cfg.Cache.SQLitePath)
	if err != nil {
		log.Printf("[WARN] open sqlite store failed, using noop: %v", err)
		st = store.NewNoopStore()
	} else {
		st = sqliteStore
		purger = sqliteStore
	}
	defer st.Close()

	source := collector.NewFinnhubSource(cfg.Provider.BaseURL, cfg.Provider.APIKey, cfg.Proxy, cfg.Provider.Timeout)
	fetcher := collector.NewFetcher(source, cfg.Delay(),
		collector.WithQuoteCache(cache.NewMemory[string, model.Quote](quoteCacheSize), cfg.Cache.QuoteTTL))
	log.Printf("[INFO] quote source: %s, delay %v", fetcher.SourceName(), cfg.Delay())

	provider := universe.NewFileProvider(cfg.Universe.File)
	svc := gapscan.NewService(gapscan.Config{
		APIKey: cfg.Provider.APIKey,
		Filter: scanner.FilterConfig{
			BatchSize:     cfg.Scan.BatchSize,
			MinGapPercent: cfg.Scan.MinGapPercent,
			MinVolume:     cfg.Scan.MinVolume,
			MaxPrice:      cfg.Scan.MaxPrice,
			MinMarketCap:  cfg.Scan.MinMarketCap,
			TopN:          cfg.Scan.TopN,
		},
		DefaultLimit: cfg.Scan.DefaultLimit,
		ResultTTL:    cfg.Cache.ResultTTL,
	}, fetcher, provider, cal, st)

	// Init Telegram notifier
	var n notifier.Notifier = notifier.Noop{}
	var tn *notifier.TelegramNotifier
	if cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		n = tn
	} else {
		log.Println("[INFO] Telegram not configured, notifications disabled")
	}

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, svc, cal, n, purger)
	if err := sched.RegisterAll(cfg.Schedule.PremarketCron, cfg.Schedule.OpenCron, cfg.Schedule.UniverseCron, cfg.Schedule.PurgeCron); err != nil {
		log.Fatalf("[FATAL] register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Println("[INFO] Telegram polling started")
	}

	srv := httpapi.NewHTTPServer(cfg.HTTP.Addr, httpapi.NewServer(svc).Routes())
	go func() {
		log.Printf("[INFO] HTTP listening on %s", cfg.HTTP.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[FATAL] http server: %v", err)
		}
	}()

	// Optional: run immediately on start
	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, executing a scan now")
		go sched.RunScanNow()
	}

	log.Println("[INFO] GapSentinel is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()
	shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
	defer done()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[WARN] http shutdown: %v", err)
	}
	log.Println("[INFO] GapSentinel stopped")
}
