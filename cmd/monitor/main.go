package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	httpadapter "github.com/mossburn/hk-conditions-monitor/internal/adapter/http"
	"github.com/mossburn/hk-conditions-monitor/internal/alert"
	"github.com/mossburn/hk-conditions-monitor/internal/config"
	"github.com/mossburn/hk-conditions-monitor/internal/feed"
	"github.com/mossburn/hk-conditions-monitor/internal/monitor"
	"github.com/mossburn/hk-conditions-monitor/internal/observability"
	"github.com/mossburn/hk-conditions-monitor/internal/store"
)

func main() {
	// Optional .env for local development; environment variables win.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	st, err := store.Open(cfg.DatabasePath)
	if err != nil {
		logger.Error("failed to open store", "path", cfg.DatabasePath, "error", err)
		os.Exit(1)
	}

	client := feed.NewClient(cfg.FetchTimeout, logger)
	cache := feed.NewCache(cfg.CacheDir)
	collector := feed.NewCollector(client, cache, feed.Options{
		Retries:   cfg.FetchRetries,
		BaseDelay: cfg.RetryBaseDelay,
		UseMock:   cfg.UseMockData,
	}, logger, metrics)

	sources := monitor.Sources{
		Warnings: feed.Source{Feed: "warnings", URL: cfg.WarningsURL, MockPath: cfg.MockPath("warnings")},
		Rain:     feed.Source{Feed: "rainfall", URL: cfg.RainfallURL, MockPath: cfg.MockPath("rainfall")},
		AQHI:     feed.Source{Feed: "aqhi", URL: cfg.AQHIURL, MockPath: cfg.MockPath("aqhi")},
		Traffic:  feed.Source{Feed: "traffic", URL: cfg.TrafficURL, MockPath: cfg.MockPath("traffic")},
	}
	targets := monitor.Targets{
		RainDistrict:  cfg.RainDistrict,
		AQHIStation:   cfg.AQHIStation,
		TrafficRegion: cfg.TrafficRegion,
	}

	var kafkaSink *alert.KafkaNotifier
	var detector monitor.ChangeDetector
	if cfg.AlertsEnabled {
		notifiers := []alert.Notifier{alert.NewConsoleNotifier(os.Stdout)}
		if cfg.TelegramEnabled {
			tg, err := alert.NewTelegramNotifier(cfg.TelegramToken, cfg.TelegramChatID)
			if err != nil {
				logger.Error("failed to initialize telegram sink", "error", err)
				os.Exit(1)
			}
			notifiers = append(notifiers, tg)
			logger.Info("telegram alerts enabled", "chat_id", cfg.TelegramChatID)
		}
		if cfg.KafkaAlertsEnabled {
			kafkaSink = alert.NewKafkaNotifier(cfg.KafkaBrokers, cfg.KafkaAlertTopic)
			notifiers = append(notifiers, kafkaSink)
			logger.Info("kafka alerts enabled", "topic", cfg.KafkaAlertTopic)
		}
		detector = alert.NewDetector(st, notifiers, logger, metrics)
	} else {
		logger.Info("change detection disabled")
	}

	mon := monitor.New(collector, st, detector, sources, targets, logger, metrics)
	srv := httpadapter.NewServer(cfg.HTTPAddr, mon, st, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	metrics.MonitorRunning.Set(1)
	logger.Info("monitor starting",
		"poll_interval", cfg.PollInterval, "mock", cfg.UseMockData,
		"district", cfg.RainDistrict, "station", cfg.AQHIStation, "region", cfg.TrafficRegion)

	runCycle := func() {
		if _, err := mon.RunCycle(ctx); err != nil {
			logger.Error("collection cycle failed", "error", err)
		}
	}

	// First cycle immediately so the readiness probe and snapshot fill without
	// waiting a full poll interval.
	runCycle()

	scheduler := cron.New()
	if _, err := scheduler.AddFunc("@every "+cfg.PollInterval.String(), runCycle); err != nil {
		logger.Error("failed to schedule collection cycle", "error", err)
		os.Exit(1)
	}
	scheduler.Start()

	<-ctx.Done()
	logger.Info("shutting down")
	metrics.MonitorRunning.Set(0)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	cycleCtx := scheduler.Stop()
	select {
	case <-cycleCtx.Done():
	case <-shutdownCtx.Done():
		logger.Warn("in-flight cycle did not finish before shutdown deadline")
	}

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if kafkaSink != nil {
		if err := kafkaSink.Close(); err != nil {
			logger.Error("kafka sink close error", "error", err)
		}
	}
	if err := st.Close(); err != nil {
		logger.Error("store close error", "error", err)
	}

	logger.Info("shutdown complete")
}
