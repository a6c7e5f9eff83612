package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	// Upstream endpoints.
	WarningsURL string
	RainfallURL string
	AQHIURL     string
	TrafficURL  string

	// Selection targets for the rain, AQHI, and traffic feeds.
	RainDistrict  string
	AQHIStation   string
	TrafficRegion string

	// Mock mode reads fixed payloads from MockDir instead of the network.
	UseMockData bool
	MockDir     string

	DatabasePath string
	CacheDir     string

	PollInterval    time.Duration
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	FetchTimeout   time.Duration
	FetchRetries   int
	RetryBaseDelay time.Duration

	// Change detection and alert delivery.
	AlertsEnabled   bool
	TelegramEnabled bool
	TelegramToken   string
	TelegramChatID  int64

	KafkaAlertsEnabled bool
	KafkaBrokers       []string
	KafkaAlertTopic    string
}

// Default endpoint URLs published by the HK data sources. Overridable so
// mirrors or captive test servers can be swapped in without code changes.
const (
	defaultWarningsURL = "https://data.weather.gov.hk/weatherAPI/opendata/weather.php?dataType=warnsum&lang=en"
	defaultRainfallURL = "https://data.weather.gov.hk/weatherAPI/opendata/weather.php?dataType=rhrread&lang=en"
	defaultAQHIURL     = "https://dashboard.data.gov.hk/api/aqhi-individual?format=json"
	defaultTrafficURL  = "https://www.td.gov.hk/en/special_news/trafficnews.xml"
)

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	pollInterval, err := parseDuration("POLL_INTERVAL", "5m")
	if err != nil {
		return nil, err
	}
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	fetchTimeout, err := parseDuration("FETCH_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	retryBaseDelay, err := parseDuration("RETRY_BASE_DELAY", "500ms")
	if err != nil {
		return nil, err
	}

	fetchRetries, err := parseInt("FETCH_RETRIES", 3)
	if err != nil {
		return nil, err
	}

	telegramChatID, err := parseChatID()
	if err != nil {
		return nil, err
	}

	telegramToken := os.Getenv("TELEGRAM_BOT_TOKEN")
	telegramEnabled := telegramToken != ""
	if v := os.Getenv("TELEGRAM_ENABLED"); v != "" {
		telegramEnabled = v == "true"
	}

	cfg := &Config{
		WarningsURL: envOrDefault("WARNINGS_URL", defaultWarningsURL),
		RainfallURL: envOrDefault("RAINFALL_URL", defaultRainfallURL),
		AQHIURL:     envOrDefault("AQHI_URL", defaultAQHIURL),
		TrafficURL:  envOrDefault("TRAFFIC_URL", defaultTrafficURL),

		RainDistrict:  envOrDefault("RAIN_DISTRICT", "Central & Western"),
		AQHIStation:   envOrDefault("AQHI_STATION", "Central/Western"),
		TrafficRegion: envOrDefault("TRAFFIC_REGION", "Hong Kong Island"),

		UseMockData: os.Getenv("USE_MOCK_DATA") == "true",
		MockDir:     envOrDefault("MOCK_DIR", "data/mock"),

		DatabasePath: envOrDefault("DATABASE_PATH", "data/monitor.db"),
		CacheDir:     envOrDefault("CACHE_DIR", "data/cache"),

		PollInterval:    pollInterval,
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		FetchTimeout:   fetchTimeout,
		FetchRetries:   fetchRetries,
		RetryBaseDelay: retryBaseDelay,

		AlertsEnabled:   envOrDefault("ALERTS_ENABLED", "true") == "true",
		TelegramEnabled: telegramEnabled,
		TelegramToken:   telegramToken,
		TelegramChatID:  telegramChatID,

		KafkaAlertsEnabled: os.Getenv("KAFKA_ALERTS_ENABLED") == "true",
		KafkaBrokers:       parseBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaAlertTopic:    envOrDefault("KAFKA_ALERT_TOPIC", "conditions-alerts"),
	}

	if cfg.RainDistrict == "" {
		return nil, errors.New("RAIN_DISTRICT is required")
	}
	if cfg.AQHIStation == "" {
		return nil, errors.New("AQHI_STATION is required")
	}
	if cfg.FetchRetries < 1 {
		return nil, errors.New("FETCH_RETRIES must be at least 1")
	}
	if cfg.TelegramEnabled && cfg.TelegramToken == "" {
		return nil, errors.New("TELEGRAM_ENABLED is true but TELEGRAM_BOT_TOKEN is not set")
	}
	if cfg.TelegramEnabled && cfg.TelegramChatID == 0 {
		return nil, errors.New("TELEGRAM_ENABLED is true but TELEGRAM_CHAT_ID is not set")
	}
	if cfg.KafkaAlertsEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ALERTS_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.KafkaAlertsEnabled && cfg.KafkaAlertTopic == "" {
		return nil, errors.New("KAFKA_ALERTS_ENABLED is true but KAFKA_ALERT_TOPIC is not set")
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDuration(key, def string) (time.Duration, error) {
	raw := envOrDefault(key, def)
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, raw)
	}
	return d, nil
}

func parseInt(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, raw)
	}
	return n, nil
}

func parseChatID() (int64, error) {
	raw := os.Getenv("TELEGRAM_CHAT_ID")
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid TELEGRAM_CHAT_ID: %q", raw)
	}
	return id, nil
}

func parseBrokers(raw string) []string {
	var brokers []string
	for _, b := range strings.Split(raw, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// MockPath returns the fixed payload file for a feed in mock mode.
func (c *Config) MockPath(feed string) string {
	return filepath.Join(c.MockDir, feed+".json")
}
