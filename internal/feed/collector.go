package feed

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/mossburn/hk-conditions-monitor/internal/observability"
)

// Source describes where one feed's payload comes from.
type Source struct {
	Feed     string // feed name, also the cache key
	URL      string
	MockPath string
}

// Options tune fetch behavior shared by all four collectors.
type Options struct {
	Retries   int
	BaseDelay time.Duration
	UseMock   bool
}

// Collector turns raw feed payloads into domain records. All failure modes
// (network errors, malformed payloads, selection misses) degrade to a nil
// record; a collector never returns an error to the orchestrator.
type Collector struct {
	client  *Client
	cache   *Cache
	opts    Options
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewCollector creates a Collector sharing one HTTP client and payload cache
// across feeds.
func NewCollector(client *Client, cache *Cache, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Collector {
	if opts.Retries < 1 {
		opts.Retries = 1
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = 500 * time.Millisecond
	}
	return &Collector{
		client:  client,
		cache:   cache,
		opts:    opts,
		logger:  logger,
		metrics: metrics,
	}
}

// payload resolves one feed's raw bytes for this cycle. Mock mode reads the
// fixed local file and touches neither network nor cache. Live mode retries
// the fetch up to the configured budget, writes successes through to the
// cache, and falls back to the last cached payload on exhaustion.
func (c *Collector) payload(ctx context.Context, src Source) ([]byte, bool) {
	if c.opts.UseMock {
		raw, err := os.ReadFile(src.MockPath)
		if err != nil {
			c.logger.Warn("mock payload unavailable", "feed", src.Feed, "path", src.MockPath, "error", err)
			c.metrics.FeedCollections.WithLabelValues(src.Feed, "miss").Inc()
			return nil, false
		}
		c.metrics.FeedCollections.WithLabelValues(src.Feed, "mock").Inc()
		return raw, true
	}

	raw, err := c.fetchWithRetry(ctx, src)
	if err == nil {
		if werr := c.cache.Write(src.Feed, raw); werr != nil {
			c.logger.Warn("cache write failed", "feed", src.Feed, "error", werr)
		}
		c.metrics.FeedCollections.WithLabelValues(src.Feed, "live").Inc()
		return raw, true
	}

	c.logger.Warn("fetch failed, trying cached payload", "feed", src.Feed, "error", err)
	if cached, ok := c.cache.Read(src.Feed); ok {
		c.metrics.FeedCollections.WithLabelValues(src.Feed, "cache").Inc()
		return cached, true
	}

	c.logger.Warn("no cached payload, skipping feed this cycle", "feed", src.Feed)
	c.metrics.FeedCollections.WithLabelValues(src.Feed, "miss").Inc()
	return nil, false
}

func (c *Collector) fetchWithRetry(ctx context.Context, src Source) ([]byte, error) {
	delay := c.opts.BaseDelay

	var lastErr error
	for attempt := 1; attempt <= c.opts.Retries; attempt++ {
		raw, err := c.client.Get(ctx, src.URL)
		if err == nil {
			return raw, nil
		}
		lastErr = err

		if attempt == c.opts.Retries {
			break
		}
		c.metrics.FetchRetries.WithLabelValues(src.Feed).Inc()
		c.logger.Debug("fetch attempt failed, backing off",
			"feed", src.Feed, "attempt", attempt, "delay", delay, "error", err)
		if !sleepWithContext(ctx, delay) {
			break
		}
		delay = nextBackoff(delay, maxBackoff)
	}
	return nil, lastErr
}
