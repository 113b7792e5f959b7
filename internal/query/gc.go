package query

import (
	"context"
	"log/slog"
	"time"
)

// Collector periodically drops cache entries nobody has read for a while
type Collector struct {
	cache    *Client
	interval time.Duration
	gcTime   time.Duration
	logger   *slog.Logger
}

// NewCollector creates a GC worker
func NewCollector(cache *Client, interval, gcTime time.Duration, logger *slog.Logger) *Collector {
	if interval <= 0 {
		interval = time.Minute
	}
	if gcTime <= 0 {
		gcTime = 5 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Collector{
		cache:    cache,
		interval: interval,
		gcTime:   gcTime,
		logger:   logger,
	}
}

// Start begins the worker in a goroutine
func (c *Collector) Start(ctx context.Context) {
	go c.run(ctx)
}

func (c *Collector) run(ctx context.Context) {
	c.logger.Info("cache collector started", "interval", c.interval, "gc_time", c.gcTime)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("cache collector stopped")
			return
		case <-ticker.C:
			c.collect()
		}
	}
}

// collect runs one GC cycle
func (c *Collector) collect() int {
	removed := c.cache.GC(c.gcTime)
	if removed > 0 {
		c.logger.Debug("collected idle cache entries", "count", removed, "remaining", c.cache.Len())
	}
	return removed
}
