package main

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"
)

type ClientOptions struct {
	APIKey       string
	Queue        QueueOptions
	Cache        CacheOptions
	RetryBackoff time.Duration
	Stats        StatsRecorder
}

// ImageClient is the cache-aware, rate-limited front of one photo provider.
// Create one per process and share it.
type ImageClient struct {
	provider     PhotoService
	limits       *RateLimitInfo
	cache        *ResultCache
	queue        *RequestQueue
	stats        StatsRecorder
	retryBackoff time.Duration
	log          *log.Logger

	keyMu  sync.RWMutex
	apiKey string
}

func NewImageClient(provider PhotoService, limits *RateLimitInfo, opts ClientOptions) *ImageClient {
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = time.Minute
	}
	if opts.Stats == nil {
		opts.Stats = NewMemoryStats()
	}
	return &ImageClient{
		provider:     provider,
		limits:       limits,
		cache:        NewResultCache(opts.Cache),
		queue:        NewRequestQueue(opts.Queue),
		stats:        opts.Stats,
		retryBackoff: opts.RetryBackoff,
		log:          newLogger("search"),
		apiKey:       opts.APIKey,
	}
}

func (c *ImageClient) SetAPIKey(key string) {
	c.keyMu.Lock()
	defer c.keyMu.Unlock()
	c.apiKey = key
}

func (c *ImageClient) HasAPIKey() bool {
	return c.key() != ""
}

func (c *ImageClient) key() string {
	c.keyMu.RLock()
	defer c.keyMu.RUnlock()
	return c.apiKey
}

func (c *ImageClient) ClearCache() {
	c.cache.Clear()
}

// Close stops the request queue. Pending searches fail with ErrQueueClosed.
func (c *ImageClient) Close() {
	c.queue.Close()
}

func (c *ImageClient) Provider() PhotoService { return c.provider }

// SearchPhotos answers from the cache when it can; otherwise the provider is
// called through the request queue. Empty answers are cached as failures.
func (c *ImageClient) SearchPhotos(query string, opts SearchOptions) ([]PhotoCandidate, error) {
	key := CacheKey(query, opts)
	if photos, status := c.cache.Get(key); status != CacheMiss {
		c.record("cache", status.String())
		if status == CacheFailureHit {
			debugf(c.log, "Cached failure for query: %q - skipping retry", query)
		} else {
			debugf(c.log, "Cache hit for query: %q", query)
		}
		return photos, nil
	}
	c.record("cache", CacheMiss.String())

	if !c.HasAPIKey() {
		return nil, ErrMissingAPIKey
	}

	return c.enqueue(key, func(ctx context.Context) ([]PhotoCandidate, error) {
		photos, err := c.provider.Search(ctx, c.key(), query, opts)
		if err != nil {
			return nil, err
		}
		c.cache.Put(key, photos, len(photos) == 0)
		return photos, nil
	})
}

// CuratedPhotos fetches the provider's editorial selection.
func (c *ImageClient) CuratedPhotos(page, perPage int) ([]PhotoCandidate, error) {
	key := CuratedKey(page, perPage)
	if photos, status := c.cache.Get(key); status == CacheHit {
		c.record("cache", status.String())
		debugf(c.log, "Cache hit for curated photos")
		return photos, nil
	}
	if !c.HasAPIKey() {
		return nil, ErrMissingAPIKey
	}
	return c.enqueue(key, func(ctx context.Context) ([]PhotoCandidate, error) {
		photos, err := c.provider.Curated(ctx, c.key(), page, perPage)
		if err != nil {
			return nil, err
		}
		c.cache.Put(key, photos, false)
		return photos, nil
	})
}

// enqueue runs fetch on the queue. The cache is checked again inside the task
// so a key queued twice is only fetched once.
func (c *ImageClient) enqueue(key string, fetch func(ctx context.Context) ([]PhotoCandidate, error)) ([]PhotoCandidate, error) {
	v, err := c.queue.Enqueue(func(ctx context.Context) TaskResult {
		if photos, status := c.cache.Get(key); status != CacheMiss {
			return Done(photos)
		}
		photos, err := fetch(ctx)
		var quota *QuotaError
		if errors.As(err, &quota) {
			c.record("quota", c.provider.Type())
			return Retry(c.retryBackoff)
		}
		if err != nil {
			return Failed(err)
		}
		return Done(photos)
	})
	if err != nil {
		return nil, err
	}
	photos, _ := v.([]PhotoCandidate)
	return photos, nil
}

func (c *ImageClient) record(kind, name string) {
	if err := c.stats.Record(context.Background(), StatsEvent{Kind: kind, Name: name, At: time.Now()}); err != nil {
		debugf(c.log, "stats: %v", err)
	}
}

// Status combines the provider quota headers with the local queue counters.
func (c *ImageClient) Status() RateLimitStatus {
	s := c.limits.snapshot()
	qs := c.queue.Stats()
	s.RequestsInCurrentHour = qs.RequestsInWindow
	s.MaxRequestsPerHour = c.queue.opts.MaxPerWindow
	s.QueueLength = qs.QueueLength
	return s
}

type DebugInfo struct {
	Provider         string                      `json:"provider"`
	RateLimits       RateLimitStatus             `json:"rateLimits"`
	CacheStats       CacheStats                  `json:"cacheStats"`
	QueueStats       QueueStats                  `json:"queueStats"`
	APIKeyConfigured bool                        `json:"apiKeyConfigured"`
	Counters         map[string]map[string]int64 `json:"counters,omitempty"`
}

func (c *ImageClient) DebugInfo(ctx context.Context) DebugInfo {
	info := DebugInfo{
		Provider:         c.provider.Type(),
		RateLimits:       c.Status(),
		CacheStats:       c.cache.Stats(),
		QueueStats:       c.queue.Stats(),
		APIKeyConfigured: c.HasAPIKey(),
	}
	if counters, err := c.stats.Snapshot(ctx); err == nil {
		info.Counters = counters
	} else {
		c.log.Println("stats snapshot:", err)
	}
	return info
}

func (c *ImageClient) LogStatus() {
	d := c.DebugInfo(context.Background())
	configured := "Not configured"
	if d.APIKeyConfigured {
		configured = "Configured"
	}
	c.log.Printf("API Key: %s", configured)
	c.log.Printf("Rate Limits: %d/%d in current hour", d.RateLimits.RequestsInCurrentHour, d.RateLimits.MaxRequestsPerHour)
	c.log.Printf("API Limits: %d/%d remaining", d.RateLimits.Remaining, d.RateLimits.Limit)
	c.log.Printf("Queue: %d pending requests", d.QueueStats.QueueLength)
	c.log.Printf("Cache: %d successful, %d failed", d.CacheStats.SuccessCacheSize, d.CacheStats.FailureCacheSize)
}
