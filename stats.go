package main

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// StatsEvent counts one outcome, e.g. Kind "strategy" Name "concept".
type StatsEvent struct {
	Kind string
	Name string
	At   time.Time
}

// StatsRecorder is best effort: callers log and ignore its errors.
type StatsRecorder interface {
	Record(ctx context.Context, ev StatsEvent) error
	Snapshot(ctx context.Context) (map[string]map[string]int64, error)
}

type MemoryStats struct {
	mu     sync.Mutex
	counts map[string]map[string]int64
}

func NewMemoryStats() *MemoryStats {
	return &MemoryStats{counts: make(map[string]map[string]int64)}
}

func (s *MemoryStats) Record(_ context.Context, ev StatsEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kind := s.counts[ev.Kind]
	if kind == nil {
		kind = make(map[string]int64)
		s.counts[ev.Kind] = kind
	}
	kind[ev.Name]++
	return nil
}

func (s *MemoryStats) Snapshot(context.Context) (map[string]map[string]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]map[string]int64, len(s.counts))
	for kind, names := range s.counts {
		cp := make(map[string]int64, len(names))
		for n, v := range names {
			cp[n] = v
		}
		out[kind] = cp
	}
	return out, nil
}

// RedisStats keeps cumulative per-kind hashes plus per-minute buckets that
// expire after ttl.
type RedisStats struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisStats(rdb *redis.Client, prefix string, ttl time.Duration) *RedisStats {
	prefix = strings.Trim(prefix, ":")
	if prefix == "" {
		prefix = "slideimg:stats"
	}
	return &RedisStats{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (s *RedisStats) Record(ctx context.Context, ev StatsEvent) error {
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}
	pipe := s.rdb.Pipeline()
	pipe.HIncrBy(ctx, s.prefix+":"+ev.Kind, ev.Name, 1)
	bucketKey := fmt.Sprintf("%s:minute:%s", s.prefix, at.UTC().Format("200601021504"))
	pipe.HIncrBy(ctx, bucketKey, ev.Kind+":"+ev.Name, 1)
	if s.ttl > 0 {
		pipe.Expire(ctx, bucketKey, s.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisStats) Snapshot(ctx context.Context) (map[string]map[string]int64, error) {
	out := make(map[string]map[string]int64)
	for _, kind := range []string{"cache", "strategy", "quota"} {
		vals, err := s.rdb.HGetAll(ctx, s.prefix+":"+kind).Result()
		if err != nil {
			return nil, err
		}
		counts := make(map[string]int64, len(vals))
		for name, v := range vals {
			var n int64
			fmt.Sscan(v, &n)
			counts[name] = n
		}
		out[kind] = counts
	}
	return out, nil
}
