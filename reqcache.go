package main

import (
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type CacheStatus int

const (
	CacheMiss CacheStatus = iota
	CacheHit
	// CacheFailureHit means the query recently returned nothing; don't ask again.
	CacheFailureHit
)

func (s CacheStatus) String() string {
	switch s {
	case CacheHit:
		return "hit"
	case CacheFailureHit:
		return "failure-hit"
	}
	return "miss"
}

type CacheOptions struct {
	TTL        time.Duration
	MaxEntries int
	EvictCount int
}

func DefaultCacheOptions() CacheOptions {
	return CacheOptions{TTL: 15 * time.Minute, MaxEntries: 100, EvictCount: 20}
}

type cacheEntry struct {
	photos []PhotoCandidate
	stored time.Time
}

// ResultCache keeps recent provider answers: non-empty results in one table,
// empty ones in another.
type ResultCache struct {
	mu      sync.Mutex
	opts    CacheOptions
	success map[string]cacheEntry
	failure map[string]cacheEntry
	now     func() time.Time
	log     *log.Logger
}

func NewResultCache(opts CacheOptions) *ResultCache {
	return &ResultCache{
		opts:    opts,
		success: make(map[string]cacheEntry),
		failure: make(map[string]cacheEntry),
		now:     time.Now,
		log:     newLogger("cache"),
	}
}

// lowerText lower-cases Unicode text. Casers hold state, so one per call.
func lowerText(s string) string {
	return cases.Lower(language.Und).String(s)
}

// normalizeQuery makes word-order variants of a query share a key.
func normalizeQuery(query string) string {
	words := strings.Fields(lowerText(query))
	sort.Strings(words)
	return strings.Join(words, " ")
}

type cacheKeyOptions struct {
	Orientation *string `json:"orientation"`
	Page        int     `json:"page"`
	PerPage     int     `json:"per_page"`
}

func CacheKey(query string, opts SearchOptions) string {
	ko := cacheKeyOptions{Page: opts.Page, PerPage: opts.PerPage}
	if opts.Orientation != "" {
		ko.Orientation = &opts.Orientation
	}
	if ko.Page < 1 {
		ko.Page = 1
	}
	if ko.PerPage < 1 {
		ko.PerPage = 15
	}
	encoded, _ := json.Marshal(ko)
	return fmt.Sprintf("search-%s-%s", normalizeQuery(query), encoded)
}

func CuratedKey(page, perPage int) string {
	return fmt.Sprintf("curated-%d-%d", page, perPage)
}

// Get checks the success table first, then the failure table.
func (rc *ResultCache) Get(key string) ([]PhotoCandidate, CacheStatus) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	now := rc.now()
	if e, ok := rc.success[key]; ok && rc.valid(e, now) {
		return e.photos, CacheHit
	}
	if e, ok := rc.failure[key]; ok && rc.valid(e, now) {
		return nil, CacheFailureHit
	}
	return nil, CacheMiss
}

func (rc *ResultCache) Put(key string, photos []PhotoCandidate, failure bool) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	table := rc.success
	if failure {
		table = rc.failure
	}
	table[key] = cacheEntry{photos: photos, stored: rc.now()}

	if len(table) > rc.opts.MaxEntries {
		rc.evictOldest(table)
	}
}

func (rc *ResultCache) evictOldest(table map[string]cacheEntry) {
	keys := make([]string, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return table[keys[i]].stored.Before(table[keys[j]].stored)
	})
	n := min(rc.opts.EvictCount, len(keys))
	for _, k := range keys[:n] {
		delete(table, k)
	}
	debugf(rc.log, "Evicted %d oldest entries", n)
}

func (rc *ResultCache) valid(e cacheEntry, now time.Time) bool {
	return now.Sub(e.stored) < rc.opts.TTL
}

func (rc *ResultCache) Clear() {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.success = make(map[string]cacheEntry)
	rc.failure = make(map[string]cacheEntry)
	rc.log.Println("Image cache cleared")
}

type CacheStats struct {
	SuccessCacheSize int `json:"successCacheSize"`
	FailureCacheSize int `json:"failureCacheSize"`
	TotalCached      int `json:"totalCached"`
}

func (rc *ResultCache) Stats() CacheStats {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return CacheStats{
		SuccessCacheSize: len(rc.success),
		FailureCacheSize: len(rc.failure),
		TotalCached:      len(rc.success) + len(rc.failure),
	}
}
