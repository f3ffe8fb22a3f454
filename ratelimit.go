package main

import (
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"
)

const (
	HeaderRateLimit     = "X-Ratelimit-Limit"
	HeaderRateRemaining = "X-Ratelimit-Remaining"
	HeaderRateReset     = "X-Ratelimit-Reset"

	// remainingWarnAt triggers a log warning when the provider quota runs low.
	remainingWarnAt = 20
)

// RateLimitInfo mirrors the provider's quota headers. It is informational only:
// the request queue gates on its own counters.
type RateLimitInfo struct {
	mu        sync.Mutex
	limit     int
	remaining int
	reset     time.Time
	log       *log.Logger
}

func NewRateLimitInfo(limit int, logger *log.Logger) *RateLimitInfo {
	return &RateLimitInfo{limit: limit, remaining: limit, log: logger}
}

// Update reads the quota headers from a provider response.
func (r *RateLimitInfo) Update(h http.Header) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if v := h.Get(HeaderRateLimit); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			r.limit = n
		}
	}
	if v := h.Get(HeaderRateRemaining); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			r.remaining = n
			if n < remainingWarnAt && r.log != nil {
				r.log.Printf("WARN only %d requests remaining in provider quota", n)
			}
		}
	}
	if v := h.Get(HeaderRateReset); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			r.reset = time.Unix(n, 0)
		}
	}
}

func (r *RateLimitInfo) ResetAt() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reset
}

type RateLimitStatus struct {
	Limit                 int       `json:"limit"`
	Remaining             int       `json:"remaining"`
	Reset                 time.Time `json:"reset,omitzero"`
	PercentageUsed        float64   `json:"percentageUsed"`
	RequestsInCurrentHour int       `json:"requestsInCurrentHour"`
	MaxRequestsPerHour    int       `json:"maxRequestsPerHour"`
	QueueLength           int       `json:"queueLength"`
}

func (r *RateLimitInfo) snapshot() RateLimitStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := RateLimitStatus{Limit: r.limit, Remaining: r.remaining, Reset: r.reset}
	if r.limit > 0 {
		s.PercentageUsed = float64(r.limit-r.remaining) / float64(r.limit) * 100
	}
	return s
}
