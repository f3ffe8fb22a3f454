package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/andybalholm/brotli"
	"golang.org/x/time/rate"
)

// clientLimiters hands out one token bucket per caller address so a single
// browser tab cannot drain the provider quota for everyone.
type clientLimiters struct {
	mu      sync.Mutex
	entries map[string]*clientLimiter
	rps     rate.Limit
	burst   int
	idleTTL time.Duration
}

type clientLimiter struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

func newClientLimiters(rps float64, burst int) *clientLimiters {
	return &clientLimiters{
		entries: make(map[string]*clientLimiter),
		rps:     rate.Limit(rps),
		burst:   burst,
		idleTTL: 15 * time.Minute,
	}
}

func (c *clientLimiters) get(key string) *rate.Limiter {
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	if ent, ok := c.entries[key]; ok {
		ent.lastSeen = now
		return ent.lim
	}
	lim := rate.NewLimiter(c.rps, c.burst)
	c.entries[key] = &clientLimiter{lim: lim, lastSeen: now}
	return lim
}

func (c *clientLimiters) cleanup() {
	cutoff := time.Now().Add(-c.idleTTL)
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, ent := range c.entries {
		if ent.lastSeen.Before(cutoff) {
			delete(c.entries, k)
		}
	}
}

func (c *clientLimiters) startJanitor(ctx context.Context, every time.Duration) {
	go func() {
		t := time.NewTicker(every)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				c.cleanup()
			}
		}
	}()
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type server struct {
	app      *App
	limiters *clientLimiters
	log      *log.Logger
}

func newServer(app *App) *server {
	return &server{
		app:      app,
		limiters: newClientLimiters(app.cfg.Server.ClientRPS, app.cfg.Server.ClientBurst),
		log:      newLogger("http"),
	}
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /image", s.handleImage)
	mux.HandleFunc("GET /search", s.handleSearch)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("POST /cache/clear", s.handleClearCache)
	mux.HandleFunc("PUT /key", s.handleSetKey)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, r, http.StatusNotFound, "Not Found")
	})
	return s.limit(s.auth(mux))
}

func (s *server) auth(next http.Handler) http.Handler {
	if !s.app.cfg.Server.Auth {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || !s.app.store.TestUser(user, pass) {
			w.Header().Set("WWW-Authenticate", `Basic realm="slideimgproxy"`)
			s.writeError(w, r, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *server) limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lim := s.limiters.get(clientKey(r))
		res := lim.Reserve()
		if delay := res.Delay(); delay > 0 {
			res.Cancel()
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(delay.Seconds()))))
			s.writeError(w, r, http.StatusTooManyRequests, "Too Many Requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *server) handleImage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	description := strings.TrimSpace(q.Get("description"))
	if description == "" {
		s.writeError(w, r, http.StatusBadRequest, "Query parameter ?description= missing")
		return
	}
	if !s.app.client.HasAPIKey() {
		s.writeError(w, r, http.StatusServiceUnavailable, ErrMissingAPIKey.Error())
		return
	}
	var theme *ThemeColors
	if q.Get("primary") != "" || q.Get("secondary") != "" {
		theme = &ThemeColors{Primary: q.Get("primary"), Secondary: q.Get("secondary")}
	}

	photo := s.app.search.GetImageForSlide(description, q.Get("layout"), theme)
	if photo == nil {
		s.writeJSON(w, r, http.StatusNotFound, map[string]bool{"found": false})
		return
	}
	s.writeJSON(w, r, http.StatusOK, photo)
}

func (s *server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q, hasQ := r.URL.Query()["q"]
	if !hasQ {
		s.writeError(w, r, http.StatusBadRequest, "Query Search Parameter ?q= missing")
		return
	}
	search := strings.Join(q, " ")
	page := 1
	if n, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && n > 0 {
		page = n
	}
	if page > MaxPage {
		s.writeError(w, r, http.StatusBadRequest, fmt.Sprintf("page must be at most %d", MaxPage))
		return
	}

	photos, err := s.app.search.Candidates(r.Context(), search, page)
	if err != nil {
		s.log.Println("Error connecting to upstream services:", err)
		status := http.StatusBadGateway
		if isConfigError(err) {
			status = http.StatusServiceUnavailable
		}
		s.writeError(w, r, status, err.Error())
		return
	}
	out := make([]*FormattedPhoto, len(photos))
	provider := s.app.client.Provider()
	for i, p := range photos {
		out[i] = formatPhoto(p.PhotoCandidate, provider.Name(), provider.SiteURL())
	}
	s.writeJSON(w, r, http.StatusOK, out)
}

func (s *server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, s.app.client.DebugInfo(r.Context()))
}

func (s *server) handleClearCache(w http.ResponseWriter, r *http.Request) {
	s.app.client.ClearCache()
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleSetKey(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Key string `json:"key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if strings.TrimSpace(body.Key) == "" {
		s.writeError(w, r, http.StatusBadRequest, "key must not be empty")
		return
	}
	s.app.client.SetAPIKey(strings.TrimSpace(body.Key))
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	body := brotli.HTTPCompressor(w, r)
	defer body.Close()
	w.WriteHeader(status)
	enc := json.NewEncoder(body)
	indent := ""
	if s.app.cfg.Debug.PrettyJson {
		indent = "  "
	}
	enc.SetIndent("", indent)
	if err := enc.Encode(v); err != nil {
		s.log.Println("Error writing response:", err)
	}
}

func (s *server) writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	s.writeJSON(w, r, status, map[string]string{"error": msg})
}

func serve(app *App) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app.store.StartPurge(time.Duration(app.cfg.RetentionDays) * 24 * time.Hour)
	app.client.LogStatus()

	s := newServer(app)
	s.limiters.startJanitor(ctx, 2*time.Minute)

	s.log.Println("Starting Server on", app.cfg.Server.Listen)
	err := http.ListenAndServe(app.cfg.Server.Listen, s.routes())
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
