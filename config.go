package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

const defaultConfigFile = "conf/config.json"

type ProviderConfig struct {
	Use        string `json:"use" toml:"use"`
	TimeoutSec int    `json:"timeoutSec" toml:"timeoutSec"`
}

func (p ProviderConfig) timeout() time.Duration {
	if p.TimeoutSec <= 0 {
		return 15 * time.Second
	}
	return time.Duration(p.TimeoutSec) * time.Second
}

type Config struct {
	Pexels struct {
		Key     string `json:"key" toml:"key"`
		BaseURL string `json:"baseUrl" toml:"baseUrl"`
	} `json:"pexels.com" toml:"pexels"`
	Unsplash struct {
		AccessKey string `json:"access" toml:"access"`
		BaseURL   string `json:"baseUrl" toml:"baseUrl"`
	} `json:"unsplash.com" toml:"unsplash"`
	Pixabay struct {
		Key     string `json:"key" toml:"key"`
		BaseURL string `json:"baseUrl" toml:"baseUrl"`
	} `json:"pixabay.com" toml:"pixabay"`
	Provider ProviderConfig `json:"provider" toml:"provider"`
	Queue    struct {
		MinDelayMs      int `json:"minDelayMs" toml:"minDelayMs"`
		MaxPerHour      int `json:"maxPerHour" toml:"maxPerHour"`
		RetryBackoffSec int `json:"retryBackoffSec" toml:"retryBackoffSec"`
	} `json:"queue" toml:"queue"`
	Cache struct {
		TTLMinutes int `json:"ttlMinutes" toml:"ttlMinutes"`
		MaxEntries int `json:"maxEntries" toml:"maxEntries"`
		EvictCount int `json:"evictCount" toml:"evictCount"`
	} `json:"cache" toml:"cache"`
	Server struct {
		Listen      string  `json:"listen" toml:"listen"`
		Auth        bool    `json:"auth" toml:"auth"`
		ClientRPS   float64 `json:"clientRps" toml:"clientRps"`
		ClientBurst int     `json:"clientBurst" toml:"clientBurst"`
	} `json:"server" toml:"server"`
	Database      string `json:"database" toml:"database"`
	RetentionDays int    `json:"retentionDays" toml:"retentionDays"`
	Log           struct {
		File       string `json:"file" toml:"file"`
		MaxSizeMB  int    `json:"maxSizeMB" toml:"maxSizeMB"`
		MaxBackups int    `json:"maxBackups" toml:"maxBackups"`
		MaxAgeDays int    `json:"maxAgeDays" toml:"maxAgeDays"`
		Compress   bool   `json:"compress" toml:"compress"`
	} `json:"log" toml:"log"`
	Stats struct {
		RedisAddr string `json:"redisAddr" toml:"redisAddr"`
		Password  string `json:"password" toml:"password"`
		DB        int    `json:"db" toml:"db"`
		Prefix    string `json:"prefix" toml:"prefix"`
		TTLHours  int    `json:"ttlHours" toml:"ttlHours"`
	} `json:"stats" toml:"stats"`
	Debug struct {
		PrettyJson bool `json:"prettyJson" toml:"prettyJson"`
		Verbose    bool `json:"verbose" toml:"verbose"`
	} `json:"debug" toml:"debug"`
}

// loadConfig reads a JSON or TOML (by extension) config file. A missing
// default file is not an error: defaults and the environment still apply.
func loadConfig(filename string) (*Config, error) {
	cfg := &Config{}
	explicit := filename != ""
	if !explicit {
		filename = defaultConfigFile
	}

	f, err := os.Open(filename)
	switch {
	case err == nil:
		defer f.Close()
		if err := decodeConfig(f, filename, cfg); err != nil {
			return nil, err
		}
	case explicit || !os.IsNotExist(err):
		return nil, err
	}

	if key := os.Getenv("PEXELS_API_KEY"); key != "" {
		cfg.Pexels.Key = key
	}
	applyDefaults(cfg)
	return cfg, nil
}

func decodeConfig(f *os.File, filename string, cfg *Config) error {
	if strings.EqualFold(filepath.Ext(filename), ".toml") {
		if err := toml.NewDecoder(f).Decode(cfg); err != nil {
			if derr, ok := err.(*toml.DecodeError); ok {
				row, col := derr.Position()
				return fmt.Errorf("unable to decode configuration file (Line: %d, Pos: %d); - %w", row, col, err)
			}
			return fmt.Errorf("unable to decode configuration file; - %w", err)
		}
		return nil
	}

	switch err := json.NewDecoder(f).Decode(cfg).(type) {
	case nil:
		return nil
	case *json.SyntaxError:
		f.Seek(0, io.SeekStart)
		pos := findPos(bufio.NewReader(f), int(err.Offset))
		return fmt.Errorf("unable to decode configuration file (Line: %d, Pos: %d); - %w", pos.line, pos.pos, err)
	default:
		return fmt.Errorf("unable to decode configuration file; - %w", err)
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Provider.Use == "" {
		cfg.Provider.Use = "pexels"
	}
	if cfg.Queue.MinDelayMs <= 0 {
		cfg.Queue.MinDelayMs = 200
	}
	if cfg.Queue.MaxPerHour <= 0 {
		cfg.Queue.MaxPerHour = 180
	}
	if cfg.Queue.RetryBackoffSec <= 0 {
		cfg.Queue.RetryBackoffSec = 60
	}
	if cfg.Cache.TTLMinutes <= 0 {
		cfg.Cache.TTLMinutes = 15
	}
	if cfg.Cache.MaxEntries <= 0 {
		cfg.Cache.MaxEntries = 100
	}
	if cfg.Cache.EvictCount <= 0 {
		cfg.Cache.EvictCount = 20
	}
	if cfg.Server.Listen == "" {
		cfg.Server.Listen = ":8081"
	}
	if cfg.Server.ClientRPS <= 0 {
		cfg.Server.ClientRPS = 5
	}
	if cfg.Server.ClientBurst <= 0 {
		cfg.Server.ClientBurst = 10
	}
	if cfg.RetentionDays <= 0 {
		cfg.RetentionDays = 30
	}
	if cfg.Log.MaxSizeMB <= 0 {
		cfg.Log.MaxSizeMB = 10
	}
	if cfg.Stats.TTLHours <= 0 {
		cfg.Stats.TTLHours = 24
	}
}

func (cfg *Config) queueOptions() QueueOptions {
	opts := DefaultQueueOptions()
	opts.MinDelay = time.Duration(cfg.Queue.MinDelayMs) * time.Millisecond
	opts.MaxPerWindow = cfg.Queue.MaxPerHour
	return opts
}

func (cfg *Config) cacheOptions() CacheOptions {
	return CacheOptions{
		TTL:        time.Duration(cfg.Cache.TTLMinutes) * time.Minute,
		MaxEntries: cfg.Cache.MaxEntries,
		EvictCount: cfg.Cache.EvictCount,
	}
}

// apiKey returns the configured key of the selected provider.
func (cfg *Config) apiKey() string {
	switch cfg.Provider.Use {
	case "unsplash":
		return cfg.Unsplash.AccessKey
	case "pixabay":
		return cfg.Pixabay.Key
	}
	return cfg.Pexels.Key
}

// newProvider builds the PhotoService named by cfg.Provider.Use.
func newProvider(cfg *Config, limits *RateLimitInfo) (PhotoService, error) {
	switch cfg.Provider.Use {
	case "pexels":
		return NewPexelsApi(cfg, limits), nil
	case "unsplash":
		return NewUnsplashApi(cfg, limits), nil
	case "pixabay":
		return NewPixabayApi(cfg, limits), nil
	}
	return nil, fmt.Errorf("unknown provider %q", cfg.Provider.Use)
}

type FilePos struct {
	line int
	pos  int
}

func findPos(file *bufio.Reader, offset int) FilePos {
	p := FilePos{line: 1, pos: offset}
	var lineLen int
	for line, err := file.ReadBytes('\n'); len(line) > 0 && err == nil; line, err = file.ReadBytes('\n') {
		if p.pos < len(line) {
			return p
		}
		lineLen += len(line)
		if line[len(line)-1] == '\n' {
			p.line += 1
			p.pos -= lineLen
			lineLen = 0
		}
	}
	return p
}
