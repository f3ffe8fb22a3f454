package main

import (
	"io"
	"log"
	"os"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	logMu     sync.RWMutex
	logOutput io.Writer = os.Stderr
	logFile   *lumberjack.Logger
	verbose   bool
)

// setupLogging points every component logger at stderr and, when configured,
// a rotating log file.
func setupLogging(cfg *Config) {
	logMu.Lock()
	defer logMu.Unlock()

	verbose = cfg.Debug.Verbose
	if cfg.Log.File == "" {
		logOutput = os.Stderr
		return
	}
	logFile = &lumberjack.Logger{
		Filename:   cfg.Log.File,
		MaxSize:    cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	}
	logOutput = io.MultiWriter(os.Stderr, logFile)
}

func closeLogging() error {
	logMu.Lock()
	defer logMu.Unlock()
	if logFile == nil {
		return nil
	}
	err := logFile.Close()
	logFile = nil
	logOutput = os.Stderr
	return err
}

// newLogger returns a component logger, e.g. "(pexels) ".
func newLogger(component string) *log.Logger {
	logMu.RLock()
	defer logMu.RUnlock()
	return log.New(logOutput, "("+component+") ", log.LstdFlags)
}

// debugf logs only in verbose mode.
func debugf(l *log.Logger, format string, v ...any) {
	logMu.RLock()
	on := verbose
	logMu.RUnlock()
	if on {
		l.Printf(format, v...)
	}
}
