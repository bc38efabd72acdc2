package debug

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	mu     sync.RWMutex
	logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	output io.Writer = io.Discard
)

// Setup installs a logger writing to w. Empty level and format fall back to
// LOG_LEVEL and LOG_FORMAT from the environment.
func Setup(w io.Writer, level, format string) *slog.Logger {
	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}
	if format == "" {
		format = os.Getenv("LOG_FORMAT")
	}

	lvl := slog.LevelInfo
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}

	var h slog.Handler
	if strings.ToLower(format) == "json" {
		h = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})
	} else {
		h = slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})
	}

	l := slog.New(h)
	mu.Lock()
	logger = l
	output = w
	mu.Unlock()
	return l
}

// L returns the current logger
func L() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// Log writes a debug-level event with key/value attributes
func Log(msg string, args ...any) {
	L().Debug(msg, args...)
}

// Enabled returns true if debug logging is enabled
func Enabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return output != io.Discard
}
