// Package logging wires up per-component structured loggers, grounded on
// grovetools-core/logging/logger.go's singleton-per-component pattern,
// simplified for a background daemon: text formatter to stderr, level from
// config or PRESENCE_BRIDGE_LOG_LEVEL, no file sink or terminal-detection
// branching.
package logging

import (
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	mu      sync.Mutex
	level   = logrus.InfoLevel
	loggers = make(map[string]*logrus.Entry)
)

// Init sets the process-wide log level from a config value, overridden by
// PRESENCE_BRIDGE_LOG_LEVEL when set. Call before the first For.
func Init(levelStr string) {
	mu.Lock()
	defer mu.Unlock()

	if env := os.Getenv("PRESENCE_BRIDGE_LOG_LEVEL"); env != "" {
		levelStr = env
	}
	parsed, err := logrus.ParseLevel(levelStr)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	level = parsed
	for _, entry := range loggers {
		entry.Logger.SetLevel(level)
	}
}

// For returns the named component's logger, creating it on first use.
func For(component string) *logrus.Entry {
	mu.Lock()
	defer mu.Unlock()

	if entry, ok := loggers[component]; ok {
		return entry
	}

	base := logrus.New()
	base.SetOutput(os.Stderr)
	base.SetLevel(level)
	base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	entry := base.WithField("component", component)
	loggers[component] = entry
	return entry
}
