package config

import (
	"os"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// Manager owns the live Config and republishes new snapshots on reload.
// Readers always see a coherent version: Current() returns a fully-built
// *Config, never a partially-applied one, via copy-on-swap publication.
type Manager struct {
	path    string
	current atomic.Pointer[Config]
	log     *logrus.Entry
	reload  chan struct{}
}

// NewManager loads path once and returns a Manager ready to watch it.
func NewManager(path string, log *logrus.Entry) (*Manager, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	m := &Manager{path: path, log: log, reload: make(chan struct{}, 1)}
	m.current.Store(cfg)
	return m, nil
}

// Current returns the most recently published Config snapshot.
func (m *Manager) Current() *Config {
	return m.current.Load()
}

// Reloaded returns a channel that receives a value each time a reload
// succeeds and a new Config is published (callers read it via Current());
// a failed reload sends nothing. The channel is buffered to 1 so a burst of
// filesystem events collapses into a single wake-up.
func (m *Manager) Reloaded() <-chan struct{} {
	return m.reload
}

// reloadNow re-reads the config file. On parse failure the previous config
// is kept and the error logged — reload failures are never fatal.
func (m *Manager) reloadNow() {
	cfg, err := Load(m.path)
	if err != nil {
		m.log.WithError(err).Warn("config reload failed, keeping previous configuration")
		return
	}
	m.current.Store(cfg)
	m.log.Info("configuration reloaded")
	select {
	case m.reload <- struct{}{}:
	default:
	}
}

// Watch runs the reload triggers until ctx-like stop channel closes: an
// fsnotify watch on the config file (primary), a periodic mtime poll as a
// fallback for filesystems or editors fsnotify misses (mirrors
// original_source's file_watch_poll_ms watcher). SIGHUP is not handled
// here: on platforms that support it the caller wires it to ReloadNow.
func (m *Manager) Watch(stop <-chan struct{}) {
	pollMs := m.Current().Intervals.FileWatchPollMs
	if pollMs == 0 {
		pollMs = 10_000
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		m.log.WithError(err).Warn("fsnotify unavailable, falling back to mtime polling only")
		m.pollOnly(stop, time.Duration(pollMs)*time.Millisecond)
		return
	}
	defer watcher.Close()

	if err := watcher.Add(m.path); err != nil {
		m.log.WithError(err).Debug("could not watch config file directly, waiting for it to appear")
	}

	ticker := time.NewTicker(time.Duration(pollMs) * time.Millisecond)
	defer ticker.Stop()

	known := fileMtime(m.path)

	for {
		select {
		case <-stop:
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				m.reloadNow()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			m.log.WithError(err).Debug("fsnotify watch error")
		case <-ticker.C:
			current := fileMtime(m.path)
			if current != nil && (known == nil || !current.Equal(*known)) {
				known = current
				m.reloadNow()
			}
		}
	}
}

func (m *Manager) pollOnly(stop <-chan struct{}, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	known := fileMtime(m.path)

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			current := fileMtime(m.path)
			if current != nil && (known == nil || !current.Equal(*known)) {
				known = current
				m.reloadNow()
			}
		}
	}
}

// ReloadNow forces an immediate reload, used by the SIGHUP handler.
func (m *Manager) ReloadNow() {
	m.reloadNow()
}

func fileMtime(path string) *time.Time {
	info, err := os.Stat(path)
	if err != nil {
		return nil
	}
	t := info.ModTime()
	return &t
}
