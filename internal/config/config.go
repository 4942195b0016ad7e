// Package config loads the immutable presence-bridge configuration from a
// TOML file, applies environment overrides, and exposes a hot-reload watcher
// that publishes new snapshots through an atomic pointer. The load/parse
// stack is koanf plus its file provider and TOML parser.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Process exit codes.
const (
	ExitOK          = 0
	ExitRuntimeErr  = 1
	ExitConfigError = 2
)

// SchemaVersion is the current config schema version written by `config init`.
const SchemaVersion = 1

// Intervals holds every timing knob the scheduler and engine read.
type Intervals struct {
	PlayingPollMs       uint64 `koanf:"playing_poll_ms"`
	PausedPollMs        uint64 `koanf:"paused_poll_ms"`
	StoppedPollMs       uint64 `koanf:"stopped_poll_ms"`
	PresenceMinUpdateMs uint64 `koanf:"presence_min_update_ms"`
	DebounceMs          uint64 `koanf:"debounce_ms"`
	FileWatchPollMs     uint64 `koanf:"file_watch_poll_ms"`
}

// Assets names the Discord Rich Presence asset keys configured in the
// Discord developer portal for this application.
type Assets struct {
	LargeImage      string `koanf:"large_image"`
	LargeText       string `koanf:"large_text"`
	SmallPlayImage  string `koanf:"small_play_image"`
	SmallPauseImage string `koanf:"small_pause_image"`
}

// Config is the immutable, per-read configuration snapshot. A new Config is
// produced on every reload and swapped in atomically; nothing in this repo
// ever mutates one in place.
type Config struct {
	SchemaVersion    int       `koanf:"schema_version"`
	DiscordAppID     string    `koanf:"discord_app_id"`
	ProviderPriority []string  `koanf:"provider_priority"`
	Intervals        Intervals `koanf:"intervals"`
	EnableButtons    bool      `koanf:"enable_buttons"`
	LogLevel         string    `koanf:"log_level"`
	Assets           Assets    `koanf:"assets"`
}

// Default returns the built-in configuration defaults, mirroring
// original_source/crates/core/src/config.rs.
func Default() *Config {
	return &Config{
		SchemaVersion: SchemaVersion,
		DiscordAppID:  "YOUR_DISCORD_APP_ID",
		ProviderPriority: []string{
			"apple_music",
			"windows",
			"mpris",
		},
		Intervals: Intervals{
			PlayingPollMs:       1_000,
			PausedPollMs:        7_000,
			StoppedPollMs:       30_000,
			PresenceMinUpdateMs: 15_000,
			DebounceMs:          500,
			FileWatchPollMs:     10_000,
		},
		EnableButtons: true,
		LogLevel:      "info",
		Assets: Assets{
			LargeImage:      "app_icon",
			LargeText:       "presence-bridge",
			SmallPlayImage:  "play",
			SmallPauseImage: "pause",
		},
	}
}

// ErrMissingAppID is returned by Validate when discord_app_id is unset.
var ErrMissingAppID = fmt.Errorf("discord_app_id is required")

// Validate checks the invariants that are fatal at startup.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DiscordAppID) == "" || c.DiscordAppID == "YOUR_DISCORD_APP_ID" {
		return ErrMissingAppID
	}
	return nil
}

// Load reads the config file at path, applying defaults for anything it
// leaves unset and environment overrides on top. A missing file is not an
// error — Default() is returned unmodified aside from env overrides.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if _, err := os.Stat(path); err == nil {
		if loadErr := k.Load(file.Provider(path), toml.Parser()); loadErr != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, loadErr)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("stat config %s: %w", path, err)
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config %s: %w", path, err)
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// Init writes the default configuration to path as commented TOML, creating
// parent directories as needed. Used by the `config init` CLI subcommand.
func Init(path string) error {
	if parent := filepath.Dir(path); parent != "" && parent != "." {
		if err := os.MkdirAll(parent, 0o755); err != nil {
			return fmt.Errorf("create config directory %s: %w", parent, err)
		}
	}

	if err := os.WriteFile(path, []byte(defaultTOML), 0o644); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}

// DefaultPath returns the conventional config file location,
// $XDG_CONFIG_HOME/presence-bridge/config.toml (or ~/.config/... on
// platforms without XDG_CONFIG_HOME set).
func DefaultPath() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "presence-bridge", "config.toml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "presence-bridge", "config.toml")
	}
	return filepath.Join(home, ".config", "presence-bridge", "config.toml")
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PRESENCE_BRIDGE_DISCORD_APP_ID"); strings.TrimSpace(v) != "" {
		cfg.DiscordAppID = v
	}
	if v := os.Getenv("PRESENCE_BRIDGE_LOG_LEVEL"); strings.TrimSpace(v) != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("PRESENCE_BRIDGE_ENABLE_BUTTONS"); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			cfg.EnableButtons = parsed
		}
	}
}

const defaultTOML = `schema_version = ` + "1" + `
discord_app_id = "YOUR_DISCORD_APP_ID"
provider_priority = ["apple_music", "windows", "mpris"]
enable_buttons = true
log_level = "info"

[intervals]
playing_poll_ms = 1000
paused_poll_ms = 7000
stopped_poll_ms = 30000
presence_min_update_ms = 15000
debounce_ms = 500
file_watch_poll_ms = 10000

[assets]
large_image = "app_icon"
large_text = "presence-bridge"
small_play_image = "play"
small_pause_image = "pause"
`
