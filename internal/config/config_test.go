package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.DiscordAppID != "YOUR_DISCORD_APP_ID" {
		t.Errorf("DiscordAppID = %q, want placeholder", cfg.DiscordAppID)
	}
	if cfg.Intervals.PlayingPollMs != 1000 {
		t.Errorf("PlayingPollMs = %d, want 1000", cfg.Intervals.PlayingPollMs)
	}
	if cfg.Intervals.PresenceMinUpdateMs != 15000 {
		t.Errorf("PresenceMinUpdateMs = %d, want 15000", cfg.Intervals.PresenceMinUpdateMs)
	}
	if !cfg.EnableButtons {
		t.Error("EnableButtons = false, want true by default")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		appID   string
		wantErr bool
	}{
		{name: "placeholder rejected", appID: "YOUR_DISCORD_APP_ID", wantErr: true},
		{name: "empty rejected", appID: "", wantErr: true},
		{name: "whitespace rejected", appID: "   ", wantErr: true},
		{name: "real id accepted", appID: "123456789012345678", wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.DiscordAppID = tt.appID
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "does-not-exist.toml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}
	if cfg.DiscordAppID != "YOUR_DISCORD_APP_ID" {
		t.Errorf("DiscordAppID = %q, want default placeholder", cfg.DiscordAppID)
	}
}

func TestLoad_ParsesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	data := `
discord_app_id = "999"
enable_buttons = false

[intervals]
playing_poll_ms = 2000
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.DiscordAppID != "999" {
		t.Errorf("DiscordAppID = %q, want 999", cfg.DiscordAppID)
	}
	if cfg.EnableButtons {
		t.Error("EnableButtons = true, want false from file")
	}
	if cfg.Intervals.PlayingPollMs != 2000 {
		t.Errorf("PlayingPollMs = %d, want 2000", cfg.Intervals.PlayingPollMs)
	}
	// Unset fields still carry defaults.
	if cfg.Intervals.PausedPollMs != 7000 {
		t.Errorf("PausedPollMs = %d, want default 7000", cfg.Intervals.PausedPollMs)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	t.Setenv("PRESENCE_BRIDGE_DISCORD_APP_ID", "env-id")
	t.Setenv("PRESENCE_BRIDGE_LOG_LEVEL", "debug")
	t.Setenv("PRESENCE_BRIDGE_ENABLE_BUTTONS", "false")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.DiscordAppID != "env-id" {
		t.Errorf("DiscordAppID = %q, want env-id", cfg.DiscordAppID)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	if cfg.EnableButtons {
		t.Error("EnableButtons = true, want false from env override")
	}
}

func TestInit_WritesLoadableFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.toml")

	if err := Init(path); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() after Init() error = %v", err)
	}
	if cfg.DiscordAppID != "YOUR_DISCORD_APP_ID" {
		t.Errorf("DiscordAppID = %q, want placeholder", cfg.DiscordAppID)
	}
}

func TestDefaultPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-home")
	got := DefaultPath()
	want := filepath.Join("/tmp/xdg-home", "presence-bridge", "config.toml")
	if got != want {
		t.Errorf("DefaultPath() = %q, want %q", got, want)
	}
}
