//go:build darwin

// Package applemusic polls Music.app's now-playing state by shelling out to
// osascript running a small JXA (JavaScript for Automation) helper, mirroring
// original_source/crates/providers/src/macos.rs. No Go AppleScript/JXA
// binding appears anywhere in the retrieved pack, so this follows the
// original's own strategy of invoking the system scripting host directly.
package applemusic

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vincenzomaritato/presence-bridge/internal/model"
	"github.com/vincenzomaritato/presence-bridge/internal/urls"
)

const pollTimeout = 3 * time.Second

// script asks Music.app for its player state and current track in one
// round trip and always returns a single line of JSON, even on failure.
const script = `
(function () {
  try {
    var music = Application("Music");
    if (!music.running()) {
      return JSON.stringify({ state: "stopped" });
    }
    var state = String(music.playerState()).toLowerCase();
    if (state !== "playing" && state !== "paused") {
      return JSON.stringify({ state: "stopped" });
    }
    var track = music.currentTrack();
    return JSON.stringify({
      state: state,
      title: track.name(),
      artist: track.artist(),
      album: track.album(),
      duration: track.duration(),
      position: music.playerPosition(),
      persistentId: track.persistentID()
    });
  } catch (e) {
    return JSON.stringify({ state: "error", error: String(e) });
  }
})()
`

type jxaResult struct {
	State        string  `json:"state"`
	Title        string  `json:"title"`
	Artist       string  `json:"artist"`
	Album        string  `json:"album"`
	Duration     float64 `json:"duration"`
	Position     float64 `json:"position"`
	PersistentID string  `json:"persistentId"`
	Error        string  `json:"error"`
}

// Provider reads Music.app's playback state via osascript.
type Provider struct {
	log *logrus.Entry
}

func New(log *logrus.Entry) *Provider {
	return &Provider{log: log}
}

func (p *Provider) Name() string { return "apple_music" }

func (p *Provider) Poll(ctx context.Context) (model.Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, pollTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "osascript", "-l", "JavaScript", "-e", script)
	out, err := cmd.Output()
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("run apple music helper: %w", err)
	}

	result, err := parseResult(out)
	if err != nil {
		return model.Snapshot{}, err
	}
	if result.Error != "" {
		return model.Snapshot{}, fmt.Errorf("apple music helper: %s", result.Error)
	}

	return toSnapshot(result), nil
}

func parseResult(out []byte) (jxaResult, error) {
	var result jxaResult
	line := strings.TrimSpace(string(out))
	if err := json.Unmarshal([]byte(line), &result); err != nil {
		return jxaResult{}, fmt.Errorf("parse apple music helper output %q: %w", line, err)
	}
	return result, nil
}

func toSnapshot(result jxaResult) model.Snapshot {
	snap := model.Snapshot{Source: model.SourceAppleMusicMac, CapturedAt: time.Now()}

	switch result.State {
	case "playing":
		snap.State = model.StatePlaying
	case "paused":
		snap.State = model.StatePaused
	default:
		snap.State = model.StateStopped
		return snap
	}

	snap.Title = result.Title
	snap.Artist = result.Artist
	snap.Album = result.Album
	if result.Duration > 0 {
		ms := uint64(result.Duration * 1000)
		snap.DurationMs = &ms
	}
	if result.Position >= 0 {
		ms := uint64(result.Position * 1000)
		snap.PositionMs = &ms
	}
	snap.TrackID = result.PersistentID
	snap.Links = model.Links{
		AppleMusic:    urls.AppleMusicSearch(result.Artist, result.Title),
		SpotifySearch: urls.SpotifySearch(result.Artist, result.Title),
	}

	return snap
}
