//go:build windows

// Package winmedia polls the Windows System Media Transport Controls (the
// same session registry that feeds the system media overlay) by shelling
// out to powershell.exe running a small WinRT-interop script. No Go WinRT
// or COM binding for Windows.Media.Control appears anywhere in the
// retrieved pack, so this follows the platform's own scripting host rather
// than inventing a binding.
package winmedia

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

// script activates the GlobalSystemMediaTransportControlsSessionManager
// WinRT API via System.Runtime.WindowsRuntime's IAsyncOperation adapter and
// prints the current session's properties as one line of compact JSON.
//
// Built from two raw-string halves because the .NET generic type name
// IAsyncOperation`1 contains a backtick, which cannot appear inside a Go
// raw string literal.
const scriptHead = `
$ErrorActionPreference = "Stop"
try {
  Add-Type -AssemblyName System.Runtime.WindowsRuntime
  $asTaskGeneric = ([System.WindowsRuntimeSystemExtensions].GetMethods() | Where-Object {
    $_.Name -eq 'AsTask' -and $_.GetParameters().Count -eq 1 -and $_.GetParameters()[0].ParameterType.Name -eq 'IAsyncOperation`

const scriptTail = `1' })[0]
  function Await($WinRtTask, $ResultType) {
    $asTask = $asTaskGeneric.MakeGenericMethod($ResultType)
    $netTask = $asTask.Invoke($null, @($WinRtTask))
    $netTask.Wait(-1) | Out-Null
    $netTask.Result
  }
  [Windows.Media.Control.GlobalSystemMediaTransportControlsSessionManager,Windows.Media.Control,ContentType=WindowsRuntime] | Out-Null
  $manager = Await ([Windows.Media.Control.GlobalSystemMediaTransportControlsSessionManager]::RequestAsync()) ([Windows.Media.Control.GlobalSystemMediaTransportControlsSessionManager])
  $session = $manager.GetCurrentSession()
  if ($null -eq $session) {
    Write-Output (ConvertTo-Json @{ state = "stopped" } -Compress)
    exit
  }
  $props = Await ($session.TryGetMediaPropertiesAsync()) ([Windows.Media.Control.GlobalSystemMediaTransportControlsSessionMediaProperties])
  $playback = $session.GetPlaybackInfo()
  $timeline = $session.GetTimelineProperties()
  $state = switch ($playback.PlaybackStatus) {
    4 { "playing" }
    5 { "paused" }
    default { "stopped" }
  }
  $result = @{
    state = $state
    title = $props.Title
    artist = $props.Artist
    album = $props.AlbumTitle
    durationMs = [int64]$timeline.EndTime.TotalMilliseconds
    positionMs = [int64]$timeline.Position.TotalMilliseconds
  }
  Write-Output (ConvertTo-Json $result -Compress)
} catch {
  Write-Output (ConvertTo-Json @{ state = "error"; error = $_.Exception.Message } -Compress)
}
`

const script = scriptHead + "`" + scriptTail

type sessionResult struct {
	State      string `json:"state"`
	Title      string `json:"title"`
	Artist     string `json:"artist"`
	Album      string `json:"album"`
	DurationMs int64  `json:"durationMs"`
	PositionMs int64  `json:"positionMs"`
	Error      string `json:"error"`
}

// Provider reads the active Windows media session via powershell.exe.
type Provider struct {
	log *logrus.Entry
}

func New(log *logrus.Entry) *Provider {
	return &Provider{log: log}
}

func (p *Provider) Name() string { return "windows" }

func (p *Provider) Poll(ctx context.Context) (model.Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, pollTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "powershell.exe", "-NoProfile", "-NonInteractive", "-Command", script)
	out, err := cmd.Output()
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("run windows media session helper: %w", err)
	}

	result, err := parseResult(out)
	if err != nil {
		return model.Snapshot{}, err
	}
	if result.Error != "" {
		return model.Snapshot{}, fmt.Errorf("windows media session helper: %s", result.Error)
	}

	return toSnapshot(result), nil
}

func parseResult(out []byte) (sessionResult, error) {
	var result sessionResult
	line := strings.TrimSpace(string(out))
	if err := json.Unmarshal([]byte(line), &result); err != nil {
		return sessionResult{}, fmt.Errorf("parse windows media session output %q: %w", line, err)
	}
	return result, nil
}

func toSnapshot(result sessionResult) model.Snapshot {
	snap := model.Snapshot{Source: model.SourceWindowsMediaSession, CapturedAt: time.Now()}

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
	if result.DurationMs > 0 {
		ms := uint64(result.DurationMs)
		snap.DurationMs = &ms
	}
	if result.PositionMs >= 0 {
		ms := uint64(result.PositionMs)
		snap.PositionMs = &ms
	}
	snap.Links = model.Links{
		AppleMusic:    urls.AppleMusicSearch(result.Artist, result.Title),
		SpotifySearch: urls.SpotifySearch(result.Artist, result.Title),
	}

	return snap
}
