//go:build darwin

package applemusic

import (
	"testing"

	"github.com/vincenzomaritato/presence-bridge/internal/model"
)

func TestToSnapshot_Playing(t *testing.T) {
	snap := toSnapshot(jxaResult{
		State:        "playing",
		Title:        "Song",
		Artist:       "Artist",
		Album:        "Album",
		Duration:     180.5,
		Position:     30.25,
		PersistentID: "ABCD1234",
	})

	if snap.State != model.StatePlaying {
		t.Errorf("State = %v, want Playing", snap.State)
	}
	if snap.DurationMs == nil || *snap.DurationMs != 180500 {
		t.Errorf("DurationMs = %v, want 180500", snap.DurationMs)
	}
	if snap.PositionMs == nil || *snap.PositionMs != 30250 {
		t.Errorf("PositionMs = %v, want 30250", snap.PositionMs)
	}
	if snap.TrackID != "ABCD1234" {
		t.Errorf("TrackID = %q, want persistentId", snap.TrackID)
	}
	if snap.Links.AppleMusic == "" || snap.Links.SpotifySearch == "" {
		t.Error("Links should be populated for an active snapshot")
	}
}

func TestToSnapshot_Stopped(t *testing.T) {
	snap := toSnapshot(jxaResult{State: "stopped"})
	if snap.State != model.StateStopped {
		t.Errorf("State = %v, want Stopped", snap.State)
	}
	if snap.Title != "" {
		t.Errorf("Title = %q, want empty for stopped snapshot", snap.Title)
	}
}

func TestParseResult_ValidJSON(t *testing.T) {
	result, err := parseResult([]byte(`{"state":"paused","title":"X"}` + "\n"))
	if err != nil {
		t.Fatalf("parseResult() error = %v", err)
	}
	if result.State != "paused" || result.Title != "X" {
		t.Errorf("result = %+v, want state=paused title=X", result)
	}
}

func TestParseResult_Malformed(t *testing.T) {
	if _, err := parseResult([]byte("not json")); err == nil {
		t.Error("parseResult() error = nil, want error for malformed output")
	}
}
