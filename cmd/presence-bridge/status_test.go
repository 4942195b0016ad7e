package main

import (
	"testing"

	"github.com/vincenzomaritato/presence-bridge/internal/model"
)

func TestToStatusJSON_SpellsOutState(t *testing.T) {
	snap := model.Snapshot{State: model.StatePlaying, Title: "Song"}
	got := toStatusJSON(snap)
	if got.State != "Playing" {
		t.Errorf("State = %q, want %q", got.State, "Playing")
	}
	if got.Title != "Song" {
		t.Errorf("Title = %q, want %q", got.Title, "Song")
	}
}

func TestToStatusJSON_StoppedHasNoTrackFields(t *testing.T) {
	snap := model.Snapshot{State: model.StateStopped}
	got := toStatusJSON(snap)
	if got.Title != "" || got.TrackID != "" {
		t.Errorf("got = %+v, want empty track fields for a stopped snapshot", got)
	}
}
