// Package engine implements the diff/debounce/throttle state machine that
// turns raw provider snapshots into Discord Rich Presence decisions. See
// original_source/crates/engine/src/lib.rs::EventEngine for the reference
// algorithm Tick's seven-step pipeline generalizes.
package engine

import (
	"time"

	"github.com/vincenzomaritato/presence-bridge/internal/config"
	"github.com/vincenzomaritato/presence-bridge/internal/model"
	"github.com/vincenzomaritato/presence-bridge/internal/scheduler"
)

// positionDriftToleranceMs bounds how far an observed position may stray
// from the position extrapolated from elapsed wall-clock time before the
// engine treats it as a seek (a StateTransition-class change) rather than
// ordinary playback progression.
const positionDriftToleranceMs = 1500

// Engine owns the playback-to-presence state machine for a single tracked
// player. It is not safe for concurrent use; the supervisor drives one
// Engine from a single poll loop goroutine.
type Engine struct {
	sched *scheduler.Scheduler
	cfg   *config.Config

	lastSnapshot *model.Snapshot // diff baseline, updated every Tick

	pendingCandidate *model.Snapshot
	pendingSince     time.Time

	currentTrackID     string
	startTimestampUnix *int64
	lastPushedAt       time.Time
}

// New creates an Engine bound to the given scheduler and config. UpdateConfig
// keeps both in sync when the config is hot-reloaded.
func New(cfg *config.Config, sched *scheduler.Scheduler) *Engine {
	return &Engine{sched: sched, cfg: cfg}
}

// UpdateConfig swaps in a freshly reloaded config snapshot. It does not
// touch accumulated playback state (pending candidates, anchors, last-push
// bookkeeping survive a reload).
func (e *Engine) UpdateConfig(cfg *config.Config) {
	e.cfg = cfg
}

// Tick runs one snapshot through the full pipeline: sanitize, classify,
// debounce, throttle, compute-start-timestamp, render, commit. now is the
// caller's clock reading for this poll; passing it in keeps the engine
// deterministic and easy to test.
func (e *Engine) Tick(raw model.Snapshot, now time.Time) Decision {
	snap := raw.Sanitize()
	kind := e.classify(snap)

	var decision Decision
	switch kind {
	case ChangeNoChange:
		decision = Decision{Kind: DecisionNoOp, Diff: kind}

	case ChangeInitial:
		decision = e.finalize(snap, kind, now, scheduler.ChangeImmediate)

	case ChangeTrackChange, ChangeStateTransition:
		promoted, ok := e.debounce(snap, now)
		if !ok {
			decision = Decision{Kind: DecisionNoOp, Diff: kind}
		} else {
			decision = e.finalize(promoted, kind, now, scheduler.ChangeImmediate)
		}

	case ChangePositionDrift, ChangeMetadataRefresh:
		decision = e.finalize(snap, kind, now, scheduler.ChangeCosmetic)

	default:
		decision = Decision{Kind: DecisionNoOp, Diff: kind}
	}

	e.lastSnapshot = &snap
	return decision
}

// classify compares snap against the last
// observed (not necessarily committed) snapshot.
//
// The very first snapshot an Engine ever observes has no lastSnapshot to
// diff against. If it is already active (Playing/Paused) it is classified
// ChangeInitial, a class Tick routes straight to finalize without
// debouncing: there is no flapping to guard against when nothing has been
// observed yet, so the first state reaches Discord on the first poll rather
// than waiting out debounce_ms. A first snapshot that is Stopped/Error has
// nothing to report relative to the engine's own silence and is ChangeNoChange.
//
// A snapshot matching the identity of an outstanding debounce candidate is
// always routed back through ChangeTrackChange, regardless of what the raw
// diff against lastSnapshot would say: once a TrackChange/StateTransition
// starts dwelling, every later tick needs to keep consulting the debounce
// timer until it either promotes or is displaced by a genuinely different
// candidate, not get silently reclassified as NoChange/PositionDrift the
// moment it stops differing from the still-unconfirmed lastSnapshot.
func (e *Engine) classify(snap model.Snapshot) ChangeKind {
	if e.pendingCandidate != nil && e.pendingCandidate.TrackID == snap.TrackID && e.pendingCandidate.State == snap.State {
		return ChangeTrackChange
	}

	last := e.lastSnapshot
	if last == nil {
		if snap.State.IsActive() {
			return ChangeInitial
		}
		return ChangeNoChange
	}

	if last.TrackID != snap.TrackID {
		return ChangeTrackChange
	}
	if last.State != snap.State {
		return ChangeStateTransition
	}
	if last.Title != snap.Title || last.Artist != snap.Artist || last.Album != snap.Album ||
		!equalUint64Ptr(last.DurationMs, snap.DurationMs) {
		return ChangeMetadataRefresh
	}

	if equalUint64Ptr(last.PositionMs, snap.PositionMs) {
		// Stopped/Error snapshots carry no position at all, so two polls
		// of "nothing playing" only ever differ by wall-clock time, which
		// is not a change worth classifying.
		return ChangeNoChange
	}

	if snap.State == model.StatePlaying && last.PositionMs != nil && snap.PositionMs != nil {
		elapsedMs := snap.CapturedAt.Sub(last.CapturedAt).Milliseconds()
		expected := int64(*last.PositionMs) + elapsedMs
		actual := int64(*snap.PositionMs)
		diff := actual - expected
		if diff < 0 {
			diff = -diff
		}
		if diff <= positionDriftToleranceMs {
			return ChangePositionDrift
		}
		// Position jumped further than natural playback accounts for: a seek.
		return ChangeStateTransition
	}

	return ChangePositionDrift
}

// debounce requires TrackChange and StateTransition to
// persist for debounce_ms before they are promoted; a differing candidate
// resets the dwell timer so rapid flapping never promotes.
func (e *Engine) debounce(snap model.Snapshot, now time.Time) (model.Snapshot, bool) {
	if e.pendingCandidate == nil || e.pendingCandidate.TrackID != snap.TrackID || e.pendingCandidate.State != snap.State {
		candidate := snap
		e.pendingCandidate = &candidate
		e.pendingSince = now
		return model.Snapshot{}, false
	}

	debounce := time.Duration(e.cfg.Intervals.DebounceMs) * time.Millisecond
	if now.Sub(e.pendingSince) < debounce {
		return model.Snapshot{}, false
	}

	e.pendingCandidate = nil
	e.pendingSince = time.Time{}
	return snap, true
}

// finalize runs once a change has cleared debounce (or
// bypassed it as a cosmetic change).
func (e *Engine) finalize(snap model.Snapshot, kind ChangeKind, now time.Time, schedKind scheduler.ChangeKind) Decision {
	if !e.sched.MayPush(now, e.lastPushedAt, schedKind) {
		return Decision{Kind: DecisionNoOp, Diff: kind}
	}

	startTS := e.computeStartTimestamp(snap, kind)
	decision := e.render(snap, startTS, kind)

	if decision.Kind != DecisionNoOp {
		e.lastPushedAt = now
		e.currentTrackID = snap.TrackID
		e.startTimestampUnix = startTS
	}
	return decision
}

// computeStartTimestamp decides the activity's start timestamp. A fresh anchor is taken
// whenever a track starts or resumes playing; it is held stable across
// metadata refreshes and position drift for the same track, and omitted
// entirely while not playing.
func (e *Engine) computeStartTimestamp(snap model.Snapshot, kind ChangeKind) *int64 {
	if snap.State != model.StatePlaying {
		return nil
	}

	switch kind {
	case ChangeInitial, ChangeTrackChange, ChangeStateTransition:
		return anchorFromPosition(snap)
	case ChangeMetadataRefresh, ChangePositionDrift:
		if e.startTimestampUnix != nil && e.currentTrackID == snap.TrackID {
			return e.startTimestampUnix
		}
		return anchorFromPosition(snap)
	default:
		return nil
	}
}

func anchorFromPosition(snap model.Snapshot) *int64 {
	var posSec int64
	if snap.PositionMs != nil {
		posSec = int64(*snap.PositionMs / 1000)
	}
	ts := snap.CapturedAt.Unix() - posSec
	return &ts
}

// render turns a change into a Decision: Stopped and Error always clear; any other
// state builds a SET_ACTIVITY payload from the current config's assets and
// the snapshot's metadata.
func (e *Engine) render(snap model.Snapshot, startTS *int64, kind ChangeKind) Decision {
	if snap.State == model.StateStopped || snap.State == model.StateError {
		return Decision{Kind: DecisionClear, Diff: kind}
	}

	payload := ActivityPayload{
		ActivityType:       ActivityListening,
		Details:            snap.Title,
		StateText:          buildStateText(snap),
		StartTimestampUnix: startTS,
		LargeImage:         e.cfg.Assets.LargeImage,
		LargeText:          e.cfg.Assets.LargeText,
	}
	if snap.State == model.StatePlaying {
		payload.SmallImage = e.cfg.Assets.SmallPlayImage
		payload.SmallText = "Playing"
	} else {
		payload.SmallImage = e.cfg.Assets.SmallPauseImage
		payload.SmallText = "Paused"
	}

	if e.cfg.EnableButtons {
		payload.Buttons = buildButtons(snap)
	}

	return Decision{Kind: DecisionSetActivity, Activity: payload, Diff: kind}
}

func buildStateText(snap model.Snapshot) string {
	text := snap.Artist
	if snap.Album != "" && snap.Album != snap.Artist {
		if text != "" {
			text += " — " + snap.Album
		} else {
			text = snap.Album
		}
	}
	return text
}

// buildButtons caps at two entries, the maximum Discord accepts for a
// single activity.
func buildButtons(snap model.Snapshot) []Button {
	var buttons []Button
	if snap.Links.AppleMusic != "" {
		buttons = append(buttons, Button{Label: "Listen on Apple Music", URL: snap.Links.AppleMusic})
	}
	if snap.Links.SpotifySearch != "" && len(buttons) < 2 {
		buttons = append(buttons, Button{Label: "Search on Spotify", URL: snap.Links.SpotifySearch})
	}
	return buttons
}

func equalUint64Ptr(a, b *uint64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
