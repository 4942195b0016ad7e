package engine

import (
	"testing"
	"time"

	"github.com/vincenzomaritato/presence-bridge/internal/config"
	"github.com/vincenzomaritato/presence-bridge/internal/model"
	"github.com/vincenzomaritato/presence-bridge/internal/scheduler"
)

func testEngine() *Engine {
	cfg := config.Default()
	cfg.Intervals.DebounceMs = 500
	cfg.Intervals.PresenceMinUpdateMs = 15_000
	return New(cfg, scheduler.New(cfg))
}

func u64(v uint64) *uint64 { return &v }

func playing(title, artist, album string, trackID string, posMs uint64, at time.Time) model.Snapshot {
	return model.Snapshot{
		State:      model.StatePlaying,
		Title:      title,
		Artist:     artist,
		Album:      album,
		TrackID:    trackID,
		PositionMs: u64(posMs),
		DurationMs: u64(300_000),
		CapturedAt: at,
	}
}

func paused(snap model.Snapshot, posMs uint64, at time.Time) model.Snapshot {
	snap.State = model.StatePaused
	snap.PositionMs = u64(posMs)
	snap.CapturedAt = at
	return snap
}

func stopped(at time.Time) model.Snapshot {
	return model.Snapshot{State: model.StateStopped, CapturedAt: at}
}

// settle drives the engine with identical snapshots at debounce_ms spacing
// until a non-NoOp decision is promoted, returning it. Mirrors how a real
// poll loop would surface a debounced candidate on a later tick.
func settle(t *testing.T, e *Engine, snap model.Snapshot, start time.Time) Decision {
	t.Helper()
	now := start
	for i := 0; i < 5; i++ {
		d := e.Tick(snap, now)
		if d.Kind != DecisionNoOp {
			return d
		}
		now = now.Add(600 * time.Millisecond)
		snap.CapturedAt = now
	}
	t.Fatal("engine never promoted the candidate after repeated ticks")
	return Decision{}
}

func TestS1_FirstTrackEmitsImmediatelyWithNoDebounce(t *testing.T) {
	e := testEngine()
	start := time.Now()
	snap := playing("A", "Artist", "Album", "track-a", 0, start)

	// The engine has no prior snapshot, so this must promote on the very
	// first tick rather than waiting out debounce_ms like a later
	// TrackChange/StateTransition would.
	d := e.Tick(snap, start)
	if d.Kind != DecisionSetActivity {
		t.Fatalf("Decision.Kind = %v, want SetActivity on the first tick", d.Kind)
	}
	if d.Activity.Details != "A" {
		t.Errorf("Details = %q, want A", d.Activity.Details)
	}
	if d.Activity.StartTimestampUnix == nil {
		t.Fatal("StartTimestampUnix = nil, want anchored timestamp")
	}
}

func TestS2_CosmeticChangesThrottled(t *testing.T) {
	e := testEngine()
	start := time.Now()
	snap := playing("A", "Artist", "Album", "track-a", 0, start)
	settle(t, e, snap, start)

	// Position drifts naturally at +1s intervals; well within the
	// 15s min-update interval, so these should all be throttled to NoOp.
	now := start.Add(2 * time.Second)
	snap.PositionMs = u64(1000)
	snap.CapturedAt = now
	d := e.Tick(snap, now)
	if d.Kind != DecisionNoOp {
		t.Errorf("first drift tick Decision = %v, want NoOp (throttled)", d.Kind)
	}

	now = now.Add(time.Second)
	snap.PositionMs = u64(2000)
	snap.CapturedAt = now
	d = e.Tick(snap, now)
	if d.Kind != DecisionNoOp {
		t.Errorf("second drift tick Decision = %v, want NoOp (throttled)", d.Kind)
	}
}

func TestS3_TrackFlapWithinDebounceCollapses(t *testing.T) {
	e := testEngine()
	start := time.Now()

	trackA := playing("A", "Artist", "Album", "track-a", 0, start)
	trackB := playing("B", "Artist", "Album", "track-b", 0, start.Add(100*time.Millisecond))

	// Tick 1 is the engine's very first snapshot, so it emits immediately
	// (no prior state to debounce against) — the single SetActivity this
	// scenario expects.
	d := e.Tick(trackA, start)
	if d.Kind != DecisionSetActivity || d.Activity.Details != "A" {
		t.Fatalf("tick 1 Decision = %+v, want SetActivity(A)", d)
	}

	// Flap to B 100ms later, then back to A 200ms after that — both within
	// debounce_ms of a prior committed snapshot of A, so neither promotes.
	if d := e.Tick(trackB, start.Add(100*time.Millisecond)); d.Kind != DecisionNoOp {
		t.Fatalf("tick 2 (flap to B) Decision = %v, want NoOp", d.Kind)
	}
	backToA := trackA
	backToA.CapturedAt = start.Add(300 * time.Millisecond)
	if d := e.Tick(backToA, start.Add(300*time.Millisecond)); d.Kind != DecisionNoOp {
		t.Fatalf("tick 3 (flap back to A) Decision = %v, want NoOp", d.Kind)
	}
}

func TestS4_PauseResumeReanchorsStartTimestamp(t *testing.T) {
	e := testEngine()
	start := time.Now()
	snap := playing("A", "Artist", "Album", "track-a", 10_000, start)
	first := settle(t, e, snap, start)
	firstAnchor := *first.Activity.StartTimestampUnix

	pausedAt := start.Add(10 * time.Second)
	p := paused(snap, 20_000, pausedAt)
	pd := settle(t, e, p, pausedAt)
	if pd.Kind != DecisionSetActivity {
		t.Fatalf("pause Decision = %v, want SetActivity", pd.Kind)
	}
	if pd.Activity.StartTimestampUnix != nil {
		t.Error("paused activity carries a start timestamp, want nil")
	}

	resumeAt := pausedAt.Add(30 * time.Second)
	resumed := playing("A", "Artist", "Album", "track-a", 20_000, resumeAt)
	rd := settle(t, e, resumed, resumeAt)
	if rd.Kind != DecisionSetActivity {
		t.Fatalf("resume Decision = %v, want SetActivity", rd.Kind)
	}
	if rd.Activity.StartTimestampUnix == nil {
		t.Fatal("resumed activity has no start timestamp")
	}
	if *rd.Activity.StartTimestampUnix == firstAnchor {
		t.Error("resume did not re-anchor start timestamp, want a fresh anchor")
	}
}

func TestS5_StopEmitsExactlyOneClear(t *testing.T) {
	e := testEngine()
	start := time.Now()
	snap := playing("A", "Artist", "Album", "track-a", 0, start)
	settle(t, e, snap, start)

	stopAt := start.Add(5 * time.Second)
	d := settle(t, e, stopped(stopAt), stopAt)
	if d.Kind != DecisionClear {
		t.Fatalf("Decision = %v, want Clear", d.Kind)
	}

	// Further identical Stopped snapshots must not re-clear.
	again := stopAt.Add(30 * time.Second)
	d2 := e.Tick(stopped(again), again)
	if d2.Kind != DecisionNoOp {
		t.Errorf("repeated Stopped Decision = %v, want NoOp", d2.Kind)
	}
}

func TestS6_IdenticalSnapshotsYieldOneUpdate(t *testing.T) {
	e := testEngine()
	start := time.Now()
	snap := playing("A", "Artist", "Album", "track-a", 0, start)
	d := settle(t, e, snap, start)
	if d.Kind != DecisionSetActivity {
		t.Fatalf("initial Decision = %v, want SetActivity", d.Kind)
	}

	for i := 1; i <= 3; i++ {
		now := start.Add(time.Duration(i) * time.Second)
		repeat := snap
		repeat.CapturedAt = now
		if rd := e.Tick(repeat, now); rd.Kind != DecisionNoOp {
			t.Errorf("repeat tick %d Decision = %v, want NoOp", i, rd.Kind)
		}
	}
}

func TestStartTimestampStableAcrossMetadataRefresh(t *testing.T) {
	e := testEngine()
	start := time.Now()
	snap := playing("A", "Artist", "Album", "track-a", 0, start)
	first := settle(t, e, snap, start)
	anchor := *first.Activity.StartTimestampUnix

	// Same track, position advancing exactly with wall-clock time (no
	// drift) but artist tag corrected mid-playback — artist metadata
	// changes, but the anchor must not move.
	refreshAt := start.Add(20 * time.Second)
	refreshed := snap
	refreshed.Artist = "Artist (feat. Someone)"
	refreshed.PositionMs = u64(20_000)
	refreshed.CapturedAt = refreshAt
	e.cfg.Intervals.PresenceMinUpdateMs = 0 // isolate metadata-refresh behavior from the throttle gate
	e.sched.UpdateConfig(e.cfg)
	d := e.Tick(refreshed, refreshAt)
	if d.Kind != DecisionSetActivity {
		t.Fatalf("Decision = %v, want SetActivity", d.Kind)
	}
	if *d.Activity.StartTimestampUnix != anchor {
		t.Errorf("StartTimestampUnix = %d, want stable anchor %d", *d.Activity.StartTimestampUnix, anchor)
	}
}

func TestNoPriorSnapshotStoppedYieldsNoOp(t *testing.T) {
	e := testEngine()
	now := time.Now()
	d := e.Tick(stopped(now), now)
	if d.Kind != DecisionNoOp {
		t.Errorf("Decision = %v, want NoOp (nothing was ever presented)", d.Kind)
	}
}

func TestClassify_NoPriorActiveSnapshotIsInitial(t *testing.T) {
	e := testEngine()
	snap := playing("A", "Artist", "Album", "track-a", 0, time.Now())
	if kind := e.classify(snap); kind != ChangeInitial {
		t.Errorf("classify() = %v, want ChangeInitial", kind)
	}
}

func TestClassify_NoPriorInactiveSnapshotIsNoChange(t *testing.T) {
	e := testEngine()
	if kind := e.classify(stopped(time.Now())); kind != ChangeNoChange {
		t.Errorf("classify() = %v, want ChangeNoChange", kind)
	}
}

func TestSeekReclassifiesAsStateTransitionNotDrift(t *testing.T) {
	e := testEngine()
	start := time.Now()
	snap := playing("A", "Artist", "Album", "track-a", 0, start)
	settle(t, e, snap, start)

	// 1s of wall-clock elapses but position jumps by 60s: a seek, which
	// must promote through debounce like any other state-affecting change
	// rather than being silently absorbed as drift.
	seekAt := start.Add(1 * time.Second)
	seeked := snap
	seeked.PositionMs = u64(60_000)
	seeked.CapturedAt = seekAt
	kind := e.classify(seeked)
	if kind != ChangeStateTransition {
		t.Errorf("classify() = %v, want ChangeStateTransition for a seek", kind)
	}
}

func TestButtonsOmittedWhenDisabled(t *testing.T) {
	cfg := config.Default()
	cfg.EnableButtons = false
	e := New(cfg, scheduler.New(cfg))
	start := time.Now()
	snap := playing("A", "Artist", "Album", "track-a", 0, start)
	snap.Links.AppleMusic = "https://music.apple.com/search?term=A"
	d := settle(t, e, snap, start)
	if len(d.Activity.Buttons) != 0 {
		t.Errorf("Buttons = %v, want none when enable_buttons is false", d.Activity.Buttons)
	}
}

func TestButtonsIncludedWhenEnabled(t *testing.T) {
	cfg := config.Default()
	cfg.EnableButtons = true
	e := New(cfg, scheduler.New(cfg))
	start := time.Now()
	snap := playing("A", "Artist", "Album", "track-a", 0, start)
	snap.Links.AppleMusic = "https://music.apple.com/search?term=A"
	snap.Links.SpotifySearch = "https://open.spotify.com/search/A"
	d := settle(t, e, snap, start)
	if len(d.Activity.Buttons) != 2 {
		t.Fatalf("Buttons = %v, want 2", d.Activity.Buttons)
	}
}
