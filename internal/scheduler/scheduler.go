// Package scheduler decides how often to poll the active provider and gates
// when the engine is allowed to push a presence update to Discord. It owns
// none of the engine's state beyond the timing config it is handed — see
// original_source/crates/engine/src/lib.rs::EventEngine::next_poll, split out
// into its own component here.
package scheduler

import (
	"time"

	"github.com/vincenzomaritato/presence-bridge/internal/config"
	"github.com/vincenzomaritato/presence-bridge/internal/model"
)

// ChangeKind classifies why a push is being requested, for the min-update
// gate. It mirrors engine.ChangeKind but the scheduler only needs to
// distinguish "immediate" from "rate-limited" changes.
type ChangeKind int

const (
	// ChangeImmediate covers TrackChange and StateTransition: user-visible
	// transitions that must reach Discord unconditionally.
	ChangeImmediate ChangeKind = iota
	// ChangeCosmetic covers PositionDrift and MetadataRefresh: updates that
	// are rate-limited to presence_min_update_ms.
	ChangeCosmetic
)

// Scheduler produces poll cadence and push-throttle decisions from the
// current config. A Scheduler holds no playback state; State is passed in
// directly so one Scheduler can serve a long-running poll loop without being
// reset on every config reload.
type Scheduler struct {
	cfg *config.Config
}

// New creates a Scheduler bound to the given config snapshot.
func New(cfg *config.Config) *Scheduler {
	return &Scheduler{cfg: cfg}
}

// UpdateConfig swaps in a freshly reloaded config snapshot.
func (s *Scheduler) UpdateConfig(cfg *config.Config) {
	s.cfg = cfg
}

// NextPollDelay returns how long to sleep before the next provider poll,
// based on the last observed playback state. Stopped, Error, and "no prior
// snapshot yet" all use the slowest cadence.
func (s *Scheduler) NextPollDelay(last model.State) time.Duration {
	switch last {
	case model.StatePlaying:
		return time.Duration(s.cfg.Intervals.PlayingPollMs) * time.Millisecond
	case model.StatePaused:
		return time.Duration(s.cfg.Intervals.PausedPollMs) * time.Millisecond
	default:
		return time.Duration(s.cfg.Intervals.StoppedPollMs) * time.Millisecond
	}
}

// MayPush implements the min-update gate: immediate changes
// (track change, play/pause/stop transitions) are always allowed; cosmetic
// changes (position drift, metadata refresh) are rate-limited to
// presence_min_update_ms since the last successful push.
func (s *Scheduler) MayPush(now, lastPushedAt time.Time, kind ChangeKind) bool {
	if kind == ChangeImmediate {
		return true
	}
	if lastPushedAt.IsZero() {
		return true
	}
	minInterval := time.Duration(s.cfg.Intervals.PresenceMinUpdateMs) * time.Millisecond
	return now.Sub(lastPushedAt) >= minInterval
}
