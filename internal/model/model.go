// Package model holds the data types shared by every layer of presence-bridge:
// the normalized provider snapshot, its playback state, and the source app it
// came from.
package model

import (
	"fmt"
	"hash/fnv"
	"strings"
	"time"
)

// State is the normalized playback state of a Snapshot.
type State int

const (
	StateStopped State = iota
	StatePlaying
	StatePaused
	StateError
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateStopped:
		return "Stopped"
	case StatePlaying:
		return "Playing"
	case StatePaused:
		return "Paused"
	case StateError:
		return "Error"
	default:
		return "Unknown"
	}
}

// IsActive reports whether the state carries track fields (Playing or Paused).
func (s State) IsActive() bool {
	return s == StatePlaying || s == StatePaused
}

// SourceApp identifies which provider produced a Snapshot.
type SourceApp int

const (
	SourceUnknown SourceApp = iota
	SourceAppleMusicMac
	SourceWindowsMediaSession
	SourceMpris
)

// String returns the source name.
func (s SourceApp) String() string {
	switch s {
	case SourceAppleMusicMac:
		return "apple_music"
	case SourceWindowsMediaSession:
		return "windows"
	case SourceMpris:
		return "mpris"
	default:
		return "unknown"
	}
}

// Links holds provider-specific deep links for a track, used to build
// optional Discord Rich Presence buttons.
type Links struct {
	AppleMusic    string
	SpotifySearch string
}

// Snapshot is the normalized output of a single provider poll.
//
// Invariants (enforced by Sanitize, never assumed by callers):
//   - If State is Stopped or Error, every track field is zero-valued.
//   - If State is Playing or Paused, Title is non-empty; otherwise the
//     snapshot is downgraded to Stopped.
//   - PositionMs, when present, is <= DurationMs when both are present.
type Snapshot struct {
	Provider   string
	Source     SourceApp
	State      State
	Title      string
	Artist     string
	Album      string
	DurationMs *uint64
	PositionMs *uint64
	TrackID    string
	Links      Links
	CapturedAt time.Time
	RawState   string
	LastError  string
}

// Sanitize trims text fields, clears track data inconsistent with State, and
// downgrades a Playing/Paused snapshot with no title to Stopped. It always
// returns a snapshot that satisfies the Snapshot invariants.
func (s Snapshot) Sanitize() Snapshot {
	out := s
	out.Title = strings.TrimSpace(out.Title)
	out.Artist = strings.TrimSpace(out.Artist)
	out.Album = strings.TrimSpace(out.Album)

	if !out.State.IsActive() {
		out.Title = ""
		out.Artist = ""
		out.Album = ""
		out.DurationMs = nil
		out.PositionMs = nil
		out.TrackID = ""
		out.Links = Links{}
		return out
	}

	if out.Title == "" {
		out.State = StateStopped
		out.Artist = ""
		out.Album = ""
		out.DurationMs = nil
		out.PositionMs = nil
		out.TrackID = ""
		out.Links = Links{}
		return out
	}

	if out.DurationMs != nil && out.PositionMs != nil && *out.PositionMs > *out.DurationMs {
		clamped := *out.DurationMs
		out.PositionMs = &clamped
	}

	if out.TrackID == "" {
		out.TrackID = FingerprintTrack(out.Title, out.Artist, out.Album, out.DurationMs)
	}

	return out
}

// FingerprintTrack derives a stable track identity from normalized metadata
// when a provider does not supply a persistent identifier. Position is never
// part of identity — two polls of the same track at different positions must
// fingerprint identically.
func FingerprintTrack(title, artist, album string, durationMs *uint64) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(title))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(artist))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(album))
	_, _ = h.Write([]byte{0})
	if durationMs != nil {
		_, _ = fmt.Fprintf(h, "%d", *durationMs)
	}
	return fmt.Sprintf("fp:%x", h.Sum64())
}
