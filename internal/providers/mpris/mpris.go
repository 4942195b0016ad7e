//go:build linux

// Package mpris reads now-playing state from whichever MPRIS-compliant
// media player is exposed on the session bus, using godbus/dbus/v5 to poll
// PlaybackStatus and Metadata rather than exposing a session of its own.
package mpris

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/sirupsen/logrus"

	"github.com/vincenzomaritato/presence-bridge/internal/model"
	"github.com/vincenzomaritato/presence-bridge/internal/urls"
)

const mprisPrefix = "org.mpris.MediaPlayer2."
const playerInterface = "org.mpris.MediaPlayer2.Player"

// Provider polls the session bus for the lexicographically first running
// MPRIS player, matching original_source's find_player tie-break.
type Provider struct {
	log *logrus.Entry
}

func New(log *logrus.Entry) *Provider {
	return &Provider{log: log}
}

func (p *Provider) Name() string { return "mpris" }

func (p *Provider) Poll(ctx context.Context) (model.Snapshot, error) {
	conn, err := dbus.ConnectSessionBus(dbus.WithContext(ctx))
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("connect session bus: %w", err)
	}
	defer conn.Close()

	name, err := findPlayer(conn)
	if err != nil {
		return model.Snapshot{}, err
	}
	if name == "" {
		return model.Snapshot{State: model.StateStopped, Source: model.SourceMpris, CapturedAt: time.Now()}, nil
	}

	obj := conn.Object(name, "/org/mpris/MediaPlayer2")

	status, err := getStringProp(obj, "PlaybackStatus")
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("read PlaybackStatus from %s: %w", name, err)
	}

	snap := model.Snapshot{State: mapStatus(status), Source: model.SourceMpris, CapturedAt: time.Now()}
	if !snap.State.IsActive() {
		return snap, nil
	}

	if metadata, err := getMapProp(obj, "Metadata"); err == nil {
		applyMetadata(&snap, metadata)
		snap.Links = searchLinks(snap.Artist, snap.Title)
	} else {
		p.log.WithError(err).Debug("mpris: could not read Metadata")
	}

	if posMicros, err := getInt64Prop(obj, "Position"); err == nil {
		ms := uint64(posMicros / 1000)
		snap.PositionMs = &ms
	}

	return snap, nil
}

func findPlayer(conn *dbus.Conn) (string, error) {
	var names []string
	if err := conn.BusObject().Call("org.freedesktop.DBus.ListNames", 0).Store(&names); err != nil {
		return "", fmt.Errorf("list bus names: %w", err)
	}

	var candidates []string
	for _, n := range names {
		if strings.HasPrefix(n, mprisPrefix) {
			candidates = append(candidates, n)
		}
	}
	if len(candidates) == 0 {
		return "", nil
	}
	sort.Strings(candidates)
	return candidates[0], nil
}

func mapStatus(status string) model.State {
	switch status {
	case "Playing":
		return model.StatePlaying
	case "Paused":
		return model.StatePaused
	default:
		return model.StateStopped
	}
}

func applyMetadata(snap *model.Snapshot, metadata map[string]dbus.Variant) {
	if v, ok := metadata["xesam:title"]; ok {
		if s, ok := v.Value().(string); ok {
			snap.Title = s
		}
	}
	if v, ok := metadata["xesam:artist"]; ok {
		if arr, ok := v.Value().([]string); ok && len(arr) > 0 {
			snap.Artist = strings.Join(arr, ", ")
		}
	}
	if v, ok := metadata["xesam:album"]; ok {
		if s, ok := v.Value().(string); ok {
			snap.Album = s
		}
	}
	if v, ok := metadata["mpris:length"]; ok {
		if micros, ok := v.Value().(int64); ok {
			ms := uint64(micros / 1000)
			snap.DurationMs = &ms
		}
	}
	if v, ok := metadata["mpris:trackid"]; ok {
		if id, ok := v.Value().(dbus.ObjectPath); ok {
			snap.TrackID = string(id)
		}
	}
}

// searchLinks builds the generic search-URL buttons, the same ones
// original_source's mpris.rs attaches for every player rather than treating
// them as an Apple Music-specific feature.
func searchLinks(artist, title string) model.Links {
	return model.Links{
		AppleMusic:    urls.AppleMusicSearch(artist, title),
		SpotifySearch: urls.SpotifySearch(artist, title),
	}
}

func getStringProp(obj dbus.BusObject, prop string) (string, error) {
	v, err := obj.GetProperty(playerInterface + "." + prop)
	if err != nil {
		return "", err
	}
	s, ok := v.Value().(string)
	if !ok {
		return "", fmt.Errorf("property %s is not a string", prop)
	}
	return s, nil
}

func getInt64Prop(obj dbus.BusObject, prop string) (int64, error) {
	v, err := obj.GetProperty(playerInterface + "." + prop)
	if err != nil {
		return 0, err
	}
	n, ok := v.Value().(int64)
	if !ok {
		return 0, fmt.Errorf("property %s is not an int64", prop)
	}
	return n, nil
}

func getMapProp(obj dbus.BusObject, prop string) (map[string]dbus.Variant, error) {
	v, err := obj.GetProperty(playerInterface + "." + prop)
	if err != nil {
		return nil, err
	}
	m, ok := v.Value().(map[string]dbus.Variant)
	if !ok {
		return nil, fmt.Errorf("property %s is not a map", prop)
	}
	return m, nil
}
