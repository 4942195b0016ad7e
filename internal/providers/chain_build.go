package providers

import (
	"github.com/sirupsen/logrus"

	"github.com/vincenzomaritato/presence-bridge/internal/providers/applemusic"
	"github.com/vincenzomaritato/presence-bridge/internal/providers/mpris"
	"github.com/vincenzomaritato/presence-bridge/internal/providers/winmedia"
)

// BuildChain maps configured provider names, in priority order, to their
// platform adapters. Each adapter package is build-tag split so exactly one
// implementation is compiled per platform; on platforms where a name has no
// real adapter, its stub reports Stopped: it never wins over an active
// snapshot, but when no provider is active PollBest can return the stub's
// Stopped snapshot as its fallback if the stub comes first in order.
func BuildChain(priority []string, log *logrus.Entry) *Chain {
	var ordered []Provider
	for _, name := range priority {
		switch name {
		case "apple_music":
			ordered = append(ordered, applemusic.New(log.WithField("provider", name)))
		case "windows":
			ordered = append(ordered, winmedia.New(log.WithField("provider", name)))
		case "mpris":
			ordered = append(ordered, mpris.New(log.WithField("provider", name)))
		default:
			log.WithField("provider", name).Warn("unknown entry in provider_priority, skipping")
		}
	}
	return NewChain(ordered, log)
}
