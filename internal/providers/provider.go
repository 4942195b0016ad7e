// Package providers defines the Provider collaborator interface and the
// priority chain that picks the best snapshot across platform adapters.
// Grounded on original_source/crates/providers/src/lib.rs::ProviderChain;
// concrete adapters live in providers/mpris, providers/applemusic, and
// providers/winmedia, each satisfying Provider structurally so this
// package never imports a platform-specific build-tagged package.
package providers

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vincenzomaritato/presence-bridge/internal/model"
)

// Provider is a platform adapter that reports a normalized Snapshot on
// request. Implementations should never block longer than their own
// internal timeout; the Chain treats any returned error as "unavailable
// this poll", not as a reason to drop the provider permanently.
type Provider interface {
	Name() string
	Poll(ctx context.Context) (model.Snapshot, error)
}

// Chain polls its providers in priority order and picks the single best
// snapshot to feed the engine, per original_source's poll_best: the first
// non-stopped, non-error snapshot wins; failing that, whichever inactive
// result (Stopped or Error) was produced first in provider order, with no
// separate priority between the two; failing that, a synthetic Stopped
// snapshot (the NullProvider fallback).
type Chain struct {
	providers []Provider
	log       *logrus.Entry
}

// NewChain builds a Chain from providers already ordered by priority.
func NewChain(providers []Provider, log *logrus.Entry) *Chain {
	return &Chain{providers: providers, log: log}
}

// PollBest polls every provider in order and returns the best snapshot.
func (c *Chain) PollBest(ctx context.Context) model.Snapshot {
	var fallback *model.Snapshot

	for _, p := range c.providers {
		snap, err := p.Poll(ctx)
		if err != nil {
			c.log.WithError(err).WithField("provider", p.Name()).Debug("provider poll failed")
			if fallback == nil {
				fallback = &model.Snapshot{
					State:      model.StateError,
					Provider:   p.Name(),
					LastError:  err.Error(),
					CapturedAt: time.Now(),
				}
			}
			continue
		}

		snap.Provider = p.Name()
		if snap.CapturedAt.IsZero() {
			snap.CapturedAt = time.Now()
		}

		if snap.State.IsActive() {
			return snap
		}
		if fallback == nil {
			captured := snap
			fallback = &captured
		}
	}

	if fallback != nil {
		return *fallback
	}
	return model.Snapshot{State: model.StateStopped, CapturedAt: time.Now()}
}
