//go:build !darwin

package applemusic

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/vincenzomaritato/presence-bridge/internal/model"
)

// Provider is a no-op off macOS; Music.app only exists there.
type Provider struct{}

func New(_ *logrus.Entry) *Provider { return &Provider{} }

func (p *Provider) Name() string { return "apple_music" }

func (p *Provider) Poll(_ context.Context) (model.Snapshot, error) {
	return model.Snapshot{State: model.StateStopped}, nil
}
