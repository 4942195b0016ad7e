//go:build !windows

package winmedia

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/vincenzomaritato/presence-bridge/internal/model"
)

// Provider is a no-op off Windows; the media session API is Windows-only.
type Provider struct{}

func New(_ *logrus.Entry) *Provider { return &Provider{} }

func (p *Provider) Name() string { return "windows" }

func (p *Provider) Poll(_ context.Context) (model.Snapshot, error) {
	return model.Snapshot{State: model.StateStopped}, nil
}
