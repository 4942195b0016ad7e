//go:build !linux

package mpris

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/vincenzomaritato/presence-bridge/internal/model"
)

// Provider is a no-op on platforms with no session bus; the chain falls
// through to whichever adapter fits the host OS.
type Provider struct{}

func New(_ *logrus.Entry) *Provider { return &Provider{} }

func (p *Provider) Name() string { return "mpris" }

func (p *Provider) Poll(_ context.Context) (model.Snapshot, error) {
	return model.Snapshot{State: model.StateStopped}, nil
}
