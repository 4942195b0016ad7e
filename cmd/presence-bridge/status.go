package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vincenzomaritato/presence-bridge/internal/config"
	"github.com/vincenzomaritato/presence-bridge/internal/logging"
	"github.com/vincenzomaritato/presence-bridge/internal/model"
	"github.com/vincenzomaritato/presence-bridge/internal/providers"
)

const statusTimeout = 5 * time.Second

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the current now-playing snapshot as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(resolvedConfigPath())
		},
	}
}

// statusJSON is a presentation-friendly view of model.Snapshot: State is
// spelled out rather than marshaled as a bare int, and empty track fields
// are omitted for a Stopped/Error snapshot.
type statusJSON struct {
	Provider   string    `json:"provider"`
	State      string    `json:"state"`
	Title      string    `json:"title,omitempty"`
	Artist     string    `json:"artist,omitempty"`
	Album      string    `json:"album,omitempty"`
	DurationMs *uint64   `json:"duration_ms,omitempty"`
	PositionMs *uint64   `json:"position_ms,omitempty"`
	TrackID    string    `json:"track_id,omitempty"`
	CapturedAt time.Time `json:"captured_at"`
}

func toStatusJSON(s model.Snapshot) statusJSON {
	return statusJSON{
		Provider:   s.Provider,
		State:      s.State.String(),
		Title:      s.Title,
		Artist:     s.Artist,
		Album:      s.Album,
		DurationMs: s.DurationMs,
		PositionMs: s.PositionMs,
		TrackID:    s.TrackID,
		CapturedAt: s.CapturedAt,
	}
}

func runStatus(path string) error {
	cfg, err := config.Load(path)
	if err != nil {
		return configErr(fmt.Errorf("load config: %w", err))
	}

	chain := providers.BuildChain(cfg.ProviderPriority, logging.For("provider"))
	ctx, cancel := context.WithTimeout(context.Background(), statusTimeout)
	defer cancel()

	snap := chain.PollBest(ctx).Sanitize()

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(toStatusJSON(snap)); err != nil {
		return runtimeErr(err)
	}
	return nil
}
