package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vincenzomaritato/presence-bridge/internal/config"
	"github.com/vincenzomaritato/presence-bridge/internal/discordrpc"
	"github.com/vincenzomaritato/presence-bridge/internal/logging"
	"github.com/vincenzomaritato/presence-bridge/internal/providers"
)

const doctorTimeout = 5 * time.Second

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Probe provider availability and Discord IPC connectivity",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor(resolvedConfigPath())
		},
	}
}

func runDoctor(path string) error {
	cfg, err := config.Load(path)
	if err != nil {
		return configErr(fmt.Errorf("load config: %w", err))
	}
	if err := cfg.Validate(); err != nil {
		return configErr(err)
	}

	log := logging.For("doctor")

	chain := providers.BuildChain(cfg.ProviderPriority, log)
	ctx, cancel := context.WithTimeout(context.Background(), doctorTimeout)
	defer cancel()

	snap := chain.PollBest(ctx)
	fmt.Printf("provider chain: %s reports %s\n", snap.Provider, snap.State)

	rpc := discordrpc.New(cfg.DiscordAppID, log)
	defer rpc.Close()

	// EnsureConnected dials and handshakes only; it never sends SET_ACTIVITY,
	// so probing here cannot clobber a Rich Presence a running daemon has
	// already set.
	if err := rpc.EnsureConnected(); err != nil {
		fmt.Printf("discord rpc: unreachable (%v)\n", err)
		return runtimeErr(fmt.Errorf("discord rpc unreachable"))
	}
	fmt.Println("discord rpc: connected")
	return nil
}
