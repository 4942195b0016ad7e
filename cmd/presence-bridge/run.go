package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vincenzomaritato/presence-bridge/internal/config"
	"github.com/vincenzomaritato/presence-bridge/internal/discordrpc"
	"github.com/vincenzomaritato/presence-bridge/internal/engine"
	"github.com/vincenzomaritato/presence-bridge/internal/logging"
	"github.com/vincenzomaritato/presence-bridge/internal/providers"
	"github.com/vincenzomaritato/presence-bridge/internal/scheduler"
	"github.com/vincenzomaritato/presence-bridge/internal/supervisor"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the presence bridge daemon in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(resolvedConfigPath())
		},
	}
}

func runDaemon(path string) error {
	log := logging.For("supervisor")

	mgr, err := config.NewManager(path, log)
	if err != nil {
		return configErr(fmt.Errorf("load config: %w", err))
	}

	cfg := mgr.Current()
	logging.Init(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		return configErr(err)
	}

	chain := providers.BuildChain(cfg.ProviderPriority, logging.For("provider"))
	sched := scheduler.New(cfg)
	eng := engine.New(cfg, sched)
	rpc := discordrpc.New(cfg.DiscordAppID, logging.For("discordrpc"))

	sup := supervisor.New(mgr, chain, sched, eng, rpc, log)

	log.WithField("config", path).Info("presence-bridge starting")
	if err := sup.Run(context.Background()); err != nil {
		return runtimeErr(err)
	}
	return nil
}
