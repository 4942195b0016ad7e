package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vincenzomaritato/presence-bridge/internal/config"
)

func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the presence-bridge configuration file",
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write the default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := resolvedConfigPath()
			if err := config.Init(path); err != nil {
				return runtimeErr(err)
			}
			fmt.Printf("wrote default configuration to %s\n", path)
			fmt.Println("edit discord_app_id before running `presence-bridge run`")
			return nil
		},
	})

	return configCmd
}
