// Command presence-bridge mirrors the active media session onto Discord
// Rich Presence. Its command tree is built with github.com/spf13/cobra,
// wired the way grovetools-core/cmd/core/main.go composes its subcommands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vincenzomaritato/presence-bridge/internal/config"
)

var configPath string

// cliError carries the process exit code a failure should produce:
// 0 for success, 1 for a runtime error, 2 for a configuration error.
type cliError struct {
	code int
	err  error
}

func (e *cliError) Error() string { return e.err.Error() }
func (e *cliError) Unwrap() error { return e.err }

func configErr(err error) error {
	return &cliError{code: config.ExitConfigError, err: err}
}

func runtimeErr(err error) error {
	return &cliError{code: config.ExitRuntimeErr, err: err}
}

func resolvedConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultPath()
}

func main() {
	root := &cobra.Command{
		Use:           "presence-bridge",
		Short:         "Mirror the active media session onto Discord Rich Presence",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config.toml (default: "+config.DefaultPath()+")")

	root.AddCommand(newRunCmd())
	root.AddCommand(newDoctorCmd())
	root.AddCommand(newStatusCmd())
	root.AddCommand(newConfigCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "presence-bridge:", err)
		os.Exit(exitCodeFor(err))
	}
}

func exitCodeFor(err error) int {
	var ce *cliError
	if e, ok := err.(*cliError); ok {
		ce = e
	}
	if ce != nil {
		return ce.code
	}
	return config.ExitRuntimeErr
}
