// Command dev prepares a local state directory for running readstats
// against a scratch baseline.
package main

import (
	"errors"
	"flag"
	"log/slog"
	"os"
)

var errNotRoot = errors.New("run this from the repository root, next to go.mod")

type step struct {
	name string
	run  func() error
}

func main() {
	recreate := flag.Bool("recreate", false, "Delete dev/.state and start over.")
	flag.Parse()

	if _, err := os.Stat("go.mod"); err != nil {
		slog.Error("failed to create dev environment", "err", errNotRoot)
		os.Exit(1)
	}
	if *recreate {
		if err := os.RemoveAll("dev/.state"); err != nil {
			slog.Error("failed to clear dev state", "err", err)
			os.Exit(1)
		}
	}

	for _, s := range []step{
		{"baseline database", CreateBaselineDB},
		{"local config", WriteLocalConfig},
	} {
		if err := s.run(); err != nil {
			slog.Error("failed to create dev environment", "step", s.name, "err", err)
			os.Exit(1)
		}
	}
	PrintConfigLocations()
	slog.Info("dev environment ready")
}
