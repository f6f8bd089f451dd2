package main

import (
	"context"
	"fmt"
	"os"

	"readstats/cmd/readstats/commands"
	"readstats/lib/serviceutil"
	"readstats/lib/telemetry"
)

func main() {
	ctx, cancel := serviceutil.SignalContext(context.Background())

	telemetry.InitSlog(false)
	if err := telemetry.SetupFromEnv(ctx, "readstats"); err != nil {
		serviceutil.Fatal("failed to setup telemetry", err)
	}

	err := commands.ExecuteContext(ctx)
	cancel()
	telemetry.Shutdown(context.Background())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
