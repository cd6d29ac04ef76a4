// Command learnstream follows, publishes and serves learning platform
// event streams.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/agentstation/learnstream/cmd/learnstream/app"
	"github.com/agentstation/learnstream/pkg/constants"
)

// Set by the release build.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
	builtBy = "unknown"
)

func main() {
	app.ExitOnError(run(os.Args[1:]))
}

func run(args []string) error {
	a, err := app.New(version, commit, date, builtBy)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	runErr := a.Execute(ctx, args)
	stop()

	// ctx is done by now, so shutdown gets its own deadline.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
	defer cancel()
	if err := a.Shutdown(shutdownCtx); err != nil {
		a.Logger().Error().Err(err).Msg("Shutdown error")
	}
	return runErr
}
