package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/zan8in/gologger"
	"github.com/zan8in/ipkit/pkg/ipkit"
	"go.uber.org/multierr"
)

func main() {
	options := ipkit.ParseOptions()

	runner, err := ipkit.NewRunner(options)
	if err != nil {
		gologger.Fatal().Msgf("Could not create runner: %s\n", err)
	}

	// a closed stdout then surfaces as EPIPE, which ends the run quietly
	signal.Ignore(syscall.SIGPIPE)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err = runner.Run(ctx)
	stop()
	if closeErr := runner.Close(); closeErr != nil {
		err = multierr.Append(err, closeErr)
	}

	if err != nil {
		for _, e := range multierr.Errors(err) {
			gologger.Error().Msgf("%s\n", e)
		}
		os.Exit(1)
	}
}
