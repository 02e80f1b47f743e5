package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// errors are printed by the console itself; the logger only reports failed loads
	logger, err := zap.NewDevelopment(zap.IncreaseLevel(zap.WarnLevel))
	if err != nil {
		logger = zap.NewNop()
	}
	defer logger.Sync()

	cli := commandLine{
		v:      newViper(),
		in:     os.Stdin,
		out:    os.Stdout,
		logger: logger,
	}
	if err := cli.run(ctx, os.Args); err != nil {
		if err != errHelp {
			fmt.Fprintf(os.Stderr, "\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}
