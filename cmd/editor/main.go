package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"wayfinder/infrastructure/config"
	"wayfinder/infrastructure/di"
	"wayfinder/interfaces/cli"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}
	// Keep the console readable unless a level was asked for.
	if os.Getenv("LOG_LEVEL") == "" {
		cfg.LogLevel = "warn"
	}

	app, cleanup, err := di.InitializeEditor(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize editor: %v\n", err)
		return 1
	}
	defer cleanup()

	console := cli.NewConsole(app.Session, os.Stdout, app.Logger)
	args := os.Args[1:]
	if len(args) == 0 {
		err = console.Run(ctx, os.Stdin)
	} else {
		err = console.Execute(ctx, args)
	}
	if err != nil && ctx.Err() == nil {
		app.Logger.Debug("editor command failed", zap.Error(err))
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	return 0
}
