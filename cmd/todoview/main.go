// Package main is the entry point for the todoview client.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"todoview/internal/cli"
	"todoview/internal/commands"
)

func main() {
	// Cancel on interrupt so in-flight requests are abandoned.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, cli.NewBackend)

	code := dispatcher.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}
