package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"agent-gw-poc/internal/cli"
	"agent-gw-poc/internal/config"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg := config.Load()

	deps, err := cli.DefaultDeps(cfg)
	if err != nil {
		log.Printf("startup failed: %v", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.RootCommand(deps).ExecuteContext(ctx); err != nil {
		log.Printf("%v", err)
		return 1
	}
	return 0
}
