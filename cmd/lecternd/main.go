package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"lectern/internal/config"
	"lectern/internal/daemonrun"
	"lectern/internal/logging"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("ensure directories: %v", err)
	}

	logger, err := logging.NewForPath(cfg.Logging.Level, cfg.Logging.Format, cfg.Paths.LogDir, "lectern.log")
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	if err := daemonrun.Run(ctx, cfg, logger); err != nil {
		logger.Error("daemon exited", logging.Error(err))
		cancel()
		log.Fatal(err)
	}
}
