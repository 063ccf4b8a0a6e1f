package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"lectern/internal/config"
	"lectern/internal/engine"
	"lectern/internal/generation"
	"lectern/internal/ipc"
	"lectern/internal/logging"
	"lectern/internal/plan"
	"lectern/internal/repair"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "Configuration file path")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, resolvedPath, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return err
	}
	logger.Info("lecternd starting", logging.String("config", resolvedPath))

	store, err := plan.Open(cfg)
	if err != nil {
		return fmt.Errorf("open plan store: %w", err)
	}
	defer store.Close()

	runner := generation.NewRunner(cfg, store, logger)
	orch, err := repair.NewOrchestrator(repair.Options{
		Logger:            logger,
		Plans:             store,
		Executor:          runner,
		Archiver:          store,
		InactivityTimeout: cfg.RepairInactivityTimeout(),
		ArchiveLimit:      cfg.Repair.ArchivedRunLimit,
	})
	if err != nil {
		return fmt.Errorf("configure orchestrator: %w", err)
	}

	eng, err := engine.New(cfg, store, orch, logger)
	if err != nil {
		return err
	}
	if err := eng.Start(ctx); err != nil {
		return err
	}
	defer eng.Stop()

	ipcServer, err := ipc.NewServer(ctx, cfg.SocketPath(), eng, logger)
	if err != nil {
		return fmt.Errorf("start ipc server: %w", err)
	}
	ipcServer.Serve()
	defer ipcServer.Close()

	logger.Info("lecternd ready",
		logging.String("socket", cfg.SocketPath()),
		logging.String("api", cfg.Paths.APIBind))

	<-ctx.Done()
	logger.Info("lecternd shutting down")
	return nil
}
