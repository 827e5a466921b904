// Package main provides the entry point for the promptpad MCP server.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/raphaelgruber/promptpad/internal/config"
	"github.com/raphaelgruber/promptpad/internal/db"
	"github.com/raphaelgruber/promptpad/internal/llm"
	"github.com/raphaelgruber/promptpad/internal/metrics"
	"github.com/raphaelgruber/promptpad/internal/server"
	"github.com/raphaelgruber/promptpad/internal/service"
	"github.com/raphaelgruber/promptpad/internal/tools"
)

const version = "0.1.0"

func main() {
	cfg := config.Load()

	// stdout carries the protocol, so logs go to stderr and the log file
	logger, cleanup := config.SetupLogger(cfg.LogFile, cfg.LogLevel, false)
	defer cleanup()

	logger.Info("promptpad-mcp starting",
		"version", version,
		"store", cfg.Store,
		"provider", cfg.Provider,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	collector := metrics.NewCollector()
	completer, err := llm.NewCompleter(cfg, logger, collector)
	if err != nil {
		logger.Error("failed to create completer", "error", err)
		os.Exit(1)
	}

	store, err := db.Open(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open state store", "error", err)
		os.Exit(1)
	}

	ws, err := service.Open(ctx, store, service.Dependencies{
		Completer: completer,
		Logger:    logger,
		Metrics:   collector,
	})
	if err != nil {
		_ = store.Close(ctx)
		logger.Error("failed to load workspace", "error", err)
		os.Exit(1)
	}
	defer func() {
		logger.Info("closing state store")
		_ = ws.Close(context.Background())
	}()

	srv := server.New(version, logger)
	srv.Setup()

	tools.RegisterAll(srv.MCPServer(), &tools.Dependencies{
		Workspace: ws,
		Metrics:   collector,
		Logger:    logger,
	})

	logger.Info("server ready, awaiting connections")

	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}

	logger.Info("shutdown complete")
}
