// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bslabeler/labeler/lib/broadcast"
	"github.com/bslabeler/labeler/lib/clock"
	"github.com/bslabeler/labeler/lib/config"
	"github.com/bslabeler/labeler/lib/didresolve"
	"github.com/bslabeler/labeler/lib/jwtauth"
	"github.com/bslabeler/labeler/lib/labelstore"
	"github.com/bslabeler/labeler/lib/process"
	"github.com/bslabeler/labeler/lib/sequencer"
	"github.com/bslabeler/labeler/lib/service"
	"github.com/bslabeler/labeler/lib/signing"
	"github.com/bslabeler/labeler/lib/version"
	"github.com/bslabeler/labeler/xrpc"
)

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	var configPath string
	var showVersion bool
	flag.StringVar(&configPath, "config", "", "path to labelerd.yaml (overrides LABELERD_CONFIG)")
	flag.BoolVar(&showVersion, "version", false, "print version information and exit")
	flag.Parse()

	if showVersion {
		version.Print("labelerd")
		return nil
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	shutdownTimeout, err := time.ParseDuration(cfg.ShutdownTimeout)
	if err != nil {
		return fmt.Errorf("config: shutdown_timeout %q: %w", cfg.ShutdownTimeout, err)
	}

	keyBytes, err := os.ReadFile(cfg.SigningKeyPath)
	if err != nil {
		return fmt.Errorf("reading signing key from %s: %w", cfg.SigningKeyPath, err)
	}
	signingKey, err := signing.LoadKey(string(keyBytes))
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.StoreDir(), 0o755); err != nil {
		return fmt.Errorf("creating store directory: %w", err)
	}

	store, err := labelstore.Open(cfg.StorePath, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	// Init must finish before the listener accepts traffic, so a cold
	// start never races a client's first query against missing tables.
	if err := store.Init(ctx); err != nil {
		return err
	}

	clk := clock.Real()
	hub := broadcast.NewHub()
	seq := sequencer.New(store, sequencer.PublisherFunc(hub.PublishLabel), signingKey, cfg.DID, clk)
	resolver := didresolve.New(http.DefaultClient, clk)
	verifier := jwtauth.New(resolver, clk)

	var authPolicy xrpc.AuthPolicy
	if !cfg.RequireAuth {
		authPolicy = func(string) bool { return true }
	}

	router := xrpc.New(xrpc.Deps{
		Store:          store,
		Sequencer:      seq,
		Hub:            hub,
		Verifier:       verifier,
		LabelerDID:     cfg.DID,
		Audience:       cfg.Audience,
		AuthPolicy:     authPolicy,
		Clock:          clk,
		Version:        version.Short(),
		Logger:         logger,
		MaxSubscribers: cfg.MaxSubscribers,
	})

	httpServer := service.NewHTTPServer(service.HTTPServerConfig{
		Address:         cfg.ListenAddr,
		Handler:         router,
		ShutdownTimeout: shutdownTimeout,
		Logger:          logger,
	})

	httpDone := make(chan error, 1)
	go func() {
		httpDone <- httpServer.Serve(ctx)
	}()

	select {
	case <-httpServer.Ready():
		logger.Info("labelerd ready",
			"address", httpServer.Addr().String(),
			"did", cfg.DID,
			"version", version.Short(),
		)
	case <-ctx.Done():
		return ctx.Err()
	}

	<-ctx.Done()
	logger.Info("shutting down")

	// The HTTP server's own drain only covers requests net/http still
	// tracks; a subscribeLabels connection is hijacked out of that
	// tracking the moment it upgrades, so every live subscriber is
	// told to stop independently.
	hub.Shutdown()

	if err := <-httpDone; err != nil {
		logger.Error("http server error", "error", err)
		return err
	}
	return nil
}

// loadConfig loads from configPath if given, otherwise from
// LABELERD_CONFIG.
func loadConfig(configPath string) (*config.Config, error) {
	if configPath != "" {
		return config.LoadFile(configPath)
	}
	return config.Load()
}
