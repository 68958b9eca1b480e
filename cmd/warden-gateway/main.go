// Copyright 2026 The Warden Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warden-foundation/warden/lib/config"
	"github.com/warden-foundation/warden/lib/gateway"
	"github.com/warden-foundation/warden/lib/journal"
	"github.com/warden-foundation/warden/lib/process"
	"github.com/warden-foundation/warden/lib/ref"
	"github.com/warden-foundation/warden/lib/service"
	"github.com/warden-foundation/warden/lib/tick"
	"github.com/warden-foundation/warden/lib/version"
)

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	var (
		showVersion     bool
		configPath      string
		sealedKeyPath   string
		ageIdentityPath string
	)
	flag.BoolVar(&showVersion, "version", false, "print version information and exit")
	flag.StringVar(&configPath, "config", "", "configuration file (default: $WARDEN_CONFIG)")
	flag.StringVar(&sealedKeyPath, "sealed-signing-key", "", "age-encrypted Ed25519 signing key (default: plaintext keypair in the state directory)")
	flag.StringVar(&ageIdentityPath, "age-identity", "", "age identity file for unsealing the signing key, or - for stdin")
	flag.Parse()

	if showVersion {
		fmt.Printf("warden-gateway %s\n", version.Info())
		return nil
	}

	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}
	if err := cfg.EnsurePaths(); err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	superAdmin, err := ref.New(cfg.Roles.SuperAdmin)
	if err != nil {
		return fmt.Errorf("roles.super_admin: %w", err)
	}
	admin := ref.Null
	if cfg.Roles.Admin != "" {
		if admin, err = ref.New(cfg.Roles.Admin); err != nil {
			return fmt.Errorf("roles.admin: %w", err)
		}
	}
	delegateRef := ref.Null
	if cfg.Delegate.Ref != "" {
		if delegateRef, err = ref.New(cfg.Delegate.Ref); err != nil {
			return fmt.Errorf("delegate.ref: %w", err)
		}
	}

	interval, err := time.ParseDuration(cfg.Tick.Interval)
	if err != nil {
		return fmt.Errorf("tick.interval: %w", err)
	}
	ticks := tick.NewReal(interval)

	publicKey, err := loadSigningPublicKey(logger, cfg.Gateway.StateDir, sealedKeyPath, ageIdentityPath)
	if err != nil {
		return err
	}

	policy, err := loadRelayPolicy(cfg.Relay.PolicyFile, logger)
	if err != nil {
		return err
	}

	// Journal: in-memory chain always; SQLite persistence when a
	// path is configured. The store drains its queue on a background
	// goroutine so Record never blocks the gateway's operation lock.
	var sink journal.Sink
	var store *journal.Store
	storeDone := make(chan error, 1)
	if cfg.Journal.Path != "" {
		store, err = journal.OpenStore(journal.StoreConfig{
			Path:      cfg.Journal.Path,
			QueueSize: cfg.Journal.QueueSize,
			Logger:    logger,
		})
		if err != nil {
			return fmt.Errorf("opening journal store: %w", err)
		}
		defer store.Close()
		sink = store
		go func() {
			storeDone <- store.Run(ctx)
		}()
	} else {
		close(storeDone)
	}
	journ := journal.New(journal.Config{Sink: sink, Logger: logger})

	delegate := newDelegateClient(cfg.Delegate.SocketPath)

	gate, err := gateway.New(gateway.Config{
		SuperAdmin:  superAdmin,
		Admin:       admin,
		DelegateRef: delegateRef,
		Delegate:    delegate,
		Ticks:       ticks,
		Recorder:    journ,
		Transfer:    delegate.Credit,
	})
	if err != nil {
		return err
	}

	gs := &gatewayService{
		gateway:   gate,
		journal:   journ,
		ticks:     ticks,
		policy:    policy,
		logger:    logger,
		startedAt: time.Now(),
	}

	server := service.NewSocketServer(cfg.Gateway.SocketPath, logger, &service.AuthConfig{
		PublicKey: publicKey,
		Audience:  cfg.Gateway.Audience,
	})
	gs.registerActions(server)

	logger.Info("gateway running",
		"socket", cfg.Gateway.SocketPath,
		"audience", cfg.Gateway.Audience,
		"super_admin", superAdmin,
		"delegate", delegateRef,
		"tick_interval", interval,
	)

	serveErr := server.Serve(ctx)
	if err := <-storeDone; err != nil {
		logger.Error("journal store error", "error", err)
	}
	return serveErr
}

// loadRelayPolicy reads the relay admission policy when one is
// configured. A nil policy admits every operation identifier, which
// is the default relay behavior.
func loadRelayPolicy(path string, logger *slog.Logger) (*config.RelayPolicy, error) {
	if path == "" {
		return nil, nil
	}
	policy, err := config.ReadRelayPolicy(path)
	if err != nil {
		return nil, fmt.Errorf("loading relay policy: %w", err)
	}
	logger.Info("relay policy loaded", "file", path, "patterns", len(policy.Allow))
	return policy, nil
}
