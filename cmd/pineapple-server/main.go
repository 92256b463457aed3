package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/c32poker/pineapple/internal/auth"
	"github.com/c32poker/pineapple/internal/room"
	"github.com/c32poker/pineapple/internal/server"
	"github.com/c32poker/pineapple/internal/store"
)

var version = "dev"

var CLI struct {
	Config   string `short:"c" default:"pineapple.hcl" help:"Path to HCL configuration file"`
	Addr     string `short:"a" help:"Server address to bind to (overrides config)"`
	LogLevel string `short:"l" help:"Log level (overrides config)"`
	Version  bool   `help:"Print version and exit"`
}

func main() {
	kctx := kong.Parse(&CLI)

	if CLI.Version {
		fmt.Println(version)
		kctx.Exit(0)
	}

	cfg, err := server.LoadConfig(CLI.Config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		kctx.Exit(1)
	}
	if CLI.Addr != "" {
		host, portStr, err := net.SplitHostPort(CLI.Addr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid address %q: %v\n", CLI.Addr, err)
			kctx.Exit(1)
		}
		port, err := strconv.Atoi(portStr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid port %q: %v\n", portStr, err)
			kctx.Exit(1)
		}
		cfg.Server.Address = host
		cfg.Server.Port = port
	}
	if CLI.LogLevel != "" {
		cfg.Server.LogLevel = CLI.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		kctx.Exit(1)
	}

	logger := log.New(os.Stderr)
	switch cfg.Server.LogLevel {
	case "debug":
		logger.SetLevel(log.DebugLevel)
	case "warn":
		logger.SetLevel(log.WarnLevel)
	case "error":
		logger.SetLevel(log.ErrorLevel)
	default:
		logger.SetLevel(log.InfoLevel)
	}

	if err := run(logger, cfg); err != nil && err != context.Canceled {
		logger.Error("server failed", "error", err)
		kctx.Exit(1)
	}
}

func run(logger *log.Logger, cfg *server.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := os.MkdirAll(cfg.Storage.DataDir, 0o755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}

	var userStore store.UserStore
	if cfg.Storage.PostgresDSN != "" {
		pg, err := store.NewPostgresStore(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			return fmt.Errorf("failed to connect to postgres: %w", err)
		}
		userStore = pg
		logger.Info("using postgres store")
	} else {
		userStore = store.NewMemoryStore(int64(cfg.Storage.InitialBalance * 100))
		logger.Info("using in-memory store", "initial_balance", cfg.Storage.InitialBalance)
	}
	defer userStore.Close()

	var verifier auth.Verifier
	if cfg.Server.JWTSecret != "" {
		verifier = auth.NewJWTVerifier(cfg.Server.JWTSecret)
	} else {
		logger.Warn("no jwt_secret configured, tokens are trusted as usernames")
		verifier = auth.NewNoopVerifier()
	}

	metrics := server.NewMetrics()
	hub := server.NewHub(logger, metrics)
	caster := server.NewBroadcaster(logger, nil, hub, metrics)
	registry := room.NewRegistry(logger, nil, userStore, caster, cfg.RegistryDefaults(), cfg.SnapshotPath())
	caster.SetRegistry(registry)

	if err := registry.Load(); err != nil {
		logger.Error("failed to load room snapshot, starting empty", "error", err)
	}

	srv := server.New(logger, cfg, hub, registry, verifier, userStore, metrics)

	logger.Info("starting pineapple server",
		"addr", cfg.ListenAddress(),
		"version", version,
		"rooms", len(registry.List()))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(gctx) })
	g.Go(func() error { return registry.Run(gctx) })
	g.Go(func() error { return caster.Run(gctx) })

	err := g.Wait()
	logger.Info("shutdown complete")
	return err
}
