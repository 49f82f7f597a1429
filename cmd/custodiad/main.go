package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"custodia/config"
	"custodia/core/state"
	"custodia/gateway"
	"custodia/native/ledger"
	"custodia/native/swapescrow"
	"custodia/observability/logging"
	"custodia/storage"
)

func main() {
	configPath := flag.String("config", "./custodiad.toml", "Path to the daemon configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	var fileOpts *logging.FileOptions
	if strings.TrimSpace(cfg.LogFile) != "" {
		fileOpts = &logging.FileOptions{
			Path:       cfg.LogFile,
			MaxSizeMB:  cfg.LogMaxSizeMB,
			MaxBackups: cfg.LogMaxBackups,
			MaxAgeDays: cfg.LogMaxAgeDays,
		}
	}
	log := logging.Setup("custodiad", cfg.Environment, fileOpts)

	db, err := openDatabase(cfg)
	if err != nil {
		log.Error("open database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("close database", "error", err)
		}
	}()

	policy, err := cfg.Policy()
	if err != nil {
		log.Error("build policy", "error", err)
		os.Exit(1)
	}

	manager := state.NewManager(db)

	ledgerEngine := ledger.NewEngine()
	ledgerEngine.SetState(manager)
	ledgerEngine.SetPolicy(policy)
	ledgerEngine.SetProvider(ledger.NewMemoryProvider())

	swapEngine := swapescrow.NewEngine()
	swapEngine.SetState(manager)
	swapEngine.SetLedger(ledgerEngine)
	swapEngine.SetPolicy(policy)

	server := gateway.NewServer(ledgerEngine, swapEngine, policy, log, cfg.AdminAPIKey)
	httpServer := &http.Server{
		Addr:              cfg.ListenAddress,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("custody gateway listening", "address", cfg.ListenAddress, "backend", cfg.Backend)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server terminated", "error", err)
			os.Exit(1)
		}
	}
}

func openDatabase(cfg *config.Config) (storage.Database, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "memory":
		return storage.NewMemDB(), nil
	case "bolt":
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return nil, err
		}
		return storage.NewBoltDB(filepath.Join(cfg.DataDir, "custody.db"))
	default:
		return storage.NewLevelDB(filepath.Join(cfg.DataDir, "custody"))
	}
}
