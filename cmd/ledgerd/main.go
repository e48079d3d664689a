// Package main runs ledgerd, the token ledger service:
// - HTTP JSON API for every ledger operation and query
// - Prometheus metrics
// - WebSocket stream of committed events and notifications
// - optional ClickHouse audit journal
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"coffee-ledger/internal/config"
	"coffee-ledger/internal/domain"
	"coffee-ledger/internal/host"
	"coffee-ledger/internal/host/sig"
	"coffee-ledger/internal/host/stub"
	"coffee-ledger/internal/journal"
	"coffee-ledger/internal/ledger"
	"coffee-ledger/internal/observability"
	"coffee-ledger/internal/storage"
	chstore "coffee-ledger/internal/storage/clickhouse"
	"coffee-ledger/internal/storage/memory"
	"coffee-ledger/internal/storage/migrations"
	pgstore "coffee-ledger/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to the YAML configuration file")
	listenAddr := flag.String("listen-addr", "", "Override server.listen_addr from the config")
	flag.Parse()

	logger := log.New(os.Stdout, "[ledgerd] ", log.LstdFlags|log.Lshortfile)

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	if *listenAddr != "" {
		cfg.Server.ListenAddr = *listenAddr
	}

	lc, err := cfg.ToLedgerConfig()
	if err != nil {
		logger.Fatalf("Invalid policy config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := observability.NewMetrics("")

	store, cleanup, err := createStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to create store: %v", err)
	}
	defer cleanup()

	hub := newEventHub(logger, metrics)
	go hub.run(ctx)

	writers := journal.MultiWriter{hub}
	if cfg.Journal.Enabled {
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.Journal.DSN)
		if err != nil {
			logger.Fatalf("Failed to prepare clickhouse journal: %v", err)
		}
		defer conn.Close()
		writers = append(writers, chstore.NewJournalStore(conn))
		logger.Println("ClickHouse journal enabled")
	}

	registry := stub.NewRegistry(builtinAccounts(lc)...)
	for _, name := range cfg.Accounts.Known {
		registry.Add(domain.Name(name))
	}

	keys := sig.NewKeyring()
	for account, encoded := range cfg.Accounts.Keys {
		if err := keys.RegisterKey(domain.Name(account), encoded); err != nil {
			logger.Fatalf("Failed to register key for %s: %v", account, err)
		}
	}

	engine, err := ledger.New(lc, ledger.Deps{
		Store:    store,
		Auth:     host.ContextAuthorizer{},
		Accounts: registry,
		Notifier: hub,
		Journal:  writers,
		Metrics:  metrics,
		Logger:   logger,
	})
	if err != nil {
		logger.Fatalf("Failed to create engine: %v", err)
	}

	a := &api{
		engine:   engine,
		registry: registry,
		keys:     keys,
		signed:   len(cfg.Accounts.Keys) > 0,
		logger:   logger,
	}

	mux := http.NewServeMux()
	a.register(mux)
	mux.Handle(cfg.Metrics.Path, observability.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws/notifications", hub.handleSubscribe)

	srv := &http.Server{
		Addr:         cfg.Server.ListenAddr,
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		s := <-sigCh
		logger.Printf("Received signal %v, shutting down...", s)
		cancel()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Printf("Shutdown error: %v", err)
		}
	}()

	logger.Printf("Serving on %s (backend=%s, journal=%v)", cfg.Server.ListenAddr, cfg.Storage.Backend, cfg.Journal.Enabled)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("Server error: %v", err)
	}
	logger.Println("Shutdown complete")
}

// builtinAccounts returns the principals the policy itself names, so a bare
// config still recognizes them.
func builtinAccounts(lc ledger.Config) []domain.Name {
	accounts := []domain.Name{lc.Self, lc.StakingController}
	accounts = append(accounts, lc.TrustedBurnSources...)
	return accounts
}

// createStore builds the configured ledger backend.
func createStore(ctx context.Context, cfg *config.Config, logger *log.Logger) (storage.Ledger, func(), error) {
	if cfg.Storage.Backend == "memory" {
		logger.Println("Using in-memory storage")
		return memory.NewLedger(), func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, cfg.Storage.Postgres.DSN)
	if err != nil {
		return nil, nil, err
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, err
	}
	logger.Println("Using postgres storage")
	return pgstore.NewLedger(pool), pool.Close, nil
}
