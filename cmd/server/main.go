/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the quest reward engine server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Load TOML configuration (defaults when the file is absent)
  3. Initialize SQLite store
  4. Wire the ledger, catalog and engines
  5. Configure HTTP router
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -config  TOML config path (default: quest.toml)
  -port    HTTP server port (overrides config when set)
  -db      SQLite database path (overrides config when set)
           Use ":memory:" for an in-memory database

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/quest.db"

  # Run with in-memory database
  ./server -db=":memory:"

  # Run with an explicit config file
  ./server -config=./deploy/quest.toml

SEE ALSO:
  - config/config.go: TOML schema and defaults
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/warp/quest-engine/api"
	"github.com/warp/quest-engine/catalog"
	"github.com/warp/quest-engine/config"
	"github.com/warp/quest-engine/ledger"
	"github.com/warp/quest-engine/quest"
	"github.com/warp/quest-engine/reward"
	"github.com/warp/quest-engine/store/sqlite"
)

func main() {
	// Flags
	configPath := flag.String("config", "quest.toml", "TOML config path")
	port := flag.Int("port", 0, "HTTP server port (overrides config)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	// Configuration: file first, flags override
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *dbPath != "" {
		cfg.Server.DBPath = *dbPath
	}

	rewardCfg, err := cfg.RewardConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid reward configuration")
	}

	// Initialize store
	store, err := sqlite.New(cfg.Server.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer store.Close()

	// Wire the engines
	led := ledger.New(store)
	balances := ledger.NewBalanceCalculator(store)
	locks := ledger.NewUserLocks()
	cat := catalog.New(store)

	lottery := reward.NewLotteryEngine(cat, led, rewardCfg, log)
	crafting := reward.NewCraftingEngine(cat, led, balances, locks, log)
	redeemer := reward.NewRedeemer(cat, led, balances, locks, log)

	featured := quest.NewFeaturedTaskSelector(store)
	completion := quest.NewCompletionService(store, featured, lottery, led, locks, rewardCfg, log)

	handler := api.NewHandler(store, balances, completion, crafting, redeemer, cat, log)
	router := api.NewRouter(handler)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().Int("port", cfg.Server.Port).Str("db", cfg.Server.DBPath).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
