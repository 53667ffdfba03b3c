package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"solana-sniper-stack/internal/analyzer"
	"solana-sniper-stack/internal/config"
	"solana-sniper-stack/internal/dexscreener"
	"solana-sniper-stack/internal/discovery"
	"solana-sniper-stack/internal/listener"
	"solana-sniper-stack/internal/observability"
	"solana-sniper-stack/internal/pricetracker"
	"solana-sniper-stack/internal/resolver"
	"solana-sniper-stack/internal/solana"
	"solana-sniper-stack/internal/storage"
	chstore "solana-sniper-stack/internal/storage/clickhouse"
	"solana-sniper-stack/internal/storage/memory"
	"solana-sniper-stack/internal/storage/migrations"
	pgstore "solana-sniper-stack/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to the YAML configuration file")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL")
	flag.Parse()

	logger := log.New(os.Stdout, "[sniper] ", log.LstdFlags|log.Lshortfile)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("Load config: %v", err)
	}

	// Start metrics server
	if cfg.Metrics.Addr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("ok"))
			})
			logger.Printf("Starting metrics server on %s", cfg.Metrics.Addr)
			if err := http.ListenAndServe(cfg.Metrics.Addr, mux); err != nil && err != http.ErrServerClosed {
				logger.Printf("Metrics server error: %v", err)
			}
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())

	// Handle shutdown signals with graceful timeout
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan error, 1)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
		}
	}()

	err = run(ctx, logger, cfg, *useMemory)

	done <- err
	cancel()

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalf("Error: %v", err)
	}
	logger.Println("Shutdown complete")
}

func run(ctx context.Context, logger *log.Logger, cfg *config.Config, useMemory bool) error {
	if !useMemory && cfg.Postgres.DSN == "" {
		return fmt.Errorf("postgres.dsn is required (use --use-memory for in-memory storage)")
	}

	// Create stores (use interfaces)
	var walletStore storage.WalletStore
	var tokenStore storage.TokenStore
	var signalWriter storage.SignalWriter
	var discoveredStore storage.DiscoveredTokenStore
	var buyerStore storage.EarlyBuyerStore
	var candidateStore storage.CandidateStore

	if useMemory {
		tokens := memory.NewTokenStore()
		discovered := memory.NewDiscoveredTokenStore()
		walletStore = memory.NewWalletStore()
		tokenStore = tokens
		signalWriter = memory.NewSignalStore(tokens)
		discoveredStore = discovered
		buyerStore = memory.NewEarlyBuyerStore(discovered)
		candidateStore = memory.NewCandidateStore()
	} else {
		pool, err := pgstore.NewPool(ctx, cfg.Postgres.DSN)
		if err != nil {
			return fmt.Errorf("connect to postgres: %w", err)
		}
		defer pool.Close()

		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			return fmt.Errorf("run postgres migrations: %w", err)
		}

		walletStore = pgstore.NewWalletStore(pool)
		tokenStore = pgstore.NewTokenStore(pool)
		signalWriter = pgstore.NewSignalStore(pool)
		discoveredStore = pgstore.NewDiscoveredTokenStore(pool)
		buyerStore = pgstore.NewEarlyBuyerStore(pool)
		candidateStore = pgstore.NewCandidateStore(pool)
	}

	// Market cap history is optional; it only exists with ClickHouse.
	var historyStore storage.MarketCapHistoryStore
	if cfg.ClickHouse.DSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickHouse.DSN)
		if err != nil {
			return fmt.Errorf("run clickhouse migrations: %w", err)
		}
		defer conn.Close()
		historyStore = chstore.NewMarketCapHistoryStore(conn)
	}

	// Create clients
	rpc := solana.NewHTTPClient(cfg.RPC.Endpoint)

	apiKey := cfg.RPC.EnhancedAPIKey
	if apiKey == "" {
		apiKey = solana.APIKeyFromEndpoint(cfg.RPC.Endpoint)
	}
	if apiKey == "" {
		return fmt.Errorf("no enhanced API key: set rpc.enhanced_api_key or embed api-key in rpc.endpoint")
	}
	enhanced := solana.NewEnhancedClient(solana.DefaultEnhancedBaseURL, apiKey)

	dex := dexscreener.NewHTTPClient()

	wsEndpoint := cfg.RPC.WSEndpoint
	if wsEndpoint == "" {
		wsEndpoint = solana.WebSocketURL(cfg.RPC.Endpoint)
	}

	// Wire the pipeline
	scan := analyzer.New(enhanced, rpc, tokenStore, walletStore, signalWriter, &analyzer.Options{
		Logger:       logger,
		MaxTokenAge:  cfg.Analyzer.MaxTokenAge.Std(),
		MinMatches:   cfg.Analyzer.MinMatches,
		HistoryLimit: cfg.Analyzer.HistoryLimit,
	})

	listen := listener.New(rpc, wsEndpoint, resolver.New(rpc), scan, &listener.Options{
		Logger:         logger,
		ReconnectDelay: cfg.Listener.ReconnectDelay.Std(),
		PollInterval:   cfg.Listener.PollInterval.Std(),
		PollLimit:      cfg.Listener.PollLimit,
		SeenCapacity:   cfg.Listener.SeenCapacity,
	})

	tracker := pricetracker.New(dex, tokenStore, historyStore, &pricetracker.Options{
		Logger:      logger,
		Interval:    cfg.PriceTracker.Interval.Std(),
		MaxTrackAge: cfg.PriceTracker.MaxTrackAge.Std(),
	})

	engine := discovery.New(dex, enhanced, discoveredStore, buyerStore, candidateStore, walletStore, &discovery.Options{
		Logger:         logger,
		MinGain:        cfg.Discovery.MinGain,
		Lookback:       cfg.Discovery.Lookback.Std(),
		MaxBuyers:      cfg.Discovery.MaxBuyers,
		MinAppearances: cfg.Discovery.MinAppearances,
	})
	scheduler := discovery.NewScheduler(engine, &discovery.SchedulerOptions{
		Logger:         logger,
		InitialDelay:   cfg.Discovery.InitialDelay.Std(),
		InitialMinGain: cfg.Discovery.InitialMinGain,
		Interval:       cfg.Discovery.Interval.Std(),
	})

	logger.Println("Starting listener, price tracker and discovery scheduler...")

	// A failed loop cancels the other two; the process never runs half a
	// pipeline.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	errCh := make(chan error, 3)

	loops := []func(context.Context) error{listen.Run, tracker.Run, scheduler.Run}
	wg.Add(len(loops))
	for _, loop := range loops {
		loop := loop
		go func() {
			defer wg.Done()
			if err := loop(ctx); err != nil {
				errCh <- err
				cancel()
			}
		}()
	}

	wg.Wait()
	close(errCh)

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
	}
	return ctx.Err()
}
