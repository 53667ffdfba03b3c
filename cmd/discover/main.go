// Command discover runs one discovery pass and prints its summary. Useful
// for seeding a fresh roster or tuning the gain threshold by hand.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"solana-sniper-stack/internal/config"
	"solana-sniper-stack/internal/dexscreener"
	"solana-sniper-stack/internal/discovery"
	"solana-sniper-stack/internal/solana"
	"solana-sniper-stack/internal/storage"
	"solana-sniper-stack/internal/storage/memory"
	"solana-sniper-stack/internal/storage/migrations"
	pgstore "solana-sniper-stack/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to the YAML configuration file")
	minGain := flag.Float64("min-gain", 0, "Override the minimum gain multiple for this run")
	promote := flag.Bool("promote", false, "Promote qualifying candidates onto the roster")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL")
	flag.Parse()

	logger := log.New(os.Stdout, "[discover] ", log.LstdFlags)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("Load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, cfg, *minGain, *promote, *useMemory); err != nil {
		logger.Fatalf("Error: %v", err)
	}
}

func run(ctx context.Context, logger *log.Logger, cfg *config.Config, minGain float64, promote, useMemory bool) error {
	if !useMemory && cfg.Postgres.DSN == "" {
		return fmt.Errorf("postgres.dsn is required (use --use-memory for in-memory storage)")
	}

	var walletStore storage.WalletStore
	var discoveredStore storage.DiscoveredTokenStore
	var buyerStore storage.EarlyBuyerStore
	var candidateStore storage.CandidateStore

	if useMemory {
		discovered := memory.NewDiscoveredTokenStore()
		walletStore = memory.NewWalletStore()
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
		discoveredStore = pgstore.NewDiscoveredTokenStore(pool)
		buyerStore = pgstore.NewEarlyBuyerStore(pool)
		candidateStore = pgstore.NewCandidateStore(pool)
	}

	apiKey := cfg.RPC.EnhancedAPIKey
	if apiKey == "" {
		apiKey = solana.APIKeyFromEndpoint(cfg.RPC.Endpoint)
	}
	if apiKey == "" {
		return fmt.Errorf("no enhanced API key: set rpc.enhanced_api_key or embed api-key in rpc.endpoint")
	}
	enhanced := solana.NewEnhancedClient(solana.DefaultEnhancedBaseURL, apiKey)
	dex := dexscreener.NewHTTPClient()

	engine := discovery.New(dex, enhanced, discoveredStore, buyerStore, candidateStore, walletStore, &discovery.Options{
		Logger:         logger,
		MinGain:        cfg.Discovery.MinGain,
		Lookback:       cfg.Discovery.Lookback.Std(),
		MaxBuyers:      cfg.Discovery.MaxBuyers,
		MinAppearances: cfg.Discovery.MinAppearances,
	})

	summary, err := engine.Run(ctx, discovery.RunParams{
		MinGain:     minGain,
		AutoPromote: promote,
	})
	if err != nil {
		return err
	}

	fmt.Printf("winners: %d\nearly buyers: %d\ncandidates: %d\npromoted: %d\n",
		summary.Winners, summary.Buyers, summary.Candidates, summary.Promoted)
	return nil
}
