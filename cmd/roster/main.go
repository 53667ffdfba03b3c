// Command roster manages the tracked smart-wallet list from the shell:
//
//	roster add <address> [label]
//	roster remove <address>
//	roster list
//	roster signals [limit]
//	roster tokens
//	roster winners
//	roster candidates
//	roster promote <address>
//	roster promote-all [min-tokens]
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"solana-sniper-stack/internal/config"
	"solana-sniper-stack/internal/roster"
	"solana-sniper-stack/internal/storage/migrations"
	pgstore "solana-sniper-stack/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to the YAML configuration file")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	logger := log.New(os.Stderr, "[roster] ", log.LstdFlags)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("Load config: %v", err)
	}
	if cfg.Postgres.DSN == "" {
		logger.Fatal("postgres.dsn is required")
	}

	ctx := context.Background()

	pool, err := pgstore.NewPool(ctx, cfg.Postgres.DSN)
	if err != nil {
		logger.Fatalf("Connect to postgres: %v", err)
	}
	defer pool.Close()

	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		logger.Fatalf("Run migrations: %v", err)
	}

	svc := roster.New(
		pgstore.NewWalletStore(pool),
		pgstore.NewTokenStore(pool),
		pgstore.NewSignalStore(pool),
		pgstore.NewDiscoveredTokenStore(pool),
		pgstore.NewCandidateStore(pool),
		&roster.Options{Logger: logger},
	)

	if err := dispatch(ctx, svc, args); err != nil {
		logger.Fatalf("Error: %v", err)
	}
}

func dispatch(ctx context.Context, svc *roster.Service, args []string) error {
	switch args[0] {
	case "add":
		if len(args) < 2 {
			return fmt.Errorf("usage: roster add <address> [label]")
		}
		label := ""
		if len(args) > 2 {
			label = args[2]
		}
		w, err := svc.AddWallet(ctx, args[1], label)
		if err != nil {
			return err
		}
		fmt.Printf("tracking %s (%s)\n", w.Label, w.Address)
		return nil

	case "remove":
		if len(args) < 2 {
			return fmt.Errorf("usage: roster remove <address>")
		}
		return svc.RemoveWallet(ctx, args[1])

	case "list":
		wallets, err := svc.Wallets(ctx)
		if err != nil {
			return err
		}
		for _, w := range wallets {
			fmt.Printf("%-44s  %-10s  %-9s  %s\n", w.Address, w.Status, w.Source, w.Label)
		}
		return nil

	case "signals":
		limit := 0
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("usage: roster signals [limit]")
			}
			limit = n
		}
		signals, err := svc.RecentSignals(ctx, limit)
		if err != nil {
			return err
		}
		for _, s := range signals {
			fmt.Printf("%s  %-44s  %d wallets  confidence %d\n",
				s.Timestamp.Format("2006-01-02 15:04:05"), s.TokenAddress, s.SmartWalletCount, s.ConfidenceScore)
		}
		return nil

	case "candidates":
		candidates, err := svc.Candidates(ctx)
		if err != nil {
			return err
		}
		for _, c := range candidates {
			promoted := " "
			if c.IsPromoted {
				promoted = "*"
			}
			fmt.Printf("%s %-44s  %d tokens  %s\n", promoted, c.WalletAddress, c.TokenCount, c.TokenSymbols)
		}
		return nil

	case "tokens":
		tokens, err := svc.Tokens(ctx)
		if err != nil {
			return err
		}
		for _, tok := range tokens {
			fmt.Printf("%-44s  %-13s  %-10s  mc %.0f\n", tok.ContractAddress, tok.Status, tok.Symbol, tok.MarketCapAtScan)
		}
		return nil

	case "winners":
		winners, err := svc.Winners(ctx)
		if err != nil {
			return err
		}
		for _, w := range winners {
			fmt.Printf("%-44s  %-10s  %-10s  %.0fx  %d buyers\n", w.Address, w.Status, w.Symbol, w.GainMultiple, w.EarlyBuyersFound)
		}
		return nil

	case "promote":
		if len(args) < 2 {
			return fmt.Errorf("usage: roster promote <address>")
		}
		return svc.PromoteCandidate(ctx, args[1])

	case "promote-all":
		minTokens := 2
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("usage: roster promote-all [min-tokens]")
			}
			minTokens = n
		}
		promoted, err := svc.PromoteAll(ctx, minTokens)
		if err != nil {
			return err
		}
		fmt.Printf("promoted %d wallets\n", promoted)
		return nil

	default:
		usage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: roster [--config path] <add|remove|list|signals|tokens|winners|candidates|promote|promote-all> [args]")
}
