package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fairuzakhdan/smartvowd/internal/aggregator"
	"github.com/fairuzakhdan/smartvowd/internal/ai"
	"github.com/fairuzakhdan/smartvowd/internal/api"
	"github.com/fairuzakhdan/smartvowd/internal/circuitbreaker"
	"github.com/fairuzakhdan/smartvowd/internal/config"
	"github.com/fairuzakhdan/smartvowd/internal/ledger"
	"github.com/fairuzakhdan/smartvowd/internal/ledger/ratelimit"
	"github.com/fairuzakhdan/smartvowd/internal/ledger/rpc"
	"github.com/fairuzakhdan/smartvowd/internal/pinning"
	"github.com/fairuzakhdan/smartvowd/internal/store/statefile"
	"github.com/fairuzakhdan/smartvowd/internal/viewmodel"
	"github.com/fairuzakhdan/smartvowd/internal/wallet"
)

func main() {
	if err := run(); err != nil {
		slog.Error("daemon exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.Log.Level),
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting smartvowd",
		"chain_id", cfg.Chain.ChainID,
		"rpc_url", cfg.Chain.RPCURL,
		"vow_contract", cfg.Contracts.VowAddress)

	// One breaker per endpoint: a flapping node must not trip the wallet path.
	nodeBreaker := circuitbreaker.New(5, 30*time.Second, func(from, to circuitbreaker.State) {
		logger.Warn("node breaker state changed", "from", from, "to", to)
	})
	walletBreaker := circuitbreaker.New(5, 30*time.Second, func(from, to circuitbreaker.State) {
		logger.Warn("wallet breaker state changed", "from", from, "to", to)
	})

	node := rpc.NewClient(cfg.Chain.RPCURL, "node", logger,
		rpc.WithTimeout(cfg.Ledger.RPCTimeout),
		rpc.WithRateLimiter(ratelimit.NewLimiter(cfg.Ledger.RateRPS, cfg.Ledger.RateBurst, "node")),
		rpc.WithBreaker(nodeBreaker),
	)
	walletClient := rpc.NewClient(cfg.Chain.WalletRPCURL, "wallet", logger,
		rpc.WithTimeout(cfg.Ledger.RPCTimeout),
		rpc.WithBreaker(walletBreaker),
	)

	provider := wallet.NewProvider(walletClient, chainDescriptor(cfg), cfg.Chain.ChainID, logger,
		wallet.WithChangeHandler(func(account string) {
			if account == "" {
				logger.Warn("wallet disconnected, write operations will fail until reconnect")
			}
		}),
	)

	addrs := ledger.Addresses{
		Vow:         cfg.Contracts.VowAddress,
		Certificate: cfg.Contracts.CertificateAddress,
		Asset:       cfg.Contracts.AssetAddress,
	}
	gateway := ledger.NewGateway(node, provider, addrs, cfg.Chain.ChainID,
		cfg.Ledger.ReceiptPollInterval, cfg.Ledger.ReceiptTimeout, logger)

	if err := gateway.Preflight(ctx); err != nil {
		return fmt.Errorf("ledger preflight: %w", err)
	}

	repo, err := statefile.Open(cfg.Store.Path, contractFingerprint(cfg), logger)
	if err != nil {
		return fmt.Errorf("open state file: %w", err)
	}

	generator := ai.NewGenerator(ai.Config{
		APIKey:  cfg.AI.APIKey,
		BaseURL: cfg.AI.BaseURL,
		Model:   cfg.AI.Model,
		Timeout: cfg.AI.Timeout,
	}, logger)
	pins := pinning.NewClient(pinning.Config{
		Endpoint:   cfg.Pinning.Endpoint,
		Token:      cfg.Pinning.Token,
		GatewayURL: cfg.Pinning.GatewayURL,
		Timeout:    cfg.Pinning.Timeout,
	}, logger)

	agreements := viewmodel.New(gateway, repo, repo, repo, logger)
	vault := aggregator.NewVault(gateway, repo, logger)
	assets := aggregator.NewAssets(gateway, pins, repo, logger)
	certificates := aggregator.NewCertificates(gateway, pins, generator, repo, repo, logger)

	server := api.NewServer(provider, agreements, vault, assets, certificates, generator, repo, logger)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return repo.Run(ctx)
	})

	g.Go(func() error {
		return provider.Watch(ctx)
	})

	g.Go(func() error {
		logger.Info("http server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("shutdown complete")
	return nil
}

func chainDescriptor(cfg *config.Config) rpc.ChainDescriptor {
	return rpc.ChainDescriptor{
		ChainID:   rpc.FormatHexInt64(cfg.Chain.ChainID),
		ChainName: cfg.Chain.Name,
		Native: rpc.Currency{
			Name:     cfg.Chain.NativeSymbol,
			Symbol:   cfg.Chain.NativeSymbol,
			Decimals: 18,
		},
		RPCURLs:   []string{cfg.Chain.RPCURL},
		Explorers: []string{cfg.Chain.ExplorerURL},
	}
}

// contractFingerprint identifies the contract deployment the local state was
// built against. A different deployment invalidates everything cached.
func contractFingerprint(cfg *config.Config) string {
	return strings.ToLower(fmt.Sprintf("%d|%s|%s|%s",
		cfg.Chain.ChainID,
		cfg.Contracts.VowAddress,
		cfg.Contracts.CertificateAddress,
		cfg.Contracts.AssetAddress,
	))
}

func logLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
