package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/gagliardetto/solana-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/usdc-bridge/relayer/internal/bridge/chain"
	"github.com/usdc-bridge/relayer/internal/bridge/chain/evm"
	"github.com/usdc-bridge/relayer/internal/bridge/chain/rpcpool"
	"github.com/usdc-bridge/relayer/internal/bridge/chain/svm"
	"github.com/usdc-bridge/relayer/internal/bridge/config"
	"github.com/usdc-bridge/relayer/internal/bridge/cursor"
	"github.com/usdc-bridge/relayer/internal/bridge/direction"
	"github.com/usdc-bridge/relayer/internal/bridge/gateway"
	"github.com/usdc-bridge/relayer/internal/bridge/health"
	"github.com/usdc-bridge/relayer/internal/bridge/metrics"
	"github.com/usdc-bridge/relayer/internal/bridge/queue"
	"github.com/usdc-bridge/relayer/internal/bridge/signer"
)

// NewStartCmd builds the "start" subcommand: the relayer's only real
// operation, loading configuration from the environment and running until
// signalled to stop.
func NewStartCmd() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the bridge relayer (gateway + direction runners)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(envFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger := config.NewLogger(cfg)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return runRelayer(ctx, cfg, logger)
		},
	}
	cmd.Flags().StringVar(&envFile, "env-file", "", "path to a .env file (optional; falls back to the process environment)")
	return cmd
}

// runnerSet aggregates every direction's Runner into the map shape
// health.StatusProvider needs (Runner.Ready reports a single bool per
// direction; the health server wants them keyed by direction name).
type runnerSet struct {
	runners map[string]*direction.Runner
}

func (s *runnerSet) Ready() map[string]bool {
	out := make(map[string]bool, len(s.runners))
	for name, r := range s.runners {
		out[name] = r.Ready()
	}
	return out
}

func runRelayer(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	if len(cfg.Directions) == 0 {
		return fmt.Errorf("relayer: no directions configured (expected e2s and/or s2e)")
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	runners := &runnerSet{runners: make(map[string]*direction.Runner)}
	for name, dc := range cfg.Directions {
		r, err := buildRunner(dc, m, logger)
		if err != nil {
			return fmt.Errorf("build %s runner: %w", name, err)
		}
		runners.runners[name] = r
	}

	group, gctx := errgroup.WithContext(ctx)
	for name, r := range runners.runners {
		name, r := name, r
		group.Go(func() error {
			logger.Info().Str("direction", name).Msg("starting direction runner")
			return r.Run(gctx)
		})
	}

	healthSrv := health.New(runners, reg, logger)
	healthHTTP := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port+1),
		Handler:           healthSrv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	group.Go(func() error { return serveUntilDone(gctx, healthHTTP, logger, "health") })

	gatewayHTTP, err := buildGatewayServer(cfg, logger)
	if err != nil {
		return fmt.Errorf("build gateway server: %w", err)
	}
	group.Go(func() error { return serveUntilDone(gctx, gatewayHTTP, logger, "gateway") })

	if err := group.Wait(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// serveUntilDone runs srv until ctx is cancelled, then shuts it down
// gracefully.
func serveUntilDone(ctx context.Context, srv *http.Server, logger zerolog.Logger, name string) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("server", name).Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Str("server", name).Msg("graceful shutdown failed")
		}
		return nil
	case err := <-errCh:
		return err
	}
}

func buildGatewayServer(cfg *config.Config, logger zerolog.Logger) (*http.Server, error) {
	client, err := ethclient.Dial(cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("dial gateway RPC: %w", err)
	}
	usdcAddr := ethcommon.HexToAddress(cfg.USDCContractAddress)
	bridgeAddr := ethcommon.HexToAddress(cfg.BridgeContractAddress)

	gw := gateway.New(client, usdcAddr, bridgeAddr, cfg.PrivateKey, cfg.ChainID, cfg.CORSAllowOrigin, logger)
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           gw.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}, nil
}

// buildRunner wires one direction's watcher, submitter, signer, queue, and
// cursor. Directions are named by flow, not by chain kind: "e2s" watches
// the EVM source contract and submits releases to the SVM gateway; "s2e"
// is the mirror. This naming convention is recorded in DESIGN.md (spec.md's
// environment table never states it explicitly, only implies it via the
// E2S__*/S2E__* variable prefixes).
func buildRunner(dc config.DirectionConfig, m *metrics.Metrics, logger zerolog.Logger) (*direction.Runner, error) {
	var (
		watcher   chain.WatcherAdapter
		submitter chain.SubmitterAdapter
		sgn       signer.Signer
	)

	sourcePool, err := rpcpool.New(dc.Source.RPCURLs)
	if err != nil {
		return nil, fmt.Errorf("source rpc pool: %w", err)
	}
	targetPool, err := rpcpool.New(dc.Target.RPCURLs)
	if err != nil {
		return nil, fmt.Errorf("target rpc pool: %w", err)
	}

	switch dc.Name {
	case "e2s":
		watcher = evm.NewAdapter(sourcePool, ethcommon.HexToAddress(dc.Source.ContractHex), dc.Source.ChainID, "", logger)

		keyBytes, err := signer.DecodeKeyMaterial(dc.Relayer.Ed25519PrivateKey, 64)
		if err != nil {
			return nil, fmt.Errorf("decode ed25519 relayer key: %w", err)
		}
		ed25519Signer, err := signer.NewEd25519Signer(keyBytes)
		if err != nil {
			return nil, fmt.Errorf("build ed25519 signer: %w", err)
		}
		sgn = ed25519Signer

		gatewayPubkey, err := solana.PublicKeyFromBase58(dc.Target.ContractHex)
		if err != nil {
			return nil, fmt.Errorf("parse target gateway pubkey: %w", err)
		}
		submitter = svm.NewAdapter(targetPool, gatewayPubkey, ed25519Signer, logger)

	case "s2e":
		gatewayPubkey, err := solana.PublicKeyFromBase58(dc.Source.ContractHex)
		if err != nil {
			return nil, fmt.Errorf("parse source gateway pubkey: %w", err)
		}
		watcher = svm.NewAdapter(sourcePool, gatewayPubkey, nil, logger)

		keyBytes, err := signer.DecodeKeyMaterial(dc.Relayer.ECDSAPrivateKey, 32)
		if err != nil {
			return nil, fmt.Errorf("decode ecdsa relayer key: %w", err)
		}
		secpSigner, err := signer.NewSecp256k1Signer(keyBytes)
		if err != nil {
			return nil, fmt.Errorf("build secp256k1 signer: %w", err)
		}
		sgn = secpSigner

		submitter = evm.NewAdapter(targetPool, ethcommon.HexToAddress(dc.Target.ContractHex), dc.Target.ChainID, dc.Relayer.ECDSAPrivateKey, logger)

	default:
		return nil, fmt.Errorf("unknown direction %q", dc.Name)
	}

	q, err := queue.New(dc.Queue.Path, dc.Queue.MaxSize, logger)
	if err != nil {
		return nil, fmt.Errorf("open queue: %w", err)
	}
	cur, err := cursor.Open(dc.Queue.Path + "/cursor.db")
	if err != nil {
		return nil, fmt.Errorf("open cursor store: %w", err)
	}

	rcfg := direction.Config{
		Name:             dc.Name,
		PollInterval:     dc.PollInterval,
		WatcherWindow:    dc.WatcherWindow,
		RetryLimit:       dc.Queue.RetryLimit,
		MinSourceBalance: dc.Gas.MinSourceBalance,
		MinTargetBalance: dc.Gas.MinTargetBalance,
	}
	return direction.New(rcfg, watcher, submitter, sgn, q, cur, m, logger), nil
}
