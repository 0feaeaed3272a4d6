package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"lbscope/internal/chain"
	"lbscope/internal/config"
	"lbscope/internal/dex"
	"lbscope/internal/liquidity"
	"lbscope/internal/render"
	"lbscope/internal/schedule"
	"lbscope/internal/snapshot"
	"lbscope/internal/storage"
	"lbscope/internal/storage/postgres"
)

func runSample(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		return err
	}

	pairAddress, err := dex.ParseAddress(cfg.Pair)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL, chain.Options{
		Timeout:      cfg.RPCTimeout,
		RateLimit:    cfg.RPCRate,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
	})
	if err != nil {
		return &snapshot.StartupError{Err: fmt.Errorf("connect rpc: %w", err)}
	}
	defer chainClient.Close()

	reader, err := dex.NewPairReader(chainClient, pairAddress)
	if err != nil {
		return &snapshot.StartupError{Err: err}
	}

	meta, err := snapshot.Bootstrap(ctx, reader, cfg.BinStep, logger)
	if err != nil {
		return err
	}

	var sinks []storage.Sink
	if cfg.Index != "" {
		sinks = append(sinks, storage.NewJsonlStorage(cfg.Index))
	}
	if cfg.PGDSN != "" {
		store, err := openStore(ctx, cfg.PGDSN, meta.Address, logger)
		if err != nil {
			return &snapshot.StartupError{Err: err}
		}
		defer store.Close()
		sinks = append(sinks, store)
	}

	runner := snapshot.NewRunner(snapshot.RunConfig{
		Offset:    cfg.Offset,
		Workers:   cfg.Workers,
		BatchSize: cfg.BatchSize,
		Window:    liquidity.Window{Min: cfg.MinPrice, Max: cfg.MaxPrice},
		OutDir:    cfg.OutDir,
	}, meta, reader, render.NewChart(0), sinks, logger)

	var trigger schedule.Trigger
	if cfg.OneShot {
		trigger = &schedule.OneShot{}
	} else {
		trigger = &schedule.Aligned{Interval: cfg.Interval, CatchUp: cfg.CatchUp}
	}

	scheduler := schedule.NewScheduler(trigger, func(ctx context.Context, at time.Time) error {
		_, err := runner.RunCycle(ctx, at)
		return err
	}, cfg.Tick, logger)

	logger.Info("sampler start",
		zap.String("rpc", cfg.RPCURL),
		zap.String("pair", meta.Address),
		zap.Bool("one_shot", cfg.OneShot),
		zap.Int("interval_minutes", cfg.Interval),
		zap.Bool("catch_up", cfg.CatchUp),
		zap.Int("offset", cfg.Offset),
		zap.Int("workers", cfg.Workers),
		zap.Int("batch_size", cfg.BatchSize),
		zap.Float64("min_price", cfg.MinPrice),
		zap.Float64("max_price", cfg.MaxPrice),
		zap.String("out_dir", cfg.OutDir),
		zap.String("index", cfg.Index),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
	)

	return scheduler.Run(ctx)
}

func openStore(ctx context.Context, dsn, pair string, logger *zap.Logger) (*postgres.Store, error) {
	store, err := postgres.NewStore(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := store.EnsureSchema(ctx); err != nil {
		store.Close()
		return nil, err
	}
	last, ok, err := store.LatestSnapshot(ctx, pair)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("latest snapshot: %w", err)
	}
	if ok {
		logger.Info("previous snapshot found", zap.String("pair", pair), zap.Time("snapshot_ts", last))
	}
	return store, nil
}
