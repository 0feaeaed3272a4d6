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

	"lbscope/internal/config"
	"lbscope/internal/render"
	"lbscope/internal/storage"
)

func runAnimate(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadAnimate(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.FPS < 1 {
		return fmt.Errorf("fps must be greater than zero")
	}

	begin, end, err := config.TimeWindow(cfg.Begin, cfg.End, time.Now())
	if err != nil {
		return fmt.Errorf("parse time window: %w", err)
	}

	frames, err := render.SelectFrames(cfg.Images, begin, end)
	if err != nil {
		return err
	}
	if len(frames) == 0 {
		return fmt.Errorf("no images in %s between %d and %d", cfg.Images, begin, end)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	batch := storage.NewFileBatch()
	defer batch.Abort()
	file, err := batch.Create(cfg.Out)
	if err != nil {
		return err
	}

	logger.Info("animate start",
		zap.String("images", cfg.Images),
		zap.Int64("begin", begin),
		zap.Int64("end", end),
		zap.Int("frames", len(frames)),
		zap.Int("fps", cfg.FPS),
		zap.Bool("stream", cfg.Stream),
	)

	if err := render.Animate(ctx, file, frames, cfg.FPS, cfg.Stream); err != nil {
		return err
	}
	if err := batch.Commit(); err != nil {
		return err
	}

	logger.Info("animation saved", zap.String("out", cfg.Out), zap.Int("frames", len(frames)))
	return nil
}
