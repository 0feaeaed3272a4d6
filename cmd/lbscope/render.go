package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"lbscope/internal/config"
	"lbscope/internal/model"
	"lbscope/internal/render"
	"lbscope/internal/storage"
)

func runRender(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadRender(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Input == "" {
		return fmt.Errorf("input path is required")
	}

	ts, err := config.ParseTimestamp(cfg.Timestamp)
	if err != nil {
		return fmt.Errorf("parse timestamp: %w", err)
	}
	if ts == 0 {
		ts = time.Now().Unix()
	}

	table, err := storage.ReadTableFile(cfg.Input)
	if err != nil {
		return err
	}

	chart := model.Chart{
		Table:     table,
		Timestamp: ts,
		ActiveBin: model.BinID(cfg.ActiveBin),
		SymbolX:   cfg.SymbolX,
		SymbolY:   cfg.SymbolY,
	}
	out := filepath.Join(cfg.OutDir, "images", storage.ArtifactName(cfg.SymbolX, cfg.SymbolY, ts, "png"))

	batch := storage.NewFileBatch()
	defer batch.Abort()
	file, err := batch.Create(out)
	if err != nil {
		return err
	}
	if err := render.NewChart(0).Render(file, chart); err != nil {
		return err
	}
	if err := batch.Commit(); err != nil {
		return err
	}

	logger.Info("chart rendered", zap.String("input", cfg.Input), zap.Int("bins", table.Len()), zap.String("out", out))
	return nil
}
