package main

import (
	"errors"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"lbscope/internal/schedule"
	"lbscope/internal/snapshot"
)

func main() {
	root := &cobra.Command{
		Use:          "lbscope",
		Short:        "Liquidity Book liquidity snapshots",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	sampleCmd := &cobra.Command{
		Use:   "sample",
		Short: "Sample a pair's liquidity shape on a schedule",
		RunE:  runSample,
	}

	sampleCmd.Flags().String("rpc", "", "RPC URL")
	sampleCmd.Flags().String("pair", "", "Liquidity Book pair address")
	sampleCmd.Flags().Bool("one-shot", false, "take a single snapshot and exit")
	sampleCmd.Flags().Int("interval", 5, "minutes between clock-aligned snapshots")
	sampleCmd.Flags().Bool("catch-up", false, "fire once immediately after an overrun instead of waiting for the next boundary")
	sampleCmd.Flags().Duration("tick", schedule.DefaultTick, "scheduler polling period")
	sampleCmd.Flags().Int("offset", 250, "maximum non-empty bins per side of the active bin")
	sampleCmd.Flags().Int("workers", 0, "concurrent reserve fetches, 0 means number of CPUs")
	sampleCmd.Flags().Int("batch-size", 1, "bins per JSON-RPC batch")
	sampleCmd.Flags().Float64("min-price", 0, "drop bins priced at or below this value")
	sampleCmd.Flags().Float64("max-price", 0, "drop bins priced at or above this value, 0 means unbounded")
	sampleCmd.Flags().Uint("bin-step", 0, "override the pair's bin step in basis points")
	sampleCmd.Flags().String("out-dir", "./outputs", "artifact root (csvs/ and images/)")
	sampleCmd.Flags().String("index", "./outputs/snapshots.jsonl", "snapshot index JSONL path, empty disables it")
	sampleCmd.Flags().String("pg-dsn", "", "optional Postgres DSN")
	sampleCmd.Flags().Int("max-retries", 0, "retry attempts per RPC call")
	sampleCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	sampleCmd.Flags().Duration("rpc-timeout", 15*time.Second, "timeout per RPC call, 0 disables it")
	sampleCmd.Flags().Float64("rpc-rate", 0, "maximum RPC requests per second, 0 disables limiting")
	sampleCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(sampleCmd)

	renderCmd := &cobra.Command{
		Use:   "render",
		Short: "Draw a chart from a stored liquidity table",
		RunE:  runRender,
	}

	renderCmd.Flags().String("in", "", "input CSV table")
	renderCmd.Flags().Int64("active-bin", 0, "active bin id to mark")
	renderCmd.Flags().String("symbol-x", "AVAX", "symbol of token X")
	renderCmd.Flags().String("symbol-y", "USDC", "symbol of token Y")
	renderCmd.Flags().String("out-dir", "./outputs", "artifact root; the image goes to images/")
	renderCmd.Flags().String("timestamp", "", "snapshot time (unix seconds or RFC3339), default now")
	renderCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(renderCmd)

	animateCmd := &cobra.Command{
		Use:   "animate",
		Short: "Stitch chart images into a GIF",
		RunE:  runAnimate,
	}

	animateCmd.Flags().String("images", "./outputs/images", "directory of chart images")
	animateCmd.Flags().String("begin", "", "exclusive start time (unix seconds or RFC3339), default a week ago")
	animateCmd.Flags().String("end", "", "exclusive end time (unix seconds or RFC3339), default now")
	animateCmd.Flags().Int("fps", 10, "frames per second")
	animateCmd.Flags().String("out", "./outputs/animation.gif", "output GIF path")
	animateCmd.Flags().Bool("stream", false, "write frames one at a time instead of buffering them")
	animateCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(animateCmd)

	if err := root.Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}

// exitCode maps startup failures to 2 so supervisors can tell them from a failed cycle.
func exitCode(err error) int {
	var startupErr *snapshot.StartupError
	if errors.As(err, &startupErr) {
		return 2
	}
	return 1
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	return "***"
}
