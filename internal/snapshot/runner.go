package snapshot

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"lbscope/internal/liquidity"
	"lbscope/internal/model"
	"lbscope/internal/storage"
)

// Renderer turns a finished table into an image.
type Renderer interface {
	Render(w io.Writer, chart model.Chart) error
}

// RunConfig holds per-cycle settings.
type RunConfig struct {
	Offset    int
	Workers   int
	BatchSize int
	Window    liquidity.Window
	OutDir    string
}

// Runner executes sampling cycles for one pair.
type Runner struct {
	cfg      RunConfig
	pair     model.PairMeta
	reader   liquidity.BinReader
	sampler  *liquidity.Sampler
	renderer Renderer
	sinks    []storage.Sink
	logger   *zap.Logger
}

// NewRunner builds a Runner with its dependencies. renderer may be nil, in
// which case only the table is written.
func NewRunner(cfg RunConfig, pair model.PairMeta, reader liquidity.BinReader, renderer Renderer, sinks []storage.Sink, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		cfg:    cfg,
		pair:   pair,
		reader: reader,
		sampler: &liquidity.Sampler{
			Reader:    reader,
			Curve:     liquidity.NewCurve(pair.BinStep),
			Workers:   cfg.Workers,
			BatchSize: cfg.BatchSize,
			Logger:    logger,
		},
		renderer: renderer,
		sinks:    sinks,
		logger:   logger,
	}
}

// RunCycle samples the pair once and publishes the table and chart for at.
// Artifacts appear only if every stage succeeded and ctx is still live.
func (r *Runner) RunCycle(ctx context.Context, at time.Time) (model.SnapshotRecord, error) {
	ts := at.Unix()
	fail := func(stage Stage, err error) (model.SnapshotRecord, error) {
		return model.SnapshotRecord{}, &CycleError{Timestamp: ts, Stage: stage, Err: err}
	}
	if r.reader == nil {
		return fail(StageDiscover, fmt.Errorf("bin reader is nil"))
	}

	started := time.Now()
	discovery, err := liquidity.Discover(ctx, r.reader, r.cfg.Offset)
	if err != nil {
		return fail(StageDiscover, err)
	}
	if discovery.Capped() {
		r.logger.Info("discovery reached offset cap",
			zap.Int64("active_bin", int64(discovery.Active)),
			zap.Int("offset", r.cfg.Offset),
			zap.Stringer("left_stop", discovery.LeftStop),
			zap.Stringer("right_stop", discovery.RightStop),
		)
	}
	r.logger.Debug("bins discovered", zap.Int("bins", len(discovery.Bins)), zap.Int64("active_bin", int64(discovery.Active)))

	observations, err := r.sampler.Sample(ctx, discovery.Bins)
	if err != nil {
		return fail(StageSample, err)
	}

	table := liquidity.Normalize(observations, r.pair.TokenX.Decimals, r.pair.TokenY.Decimals, r.cfg.Window)
	chart := model.Chart{
		Table:     table,
		Timestamp: ts,
		ActiveBin: discovery.Active,
		SymbolX:   r.pair.TokenX.Symbol,
		SymbolY:   r.pair.TokenY.Symbol,
	}

	batch := storage.NewFileBatch()
	defer batch.Abort()

	tablePath := filepath.Join(r.cfg.OutDir, "csvs", storage.ArtifactName(chart.SymbolX, chart.SymbolY, ts, "csv"))
	tableFile, err := batch.Create(tablePath)
	if err != nil {
		return fail(StagePersist, err)
	}
	if err := storage.WriteTable(tableFile, table); err != nil {
		return fail(StagePersist, err)
	}

	var imagePath string
	if r.renderer != nil {
		imagePath = filepath.Join(r.cfg.OutDir, "images", storage.ArtifactName(chart.SymbolX, chart.SymbolY, ts, "png"))
		imageFile, err := batch.Create(imagePath)
		if err != nil {
			return fail(StageRender, err)
		}
		if err := r.renderer.Render(imageFile, chart); err != nil {
			return fail(StageRender, err)
		}
	}

	if err := ctx.Err(); err != nil {
		return fail(StagePersist, err)
	}
	if err := batch.Commit(); err != nil {
		return fail(StagePersist, err)
	}

	record := model.SnapshotRecord{
		Timestamp:   ts,
		Pair:        r.pair.Address,
		SymbolX:     chart.SymbolX,
		SymbolY:     chart.SymbolY,
		ActiveBin:   discovery.Active,
		BinsSampled: len(observations),
		BinsKept:    table.Len(),
		LeftStop:    discovery.LeftStop.String(),
		RightStop:   discovery.RightStop.String(),
		TablePath:   tablePath,
		ImagePath:   imagePath,
		RecordedAt:  time.Now().UTC().Format(time.RFC3339Nano),
	}

	snap := model.Snapshot{Pair: r.pair, Chart: chart, Record: record}
	for _, sink := range r.sinks {
		if err := sink.PutSnapshot(ctx, snap); err != nil {
			return record, &CycleError{Timestamp: ts, Stage: StageIndex, Err: err}
		}
	}

	r.logger.Info("snapshot saved",
		zap.Int64("timestamp", ts),
		zap.Int64("active_bin", int64(discovery.Active)),
		zap.Int("bins_sampled", record.BinsSampled),
		zap.Int("bins_kept", record.BinsKept),
		zap.String("table", tablePath),
		zap.String("image", imagePath),
		zap.Duration("elapsed", time.Since(started)),
	)
	return record, nil
}
