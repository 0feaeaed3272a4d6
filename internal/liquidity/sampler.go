package liquidity

import (
	"context"
	"fmt"
	"runtime"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"lbscope/internal/model"
)

// BatchReader is implemented by readers that can fetch many bins in one round trip.
type BatchReader interface {
	ReservesBatch(ctx context.Context, ids []model.BinID) ([]model.ReservePair, error)
}

// Sampler fetches reserves for discovered bins over a bounded worker pool.
type Sampler struct {
	Reader BinReader
	Curve  Curve
	// Workers bounds concurrent fetches; zero means runtime.NumCPU().
	Workers int
	// BatchSize is the number of bins per job; values above 1 need a BatchReader.
	BatchSize int
	Logger    *zap.Logger
}

// Sample returns one raw observation per bin, ascending by bin id.
// The first failing fetch cancels the rest and is returned.
func (s *Sampler) Sample(ctx context.Context, bins []model.BinID) ([]model.RawObservation, error) {
	if s.Reader == nil {
		return nil, fmt.Errorf("bin reader is nil")
	}
	logger := s.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	workers := s.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	batchSize := s.BatchSize
	batcher, canBatch := s.Reader.(BatchReader)
	if batchSize < 1 || !canBatch {
		batchSize = 1
	}

	out := make([]model.RawObservation, len(bins))
	chunks := splitBins(len(bins), batchSize)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, chunk := range chunks {
		g.Go(func() error {
			ids := bins[chunk.From:chunk.To]
			var reserves []model.ReservePair
			if batchSize > 1 {
				var err error
				reserves, err = batcher.ReservesBatch(gctx, ids)
				if err != nil {
					return fmt.Errorf("bins %d..%d: %w", ids[0], ids[len(ids)-1], err)
				}
				if len(reserves) != len(ids) {
					return fmt.Errorf("bins %d..%d: got %d reserve pairs", ids[0], ids[len(ids)-1], len(reserves))
				}
			} else {
				pair, err := s.Reader.Reserves(gctx, ids[0])
				if err != nil {
					return fmt.Errorf("bin %d: %w", ids[0], err)
				}
				reserves = []model.ReservePair{pair}
			}

			// Each job owns out[chunk.From:chunk.To], so writes never overlap.
			for i, id := range ids {
				out[chunk.From+i] = s.observe(id, reserves[i])
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool { return out[i].BinID < out[j].BinID })

	logger.Debug("bins sampled", zap.Int("bins", len(out)), zap.Int("jobs", len(chunks)), zap.Int("workers", workers))
	return out, nil
}

func (s *Sampler) observe(id model.BinID, pair model.ReservePair) model.RawObservation {
	return model.RawObservation{
		BinID:    id,
		ReserveX: orZero(pair.X),
		ReserveY: orZero(pair.Y),
		BinPrice: s.Curve.Price(id),
	}
}

type binRange struct {
	From int
	To   int
}

// splitBins splits [0, n) into half-open ranges of at most size elements.
func splitBins(n, size int) []binRange {
	if size < 1 {
		size = 1
	}
	ranges := make([]binRange, 0, (n+size-1)/size)
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		ranges = append(ranges, binRange{From: start, To: end})
	}
	return ranges
}
