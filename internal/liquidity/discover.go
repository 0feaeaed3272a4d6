package liquidity

import (
	"context"
	"fmt"

	"lbscope/internal/model"
)

// BinReader is the chain access the pipeline needs.
type BinReader interface {
	ActiveBin(ctx context.Context) (model.BinID, error)
	NextNonEmptyBin(ctx context.Context, dir model.Direction, from model.BinID) (model.BinID, error)
	Reserves(ctx context.Context, id model.BinID) (model.ReservePair, error)
}

// StopReason tells why a side of the walk ended.
type StopReason int

const (
	// StopBoundary means no further non-empty bin exists on that side.
	StopBoundary StopReason = iota
	// StopCap means the side reached the configured offset.
	StopCap
)

func (s StopReason) String() string {
	if s == StopCap {
		return "cap"
	}
	return "boundary"
}

// Discovery is the outcome of one bin-range walk.
type Discovery struct {
	Active    model.BinID
	Bins      []model.BinID
	LeftStop  StopReason
	RightStop StopReason
}

// Capped reports whether either side stopped on the offset cap rather than a natural boundary.
func (d Discovery) Capped() bool {
	return d.LeftStop == StopCap || d.RightStop == StopCap
}

// Discover walks outward from the active bin over non-empty bins only, taking
// at most offset bins per side. The result is strictly ascending and contains
// the active bin.
func Discover(ctx context.Context, reader BinReader, offset int) (Discovery, error) {
	if reader == nil {
		return Discovery{}, fmt.Errorf("bin reader is nil")
	}
	if offset < 1 {
		return Discovery{}, fmt.Errorf("offset must be at least 1, got %d", offset)
	}

	active, err := reader.ActiveBin(ctx)
	if err != nil {
		return Discovery{}, fmt.Errorf("active bin: %w", err)
	}

	left, leftStop, err := walk(ctx, reader, model.TowardLower, active, offset)
	if err != nil {
		return Discovery{}, fmt.Errorf("walk lower: %w", err)
	}
	right, rightStop, err := walk(ctx, reader, model.TowardHigher, active, offset)
	if err != nil {
		return Discovery{}, fmt.Errorf("walk higher: %w", err)
	}

	bins := make([]model.BinID, 0, len(left)+1+len(right))
	// left was collected outward, so it is reversed into ascending order here.
	for i := len(left) - 1; i >= 0; i-- {
		bins = append(bins, left[i])
	}
	bins = append(bins, active)
	bins = append(bins, right...)

	return Discovery{
		Active:    active,
		Bins:      bins,
		LeftStop:  leftStop,
		RightStop: rightStop,
	}, nil
}

// walk returns bins on one side ordered from nearest to farthest.
func walk(ctx context.Context, reader BinReader, dir model.Direction, active model.BinID, offset int) ([]model.BinID, StopReason, error) {
	seed, err := reader.NextNonEmptyBin(ctx, dir, active)
	if err != nil {
		return nil, StopBoundary, err
	}
	if !progresses(dir, active, seed) {
		return nil, StopBoundary, nil
	}

	bins := []model.BinID{seed}
	for {
		if len(bins) >= offset {
			return bins, StopCap, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, StopBoundary, err
		}

		last := bins[len(bins)-1]
		candidate, err := reader.NextNonEmptyBin(ctx, dir, last)
		if err != nil {
			return nil, StopBoundary, err
		}
		if !progresses(dir, last, candidate) {
			return bins, StopBoundary, nil
		}
		bins = append(bins, candidate)
	}
}

func progresses(dir model.Direction, from, candidate model.BinID) bool {
	if dir == model.TowardLower {
		return candidate < from
	}
	return candidate > from
}
