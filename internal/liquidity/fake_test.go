package liquidity

import (
	"context"
	"math/big"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"lbscope/internal/chain"
	"lbscope/internal/model"
)

// memReader is an in-memory pair. Missing bins have zero reserves.
type memReader struct {
	mu     sync.Mutex
	active model.BinID
	bins   map[model.BinID]model.ReservePair
	fail   map[model.BinID]bool
	delay  func(id model.BinID) time.Duration

	reserveCalls atomic.Int64
	batchCalls   atomic.Int64
}

func newMemReader(active model.BinID, ids ...model.BinID) *memReader {
	r := &memReader{
		active: active,
		bins:   make(map[model.BinID]model.ReservePair),
		fail:   make(map[model.BinID]bool),
	}
	for _, id := range ids {
		r.bins[id] = model.ReservePair{X: big.NewInt(int64(id)), Y: big.NewInt(1)}
	}
	return r
}

func (r *memReader) sortedIDs() []model.BinID {
	ids := make([]model.BinID, 0, len(r.bins))
	for id := range r.bins {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (r *memReader) ActiveBin(context.Context) (model.BinID, error) {
	return r.active, nil
}

// NextNonEmptyBin mimics the contract: it answers with a non-progressing id when nothing is left.
func (r *memReader) NextNonEmptyBin(_ context.Context, dir model.Direction, from model.BinID) (model.BinID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := r.sortedIDs()
	if dir == model.TowardLower {
		for i := len(ids) - 1; i >= 0; i-- {
			if ids[i] < from {
				return ids[i], nil
			}
		}
		return 1<<24 - 1, nil
	}
	for _, id := range ids {
		if id > from {
			return id, nil
		}
	}
	return 0, nil
}

func (r *memReader) Reserves(ctx context.Context, id model.BinID) (model.ReservePair, error) {
	r.reserveCalls.Add(1)
	if r.delay != nil {
		select {
		case <-time.After(r.delay(id)):
		case <-ctx.Done():
			return model.ReservePair{}, &chain.QueryError{Method: "getBin", Err: ctx.Err()}
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail[id] {
		return model.ReservePair{}, &chain.QueryError{Method: "getBin", Err: context.DeadlineExceeded}
	}
	pair, ok := r.bins[id]
	if !ok {
		return model.ReservePair{X: big.NewInt(0), Y: big.NewInt(0)}, nil
	}
	return pair, nil
}

type memBatchReader struct {
	*memReader
}

func (r memBatchReader) ReservesBatch(ctx context.Context, ids []model.BinID) ([]model.ReservePair, error) {
	r.batchCalls.Add(1)
	out := make([]model.ReservePair, len(ids))
	for i, id := range ids {
		pair, err := r.memReader.Reserves(ctx, id)
		if err != nil {
			return nil, err
		}
		out[i] = pair
	}
	return out, nil
}
