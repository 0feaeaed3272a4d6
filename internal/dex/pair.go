package dex

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"lbscope/internal/chain"
	"lbscope/internal/model"
)

// PairReader issues read-only queries against one Liquidity Book pair.
// It holds no state besides the client and is safe for concurrent use.
type PairReader struct {
	chain   *chain.Client
	pair    common.Address
	pairABI abi.ABI
}

// NewPairReader binds a reader to a pair address.
func NewPairReader(chainClient *chain.Client, pair common.Address) (*PairReader, error) {
	if chainClient == nil {
		return nil, fmt.Errorf("chain client is nil")
	}
	pairABI, err := LBPairABI()
	if err != nil {
		return nil, fmt.Errorf("parse pair abi: %w", err)
	}
	return &PairReader{chain: chainClient, pair: pair, pairABI: pairABI}, nil
}

// Address returns the pair address.
func (r *PairReader) Address() common.Address {
	return r.pair
}

// ActiveBin returns the bin currently holding the market price.
func (r *PairReader) ActiveBin(ctx context.Context) (model.BinID, error) {
	values, err := r.call(ctx, "getActiveId")
	if err != nil {
		return 0, err
	}
	return binFromValue("getActiveId", values[0])
}

// NextNonEmptyBin returns the nearest bin in dir from id that holds liquidity.
// If none exists the contract answers with a non-progressing id.
func (r *PairReader) NextNonEmptyBin(ctx context.Context, dir model.Direction, from model.BinID) (model.BinID, error) {
	values, err := r.call(ctx, "getNextNonEmptyBin", dir == model.TowardLower, big.NewInt(int64(from)))
	if err != nil {
		return 0, err
	}
	return binFromValue("getNextNonEmptyBin", values[0])
}

// Reserves returns the raw reserves held by a bin.
func (r *PairReader) Reserves(ctx context.Context, id model.BinID) (model.ReservePair, error) {
	values, err := r.call(ctx, "getBin", big.NewInt(int64(id)))
	if err != nil {
		return model.ReservePair{}, err
	}
	return reservesFromValues(values)
}

// ReservesBatch fetches reserves for all ids in a single JSON-RPC batch.
func (r *PairReader) ReservesBatch(ctx context.Context, ids []model.BinID) ([]model.ReservePair, error) {
	msgs := make([]ethereum.CallMsg, len(ids))
	for i, id := range ids {
		data, err := r.pairABI.Pack("getBin", big.NewInt(int64(id)))
		if err != nil {
			return nil, &chain.QueryError{Method: "getBin", Err: fmt.Errorf("pack: %w", err)}
		}
		msgs[i] = ethereum.CallMsg{To: &r.pair, Data: data}
	}

	responses, err := r.chain.BatchCallContract(ctx, msgs)
	if err != nil {
		return nil, err
	}
	if len(responses) != len(ids) {
		return nil, &chain.QueryError{Method: "getBin", Err: fmt.Errorf("batch returned %d results for %d bins", len(responses), len(ids))}
	}

	out := make([]model.ReservePair, len(ids))
	for i, resp := range responses {
		values, err := r.pairABI.Unpack("getBin", resp)
		if err != nil {
			return nil, &chain.QueryError{Method: "getBin", Err: fmt.Errorf("unpack bin %d: %w", ids[i], err)}
		}
		pair, err := reservesFromValues(values)
		if err != nil {
			return nil, err
		}
		out[i] = pair
	}
	return out, nil
}

// Tokens returns the X and Y token addresses of the pair.
func (r *PairReader) Tokens(ctx context.Context) (common.Address, common.Address, error) {
	values, err := r.call(ctx, "getTokenX")
	if err != nil {
		return common.Address{}, common.Address{}, err
	}
	tokenX, err := asAddress(values[0])
	if err != nil {
		return common.Address{}, common.Address{}, &chain.QueryError{Method: "getTokenX", Err: err}
	}

	values, err = r.call(ctx, "getTokenY")
	if err != nil {
		return common.Address{}, common.Address{}, err
	}
	tokenY, err := asAddress(values[0])
	if err != nil {
		return common.Address{}, common.Address{}, &chain.QueryError{Method: "getTokenY", Err: err}
	}
	return tokenX, tokenY, nil
}

// BinStep returns the pair bin step in basis points.
func (r *PairReader) BinStep(ctx context.Context) (uint16, error) {
	values, err := r.call(ctx, "getBinStep")
	if err != nil {
		return 0, err
	}
	step, err := asBigInt(values[0])
	if err != nil {
		return 0, &chain.QueryError{Method: "getBinStep", Err: err}
	}
	return uint16(step.Uint64()), nil
}

func (r *PairReader) call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	return callMethod(ctx, r.chain, r.pair, r.pairABI, method, args...)
}

func callMethod(ctx context.Context, chainClient *chain.Client, to common.Address, parsed abi.ABI, method string, args ...interface{}) ([]interface{}, error) {
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, &chain.QueryError{Method: method, Err: fmt.Errorf("pack: %w", err)}
	}
	resp, err := chainClient.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data})
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	values, err := parsed.Unpack(method, resp)
	if err != nil {
		return nil, &chain.QueryError{Method: method, Err: fmt.Errorf("unpack: %w", err)}
	}
	if len(values) == 0 {
		return nil, &chain.QueryError{Method: method, Err: fmt.Errorf("empty response")}
	}
	return values, nil
}

func binFromValue(method string, value interface{}) (model.BinID, error) {
	id, err := asBigInt(value)
	if err != nil {
		return 0, &chain.QueryError{Method: method, Err: err}
	}
	if !id.IsInt64() {
		return 0, &chain.QueryError{Method: method, Err: fmt.Errorf("bin id overflow: %s", id)}
	}
	return model.BinID(id.Int64()), nil
}

func reservesFromValues(values []interface{}) (model.ReservePair, error) {
	if len(values) != 2 {
		return model.ReservePair{}, &chain.QueryError{Method: "getBin", Err: fmt.Errorf("expected 2 values, got %d", len(values))}
	}
	x, err := asBigInt(values[0])
	if err != nil {
		return model.ReservePair{}, &chain.QueryError{Method: "getBin", Err: fmt.Errorf("reserve x: %w", err)}
	}
	y, err := asBigInt(values[1])
	if err != nil {
		return model.ReservePair{}, &chain.QueryError{Method: "getBin", Err: fmt.Errorf("reserve y: %w", err)}
	}
	return model.ReservePair{X: x, Y: y}, nil
}
