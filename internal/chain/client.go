package chain

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"golang.org/x/time/rate"
)

// Options tunes how the client talks to the RPC endpoint.
type Options struct {
	// Timeout bounds a single call (or batch). Zero disables it.
	Timeout time.Duration
	// RateLimit caps requests per second across all callers. Zero disables it.
	RateLimit float64
	// Burst is the limiter burst size; defaults to 1 when RateLimit is set.
	Burst int
	// MaxRetries is the number of extra attempts after a failed call.
	MaxRetries int
	// RetryBackoff is the initial delay between attempts, doubled each time.
	RetryBackoff time.Duration
}

// Client wraps go-ethereum RPC and provides helper methods.
// It is safe for concurrent use.
type Client struct {
	rpcClient *rpc.Client
	ethClient *ethclient.Client

	opts    Options
	limiter *rate.Limiter
}

// NewClient creates a new chain client from the RPC URL.
func NewClient(ctx context.Context, rpcURL string, opts Options) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, &QueryError{Method: "dial", Err: err}
	}
	return NewClientFromRPC(rpcClient, opts), nil
}

// NewClientFromRPC wraps an already connected RPC client.
func NewClientFromRPC(rpcClient *rpc.Client, opts Options) *Client {
	c := &Client{
		rpcClient: rpcClient,
		ethClient: ethclient.NewClient(rpcClient),
		opts:      opts,
	}
	if opts.RateLimit > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	return c
}

// Close closes the underlying RPC client.
func (c *Client) Close() {
	if c.rpcClient != nil {
		c.rpcClient.Close()
	}
}

// CallContract performs an eth_call against the latest block.
func (c *Client) CallContract(ctx context.Context, msg ethereum.CallMsg) ([]byte, error) {
	var out []byte
	err := c.do(ctx, "eth_call", func(ctx context.Context) error {
		var err error
		out, err = c.ethClient.CallContract(ctx, msg, nil)
		return err
	})
	return out, err
}

// BatchCallContract sends all calls as one JSON-RPC batch against the latest block.
// Results are returned in the order of msgs; any element failure fails the batch.
func (c *Client) BatchCallContract(ctx context.Context, msgs []ethereum.CallMsg) ([][]byte, error) {
	if len(msgs) == 0 {
		return nil, nil
	}

	var out [][]byte
	err := c.do(ctx, "eth_call_batch", func(ctx context.Context) error {
		results := make([]hexutil.Bytes, len(msgs))
		elems := make([]rpc.BatchElem, len(msgs))
		for i, msg := range msgs {
			elems[i] = rpc.BatchElem{
				Method: "eth_call",
				Args:   []interface{}{toCallArg(msg), "latest"},
				Result: &results[i],
			}
		}
		if err := c.rpcClient.BatchCallContext(ctx, elems); err != nil {
			return err
		}
		for i, elem := range elems {
			if elem.Error != nil {
				return fmt.Errorf("batch element %d: %w", i, elem.Error)
			}
		}
		out = make([][]byte, len(results))
		for i, res := range results {
			out[i] = res
		}
		return nil
	})
	return out, err
}

// do runs fn under the limiter, timeout and retry policy and classifies failures.
func (c *Client) do(ctx context.Context, method string, fn func(context.Context) error) error {
	err := withRetry(ctx, c.opts.MaxRetries, c.opts.RetryBackoff, func(ctx context.Context) error {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return err
			}
		}
		callCtx := ctx
		if c.opts.Timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
			defer cancel()
		}
		return fn(callCtx)
	})
	if err != nil {
		return &QueryError{Method: method, Err: err}
	}
	return nil
}

func toCallArg(msg ethereum.CallMsg) interface{} {
	arg := map[string]interface{}{
		"to":    msg.To,
		"input": hexutil.Bytes(msg.Data),
	}
	if msg.From != (common.Address{}) {
		arg["from"] = msg.From
	}
	if msg.Gas != 0 {
		arg["gas"] = hexutil.Uint64(msg.Gas)
	}
	if msg.Value != nil {
		arg["value"] = (*hexutil.Big)(new(big.Int).Set(msg.Value))
	}
	return arg
}
