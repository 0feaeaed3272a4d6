package dex

import (
	"bytes"
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"lbscope/internal/chain"
	"lbscope/internal/model"
)

// FetchPairMeta resolves token addresses, token metadata and the bin step of a pair.
// A non-zero binStepOverride replaces the on-chain bin step.
func FetchPairMeta(ctx context.Context, reader *PairReader, binStepOverride uint16, logger *zap.Logger) (model.PairMeta, error) {
	if reader == nil {
		return model.PairMeta{}, fmt.Errorf("pair reader is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	tokenX, tokenY, err := reader.Tokens(ctx)
	if err != nil {
		return model.PairMeta{}, fmt.Errorf("pair tokens: %w", err)
	}

	metaX, err := FetchTokenMeta(ctx, reader.chain, tokenX, logger)
	if err != nil {
		return model.PairMeta{}, fmt.Errorf("token x %s: %w", tokenX.Hex(), err)
	}
	metaY, err := FetchTokenMeta(ctx, reader.chain, tokenY, logger)
	if err != nil {
		return model.PairMeta{}, fmt.Errorf("token y %s: %w", tokenY.Hex(), err)
	}

	binStep := binStepOverride
	if binStep == 0 {
		binStep, err = reader.BinStep(ctx)
		if err != nil {
			return model.PairMeta{}, fmt.Errorf("bin step: %w", err)
		}
	}
	if binStep == 0 {
		return model.PairMeta{}, fmt.Errorf("bin step is zero")
	}

	return model.PairMeta{
		Address: reader.Address().Hex(),
		TokenX:  metaX,
		TokenY:  metaY,
		BinStep: binStep,
	}, nil
}

// FetchTokenMeta loads token metadata via ERC20 calls. Decimals are required;
// symbol and name are best effort. Proxied tokens answer through the proxy.
func FetchTokenMeta(ctx context.Context, chainClient *chain.Client, token common.Address, logger *zap.Logger) (model.TokenMeta, error) {
	meta := model.TokenMeta{Address: token.Hex()}
	if chainClient == nil {
		return meta, fmt.Errorf("chain client is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	abis, err := erc20ABI()
	if err != nil {
		return meta, fmt.Errorf("parse erc20 abi: %w", err)
	}

	values, err := callMethod(ctx, chainClient, token, abis.str, "decimals")
	if err != nil {
		return meta, err
	}
	decimals, err := asUint8(values[0])
	if err != nil {
		return meta, &chain.QueryError{Method: "decimals", Err: err}
	}
	meta.Decimals = decimals

	meta.Symbol = textField(ctx, chainClient, token, abis, "symbol", logger)
	meta.Name = textField(ctx, chainClient, token, abis, "name", logger)
	if meta.Symbol == "" {
		meta.Symbol = shortAddress(token)
	}

	return meta, nil
}

func textField(ctx context.Context, chainClient *chain.Client, token common.Address, abis erc20ABIs, method string, logger *zap.Logger) string {
	if values, err := callMethod(ctx, chainClient, token, abis.str, method); err == nil {
		if text, ok := values[0].(string); ok {
			return text
		}
	}
	values, err := callMethod(ctx, chainClient, token, abis.bytes32, method)
	if err != nil {
		logger.Debug("token text call failed", zap.String("token", token.Hex()), zap.String("method", method), zap.Error(err))
		return ""
	}
	text, _ := bytes32ToString(values[0])
	return text
}

func shortAddress(addr common.Address) string {
	hex := addr.Hex()
	return hex[:6]
}

func bytes32ToString(value interface{}) (string, bool) {
	switch v := value.(type) {
	case [32]byte:
		return string(bytes.TrimRight(v[:], "\x00")), true
	case []byte:
		return string(bytes.TrimRight(v, "\x00")), true
	default:
		return "", false
	}
}

func asAddress(value interface{}) (common.Address, error) {
	switch v := value.(type) {
	case common.Address:
		return v, nil
	case *common.Address:
		return *v, nil
	default:
		return common.Address{}, fmt.Errorf("unsupported address type %T", value)
	}
}

func asBigInt(value interface{}) (*big.Int, error) {
	switch v := value.(type) {
	case *big.Int:
		return new(big.Int).Set(v), nil
	case big.Int:
		return new(big.Int).Set(&v), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	default:
		return nil, fmt.Errorf("unsupported int type %T", value)
	}
}

func asUint8(value interface{}) (uint8, error) {
	switch v := value.(type) {
	case uint8:
		return v, nil
	case *big.Int:
		if !v.IsUint64() || v.Uint64() > 255 {
			return 0, fmt.Errorf("decimals out of range: %s", v)
		}
		return uint8(v.Uint64()), nil
	default:
		return 0, fmt.Errorf("unsupported uint8 type %T", value)
	}
}
