package snapshot

import (
	"context"

	"go.uber.org/zap"

	"lbscope/internal/dex"
	"lbscope/internal/model"
)

// Bootstrap resolves the pair metadata held for the whole run.
func Bootstrap(ctx context.Context, reader *dex.PairReader, binStepOverride uint16, logger *zap.Logger) (model.PairMeta, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	meta, err := dex.FetchPairMeta(ctx, reader, binStepOverride, logger)
	if err != nil {
		return model.PairMeta{}, &StartupError{Err: err}
	}
	logger.Info("pair resolved",
		zap.String("pair", meta.Address),
		zap.String("token_x", meta.TokenX.Address),
		zap.String("symbol_x", meta.TokenX.Symbol),
		zap.Uint8("decimals_x", meta.TokenX.Decimals),
		zap.String("token_y", meta.TokenY.Address),
		zap.String("symbol_y", meta.TokenY.Symbol),
		zap.Uint8("decimals_y", meta.TokenY.Decimals),
		zap.Uint16("bin_step", meta.BinStep),
	)
	return meta, nil
}
