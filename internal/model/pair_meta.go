package model

// PairMeta captures immutable Liquidity Book pair metadata.
type PairMeta struct {
	Address string    `json:"address"`
	TokenX  TokenMeta `json:"token_x"`
	TokenY  TokenMeta `json:"token_y"`
	BinStep uint16    `json:"bin_step"`
}
