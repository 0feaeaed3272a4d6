package model

import "math/big"

// BinID identifies a discretized price interval of a Liquidity Book pair.
type BinID int64

// ReservePair holds raw bin reserves in each token's smallest unit.
type ReservePair struct {
	X *big.Int
	Y *big.Int
}

// RawObservation is a sampled bin before decimal correction.
type RawObservation struct {
	BinID    BinID
	ReserveX *big.Int
	ReserveY *big.Int
	BinPrice float64
}

// Direction selects which side of a bin to search.
type Direction int

const (
	// TowardLower searches bins with lower ids (lower price).
	TowardLower Direction = iota
	// TowardHigher searches bins with higher ids (higher price).
	TowardHigher
)

func (d Direction) String() string {
	if d == TowardLower {
		return "lower"
	}
	return "higher"
}
