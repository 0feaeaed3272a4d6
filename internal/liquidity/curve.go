package liquidity

import (
	"math"

	"lbscope/internal/model"
)

// DefaultOffset is the bin id whose raw price is exactly 1.
const DefaultOffset model.BinID = 1 << 23

// Curve maps bin ids to raw prices: price(id) = (1+Step)^(id-Offset).
type Curve struct {
	Step   float64
	Offset model.BinID
}

// NewCurve builds a curve from a bin step expressed in basis points.
func NewCurve(binStep uint16) Curve {
	return Curve{Step: float64(binStep) / 10_000, Offset: DefaultOffset}
}

// Price returns the raw (decimal-uncorrected) price of a bin, Y per X.
// Ids far below Offset underflow to 0 in float64.
func (c Curve) Price(id model.BinID) float64 {
	return math.Pow(1+c.Step, float64(id-c.Offset))
}

// LogPrice returns ln(price(id)). It is strictly increasing in id for any
// positive step and never underflows.
func (c Curve) LogPrice(id model.BinID) float64 {
	return float64(id-c.Offset) * math.Log1p(c.Step)
}
