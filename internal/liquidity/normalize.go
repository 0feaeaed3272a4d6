package liquidity

import (
	"math"
	"math/big"

	"lbscope/internal/model"
)

// Window is an exclusive price filter. Max <= 0 leaves the upper side open.
type Window struct {
	Min float64
	Max float64
}

// Contains reports whether Min < price < Max.
func (w Window) Contains(price float64) bool {
	if !(price > w.Min) {
		return false
	}
	if w.Max > 0 && !(price < w.Max) {
		return false
	}
	return true
}

// Normalize converts raw observations into a decimal-corrected, priced table
// filtered to window. It is pure and keeps the input order.
//
// Reserves pass through float64, so integers above 2^53 lose precision.
func Normalize(obs []model.RawObservation, decimalsX, decimalsY uint8, window Window) model.Table {
	priceScale := math.Pow10(int(decimalsX) - int(decimalsY))

	rows := make([]model.Row, 0, len(obs))
	for _, o := range obs {
		price := o.BinPrice * priceScale
		if !window.Contains(price) {
			continue
		}
		reserveX := scaleDown(o.ReserveX, decimalsX)
		reserveY := scaleDown(o.ReserveY, decimalsY)
		rows = append(rows, model.Row{
			BinID:       o.BinID,
			ReserveX:    reserveX,
			ReserveY:    reserveY,
			BinPrice:    price,
			ReserveXInY: reserveX * price,
		})
	}
	return model.Table{Rows: rows}
}

// scaleDown returns raw / 10^decimals as float64.
func scaleDown(raw *big.Int, decimals uint8) float64 {
	if raw == nil || raw.Sign() == 0 {
		return 0
	}
	num := new(big.Float).SetPrec(128).SetInt(raw)
	den := new(big.Float).SetPrec(128).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	val, _ := num.Quo(num, den).Float64()
	return val
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
