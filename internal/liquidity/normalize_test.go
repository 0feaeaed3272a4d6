package liquidity

import (
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lbscope/internal/model"
)

func raw(id model.BinID, x, y string, price float64) model.RawObservation {
	bx, _ := new(big.Int).SetString(x, 10)
	by, _ := new(big.Int).SetString(y, 10)
	return model.RawObservation{BinID: id, ReserveX: bx, ReserveY: by, BinPrice: price}
}

func TestNormalizeScenario(t *testing.T) {
	curve := Curve{Step: 0.002, Offset: 1 << 23}
	obs := []model.RawObservation{
		raw(100, "0", "500000", curve.Price(100)),
		raw(101, "1000000000000000000", "0", curve.Price(101)),
		raw(102, "0", "0", curve.Price(102)),
	}

	table := Normalize(obs, 18, 6, Window{Min: math.Inf(-1)})
	require.Equal(t, 3, table.Len())

	assert.Equal(t, []float64{0, 1.0, 0}, []float64{table.Rows[0].ReserveX, table.Rows[1].ReserveX, table.Rows[2].ReserveX})
	assert.Equal(t, []float64{0.5, 0, 0}, []float64{table.Rows[0].ReserveY, table.Rows[1].ReserveY, table.Rows[2].ReserveY})
	assert.Less(t, curve.LogPrice(100), curve.LogPrice(101))
}

func TestNormalizeScalesPriceAndValuesX(t *testing.T) {
	curve := NewCurve(20)
	// With 18/6 decimals the raw price is scaled by 1e12.
	active := curve.Offset - 13_030
	obs := []model.RawObservation{
		raw(active, "2000000000000000000", "3000000", curve.Price(active)),
	}

	table := Normalize(obs, 18, 6, Window{})
	require.Equal(t, 1, table.Len())

	row := table.Rows[0]
	wantPrice := curve.Price(active) * 1e12
	assert.InEpsilon(t, wantPrice, row.BinPrice, 1e-12)
	assert.Equal(t, 2.0, row.ReserveX)
	assert.Equal(t, 3.0, row.ReserveY)
	assert.InEpsilon(t, 2*wantPrice, row.ReserveXInY, 1e-12)
}

func TestNormalizeWindowIsExclusive(t *testing.T) {
	obs := []model.RawObservation{
		raw(1, "1", "1", 5),
		raw(2, "1", "1", 7.5),
		raw(3, "1", "1", 20),
		raw(4, "1", "1", 21),
	}

	table := Normalize(obs, 0, 0, Window{Min: 5, Max: 20})
	require.Equal(t, 1, table.Len())
	assert.Equal(t, model.BinID(2), table.Rows[0].BinID)

	open := Normalize(obs, 0, 0, Window{Min: 5})
	require.Equal(t, 3, open.Len())
	assert.Equal(t, model.BinID(4), open.Rows[2].BinID)
}

func TestNormalizeIsIdempotent(t *testing.T) {
	curve := NewCurve(25)
	obs := make([]model.RawObservation, 0, 40)
	for i := 0; i < 40; i++ {
		id := curve.Offset + model.BinID(i-20)
		obs = append(obs, raw(id, "123456789012345678901", "987654321", curve.Price(id)))
	}
	before := append([]model.RawObservation(nil), obs...)

	first := Normalize(obs, 18, 6, Window{Min: 0.5e12, Max: 2e12})
	second := Normalize(obs, 18, 6, Window{Min: 0.5e12, Max: 2e12})

	assert.Equal(t, first, second)
	assert.Equal(t, before, obs)
	for i := 1; i < first.Len(); i++ {
		assert.True(t, first.Rows[i-1].BinID < first.Rows[i].BinID)
	}
}
