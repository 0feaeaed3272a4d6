package storage

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lbscope/internal/model"
)

func sampleTable() model.Table {
	return model.Table{Rows: []model.Row{
		{BinID: 8_375_570, ReserveX: 0, ReserveY: 1234.567891, BinPrice: 11.99871234567, ReserveXInY: 0},
		{BinID: 8_375_571, ReserveX: 12.5, ReserveY: 0.000001, BinPrice: 12.0227097, ReserveXInY: 150.28387125},
		{BinID: 8_375_575, ReserveX: 1e-18, ReserveY: 0, BinPrice: 12.1192, ReserveXInY: 1.21192e-17},
	}}
}

func TestTableCSVRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, sampleTable()))

	assert.True(t, strings.HasPrefix(buf.String(), "bin_id,reserveX,reserveY,bin_price,reserveX_in_Y\n"))

	got, err := ReadTable(&buf)
	require.NoError(t, err)
	want := sampleTable()
	require.Equal(t, want.Len(), got.Len())
	for i := range want.Rows {
		assert.Equal(t, want.Rows[i].BinID, got.Rows[i].BinID)
		assert.InDelta(t, want.Rows[i].BinPrice, got.Rows[i].BinPrice, 1e-12)
		assert.InDelta(t, want.Rows[i].ReserveX, got.Rows[i].ReserveX, 1e-12)
		assert.InDelta(t, want.Rows[i].ReserveY, got.Rows[i].ReserveY, 1e-12)
		assert.InDelta(t, want.Rows[i].ReserveXInY, got.Rows[i].ReserveXInY, 1e-12)
	}
}

func TestReadTableIgnoresExtraColumns(t *testing.T) {
	input := ",bin_id,reserveX,reserveY,bin_price,reserveX_in_Y\n0,201,1.5,2,10,15\n"
	got, err := ReadTable(strings.NewReader(input))
	require.NoError(t, err)
	require.Equal(t, 1, got.Len())
	assert.Equal(t, model.BinID(201), got.Rows[0].BinID)
	assert.Equal(t, 15.0, got.Rows[0].ReserveXInY)
}

func TestReadTableRejectsMissingColumns(t *testing.T) {
	_, err := ReadTable(strings.NewReader("bin_id,reserveX\n1,2\n"))
	require.Error(t, err)
}

func TestArtifactName(t *testing.T) {
	assert.Equal(t, "lb_wavax_usdc_1700000000.csv", ArtifactName("WAVAX", "USDC", 1_700_000_000, "csv"))
	assert.Equal(t, "lb_btc.b_usdc.e_42.png", ArtifactName("BTC.b", "USDC.e", 42, "png"))
	assert.Equal(t, "lb_a-b_c_1.png", ArtifactName("a/b", "c", 1, "png"))
}
