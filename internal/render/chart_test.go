package render

import (
	"bytes"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lbscope/internal/model"
)

func sampleChart(n int) model.Chart {
	rows := make([]model.Row, 0, n)
	for i := 0; i < n; i++ {
		row := model.Row{BinID: model.BinID(8_388_600 + i), BinPrice: 12.3456789 + float64(i)*0.01}
		if i < n/2 {
			row.ReserveY = 1000
		} else {
			row.ReserveX = 50
			row.ReserveXInY = 800
		}
		rows = append(rows, row)
	}
	return model.Chart{
		Table:     model.Table{Rows: rows},
		Timestamp: 1_700_000_000,
		ActiveBin: model.BinID(8_388_600 + n/2),
		SymbolX:   "WAVAX",
		SymbolY:   "USDC",
	}
}

// countPixels counts pixels close to a pure primary color.
func countPixels(img image.Image, match func(r, g, b uint32) bool) int {
	n := 0
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			if match(r>>8, g>>8, b>>8) {
				n++
			}
		}
	}
	return n
}

func isBlue(r, g, b uint32) bool { return b > 200 && r < 60 && g < 60 }
func isRed(r, g, b uint32) bool  { return r > 200 && g < 60 && b < 60 }

func TestTitleUsesPairAndUTCTime(t *testing.T) {
	assert.Equal(t, "WAVAX-USDC pair on 2023-11-14 22:13:20", Title(sampleChart(1)))
}

func TestChartPlotLabels(t *testing.T) {
	c := NewChart(0)
	chart := sampleChart(25)

	p, err := c.plot(chart)
	require.NoError(t, err)
	assert.Equal(t, "WAVAX-USDC pair on 2023-11-14 22:13:20", p.Title.Text)
	assert.Equal(t, "Price (USDC)", p.X.Label.Text)
	assert.Equal(t, "Reserves (USDC)", p.Y.Label.Text)
	assert.Equal(t, 0.0, p.Y.Min)
	assert.Equal(t, 1000.0, p.Y.Max)

	ticks := p.X.Tick.Marker.Ticks(p.X.Min, p.X.Max)
	require.Len(t, ticks, 3)
	assert.Equal(t, 0.0, ticks[0].Value)
	assert.Equal(t, "12.3457", ticks[0].Label)
	assert.Equal(t, 10.0, ticks[1].Value)
	assert.Equal(t, "12.4457", ticks[1].Label)
	assert.Equal(t, 20.0, ticks[2].Value)
}

func TestChartFixedScale(t *testing.T) {
	p, err := NewChart(5000).plot(sampleChart(4))
	require.NoError(t, err)
	assert.Equal(t, 5000.0, p.Y.Max)
}

func TestChartRenderDrawsStackedBars(t *testing.T) {
	c := &Chart{Width: 400, Height: 300, TickGap: 10}

	var buf bytes.Buffer
	require.NoError(t, c.Render(&buf, sampleChart(20)))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 400, 300), img.Bounds())
	assert.Greater(t, countPixels(img, isBlue), 100, "Y reserve bars")
	assert.Greater(t, countPixels(img, isRed), 100, "X reserve bars and active marker")
}

func TestStackValuesClipsToScale(t *testing.T) {
	rows := []model.Row{
		{ReserveY: 5, ReserveXInY: 1},
		{ReserveY: 0.5, ReserveXInY: 1},
		{ReserveY: 0.2, ReserveXInY: 0.3},
	}
	ys, xs := stackValues(rows, 1)
	assert.Equal(t, []float64{1, 0.5, 0.2}, []float64(ys))
	assert.Equal(t, []float64{0, 0.5, 0.3}, []float64(xs))
}

func TestPriceTickerHonoursRange(t *testing.T) {
	chart := sampleChart(30)
	ticker := priceTicker{rows: chart.Table.Rows, gap: 10}
	ticks := ticker.Ticks(5, 25)
	require.Len(t, ticks, 2)
	assert.Equal(t, 10.0, ticks[0].Value)
	assert.Equal(t, 20.0, ticks[1].Value)
}

func TestChartRendersEmptyTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewChart(0).Render(&buf, model.Chart{ActiveBin: 5, SymbolX: "X", SymbolY: "Y"}))
	_, err := png.Decode(&buf)
	require.NoError(t, err)
}

func TestChartActiveBinOutsideTable(t *testing.T) {
	chart := sampleChart(4)
	chart.ActiveBin = 1
	_, err := NewChart(0).plot(chart)
	require.NoError(t, err)
}

func TestChartRejectsTinyCanvas(t *testing.T) {
	var buf bytes.Buffer
	c := &Chart{Width: 10, Height: 10}
	assert.Error(t, c.Render(&buf, model.Chart{}))
}
