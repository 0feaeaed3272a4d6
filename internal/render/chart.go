package render

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"strconv"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"lbscope/internal/model"
)

var (
	colorY      = color.RGBA{0x00, 0x00, 0xff, 0xff}
	colorX      = color.RGBA{0xff, 0x00, 0x00, 0xff}
	colorActive = color.RGBA{0xff, 0x00, 0x00, 0xff}
)

// dpi maps canvas pixels to plot lengths.
const dpi = 96

// Chart draws a stacked bar chart per bin: Y reserves at the bottom and X
// reserves valued in Y on top, with a dashed marker at the active bin.
type Chart struct {
	Width  int
	Height int
	// YMax fixes the value axis so frames of an animation share a scale.
	// Zero scales to the tallest bar.
	YMax float64
	// TickGap is the number of bins between x axis ticks.
	TickGap int
}

// NewChart returns a chart with the default 1850x1050 canvas.
func NewChart(yMax float64) *Chart {
	return &Chart{Width: 1850, Height: 1050, YMax: yMax, TickGap: 10}
}

// Render encodes the chart as PNG to w.
func (c *Chart) Render(w io.Writer, chart model.Chart) error {
	if c.Width < 120 || c.Height < 90 {
		return fmt.Errorf("canvas %dx%d too small", c.Width, c.Height)
	}
	p, err := c.plot(chart)
	if err != nil {
		return err
	}

	img := image.NewRGBA(image.Rect(0, 0, c.Width, c.Height))
	canvas := vgimg.NewWith(vgimg.UseImage(img), vgimg.UseDPI(dpi))
	p.Draw(draw.New(canvas))

	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// Title labels a snapshot by pair and UTC time.
func Title(chart model.Chart) string {
	ts := time.Unix(chart.Timestamp, 0).UTC()
	return fmt.Sprintf("%s-%s pair on %s", chart.SymbolX, chart.SymbolY, ts.Format("2006-01-02 15:04:05"))
}

func (c *Chart) plot(chart model.Chart) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = Title(chart)
	p.X.Label.Text = fmt.Sprintf("Price (%s)", chart.SymbolY)
	p.Y.Label.Text = fmt.Sprintf("Reserves (%s)", chart.SymbolY)
	p.Legend.Top = true

	rows := chart.Table.Rows
	yMax := c.YMax
	if yMax <= 0 {
		for _, row := range rows {
			if total := row.ReserveY + row.ReserveXInY; total > yMax {
				yMax = total
			}
		}
	}
	if yMax <= 0 {
		yMax = 1
	}

	p.X.Min, p.X.Max = -1, math.Max(float64(len(rows)), 1)
	p.Y.Min, p.Y.Max = 0, yMax
	if len(rows) == 0 {
		return p, nil
	}

	ys, xs := stackValues(rows, yMax)
	width := vg.Length(c.Width) * vg.Inch / dpi * 0.85 / vg.Length(len(rows)+2)
	if width <= 0 {
		width = vg.Points(0.5)
	}

	barsY, err := plotter.NewBarChart(ys, width)
	if err != nil {
		return nil, fmt.Errorf("y bars: %w", err)
	}
	barsY.Color = colorY
	barsY.LineStyle.Width = 0

	barsX, err := plotter.NewBarChart(xs, width)
	if err != nil {
		return nil, fmt.Errorf("x bars: %w", err)
	}
	barsX.Color = colorX
	barsX.LineStyle.Width = 0
	barsX.StackOn(barsY)

	p.Add(barsY, barsX)
	p.Legend.Add(chart.SymbolY, barsY)
	p.Legend.Add(chart.SymbolX, barsX)

	gap := c.TickGap
	if gap < 1 {
		gap = 10
	}
	p.X.Tick.Marker = priceTicker{rows: rows, gap: gap}
	p.X.Tick.Label.Rotation = math.Pi / 2
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter

	if idx, ok := binIndex(rows, chart.ActiveBin); ok {
		marker, err := plotter.NewLine(plotter.XYs{{X: float64(idx), Y: 0}, {X: float64(idx), Y: yMax}})
		if err != nil {
			return nil, fmt.Errorf("active marker: %w", err)
		}
		marker.Color = colorActive
		marker.Width = vg.Points(1.5)
		marker.Dashes = []vg.Length{vg.Points(6), vg.Points(4)}
		p.Add(marker)
		p.Legend.Add("Current Price", marker)
	}
	return p, nil
}

// stackValues splits each bar into its Y part and the X-in-Y part on top,
// both clipped so the stack never exceeds yMax.
func stackValues(rows []model.Row, yMax float64) (plotter.Values, plotter.Values) {
	ys := make(plotter.Values, len(rows))
	xs := make(plotter.Values, len(rows))
	for i, row := range rows {
		y := math.Min(math.Max(row.ReserveY, 0), yMax)
		total := math.Min(math.Max(row.ReserveY+row.ReserveXInY, y), yMax)
		ys[i] = y
		xs[i] = total - y
	}
	return ys, xs
}

func binIndex(rows []model.Row, id model.BinID) (int, bool) {
	for i, row := range rows {
		if row.BinID == id {
			return i, true
		}
	}
	return 0, false
}

// priceTicker labels every gap-th bar with its price rounded to 4 places.
type priceTicker struct {
	rows []model.Row
	gap  int
}

func (t priceTicker) Ticks(min, max float64) []plot.Tick {
	var ticks []plot.Tick
	for i := 0; i < len(t.rows); i++ {
		x := float64(i)
		if x < min || x > max {
			continue
		}
		if i%t.gap == 0 {
			ticks = append(ticks, plot.Tick{Value: x, Label: strconv.FormatFloat(roundTo(t.rows[i].BinPrice, 4), 'f', -1, 64)})
		}
	}
	return ticks
}

func roundTo(v float64, places int) float64 {
	scale := math.Pow10(places)
	return math.Round(v*scale) / scale
}
