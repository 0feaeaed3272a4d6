package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lbscope/internal/model"
)

func TestGIFStreamRoundTrip(t *testing.T) {
	pal := color.Palette{
		color.RGBA{0, 0, 0, 0xff},
		color.RGBA{0xff, 0, 0, 0xff},
		color.RGBA{0, 0, 0xff, 0xff},
	}

	var buf bytes.Buffer
	enc, err := newGIFStream(&buf, 300, 2)
	require.NoError(t, err)

	for f := 0; f < 3; f++ {
		p := image.NewPaletted(image.Rect(0, 0, 300, 2), pal)
		for i := range p.Pix {
			p.Pix[i] = uint8((i + f) % len(pal))
		}
		require.NoError(t, enc.WriteFrame(p, 7))
	}
	require.NoError(t, enc.Close())

	decoded, err := gif.DecodeAll(&buf)
	require.NoError(t, err)
	require.Len(t, decoded.Image, 3)
	assert.Equal(t, []int{7, 7, 7}, decoded.Delay)
	assert.Equal(t, 0, decoded.LoopCount)

	for f, frame := range decoded.Image {
		require.Equal(t, image.Rect(0, 0, 300, 2), frame.Bounds())
		for i := range frame.Pix {
			want := pal[(i+f)%len(pal)]
			assert.Equal(t, want, frame.Palette[frame.Pix[i]], "frame %d pixel %d", f, i)
		}
	}
}

func TestGIFStreamRejectsMismatchedFrame(t *testing.T) {
	var buf bytes.Buffer
	enc, err := newGIFStream(&buf, 4, 4)
	require.NoError(t, err)
	p := image.NewPaletted(image.Rect(0, 0, 5, 4), color.Palette{color.Black})
	assert.Error(t, enc.WriteFrame(p, 1))
}

func writeFrames(t *testing.T, dir string, stamps ...int64) {
	t.Helper()
	c := &Chart{Width: 200, Height: 150}
	for i, ts := range stamps {
		chart := model.Chart{
			Table:     model.Table{Rows: []model.Row{{BinID: 1, ReserveY: float64(i + 1)}, {BinID: 2, ReserveXInY: 2}}},
			Timestamp: ts,
			ActiveBin: 1,
		}
		f, err := os.Create(filepath.Join(dir, fmt.Sprintf("lb_wavax_usdc_%d.png", ts)))
		require.NoError(t, err)
		require.NoError(t, c.Render(f, chart))
		require.NoError(t, f.Close())
	}
}

func TestSelectFramesWindowIsExclusive(t *testing.T) {
	dir := t.TempDir()
	writeFrames(t, dir, 300, 100, 200, 400)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	frames, err := SelectFrames(dir, 100, 400)
	require.NoError(t, err)
	require.Len(t, frames, 2)
	assert.Equal(t, int64(200), frames[0].Timestamp)
	assert.Equal(t, int64(300), frames[1].Timestamp)
}

func TestAnimateBufferedAndStreamingAgree(t *testing.T) {
	dir := t.TempDir()
	writeFrames(t, dir, 10, 20, 30)
	frames, err := SelectFrames(dir, 0, 100)
	require.NoError(t, err)

	for _, stream := range []bool{false, true} {
		var buf bytes.Buffer
		require.NoError(t, Animate(context.Background(), &buf, frames, 4, stream))

		decoded, err := gif.DecodeAll(&buf)
		require.NoError(t, err, "stream=%v", stream)
		assert.Len(t, decoded.Image, 3)
		assert.Equal(t, []int{25, 25, 25}, decoded.Delay)
		assert.Equal(t, image.Rect(0, 0, 200, 150), decoded.Image[0].Bounds())
	}
}

func TestAnimateWithoutFrames(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, Animate(context.Background(), &buf, nil, 10, true))
}

func TestFrameDelay(t *testing.T) {
	assert.Equal(t, 10, FrameDelay(10))
	assert.Equal(t, 25, FrameDelay(4))
	assert.Equal(t, 10, FrameDelay(0))
	assert.Equal(t, 1, FrameDelay(500))
}
