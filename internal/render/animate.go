package render

import (
	"context"
	"fmt"
	"image"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
)

var framePattern = regexp.MustCompile(`^lb_.+_(\d+)\.png$`)

// Frame is a snapshot image on disk.
type Frame struct {
	Path      string
	Timestamp int64
}

// SelectFrames lists snapshot images in dir with begin < timestamp < end,
// oldest first.
func SelectFrames(dir string, begin, end int64) ([]Frame, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read images dir: %w", err)
	}

	var frames []Frame
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		m := framePattern.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		ts, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			continue
		}
		if ts > begin && ts < end {
			frames = append(frames, Frame{Path: filepath.Join(dir, entry.Name()), Timestamp: ts})
		}
	}

	sort.Slice(frames, func(i, j int) bool {
		if frames[i].Timestamp != frames[j].Timestamp {
			return frames[i].Timestamp < frames[j].Timestamp
		}
		return frames[i].Path < frames[j].Path
	})
	return frames, nil
}

// FrameDelay converts frames per second to a GIF delay in hundredths of a second.
func FrameDelay(fps int) int {
	if fps <= 0 {
		fps = 10
	}
	delay := (100 + fps/2) / fps
	if delay < 1 {
		delay = 1
	}
	return delay
}

// Animate encodes frames as a looping GIF. In streaming mode frames are
// decoded and written one at a time; otherwise all frames are buffered and
// encoded together.
func Animate(ctx context.Context, w io.Writer, frames []Frame, fps int, stream bool) error {
	if len(frames) == 0 {
		return fmt.Errorf("no frames to animate")
	}
	delay := FrameDelay(fps)

	first, err := loadFrame(frames[0].Path)
	if err != nil {
		return err
	}
	bounds := image.Rect(0, 0, first.Bounds().Dx(), first.Bounds().Dy())

	if stream {
		enc, err := newGIFStream(w, bounds.Dx(), bounds.Dy())
		if err != nil {
			return err
		}
		if err := enc.WriteFrame(toPaletted(first, bounds), delay); err != nil {
			return err
		}
		for _, frame := range frames[1:] {
			if err := ctx.Err(); err != nil {
				return err
			}
			img, err := loadFrame(frame.Path)
			if err != nil {
				return err
			}
			if err := enc.WriteFrame(toPaletted(img, bounds), delay); err != nil {
				return err
			}
		}
		return enc.Close()
	}

	anim := &gif.GIF{
		Image: []*image.Paletted{toPaletted(first, bounds)},
		Delay: []int{delay},
	}
	for _, frame := range frames[1:] {
		if err := ctx.Err(); err != nil {
			return err
		}
		img, err := loadFrame(frame.Path)
		if err != nil {
			return err
		}
		anim.Image = append(anim.Image, toPaletted(img, bounds))
		anim.Delay = append(anim.Delay, delay)
	}
	if err := gif.EncodeAll(w, anim); err != nil {
		return fmt.Errorf("encode gif: %w", err)
	}
	return nil
}

func loadFrame(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open frame: %w", err)
	}
	defer file.Close()
	img, err := png.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("decode frame %s: %w", path, err)
	}
	return img, nil
}

// toPaletted maps img onto a Plan 9 palette canvas of the given bounds,
// cropping or padding frames whose size differs from the first.
func toPaletted(img image.Image, bounds image.Rectangle) *image.Paletted {
	p := image.NewPaletted(bounds, palette.Plan9)
	draw.Draw(p, bounds, img, img.Bounds().Min, draw.Src)
	return p
}
