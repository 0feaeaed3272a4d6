package render

import (
	"bufio"
	"compress/lzw"
	"encoding/binary"
	"fmt"
	"image"
	"io"
)

// gifStream writes an animated GIF one frame at a time, so only the frame
// being encoded has to be held in memory.
type gifStream struct {
	w      *bufio.Writer
	width  int
	height int
	frames int
	closed bool
}

func newGIFStream(w io.Writer, width, height int) (*gifStream, error) {
	if width <= 0 || height <= 0 || width > 0xffff || height > 0xffff {
		return nil, fmt.Errorf("invalid gif size %dx%d", width, height)
	}
	g := &gifStream{w: bufio.NewWriter(w), width: width, height: height}

	g.w.WriteString("GIF89a")
	g.writeUint16(width)
	g.writeUint16(height)
	// No global color table: every frame carries its own.
	g.w.Write([]byte{0x00, 0x00, 0x00})

	// NETSCAPE2.0 application extension, loop forever.
	g.w.Write([]byte{0x21, 0xff, 0x0b})
	g.w.WriteString("NETSCAPE2.0")
	g.w.Write([]byte{0x03, 0x01, 0x00, 0x00, 0x00})

	return g, nil
}

// WriteFrame appends one frame shown for delay hundredths of a second.
func (g *gifStream) WriteFrame(p *image.Paletted, delay int) error {
	if g.closed {
		return fmt.Errorf("gif stream closed")
	}
	b := p.Bounds()
	if b.Min != (image.Point{}) || b.Dx() != g.width || b.Dy() != g.height {
		return fmt.Errorf("frame bounds %v do not match %dx%d", b, g.width, g.height)
	}
	if len(p.Palette) == 0 || len(p.Palette) > 256 {
		return fmt.Errorf("palette size %d out of range", len(p.Palette))
	}

	// Graphic control extension.
	g.w.Write([]byte{0x21, 0xf9, 0x04, 0x00})
	g.writeUint16(delay)
	g.w.Write([]byte{0x00, 0x00})

	// Image descriptor with a local color table of 2^bits entries.
	bits := 1
	for 1<<bits < len(p.Palette) {
		bits++
	}
	g.w.WriteByte(0x2c)
	g.writeUint16(0)
	g.writeUint16(0)
	g.writeUint16(g.width)
	g.writeUint16(g.height)
	g.w.WriteByte(0x80 | byte(bits-1))

	for i := 0; i < 1<<bits; i++ {
		if i < len(p.Palette) {
			r, gr, bl, _ := p.Palette[i].RGBA()
			g.w.Write([]byte{byte(r >> 8), byte(gr >> 8), byte(bl >> 8)})
		} else {
			g.w.Write([]byte{0, 0, 0})
		}
	}

	litWidth := bits
	if litWidth < 2 {
		litWidth = 2
	}
	g.w.WriteByte(byte(litWidth))

	bw := &blockWriter{w: g.w}
	lw := lzw.NewWriter(bw, lzw.LSB, litWidth)
	for y := 0; y < g.height; y++ {
		row := p.Pix[y*p.Stride : y*p.Stride+g.width]
		if _, err := lw.Write(row); err != nil {
			return fmt.Errorf("compress frame %d: %w", g.frames, err)
		}
	}
	if err := lw.Close(); err != nil {
		return fmt.Errorf("compress frame %d: %w", g.frames, err)
	}
	if err := bw.close(); err != nil {
		return fmt.Errorf("write frame %d: %w", g.frames, err)
	}

	g.frames++
	return g.w.Flush()
}

// Close writes the trailer.
func (g *gifStream) Close() error {
	if g.closed {
		return nil
	}
	g.closed = true
	g.w.WriteByte(0x3b)
	return g.w.Flush()
}

func (g *gifStream) writeUint16(v int) {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], uint16(v))
	g.w.Write(buf[:])
}

// blockWriter splits a byte stream into GIF data sub-blocks of at most 255 bytes.
type blockWriter struct {
	w   io.Writer
	buf [256]byte
	n   int
}

func (b *blockWriter) Write(p []byte) (int, error) {
	total := len(p)
	for len(p) > 0 {
		n := copy(b.buf[1+b.n:], p)
		b.n += n
		p = p[n:]
		if b.n == 255 {
			if err := b.flush(); err != nil {
				return 0, err
			}
		}
	}
	return total, nil
}

func (b *blockWriter) flush() error {
	if b.n == 0 {
		return nil
	}
	b.buf[0] = byte(b.n)
	_, err := b.w.Write(b.buf[:b.n+1])
	b.n = 0
	return err
}

func (b *blockWriter) close() error {
	if err := b.flush(); err != nil {
		return err
	}
	_, err := b.w.Write([]byte{0x00})
	return err
}
