// Package imagebuf holds the decoded raster that flows from ingestion into
// the detector: width x height x 3 channels, 8 bits each, row-major RGB.
package imagebuf

import (
	"errors"
	"fmt"
	"image"
	"image/color"
)

// Channels is the fixed channel count of every Buffer.
const Channels = 3

var (
	ErrEmptyImage      = errors.New("imagebuf: image has zero width or height")
	ErrChannelMismatch = errors.New("imagebuf: pixel data does not match 3-channel layout")
)

// Buffer is immutable once constructed. Accessors hand out copies.
type Buffer struct {
	width  int
	height int
	pix    []uint8
	mime   string
}

// FromImage converts any decoded image into a Buffer. Alpha is dropped.
func FromImage(img image.Image, mime string) (*Buffer, error) {
	if img == nil {
		return nil, ErrEmptyImage
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return nil, ErrEmptyImage
	}

	pix := make([]uint8, w*h*Channels)
	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			pix[i] = c.R
			pix[i+1] = c.G
			pix[i+2] = c.B
			i += Channels
		}
	}

	return &Buffer{width: w, height: h, pix: pix, mime: mime}, nil
}

// FromRGB wraps raw interleaved pixel data. The slice is copied.
func FromRGB(width, height, channels int, pix []uint8) (*Buffer, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrEmptyImage
	}
	if channels != Channels || len(pix) != width*height*Channels {
		return nil, fmt.Errorf("%w: %dx%d with %d channels and %d bytes",
			ErrChannelMismatch, width, height, channels, len(pix))
	}

	cp := make([]uint8, len(pix))
	copy(cp, pix)
	return &Buffer{width: width, height: height, pix: cp}, nil
}

func (b *Buffer) Width() int {
	return b.width
}

func (b *Buffer) Height() int {
	return b.height
}

// MIME is the sniffed source format, empty for synthesised buffers.
func (b *Buffer) MIME() string {
	return b.mime
}

func (b *Buffer) Bounds() image.Rectangle {
	return image.Rect(0, 0, b.width, b.height)
}

// Validate reports whether the buffer is usable as detector input. A nil or
// zero-value Buffer is invalid.
func (b *Buffer) Validate() error {
	if b == nil || b.width <= 0 || b.height <= 0 {
		return ErrEmptyImage
	}
	if len(b.pix) != b.width*b.height*Channels {
		return ErrChannelMismatch
	}
	return nil
}

func (b *Buffer) RGBAt(x, y int) (r, g, bl uint8) {
	i := (y*b.width + x) * Channels
	return b.pix[i], b.pix[i+1], b.pix[i+2]
}

// Pix returns a copy of the interleaved RGB bytes.
func (b *Buffer) Pix() []uint8 {
	cp := make([]uint8, len(b.pix))
	copy(cp, b.pix)
	return cp
}

// BGR returns a copy of the pixels in BGR order, the layout OpenCV expects.
func (b *Buffer) BGR() []uint8 {
	out := make([]uint8, len(b.pix))
	for i := 0; i+2 < len(b.pix); i += Channels {
		out[i] = b.pix[i+2]
		out[i+1] = b.pix[i+1]
		out[i+2] = b.pix[i]
	}
	return out
}

// Image returns a fresh opaque RGBA copy that callers may draw on.
func (b *Buffer) Image() *image.RGBA {
	img := image.NewRGBA(b.Bounds())
	j := 0
	for i := 0; i+2 < len(b.pix); i += Channels {
		img.Pix[j] = b.pix[i]
		img.Pix[j+1] = b.pix[i+1]
		img.Pix[j+2] = b.pix[i+2]
		img.Pix[j+3] = 0xff
		j += 4
	}
	return img
}
