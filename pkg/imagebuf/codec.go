package imagebuf

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"

	"github.com/gabriel-vasile/mimetype"
)

const (
	MIMEJPEG = "image/jpeg"
	MIMEPNG  = "image/png"

	// MaxPixels caps width*height of a decoded image, about a 24 MP photo.
	MaxPixels = 6000 * 4000
)

var (
	ErrUnsupportedFormat = errors.New("imagebuf: unsupported image format")
	ErrDecode            = errors.New("imagebuf: cannot decode image")
	ErrTooManyPixels     = errors.New("imagebuf: image dimensions exceed limit")
)

var acceptedMIME = []string{MIMEJPEG, MIMEPNG}

// Sniff inspects the leading bytes and returns the accepted MIME type.
func Sniff(data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyImage
	}

	detected := mimetype.Detect(data)
	for _, m := range acceptedMIME {
		if detected.Is(m) {
			return m, nil
		}
	}

	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, detected.String())
}

// Decode sniffs and decodes jpeg/png bytes into a Buffer. The header is read
// first so oversized images are rejected before any pixel is allocated.
func Decode(data []byte) (*Buffer, error) {
	mime, err := Sniff(data)
	if err != nil {
		return nil, err
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if err := CheckDimensions(cfg.Width, cfg.Height); err != nil {
		return nil, err
	}

	var img image.Image
	switch mime {
	case MIMEJPEG:
		img, err = jpeg.Decode(bytes.NewReader(data))
	case MIMEPNG:
		img, err = png.Decode(bytes.NewReader(data))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	return FromImage(img, mime)
}

func CheckDimensions(width, height int) error {
	if width <= 0 || height <= 0 {
		return ErrEmptyImage
	}
	if int64(width)*int64(height) > MaxPixels {
		return fmt.Errorf("%w: %dx%d", ErrTooManyPixels, width, height)
	}
	return nil
}

func DecodeReader(r io.Reader) (*Buffer, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return Decode(data)
}

// EncodeImage writes img as jpeg or png. Anything but png falls back to jpeg.
func EncodeImage(img image.Image, mime string) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	switch mime {
	case MIMEPNG:
		err = png.Encode(&buf, img)
	default:
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90})
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (b *Buffer) Encode(mime string) ([]byte, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return EncodeImage(b.Image(), mime)
}
