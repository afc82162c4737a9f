package detector

import (
	"FocusDetect/internal/entity"
	"FocusDetect/pkg/imagebuf"
	"fmt"
	"image"
	"image/color"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/goregular"
)

var overlayFont *truetype.Font

func init() {
	var err error
	overlayFont, err = truetype.Parse(goregular.TTF)
	if err != nil {
		panic(err)
	}
}

var (
	colorFocus   = color.RGBA{R: 0x16, G: 0xA3, B: 0x4A, A: 0xff}
	colorUnfocus = color.RGBA{R: 0xEF, G: 0x44, B: 0x44, A: 0xff}
	palette      = []color.RGBA{
		{R: 0x25, G: 0x63, B: 0xEB, A: 0xff},
		{R: 0xF5, G: 0x9E, B: 0x0B, A: 0xff},
		{R: 0x8B, G: 0x5C, B: 0xF6, A: 0xff},
		{R: 0x06, G: 0xB6, B: 0xD4, A: 0xff},
	}
)

// Overlay draws boxes and "label 0.87" tags the way the model's own plotting
// helper does. Used by the remote backends, which only return coordinates.
type Overlay struct {
	LineWidth float64
	FontSize  float64
}

func NewOverlay() *Overlay {
	return &Overlay{LineWidth: 3, FontSize: 16}
}

func (o *Overlay) Draw(buf *imagebuf.Buffer, detections []entity.Detection) (image.Image, error) {
	if err := ValidateInput(buf); err != nil {
		return nil, err
	}

	dc := gg.NewContextForRGBA(buf.Image())
	dc.SetFontFace(truetype.NewFace(overlayFont, &truetype.Options{Size: o.scaledFont(buf)}))

	for _, d := range detections {
		c := boxColor(d)
		x, y := float64(d.Box.X), float64(d.Box.Y)

		dc.SetColor(c)
		dc.SetLineWidth(o.LineWidth)
		dc.DrawRectangle(x, y, float64(d.Box.Width), float64(d.Box.Height))
		dc.Stroke()

		tag := fmt.Sprintf("%s %.2f", d.Label, d.Confidence)
		tw, th := dc.MeasureString(tag)
		pad := 4.0
		ty := y - th - 2*pad
		if ty < 0 {
			ty = y
		}
		dc.DrawRectangle(x, ty, tw+2*pad, th+2*pad)
		dc.Fill()

		dc.SetColor(color.White)
		dc.DrawString(tag, x+pad, ty+th+pad)
	}

	return dc.Image(), nil
}

func (o *Overlay) scaledFont(buf *imagebuf.Buffer) float64 {
	size := o.FontSize * float64(buf.Width()) / 640
	if size < 10 {
		return 10
	}
	return size
}

func boxColor(d entity.Detection) color.RGBA {
	switch d.Label {
	case entity.LabelFocus:
		return colorFocus
	case entity.LabelUnfocus:
		return colorUnfocus
	}
	if d.ClassID < 0 {
		return palette[0]
	}
	return palette[d.ClassID%len(palette)]
}
