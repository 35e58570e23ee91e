package skin

import (
	"bytes"
	"image"
	"image/color"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/phinze/calcpad/internal/keypad"
)

var (
	colorBackground = color.RGBA{25, 25, 25, 255}
	colorKeyBg      = color.RGBA{40, 40, 40, 255}
	colorSecondBg   = color.RGBA{40, 90, 160, 255}
	colorAlphaBg    = color.RGBA{60, 130, 70, 255}
	colorLCD        = color.RGBA{156, 170, 140, 255}
	colorWhite      = color.RGBA{255, 255, 255, 255}
	colorHighlight  = color.RGBA{255, 255, 255, 90}
)

// Render draws the keypad with every pressed entry highlighted. The returned
// image has the skin's canvas size.
func (s *Skin) Render(pressed []keypad.KeyPress) *image.RGBA {
	w, h := s.Size()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{colorBackground}, image.Point{}, draw.Src)

	if s.FullScreen() {
		draw.Draw(img, img.Bounds(), &image.Uniform{colorLCD}, image.Point{}, draw.Src)
		return img
	}

	if s.background != nil {
		draw.Draw(img, img.Bounds(), s.background, image.Point{}, draw.Over)
	} else {
		for _, b := range s.layout.Buttons {
			draw.Draw(img, rect(b.Rect), &image.Uniform{s.faceColor(b.Code)}, image.Point{}, draw.Src)
		}
	}

	if !s.layout.Screen.empty() {
		draw.Draw(img, rect(s.layout.Screen), &image.Uniform{colorLCD}, image.Point{}, draw.Src)
	}

	face := basicfont.Face7x13
	for _, b := range s.layout.Buttons {
		drawCentered(img, b.Label, rect(b.Rect), face, colorWhite)
	}

	for _, p := range pressed {
		i, ok := s.index[p.KeyCode]
		if !ok {
			continue
		}
		draw.Draw(img, rect(s.layout.Buttons[i].Rect), &image.Uniform{colorHighlight}, image.Point{}, draw.Over)
	}
	return img
}

func (s *Skin) faceColor(code keypad.KeyCode) color.Color {
	switch code {
	case s.second:
		return colorSecondBg
	case s.alpha:
		return colorAlphaBg
	default:
		return colorKeyBg
	}
}

func rect(r Rect) image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.W, r.Y+r.H)
}

// renderSVG rasterizes an SVG document onto a w x h transparent image.
func renderSVG(data []byte, w, h int) (*image.RGBA, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	icon.SetTarget(0, 0, float64(w), float64(h))

	scanner := rasterx.NewScannerGV(w, h, img, img.Bounds())
	raster := rasterx.NewDasher(w, h, scanner)
	icon.Draw(raster, 1.0)

	return img, nil
}

// drawCentered draws text centered inside r.
func drawCentered(img *image.RGBA, text string, r image.Rectangle, face font.Face, col color.Color) {
	width := font.MeasureString(face, text).Ceil()
	metrics := face.Metrics()
	ascent := metrics.Ascent.Ceil()
	textH := ascent + metrics.Descent.Ceil()

	x := r.Min.X + (r.Dx()-width)/2
	y := r.Min.Y + (r.Dy()-textH)/2 + ascent

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}
