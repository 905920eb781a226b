package indexed

import (
	"image"
	"image/color"

	"github.com/ericpauley/go-quantize/quantize"
	"golang.org/x/image/draw"
)

// Options control the conversion.
type Options struct {
	// Colors is the maximum palette size, zero means MaxColors
	Colors int
	// Width and Height scale the image, zero keeps the source size. If
	// only one is set the aspect ratio is kept.
	Width, Height int
	// Dither enables Floyd-Steinberg error diffusion
	Dither bool
}

func (o Options) colors() int {
	switch {
	case o.Colors <= 0 || o.Colors > MaxColors:
		return MaxColors
	case o.Colors < minColors:
		return minColors
	}
	return o.Colors
}

func (o Options) size(b image.Rectangle) (int, int) {
	w, h := o.Width, o.Height
	switch {
	case b.Empty():
		// Nothing to keep the aspect ratio of
		return b.Dx(), b.Dy()
	case w <= 0 && h <= 0:
		return b.Dx(), b.Dy()
	case w <= 0:
		w = b.Dx() * h / b.Dy()
	case h <= 0:
		h = b.Dy() * w / b.Dx()
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}

func hasTransparent(m image.Image) bool {
	b := m.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if _, _, _, a := m.At(x, y).RGBA(); a == 0 {
				return true
			}
		}
	}
	return false
}

// Returns the distinct colors in m in order of first appearance, or nil if
// there are more than max
func uniqueColors(m image.Image, max int) color.Palette {
	seen := make(map[color.RGBA]struct{})
	p := make(color.Palette, 0, max)

	b := m.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.RGBAModel.Convert(m.At(x, y)).(color.RGBA)
			if _, ok := seen[c]; ok {
				continue
			}
			if len(p) == max {
				return nil
			}
			seen[c] = struct{}{}
			p = append(p, c)
		}
	}
	return p
}

func scale(m image.Image, w, h int) image.Image {
	b := m.Bounds()
	if b.Dx() == w && b.Dy() == h {
		return m
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), m, b, draw.Src, nil)
	return dst
}

// Convert returns m as a paletted image.
func Convert(m image.Image, opts Options) *image.Paletted {
	max := opts.colors()

	w, h := opts.size(m.Bounds())
	m = scale(m, w, h)
	b := m.Bounds()

	// Adjust image so that top-left corner is at (0, 0)
	r := b.Sub(b.Min)

	if pm, ok := m.(*image.Paletted); ok && len(pm.Palette) <= max {
		dup := image.NewPaletted(r, pm.Palette)
		for y := 0; y < r.Dy(); y++ {
			copy(dup.Pix[y*dup.Stride:y*dup.Stride+r.Dx()], pm.Pix[pm.PixOffset(b.Min.X, b.Min.Y+y):])
		}
		return dup
	}

	p := uniqueColors(m, max)
	if p == nil {
		q := quantize.MedianCutQuantizer{}
		if hasTransparent(m) {
			p = q.Quantize(make(color.Palette, 0, max-1), m)
			p = append(p, color.RGBA{})
		} else {
			p = q.Quantize(make(color.Palette, 0, max), m)
		}
	}

	pm := image.NewPaletted(r, p)
	if opts.Dither {
		draw.FloydSteinberg.Draw(pm, r, m, b.Min)
	} else {
		draw.Draw(pm, r, m, b.Min, draw.Src)
	}
	return pm
}
