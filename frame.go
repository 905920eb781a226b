package gifstream

import (
	"image"
	"image/color"

	"github.com/bodgit/gifstream/block"
)

// linearizer is implemented by tiled or otherwise segmented images that can
// flatten themselves, see tile.Image
type linearizer interface {
	Linearize() ([]byte, int, int)
}

// Returns the pixel indices of m as one row-major buffer. A contiguous
// *image.Paletted is returned without copying.
func linearize(m image.PalettedImage) ([]byte, int, int) {
	switch m := m.(type) {
	case *image.Paletted:
		w, h := m.Rect.Dx(), m.Rect.Dy()
		if m.Stride == w {
			return m.Pix[:w*h], w, h
		}
		// Sub-image, rows are Stride apart
		buf := make([]byte, w*h)
		for y := 0; y < h; y++ {
			copy(buf[y*w:(y+1)*w], m.Pix[y*m.Stride:y*m.Stride+w])
		}
		return buf, w, h
	case linearizer:
		return m.Linearize()
	}

	b := m.Bounds()
	buf := make([]byte, 0, b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			buf = append(buf, m.ColorIndexAt(x, y))
		}
	}
	return buf, b.Dx(), b.Dy()
}

// Returns the 8-bit channels of c without premultiplying so a transparent
// entry keeps its color
func rgba8(c color.Color) (r, g, b, a uint8) {
	switch c := c.(type) {
	case color.RGBA:
		return c.R, c.G, c.B, c.A
	case color.NRGBA:
		return c.R, c.G, c.B, c.A
	}
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return n.R, n.G, n.B, n.A
}

// canonicalize flattens p into RGB triplets and folds every fully
// transparent entry into the first one found, rewriting buf in place. It
// returns the flat palette, the transparent index if any, and how many
// further transparent entries were folded into it.
//
// The palette itself is never compacted, folded entries keep their triplet.
func canonicalize(p color.Palette, buf []byte) ([]byte, *uint8, int) {
	rgb := make([]byte, 0, 3*len(p))

	var transparent *uint8
	var remap [block.MaxColors]byte
	for i := range remap {
		remap[i] = byte(i)
	}

	merged := 0
	for i, c := range p {
		r, g, b, a := rgba8(c)
		if a == 0 {
			index := uint8(i)
			if transparent == nil {
				transparent = &index
			} else {
				remap[index] = *transparent
				merged++
			}
		}
		rgb = append(rgb, r, g, b)
	}

	if merged > 0 {
		for i, px := range buf {
			buf[i] = remap[px]
		}
	}

	return rgb, transparent, merged
}
