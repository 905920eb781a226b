package indexed

import (
	"image"
	"image/color"
	"image/color/palette"
	"testing"

	"github.com/stretchr/testify/assert"
)

func gradient(w, h int) *image.RGBA {
	m := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			m.SetRGBA(x, y, color.RGBA{uint8(x * 255 / w), uint8(y * 255 / h), uint8((x + y) & 0xff), 0xff})
		}
	}
	return m
}

func TestOptions(t *testing.T) {
	tables := []struct {
		opts   Options
		colors int
	}{
		{Options{}, 256},
		{Options{Colors: 1}, 2},
		{Options{Colors: 16}, 16},
		{Options{Colors: 1000}, 256},
	}
	for _, table := range tables {
		assert.Equal(t, table.colors, table.opts.colors())
	}

	b := image.Rect(0, 0, 200, 100)
	w, h := Options{}.size(b)
	assert.Equal(t, [2]int{200, 100}, [2]int{w, h})
	w, h = Options{Width: 50}.size(b)
	assert.Equal(t, [2]int{50, 25}, [2]int{w, h})
	w, h = Options{Height: 10}.size(b)
	assert.Equal(t, [2]int{20, 10}, [2]int{w, h})
	w, h = Options{Width: 7, Height: 9}.size(b)
	assert.Equal(t, [2]int{7, 9}, [2]int{w, h})
	w, h = Options{Width: 1}.size(b)
	assert.Equal(t, [2]int{1, 1}, [2]int{w, h})

	for _, empty := range []image.Rectangle{image.Rect(0, 0, 0, 100), image.Rect(0, 0, 100, 0)} {
		w, h = Options{Width: 50}.size(empty)
		assert.Equal(t, [2]int{empty.Dx(), empty.Dy()}, [2]int{w, h})
		w, h = Options{Height: 50}.size(empty)
		assert.Equal(t, [2]int{empty.Dx(), empty.Dy()}, [2]int{w, h})
	}
}

func TestConvertEmpty(t *testing.T) {
	pm := Convert(image.NewRGBA(image.Rect(0, 0, 0, 4)), Options{Width: 8})
	assert.True(t, pm.Rect.Empty())
}

func TestConvertPaletted(t *testing.T) {
	src := image.NewPaletted(image.Rect(0, 0, 8, 8), palette.Plan9[:16])
	for i := range src.Pix {
		src.Pix[i] = byte(i % 16)
	}
	sub := src.SubImage(image.Rect(2, 3, 6, 7)).(*image.Paletted)

	pm := Convert(sub, Options{Colors: 16})
	assert.Equal(t, image.Rect(0, 0, 4, 4), pm.Rect)
	assert.Equal(t, src.Palette, pm.Palette)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			assert.Equal(t, src.ColorIndexAt(x+2, y+3), pm.ColorIndexAt(x, y))
		}
	}
}

func TestConvertExact(t *testing.T) {
	m := image.NewNRGBA(image.Rect(5, 5, 9, 7))
	colors := []color.NRGBA{
		{0xff, 0x00, 0x00, 0xff},
		{0x00, 0xff, 0x00, 0xff},
		{0x00, 0x00, 0x00, 0x00},
	}
	for y := 5; y < 7; y++ {
		for x := 5; x < 9; x++ {
			m.SetNRGBA(x, y, colors[(x+y)%3])
		}
	}

	pm := Convert(m, Options{})
	assert.Equal(t, image.Rect(0, 0, 4, 2), pm.Rect)
	assert.Len(t, pm.Palette, 3)
	for y := 0; y < 2; y++ {
		for x := 0; x < 4; x++ {
			_, _, _, a1 := m.At(x+5, y+5).RGBA()
			_, _, _, a2 := pm.At(x, y).RGBA()
			assert.Equal(t, a1, a2)
			assert.Equal(t, color.RGBAModel.Convert(m.At(x+5, y+5)), pm.At(x, y))
		}
	}
}

func TestConvertQuantize(t *testing.T) {
	pm := Convert(gradient(64, 64), Options{Colors: 16})
	assert.Equal(t, image.Rect(0, 0, 64, 64), pm.Rect)
	assert.True(t, len(pm.Palette) <= 16)
	assert.NotEmpty(t, pm.Palette)

	dithered := Convert(gradient(64, 64), Options{Colors: 16, Dither: true})
	assert.True(t, len(dithered.Palette) <= 16)
}

func TestConvertTransparent(t *testing.T) {
	m := gradient(32, 32)
	for x := 0; x < 32; x++ {
		m.SetRGBA(x, 0, color.RGBA{})
	}

	pm := Convert(m, Options{Colors: 8})
	assert.True(t, len(pm.Palette) <= 8)
	assert.Equal(t, color.RGBA{}, pm.Palette[len(pm.Palette)-1])

	_, _, _, a := pm.At(0, 0).RGBA()
	assert.Equal(t, uint32(0), a)
}

func TestConvertScale(t *testing.T) {
	pm := Convert(gradient(40, 20), Options{Width: 10})
	assert.Equal(t, image.Rect(0, 0, 10, 5), pm.Rect)
}
