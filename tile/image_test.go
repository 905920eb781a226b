package tile

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testPalette = color.Palette{
	color.RGBA{0x00, 0x00, 0x00, 0xff},
	color.RGBA{0xff, 0x00, 0x00, 0xff},
	color.RGBA{0x00, 0xff, 0x00, 0xff},
	color.RGBA{0x00, 0x00, 0xff, 0x00},
}

func TestNew(t *testing.T) {
	_, err := New(image.Rect(0, 0, 4, 4), 0, 8, testPalette)
	assert.Equal(t, errBadTileSize, err)

	m, err := New(image.Rect(0, 0, 10, 5), 4, 2, testPalette)
	require.Nil(t, err)

	tx, ty := m.Tiles()
	assert.Equal(t, 3, tx)
	assert.Equal(t, 3, ty)
	assert.Len(t, m.Tile(2, 2), 8)
	assert.Nil(t, m.Tile(3, 0))
}

func TestFromPaletted(t *testing.T) {
	tables := []struct {
		rect                  image.Rectangle
		tileWidth, tileHeight int
	}{
		{image.Rect(0, 0, 16, 16), 0, 0},
		{image.Rect(0, 0, 13, 7), 4, 4},
		{image.Rect(3, 2, 12, 9), 5, 3},
		{image.Rect(0, 0, 1, 1), 8, 8},
	}

	for _, table := range tables {
		p := image.NewPaletted(table.rect, testPalette)
		for i := range p.Pix {
			p.Pix[i] = byte(i % len(testPalette))
		}

		m, err := FromPaletted(p, table.tileWidth, table.tileHeight)
		require.Nil(t, err)
		assert.Equal(t, table.rect, m.Bounds())

		for y := table.rect.Min.Y; y < table.rect.Max.Y; y++ {
			for x := table.rect.Min.X; x < table.rect.Max.X; x++ {
				assert.Equal(t, p.ColorIndexAt(x, y), m.ColorIndexAt(x, y))
				assert.Equal(t, p.At(x, y), m.At(x, y))
			}
		}

		buf, w, h := m.Linearize()
		assert.Equal(t, table.rect.Dx(), w)
		assert.Equal(t, table.rect.Dy(), h)
		assert.Equal(t, p.Pix, buf)
	}
}

func TestDefaultTileSize(t *testing.T) {
	m, err := FromPaletted(image.NewPaletted(image.Rect(0, 0, 8, 8), testPalette), 0, 0)
	require.Nil(t, err)

	w, h := m.TileSize()
	assert.Equal(t, DefaultWidth, w)
	assert.Equal(t, DefaultHeight, h)
}

func TestOutOfBounds(t *testing.T) {
	m, err := New(image.Rect(0, 0, 2, 2), 2, 2, testPalette)
	require.Nil(t, err)

	m.SetColorIndex(5, 5, 3)
	assert.Equal(t, uint8(0), m.ColorIndexAt(5, 5))
	assert.Equal(t, testPalette[0], m.At(-1, 0))

	m.SetColorIndex(1, 1, 3)
	assert.Equal(t, uint8(3), m.ColorIndexAt(1, 1))
	assert.Equal(t, []byte{0, 0, 0, 3}, m.Tile(0, 0))
}

func TestLinearizeTiles(t *testing.T) {
	m, err := New(image.Rect(0, 0, 6, 3), 4, 2, testPalette)
	require.Nil(t, err)

	// Tiles are shared with the image
	copy(m.Tile(1, 0), []byte{1, 2, 0, 0, 3, 1, 0, 0})
	m.Tile(0, 1)[3] = 2

	buf, w, h := m.Linearize()
	assert.Equal(t, 6, w)
	assert.Equal(t, 3, h)
	assert.Equal(t, []byte{
		0, 0, 0, 0, 1, 2,
		0, 0, 0, 0, 3, 1,
		0, 0, 0, 2, 0, 0,
	}, buf)
}
