package tile

import (
	"image"
	"image/color"
)

// Image is a tiled indexed image. It implements image.PalettedImage.
type Image struct {
	Rect    image.Rectangle
	Palette color.Palette

	tileWidth, tileHeight int
	tilesX, tilesY        int
	tiles                 [][]byte
}

func divCeil(a, b int) int {
	return (a + b - 1) / b
}

// New returns a new tiled image with the given bounds, tile size and palette.
// All pixels are initially index 0.
func New(r image.Rectangle, tileWidth, tileHeight int, p color.Palette) (*Image, error) {
	if tileWidth <= 0 || tileHeight <= 0 {
		return nil, errBadTileSize
	}
	r = r.Canon()

	m := &Image{
		Rect:       r,
		Palette:    p,
		tileWidth:  tileWidth,
		tileHeight: tileHeight,
		tilesX:     divCeil(r.Dx(), tileWidth),
		tilesY:     divCeil(r.Dy(), tileHeight),
	}
	m.tiles = make([][]byte, m.tilesX*m.tilesY)
	for i := range m.tiles {
		m.tiles[i] = make([]byte, tileWidth*tileHeight)
	}
	return m, nil
}

// FromPaletted splits m into tiles. A zero tile size selects the default.
func FromPaletted(m *image.Paletted, tileWidth, tileHeight int) (*Image, error) {
	if tileWidth == 0 {
		tileWidth = DefaultWidth
	}
	if tileHeight == 0 {
		tileHeight = DefaultHeight
	}

	t, err := New(m.Rect, tileWidth, tileHeight, m.Palette)
	if err != nil {
		return nil, err
	}

	for y := m.Rect.Min.Y; y < m.Rect.Max.Y; y++ {
		for x := m.Rect.Min.X; x < m.Rect.Max.X; x++ {
			t.SetColorIndex(x, y, m.ColorIndexAt(x, y))
		}
	}
	return t, nil
}

// TileSize returns the width and height of each tile.
func (m *Image) TileSize() (int, int) {
	return m.tileWidth, m.tileHeight
}

// Tiles returns the number of tiles across and down.
func (m *Image) Tiles() (int, int) {
	return m.tilesX, m.tilesY
}

// Tile returns the indices of the tile at tx, ty. The slice is shared with
// the image.
func (m *Image) Tile(tx, ty int) []byte {
	if tx < 0 || tx >= m.tilesX || ty < 0 || ty >= m.tilesY {
		return nil
	}
	return m.tiles[ty*m.tilesX+tx]
}

func (m *Image) offset(x, y int) (int, int) {
	px, py := x-m.Rect.Min.X, y-m.Rect.Min.Y
	tile := (py/m.tileHeight)*m.tilesX + px/m.tileWidth
	return tile, (py%m.tileHeight)*m.tileWidth + px%m.tileWidth
}

// ColorModel returns the image palette.
func (m *Image) ColorModel() color.Model {
	return m.Palette
}

// Bounds returns the image bounds.
func (m *Image) Bounds() image.Rectangle {
	return m.Rect
}

// At returns the palette color of the pixel at x, y.
func (m *Image) At(x, y int) color.Color {
	if len(m.Palette) == 0 {
		return nil
	}
	if !(image.Point{x, y}.In(m.Rect)) {
		return m.Palette[0]
	}
	t, i := m.offset(x, y)
	return m.Palette[m.tiles[t][i]]
}

// ColorIndexAt returns the palette index of the pixel at x, y.
func (m *Image) ColorIndexAt(x, y int) uint8 {
	if !(image.Point{x, y}.In(m.Rect)) {
		return 0
	}
	t, i := m.offset(x, y)
	return m.tiles[t][i]
}

// SetColorIndex sets the palette index of the pixel at x, y.
func (m *Image) SetColorIndex(x, y int, index uint8) {
	if !(image.Point{x, y}.In(m.Rect)) {
		return
	}
	t, i := m.offset(x, y)
	m.tiles[t][i] = index
}

// Linearize returns the pixels as a new row-major buffer along with the
// image width and height.
func (m *Image) Linearize() ([]byte, int, int) {
	w, h := m.Rect.Dx(), m.Rect.Dy()
	buf := make([]byte, w*h)

	tw, th := m.TileSize()
	tilesX, tilesY := m.Tiles()
	for ty := 0; ty < tilesY; ty++ {
		for tx := 0; tx < tilesX; tx++ {
			tile := m.Tile(tx, ty)

			// Clip the edge tiles
			cw := tw
			if rem := w - tx*tw; rem < cw {
				cw = rem
			}
			ch := th
			if rem := h - ty*th; rem < ch {
				ch = rem
			}

			for y := 0; y < ch; y++ {
				dst := (ty*th+y)*w + tx*tw
				copy(buf[dst:dst+cw], tile[y*tw:y*tw+cw])
			}
		}
	}

	return buf, w, h
}
