/*
Package tile implements an indexed image stored as a grid of fixed size
tiles.

Each tile holds tileWidth by tileHeight color indices, row-major, and tiles
are themselves stored row-major across the image. Tiles on the right and
bottom edges are allocated at full size even when only partially covered by
the image. Linearize flattens the grid back into a single contiguous buffer.
*/
package tile

import "errors"

const (
	// DefaultWidth is the tile width used by FromPaletted when none is given
	DefaultWidth = 8
	// DefaultHeight is the tile height used by FromPaletted when none is given
	DefaultHeight = DefaultWidth
)

var errBadTileSize = errors.New("tile: invalid tile size")
