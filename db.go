package gifstream

import (
	"database/sql"
	"errors"
	"fmt"
	"image"
	"image/color"

	_ "github.com/mattn/go-sqlite3"
)

var errCorruptFrame = errors.New("cached frame is corrupt")

// FrameCache stores converted frames in a SQLite database so that
// re-encoding the same source files skips decoding and quantizing.
type FrameCache struct {
	db *sql.DB
}

// NewFrameCache opens or creates the cache database in file.
func NewFrameCache(file string) (*FrameCache, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_busy_timeout=5000", file))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS frame (id INTEGER PRIMARY KEY NOT NULL, key TEXT NOT NULL UNIQUE, width INTEGER NOT NULL, height INTEGER NOT NULL, palette BLOB NOT NULL, pix BLOB NOT NULL)"); err != nil {
		db.Close()
		return nil, err
	}

	return &FrameCache{
		db: db,
	}, nil
}

// Close closes the database.
func (c *FrameCache) Close() error {
	return c.db.Close()
}

// Palette entries are stored as four bytes each, unpremultiplied
func marshalPalette(p color.Palette) []byte {
	b := make([]byte, 0, 4*len(p))
	for _, c := range p {
		r, g, bl, a := rgba8(c)
		b = append(b, r, g, bl, a)
	}
	return b
}

func unmarshalPalette(b []byte) (color.Palette, error) {
	if len(b)%4 != 0 {
		return nil, errCorruptFrame
	}
	p := make(color.Palette, len(b)/4)
	for i := range p {
		p[i] = color.NRGBA{b[4*i], b[4*i+1], b[4*i+2], b[4*i+3]}
	}
	return p, nil
}

// Add stores m under key, replacing any existing entry.
func (c *FrameCache) Add(key string, m *image.Paletted) error {
	w, h := m.Rect.Dx(), m.Rect.Dy()
	pix, _, _ := linearize(m)

	if _, err := c.db.Exec("INSERT OR REPLACE INTO frame (key, width, height, palette, pix) VALUES (?, ?, ?, ?, ?)", key, w, h, marshalPalette(m.Palette), pix); err != nil {
		return err
	}
	return nil
}

// Find returns the frame stored under key, or nil if there isn't one.
func (c *FrameCache) Find(key string) (*image.Paletted, error) {
	var w, h int
	var palette, pix []byte
	switch err := c.db.QueryRow("SELECT width, height, palette, pix FROM frame WHERE key = ?", key).Scan(&w, &h, &palette, &pix); err {
	case sql.ErrNoRows:
		return nil, nil
	case nil:
		if len(pix) != w*h {
			return nil, errCorruptFrame
		}
		p, err := unmarshalPalette(palette)
		if err != nil {
			return nil, err
		}
		m := image.NewPaletted(image.Rect(0, 0, w, h), p)
		copy(m.Pix, pix)
		return m, nil
	default:
		return nil, err
	}
}

// Len returns the number of cached frames.
func (c *FrameCache) Len() (int, error) {
	var n int
	if err := c.db.QueryRow("SELECT COUNT(*) FROM frame").Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Clear removes every cached frame.
func (c *FrameCache) Clear() error {
	if _, err := c.db.Exec("DELETE FROM frame"); err != nil {
		return err
	}
	return nil
}
