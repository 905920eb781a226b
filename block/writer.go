package block

import (
	"bufio"
	"compress/lzw"
	"encoding/binary"
	"errors"
	"io"
)

var (
	// ErrPaletteTooLarge is returned for a color table of more than
	// MaxColors entries.
	ErrPaletteTooLarge = errors.New("block: palette has more than 256 colors")
	// ErrPaletteSize is returned when a flat palette is not made of whole
	// RGB triplets.
	ErrPaletteSize = errors.New("block: palette length is not a multiple of 3")
	// ErrNoColorTable is returned for a frame without a local color table
	// when the stream has no global color table either.
	ErrNoColorTable = errors.New("block: frame has no color table")
	// ErrBufferSize is returned when the pixel buffer does not match the
	// frame dimensions.
	ErrBufferSize = errors.New("block: buffer size does not match frame")
	// ErrClosed is returned by any write after Close.
	ErrClosed = errors.New("block: encoder is closed")
)

// Encoder writes GIF blocks to an underlying writer. The first error
// encountered is sticky; every later call returns it without writing.
type Encoder struct {
	w   *bufio.Writer
	err error

	width, height uint16

	// Size field of the global color table, or -1 if there isn't one
	globalSize int

	buf [16]byte
	ct  [3 * MaxColors]byte
}

// Returns the smallest n such that 2^(n+1) >= colors.
func tableSize(colors int) int {
	n := 0
	for 2<<uint(n) < colors {
		n++
	}
	return n
}

// NewEncoder writes the GIF header and logical screen descriptor for a
// width by height canvas to w. global is an optional flat RGB global color
// table.
func NewEncoder(w io.Writer, width, height uint16, global []byte) (*Encoder, error) {
	e := &Encoder{
		w:          bufio.NewWriter(w),
		width:      width,
		height:     height,
		globalSize: -1,
	}

	if err := checkPalette(global); err != nil {
		return nil, err
	}

	e.writeString(signature)

	binary.LittleEndian.PutUint16(e.buf[0:2], width)
	binary.LittleEndian.PutUint16(e.buf[2:4], height)
	if len(global) > 0 {
		e.globalSize = tableSize(len(global) / 3)
		e.buf[4] = colorTableFlag | byte(e.globalSize)
	} else {
		e.buf[4] = 0x00
	}
	e.buf[5] = 0x00 // Background color index
	e.buf[6] = 0x00 // Pixel aspect ratio
	e.write(e.buf[:7])

	if e.globalSize >= 0 {
		e.writeColorTable(global, e.globalSize)
	}

	e.flush()
	if e.err != nil {
		return nil, e.err
	}

	return e, nil
}

func checkPalette(p []byte) error {
	switch {
	case len(p)%3 != 0:
		return ErrPaletteSize
	case len(p) > 3*MaxColors:
		return ErrPaletteTooLarge
	}
	return nil
}

func (e *Encoder) write(p []byte) {
	if e.err != nil {
		return
	}
	_, e.err = e.w.Write(p)
}

func (e *Encoder) writeByte(b byte) {
	if e.err != nil {
		return
	}
	e.err = e.w.WriteByte(b)
}

func (e *Encoder) writeString(s string) {
	if e.err != nil {
		return
	}
	_, e.err = e.w.WriteString(s)
}

func (e *Encoder) flush() {
	if e.err != nil {
		return
	}
	e.err = e.w.Flush()
}

// Pads the table with black up to 2^(size+1) entries
func (e *Encoder) writeColorTable(p []byte, size int) {
	n := copy(e.ct[:], p)
	end := 3 * (2 << uint(size))
	for i := n; i < end; i++ {
		e.ct[i] = 0
	}
	e.write(e.ct[:end])
}

// WriteRepeat writes the NETSCAPE2.0 application extension carrying the loop
// count. An infinite repeat is written as a loop count of zero.
func (e *Encoder) WriteRepeat(r Repeat) error {
	if e.err != nil {
		return e.err
	}

	e.buf[0] = extensionIntroducer
	e.buf[1] = applicationLabel
	e.buf[2] = byte(len(applicationID))
	e.write(e.buf[:3])
	e.writeString(applicationID)

	count := r.Count
	if r.Infinite {
		count = 0
	}
	e.buf[0] = 0x03 // Sub-block size
	e.buf[1] = 0x01 // Sub-block ID
	binary.LittleEndian.PutUint16(e.buf[2:4], count)
	e.buf[4] = 0x00 // Block terminator
	e.write(e.buf[:5])

	e.flush()
	return e.err
}

// WriteFrame writes f as an image block, preceded by a graphic control
// extension if f has a delay, disposal method, transparent index or needs
// user input.
func (e *Encoder) WriteFrame(f *Frame) error {
	if e.err != nil {
		return e.err
	}

	if err := checkPalette(f.Palette); err != nil {
		return err
	}
	if len(f.Buffer) != int(f.Width)*int(f.Height) {
		return ErrBufferSize
	}

	size := e.globalSize
	if len(f.Palette) > 0 {
		size = tableSize(len(f.Palette) / 3)
	} else if size < 0 {
		return ErrNoColorTable
	}

	if f.Delay > 0 || f.Dispose != DisposeNone || f.HasTransparent || f.NeedsUserInput {
		var flags byte
		if f.HasTransparent {
			flags |= transparentFlag
		}
		if f.NeedsUserInput {
			flags |= userInputFlag
		}
		flags |= byte(f.Dispose&0x07) << 2

		e.buf[0] = extensionIntroducer
		e.buf[1] = graphicControlLabel
		e.buf[2] = 0x04 // Block size
		e.buf[3] = flags
		binary.LittleEndian.PutUint16(e.buf[4:6], f.Delay)
		e.buf[6] = f.Transparent
		e.buf[7] = 0x00 // Block terminator
		e.write(e.buf[:8])
	}

	e.buf[0] = imageSeparator
	binary.LittleEndian.PutUint16(e.buf[1:3], f.Left)
	binary.LittleEndian.PutUint16(e.buf[3:5], f.Top)
	binary.LittleEndian.PutUint16(e.buf[5:7], f.Width)
	binary.LittleEndian.PutUint16(e.buf[7:9], f.Height)
	var flags byte
	if len(f.Palette) > 0 {
		flags |= colorTableFlag | byte(size)
	}
	if f.Interlaced {
		flags |= interlaceFlag
	}
	e.buf[9] = flags
	e.write(e.buf[:10])

	if len(f.Palette) > 0 {
		e.writeColorTable(f.Palette, size)
	}

	litWidth := size + 1
	if litWidth < 2 {
		litWidth = 2
	}
	e.writeByte(byte(litWidth)) // LZW minimum code size

	e.writeImageData(f, litWidth)

	e.flush()
	return e.err
}

func (e *Encoder) writeImageData(f *Frame, litWidth int) {
	if e.err != nil {
		return
	}

	sw := &subBlockWriter{e: e}
	lw := lzw.NewWriter(sw, lzw.LSB, litWidth)

	var err error
	if f.Interlaced {
		err = writeInterlaced(lw, f.Buffer, int(f.Width), int(f.Height))
	} else {
		_, err = lw.Write(f.Buffer)
	}
	if cerr := lw.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		if e.err == nil {
			e.err = err
		}
		return
	}

	sw.close()
}

// GIF interlacing stores every 8th row starting at 0, then every 8th row
// starting at 4, every 4th starting at 2 and finally every 2nd starting at 1
var passes = [...]struct{ start, step int }{
	{0, 8},
	{4, 8},
	{2, 4},
	{1, 2},
}

func writeInterlaced(w io.Writer, buf []byte, width, height int) error {
	for _, p := range passes {
		for y := p.start; y < height; y += p.step {
			if _, err := w.Write(buf[y*width : (y+1)*width]); err != nil {
				return err
			}
		}
	}
	return nil
}

// Close writes the trailer and flushes the stream. Further calls return
// ErrClosed.
func (e *Encoder) Close() error {
	if e.err != nil {
		return e.err
	}
	e.writeByte(trailer)
	e.flush()
	if e.err != nil {
		return e.err
	}
	e.err = ErrClosed
	return nil
}

// subBlockWriter splits the LZW output into length prefixed sub-blocks
type subBlockWriter struct {
	e   *Encoder
	n   int
	buf [1 + maxSubBlock]byte
}

func (s *subBlockWriter) Write(p []byte) (int, error) {
	written := 0
	for len(p) > 0 {
		c := copy(s.buf[1+s.n:], p)
		s.n += c
		written += c
		p = p[c:]
		if s.n == maxSubBlock {
			s.buf[0] = maxSubBlock
			s.e.write(s.buf[:])
			s.n = 0
		}
		if s.e.err != nil {
			return written, s.e.err
		}
	}
	return written, nil
}

// Writes any pending sub-block and the block terminator
func (s *subBlockWriter) close() {
	if s.n > 0 {
		s.buf[0] = byte(s.n)
		s.e.write(s.buf[:1+s.n])
		s.n = 0
	}
	s.e.writeByte(0x00)
}
