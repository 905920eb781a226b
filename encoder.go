package gifstream

import (
	"errors"
	"image"
	"image/color"
	"io"
	"io/ioutil"
	"log"

	"github.com/bodgit/gifstream/block"
)

var (
	// ErrClosed is returned when writing to an encoder after Close.
	ErrClosed = errors.New("encoder is closed")
	// ErrStreamBroken is returned when a previous attempt to open the
	// stream failed and the sink has already been consumed.
	ErrStreamBroken = errors.New("stream failed to open")
	// ErrNoImage is returned for a frame without pixels.
	ErrNoImage = errors.New("frame has no image")
	// ErrNilColor is returned for a palette with a nil entry.
	ErrNilColor = errors.New("palette has a nil color")
)

// EncodeError records a failed encoder operation.
type EncodeError struct {
	Op  string
	Err error
}

func (e *EncodeError) Error() string {
	return "gifstream: " + e.Op + ": " + e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *EncodeError) Unwrap() error {
	return e.Err
}

// Dispose is the disposal method applied to a frame after it is displayed.
type Dispose = block.Dispose

// Disposal methods.
const (
	DisposeNone       = block.DisposeNone
	DisposeKeep       = block.DisposeKeep
	DisposeBackground = block.DisposeBackground
	DisposePrevious   = block.DisposePrevious
)

// Repeat is the loop policy of the animation.
type Repeat struct {
	Infinite bool
	Count    uint16
}

// RepeatInfinite loops the animation forever.
var RepeatInfinite = Repeat{Infinite: true}

// RepeatFinite loops the animation n times.
func RepeatFinite(n uint16) Repeat {
	return Repeat{Count: n}
}

func (r Repeat) block() block.Repeat {
	if r.Infinite {
		return block.Repeat{Infinite: true}
	}
	return block.Repeat{Count: r.Count}
}

// Settings are the caller options passed with each frame. They are only
// consulted when the first frame opens the stream.
type Settings struct {
	Repeat Repeat
}

// Frame is a single fully composed indexed image.
type Frame struct {
	Left, Top uint16

	// Image holds the palette indices. The encoder takes ownership of the
	// pixels and may rewrite them.
	Image image.PalettedImage

	// Palette is used in preference to the color model of Image.
	Palette color.Palette

	// Canvas size, only used from the first frame
	ScreenWidth, ScreenHeight uint16

	Dispose Dispose
}

func (f *Frame) palette() color.Palette {
	if f.Palette != nil {
		return f.Palette
	}
	if p, ok := f.Image.ColorModel().(color.Palette); ok {
		return p
	}
	return nil
}

type blockEncoder interface {
	WriteRepeat(block.Repeat) error
	WriteFrame(*block.Frame) error
	Close() error
}

func openBlockEncoder(w io.Writer, width, height uint16) (blockEncoder, error) {
	e, err := block.NewEncoder(w, width, height, nil)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// Encoder appends frames to an animated GIF. The stream header is written
// when the first frame arrives. An Encoder is not safe for concurrent use.
type Encoder struct {
	// w is the sink until the stream is opened, enc is the block encoder
	// afterwards; at most one of them is ever set
	w   io.Writer
	enc blockEncoder

	open   func(io.Writer, uint16, uint16) (blockEncoder, error)
	logger *log.Logger

	frames int
	closed bool
}

// NewEncoder returns an encoder that will write to w. The encoder owns w
// from the first call to WriteFrame.
func NewEncoder(w io.Writer, logger *log.Logger) *Encoder {
	if logger == nil {
		logger = log.New(ioutil.Discard, "", 0)
	}
	return &Encoder{
		w:      w,
		open:   openBlockEncoder,
		logger: logger,
	}
}

func (e *Encoder) ensureOpen(width, height uint16, repeat Repeat) (blockEncoder, error) {
	if e.enc != nil {
		return e.enc, nil
	}
	if e.w == nil {
		return nil, &EncodeError{Op: "open", Err: ErrStreamBroken}
	}

	w := e.w
	e.w = nil

	enc, err := e.open(w, width, height)
	if err != nil {
		return nil, &EncodeError{Op: "open", Err: err}
	}

	if err := enc.WriteRepeat(repeat.block()); err != nil {
		return nil, &EncodeError{Op: "repeat", Err: err}
	}

	if repeat.Infinite {
		e.logger.Printf("Opened %dx%d stream, looping forever\n", width, height)
	} else {
		e.logger.Printf("Opened %dx%d stream, looping %d times\n", width, height, repeat.Count)
	}

	e.enc = enc
	return enc, nil
}

// WriteFrame writes f with the given delay, in hundredths of a second. The
// first call opens the stream using the canvas size of f and the repeat
// policy in settings.
func (e *Encoder) WriteFrame(f *Frame, delay uint16, settings Settings) error {
	if e.closed {
		return &EncodeError{Op: "write frame", Err: ErrClosed}
	}
	if f == nil || f.Image == nil {
		return &EncodeError{Op: "write frame", Err: ErrNoImage}
	}

	pal := f.palette()
	if len(pal) > block.MaxColors {
		return &EncodeError{Op: "write frame", Err: block.ErrPaletteTooLarge}
	}
	for _, c := range pal {
		if c == nil {
			return &EncodeError{Op: "write frame", Err: ErrNilColor}
		}
	}

	enc, err := e.ensureOpen(f.ScreenWidth, f.ScreenHeight, settings.Repeat)
	if err != nil {
		return err
	}

	buf, width, height := linearize(f.Image)

	rgb, transparent, merged := canonicalize(pal, buf)
	if merged > 0 {
		e.logger.Printf("Frame %d: merged %d transparent colors into index %d\n", e.frames, merged, *transparent)
	}

	bf := &block.Frame{
		Delay:          delay,
		Dispose:        f.Dispose,
		NeedsUserInput: false,
		Top:            f.Top,
		Left:           f.Left,
		Width:          uint16(width),
		Height:         uint16(height),
		Interlaced:     false,
		Palette:        rgb,
		Buffer:         buf,
	}
	if transparent != nil {
		bf.Transparent = *transparent
		bf.HasTransparent = true
	}

	if err := enc.WriteFrame(bf); err != nil {
		return &EncodeError{Op: "write frame", Err: err}
	}
	e.frames++

	return nil
}

// Frames returns the number of frames written so far.
func (e *Encoder) Frames() int {
	return e.frames
}

// Close finishes the stream. Nothing is written if no frame was.
func (e *Encoder) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true

	if e.enc == nil {
		return nil
	}
	if err := e.enc.Close(); err != nil {
		return &EncodeError{Op: "close", Err: err}
	}
	e.logger.Printf("Closed stream after %d frames\n", e.frames)
	return nil
}
