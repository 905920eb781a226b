/*
Package block implements the block level GIF89a encoder used to emit an
animated GIF one frame at a time.

A stream is the six byte GIF89a signature followed by the logical screen
descriptor and an optional global color table. Any number of extension and
image blocks follow, each image being an optional graphic control extension,
an image descriptor, an optional local color table and the LZW compressed
pixel indices split into sub-blocks of at most 255 bytes. The stream ends
with a single trailer byte.

The encoder does not choose palettes or transparency, it writes exactly what
it is given in each Frame.
*/
package block

const (
	signature = "GIF89a"

	extensionIntroducer = 0x21
	imageSeparator      = 0x2c
	trailer             = 0x3b

	graphicControlLabel = 0xf9
	applicationLabel    = 0xff

	applicationID = "NETSCAPE2.0"

	colorTableFlag = 1 << 7
	interlaceFlag  = 1 << 6

	transparentFlag = 1 << 0
	userInputFlag   = 1 << 1

	maxSubBlock = 255

	// MaxColors is the largest color table the format can describe.
	MaxColors = 256
)

// Dispose is the disposal method of a frame, telling the renderer what to do
// with the frame's area before drawing the next one.
type Dispose byte

// Disposal methods.
const (
	DisposeNone Dispose = iota
	DisposeKeep
	DisposeBackground
	DisposePrevious
)

func (d Dispose) String() string {
	switch d {
	case DisposeNone:
		return "none"
	case DisposeKeep:
		return "keep"
	case DisposeBackground:
		return "background"
	case DisposePrevious:
		return "previous"
	}
	return "unknown"
}

// Repeat is the loop directive written once after the header.
type Repeat struct {
	Infinite bool
	Count    uint16
}

// Frame is a fully prepared image block.
type Frame struct {
	// Delay in hundredths of a second
	Delay   uint16
	Dispose Dispose

	Transparent    uint8
	HasTransparent bool

	NeedsUserInput bool

	Top, Left     uint16
	Width, Height uint16

	Interlaced bool

	// Palette is a flat sequence of RGB triplets. When empty the global
	// color table is used.
	Palette []byte

	// Buffer holds Width*Height color indices, row-major
	Buffer []byte
}
