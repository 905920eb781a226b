/*
Package indexed converts decoded images into paletted frames ready to be
handed to the GIF encoder.

An image that is already paletted with few enough colors is used as is. An
image with few enough distinct colors gets an exact palette. Anything else is
reduced with a median cut quantizer, reserving one fully transparent entry
when the source has transparent pixels. The returned image always has its
top-left corner at (0, 0).
*/
package indexed

const (
	// MaxColors is the largest palette a GIF frame can use
	MaxColors = 256
	minColors = 2
)
