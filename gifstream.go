/*
Package gifstream is a library for writing animated GIFs one frame at a time.

The Encoder is the core: it opens the stream when the first frame arrives,
folds every fully transparent palette entry of a frame into a single
transparent index and hands the frame to the block encoder. The Builder
drives an Encoder from a list of image files, decoding and quantizing them
concurrently while still writing frames in order.
*/
package gifstream

import (
	"io/ioutil"
	"log"
)

// Builder assembles animations from image files.
type Builder struct {
	cache  *FrameCache
	logger *log.Logger
}

// New returns a Builder. cache may be nil to disable caching of converted
// frames.
func New(cache *FrameCache, logger *log.Logger) *Builder {
	if logger == nil {
		logger = log.New(ioutil.Discard, "", 0)
	}
	return &Builder{
		cache:  cache,
		logger: logger,
	}
}
