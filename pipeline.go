package gifstream

import (
	"bytes"
	"context"
	"crypto/sha1"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"io/ioutil"
	"sync"

	"github.com/bodgit/gifstream/indexed"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var (
	errFrameTooLarge = errors.New("frame is larger than 65535 pixels")
	errFrameSize     = errors.New("frame does not match the canvas size")
)

type job struct {
	index int
	file  string
}

type result struct {
	index int
	frame *image.Paletted
}

func (b *Builder) findFrames(ctx context.Context, files []string) (<-chan job, <-chan error, error) {
	out := make(chan job)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errc)
		for i, file := range files {
			select {
			case out <- job{i, file}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, errc, nil
}

func cacheKey(sum []byte, opts indexed.Options) string {
	return fmt.Sprintf("%X:%d:%dx%d:%t", sum, opts.Colors, opts.Width, opts.Height, opts.Dither)
}

func (b *Builder) convertFrame(file string, opts indexed.Options) (*image.Paletted, error) {
	data, err := ioutil.ReadFile(file)
	if err != nil {
		return nil, err
	}

	var key string
	if b.cache != nil {
		h := sha1.Sum(data)
		key = cacheKey(h[:], opts)

		m, err := b.cache.Find(key)
		if err != nil {
			return nil, err
		}
		if m != nil {
			b.logger.Printf("Using cached frame for \"%s\"\n", file)
			return m, nil
		}
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}

	m := indexed.Convert(src, opts)

	if b.cache != nil {
		if err := b.cache.Add(key, m); err != nil {
			return nil, err
		}
	}

	return m, nil
}

func (b *Builder) frameWorker(ctx context.Context, cancel context.CancelFunc, wg *sync.WaitGroup, in <-chan job, out chan<- result, opts indexed.Options) (<-chan error, error) {
	errc := make(chan error, 1)
	go func() {
		defer wg.Done()
		defer close(errc)
		for j := range in {
			m, err := b.convertFrame(j.file, opts)
			if err != nil {
				errc <- err
				cancel()
				return
			}

			select {
			case out <- result{j.index, m}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return errc, nil
}

// firstError drains every stage's error channel and returns the first
// error reported, if any
func firstError(errs ...<-chan error) error {
	merged := make(chan error, len(errs))

	var wg sync.WaitGroup
	for _, errc := range errs {
		wg.Add(1)
		go func(errc <-chan error) {
			defer wg.Done()
			for err := range errc {
				merged <- err
			}
		}(errc)
	}
	go func() {
		wg.Wait()
		close(merged)
	}()

	var first error
	for err := range merged {
		if first == nil {
			first = err
		}
	}
	return first
}

// Build encodes files as an animation to w. Files are decoded and converted
// by cfg.Workers goroutines and written in order. progress, if not nil, is
// called with the number of frames written after each frame.
func (b *Builder) Build(files []string, w io.Writer, cfg Config, progress func(int)) error {
	if len(files) == 0 {
		return errNoSources
	}
	if err := cfg.validate(); err != nil {
		return err
	}
	dispose, err := ParseDispose(cfg.Dispose)
	if err != nil {
		return err
	}
	settings := cfg.Settings()
	opts := cfg.options()

	ctx, cancelFunc := context.WithCancel(context.Background())
	defer cancelFunc()

	var errcList []<-chan error

	jobs, errc, err := b.findFrames(ctx, files)
	if err != nil {
		return err
	}
	errcList = append(errcList, errc)

	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}

	results := make(chan result)
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		errc, err := b.frameWorker(ctx, cancelFunc, &wg, jobs, results, opts)
		if err != nil {
			return err
		}
		errcList = append(errcList, errc)
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	enc := NewEncoder(w, b.logger)

	// Frames can finish out of order, hold them until their turn
	pending := make(map[int]*image.Paletted)
	next := 0
	var canvas image.Point
	var encErr error
	for r := range results {
		if encErr != nil {
			continue
		}
		pending[r.index] = r.frame
		for {
			m, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)

			// The first frame sets the canvas, later frames are scaled to it
			if next == 0 {
				canvas = m.Rect.Size()
			} else if m.Rect.Size() != canvas {
				b.logger.Printf("Scaling frame %d from %dx%d to %dx%d\n", next, m.Rect.Dx(), m.Rect.Dy(), canvas.X, canvas.Y)
				m = fitFrame(m, canvas, opts)
			}
			if m.Rect.Size() != canvas {
				encErr = errFrameSize
				cancelFunc()
				break
			}

			if encErr = b.writeFrame(enc, m, dispose, cfg.Delay, settings); encErr != nil {
				cancelFunc()
				break
			}
			next++
			if progress != nil {
				progress(next)
			}
		}
	}

	if err := firstError(errcList...); err != nil {
		return err
	}
	if encErr != nil {
		return encErr
	}

	b.logger.Printf("Wrote %d frames\n", enc.Frames())

	return enc.Close()
}

func fitFrame(m *image.Paletted, size image.Point, opts indexed.Options) *image.Paletted {
	opts.Width, opts.Height = size.X, size.Y
	return indexed.Convert(m, opts)
}

func (b *Builder) writeFrame(enc *Encoder, m *image.Paletted, dispose Dispose, delay uint16, settings Settings) error {
	w, h := m.Rect.Dx(), m.Rect.Dy()
	if w > 0xffff || h > 0xffff {
		return errFrameTooLarge
	}
	return enc.WriteFrame(&Frame{
		Image:        m,
		ScreenWidth:  uint16(w),
		ScreenHeight: uint16(h),
		Dispose:      dispose,
	}, delay, settings)
}
