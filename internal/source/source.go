package source

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
)

// LoopAbsent marks an animation that does not declare a loop count.
// It matches the image/gif convention of showing each frame once.
const LoopAbsent = -1

var (
	ErrUnsupportedFormat  = errors.New("source: unsupported image format")
	ErrNoFrames           = errors.New("source: no frames")
	ErrMismatchedMetadata = errors.New("source: mismatched frame metadata")
	ErrFrameOutOfCanvas   = errors.New("source: frame exceeds canvas bounds")
)

// Frame is a single decoded frame. The bounds of Image are the frame's
// update region in canvas coordinates: Min is the origin offset and Size
// the declared region dimensions.
type Frame struct {
	Image image.Image

	// Palette is the frame's local color table. It is nil when the frame
	// relies on the animation's global palette.
	Palette color.Palette
}

// SameColors reports whether a is b with at most some entries made fully
// transparent, which is how GIF decoders apply a frame's transparent index
// to the global table.
func SameColors(a, b color.Palette) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		r0, g0, b0, a0 := a[i].RGBA()
		if a0 == 0 {
			continue
		}
		r1, g1, b1, a1 := b[i].RGBA()
		if r0 != r1 || g0 != g1 || b0 != b1 || a0 != a1 {
			return false
		}
	}
	return true
}

// Animation is a fully materialized decoded image. Still images are
// animations with a single frame.
type Animation struct {
	// Format is the codec name reported by the decoder ("gif", "png", ...).
	Format string

	Width  int
	Height int

	// Palette is the global color table, if any.
	Palette         color.Palette
	BackgroundIndex byte

	// LoopCount follows image/gif: 0 loops forever, LoopAbsent when the
	// source does not say.
	LoopCount int

	// Delays holds per-frame delays in hundredths of a second. A nil
	// slice means the source carries no timing.
	Delays []int

	Frames []Frame
}

// Canvas returns the animation's canvas rectangle.
func (a *Animation) Canvas() image.Rectangle {
	return image.Rect(0, 0, a.Width, a.Height)
}

// Validate checks the structural invariants every consumer relies on.
func (a *Animation) Validate() error {
	if len(a.Frames) == 0 {
		return ErrNoFrames
	}
	if a.Width <= 0 || a.Height <= 0 {
		return fmt.Errorf("%w: canvas %dx%d", ErrMismatchedMetadata, a.Width, a.Height)
	}
	if a.Delays != nil && len(a.Delays) != len(a.Frames) {
		return fmt.Errorf("%w: %d frames, %d delays", ErrMismatchedMetadata, len(a.Frames), len(a.Delays))
	}
	if a.Palette != nil && int(a.BackgroundIndex) >= len(a.Palette) {
		return fmt.Errorf("%w: background index %d not in palette", ErrMismatchedMetadata, a.BackgroundIndex)
	}
	canvas := a.Canvas()
	for i, f := range a.Frames {
		if f.Image == nil {
			return fmt.Errorf("%w: frame %d has no image", ErrMismatchedMetadata, i)
		}
		if !f.Image.Bounds().In(canvas) {
			return fmt.Errorf("%w: frame %d %v not in %v", ErrFrameOutOfCanvas, i, f.Image.Bounds(), canvas)
		}
	}
	return nil
}

// Iterator yields frames lazily. Next returns io.EOF after the last frame.
type Iterator interface {
	Next() (Frame, error)
}

// Collect drains it exactly once into hdr.Frames and validates the result.
// Frame-count dependent decisions must be made on the returned animation,
// never by iterating the source a second time.
func Collect(hdr Animation, it Iterator) (*Animation, error) {
	anim := hdr
	anim.Frames = nil
	for {
		f, err := it.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
		}
		anim.Frames = append(anim.Frames, f)
	}
	if err := anim.Validate(); err != nil {
		return nil, err
	}
	return &anim, nil
}

// Decode reads a complete image from r. GIF data goes through the
// multi-frame decoder; every other registered format is decoded as a
// single frame.
func Decode(r io.Reader) (*Animation, error) {
	br := bufio.NewReader(r)
	if isGIF(br) {
		return DecodeGIF(br)
	}
	return DecodeStill(br)
}

func isGIF(r *bufio.Reader) bool {
	const magic = "GIF8?a"
	b, err := r.Peek(len(magic))
	if err != nil {
		return false
	}
	for i, c := range b {
		if magic[i] != c && magic[i] != '?' {
			return false
		}
	}
	return true
}
