package analyzer

import (
	"image"

	"github.com/ivlev/resized/internal/source"
)

// Mode tells how an animation encodes its frames.
type Mode int

const (
	// Full means every frame covers the whole canvas.
	Full Mode = iota
	// Partial means at least one frame only carries the region that
	// changed since the previous frame.
	Partial
)

func (m Mode) String() string {
	switch m {
	case Full:
		return "full"
	case Partial:
		return "partial"
	default:
		return "unknown"
	}
}

// Analyze classifies anim as Full or Partial and returns its canvas size.
// The scan stops at the first frame whose update region differs in size
// from the canvas. It must run over the whole sequence before any frame
// is transformed.
func Analyze(anim *source.Animation) (Mode, image.Point) {
	canvas := image.Pt(anim.Width, anim.Height)
	for _, f := range anim.Frames {
		if f.Image.Bounds().Size() != canvas {
			return Partial, canvas
		}
	}
	return Full, canvas
}
