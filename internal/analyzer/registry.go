package analyzer

import "github.com/ivlev/resized/internal/source"

// Kind selects the processing path for a decoded image.
type Kind int

const (
	SingleFrame Kind = iota
	AnimatedFull
	AnimatedPartial
)

func (k Kind) String() string {
	switch k {
	case SingleFrame:
		return "single-frame"
	case AnimatedFull:
		return "animated-full"
	case AnimatedPartial:
		return "animated-partial"
	default:
		return "unknown"
	}
}

// Classify resolves the processing path once per image. Images with more
// than one frame are animated; their disposal mode picks the variant.
func Classify(anim *source.Animation) Kind {
	if len(anim.Frames) <= 1 {
		return SingleFrame
	}
	if mode, _ := Analyze(anim); mode == Partial {
		return AnimatedPartial
	}
	return AnimatedFull
}

// Mode returns the compositing mode implied by k.
func (k Kind) Mode() Mode {
	if k == AnimatedPartial {
		return Partial
	}
	return Full
}
