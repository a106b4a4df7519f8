// Package encoder serializes processed frames into an in-memory image
// buffer.
package encoder

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DefaultQuality is the JPEG quality used when Options.Quality is zero.
const DefaultQuality = 75

// DefaultDelay is the per-frame delay, in hundredths of a second, that the
// Defaults policy substitutes for missing timing.
const DefaultDelay = 10

var (
	ErrEncode            = errors.New("encoder: encode failed")
	ErrUnsupportedTarget = errors.New("encoder: unsupported target format")
	ErrMissingMetadata   = errors.New("encoder: animation metadata missing")
)

// MetadataPolicy decides what happens when a source animation carries no
// loop count or no frame delays.
type MetadataPolicy int

const (
	// Passthrough keeps absent values absent: no loop extension is written
	// and frames get a zero delay.
	Passthrough MetadataPolicy = iota
	// Defaults substitutes an infinite loop and DefaultDelay.
	Defaults
	// Strict fails with ErrMissingMetadata.
	Strict
)

func (p MetadataPolicy) String() string {
	switch p {
	case Passthrough:
		return "passthrough"
	case Defaults:
		return "defaults"
	case Strict:
		return "strict"
	default:
		return fmt.Sprintf("MetadataPolicy(%d)", int(p))
	}
}

// ParseMetadataPolicy maps a policy name to its value. The empty string
// is Passthrough.
func ParseMetadataPolicy(s string) (MetadataPolicy, error) {
	switch strings.ToLower(s) {
	case "", "passthrough":
		return Passthrough, nil
	case "defaults":
		return Defaults, nil
	case "strict":
		return Strict, nil
	}
	return 0, fmt.Errorf("unknown metadata policy: %s", s)
}

// resolve applies p to the loop count and delays of an n-frame sequence.
// loop < 0 and a nil delays slice mean absent.
func (p MetadataPolicy) resolve(loop int, delays []int, n int) (int, []int, error) {
	if p == Strict && (loop < 0 || delays == nil) {
		return 0, nil, fmt.Errorf("%w: loop=%d delays=%v", ErrMissingMetadata, loop, delays != nil)
	}
	if loop < 0 && p == Defaults {
		loop = 0
	}
	out := make([]int, n)
	switch {
	case delays != nil:
		copy(out, delays)
	case p == Defaults:
		for i := range out {
			out[i] = DefaultDelay
		}
	}
	return loop, out, nil
}

// Options control encoding.
type Options struct {
	// Format is the target codec name ("gif", "jpeg", "png", ...).
	Format string

	// Quality is the JPEG and WebP quality in [1,100]. Zero means
	// DefaultQuality.
	Quality int

	// Dither enables Floyd-Steinberg error diffusion when frames are
	// reduced to a palette.
	Dither bool

	Metadata MetadataPolicy

	// Extra holds codec specific settings, e.g. "compression" for PNG and
	// TIFF, "colors" for GIF or "lossless" for WebP.
	Extra map[string]string
}

// Result is a complete encoded image. It owns Data.
type Result struct {
	Data   []byte
	Format string

	Width  int
	Height int
	Frames int

	// Delays are the written per-frame delays in hundredths of a second.
	// They are nil for still images.
	Delays []int

	// LoopCount is the written loop count, negative when none was written.
	LoopCount int
}

// Durations returns Delays as durations.
func (r *Result) Durations() []time.Duration {
	if r.Delays == nil {
		return nil
	}
	out := make([]time.Duration, len(r.Delays))
	for i, d := range r.Delays {
		out[i] = time.Duration(d) * 10 * time.Millisecond
	}
	return out
}

// NormalizeFormat maps codec aliases to the canonical names used by the
// image package decoders.
func NormalizeFormat(format string) string {
	switch f := strings.ToLower(strings.TrimSpace(format)); f {
	case "jpg":
		return "jpeg"
	case "tif":
		return "tiff"
	default:
		return f
	}
}
