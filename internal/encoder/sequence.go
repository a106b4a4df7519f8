package encoder

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/gif"

	"github.com/ivlev/resized/internal/source"
)

// Sequence is a run of processed frames together with the metadata carried
// over from the source animation.
type Sequence struct {
	// Frames all share the same bounds. A frame's Palette, when set, is
	// the table its pixels are mapped to; frames without one are quantized.
	Frames []source.Frame

	// Palette and BackgroundIndex become the global color table.
	Palette         color.Palette
	BackgroundIndex byte

	// LoopCount and Delays follow source.Animation conventions.
	LoopCount int
	Delays    []int
}

// EncodeSequence writes seq as an animated GIF. The first frame is the
// base image and the rest are appended in order. Every frame covers the
// whole canvas and is disposed to background.
func EncodeSequence(seq Sequence, opts Options) (*Result, error) {
	if len(seq.Frames) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrEncode, source.ErrNoFrames)
	}
	if seq.Delays != nil && len(seq.Delays) != len(seq.Frames) {
		return nil, fmt.Errorf("%w: %d frames, %d delays", ErrEncode, len(seq.Frames), len(seq.Delays))
	}
	loop, delays, err := opts.Metadata.resolve(seq.LoopCount, seq.Delays, len(seq.Frames))
	if err != nil {
		return nil, err
	}
	n, err := opts.colors()
	if err != nil {
		return nil, err
	}

	bounds := seq.Frames[0].Image.Bounds()
	g := &gif.GIF{
		Image:     make([]*image.Paletted, len(seq.Frames)),
		Delay:     delays,
		Disposal:  make([]byte, len(seq.Frames)),
		LoopCount: loop,
		Config: image.Config{
			Width:  bounds.Dx(),
			Height: bounds.Dy(),
		},
	}
	if len(seq.Palette) > 0 && len(seq.Palette) <= maxColors && int(seq.BackgroundIndex) < len(seq.Palette) {
		g.Config.ColorModel = seq.Palette
		g.BackgroundIndex = seq.BackgroundIndex
	}

	for i, f := range seq.Frames {
		if f.Image.Bounds() != bounds {
			return nil, fmt.Errorf("%w: frame %d bounds %v differ from %v", ErrEncode, i, f.Image.Bounds(), bounds)
		}
		g.Image[i] = toPaletted(f.Image, f.Palette, n, opts.Dither)
		g.Disposal[i] = gif.DisposalBackground
	}

	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, g); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}

	written := loop
	if len(g.Image) < 2 {
		written = source.LoopAbsent
	}
	return &Result{
		Data:      buf.Bytes(),
		Format:    "gif",
		Width:     bounds.Dx(),
		Height:    bounds.Dy(),
		Frames:    len(g.Image),
		Delays:    delays,
		LoopCount: written,
	}, nil
}
