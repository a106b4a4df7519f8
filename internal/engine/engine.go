// Package engine routes a decoded image through compositing, transforming
// and encoding.
package engine

import (
	"fmt"
	"image"
	"image/color"
	"log/slog"

	"github.com/ivlev/resized/internal/analyzer"
	"github.com/ivlev/resized/internal/compositor"
	"github.com/ivlev/resized/internal/encoder"
	"github.com/ivlev/resized/internal/source"
	"github.com/ivlev/resized/internal/system"
	"github.com/ivlev/resized/internal/transform"
)

// Options configure one Processor.
type Options struct {
	// Filter names the resampling filter, e.g. transform.DefaultFilter.
	Filter string

	// Encode.Format empty keeps the source format.
	Encode encoder.Options

	// Logger receives dispatch records. Nil means slog.Default().
	Logger *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

// Processor runs one geometric operation over a whole image and returns the
// encoded result. Each call starts from the decoded source; calls are
// independent of each other.
type Processor interface {
	Kind() analyzer.Kind
	Fit(size image.Point, anchor transform.Anchor) (*encoder.Result, error)
	Thumbnail(size image.Point) (*encoder.Result, error)
	Crop(box image.Rectangle) (*encoder.Result, error)
}

type pipeline interface {
	process(tr *transform.Transformer) (*encoder.Result, error)
}

type processor struct {
	pipeline
	kind analyzer.Kind
	opts Options
	log  *slog.Logger
}

// New classifies anim once and returns the Processor for its family.
// anim must be fully materialized; its frames are never re-enumerated.
func New(anim *source.Animation, opts Options) (Processor, error) {
	p, err := newProcessor(anim, opts)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Process applies spec to anim with the Processor New would select.
func Process(anim *source.Animation, spec transform.Spec, opts Options) (*encoder.Result, error) {
	p, err := newProcessor(anim, opts)
	if err != nil {
		return nil, err
	}
	return p.run(spec)
}

func newProcessor(anim *source.Animation, opts Options) (*processor, error) {
	if anim == nil {
		return nil, source.ErrNoFrames
	}
	if err := anim.Validate(); err != nil {
		return nil, err
	}
	kind := analyzer.Classify(anim)
	log := opts.logger().With("format", anim.Format, "kind", kind.String())
	log.Debug("dispatch", "frames", len(anim.Frames), "canvas", fmt.Sprintf("%dx%d", anim.Width, anim.Height))

	p := &processor{kind: kind, opts: opts, log: log}
	switch kind {
	case analyzer.SingleFrame:
		p.pipeline = &still{anim: anim, opts: opts.Encode}
	default:
		p.pipeline = newAnimated(anim, kind.Mode(), opts.Encode, log)
	}
	return p, nil
}

func (p *processor) Kind() analyzer.Kind { return p.kind }

func (p *processor) Fit(size image.Point, anchor transform.Anchor) (*encoder.Result, error) {
	return p.run(transform.Fit{Size: size, Anchor: anchor})
}

func (p *processor) Thumbnail(size image.Point) (*encoder.Result, error) {
	return p.run(transform.Thumbnail{Size: size})
}

func (p *processor) Crop(box image.Rectangle) (*encoder.Result, error) {
	return p.run(transform.Crop{Box: box})
}

func (p *processor) run(spec transform.Spec) (*encoder.Result, error) {
	tr, err := transform.New(spec, p.opts.Filter)
	if err != nil {
		return nil, err
	}
	res, err := p.process(tr)
	if err != nil {
		return nil, err
	}
	p.log.Debug("encoded", "target", res.Format, "size", fmt.Sprintf("%dx%d", res.Width, res.Height), "frames", res.Frames, "bytes", len(res.Data))
	return res, nil
}

type still struct {
	anim *source.Animation
	opts encoder.Options
}

func (s *still) process(tr *transform.Transformer) (*encoder.Result, error) {
	f := s.anim.Frames[0]
	img, err := compositor.Resolve(f, s.anim.Palette)
	if err != nil {
		return nil, err
	}
	// Одиночный кадр меньше холста сначала кладем на холст
	canvas := s.anim.Canvas()
	if img.Bounds() != canvas {
		if img, err = compositor.Step(nil, f, s.anim.Palette, canvas.Size(), analyzer.Full); err != nil {
			return nil, err
		}
	}

	opts := s.opts
	if opts.Format == "" {
		opts.Format = s.anim.Format
	}
	out := source.Frame{Image: tr.Apply(img), Palette: compositor.Palette(f, s.anim.Palette)}
	return encoder.EncodeStill(out, opts)
}

type animated struct {
	anim *source.Animation
	mode analyzer.Mode
	opts encoder.Options

	// sharedPalettes is false when carried-forward pixels may use colors
	// missing from a frame's own table; such frames are re-quantized.
	sharedPalettes bool
}

func newAnimated(anim *source.Animation, mode analyzer.Mode, opts encoder.Options, log *slog.Logger) *animated {
	if f := encoder.NormalizeFormat(opts.Format); f != "" && f != "gif" {
		log.Warn("animated output is always gif", "requested", opts.Format)
	}
	opts.Format = "gif"

	shared := true
	if mode == analyzer.Partial {
		for _, f := range anim.Frames {
			if f.Palette != nil {
				shared = false
				break
			}
		}
	}
	return &animated{anim: anim, mode: mode, opts: opts, sharedPalettes: shared}
}

// process folds compositor.StepInto over the frames and transforms each
// canvas as soon as it is built, so only two full-size canvases are live at
// a time.
func (a *animated) process(tr *transform.Transformer) (*encoder.Result, error) {
	anim := a.anim
	size := image.Pt(anim.Width, anim.Height)
	frames := make([]source.Frame, len(anim.Frames))

	// Живут только два холста: предыдущий и текущий
	var prev *image.NRGBA
	defer func() { system.PutCanvas(prev) }()
	for i, f := range anim.Frames {
		next := system.GetCanvas(size)
		if err := compositor.StepInto(next, prev, f, anim.Palette, a.mode); err != nil {
			system.PutCanvas(next)
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
		var pal color.Palette
		if a.sharedPalettes {
			pal = compositor.Palette(f, anim.Palette)
		}
		frames[i] = source.Frame{Image: tr.Apply(next), Palette: pal}
		system.PutCanvas(prev)
		prev = next
	}

	return encoder.EncodeSequence(encoder.Sequence{
		Frames:          frames,
		Palette:         anim.Palette,
		BackgroundIndex: anim.BackgroundIndex,
		LoopCount:       anim.LoopCount,
		Delays:          anim.Delays,
	}, a.opts)
}
