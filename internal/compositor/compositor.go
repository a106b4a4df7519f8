// Package compositor rebuilds the visible canvas for every frame of an
// animation so that frames can be transformed independently.
package compositor

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"github.com/ivlev/resized/internal/analyzer"
	"github.com/ivlev/resized/internal/source"
)

var ErrNoPalette = errors.New("compositor: paletted frame without palette")

// Palette returns the color table frame f is rendered with: its local
// palette, else the animation's global one, else whatever the pixel
// buffer already carries. A buffer table that only adds transparency to
// the global one wins over it. It returns nil for non-paletted frames.
func Palette(f source.Frame, global color.Palette) color.Palette {
	p, ok := f.Image.(*image.Paletted)
	if !ok {
		return nil
	}
	switch {
	case f.Palette != nil:
		return f.Palette
	case global != nil:
		if source.SameColors(p.Palette, global) {
			return p.Palette
		}
		return global
	default:
		return p.Palette
	}
}

// Resolve returns f's pixels with the effective palette applied. The
// source frame is left untouched.
func Resolve(f source.Frame, global color.Palette) (image.Image, error) {
	p, ok := f.Image.(*image.Paletted)
	if !ok {
		return f.Image, nil
	}
	pal := Palette(f, global)
	if len(pal) == 0 {
		return nil, ErrNoPalette
	}
	c := *p
	c.Palette = pal
	return &c, nil
}

// Step composites one frame. In Partial mode prev is pasted first so that
// pixels outside the frame's update region carry forward; in Full mode
// prev is ignored. The frame is pasted at its origin using its own alpha
// as the mask. Step never modifies prev; the returned canvas is new.
func Step(prev *image.NRGBA, f source.Frame, global color.Palette, canvas image.Point, mode analyzer.Mode) (*image.NRGBA, error) {
	next := image.NewNRGBA(image.Rectangle{Max: canvas})
	if err := StepInto(next, prev, f, global, mode); err != nil {
		return nil, err
	}
	return next, nil
}

// StepInto is Step writing into dst, which must be canvas sized and must
// not be prev. Every pixel of dst is overwritten, so recycled buffers are
// fine.
func StepInto(dst, prev *image.NRGBA, f source.Frame, global color.Palette, mode analyzer.Mode) error {
	img, err := Resolve(f, global)
	if err != nil {
		return err
	}
	if mode == analyzer.Partial && prev != nil {
		draw.Draw(dst, dst.Bounds(), prev, prev.Bounds().Min, draw.Src)
	} else {
		clear(dst.Pix)
	}
	b := img.Bounds()
	draw.Draw(dst, b, img, b.Min, draw.Over)
	return nil
}

// Compose folds Step over every frame of anim, starting from a transparent
// canvas. The result has one canvas per frame, each of the canvas size.
func Compose(anim *source.Animation, mode analyzer.Mode) ([]*image.NRGBA, error) {
	canvas := image.Pt(anim.Width, anim.Height)
	out := make([]*image.NRGBA, 0, len(anim.Frames))
	prev := image.NewNRGBA(image.Rectangle{Max: canvas})
	for i, f := range anim.Frames {
		next, err := Step(prev, f, anim.Palette, canvas, mode)
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
		out = append(out, next)
		prev = next
	}
	return out, nil
}
