package source

import (
	"fmt"
	"image/color"
	"image/gif"
	"io"
)

// DecodeGIF decodes every frame of a GIF stream.
func DecodeGIF(r io.Reader) (*Animation, error) {
	g, err := gif.DecodeAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: gif: %v", ErrUnsupportedFormat, err)
	}
	return FromGIF(g)
}

// FromGIF converts a decoded gif.GIF. The frames share pixel buffers with
// g; neither side may modify them afterwards.
func FromGIF(g *gif.GIF) (*Animation, error) {
	if len(g.Image) == 0 {
		return nil, ErrNoFrames
	}
	if g.Delay != nil && len(g.Image) != len(g.Delay) {
		return nil, fmt.Errorf("%w: %d images, %d delays", ErrMismatchedMetadata, len(g.Image), len(g.Delay))
	}
	if g.Disposal != nil && len(g.Image) != len(g.Disposal) {
		return nil, fmt.Errorf("%w: %d images, %d disposals", ErrMismatchedMetadata, len(g.Image), len(g.Disposal))
	}

	hdr := Animation{
		Format:          "gif",
		Width:           g.Config.Width,
		Height:          g.Config.Height,
		BackgroundIndex: g.BackgroundIndex,
		LoopCount:       g.LoopCount,
	}
	if pal, ok := g.Config.ColorModel.(color.Palette); ok && len(pal) > 0 {
		hdr.Palette = pal
	}
	if hdr.Width == 0 || hdr.Height == 0 {
		b := g.Image[0].Bounds()
		for _, m := range g.Image[1:] {
			b = b.Union(m.Bounds())
		}
		hdr.Width, hdr.Height = b.Max.X, b.Max.Y
	}
	if g.Delay != nil {
		hdr.Delays = append([]int(nil), g.Delay...)
	}
	return Collect(hdr, &gifIterator{g: g, global: hdr.Palette})
}

type gifIterator struct {
	g      *gif.GIF
	global color.Palette
	pos    int
}

func (it *gifIterator) Next() (Frame, error) {
	if it.pos >= len(it.g.Image) {
		return Frame{}, io.EOF
	}
	m := it.g.Image[it.pos]
	it.pos++
	f := Frame{Image: m}
	// image/gif копирует глобальную палитру в кадры без локальной и обнуляет
	// прозрачный индекс, поэтому локальной считаем только палитру с другими цветами
	if !SameColors(m.Palette, it.global) {
		f.Palette = m.Palette
	}
	return f, nil
}
