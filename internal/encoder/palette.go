package encoder

import (
	"fmt"
	"image"
	"image/color"
	"strconv"

	"github.com/ericpauley/go-quantize/quantize"
	"golang.org/x/image/draw"
)

const maxColors = 256

// colors reads the "colors" option, the palette size used when a frame has
// to be quantized.
func (o Options) colors() (int, error) {
	s, ok := o.Extra["colors"]
	if !ok {
		return maxColors, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 2 || n > maxColors {
		return 0, fmt.Errorf("%w: colors must be in [2,%d], got %q", ErrUnsupportedTarget, maxColors, s)
	}
	return n, nil
}

// toPaletted converts img to a paletted image. With a nil pal, a median
// cut palette of up to n colors is computed from img.
func toPaletted(img image.Image, pal color.Palette, n int, dither bool) *image.Paletted {
	b := img.Bounds()
	transparent := hasTransparency(img)
	if len(pal) == 0 {
		pal = quantizePalette(img, n, transparent)
	} else if transparent {
		pal = withTransparent(pal)
	}

	dst := image.NewPaletted(b, pal)
	if dither {
		draw.FloydSteinberg.Draw(dst, b, img, b.Min)
	} else {
		draw.Draw(dst, b, img, b.Min, draw.Src)
	}
	return dst
}

func quantizePalette(img image.Image, n int, transparent bool) color.Palette {
	q := quantize.MedianCutQuantizer{AddTransparent: transparent}
	pal := q.Quantize(make(color.Palette, 0, n), img)
	if len(pal) == 0 {
		pal = color.Palette{color.Transparent}
	}
	return pal
}

// withTransparent returns pal with a fully transparent entry, appending
// one when pal has room and lacks it.
func withTransparent(pal color.Palette) color.Palette {
	for _, c := range pal {
		if _, _, _, a := c.RGBA(); a == 0 {
			return pal
		}
	}
	if len(pal) >= maxColors {
		return pal
	}
	out := make(color.Palette, len(pal), len(pal)+1)
	copy(out, pal)
	return append(out, color.Transparent)
}

func hasTransparency(img image.Image) bool {
	if m, ok := img.(*image.NRGBA); ok {
		for i := 3; i < len(m.Pix); i += 4 {
			if m.Pix[i] == 0 {
				return true
			}
		}
		return false
	}
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a == 0 {
				return true
			}
		}
	}
	return false
}
