package source

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DecodeStill decodes a single-frame image with any registered codec.
func DecodeStill(r io.Reader) (*Animation, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	return FromImage(img, format), nil
}

// FromImage wraps an already decoded image as a single-frame animation.
// The canvas is the image's size; frames are kept at their own bounds.
func FromImage(img image.Image, format string) *Animation {
	b := img.Bounds()
	if b.Min != (image.Point{}) {
		img = rebase(img)
		b = img.Bounds()
	}
	anim := &Animation{
		Format:    format,
		Width:     b.Dx(),
		Height:    b.Dy(),
		LoopCount: LoopAbsent,
		Frames:    []Frame{{Image: img}},
	}
	if p, ok := img.(*image.Paletted); ok {
		anim.Palette = p.Palette
	}
	return anim
}

// rebase moves img so that its bounds start at the origin.
func rebase(img image.Image) image.Image {
	b := img.Bounds()
	switch img := img.(type) {
	case *image.Paletted:
		c := *img
		c.Rect = image.Rect(0, 0, b.Dx(), b.Dy())
		c.Pix = img.Pix[img.PixOffset(b.Min.X, b.Min.Y):]
		return &c
	case *image.NRGBA:
		c := *img
		c.Rect = image.Rect(0, 0, b.Dx(), b.Dy())
		c.Pix = img.Pix[img.PixOffset(b.Min.X, b.Min.Y):]
		return &c
	case *image.RGBA:
		c := *img
		c.Rect = image.Rect(0, 0, b.Dx(), b.Dy())
		c.Pix = img.Pix[img.PixOffset(b.Min.X, b.Min.Y):]
		return &c
	}
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}
