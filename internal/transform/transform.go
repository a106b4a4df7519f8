// Package transform implements the geometric operations applied to each
// frame: fit-crop around an anchor, aspect preserving thumbnail and fixed
// rectangle crop.
package transform

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
)

var (
	ErrInvalidSize = errors.New("transform: target size must be positive")
	ErrInvalidBox  = errors.New("transform: empty crop box")
)

// Spec is one of Fit, Thumbnail or Crop.
type Spec interface {
	validate() error
	apply(img image.Image, filter imaging.ResampleFilter) *image.NRGBA
}

// Fit scales and crops to exactly Size, keeping the part of the image
// around Anchor. The output is never letterboxed.
type Fit struct {
	Size   image.Point
	Anchor Anchor
}

// Thumbnail shrinks the image to fit inside Size preserving its aspect
// ratio. It never upscales.
type Thumbnail struct {
	Size image.Point
}

// Crop extracts Box verbatim. Parts of Box outside the image are
// transparent.
type Crop struct {
	Box image.Rectangle
}

func checkSize(p image.Point) error {
	if p.X <= 0 || p.Y <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, p.X, p.Y)
	}
	return nil
}

func (s Fit) validate() error       { return checkSize(s.Size) }
func (s Thumbnail) validate() error { return checkSize(s.Size) }

func (s Crop) validate() error {
	if s.Box.Empty() {
		return fmt.Errorf("%w: %v", ErrInvalidBox, s.Box)
	}
	return nil
}

func (s Fit) apply(img image.Image, filter imaging.ResampleFilter) *image.NRGBA {
	return imaging.Resize(imaging.Crop(img, FitBox(img.Bounds(), s.Size, s.Anchor)), s.Size.X, s.Size.Y, filter)
}

func (s Thumbnail) apply(img image.Image, filter imaging.ResampleFilter) *image.NRGBA {
	size := ThumbnailSize(img.Bounds().Size(), s.Size)
	if size == img.Bounds().Size() {
		return imaging.Clone(img)
	}
	return imaging.Resize(img, size.X, size.Y, filter)
}

func (s Crop) apply(img image.Image, _ imaging.ResampleFilter) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, s.Box.Dx(), s.Box.Dy()))
	draw.Draw(dst, dst.Bounds(), img, img.Bounds().Min.Add(s.Box.Min), draw.Src)
	return dst
}

// FitBox returns the window of src, in src coordinates, that a Fit to size
// keeps. The window has the target aspect ratio and is as large as src
// allows; its free offset is distributed according to anchor.
func FitBox(src image.Rectangle, size image.Point, anchor Anchor) image.Rectangle {
	w, h := src.Dx(), src.Dy()
	cw, ch := w, h
	switch {
	case w*size.Y == h*size.X:
	case w*size.Y > h*size.X:
		cw = int(math.Round(float64(size.X) * float64(h) / float64(size.Y)))
	default:
		ch = int(math.Round(float64(size.Y) * float64(w) / float64(size.X)))
	}
	cw, ch = max(cw, 1), max(ch, 1)
	left := int(math.Round(float64(w-cw) * anchor.X))
	top := int(math.Round(float64(h-ch) * anchor.Y))
	return image.Rect(left, top, left+cw, top+ch).Add(src.Min)
}

// ThumbnailSize returns the dimensions a Thumbnail bounded by target
// produces for an image of size src. If src already fits, src is returned.
// Each dimension is rounded to whichever neighbouring integer keeps the
// aspect ratio closest to the source.
func ThumbnailSize(src, target image.Point) image.Point {
	if target.X >= src.X && target.Y >= src.Y {
		return src
	}
	x, y := target.X, target.Y
	aspect := float64(src.X) / float64(src.Y)
	if float64(x)/float64(y) >= aspect {
		x = roundAspect(float64(y)*aspect, func(n float64) float64 {
			return math.Abs(aspect - n/float64(y))
		})
	} else {
		y = roundAspect(float64(x)/aspect, func(n float64) float64 {
			if n == 0 {
				return 0
			}
			return math.Abs(aspect - float64(x)/n)
		})
	}
	return image.Pt(x, y)
}

func roundAspect(v float64, dist func(float64) float64) int {
	lo, hi := math.Floor(v), math.Ceil(v)
	n := lo
	if dist(hi) < dist(lo) {
		n = hi
	}
	return max(int(n), 1)
}

// Transformer applies one Spec with a fixed resampling filter. The same
// Transformer must be used for every frame of a sequence so that all
// frames receive the identical geometric operation.
type Transformer struct {
	spec   Spec
	filter imaging.ResampleFilter
}

// New validates spec and resolves the named filter.
func New(spec Spec, filter string) (*Transformer, error) {
	if spec == nil {
		return nil, errors.New("transform: nil spec")
	}
	if err := spec.validate(); err != nil {
		return nil, err
	}
	f, err := Filter(filter)
	if err != nil {
		return nil, err
	}
	return &Transformer{spec: spec, filter: f}, nil
}

// Apply returns the transformed copy of img. img is not modified.
func (t *Transformer) Apply(img image.Image) *image.NRGBA {
	return t.spec.apply(img, t.filter)
}

// Spec returns the operation t applies.
func (t *Transformer) Spec() Spec {
	return t.spec
}
