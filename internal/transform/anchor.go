package transform

import (
	"fmt"
	"image"
	"strconv"
	"strings"
)

// Anchor is a normalized centering point: (0,0) keeps the top-left part of
// an image, (1,1) the bottom-right, (0.5,0.5) the middle.
type Anchor struct {
	X, Y float64
}

var (
	Center      = Anchor{0.5, 0.5}
	TopLeft     = Anchor{0, 0}
	Top         = Anchor{0.5, 0}
	TopRight    = Anchor{1, 0}
	Left        = Anchor{0, 0.5}
	Right       = Anchor{1, 0.5}
	BottomLeft  = Anchor{0, 1}
	Bottom      = Anchor{0.5, 1}
	BottomRight = Anchor{1, 1}
)

// ParseAnchor accepts a named anchor ("center", "top-left", ...) or two
// comma separated fractions such as "0.5,0.25". The empty string is the
// center.
func ParseAnchor(s string) (Anchor, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "center", "middle":
		return Center, nil
	case "top-left":
		return TopLeft, nil
	case "top":
		return Top, nil
	case "top-right":
		return TopRight, nil
	case "left":
		return Left, nil
	case "right":
		return Right, nil
	case "bottom-left":
		return BottomLeft, nil
	case "bottom":
		return Bottom, nil
	case "bottom-right":
		return BottomRight, nil
	}

	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return Anchor{}, fmt.Errorf("unknown anchor: %s", s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(xs), 64)
	if err != nil {
		return Anchor{}, fmt.Errorf("invalid anchor %q: %w", s, err)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(ys), 64)
	if err != nil {
		return Anchor{}, fmt.Errorf("invalid anchor %q: %w", s, err)
	}
	if x < 0 || x > 1 || y < 0 || y > 1 {
		return Anchor{}, fmt.Errorf("anchor %q outside [0,1]", s)
	}
	return Anchor{x, y}, nil
}

func (a Anchor) String() string {
	return strconv.FormatFloat(a.X, 'g', -1, 64) + "," + strconv.FormatFloat(a.Y, 'g', -1, 64)
}

// ParseBox parses a crop rectangle written as "x0,y0,x1,y1" in absolute
// pixel coordinates.
func ParseBox(s string) (image.Rectangle, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return image.Rectangle{}, fmt.Errorf("%w: %q", ErrInvalidBox, s)
	}
	var v [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return image.Rectangle{}, fmt.Errorf("%w: %q: %v", ErrInvalidBox, s, err)
		}
		v[i] = n
	}
	r := image.Rectangle{Min: image.Pt(v[0], v[1]), Max: image.Pt(v[2], v[3])}
	if r.Empty() {
		return image.Rectangle{}, fmt.Errorf("%w: %v", ErrInvalidBox, r)
	}
	return r, nil
}
