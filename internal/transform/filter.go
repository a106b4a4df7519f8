package transform

import (
	"errors"
	"fmt"
	"strings"

	"github.com/disintegration/imaging"
)

// DefaultFilter is the resampling filter used when none is configured.
const DefaultFilter = "lanczos"

var ErrUnknownFilter = errors.New("transform: unknown resampling filter")

// Filter returns the resampling filter registered under name.
func Filter(name string) (imaging.ResampleFilter, error) {
	switch strings.ToLower(name) {
	case "lanczos", "antialias":
		return imaging.Lanczos, nil
	case "catmullrom", "bicubic":
		return imaging.CatmullRom, nil
	case "mitchell":
		return imaging.MitchellNetravali, nil
	case "linear", "bilinear":
		return imaging.Linear, nil
	case "box":
		return imaging.Box, nil
	case "hamming":
		return imaging.Hamming, nil
	case "gaussian":
		return imaging.Gaussian, nil
	case "nearest":
		return imaging.NearestNeighbor, nil
	default:
		return imaging.ResampleFilter{}, fmt.Errorf("%w: %s", ErrUnknownFilter, name)
	}
}
