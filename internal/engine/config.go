package engine

import (
	"image"

	"github.com/ivlev/resized/internal/config"
	"github.com/ivlev/resized/internal/encoder"
	"github.com/ivlev/resized/internal/transform"
)

// FromConfig validates cfg and turns it into the operation and options to
// run. A Box selects Crop, a Crop anchor selects Fit, otherwise Thumbnail.
func FromConfig(cfg config.Config) (transform.Spec, Options, error) {
	if err := cfg.Validate(); err != nil {
		return nil, Options{}, err
	}
	policy, err := encoder.ParseMetadataPolicy(cfg.Metadata)
	if err != nil {
		return nil, Options{}, err
	}
	if _, err := transform.Filter(cfg.Resample); err != nil {
		return nil, Options{}, err
	}
	opts := Options{
		Filter: cfg.Resample,
		Encode: encoder.Options{
			Format:   encoder.NormalizeFormat(cfg.Format),
			Quality:  cfg.Quality,
			Dither:   cfg.Dither,
			Metadata: policy,
			Extra:    cfg.Options,
		},
	}

	size := image.Pt(cfg.Width, cfg.Height)
	switch {
	case cfg.Box != "":
		box, err := transform.ParseBox(cfg.Box)
		if err != nil {
			return nil, Options{}, err
		}
		return transform.Crop{Box: box}, opts, nil
	case cfg.Crop != "":
		anchor, err := transform.ParseAnchor(cfg.Crop)
		if err != nil {
			return nil, Options{}, err
		}
		return transform.Fit{Size: size, Anchor: anchor}, opts, nil
	default:
		return transform.Thumbnail{Size: size}, opts, nil
	}
}
