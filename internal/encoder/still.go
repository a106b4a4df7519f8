package encoder

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"strconv"

	"github.com/deepteams/webp"
	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"

	"github.com/ivlev/resized/internal/source"
)

// EncodeStill writes a single frame in opts.Format. For GIF output the
// frame's Palette is used when set.
func EncodeStill(f source.Frame, opts Options) (*Result, error) {
	format := NormalizeFormat(opts.Format)
	img := f.Image
	var buf bytes.Buffer
	var err error

	switch format {
	case "jpeg":
		q := opts.Quality
		if q == 0 {
			q = DefaultQuality
		}
		err = jpeg.Encode(&buf, opaque(img), &jpeg.Options{Quality: q})
	case "png":
		enc := png.Encoder{}
		enc.CompressionLevel, err = pngCompression(opts.Extra["compression"])
		if err == nil {
			err = enc.Encode(&buf, img)
		}
	case "gif":
		var n int
		if n, err = opts.colors(); err == nil {
			err = gif.Encode(&buf, toPaletted(img, f.Palette, n, opts.Dither), nil)
		}
	case "bmp":
		err = bmp.Encode(&buf, img)
	case "tiff":
		var to *tiff.Options
		if to, err = tiffOptions(opts.Extra); err == nil {
			err = tiff.Encode(&buf, img, to)
		}
	case "webp":
		var wo *webp.EncoderOptions
		if wo, err = webpOptions(opts); err == nil {
			err = webp.Encode(&buf, img, wo)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedTarget, opts.Format)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrEncode, format, err)
	}

	b := img.Bounds()
	return &Result{
		Data:      buf.Bytes(),
		Format:    format,
		Width:     b.Dx(),
		Height:    b.Dy(),
		Frames:    1,
		LoopCount: source.LoopAbsent,
	}, nil
}

// opaque drops the alpha channel, keeping the stored color of every pixel.
func opaque(img image.Image) image.Image {
	b := img.Bounds()
	m := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	if src, ok := img.(*image.NRGBA); ok {
		for y := 0; y < b.Dy(); y++ {
			i := src.PixOffset(b.Min.X, b.Min.Y+y)
			copy(m.Pix[y*m.Stride:(y+1)*m.Stride], src.Pix[i:i+m.Stride])
		}
	} else {
		draw.Draw(m, m.Bounds(), img, b.Min, draw.Src)
	}
	for i := 3; i < len(m.Pix); i += 4 {
		m.Pix[i] = 0xff
	}
	return m
}

func pngCompression(s string) (png.CompressionLevel, error) {
	switch s {
	case "", "default":
		return png.DefaultCompression, nil
	case "none":
		return png.NoCompression, nil
	case "speed":
		return png.BestSpeed, nil
	case "best":
		return png.BestCompression, nil
	}
	return 0, fmt.Errorf("%w: png compression %q", ErrUnsupportedTarget, s)
}

func tiffOptions(extra map[string]string) (*tiff.Options, error) {
	o := &tiff.Options{}
	switch c := extra["compression"]; c {
	case "", "none":
		o.Compression = tiff.Uncompressed
	case "deflate":
		o.Compression = tiff.Deflate
	default:
		return nil, fmt.Errorf("%w: tiff compression %q", ErrUnsupportedTarget, c)
	}
	if p, ok := extra["predictor"]; ok {
		v, err := strconv.ParseBool(p)
		if err != nil {
			return nil, fmt.Errorf("%w: tiff predictor %q", ErrUnsupportedTarget, p)
		}
		o.Predictor = v
	}
	return o, nil
}

func webpOptions(opts Options) (*webp.EncoderOptions, error) {
	q := opts.Quality
	if q == 0 {
		q = DefaultQuality
	}
	o := webp.DefaultOptions()
	o.Quality = float32(q)
	if l, ok := opts.Extra["lossless"]; ok {
		v, err := strconv.ParseBool(l)
		if err != nil {
			return nil, fmt.Errorf("%w: webp lossless %q", ErrUnsupportedTarget, l)
		}
		o.Lossless = v
	}
	if m, ok := opts.Extra["method"]; ok {
		v, err := strconv.Atoi(m)
		if err != nil || v < 0 || v > 6 {
			return nil, fmt.Errorf("%w: webp method %q", ErrUnsupportedTarget, m)
		}
		o.Method = v
	}
	return o, nil
}
