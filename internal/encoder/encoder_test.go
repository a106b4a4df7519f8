package encoder

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	xwebp "golang.org/x/image/webp"

	"github.com/ivlev/resized/internal/source"
)

var pal = color.Palette{
	color.NRGBA{0, 0, 0, 255},
	color.NRGBA{255, 0, 0, 255},
	color.NRGBA{0, 255, 0, 255},
	color.NRGBA{0, 0, 255, 255},
}

func canvas(w, h int, c color.NRGBA) *image.NRGBA {
	m := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(m.Pix); i += 4 {
		m.Pix[i], m.Pix[i+1], m.Pix[i+2], m.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return m
}

func sequence(n int, palette color.Palette) Sequence {
	seq := Sequence{Palette: palette, LoopCount: source.LoopAbsent}
	for i := 0; i < n; i++ {
		c := pal[1+i%3].(color.NRGBA)
		seq.Frames = append(seq.Frames, source.Frame{Image: canvas(12, 8, c), Palette: palette})
	}
	return seq
}

func TestEncodeSequenceRoundTripsMetadata(t *testing.T) {
	seq := sequence(3, pal)
	seq.LoopCount = 0
	seq.Delays = []int{10, 10, 10}

	res, err := EncodeSequence(seq, Options{Format: "gif"})
	if err != nil {
		t.Fatalf("EncodeSequence failed: %v", err)
	}
	g, err := gif.DecodeAll(bytes.NewReader(res.Data))
	if err != nil {
		t.Fatalf("Output does not decode: %v", err)
	}
	if len(g.Image) != 3 {
		t.Errorf("Expected 3 frames, got %d", len(g.Image))
	}
	if g.LoopCount != 0 {
		t.Errorf("Expected loop 0, got %d", g.LoopCount)
	}
	if diff := cmp.Diff([]int{10, 10, 10}, g.Delay); diff != "" {
		t.Errorf("Delays mismatch (-want +got):\n%s", diff)
	}
	want := []time.Duration{100 * time.Millisecond, 100 * time.Millisecond, 100 * time.Millisecond}
	if diff := cmp.Diff(want, res.Durations()); diff != "" {
		t.Errorf("Durations mismatch (-want +got):\n%s", diff)
	}
	if res.Frames != 3 || res.Width != 12 || res.Height != 8 || res.Format != "gif" {
		t.Errorf("Unexpected result header: %+v", res)
	}
}

func TestEncodeSequenceFramesAreFullCanvas(t *testing.T) {
	res, err := EncodeSequence(sequence(4, pal), Options{Format: "gif"})
	if err != nil {
		t.Fatalf("EncodeSequence failed: %v", err)
	}
	g, err := gif.DecodeAll(bytes.NewReader(res.Data))
	if err != nil {
		t.Fatalf("Output does not decode: %v", err)
	}
	for i, m := range g.Image {
		if m.Bounds() != image.Rect(0, 0, 12, 8) {
			t.Errorf("Frame %d bounds %v", i, m.Bounds())
		}
		if g.Disposal[i] != gif.DisposalBackground {
			t.Errorf("Frame %d disposal %d", i, g.Disposal[i])
		}
		want := pal[1+i%3]
		if got := color.NRGBAModel.Convert(m.At(3, 3)); got != want {
			t.Errorf("Frame %d pixel: expected %v, got %v", i, want, got)
		}
	}
}

func TestEncodeSequenceMetadataPolicy(t *testing.T) {
	tests := []struct {
		name       string
		policy     MetadataPolicy
		wantLoop   int
		wantDelays []int
		wantErr    error
	}{
		{"passthrough", Passthrough, -1, []int{0, 0}, nil},
		{"defaults", Defaults, 0, []int{DefaultDelay, DefaultDelay}, nil},
		{"strict", Strict, 0, nil, ErrMissingMetadata},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := EncodeSequence(sequence(2, pal), Options{Metadata: tt.policy})
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("EncodeSequence failed: %v", err)
			}
			g, err := gif.DecodeAll(bytes.NewReader(res.Data))
			if err != nil {
				t.Fatalf("Output does not decode: %v", err)
			}
			if g.LoopCount != tt.wantLoop || res.LoopCount != tt.wantLoop {
				t.Errorf("Expected loop %d, got %d (result %d)", tt.wantLoop, g.LoopCount, res.LoopCount)
			}
			if diff := cmp.Diff(tt.wantDelays, g.Delay); diff != "" {
				t.Errorf("Delays mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEncodeSequenceQuantizesFramesWithoutPalette(t *testing.T) {
	seq := sequence(2, nil)
	seq.Frames[1].Image.(*image.NRGBA).SetNRGBA(0, 0, color.NRGBA{})

	res, err := EncodeSequence(seq, Options{Extra: map[string]string{"colors": "16"}})
	if err != nil {
		t.Fatalf("EncodeSequence failed: %v", err)
	}
	g, err := gif.DecodeAll(bytes.NewReader(res.Data))
	if err != nil {
		t.Fatalf("Output does not decode: %v", err)
	}
	if len(g.Image[0].Palette) > 16 {
		t.Errorf("Expected at most 16 colors, got %d", len(g.Image[0].Palette))
	}
	if _, _, _, a := g.Image[1].At(0, 0).RGBA(); a != 0 {
		t.Errorf("Expected transparent pixel to survive quantization, alpha %d", a)
	}
}

func TestEncodeSequenceRejectsBadInput(t *testing.T) {
	mismatched := sequence(2, pal)
	mismatched.Frames[1].Image = canvas(5, 5, color.NRGBA{A: 255})

	delays := sequence(2, pal)
	delays.Delays = []int{1}

	tests := []struct {
		name    string
		seq     Sequence
		opts    Options
		wantErr error
	}{
		{"no frames", Sequence{}, Options{}, ErrEncode},
		{"mismatched bounds", mismatched, Options{}, ErrEncode},
		{"mismatched delays", delays, Options{}, ErrEncode},
		{"bad colors", sequence(2, pal), Options{Extra: map[string]string{"colors": "1000"}}, ErrUnsupportedTarget},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := EncodeSequence(tt.seq, tt.opts)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestEncodeStill(t *testing.T) {
	img := canvas(20, 10, color.NRGBA{200, 100, 50, 255})

	tests := []struct {
		format string
		opts   Options
		decode func(*bytes.Reader) (image.Image, error)
		want   string
	}{
		{"jpeg", Options{Quality: 90}, func(r *bytes.Reader) (image.Image, error) { return jpeg.Decode(r) }, "jpeg"},
		{"JPG", Options{}, func(r *bytes.Reader) (image.Image, error) { return jpeg.Decode(r) }, "jpeg"},
		{"png", Options{Extra: map[string]string{"compression": "best"}}, func(r *bytes.Reader) (image.Image, error) { return png.Decode(r) }, "png"},
		{"gif", Options{}, func(r *bytes.Reader) (image.Image, error) { return gif.Decode(r) }, "gif"},
		{"bmp", Options{}, func(r *bytes.Reader) (image.Image, error) { return bmp.Decode(r) }, "bmp"},
		{"tiff", Options{Extra: map[string]string{"compression": "deflate", "predictor": "true"}}, func(r *bytes.Reader) (image.Image, error) { return tiff.Decode(r) }, "tiff"},
		{"webp", Options{Quality: 90}, func(r *bytes.Reader) (image.Image, error) { return xwebp.Decode(r) }, "webp"},
		{"webp", Options{Extra: map[string]string{"lossless": "true", "method": "2"}}, func(r *bytes.Reader) (image.Image, error) { return xwebp.Decode(r) }, "webp"},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			tt.opts.Format = tt.format
			res, err := EncodeStill(source.Frame{Image: img}, tt.opts)
			if err != nil {
				t.Fatalf("EncodeStill failed: %v", err)
			}
			if res.Format != tt.want || res.Frames != 1 || res.Delays != nil {
				t.Errorf("Unexpected result header: %+v", res)
			}
			out, err := tt.decode(bytes.NewReader(res.Data))
			if err != nil {
				t.Fatalf("Output does not decode: %v", err)
			}
			if out.Bounds().Size() != image.Pt(20, 10) {
				t.Errorf("Expected 20x10, got %v", out.Bounds().Size())
			}
		})
	}
}

func TestEncodeStillJPEGDropsAlpha(t *testing.T) {
	img := canvas(8, 8, color.NRGBA{255, 255, 255, 0})
	res, err := EncodeStill(source.Frame{Image: img}, Options{Format: "jpeg", Quality: 100})
	if err != nil {
		t.Fatalf("EncodeStill failed: %v", err)
	}
	out, err := jpeg.Decode(bytes.NewReader(res.Data))
	if err != nil {
		t.Fatalf("Output does not decode: %v", err)
	}
	if r, _, _, _ := out.At(4, 4).RGBA(); r>>8 < 240 {
		t.Errorf("Expected stored white to survive, got red %d", r>>8)
	}
}

func TestEncodeStillGIFKeepsPalette(t *testing.T) {
	img := canvas(4, 4, color.NRGBA{0, 250, 0, 255})
	res, err := EncodeStill(source.Frame{Image: img, Palette: pal}, Options{Format: "gif"})
	if err != nil {
		t.Fatalf("EncodeStill failed: %v", err)
	}
	out, err := gif.Decode(bytes.NewReader(res.Data))
	if err != nil {
		t.Fatalf("Output does not decode: %v", err)
	}
	if got := color.NRGBAModel.Convert(out.At(1, 1)); got != pal[2] {
		t.Errorf("Expected nearest palette entry %v, got %v", pal[2], got)
	}
}

func TestEncodeStillRejectsUnsupported(t *testing.T) {
	img := canvas(2, 2, color.NRGBA{A: 255})
	tests := []Options{
		{Format: "avif"},
		{Format: ""},
		{Format: "webp", Extra: map[string]string{"lossless": "sometimes"}},
		{Format: "webp", Extra: map[string]string{"method": "9"}},
		{Format: "png", Extra: map[string]string{"compression": "max"}},
		{Format: "tiff", Extra: map[string]string{"compression": "lzw"}},
		{Format: "tiff", Extra: map[string]string{"predictor": "maybe"}},
	}
	for _, opts := range tests {
		if _, err := EncodeStill(source.Frame{Image: img}, opts); !errors.Is(err, ErrUnsupportedTarget) {
			t.Errorf("%+v: expected ErrUnsupportedTarget, got %v", opts, err)
		}
	}
}

func TestParseMetadataPolicy(t *testing.T) {
	for in, want := range map[string]MetadataPolicy{"": Passthrough, "Passthrough": Passthrough, "defaults": Defaults, "strict": Strict} {
		got, err := ParseMetadataPolicy(in)
		if err != nil || got != want {
			t.Errorf("ParseMetadataPolicy(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseMetadataPolicy("guess"); err == nil {
		t.Error("Expected error for unknown policy")
	}
}

func TestQuantizePaletteReservesTransparent(t *testing.T) {
	img := canvas(6, 6, color.NRGBA{10, 200, 30, 255})
	img.SetNRGBA(2, 2, color.NRGBA{250, 0, 0, 255})

	got := quantizePalette(img, 8, true)
	if len(got) == 0 || len(got) > 8 {
		t.Fatalf("Expected 1..8 colors, got %d", len(got))
	}
	found := false
	for _, c := range got {
		if _, _, _, a := c.RGBA(); a == 0 {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected a transparent entry in %v", got)
	}
}
