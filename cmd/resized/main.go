package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ivlev/resized/internal/config"
	"github.com/ivlev/resized/internal/engine"
	"github.com/ivlev/resized/internal/source"
	"github.com/ivlev/resized/internal/system"
	"github.com/ivlev/resized/internal/transform"
)

func main() {
	inputPtr := flag.String("input", "", "Image file or directory of images")
	outputPtr := flag.String("output", "output", "Output directory")
	sizePtr := flag.String("size", "", "Target size WxH")
	cropPtr := flag.String("crop", "", "Fit-crop anchor: center, top-left, ..., or x,y fractions (empty: thumbnail)")
	boxPtr := flag.String("box", "", "Explicit crop rectangle x0,y0,x1,y1")
	formatPtr := flag.String("format", "", "Target format: jpeg, png, gif, bmp, tiff, webp (empty: keep source format)")
	qualityPtr := flag.Int("quality", config.DefaultQuality, "JPEG and WebP quality 1-100")
	resamplePtr := flag.String("resample", transform.DefaultFilter, "Resampling filter")
	ditherPtr := flag.Bool("dither", false, "Dither when reducing to a palette")
	metadataPtr := flag.String("metadata", config.DefaultMetadata, "Missing animation metadata: passthrough, defaults, strict")
	profilePtr := flag.String("profile", "", "YAML profile file")
	namePtr := flag.String("name", "", "Profile name inside -profile")
	workersPtr := flag.Int("workers", system.DefaultWorkers(), "Parallel workers")
	verbosePtr := flag.Bool("v", false, "Verbose logging")
	var options optionFlag
	flag.Var(&options, "o", "Encoder option key=value (repeatable)")

	flag.Parse()

	var level slog.LevelVar
	if *verbosePtr {
		level.Set(slog.LevelDebug)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: &level}))
	slog.SetDefault(logger)

	if *inputPtr == "" {
		fatal("missing -input")
	}

	var cfg config.Config
	if *profilePtr != "" {
		profiles, err := config.Load(*profilePtr)
		if err != nil {
			fatal("cannot load profiles", "err", err)
		}
		if cfg, err = profiles.Profile(*namePtr); err != nil {
			fatal("cannot select profile", "err", err)
		}
	} else {
		w, h, err := parseSize(*sizePtr)
		if err != nil && *boxPtr == "" {
			fatal("invalid -size", "err", err)
		}
		cfg = config.Config{
			Width:    w,
			Height:   h,
			Crop:     *cropPtr,
			Box:      *boxPtr,
			Format:   *formatPtr,
			Quality:  *qualityPtr,
			Resample: *resamplePtr,
			Dither:   *ditherPtr,
			Metadata: *metadataPtr,
			Options:  options,
		}
	}

	spec, opts, err := engine.FromConfig(cfg)
	if err != nil {
		fatal("invalid configuration", "err", err)
	}
	opts.Logger = logger

	inputs := []string{*inputPtr}
	if fi, err := os.Stat(*inputPtr); err != nil {
		fatal("cannot read input", "err", err)
	} else if fi.IsDir() {
		if inputs, err = system.FindImages(*inputPtr); err != nil {
			fatal("cannot list input", "err", err)
		}
	}
	// Создаем выходную директорию, если ее нет
	if err := os.MkdirAll(*outputPtr, 0755); err != nil {
		fatal("cannot create output directory", "err", err)
	}
	// Увеличиваем лимит открытых файлов (для macOS/Linux)
	system.InitResourceLimits(2048)

	start := time.Now()
	logger.Info("processing", "files", len(inputs), "workers", *workersPtr, "spec", fmt.Sprintf("%T", spec))

	// Уникальные имена выходных файлов раздаем до запуска воркеров
	names := system.OutputNames(inputs)
	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(max(*workersPtr, 1))
	for _, path := range inputs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return processFile(path, *outputPtr, names[path], spec, opts)
		})
	}
	if err := g.Wait(); err != nil {
		fatal("batch failed", "err", err)
	}

	logger.Info("done", "files", len(inputs), "elapsed", time.Since(start).Round(time.Millisecond))
}

func processFile(path, outDir, name string, spec transform.Spec, opts engine.Options) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	anim, err := source.Decode(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	res, err := engine.Process(anim, spec, opts)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	out := system.OutputPath(outDir, name, res.Format)
	if err := os.WriteFile(out, res.Data, 0644); err != nil {
		return err
	}
	slog.Info("ready", "input", path, "output", out, "size", fmt.Sprintf("%dx%d", res.Width, res.Height), "frames", res.Frames)
	return nil
}

// parseSize parses "WxH".
func parseSize(s string) (int, int, error) {
	ws, hs, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return 0, 0, fmt.Errorf("size %q is not WxH", s)
	}
	w, err := strconv.Atoi(ws)
	if err != nil {
		return 0, 0, fmt.Errorf("size %q: %w", s, err)
	}
	h, err := strconv.Atoi(hs)
	if err != nil {
		return 0, 0, fmt.Errorf("size %q: %w", s, err)
	}
	return w, h, nil
}

// optionFlag collects repeated key=value encoder options.
type optionFlag map[string]string

func (o *optionFlag) String() string {
	var parts []string
	for k, v := range *o {
		parts = append(parts, k+"="+v)
	}
	return strings.Join(parts, ",")
}

func (o *optionFlag) Set(s string) error {
	k, v, ok := strings.Cut(s, "=")
	if !ok || k == "" {
		return fmt.Errorf("option %q is not key=value", s)
	}
	if *o == nil {
		*o = optionFlag{}
	}
	(*o)[k] = v
	return nil
}

func fatal(msg string, args ...any) {
	slog.Error(msg, args...)
	os.Exit(1)
}
