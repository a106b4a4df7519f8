package system

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"syscall"

	"github.com/shirou/gopsutil/v3/cpu"
)

// ImageExtensions are the file suffixes FindImages accepts.
var ImageExtensions = []string{".gif", ".jpg", ".jpeg", ".png", ".bmp", ".tif", ".tiff", ".webp"}

// InitResourceLimits raises the open file limit to n so that a batch with
// many workers does not run out of descriptors.
func InitResourceLimits(n uint64) {
	var rLimit syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		slog.Warn("cannot read open file limit", "err", err)
		return
	}
	if rLimit.Cur >= n {
		return
	}
	rLimit.Cur = min(n, rLimit.Max)
	if err := syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		slog.Warn("cannot raise open file limit", "err", err)
		return
	}
	slog.Debug("open file limit raised", "limit", rLimit.Cur)
}

// DefaultWorkers returns the number of logical CPUs, falling back to
// runtime.NumCPU when the platform does not report it.
func DefaultWorkers() int {
	n, err := cpu.Counts(true)
	if err != nil || n < 1 {
		return runtime.NumCPU()
	}
	return n
}

// IsImage reports whether name has one of ImageExtensions.
func IsImage(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range ImageExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// FindImages returns the images directly inside dir, sorted by name.
// Sub-directories are not searched.
func FindImages(dir string) ([]string, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var out []string
	for _, f := range files {
		if f.IsDir() || !IsImage(f.Name()) {
			continue
		}
		out = append(out, filepath.Join(dir, f.Name()))
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no images found in %s", dir)
	}
	sort.Strings(out)
	return out, nil
}

// OutputNames assigns every input a distinct output name without
// extension. Inputs whose names clash keep their source extension in the
// name, and a counter breaks any clash left after that.
func OutputNames(inputs []string) map[string]string {
	count := make(map[string]int, len(inputs))
	for _, in := range inputs {
		count[strings.ToLower(stem(in))]++
	}
	names := make(map[string]string, len(inputs))
	used := make(map[string]bool, len(inputs))
	for _, in := range inputs {
		name := stem(in)
		if count[strings.ToLower(name)] > 1 {
			if ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(in), ".")); ext != "" {
				name += "_" + ext
			}
		}
		base := name
		for n := 2; used[strings.ToLower(name)]; n++ {
			name = fmt.Sprintf("%s_%d", base, n)
		}
		used[strings.ToLower(name)] = true
		names[in] = name
	}
	return names
}

func stem(input string) string {
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	return strings.ReplaceAll(base, " ", "_")
}

// OutputPath returns the path under dir for an output called name in
// format.
func OutputPath(dir, name, format string) string {
	ext := format
	if ext == "jpeg" {
		ext = "jpg"
	}
	return filepath.Join(dir, name+"."+ext)
}
