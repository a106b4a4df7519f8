package system

import (
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFindImages(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.GIF", "a.png", "notes.txt", "c.jpeg"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "d.png"), 0755); err != nil {
		t.Fatal(err)
	}

	got, err := FindImages(dir)
	if err != nil {
		t.Fatalf("FindImages failed: %v", err)
	}
	want := []string{
		filepath.Join(dir, "a.png"),
		filepath.Join(dir, "b.GIF"),
		filepath.Join(dir, "c.jpeg"),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("unexpected files (-want +got):\n%s", diff)
	}
}

func TestFindImagesEmpty(t *testing.T) {
	if _, err := FindImages(t.TempDir()); err == nil {
		t.Error("Expected error for a directory without images")
	}
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		name, format, want string
	}{
		{"my_cat", "gif", "/out/my_cat.gif"},
		{"photo", "jpeg", "/out/photo.jpg"},
		{"scan", "tiff", "/out/scan.tiff"},
	}
	for _, tt := range tests {
		if got := OutputPath("/out", tt.name, tt.format); got != filepath.FromSlash(tt.want) {
			t.Errorf("OutputPath(%q, %q) = %q, want %q", tt.name, tt.format, got, tt.want)
		}
	}
}

func TestOutputNames(t *testing.T) {
	inputs := []string{"/in/a.gif", "/in/a.png", "/in/my cat.gif", "/in/b.jpeg", "/in/A.GIF", "/other/a.gif"}
	want := map[string]string{
		"/in/a.gif":      "a_gif",
		"/in/a.png":      "a_png",
		"/in/my cat.gif": "my_cat",
		"/in/b.jpeg":     "b",
		"/in/A.GIF":      "A_gif_2",
		"/other/a.gif":   "a_gif_3",
	}
	if diff := cmp.Diff(want, OutputNames(inputs)); diff != "" {
		t.Errorf("unexpected names (-want +got):\n%s", diff)
	}
}

func TestDefaultWorkers(t *testing.T) {
	if n := DefaultWorkers(); n < 1 {
		t.Errorf("Expected at least one worker, got %d", n)
	}
}

func TestCanvasPool(t *testing.T) {
	size := image.Pt(7, 3)
	c := GetCanvas(size)
	if c.Bounds() != image.Rect(0, 0, 7, 3) {
		t.Fatalf("Expected 7x3 canvas, got %v", c.Bounds())
	}
	PutCanvas(c)
	PutCanvas(nil)
	PutCanvas(c.SubImage(image.Rect(1, 1, 3, 3)).(*image.NRGBA))

	if got := GetCanvas(size).Bounds(); got != c.Bounds() {
		t.Errorf("Expected recycled canvas of the same size, got %v", got)
	}
}
