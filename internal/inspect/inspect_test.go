package inspect

import (
	"bytes"
	"context"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"darkroom/pkg/imgutil"
)

func TestRunDescribesExports(t *testing.T) {
	dir := t.TempDir()
	if err := buildJPEGWithExif(filepath.Join(dir, "a.jpg")); err != nil {
		t.Fatalf("build JPEG: %v", err)
	}
	if err := os.Mkdir(filepath.Join(dir, "nested"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := buildPNG(filepath.Join(dir, "nested", "b.png"), 3, 2); err != nil {
		t.Fatalf("build PNG: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("not an image at all"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "darkroom-123.tmp"), []byte{0xff, 0xd8, 0xff}, 0o644); err != nil {
		t.Fatal(err)
	}

	paths := []string{
		filepath.Join(dir, "nested", "b.png"),
		filepath.Join(dir, "a.jpg"),
		filepath.Join(dir, "notes.txt"),
		filepath.Join(dir, "darkroom-123.tmp"),
	}
	updates := make(chan Update, 64)
	summary, reports, err := Run(context.Background(), paths, Options{Workers: 2}, updates)
	close(updates)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if summary.Total != 2 || summary.Processed != 2 || summary.Errors != 0 || summary.Leftovers != 1 {
		t.Fatalf("summary = %+v", summary)
	}
	if len(reports) != 2 {
		t.Fatalf("reports = %+v", reports)
	}
	if reports[0].Path != paths[1] || reports[1].Path != paths[0] {
		t.Fatalf("paths = %q, %q", reports[0].Path, reports[1].Path)
	}

	jpg := reports[0]
	if jpg.Info.Kind != imgutil.KindJPEG || jpg.Metadata.Model != "TestCam" || jpg.Metadata.Taken == "" {
		t.Fatalf("jpeg report = %+v", jpg)
	}
	pngReport := reports[1]
	if pngReport.Info != (imgutil.Info{Kind: imgutil.KindPNG, Width: 3, Height: 2}) {
		t.Fatalf("png report = %+v", pngReport)
	}
	if summary.Bytes != jpg.Size+pngReport.Size {
		t.Fatalf("bytes = %d", summary.Bytes)
	}

	var total, processed int
	for u := range updates {
		total += u.TotalDelta
		processed += u.ProcessedDelta
	}
	if total != 2 || processed != 2 {
		t.Fatalf("updates total %d processed %d", total, processed)
	}
}

func TestRunCountsUnreadableFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "only.png")
	if err := buildPNG(path, 5, 4); err != nil {
		t.Fatal(err)
	}
	paths := []string{path, filepath.Join(dir, "gone.jpg"), dir}
	summary, reports, err := Run(context.Background(), paths, Options{}, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Processed != 1 || summary.Errors != 2 || len(reports) != 1 {
		t.Fatalf("summary %+v reports %+v", summary, reports)
	}
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	paths := make([]string, 100)
	for i := range paths {
		paths[i] = "missing.jpg"
	}
	if _, _, err := Run(ctx, paths, Options{Workers: 1}, nil); err == nil {
		t.Fatal("expected error from canceled run")
	}
}

func TestIsLeftover(t *testing.T) {
	for name, want := range map[string]bool{
		"darkroom-4821.tmp":   true,
		"out/.preview-9.tmp":  true,
		"photo.jpg":           false,
		"darkroom-export.jpg": false,
		"other.tmp":           false,
	} {
		if got := IsLeftover(name); got != want {
			t.Errorf("IsLeftover(%q) = %v, want %v", name, got, want)
		}
	}
}

func buildPNG(path string, w, h int) error {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 0xff, A: 0xff})

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func buildJPEGWithExif(path string) error {
	exifData := buildExifTIFF()
	exif := append([]byte("Exif\x00\x00"), exifData...)

	var buf bytes.Buffer
	buf.Write([]byte{0xff, 0xd8})
	buf.Write([]byte{0xff, 0xe1})
	_ = binary.Write(&buf, binary.BigEndian, uint16(len(exif)+2))
	buf.Write(exif)
	buf.Write([]byte{0xff, 0xd9})

	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func buildExifTIFF() []byte {
	var tiff bytes.Buffer
	tiff.Write([]byte{0x49, 0x49, 0x2a, 0x00})
	_ = binary.Write(&tiff, binary.LittleEndian, uint32(8))
	_ = binary.Write(&tiff, binary.LittleEndian, uint16(2))
	_ = binary.Write(&tiff, binary.LittleEndian, uint16(0x0110))
	_ = binary.Write(&tiff, binary.LittleEndian, uint16(2))
	_ = binary.Write(&tiff, binary.LittleEndian, uint32(8))
	_ = binary.Write(&tiff, binary.LittleEndian, uint32(38))
	_ = binary.Write(&tiff, binary.LittleEndian, uint16(0x0132))
	_ = binary.Write(&tiff, binary.LittleEndian, uint16(2))
	_ = binary.Write(&tiff, binary.LittleEndian, uint32(20))
	_ = binary.Write(&tiff, binary.LittleEndian, uint32(46))
	_ = binary.Write(&tiff, binary.LittleEndian, uint32(0))
	tiff.Write([]byte("TestCam\x00"))
	tiff.Write([]byte("2024:01:02 03:04:05\x00"))
	return tiff.Bytes()
}
