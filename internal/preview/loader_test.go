package preview

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"darkroom/internal/query"
	"darkroom/internal/transport"
	"darkroom/pkg/imgutil"
)

func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, image.NewGray(image.Rect(0, 0, w, h)), nil); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestHTTPLoaderRequestsSizedPreview(t *testing.T) {
	img := jpegBytes(t, 64, 48)
	var rawQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rawQuery = r.URL.RawQuery
		if !strings.HasPrefix(r.Header.Get("Accept"), "image/") {
			t.Errorf("Accept = %q", r.Header.Get("Accept"))
		}
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write(img)
	}))
	defer srv.Close()

	l := HTTPLoader{Client: transport.New(), URL: srv.URL + "/photo/a.dng"}
	target := Target{Query: query.Defaults().Query(), Size: 640}
	got, err := l.Load(context.Background(), target)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if want := "preview=640&orientation=1&process=11&profile=Adobe+Standard&whiteBalance=As+Shot"; rawQuery != want {
		t.Fatalf("query = %q, want %q", rawQuery, want)
	}
	if got.Info.Kind != imgutil.KindJPEG || got.Info.Width != 64 || got.Info.Height != 48 {
		t.Fatalf("info = %+v", got.Info)
	}

	if _, err := l.Load(context.Background(), Target{Query: target.Query, Size: query.Unbounded}); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(rawQuery, "preview&orientation=") {
		t.Fatalf("zoomed query = %q", rawQuery)
	}
}

func TestHTTPLoaderRejectsJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	l := HTTPLoader{Client: transport.New(), URL: srv.URL}
	if _, err := l.Load(context.Background(), Target{Query: query.Query{}, Size: 10}); err == nil {
		t.Fatal("expected error for a JSON preview response")
	}
}

func TestFileDisplayWritesFrames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preview.jpg")
	var frames int
	d := &FileDisplay{Path: path, Logger: zerolog.Nop(), OnFrame: func(Frame) { frames++ }}

	d.Show(Frame{Image: Image{Data: []byte("one")}})
	d.Show(Frame{Image: Image{Data: []byte("two")}})

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "two" || frames != 2 {
		t.Fatalf("data %q frames %d", data, frames)
	}
	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Fatalf("leftover files: %d", len(entries))
	}
}
