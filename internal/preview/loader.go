package preview

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"darkroom/internal/query"
	"darkroom/internal/transport"
	"darkroom/pkg/imgutil"
)

// HTTPLoader requests previews from a photo URL.
type HTTPLoader struct {
	Client *transport.Client
	// URL of the photo, without query.
	URL string
}

func (l HTTPLoader) Load(ctx context.Context, t Target) (Image, error) {
	u := l.URL + "?" + query.WithSize(t.Size, t.Query).Encode()
	out, err := l.Client.Send(ctx, http.MethodGet, u, transport.Options{Accept: "image/*"})
	if err != nil {
		return Image{}, err
	}
	raw, ok := out.(transport.Raw)
	if !ok {
		return Image{}, fmt.Errorf("preview: unexpected %s response", out.Shape())
	}
	info, err := imgutil.Inspect(raw.Data)
	if err != nil {
		return Image{}, fmt.Errorf("preview: %w", err)
	}
	return Image{Data: raw.Data, Info: info}, nil
}

// FileDisplay writes every preview it is shown to Path, replacing the file
// atomically so viewers watching it never read a partial image.
type FileDisplay struct {
	Path   string
	Logger zerolog.Logger
	// OnFrame is called after a frame was written.
	OnFrame func(Frame)
	// OnBusy mirrors busy changes.
	OnBusy func(bool)
	// OnFailed is called after a failure was logged.
	OnFailed func(error)
}

func (d *FileDisplay) Show(f Frame) {
	if err := writeAtomic(d.Path, f.Data); err != nil {
		d.Logger.Error().Err(err).Str("path", d.Path).Msg("writing preview failed")
		return
	}
	d.Logger.Info().
		Uint64("seq", f.Seq).
		Stringer("size", f.Target.Size).
		Int("width", f.Info.Width).
		Int("height", f.Info.Height).
		Bool("stale", f.Stale).
		Msg("preview updated")
	if d.OnFrame != nil {
		d.OnFrame(f)
	}
}

func (d *FileDisplay) Busy(busy bool) {
	d.Logger.Debug().Bool("busy", busy).Msg("preview busy")
	if d.OnBusy != nil {
		d.OnBusy(busy)
	}
}

func (d *FileDisplay) Failed(err error) {
	d.Logger.Error().Err(err).Msg("preview failed")
	if d.OnFailed != nil {
		d.OnFailed(err)
	}
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".preview-*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
