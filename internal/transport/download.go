package transport

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"darkroom/pkg/imgutil"
)

// Downloader receives attachment bodies; it is the client-side "save as"
// of a download.
type Downloader interface {
	Download(ctx context.Context, blob Blob) (string, error)
}

// DirDownloader writes attachments into Dir. The body goes to a temporary
// file that is renamed into place, so a failed download never leaves a
// truncated file under the final name.
type DirDownloader struct {
	Dir string
	// Overwrite allows replacing an existing file of the same name;
	// otherwise a numbered name is chosen.
	Overwrite bool
}

func (d DirDownloader) Download(ctx context.Context, blob Blob) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	dir := d.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	name := blob.Name
	if name == "" {
		kind, _ := imgutil.DetectHeader(blob.Data)
		name = "export" + kind.Ext()
	}
	destPath := filepath.Join(dir, name)
	if !d.Overwrite {
		destPath = uniquePath(destPath)
	}

	tmpFile, err := os.CreateTemp(dir, "darkroom-*.tmp")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.Write(blob.Data); err != nil {
		_ = tmpFile.Close()
		return "", err
	}
	if err := tmpFile.Sync(); err != nil {
		_ = tmpFile.Close()
		return "", err
	}
	if err := tmpFile.Close(); err != nil {
		return "", err
	}
	if err := os.Chmod(tmpFile.Name(), 0o644); err != nil {
		return "", err
	}

	if err := replaceFile(tmpFile.Name(), destPath); err != nil {
		return "", err
	}
	return destPath, nil
}

func uniquePath(p string) string {
	if _, err := os.Stat(p); os.IsNotExist(err) {
		return p
	}
	ext := filepath.Ext(p)
	base := strings.TrimSuffix(p, ext)
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s (%d)%s", base, i, ext)
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}

func replaceFile(tmpPath, destPath string) error {
	if err := os.Rename(tmpPath, destPath); err == nil {
		return nil
	}
	if err := os.Remove(destPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return os.Rename(tmpPath, destPath)
}
