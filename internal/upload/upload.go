// Package upload loads image files from disk for multipart forms.
package upload

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/collectorscorner/corner/pkg/domain"
)

// Open reads the file at path into an Upload. The content type is sniffed
// from the file contents, not the extension. Files larger than
// domain.MaxImageSize are described but not read, so the validator can
// reject them without loading them into memory.
func Open(path string) (domain.Upload, error) {
	path = expandHome(strings.TrimSpace(path))
	if path == "" {
		return domain.Upload{}, fmt.Errorf("upload.Open: empty path")
	}

	info, err := os.Stat(path)
	if err != nil {
		return domain.Upload{}, fmt.Errorf("upload.Open: %w", err)
	}
	if info.IsDir() {
		return domain.Upload{}, fmt.Errorf("upload.Open: %s is a directory", path)
	}

	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return domain.Upload{}, fmt.Errorf("upload.Open: detect type: %w", err)
	}

	u := domain.Upload{
		Name:        filepath.Base(path),
		ContentType: mt.String(),
		Size:        info.Size(),
	}
	if u.Size > domain.MaxImageSize {
		return u, nil
	}

	u.Data, err = os.ReadFile(path)
	if err != nil {
		return domain.Upload{}, fmt.Errorf("upload.Open: %w", err)
	}
	return u, nil
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
