package harvest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// sanitizeFileName strips characters illegal in common filesystems from a
// song name before it becomes part of a file name.
func sanitizeFileName(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '\\', '/', ':', '*', '?', '"', '<', '>', '|':
			return -1
		}
		return r
	}, name)
}

// coverFilePath is the local path a song's cover image is stored at. The
// "{name} - {id}.{ext}" convention is persisted in the database, so it must
// stay stable across versions.
func (h *Harvester) coverFilePath(songName, songID string) string {
	return filepath.Join(h.cfg.CoverDir(),
		fmt.Sprintf("%s - %s.jpg", sanitizeFileName(songName), songID))
}

// audioFilePath is the local path a song's audio file is stored at.
func (h *Harvester) audioFilePath(songName, songID string) string {
	return filepath.Join(h.cfg.StorageDir,
		fmt.Sprintf("%s - %s.m4a", sanitizeFileName(songName), songID))
}

// downloadToFile streams url into path, creating parent directories as
// needed. A failed download removes the partial file so the corresponding
// store field stays null and the step retries on a future run.
func (h *Harvester) downloadToFile(ctx context.Context, url, path string) (int64, string, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, "", fmt.Errorf("create directory for %s: %w", path, err)
	}

	f, err := os.Create(path)
	if err != nil {
		return 0, "", fmt.Errorf("create %s: %w", path, err)
	}

	size, md5sum, err := h.api.Download(ctx, url, f)
	closeErr := f.Close()
	if err != nil {
		os.Remove(path)
		return 0, "", err
	}
	if closeErr != nil {
		os.Remove(path)
		return 0, "", fmt.Errorf("close %s: %w", path, closeErr)
	}
	return size, md5sum, nil
}
