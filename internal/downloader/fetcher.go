package downloader

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"reelfetch/internal/media"
)

// ChunkSize is the buffer used when streaming media bodies to disk.
const ChunkSize = 8192

// Fetcher downloads one request to dest. Implementations leave dest absent or
// partial on failure; the dispatcher cleans up.
type Fetcher interface {
	Fetch(ctx context.Context, req media.Request, dest string) error
}

// scratchPath names a fresh download target such as youtube-<uuid>.mp4.
func scratchPath(dir string, platform media.Platform) string {
	return filepath.Join(dir, fmt.Sprintf("%s-%s.mp4", platform, uuid.NewString()))
}

// copyChunks streams src into dest ChunkSize bytes at a time and syncs the
// file before closing it.
func copyChunks(dest string, src io.Reader) (int64, error) {
	file, err := os.OpenFile(dest, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", dest, err)
	}
	buf := make([]byte, ChunkSize)
	var written int64
	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			w, writeErr := file.Write(buf[:n])
			written += int64(w)
			if writeErr != nil {
				_ = file.Close()
				return written, fmt.Errorf("write %s: %w", dest, writeErr)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			_ = file.Close()
			return written, fmt.Errorf("read body: %w", readErr)
		}
	}
	if err := file.Sync(); err != nil {
		_ = file.Close()
		return written, fmt.Errorf("sync %s: %w", dest, err)
	}
	if err := file.Close(); err != nil {
		return written, fmt.Errorf("close %s: %w", dest, err)
	}
	return written, nil
}
