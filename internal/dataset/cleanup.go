package dataset

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// CleanupTemp borra imágenes temporales (*.tmp) más antiguas que maxAge
// dejadas por corridas interrumpidas. Retorna cuántas eliminó.
func (w *Writer) CleanupTemp(ctx context.Context, maxAge time.Duration) (int, error) {
	if _, err := os.Stat(w.root); os.IsNotExist(err) {
		return 0, nil
	}

	cutoff := time.Now().Add(-maxAge)
	deleted := 0
	err := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".tmp") {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		if info.ModTime().After(cutoff) {
			return nil
		}
		if err := os.Remove(path); err != nil {
			w.logger.Warnw("Failed to delete temp file", "path", path, "error", err)
			return nil
		}
		deleted++
		return nil
	})

	if deleted > 0 {
		w.logger.Infow("Temp files cleaned up", "root", w.root, "deleted", deleted)
	}
	return deleted, err
}
