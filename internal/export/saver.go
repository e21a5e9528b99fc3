package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Saver writes finished exports into a directory.
type Saver struct {
	Dir string
}

// Save copies file into the directory and returns the final path. The body is
// always closed and the temporary file always removed.
func (s Saver) Save(file File) (path string, err error) {
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("export: close body: %w", cerr)
		}
	}()

	dir := s.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("export: create dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".export-*")
	if err != nil {
		return "", fmt.Errorf("export: temp file: %w", err)
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	if _, err := io.Copy(tmp, file.Body); err != nil {
		return "", fmt.Errorf("export: write %s: %w", file.Name, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("export: flush %s: %w", file.Name, err)
	}
	path = filepath.Join(dir, filepath.Base(file.Name))
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("export: rename %s: %w", file.Name, err)
	}
	return path, nil
}
