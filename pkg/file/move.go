package file

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Move relocates src to dst, creating dst's directory if needed. A plain
// rename is tried first; when src and dst sit on different filesystems
// (temp scratch vs. output volume) it falls back to copy-and-remove.
func Move(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create destination directory: %w", err)
	}

	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create destination: %w", err)
	}

	_, err = io.Copy(out, in)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(dst)
		return fmt.Errorf("copy to destination: %w", err)
	}

	return os.Remove(src)
}
