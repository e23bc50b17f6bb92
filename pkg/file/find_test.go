package file

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindOlderThan(t *testing.T) {
	dir := t.TempDir()
	stalePath := filepath.Join(dir, "stale.mp4")
	freshPath := filepath.Join(dir, "fresh.mp4")
	require.NoError(t, os.WriteFile(stalePath, []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(freshPath, []byte("b"), 0o644))

	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(stalePath, old, old))

	// Subdirectories are skipped entirely.
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))

	stale, err := FindOlderThan(dir, time.Now().Add(-time.Hour))

	require.NoError(t, err)
	assert.Equal(t, []string{stalePath}, stale)
}

func TestFindOlderThan_MissingDir(t *testing.T) {
	_, err := FindOlderThan(filepath.Join(t.TempDir(), "nope"), time.Now())
	require.Error(t, err)
}
