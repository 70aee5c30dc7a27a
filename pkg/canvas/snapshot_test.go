package canvas

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSnapshotterWritesHTML(t *testing.T) {
	dir := filepath.Join(t.TempDir(), ".snapshots")
	snaps, err := NewFileSnapshotter(dir)
	require.NoError(t, err)

	snaps.Snapshot("courses_101_modules", []byte("<html>modules</html>"))

	matches, err := filepath.Glob(filepath.Join(dir, "courses_101_modules_*.html"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.Equal(t, "<html>modules</html>", string(data))
}

func TestFileSnapshotterSanitizesNames(t *testing.T) {
	dir := t.TempDir()
	snaps, err := NewFileSnapshotter(dir)
	require.NoError(t, err)

	snaps.Snapshot("a/b c?d", []byte("x"))

	matches, err := filepath.Glob(filepath.Join(dir, "a_b_c_d_*.html"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}
