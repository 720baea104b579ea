package history

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRotate(t *testing.T) {
	root := t.TempDir()
	folder := filepath.Join(root, "downloaded_pages")

	rotated, err := Rotate(folder)
	require.NoError(t, err)
	assert.False(t, rotated, "missing folder")

	require.NoError(t, os.MkdirAll(folder, 0755))
	rotated, err = Rotate(folder)
	require.NoError(t, err)
	assert.False(t, rotated, "empty folder")

	require.NoError(t, os.WriteFile(filepath.Join(folder, "page_1.html"), []byte("first"), 0644))
	rotated, err = Rotate(folder)
	require.NoError(t, err)
	assert.True(t, rotated)
	assert.NoDirExists(t, folder)
	assert.FileExists(t, filepath.Join(OldFolder(folder), "page_1.html"))

	// A second rotation replaces the earlier copy.
	require.NoError(t, os.MkdirAll(folder, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(folder, "page_9.html"), []byte("second"), 0644))
	rotated, err = Rotate(folder)
	require.NoError(t, err)
	assert.True(t, rotated)
	assert.NoFileExists(t, filepath.Join(OldFolder(folder), "page_1.html"))
	assert.FileExists(t, filepath.Join(OldFolder(folder), "page_9.html"))
}

func TestWriteAndReadEmails(t *testing.T) {
	folder := filepath.Join(t.TempDir(), "out")

	path, err := WriteEmails(folder, []string{"a@example.com", "b@example.com"})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a@example.com\nb@example.com\n", string(data))

	got, err := ReadEmails(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, got)
}

func TestCompare(t *testing.T) {
	folder := filepath.Join(t.TempDir(), "downloaded_pages")

	_, err := WriteEmails(folder, []string{"amy@example.com", "bob@example.com", "dan@example.com"})
	require.NoError(t, err)

	change, err := Compare(folder)
	require.NoError(t, err)
	assert.False(t, change.Previous)
	assert.True(t, change.Empty())
	assert.NoFileExists(t, filepath.Join(folder, DiffFile))

	_, err = Rotate(folder)
	require.NoError(t, err)
	_, err = WriteEmails(folder, []string{"amy@example.com", "cat@example.com", "dan@example.com", "eve@example.com"})
	require.NoError(t, err)

	change, err = Compare(folder)
	require.NoError(t, err)
	assert.True(t, change.Previous)
	assert.Equal(t, []string{"cat@example.com", "eve@example.com"}, change.Added)
	assert.Equal(t, []string{"bob@example.com"}, change.Removed)

	data, err := os.ReadFile(filepath.Join(folder, DiffFile))
	require.NoError(t, err)
	assert.Equal(t, "+cat@example.com\n+eve@example.com\n-bob@example.com\n", string(data))
}

func TestCompare_Unchanged(t *testing.T) {
	folder := filepath.Join(t.TempDir(), "pages")
	addrs := []string{"amy@example.com"}

	_, err := WriteEmails(folder, addrs)
	require.NoError(t, err)
	_, err = Rotate(folder)
	require.NoError(t, err)
	_, err = WriteEmails(folder, addrs)
	require.NoError(t, err)

	change, err := Compare(folder)
	require.NoError(t, err)
	assert.True(t, change.Previous)
	assert.True(t, change.Empty())
}

func TestCompare_MissingCurrent(t *testing.T) {
	_, err := Compare(filepath.Join(t.TempDir(), "nothing"))
	require.Error(t, err)
}
