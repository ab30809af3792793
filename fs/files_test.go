package fs_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gikai/minutes"
	"github.com/gikai/minutes/fs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFiles_SaveLoadJSON(t *testing.T) {
	t.Parallel()

	files := fs.NewFiles(t.TempDir(), nil)

	in := map[string]string{"committee": "総務委員会"}
	path, err := files.SaveJSON(in, "meta.json", "2024", "03", "15")
	require.NoError(t, err)
	assert.Contains(t, path, filepath.Join("2024", "03", "15"))

	var out map[string]string
	require.NoError(t, files.LoadJSON(path, &out))
	assert.Equal(t, in, out)
}

func TestFiles_SaveLoadText(t *testing.T) {
	t.Parallel()

	files := fs.NewFiles(t.TempDir(), nil)

	path, err := files.SaveText("本日の会議", "minutes.txt")
	require.NoError(t, err)

	got, err := files.LoadText(path)
	require.NoError(t, err)
	assert.Equal(t, "本日の会議", got)
}

func TestFiles_Load_MissingFile(t *testing.T) {
	t.Parallel()

	files := fs.NewFiles(t.TempDir(), nil)

	var v map[string]string
	err := files.LoadJSON(filepath.Join(files.BaseDir(), "nope.json"), &v)
	assert.Equal(t, minutes.ENOTFOUND, minutes.ErrorCode(err))

	_, err = files.LoadText(filepath.Join(files.BaseDir(), "nope.txt"))
	assert.Equal(t, minutes.ENOTFOUND, minutes.ErrorCode(err))
}

func TestFiles_LoadJSON_CorruptFile(t *testing.T) {
	t.Parallel()

	files := fs.NewFiles(t.TempDir(), nil)
	path := filepath.Join(files.BaseDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	var v map[string]string
	err := files.LoadJSON(path, &v)
	assert.Equal(t, minutes.ECACHE, minutes.ErrorCode(err))
}

func TestFiles_DateSubdirs(t *testing.T) {
	t.Parallel()

	files := fs.NewFiles(t.TempDir(), nil)

	got := files.DateSubdirs(time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, []string{"2024", "03", "05"}, got)

	// Zero time means today: just check the shape.
	today := files.DateSubdirs(time.Time{})
	require.Len(t, today, 3)
	assert.Len(t, today[0], 4)
}

func TestFiles_CleanupOlderThan(t *testing.T) {
	t.Parallel()

	files := fs.NewFiles(t.TempDir(), nil)

	oldPath, err := files.SaveText("old", "old.json")
	require.NoError(t, err)
	newPath, err := files.SaveText("new", "new.json")
	require.NoError(t, err)

	stale := time.Now().AddDate(0, 0, -10)
	require.NoError(t, os.Chtimes(oldPath, stale, stale))

	removed, err := files.CleanupOlderThan(7, "*.json")
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	assert.NoFileExists(t, oldPath)
	assert.FileExists(t, newPath)
}

func TestFiles_GenerateFilename(t *testing.T) {
	t.Parallel()

	files := fs.NewFiles(t.TempDir(), nil)
	assert.Equal(t, "6030_1.json", files.GenerateFilename("6030", "1", "json"))
}
