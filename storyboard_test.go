package gifstream

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSheet = `FILE "frames/b.png" BINARY
  TRACK 01 MODE1/2048
    INDEX 01 00:00:00
FILE "frames/a.png" BINARY
  TRACK 02 MODE1/2048
    INDEX 01 00:00:00
`

func touch(t *testing.T, file string) {
	require.Nil(t, os.MkdirAll(filepath.Dir(file), 0o755))
	require.Nil(t, os.WriteFile(file, nil, 0o644))
}

func TestSourcesDirectory(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"002.png", "001.PNG", "003.gif", ".hidden.png", "notes.txt"} {
		touch(t, filepath.Join(dir, name))
	}
	require.Nil(t, os.Mkdir(filepath.Join(dir, "sub.png"), 0o755))

	files, err := Sources([]string{dir})
	require.Nil(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "001.PNG"),
		filepath.Join(dir, "002.png"),
		filepath.Join(dir, "003.gif"),
	}, files)
}

func TestSourcesStoryboard(t *testing.T) {
	dir := t.TempDir()
	sheet := filepath.Join(dir, "walk.cue")
	require.Nil(t, os.WriteFile(sheet, []byte(testSheet), 0o644))

	extra := filepath.Join(dir, "last.png")
	touch(t, extra)

	files, err := Sources([]string{sheet, extra})
	require.Nil(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "frames", "b.png"),
		filepath.Join(dir, "frames", "a.png"),
		extra,
	}, files)
}

func TestSourcesErrors(t *testing.T) {
	_, err := Sources(nil)
	assert.Equal(t, errNoSources, err)

	_, err = Sources([]string{t.TempDir()})
	assert.Equal(t, errNoSources, err)

	_, err = Sources([]string{filepath.Join(t.TempDir(), "missing.png")})
	assert.True(t, os.IsNotExist(err))
}
