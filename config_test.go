package gifstream

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadConfig(t *testing.T) {
	c, err := ReadConfig(strings.NewReader(""))
	require.Nil(t, err)
	assert.Equal(t, DefaultConfig(), c)

	c, err = ReadConfig(strings.NewReader("delay: 4\nrepeat: 3\ndispose: background\ncolors: 64\nwidth: 320\ndither: true\nworkers: 2\n"))
	require.Nil(t, err)
	assert.Equal(t, uint16(4), c.Delay)
	assert.Equal(t, 3, c.Repeat)
	assert.Equal(t, "background", c.Dispose)
	assert.Equal(t, 64, c.Colors)
	assert.Equal(t, 320, c.Width)
	assert.Equal(t, 0, c.Height)
	assert.True(t, c.Dither)
	assert.Equal(t, 2, c.Workers)

	for _, bad := range []string{"repeat: -1\n", "dispose: sideways\n", "colors: 300\n", "width: 70000\n", "delay: [1]\n"} {
		_, err := ReadConfig(strings.NewReader(bad))
		assert.NotNil(t, err, bad)
	}
}

func TestLoadConfig(t *testing.T) {
	file := filepath.Join(t.TempDir(), "gifstream.yaml")
	require.Nil(t, os.WriteFile(file, []byte("repeat: 3\n"), 0o644))

	c, err := LoadConfig(file)
	require.Nil(t, err)
	assert.Equal(t, 3, c.Repeat)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.NotNil(t, err)
}

func TestConfigSettings(t *testing.T) {
	tables := map[int]Repeat{
		0: RepeatInfinite,
		1: RepeatFinite(1),
		5: RepeatFinite(5),
	}
	for repeat, want := range tables {
		assert.Equal(t, want, Config{Repeat: repeat}.Settings().Repeat)
	}
}

func TestParseDispose(t *testing.T) {
	tables := map[string]Dispose{
		"":           DisposeNone,
		"none":       DisposeNone,
		"Keep":       DisposeKeep,
		"background": DisposeBackground,
		" previous ": DisposePrevious,
	}
	for s, want := range tables {
		d, err := ParseDispose(s)
		require.Nil(t, err)
		assert.Equal(t, want, d)
	}

	_, err := ParseDispose("restore")
	assert.NotNil(t, err)
}
