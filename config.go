package gifstream

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/bodgit/gifstream/indexed"
	"gopkg.in/yaml.v2"
)

// Config holds the options used by a Builder.
type Config struct {
	// Delay between frames in hundredths of a second
	Delay uint16 `yaml:"delay"`
	// Repeat is 0 to loop forever, otherwise the number of extra plays
	// after the first
	Repeat int `yaml:"repeat"`
	// Dispose is one of none, keep, background or previous
	Dispose string `yaml:"dispose"`

	Colors int  `yaml:"colors"`
	Width  int  `yaml:"width"`
	Height int  `yaml:"height"`
	Dither bool `yaml:"dither"`

	Workers int `yaml:"workers"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		Delay:   10,
		Dispose: DisposeNone.String(),
		Colors:  indexed.MaxColors,
		Workers: runtime.NumCPU(),
	}
}

// ReadConfig decodes a YAML configuration from r on top of the defaults.
func ReadConfig(r io.Reader) (Config, error) {
	c := DefaultConfig()
	if err := yaml.NewDecoder(r).Decode(&c); err != nil && err != io.EOF {
		return Config{}, err
	}
	return c, c.validate()
}

// LoadConfig reads a YAML configuration file.
func LoadConfig(file string) (Config, error) {
	f, err := os.Open(file)
	if err != nil {
		return Config{}, err
	}
	defer f.Close()

	return ReadConfig(f)
}

func (c Config) validate() error {
	if c.Repeat < 0 || c.Repeat > 0xffff {
		return fmt.Errorf("repeat %d out of range", c.Repeat)
	}
	if _, err := ParseDispose(c.Dispose); err != nil {
		return err
	}
	if c.Colors < 0 || c.Colors > indexed.MaxColors {
		return fmt.Errorf("colors %d out of range", c.Colors)
	}
	if c.Width < 0 || c.Width > 0xffff || c.Height < 0 || c.Height > 0xffff {
		return fmt.Errorf("size %dx%d out of range", c.Width, c.Height)
	}
	return nil
}

// Settings returns the encoder settings for c.
func (c Config) Settings() Settings {
	if c.Repeat == 0 {
		return Settings{Repeat: RepeatInfinite}
	}
	return Settings{Repeat: RepeatFinite(uint16(c.Repeat))}
}

func (c Config) options() indexed.Options {
	return indexed.Options{
		Colors: c.Colors,
		Width:  c.Width,
		Height: c.Height,
		Dither: c.Dither,
	}
}

// ParseDispose returns the disposal method with the given name. An empty
// name is DisposeNone.
func ParseDispose(s string) (Dispose, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return DisposeNone, nil
	case "keep":
		return DisposeKeep, nil
	case "background":
		return DisposeBackground, nil
	case "previous":
		return DisposePrevious, nil
	}
	return DisposeNone, fmt.Errorf("unknown dispose method %q", s)
}
