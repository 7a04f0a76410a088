// Package config loads the settings of the hosted simulator. Settings come
// from a TOML file, then an optional .env file and finally the process
// environment, with later sources overriding earlier ones.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/term"

	"spudos/kernel/shell"
)

// EnvPrefix is prepended to the setting names when reading environment
// variables.
const EnvPrefix = "SPUD_"

const (
	fallbackWidth  = 80
	fallbackHeight = 25
)

var (
	isTerminalFn = term.IsTerminal
	getSizeFn    = term.GetSize

	errBadLineBuf = errors.New("linebuf must be at least 2")
	errBadSize    = errors.New("width and height must not be negative")
	errBadBaud    = errors.New("baud must be positive")
)

// Config holds the simulator settings.
type Config struct {
	Username string `toml:"username"`
	Hostname string `toml:"hostname"`

	// Width and Height set the console size in characters. Zero means
	// the size of the controlling terminal.
	Width  int `toml:"width"`
	Height int `toml:"height"`

	LineBuf int `toml:"linebuf"`

	// Serial is the path of the host device used as the serial sink.
	// An empty value disables the sink.
	Serial string `toml:"serial"`
	Baud   int    `toml:"baud"`

	// Console selects the initial output; "serial" starts redirected.
	Console string `toml:"console"`

	// WAV is the file that receives the speaker output. An empty value
	// discards tones.
	WAV string `toml:"wav"`
}

// Default returns the built-in settings.
func Default() Config {
	def := shell.DefaultConfig()
	return Config{
		Username: def.Username,
		Hostname: def.Hostname,
		Width:    fallbackWidth,
		Height:   fallbackHeight,
		LineBuf:  def.LineCapacity,
		Baud:     38400,
		Console:  "vga",
	}
}

// Load builds the configuration from the TOML file at path and the .env
// file at envFile, followed by the SPUD_* environment variables. Empty paths
// are skipped.
func Load(path, envFile string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("config: reading %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parsing %s: %w", path, err)
		}
	}

	if envFile != "" {
		vals, err := godotenv.Read(envFile)
		if err != nil {
			return cfg, fmt.Errorf("config: reading %s: %w", envFile, err)
		}
		if err := cfg.apply(func(key string) (string, bool) {
			v, ok := vals[key]
			return v, ok
		}); err != nil {
			return cfg, fmt.Errorf("config: %s: %w", envFile, err)
		}
	}

	if err := cfg.apply(os.LookupEnv); err != nil {
		return cfg, fmt.Errorf("config: environment: %w", err)
	}

	return cfg, cfg.Validate()
}

// apply overrides settings with the SPUD_* values returned by lookup.
func (c *Config) apply(lookup func(string) (string, bool)) error {
	strs := []struct {
		key string
		dst *string
	}{
		{"USERNAME", &c.Username},
		{"HOSTNAME", &c.Hostname},
		{"SERIAL", &c.Serial},
		{"CONSOLE", &c.Console},
		{"WAV", &c.WAV},
	}
	for _, s := range strs {
		if v, ok := lookup(EnvPrefix + s.key); ok {
			*s.dst = v
		}
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"WIDTH", &c.Width},
		{"HEIGHT", &c.Height},
		{"LINEBUF", &c.LineBuf},
		{"BAUD", &c.Baud},
	}
	for _, i := range ints {
		v, ok := lookup(EnvPrefix + i.key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, i.key, err)
		}
		*i.dst = n
	}

	return nil
}

// Validate reports settings that cannot be used.
func (c Config) Validate() error {
	switch {
	case c.LineBuf < 2:
		return fmt.Errorf("config: %w", errBadLineBuf)
	case c.Width < 0 || c.Height < 0:
		return fmt.Errorf("config: %w", errBadSize)
	case c.Serial != "" && c.Baud <= 0:
		return fmt.Errorf("config: %w", errBadBaud)
	}
	return nil
}

// Size returns the console size. Zero dimensions are replaced by the size of
// the terminal attached to fd, or by 80x25 if fd is not a terminal or reports
// an empty size.
func (c Config) Size(fd int) (uint32, uint32) {
	w, h := c.Width, c.Height
	if w == 0 || h == 0 {
		tw, th := fallbackWidth, fallbackHeight
		if isTerminalFn(fd) {
			if sw, sh, err := getSizeFn(fd); err == nil && sw > 0 && sh > 0 {
				tw, th = sw, sh
			}
		}
		if w == 0 {
			w = tw
		}
		if h == 0 {
			h = th
		}
	}
	return uint32(w), uint32(h)
}

// Shell returns the shell configuration matching these settings.
func (c Config) Shell() shell.Config {
	cfg := shell.DefaultConfig()
	cfg.Username = c.Username
	cfg.Hostname = c.Hostname
	cfg.LineCapacity = c.LineBuf
	cfg.Serial = c.Console == "serial"
	return cfg
}
