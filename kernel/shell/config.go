package shell

import "strconv"

// Attr is a foreground/background VGA color pair.
type Attr struct {
	Fg uint8
	Bg uint8
}

// Config controls the appearance and limits of the shell.
type Config struct {
	Username string
	Hostname string

	// LineCapacity is the size of the line buffer including the 0
	// terminator, so at most LineCapacity-1 characters fit on a line.
	LineCapacity int

	PromptAttr Attr
	TextAttr   Attr

	OSName  string
	Version string

	// Serial starts the shell with its output redirected to the serial
	// sink.
	Serial bool

	// SerialRetries is the number of line status polls the UART makes
	// before giving up on a byte. Zero keeps the driver default.
	SerialRetries int
}

// DefaultConfig returns the configuration used when the boot command line
// does not override anything.
func DefaultConfig() Config {
	return Config{
		Username:     "mango",
		Hostname:     "cd",
		LineCapacity: 256,
		PromptAttr:   Attr{Fg: 10, Bg: 0},
		TextAttr:     Attr{Fg: 7, Bg: 0},
		OSName:       "spudos",
		Version:      "0.1.0",
	}
}

// Prompt returns the prompt text printed before each line.
func (c Config) Prompt() string {
	return c.Username + "@" + c.Hostname + " /> "
}

// PromptBoundary returns the column right after the prompt. Backspace never
// erases at or before this column.
func (c Config) PromptBoundary() uint32 {
	return uint32(len(c.Username) + len(c.Hostname) + 5)
}

// ConfigFromCmdLine returns the default configuration with the overrides
// found in the boot command line applied. The recognized keys are username,
// hostname, linebuf, serialretries and console (only the value "serial" has
// an effect). Invalid values are ignored.
func ConfigFromCmdLine(cmdLine map[string]string) Config {
	cfg := DefaultConfig()

	if v := cmdLine["username"]; v != "" && v != "username" {
		cfg.Username = v
	}
	if v := cmdLine["hostname"]; v != "" && v != "hostname" {
		cfg.Hostname = v
	}
	if v, ok := cmdLine["linebuf"]; ok {
		if n, err := strconv.Atoi(v); err == nil && n > 1 {
			cfg.LineCapacity = n
		}
	}
	if v, ok := cmdLine["serialretries"]; ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SerialRetries = n
		}
	}
	if cmdLine["console"] == "serial" {
		cfg.Serial = true
	}

	return cfg
}
