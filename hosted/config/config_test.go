package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/term"
)

func writeFile(t *testing.T, name, contents string) string {
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", "")
	if err != nil {
		t.Fatal(err)
	}
	if cfg != Default() {
		t.Fatalf("expected defaults; got %+v", cfg)
	}

	sh := cfg.Shell()
	if sh.Username != "mango" || sh.Hostname != "cd" || sh.LineCapacity != 256 || sh.Serial {
		t.Fatalf("unexpected shell config %+v", sh)
	}
}

func TestLoadLayers(t *testing.T) {
	tomlPath := writeFile(t, "spud.toml", `
username = "root"
hostname = "toml"
width = 100
linebuf = 64
serial = "/dev/ttyS0"
console = "serial"
`)
	envPath := writeFile(t, ".env", "SPUD_HOSTNAME=dotenv\nSPUD_HEIGHT=40\nSPUD_WAV=beep.wav\n")
	t.Setenv("SPUD_WAV", "env.wav")
	t.Setenv("SPUD_BAUD", "115200")

	cfg, err := Load(tomlPath, envPath)
	if err != nil {
		t.Fatal(err)
	}

	exp := Config{
		Username: "root",
		Hostname: "dotenv",
		Width:    100,
		Height:   40,
		LineBuf:  64,
		Serial:   "/dev/ttyS0",
		Baud:     115200,
		Console:  "serial",
		WAV:      "env.wav",
	}
	if cfg != exp {
		t.Fatalf("expected %+v; got %+v", exp, cfg)
	}
	if !cfg.Shell().Serial {
		t.Fatal("expected console = serial to start the shell redirected")
	}
}

func TestLoadErrors(t *testing.T) {
	badTOML := writeFile(t, "bad.toml", "width = [")
	badEnv := writeFile(t, "bad.env", "SPUD_WIDTH=wide\n")

	specs := []struct {
		path, envFile string
		env           map[string]string
		expErr        error
	}{
		{filepath.Join(t.TempDir(), "missing.toml"), "", nil, os.ErrNotExist},
		{"", filepath.Join(t.TempDir(), "missing.env"), nil, os.ErrNotExist},
		{badTOML, "", nil, nil},
		{"", badEnv, nil, nil},
		{"", "", map[string]string{"SPUD_LINEBUF": "1"}, errBadLineBuf},
		{"", "", map[string]string{"SPUD_WIDTH": "-1"}, errBadSize},
		{"", "", map[string]string{"SPUD_SERIAL": "/dev/ttyS0", "SPUD_BAUD": "0"}, errBadBaud},
	}

	for specIndex, spec := range specs {
		t.Run("", func(t *testing.T) {
			for k, v := range spec.env {
				t.Setenv(k, v)
			}

			_, err := Load(spec.path, spec.envFile)
			if err == nil {
				t.Fatalf("[spec %d] expected an error", specIndex)
			}
			if spec.expErr != nil && !errors.Is(err, spec.expErr) {
				t.Fatalf("[spec %d] expected error wrapping %v; got %v", specIndex, spec.expErr, err)
			}
		})
	}
}

func TestSize(t *testing.T) {
	specs := []struct {
		w, h       int
		expW, expH uint32
	}{
		{80, 25, 80, 25},
		{132, 0, 132, 25},
		{0, 50, 80, 50},
		{0, 0, 80, 25},
	}

	// A regular file is never a terminal so zero dimensions fall back to
	// 80x25.
	f, err := os.Create(filepath.Join(t.TempDir(), "not-a-tty"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	for specIndex, spec := range specs {
		cfg := Config{Width: spec.w, Height: spec.h}
		if w, h := cfg.Size(int(f.Fd())); w != spec.expW || h != spec.expH {
			t.Errorf("[spec %d] expected size %dx%d; got %dx%d", specIndex, spec.expW, spec.expH, w, h)
		}
	}
}

func TestSizeFromTerminal(t *testing.T) {
	defer func() {
		isTerminalFn = term.IsTerminal
		getSizeFn = term.GetSize
	}()
	isTerminalFn = func(int) bool { return true }

	specs := []struct {
		termW, termH int
		termErr      error
		expW, expH   uint32
	}{
		{120, 40, nil, 120, 40},
		{0, 0, nil, 80, 25},
		{120, 0, nil, 80, 25},
		{0, 40, nil, 80, 25},
		{120, 40, errors.New("inappropriate ioctl for device"), 80, 25},
	}

	for specIndex, spec := range specs {
		getSizeFn = func(int) (int, int, error) {
			return spec.termW, spec.termH, spec.termErr
		}

		if w, h := (Config{}).Size(0); w != spec.expW || h != spec.expH {
			t.Errorf("[spec %d] expected size %dx%d; got %dx%d", specIndex, spec.expW, spec.expH, w, h)
		}
	}
}
