// Command spudsim runs the spudos console shell inside a host terminal. The
// display, keyboard, serial port and speaker are emulated with tcell, a host
// serial device and a WAV file.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/gdamore/tcell/v2"
	"golang.org/x/term"

	"spudos/device/serial"
	"spudos/device/tty"
	"spudos/hosted/config"
	"spudos/hosted/serialline"
	"spudos/hosted/termcons"
	"spudos/hosted/termkbd"
	"spudos/hosted/wavspeaker"
	"spudos/kernel/kfmt"
	"spudos/kernel/klog"
	"spudos/kernel/shell"
)

func main() {
	configPath := flag.String("config", "", "path to a TOML configuration file")
	envPath := flag.String("env", "", "path to a .env file overriding the configuration")
	flag.Parse()

	if err := run(*configPath, *envPath); err != nil {
		fmt.Fprintf(os.Stderr, "spudsim: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, envPath string) error {
	cfg, err := config.Load(configPath, envPath)
	if err != nil {
		return err
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return fmt.Errorf("standard input is not a terminal")
	}
	width, height := cfg.Size(int(os.Stdout.Fd()))

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("creating screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("initializing screen: %w", err)
	}

	m := &machine{screen: screen}
	defer m.close()

	var sink serial.Sink
	if cfg.Serial != "" {
		if m.line, err = serialline.Open(cfg.Serial, cfg.Baud); err != nil {
			return err
		}
		sink = m.line
	}
	if cfg.WAV != "" {
		m.speaker = wavspeaker.New(cfg.WAV, wavspeaker.DefaultSampleRate)
	}

	vt := tty.NewVT()
	vt.AttachTo(termcons.New(screen, width, height))
	vt.SetState(tty.StateActive)

	m.cons = shell.NewConsole(vt, sink)
	kfmt.SetOutputSink(m.cons)
	klog.SetOutput(m.cons)
	klog.Logf("sim", "%dx%d console", width, height)
	if sink != nil {
		klog.Task("Opening "+cfg.Serial, klog.StateOkay)
	}

	shellCfg := cfg.Shell()
	keys := termkbd.New(screen, m.Shutdown)
	sh := shell.New(shellCfg, m.cons, keys, shell.Builtins(m, shellCfg))
	sh.Banner(m.Now())
	sh.Run()

	return nil
}
