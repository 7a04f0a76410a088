package shell

import (
	"strconv"

	"spudos/device/rtc"
	"spudos/kernel/klog"
)

// Machine exposes the hardware actions that built-in commands can trigger.
type Machine interface {
	// Reboot resets the machine. It does not return on real hardware.
	Reboot()

	// Shutdown powers the machine off. It returns if no power-off method
	// worked.
	Shutdown()

	// Panic reports an unrecoverable error and halts.
	Panic(msg string)

	// Tone plays a tone and blocks until it is over.
	Tone(freqHz, durationMs uint32)

	// Now returns the current wall clock time.
	Now() rtc.DateTime

	// Drives returns the device node names of the detected drives.
	Drives() []string

	// CPUVendor returns the CPU vendor string.
	CPUVendor() string
}

// Builtins returns the table of built-in commands in the order they are
// listed by help.
func Builtins(m Machine, cfg Config) *CommandTable {
	var table *CommandTable

	table = NewCommandTable(
		Command{Name: "help", Help: "list available commands", Handler: func(term Terminal, _ string, _ []string) Status {
			for _, cmd := range table.Commands() {
				term.Printf("%-10s%s\n", cmd.Name, cmd.Help)
			}
			return StatusContinue
		}},
		Command{Name: "clear", Help: "clear the screen", Handler: func(term Terminal, _ string, _ []string) Status {
			term.Clear()
			return StatusContinue
		}},
		Command{Name: "echo", Help: "print the arguments", TakesArgs: true, Handler: cmdEcho},
		Command{Name: "ls", Help: "list device nodes", Handler: func(term Terminal, _ string, _ []string) Status {
			for _, name := range m.Drives() {
				term.Printf("/dev/%s\n", name)
			}
			return StatusContinue
		}},
		Command{Name: "lsd", Help: "list detected drives", Handler: func(term Terminal, _ string, _ []string) Status {
			drives := m.Drives()
			if len(drives) == 0 {
				term.Print("No drives found.\n")
				return StatusContinue
			}
			for _, name := range drives {
				term.Printf("Found drive %s\n", name)
			}
			return StatusContinue
		}},
		Command{Name: "le", Help: "list logged events", TakesArgs: true, Handler: cmdEventLog},
		Command{Name: "vga2urt", Help: "redirect output to the serial port", Handler: func(term Terminal, _ string, _ []string) Status {
			if !term.Redirect(true) {
				term.Print("No serial port available.\n")
				return StatusContinue
			}
			term.Print("Output redirected to serial port.\n")
			return StatusContinue
		}},
		Command{Name: "urt2vga", Help: "redirect output to the screen", Handler: func(term Terminal, _ string, _ []string) Status {
			term.Redirect(false)
			term.Print("Output redirected to screen.\n")
			return StatusContinue
		}},
		Command{Name: "loop", Help: "print a greeting 100 times", Handler: func(term Terminal, _ string, _ []string) Status {
			for i := 0; i < 100; i++ {
				term.Print("hello, world!\n")
			}
			return StatusContinue
		}},
		Command{Name: "datetime", Help: "print the date and time", Handler: func(term Terminal, _ string, _ []string) Status {
			now := m.Now()
			term.Print("[m/d/y]: ")
			printDate(term, now)
			term.Print(" at [h/m] ")
			printTime(term, now)
			_ = term.WriteByte('\n')
			return StatusContinue
		}},
		Command{Name: "beep", Help: "play two tones", Handler: func(_ Terminal, _ string, _ []string) Status {
			m.Tone(1000, 200)
			m.Tone(1300, 200)
			return StatusContinue
		}},
		Command{Name: "cpu", Help: "print the CPU vendor", Handler: func(term Terminal, _ string, _ []string) Status {
			term.Printf("CPU vendor: %s\n", m.CPUVendor())
			return StatusContinue
		}},
		Command{Name: "version", Help: "print the OS version", Handler: func(term Terminal, _ string, _ []string) Status {
			term.Printf("%s %s\n", cfg.OSName, cfg.Version)
			return StatusContinue
		}},
		Command{Name: "panic", Help: "trigger a kernel panic", Handler: func(_ Terminal, _ string, _ []string) Status {
			m.Panic("User called panic.")
			return StatusContinue
		}},
		Command{Name: "reboot", Help: "reboot the machine", Handler: func(_ Terminal, _ string, _ []string) Status {
			m.Reboot()
			return StatusContinue
		}},
		Command{Name: "shutdown", Help: "power off the machine", Handler: func(_ Terminal, _ string, _ []string) Status {
			m.Shutdown()
			return StatusContinue
		}},
		Command{Name: "exit", Help: "leave the shell", Handler: func(_ Terminal, _ string, _ []string) Status {
			return StatusExit
		}},
	)

	return table
}

func cmdEcho(term Terminal, _ string, args []string) Status {
	for i, arg := range args {
		if i > 0 {
			_ = term.WriteByte(' ')
		}
		term.Print(arg)
	}
	_ = term.WriteByte('\n')
	return StatusContinue
}

// cmdEventLog lists the whole event log, the last n entries ("le 5") or
// empties it ("le clear").
func cmdEventLog(term Terminal, _ string, args []string) Status {
	var listed bool

	switch {
	case len(args) == 0:
		listed = klog.Write(term)
	case args[0] == "clear":
		klog.Clear()
		term.Print("Event log cleared.\n")
		return StatusContinue
	default:
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			term.Print("usage: le [count|clear]\n")
			return StatusContinue
		}
		listed = klog.Tail(term, n)
	}

	if !listed {
		term.Print("No events logged.\n")
	}
	return StatusContinue
}
