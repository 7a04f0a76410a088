package serial

import (
	"bytes"
	"testing"

	"spudos/device"
	"spudos/kernel/cpu"
)

type portWrite struct {
	port uint16
	val  uint8
}

func restorePorts() {
	portWriteByteFn = cpu.PortWriteByte
	portReadByteFn = cpu.PortReadByte
}

func TestUARTDriverInit(t *testing.T) {
	defer restorePorts()

	var writes []portWrite
	portWriteByteFn = func(port uint16, val uint8) {
		writes = append(writes, portWrite{port, val})
	}

	u := NewUART(COM1, 9600)
	var dev device.Driver = u

	if dev.DriverName() == "" {
		t.Fatal("DriverName() returned an empty string")
	}

	if major, minor, patch := dev.DriverVersion(); major+minor+patch == 0 {
		t.Fatal("DriverVersion() returned an invalid version number")
	}

	if u.Enabled() {
		t.Fatal("expected UART to be disabled before init")
	}

	var buf bytes.Buffer
	if err := dev.DriverInit(&buf); err != nil {
		t.Fatal(err)
	}

	// divisor for 9600 baud = 12
	expWrites := []portWrite{
		{0x3f9, 0x00},
		{0x3fb, 0x80},
		{0x3f8, 12},
		{0x3f9, 0},
		{0x3fb, 0x03},
		{0x3fa, 0xc7},
		{0x3fc, 0x0b},
	}

	if len(writes) != len(expWrites) {
		t.Fatalf("expected %d port writes; got %d", len(expWrites), len(writes))
	}

	for i, exp := range expWrites {
		if writes[i] != exp {
			t.Errorf("[port write %d] expected port: 0x%x, val: 0x%x; got port: 0x%x, val: 0x%x", i, exp.port, exp.val, writes[i].port, writes[i].val)
		}
	}

	if !u.Enabled() {
		t.Fatal("expected UART to be enabled after init")
	}

	if exp, got := "port 0x3f8 at 9600 baud\n", buf.String(); got != exp {
		t.Fatalf("expected init output %q; got %q", exp, got)
	}
}

func TestUARTDriverInitBadBaud(t *testing.T) {
	defer restorePorts()

	portWriteByteFn = func(_ uint16, _ uint8) {
		t.Error("unexpected port write")
	}

	for specIndex, baud := range []uint32{0, 7, 230400} {
		if err := NewUART(COM1, baud).DriverInit(nil); err != errBadBaud {
			t.Errorf("[spec %d] expected errBadBaud for %d baud; got %v", specIndex, baud, err)
		}
	}
}

func TestUARTWriteByte(t *testing.T) {
	defer restorePorts()

	t.Run("ready after a few polls", func(t *testing.T) {
		var (
			statusPolls int
			sent        []byte
		)
		portReadByteFn = func(port uint16) uint8 {
			if port == COM1+regLineStatus {
				statusPolls++
				if statusPolls < 3 {
					return 0
				}
				return lineStatusTHRE
			}
			return 0
		}
		portWriteByteFn = func(port uint16, val uint8) {
			if port == COM1+regData {
				sent = append(sent, val)
			}
		}

		u := NewUART(COM1, DefaultBaud)
		u.Enable()

		if _, err := u.Write([]byte("ok")); err != nil {
			t.Fatal(err)
		}

		if string(sent) != "ok" {
			t.Fatalf("expected to send %q; got %q", "ok", sent)
		}
	})

	t.Run("timeout disables the port", func(t *testing.T) {
		var statusPolls int
		portReadByteFn = func(port uint16) uint8 {
			if port == COM1+regLineStatus {
				statusPolls++
			}
			return 0
		}
		portWriteByteFn = func(_ uint16, _ uint8) {
			t.Error("unexpected port write")
		}

		u := NewUART(COM1, DefaultBaud)
		u.Enable()

		if err := u.WriteByte('x'); err != ErrTimeout {
			t.Fatalf("expected ErrTimeout; got %v", err)
		}

		if statusPolls != DefaultRetries {
			t.Fatalf("expected %d line status polls; got %d", DefaultRetries, statusPolls)
		}

		if u.Enabled() {
			t.Fatal("expected the UART to disable itself after a timeout")
		}

		statusPolls = 0
		if err := u.WriteByte('x'); err != ErrDisabled {
			t.Fatalf("expected ErrDisabled; got %v", err)
		}

		if statusPolls != 0 {
			t.Fatal("expected a disabled UART not to touch the hardware")
		}

		n, err := u.Write([]byte("abc"))
		if n != 0 || err != ErrDisabled {
			t.Fatalf("expected Write to return (0, ErrDisabled); got (%d, %v)", n, err)
		}
	})

	t.Run("custom retries", func(t *testing.T) {
		var statusPolls int
		portReadByteFn = func(port uint16) uint8 {
			if port == COM1+regLineStatus {
				statusPolls++
			}
			return 0
		}

		u := NewUART(COM1, DefaultBaud)
		u.SetRetries(0)
		u.Enable()
		u.WriteByte('x')

		if statusPolls != 1 {
			t.Fatalf("expected a single line status poll; got %d", statusPolls)
		}
	})
}

func TestUARTProbe(t *testing.T) {
	drv := probeForUART()
	if drv == nil {
		t.Fatal("expected probeForUART to return a driver")
	}

	if _, ok := drv.(Sink); !ok {
		t.Fatal("expected the UART driver to implement Sink")
	}
}
