package keyboard

import (
	"bytes"
	"testing"

	"spudos/device"
	"spudos/kernel/cpu"
)

// mockPS2 emulates the controller ports. Each queued byte becomes readable
// after the status register has been polled pendingPolls times.
type mockPS2 struct {
	queue        []byte
	pendingPolls int
	polls        int
	dataReads    int
}

func (m *mockPS2) readByte(port uint16) uint8 {
	switch port {
	case ps2StatusPort:
		if len(m.queue) == 0 {
			return 0
		}
		m.polls++
		if m.polls <= m.pendingPolls {
			return 0
		}
		return statusOutputFull
	case ps2DataPort:
		m.dataReads++
		m.polls = 0
		b := m.queue[0]
		m.queue = m.queue[1:]
		return b
	}
	return 0xff
}

func TestControllerPoll(t *testing.T) {
	defer func() {
		portReadByteFn = cpu.PortReadByte
	}()

	m := &mockPS2{queue: []byte{0x1e, 0x9e}, pendingPolls: 3}
	portReadByteFn = m.readByte

	c := NewController()
	for i, exp := range []byte{0x1e, 0x9e} {
		if got := c.Poll(); got != exp {
			t.Errorf("[poll %d] expected 0x%x; got 0x%x", i, exp, got)
		}
	}

	if m.dataReads != 2 {
		t.Fatalf("expected 2 data port reads; got %d", m.dataReads)
	}
}

func TestControllerDriverInterface(t *testing.T) {
	defer func() {
		portReadByteFn = cpu.PortReadByte
	}()

	var dev device.Driver = NewController()

	if dev.DriverName() == "" {
		t.Fatal("DriverName() returned an empty string")
	}

	if major, minor, patch := dev.DriverVersion(); major+minor+patch == 0 {
		t.Fatal("DriverVersion() returned an invalid version number")
	}

	t.Run("stale bytes", func(t *testing.T) {
		m := &mockPS2{queue: []byte{0xfa, 0xaa}}
		portReadByteFn = m.readByte

		var buf bytes.Buffer
		if err := dev.DriverInit(&buf); err != nil {
			t.Fatal(err)
		}

		if len(m.queue) != 0 {
			t.Fatalf("expected DriverInit to drain the output buffer; %d bytes left", len(m.queue))
		}

		if exp, got := "discarded 2 stale bytes\n", buf.String(); got != exp {
			t.Fatalf("expected init output %q; got %q", exp, got)
		}
	})

	t.Run("stuck status bit", func(t *testing.T) {
		var reads int
		portReadByteFn = func(port uint16) uint8 {
			if port == ps2DataPort {
				reads++
			}
			return statusOutputFull
		}

		if err := dev.DriverInit(nil); err != nil {
			t.Fatal(err)
		}

		if reads != maxFlush {
			t.Fatalf("expected DriverInit to give up after %d reads; got %d", maxFlush, reads)
		}
	})
}

func TestControllerProbe(t *testing.T) {
	if drv := probeForController(); drv == nil {
		t.Fatal("expected probeForController to return a driver")
	}
}
